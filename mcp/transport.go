package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrMalformedMessage 收到无法解析的消息，服务循环回复 parse error 后继续
var ErrMalformedMessage = errors.New("malformed message")

// Transport MCP 传输层接口
type Transport interface {
	// Send 发送消息
	Send(ctx context.Context, msg *MCPMessage) error
	// Receive 接收消息（阻塞），对端关闭时返回 io.EOF
	Receive(ctx context.Context) (*MCPMessage, error)
	// Close 关闭传输
	Close() error
}

// decodeMessage 解析单条 JSON-RPC 消息
func decodeMessage(data []byte) (*MCPMessage, error) {
	var msg MCPMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return &msg, nil
}

// ---------------------------------------------------------------------------
// StdioTransport 标准输入输出传输
// ---------------------------------------------------------------------------

// frame 读取到的一帧
type frame struct {
	data []byte
	err  error
}

// StdioTransport 基于 io.Reader/io.Writer 的 stdio 传输。
// 默认按行分隔 JSON；若对端使用 Content-Length 头，则改用同样的格式回复。
type StdioTransport struct {
	reader *bufio.Reader
	writer io.Writer
	logger *zap.Logger

	writeMu      sync.Mutex
	headerFramed bool

	startOnce sync.Once
	frames    chan frame
	done      chan struct{}
	closeOnce sync.Once
}

// NewStdioTransport 创建 stdio 传输
func NewStdioTransport(reader io.Reader, writer io.Writer, logger *zap.Logger) *StdioTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StdioTransport{
		reader: bufio.NewReaderSize(reader, 64*1024),
		writer: writer,
		logger: logger.With(zap.String("component", "mcp_stdio")),
		frames: make(chan frame),
		done:   make(chan struct{}),
	}
}

// Send 发送消息
func (t *StdioTransport) Send(ctx context.Context, msg *MCPMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.headerFramed {
		header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
		if _, err := io.WriteString(t.writer, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if _, err := t.writer.Write(body); err != nil {
			return fmt.Errorf("write body: %w", err)
		}
		return nil
	}

	if _, err := t.writer.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Receive 接收消息。读取在后台 goroutine 中进行，ctx 取消时立即返回
func (t *StdioTransport) Receive(ctx context.Context) (*MCPMessage, error) {
	t.startOnce.Do(func() { go t.readLoop() })

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, io.EOF
	case f, ok := <-t.frames:
		if !ok {
			return nil, io.EOF
		}
		if f.err != nil {
			return nil, f.err
		}
		return decodeMessage(f.data)
	}
}

// readLoop 持续读取帧，直到 EOF 或关闭
func (t *StdioTransport) readLoop() {
	defer close(t.frames)
	for {
		data, err := t.readFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.deliver(frame{err: err})
			}
			return
		}
		if !t.deliver(frame{data: data}) {
			return
		}
	}
}

func (t *StdioTransport) deliver(f frame) bool {
	select {
	case t.frames <- f:
		return true
	case <-t.done:
		return false
	}
}

// readFrame 读取一帧：空行跳过，Content-Length 头触发按长度读取
func (t *StdioTransport) readFrame() ([]byte, error) {
	for {
		line, err := t.reader.ReadBytes('\n')
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			if err != nil {
				return nil, err
			}
			continue
		}

		if length, ok := parseContentLength(trimmed); ok {
			return t.readHeaderFramed(length)
		}

		// 最后一行没有换行符时也视为完整消息
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return trimmed, nil
	}
}

// readHeaderFramed 跳过剩余头部后读取定长消息体
func (t *StdioTransport) readHeaderFramed(length int) ([]byte, error) {
	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			break
		}
	}

	t.writeMu.Lock()
	t.headerFramed = true
	t.writeMu.Unlock()

	body := make([]byte, length)
	if _, err := io.ReadFull(t.reader, body); err != nil {
		return nil, err
	}
	return body, nil
}

// parseContentLength 解析 "Content-Length: N" 头
func parseContentLength(line []byte) (int, bool) {
	name, value, found := strings.Cut(string(line), ":")
	if !found || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Close 关闭 stdio 传输，不关闭底层 reader/writer
func (t *StdioTransport) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}
