package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// WSConfig configures the server-side WebSocket transport.
type WSConfig struct {
	HeartbeatInterval time.Duration // Interval between protocol-level pings (default 30s, 0 disables)
	HeartbeatTimeout  time.Duration // Max wait for a pong (default 10s)
	ReadLimit         int64         // Max inbound message size in bytes (default 8 MiB)
	Subprotocols      []string      // Accepted subprotocols (default ["mcp"])
}

// DefaultWSConfig returns a WSConfig with sensible defaults.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		HeartbeatInterval: 30 * time.Second,
		HeartbeatTimeout:  10 * time.Second,
		ReadLimit:         8 << 20,
		Subprotocols:      []string{"mcp"},
	}
}

// WebSocketTransport implements Transport over an accepted WebSocket
// connection. Articles can be large, so the read limit is raised well above
// the library default.
type WebSocketTransport struct {
	conn   *websocket.Conn
	config WSConfig
	logger *zap.Logger

	writeMu   sync.Mutex
	reading   atomic.Bool // pongs are only processed while a Read is pending
	done      chan struct{}
	closeOnce sync.Once
}

// NewWebSocketTransport wraps an accepted connection and starts the heartbeat.
func NewWebSocketTransport(ctx context.Context, conn *websocket.Conn, config WSConfig, logger *zap.Logger) *WebSocketTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ReadLimit > 0 {
		conn.SetReadLimit(config.ReadLimit)
	}
	if config.HeartbeatTimeout == 0 {
		config.HeartbeatTimeout = 10 * time.Second
	}

	t := &WebSocketTransport{
		conn:   conn,
		config: config,
		logger: logger.With(zap.String("component", "mcp_ws_transport")),
		done:   make(chan struct{}),
	}
	if config.HeartbeatInterval > 0 {
		go t.heartbeat(ctx)
	}
	return t
}

// Send writes a JSON-RPC message as a single text frame.
func (t *WebSocketTransport) Send(ctx context.Context, msg *MCPMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	return t.conn.Write(ctx, websocket.MessageText, body)
}

// Receive reads the next message. A normal close from the peer surfaces as io.EOF.
func (t *WebSocketTransport) Receive(ctx context.Context) (*MCPMessage, error) {
	t.reading.Store(true)
	typ, data, err := t.conn.Read(ctx)
	t.reading.Store(false)
	if err != nil {
		select {
		case <-t.done:
			return nil, io.EOF
		default:
		}
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return nil, io.EOF
		}
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("websocket read: %w", err)
	}
	if typ != websocket.MessageText {
		return nil, fmt.Errorf("%w: binary frame", ErrMalformedMessage)
	}
	return decodeMessage(data)
}

// Close sends a normal closure and stops the heartbeat.
func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close(websocket.StatusNormalClosure, "closing")
	})
	return err
}

// heartbeat pings the idle peer periodically; a missed pong closes the
// connection. No ping is sent while a tool call is running.
func (t *WebSocketTransport) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(t.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case <-ticker.C:
			if !t.reading.Load() {
				continue
			}
			pingCtx, cancel := context.WithTimeout(ctx, t.config.HeartbeatTimeout)
			err := t.conn.Ping(pingCtx)
			cancel()
			if err != nil && t.reading.Load() {
				t.logger.Warn("heartbeat failed, closing connection", zap.Error(err))
				_ = t.conn.Close(websocket.StatusGoingAway, "heartbeat timeout")
				return
			}
		}
	}
}
