package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/internal/ctxkeys"
	"github.com/BaSui01/mcptools/internal/metrics"
)

// maxBodyBytes 单个 HTTP 请求体上限
const maxBodyBytes = 16 << 20

// MCPHandler HTTP 处理器，将 MCP 服务器暴露为 HTTP 端点：
//
//	POST /mcp          单次 JSON-RPC 请求，响应直接返回
//	GET  /mcp/sse      SSE 事件流（旧版 HTTP+SSE 传输）
//	POST /mcp/message  向 SSE 会话投递请求，响应经事件流推送
//	GET  /mcp/ws       WebSocket 传输
//	GET  /healthz      健康检查
type MCPHandler struct {
	server  *Server
	wsCfg   WSConfig
	metrics *metrics.Collector
	logger  *zap.Logger

	// HTTP / SSE 上的工具调用逐个执行；WebSocket 连接自身的服务循环已是串行
	callMu sync.Mutex

	// SSE 客户端管理
	sseClients   map[string]chan []byte
	sseClientsMu sync.RWMutex

	mux *http.ServeMux
}

// NewMCPHandler 创建 MCP HTTP 处理器
func NewMCPHandler(server *Server, collector *metrics.Collector, logger *zap.Logger) *MCPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &MCPHandler{
		server:     server,
		wsCfg:      DefaultWSConfig(),
		metrics:    collector,
		logger:     logger.With(zap.String("component", "mcp_http")),
		sseClients: make(map[string]chan []byte),
		mux:        http.NewServeMux(),
	}
	h.mux.HandleFunc("/mcp", h.handlePost)
	h.mux.HandleFunc("/mcp/sse", h.handleSSE)
	h.mux.HandleFunc("/mcp/message", h.handleSSEMessage)
	h.mux.HandleFunc("/mcp/ws", h.handleWebSocket)
	h.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	return h
}

// Handle 挂载额外的路由（例如 /metrics）
func (h *MCPHandler) Handle(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

// ServeHTTP 实现 http.Handler
func (h *MCPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r)
	h.metrics.RecordHTTPRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
}

// handlePost 处理 POST /mcp
func (h *MCPHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	msg, err := readMessage(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, NewMCPError(nil, ErrorCodeParseError, "parse error", nil))
		return
	}

	if msg.Method == "initialize" {
		w.Header().Set("Mcp-Session-Id", uuid.NewString())
	}

	resp := h.handle(r, msg)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handle 分发单条消息，工具调用串行执行
func (h *MCPHandler) handle(r *http.Request, msg *MCPMessage) *MCPMessage {
	if msg.Method == "tools/call" {
		h.callMu.Lock()
		defer h.callMu.Unlock()
	}
	ctx := r.Context()
	if id := r.Header.Get("Mcp-Session-Id"); id != "" {
		ctx = ctxkeys.WithSessionID(ctx, id)
	} else if id := r.URL.Query().Get("sessionId"); id != "" {
		ctx = ctxkeys.WithSessionID(ctx, id)
	}
	return h.server.HandleMessage(ctx, msg)
}

// handleSSE 处理 SSE 连接
func (h *MCPHandler) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID := uuid.NewString()
	ch := make(chan []byte, 16)

	h.sseClientsMu.Lock()
	h.sseClients[sessionID] = ch
	h.sseClientsMu.Unlock()

	defer func() {
		h.sseClientsMu.Lock()
		delete(h.sseClients, sessionID)
		h.sseClientsMu.Unlock()
	}()

	h.logger.Debug("SSE client connected", zap.String("session_id", sessionID))

	// 发送 endpoint 事件（告知客户端 POST 地址）
	fmt.Fprintf(w, "event: endpoint\ndata: /mcp/message?sessionId=%s\n\n", sessionID)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("SSE client disconnected", zap.String("session_id", sessionID))
			return
		case data := <-ch:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// handleSSEMessage 处理投递到 SSE 会话的 JSON-RPC 消息
func (h *MCPHandler) handleSSEMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	h.sseClientsMu.RLock()
	ch, exists := h.sseClients[sessionID]
	h.sseClientsMu.RUnlock()
	if !exists {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	msg, err := readMessage(r)
	if err != nil {
		http.Error(w, "parse error", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)

	resp := h.handle(r, msg)
	if resp == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("marshal SSE response failed", zap.Error(err))
		return
	}

	select {
	case ch <- data:
	default:
		h.logger.Warn("SSE client channel full", zap.String("session_id", sessionID))
	}
}

// handleWebSocket 升级为 WebSocket 并在连接上运行服务循环
func (h *MCPHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: h.wsCfg.Subprotocols,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	ctx := r.Context()
	transport := NewWebSocketTransport(ctx, conn, h.wsCfg, h.logger)
	defer transport.Close()

	h.logger.Info("websocket client connected", zap.String("remote", r.RemoteAddr))

	if err := h.server.Serve(ctx, transport); err != nil && ctx.Err() == nil {
		h.logger.Warn("websocket session ended", zap.Error(err))
	}
}

// readMessage 读取并解析请求体
func readMessage(r *http.Request) (*MCPMessage, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return decodeMessage(body)
}

// writeJSON 写 JSON 响应
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder 记录响应状态码，并透传 Flush / Hijack 以支持 SSE 与 WebSocket
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
