package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/mcptools/internal/ctxkeys"
	"github.com/BaSui01/mcptools/internal/metrics"
	"github.com/BaSui01/mcptools/internal/telemetry"
)

// ErrToolNotFound 调用了未注册的工具
var ErrToolNotFound = errors.New("unknown tool")

// ToolHandler 工具处理函数。返回的 error 会被转换为 isError 结果，不会中断服务
type ToolHandler func(ctx context.Context, args map[string]any) (*CallToolResult, error)

// Server MCP 工具服务器
type Server struct {
	info         ServerInfo
	instructions string

	tools    map[string]*ToolDefinition
	handlers map[string]ToolHandler
	order    []string
	toolsMu  sync.RWMutex

	toolTimeout time.Duration
	metrics     *metrics.Collector
	level       *zap.AtomicLevel

	logger *zap.Logger
}

// Option 服务器选项
type Option func(*Server)

// WithToolTimeout 单次工具调用超时，0 表示不限制
func WithToolTimeout(d time.Duration) Option {
	return func(s *Server) { s.toolTimeout = d }
}

// WithMetrics 设置指标收集器
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithLogLevel 允许客户端通过 logging/setLevel 调整日志级别
func WithLogLevel(level *zap.AtomicLevel) Option {
	return func(s *Server) { s.level = level }
}

// WithInstructions 设置 initialize 响应中的使用说明
func WithInstructions(text string) Option {
	return func(s *Server) { s.instructions = text }
}

// NewServer 创建 MCP 服务器
func NewServer(name, version string, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		info:     ServerInfo{Name: name, Version: version},
		tools:    make(map[string]*ToolDefinition),
		handlers: make(map[string]ToolHandler),
		logger:   logger.With(zap.String("component", "mcp_server")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Info 获取服务器信息
func (s *Server) Info() ServerInfo {
	return s.info
}

// RegisterTool 注册工具，同名工具会被替换
func (s *Server) RegisterTool(tool *ToolDefinition, handler ToolHandler) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	if handler == nil {
		return fmt.Errorf("tool handler is required")
	}

	s.toolsMu.Lock()
	defer s.toolsMu.Unlock()

	if _, exists := s.tools[tool.Name]; !exists {
		s.order = append(s.order, tool.Name)
	}
	s.tools[tool.Name] = tool
	s.handlers[tool.Name] = handler

	s.logger.Debug("tool registered", zap.String("name", tool.Name))

	return nil
}

// ListTools 按注册顺序列出工具
func (s *Server) ListTools() []ToolDefinition {
	s.toolsMu.RLock()
	defer s.toolsMu.RUnlock()

	result := make([]ToolDefinition, 0, len(s.order))
	for _, name := range s.order {
		result = append(result, *s.tools[name])
	}
	return result
}

// CallTool 调用工具。未知工具返回 ErrToolNotFound，其余失败都体现在结果的 IsError 中
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (result *CallToolResult, err error) {
	s.toolsMu.RLock()
	handler, ok := s.handlers[name]
	s.toolsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	if args == nil {
		args = map[string]any{}
	}

	ctx, span := telemetry.StartSpan(ctx, "tools/call "+name, attribute.String("mcp.tool", name))
	logger := s.logger.With(zap.String("tool", name))
	logger = logger.With(telemetry.TraceFields(ctx)...)
	if id, ok := ctxkeys.RequestID(ctx); ok {
		logger = logger.With(zap.String("request_id", id))
	}
	if id, ok := ctxkeys.SessionID(ctx); ok {
		logger = logger.With(zap.String("session_id", id))
	}

	if s.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.toolTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tool handler panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			result = ErrorResult(fmt.Sprintf("internal error: %v", r))
		}
		s.metrics.RecordToolCall(name, result.IsError, time.Since(start))
		var spanErr error
		if result.IsError {
			spanErr = errors.New(result.Text())
		}
		telemetry.EndSpan(span, spanErr)
	}()

	logger.Debug("calling tool", zap.Any("args", redactArgs(args)))

	result, err = handler(ctx, args)
	if err != nil {
		logger.Warn("tool call failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return ErrorResult(err.Error()), nil
	}
	if result == nil {
		result = TextResult("")
	}

	logger.Info("tool call finished",
		zap.Bool("is_error", result.IsError),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// redactArgs 日志中截断超长参数（例如整篇文章内容）
func redactArgs(args map[string]any) map[string]any {
	const maxLen = 200
	out := make(map[string]any, len(args))
	for k, v := range args {
		if str, ok := v.(string); ok && len(str) > maxLen {
			out[k] = fmt.Sprintf("%s...(%d bytes)", str[:maxLen], len(str))
			continue
		}
		out[k] = v
	}
	return out
}

// =============================================================================
// Message Dispatcher (JSON-RPC 2.0)
// =============================================================================

// HandleMessage dispatches an incoming JSON-RPC 2.0 request and returns the
// response. Notifications (messages without an ID) return a nil response.
func (s *Server) HandleMessage(ctx context.Context, msg *MCPMessage) *MCPMessage {
	if msg == nil {
		return NewMCPError(nil, ErrorCodeInvalidRequest, "empty message", nil)
	}

	if msg.JSONRPC != "" && msg.JSONRPC != "2.0" {
		return NewMCPError(msg.ID, ErrorCodeInvalidRequest, "unsupported JSON-RPC version", nil)
	}

	// 响应或通知：不回复
	if msg.ID == nil {
		s.handleNotification(msg)
		return nil
	}
	if msg.Method == "" {
		if msg.Result != nil || msg.Error != nil {
			return nil
		}
		return NewMCPError(msg.ID, ErrorCodeInvalidRequest, "missing method", nil)
	}

	s.logger.Debug("handling message",
		zap.String("method", msg.Method),
		zap.Any("id", msg.ID),
	)

	result, mcpErr := s.dispatch(ctx, msg.Method, msg.Params)
	if mcpErr != nil {
		return &MCPMessage{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error:   mcpErr,
		}
	}

	return NewMCPResponse(msg.ID, result)
}

// handleNotification processes notification messages (no response expected).
func (s *Server) handleNotification(msg *MCPMessage) {
	switch msg.Method {
	case "notifications/initialized":
		s.logger.Info("client initialized")
	case "notifications/cancelled":
		s.logger.Debug("cancellation ignored, calls run to completion", zap.Any("params", msg.Params))
	default:
		s.logger.Debug("unhandled notification", zap.String("method", msg.Method))
	}
}

// dispatch routes a method call to the corresponding server handler.
func (s *Server) dispatch(ctx context.Context, method string, params map[string]any) (any, *MCPError) {
	switch method {
	case "initialize":
		return s.handleInitialize(params), nil
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return map[string]any{"tools": s.ListTools()}, nil
	case "tools/call":
		return s.handleToolsCall(ctx, params)
	case "logging/setLevel":
		return s.handleSetLevel(params)
	default:
		return nil, &MCPError{
			Code:    ErrorCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", method),
		}
	}
}

func (s *Server) handleInitialize(params map[string]any) *InitializeResult {
	version := MCPVersion
	if requested, _ := params["protocolVersion"].(string); supportedVersions[requested] {
		version = requested
	}

	caps := ServerCapabilities{Tools: &ToolsCapability{}}
	if s.level != nil {
		caps.Logging = &struct{}{}
	}

	return &InitializeResult{
		ProtocolVersion: version,
		Capabilities:    caps,
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}
}

func (s *Server) handleToolsCall(ctx context.Context, params map[string]any) (any, *MCPError) {
	name, _ := params["name"].(string)
	if name == "" {
		return nil, &MCPError{Code: ErrorCodeInvalidParams, Message: "missing required parameter: name"}
	}

	// arguments may be absent for tools with no parameters
	var args map[string]any
	if raw, ok := params["arguments"]; ok && raw != nil {
		args, ok = raw.(map[string]any)
		if !ok {
			return nil, &MCPError{Code: ErrorCodeInvalidParams, Message: "arguments must be an object"}
		}
	}

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return nil, &MCPError{Code: ErrorCodeInvalidParams, Message: err.Error()}
	}
	return result, nil
}

func (s *Server) handleSetLevel(params map[string]any) (any, *MCPError) {
	if s.level == nil {
		return nil, &MCPError{Code: ErrorCodeMethodNotFound, Message: "logging not supported"}
	}
	raw, _ := params["level"].(string)
	lvl, err := zapcore.ParseLevel(mcpLevelToZap(raw))
	if err != nil {
		return nil, &MCPError{Code: ErrorCodeInvalidParams, Message: fmt.Sprintf("invalid level: %s", raw)}
	}
	s.level.SetLevel(lvl)
	s.logger.Info("log level changed", zap.String("level", lvl.String()))
	return map[string]any{}, nil
}

// mcpLevelToZap 将 MCP（syslog 风格）日志级别映射到 zap
func mcpLevelToZap(level string) string {
	switch level {
	case "notice":
		return "info"
	case "warning":
		return "warn"
	case "critical", "alert", "emergency":
		return "error"
	default:
		return level
	}
}

// =============================================================================
// Serve — Transport Message Loop
// =============================================================================

// Serve runs the message loop over the given transport, one request at a
// time. It returns nil when the peer closes the stream and ctx.Err() when the
// context is cancelled.
func (s *Server) Serve(ctx context.Context, transport Transport) error {
	if transport == nil {
		return fmt.Errorf("transport cannot be nil")
	}

	s.logger.Info("MCP server starting",
		zap.String("name", s.info.Name),
		zap.String("version", s.info.Version),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("MCP server stopping: context cancelled")
			return ctx.Err()
		default:
		}

		msg, err := transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("MCP server stopping: context cancelled")
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				s.logger.Info("MCP server stopping: peer closed")
				return nil
			}
			if errors.Is(err, ErrMalformedMessage) {
				s.logger.Warn("malformed message", zap.Error(err))
				parseErrResp := NewMCPError(nil, ErrorCodeParseError, "parse error", nil)
				if sendErr := transport.Send(ctx, parseErrResp); sendErr != nil {
					s.logger.Error("failed to send error response", zap.Error(sendErr))
				}
				continue
			}
			s.logger.Error("transport receive error", zap.Error(err))
			return err
		}

		resp := s.HandleMessage(ctx, msg)
		if resp == nil {
			continue
		}

		if sendErr := transport.Send(ctx, resp); sendErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("failed to send response", zap.Error(sendErr))
			return sendErr
		}
	}
}
