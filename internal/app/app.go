package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/mcptools/config"
	"github.com/BaSui01/mcptools/internal/httpx"
	"github.com/BaSui01/mcptools/internal/metrics"
	"github.com/BaSui01/mcptools/internal/server"
	"github.com/BaSui01/mcptools/internal/telemetry"
	"github.com/BaSui01/mcptools/mcp"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Options serve 命令的运行参数
type Options struct {
	ConfigPath string
	// Transport / Addr 非空时覆盖配置文件与环境变量
	Transport string
	Addr      string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run 加载配置并运行工具服务，直到 ctx 结束或 stdio 输入关闭
func Run(ctx context.Context, def Definition, opts Options) error {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	// .env 不存在时忽略
	_ = godotenv.Load()

	loader := config.NewLoader().WithAPIKeyFallback(def.APIKeyFallback...)
	if opts.ConfigPath != "" {
		loader = loader.WithConfigPath(opts.ConfigPath)
	}
	if def.RequireOpenAI {
		loader = loader.WithValidator(config.RequireOpenAIKey)
	}

	cfg, err := loader.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			return fmt.Errorf("%w: set %s", config.ErrMissingAPIKey, strings.Join(loader.APIKeyEnv(), " or "))
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Transport != "" {
		cfg.Server.Transport = opts.Transport
	}
	if opts.Addr != "" {
		cfg.Server.HTTPAddr = opts.Addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, level := NewLogger(cfg.Log, opts.Stderr)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting MCP server",
		zap.String("name", def.Name),
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("transport", cfg.Server.Transport),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	if otelProviders != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelProviders.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", zap.Error(err))
			}
		}()
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, logger)
	}

	timeout := cfg.WeChat.Timeout
	if def.RequireOpenAI {
		timeout = cfg.OpenAI.Timeout
	}
	httpClient := httpx.NewClient(httpx.Options{
		Timeout: timeout,
		Metrics: collector,
		Logger:  logger,
	})

	mcpServer := mcp.NewServer(def.Name, Version, logger,
		mcp.WithToolTimeout(cfg.Server.ToolTimeout),
		mcp.WithMetrics(collector),
		mcp.WithLogLevel(&level),
		mcp.WithInstructions(def.Instructions),
	)

	deps := Deps{Config: cfg, HTTPClient: httpClient, Metrics: collector, Logger: logger}
	if err := def.Register(mcpServer, deps); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	return serve(ctx, cfg, mcpServer, collector, logger, opts)
}

// serve 按传输方式启动服务循环，errgroup 中任一任务结束都会让其余任务退出
func serve(ctx context.Context, cfg *config.Config, s *mcp.Server, collector *metrics.Collector, logger *zap.Logger, opts Options) error {
	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	switch cfg.Server.Transport {
	case "stdio":
		transport := mcp.NewStdioTransport(opts.Stdin, opts.Stdout, logger)
		g.Go(func() error {
			defer cancel()
			defer transport.Close()
			return s.Serve(ctx, transport)
		})

		if collector != nil && cfg.Metrics.Addr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			manager := server.NewManager(mux, server.ConfigFrom(cfg.Server, cfg.Metrics.Addr), logger)
			g.Go(func() error { return manager.Run(ctx) })
		}

	default:
		manager := server.NewManager(NewHTTPHandler(s, collector, logger), server.ConfigFrom(cfg.Server, cfg.Server.HTTPAddr), logger)
		g.Go(func() error {
			defer cancel()
			return manager.Run(ctx)
		})
	}

	err := g.Wait()
	logger.Info("MCP server stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// NewHTTPHandler 组装 HTTP / WebSocket 传输的完整处理链
func NewHTTPHandler(s *mcp.Server, collector *metrics.Collector, logger *zap.Logger) http.Handler {
	h := mcp.NewMCPHandler(s, collector, logger)
	if collector != nil {
		h.Handle("/metrics", metrics.Handler())
	}
	return Chain(h,
		Recovery(logger),
		RequestID(),
		OTelTracing(),
		RequestLogger(logger),
	)
}
