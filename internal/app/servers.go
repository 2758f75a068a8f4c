package app

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/chat"
	"github.com/BaSui01/mcptools/config"
	"github.com/BaSui01/mcptools/imagegen"
	"github.com/BaSui01/mcptools/internal/metrics"
	"github.com/BaSui01/mcptools/mcp"
	"github.com/BaSui01/mcptools/theme"
	"github.com/BaSui01/mcptools/tools"
	"github.com/BaSui01/mcptools/wechat"
)

// Deps 注册工具时可用的共享依赖
type Deps struct {
	Config     *config.Config
	HTTPClient *http.Client
	Metrics    *metrics.Collector
	Logger     *zap.Logger
}

// Definition 描述一个工具服务二进制
type Definition struct {
	// Name MCP serverInfo.name，同时作为命令名
	Name  string
	Short string
	// RequireOpenAI 启动时必须提供 OpenAI 兼容接口的 API Key
	RequireOpenAI bool
	// APIKeyFallback OPENAI_API_KEY 为空时接受的备用环境变量名
	APIKeyFallback []string
	// Instructions initialize 响应中的使用说明
	Instructions string
	Register     func(s *mcp.Server, d Deps) error
}

// ImageServer gemini-image-mcp
var ImageServer = Definition{
	Name:          "gemini-image-mcp",
	Short:         "MCP server that generates images with Gemini 3 Pro Image Preview",
	RequireOpenAI:  true,
	APIKeyFallback: []string{"QIANXUN_API_KEY"},
	Register: func(s *mcp.Server, d Deps) error {
		return tools.RegisterImageTools(s, imagegen.NewGenerator(d.Config.OpenAI, d.HTTPClient, d.Logger))
	},
}

// ChatServer gemini-chat-mcp
var ChatServer = Definition{
	Name:          "gemini-chat-mcp",
	Short:         "MCP server that queries Gemini 3 with optional txt/md attachments",
	RequireOpenAI: true,
	Register: func(s *mcp.Server, d Deps) error {
		return tools.RegisterChatTools(s, chat.NewQuerier(d.Config.OpenAI, d.HTTPClient, d.Logger))
	},
}

// WenyanServer wenyan-mcp
var WenyanServer = Definition{
	Name:         "wenyan-mcp",
	Short:        "MCP server that formats Markdown and publishes it to the 公众号 draft box",
	Instructions: "Use list_themes to discover theme ids, then publish_article with either content or file_path.",
	Register: func(s *mcp.Server, d Deps) error {
		cfg := d.Config
		client := wechat.NewClient(cfg.WeChat, d.HTTPClient, d.Metrics, d.Logger)
		publisher := wechat.NewPublisher(client,
			wechat.Credentials{AppID: cfg.WeChat.AppID, AppSecret: cfg.WeChat.AppSecret},
			cfg.WeChat.HostedPrefix, d.Metrics, d.Logger)

		if cfg.WeChat.AppID == "" || cfg.WeChat.AppSecret == "" {
			d.Logger.Warn("WECHAT_APP_ID / WECHAT_APP_SECRET not set, publish_article will fail")
		}

		return tools.RegisterWenyanTools(s, tools.WenyanDeps{
			Renderer:  theme.NewRenderer(d.Logger),
			Publisher: publisher,
			RenderOptions: theme.Options{
				MacStyle:  cfg.Publish.MacStyle,
				Footnotes: cfg.Publish.Footnotes,
			},
			DefaultTheme: cfg.Publish.DefaultTheme,
			DefaultTitle: cfg.Publish.DefaultTitle,
			Logger:       d.Logger,
		})
	},
}
