package wechat

import (
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/config"
	"github.com/BaSui01/mcptools/internal/metrics"
)

// DefaultBaseURL 公众号接口地址
const DefaultBaseURL = "https://api.weixin.qq.com"

// apiError 公众号接口的通用错误字段
type apiError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Client 公众号 HTTP 客户端，覆盖 token、素材上传与草稿三个接口
type Client struct {
	http    *resty.Client
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewClient 创建客户端。httpClient 为 nil 时使用 resty 默认客户端
func NewClient(cfg config.WeChatConfig, httpClient *http.Client, collector *metrics.Collector, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	var rc *resty.Client
	if httpClient != nil {
		rc = resty.NewWithClient(httpClient)
	} else {
		rc = resty.New()
		if cfg.Timeout > 0 {
			rc.SetTimeout(cfg.Timeout)
		}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rc.SetBaseURL(baseURL).
		SetHeader("User-Agent", "mcptools-wenyan")

	return &Client{
		http:    rc,
		metrics: collector,
		logger:  logger.With(zap.String("component", "wechat_client")),
	}
}
