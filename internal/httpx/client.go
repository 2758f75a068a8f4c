// Package httpx builds the outbound HTTP clients shared by the WeChat and
// OpenAI-compatible adapters: hardened TLS, upstream metrics, trace spans.
package httpx

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/internal/metrics"
	"github.com/BaSui01/mcptools/internal/telemetry"
)

// redactedParams 日志中需要脱敏的查询参数
var redactedParams = []string{"access_token", "secret", "appid"}

// Options 出站客户端选项
type Options struct {
	// 整体超时，0 表示不限制
	Timeout time.Duration
	// 指标收集器，可为 nil
	Metrics *metrics.Collector
	// 日志
	Logger *zap.Logger
	// 底层 RoundTripper，为 nil 时使用 SecureTransport
	Base http.RoundTripper
}

// NewClient 创建带指标与追踪的 HTTP 客户端
func NewClient(opts Options) *http.Client {
	base := opts.Base
	if base == nil {
		base = SecureTransport()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &instrumentedTransport{
			base:    base,
			metrics: opts.Metrics,
			logger:  logger.With(zap.String("component", "httpx")),
		},
	}
}

// instrumentedTransport 记录上游请求耗时、状态与 span
type instrumentedTransport struct {
	base    http.RoundTripper
	metrics *metrics.Collector
	logger  *zap.Logger
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Host
	ctx, span := telemetry.StartSpan(req.Context(), fmt.Sprintf("HTTP %s %s", req.Method, host),
		attribute.String("http.method", req.Method),
		attribute.String("server.address", host),
		attribute.String("url.path", req.URL.Path),
	)

	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	t.metrics.RecordUpstreamRequest(host, status, elapsed)
	telemetry.EndSpan(span, err)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", RedactURL(req.URL)),
		zap.Int("status", status),
		zap.Duration("duration", elapsed),
	}
	if err != nil {
		t.logger.Warn("upstream request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	t.logger.Debug("upstream request", fields...)
	return resp, nil
}

// RedactURL 返回隐藏凭证参数后的 URL 字符串
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	changed := false
	for _, p := range redactedParams {
		if q.Has(p) {
			q.Set(p, "***")
			changed = true
		}
	}
	if !changed {
		return u.String()
	}
	c := *u
	c.RawQuery = q.Encode()
	return c.String()
}
