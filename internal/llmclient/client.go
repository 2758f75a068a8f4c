// Package llmclient 构造 OpenAI 兼容接口客户端，并把上游错误统一转换为 types.Error。
package llmclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/BaSui01/mcptools/config"
	"github.com/BaSui01/mcptools/types"
)

// New 创建 OpenAI 兼容客户端。httpClient 为 nil 时使用 go-openai 默认客户端
func New(cfg config.OpenAIConfig, httpClient *http.Client) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(clientConfig)
}

// WrapError 把 go-openai 返回的错误转换为上游错误，消息格式为
// "API request failed: <status> <statusText>\n<body>"，消息已包含上游响应体，不再挂 Cause
func WrapError(err error) *types.Error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return types.NewUpstreamError("API request failed: %s\n%s",
			statusLine(apiErr.HTTPStatusCode), apiErr.Message).
			WithHTTPStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := string(reqErr.Body)
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return types.NewUpstreamError("API request failed: %s\n%s",
			statusLine(reqErr.HTTPStatusCode), body).
			WithHTTPStatus(reqErr.HTTPStatusCode)
	}

	return types.NewUpstreamError("%v", err).WithCause(err)
}

func statusLine(code int) string {
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}

// FirstContent 返回第一个 choice 的文本内容
func FirstContent(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}
