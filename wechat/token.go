package wechat

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/types"
)

// AccessToken 接口调用凭证
type AccessToken struct {
	Value     string
	ExpiresIn int
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	apiError
}

// GetAccessToken 用 AppID / AppSecret 换取 access token。每次调用都会请求接口，不做缓存
func (c *Client) GetAccessToken(ctx context.Context, appID, secret string) (*AccessToken, error) {
	var out tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"grant_type": "client_credential",
			"appid":      appID,
			"secret":     secret,
		}).
		SetResult(&out).
		ForceContentType("application/json").
		Get("/cgi-bin/token")
	if err != nil {
		return nil, types.NewAuthError("获取 Access Token 失败").WithCause(err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, types.NewAuthError("获取 Access Token 失败: %s", resp.String()).
			WithHTTPStatus(resp.StatusCode())
	}

	if out.ErrCode != 0 {
		return nil, types.NewAuthError("获取 Access Token 失败，错误码：%d，%s", out.ErrCode, out.ErrMsg).
			WithPlatformCode(out.ErrCode)
	}

	if out.AccessToken == "" {
		return nil, types.NewAuthError("获取 Access Token 失败: %s", resp.String())
	}

	c.logger.Debug("access token acquired", zap.Int("expires_in", out.ExpiresIn))

	return &AccessToken{Value: out.AccessToken, ExpiresIn: out.ExpiresIn}, nil
}
