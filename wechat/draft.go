package wechat

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/BaSui01/mcptools/types"
)

// Article 草稿箱图文消息
type Article struct {
	Title            string `json:"title"`
	Content          string `json:"content"`
	ThumbMediaID     string `json:"thumb_media_id"`
	Author           string `json:"author,omitempty"`
	Digest           string `json:"digest,omitempty"`
	ContentSourceURL string `json:"content_source_url,omitempty"`
}

type draftRequest struct {
	Articles []Article `json:"articles"`
}

type draftResponse struct {
	MediaID string `json:"media_id"`
	apiError
}

// AddDraft 新建草稿，返回草稿的 media_id
func (c *Client) AddDraft(ctx context.Context, token string, articles ...Article) (string, error) {
	// 正文是 HTML，关闭 HTML 转义
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(draftRequest{Articles: articles}); err != nil {
		return "", types.NewPublishError("编码草稿失败: %v", err).WithCause(err)
	}

	var out draftResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("access_token", token).
		SetHeader("Content-Type", "application/json").
		SetBody(buf.Bytes()).
		SetResult(&out).
		ForceContentType("application/json").
		Post("/cgi-bin/draft/add")
	if err != nil {
		return "", types.NewPublishError("上传到公众号草稿失败: %v", err).WithCause(err)
	}

	if resp.IsError() {
		return "", types.NewPublishError("上传到公众号草稿失败: %s", resp.String()).
			WithHTTPStatus(resp.StatusCode())
	}

	if out.ErrCode != 0 {
		return "", types.NewPublishError("上传到公众号草稿失败，错误码：%d，%s", out.ErrCode, out.ErrMsg).
			WithPlatformCode(out.ErrCode)
	}

	if out.MediaID == "" {
		return "", types.NewPublishError("上传到公众号草稿失败: %s", resp.String())
	}

	return out.MediaID, nil
}
