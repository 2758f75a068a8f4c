package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/BaSui01/mcptools/chat"
	"github.com/BaSui01/mcptools/theme"
	"github.com/BaSui01/mcptools/types"
	"github.com/BaSui01/mcptools/wechat"
)

// ImageGenerator 图片生成能力，由 imagegen.Generator 实现
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, savePath string) (string, error)
}

// ChatQuerier 问答能力，由 chat.Querier 实现
type ChatQuerier interface {
	Query(ctx context.Context, req chat.QueryRequest) (string, error)
}

// ArticleRenderer Markdown 排版能力，由 theme.Renderer 实现
type ArticleRenderer interface {
	Render(markdown, themeID string, opts theme.Options) (*theme.Result, error)
}

// DraftPublisher 草稿发布能力，由 wechat.Publisher 实现
type DraftPublisher interface {
	Publish(ctx context.Context, req wechat.PublishRequest) (*wechat.DraftResult, error)
}

// errorText 结构化错误取消息本身（不带错误码前缀），并附上消息中尚未出现的底层原因
func errorText(err error) string {
	e, ok := types.AsError(err)
	if !ok {
		return err.Error()
	}
	if e.Cause == nil || errors.Is(e.Cause, types.ErrMissingCover) {
		return e.Message
	}
	cause := e.Cause.Error()
	if strings.Contains(e.Message, cause) {
		return e.Message
	}
	return e.Message + ": " + cause
}
