package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/content"
	"github.com/BaSui01/mcptools/mcp"
	"github.com/BaSui01/mcptools/theme"
	"github.com/BaSui01/mcptools/wechat"
)

const (
	// PublishArticleTool publish_article 工具名
	PublishArticleTool = "publish_article"
	// ListThemesTool list_themes 工具名
	ListThemesTool = "list_themes"

	// DefaultTitle front matter 没有 title 时的草稿标题
	DefaultTitle = "this is title"
)

// WenyanDeps 公众号发布工具的依赖
type WenyanDeps struct {
	Renderer      ArticleRenderer
	Publisher     DraftPublisher
	RenderOptions theme.Options
	DefaultTheme  string
	DefaultTitle  string
	Logger        *zap.Logger
}

type publishArticleArgs struct {
	Content  string `json:"content"`
	FilePath string `json:"file_path"`
	ThemeID  string `json:"theme_id"`
}

// RegisterWenyanTools 注册 publish_article 与 list_themes
func RegisterWenyanTools(s *mcp.Server, deps WenyanDeps) error {
	if deps.DefaultTitle == "" {
		deps.DefaultTitle = DefaultTitle
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	logger := deps.Logger.With(zap.String("component", "wenyan_tools"))

	publish := &mcp.ToolDefinition{
		Name:        PublishArticleTool,
		Description: "Format a Markdown article using a selected theme and publish it to '微信公众号'.",
		InputSchema: mcp.ObjectSchema(map[string]any{
			"content": mcp.StringProperty("The original Markdown content to publish, preserving its frontmatter (if present). " +
				"Use this OR file_path, not both."),
			"file_path": mcp.StringProperty("Path to a local Markdown file to publish. Use this OR content, not both. " +
				"The file will be read and published directly."),
			"theme_id": mcp.StringProperty("ID of the theme to use (e.g., default, orangeheart, rainbow, lapis, pie, maize, purple, phycat)."),
		}),
	}

	err := s.RegisterTool(publish, func(ctx context.Context, raw map[string]any) (*mcp.CallToolResult, error) {
		var args publishArticleArgs
		if err := mcp.DecodeArgs(raw, &args); err != nil {
			return nil, err
		}

		markdown, err := content.Resolve(args.Content, args.FilePath)
		if err != nil {
			return mcp.ErrorResult(errorText(err)), nil
		}

		themeID := args.ThemeID
		if themeID == "" {
			themeID = deps.DefaultTheme
		}

		rendered, err := deps.Renderer.Render(markdown, themeID, deps.RenderOptions)
		if err != nil {
			return mcp.ErrorResult(errorText(err)), nil
		}

		title := rendered.Title
		if title == "" {
			title = deps.DefaultTitle
		}

		draft, err := deps.Publisher.Publish(ctx, wechat.PublishRequest{
			Title:     title,
			HTML:      rendered.Content,
			CoverPath: rendered.Cover,
			Author:    rendered.Author,
			Digest:    rendered.Digest,
			SourceURL: rendered.SourceURL,
		})
		if err != nil {
			logger.Warn("publish failed", zap.String("title", title), zap.Error(err))
			return mcp.ErrorResult(errorText(err)), nil
		}

		return mcp.TextResult(fmt.Sprintf(
			"Your article was successfully published to '公众号草稿箱'. The media ID is %s.", draft.MediaID)), nil
	})
	if err != nil {
		return err
	}

	list := &mcp.ToolDefinition{
		Name:        ListThemesTool,
		Description: "List the themes compatible with the 'publish_article' tool to publish an article to '微信公众号'.",
		InputSchema: mcp.ObjectSchema(map[string]any{}),
	}

	return s.RegisterTool(list, func(ctx context.Context, _ map[string]any) (*mcp.CallToolResult, error) {
		themes := theme.Themes()
		texts := make([]string, 0, len(themes))
		for _, t := range themes {
			data, err := json.Marshal(t)
			if err != nil {
				return nil, err
			}
			texts = append(texts, string(data))
		}
		return mcp.TextResults(texts...), nil
	})
}
