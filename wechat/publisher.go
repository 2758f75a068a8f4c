package wechat

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/internal/metrics"
	"github.com/BaSui01/mcptools/internal/telemetry"
	"github.com/BaSui01/mcptools/types"
)

// MsgMissingCover 既没有封面也没有正文图片时的提示
const MsgMissingCover = "你必须指定一张封面图或者在正文中至少出现一张图片。"

// Credentials 公众号开发者凭证
type Credentials struct {
	AppID     string
	AppSecret string
}

// PublishRequest 发布到草稿箱的请求
type PublishRequest struct {
	Title     string
	HTML      string
	CoverPath string

	Author    string
	Digest    string
	SourceURL string
}

// DraftResult 草稿创建结果
type DraftResult struct {
	MediaID string
}

// Publisher 草稿发布流水线：token → 正文图片 → 封面 → 草稿
type Publisher struct {
	client       *Client
	creds        Credentials
	hostedPrefix string
	metrics      *metrics.Collector
	logger       *zap.Logger
}

// NewPublisher 创建发布器。hostedPrefix 为空时使用 DefaultHostedPrefix
func NewPublisher(client *Client, creds Credentials, hostedPrefix string, collector *metrics.Collector, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hostedPrefix == "" {
		hostedPrefix = DefaultHostedPrefix
	}
	return &Publisher{
		client:       client,
		creds:        creds,
		hostedPrefix: hostedPrefix,
		metrics:      collector,
		logger:       logger.With(zap.String("component", "wechat_publisher")),
	}
}

// Publish 执行完整的发布流程
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (result *DraftResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "wechat.publish",
		attribute.String("title", req.Title),
		attribute.Bool("explicit_cover", req.CoverPath != ""))
	defer func() { telemetry.EndSpan(span, err) }()

	if p.creds.AppID == "" || p.creds.AppSecret == "" {
		return nil, types.NewAuthError("未配置 WECHAT_APP_ID 或 WECHAT_APP_SECRET")
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	html := normalizeLists(req.HTML)

	rewritten, err := p.rewrite(ctx, html, token)
	if err != nil {
		return nil, err
	}

	thumbID, err := p.resolveCover(ctx, req.CoverPath, rewritten.FirstImageID, token)
	if err != nil {
		return nil, err
	}
	// 封面上传成功但没有返回 media_id 时同样视为缺少封面
	if thumbID == "" {
		return nil, types.NewPublishError(MsgMissingCover).WithCause(types.ErrMissingCover)
	}

	mediaID, err := p.addDraft(ctx, token, Article{
		Title:            req.Title,
		Content:          rewritten.HTML,
		ThumbMediaID:     thumbID,
		Author:           req.Author,
		Digest:           req.Digest,
		ContentSourceURL: req.SourceURL,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("draft created",
		append(telemetry.TraceFields(ctx),
			zap.String("media_id", mediaID),
			zap.String("title", req.Title))...)

	return &DraftResult{MediaID: mediaID}, nil
}

func (p *Publisher) accessToken(ctx context.Context) (value string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "wechat.access_token")
	defer func() { telemetry.EndSpan(span, err) }()

	tok, err := p.client.GetAccessToken(ctx, p.creds.AppID, p.creds.AppSecret)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

func (p *Publisher) rewrite(ctx context.Context, html, token string) (res *RewriteResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "wechat.rewrite_images")
	defer func() { telemetry.EndSpan(span, err) }()

	return p.RewriteImages(ctx, html, token)
}

// resolveCover 显式封面优先；否则使用正文第一张图片
func (p *Publisher) resolveCover(ctx context.Context, coverPath, fallback, token string) (thumbID string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "wechat.resolve_cover")
	defer func() { telemetry.EndSpan(span, err) }()

	switch {
	case coverPath != "":
		res, err := p.client.UploadImage(ctx, coverPath, token, "cover.jpg")
		if err != nil {
			return "", err
		}
		return res.MediaID, nil

	case fallback != "" && p.isHosted(fallback):
		res, err := p.client.UploadImage(ctx, fallback, token, "cover.jpg")
		if err != nil {
			return "", err
		}
		return res.MediaID, nil

	case fallback != "":
		return fallback, nil

	default:
		return "", types.NewPublishError(MsgMissingCover).WithCause(types.ErrMissingCover)
	}
}

func (p *Publisher) addDraft(ctx context.Context, token string, article Article) (mediaID string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "wechat.add_draft")
	defer func() { telemetry.EndSpan(span, err) }()

	return p.client.AddDraft(ctx, token, article)
}

// normalizeLists 去掉列表项两侧的换行，公众号编辑器会把它们渲染成空行
func normalizeLists(html string) string {
	html = strings.ReplaceAll(html, "\n<li", "<li")
	return strings.ReplaceAll(html, "</li>\n", "</li>")
}
