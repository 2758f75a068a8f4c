package wechat

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/types"
)

// DefaultHostedPrefix 公众号图片 CDN 地址前缀
const DefaultHostedPrefix = "https://mmbiz.qpic.cn"

// RewriteResult 正文图片替换结果
type RewriteResult struct {
	HTML string
	// FirstImageID 第一张图片的 media id 或已托管的 URL，用作封面候选
	FirstImageID string
}

// RewriteImages 按文档顺序逐张上传正文中的图片，并把 src 替换为公众号地址。
// 单张上传失败只记录日志，不中断。
func (p *Publisher) RewriteImages(ctx context.Context, html, token string) (*RewriteResult, error) {
	if !strings.Contains(html, "<img") {
		return &RewriteResult{HTML: html}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, types.NewPublishError("解析正文 HTML 失败: %v", err).WithCause(err)
	}

	var first string
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			return
		}

		if p.isHosted(src) {
			p.metrics.RecordImageUpload("skipped")
			if first == "" {
				first = src
			}
			return
		}

		res, err := p.client.UploadImage(ctx, src, token, "")
		if err != nil {
			p.metrics.RecordImageUpload("failed")
			p.logger.Warn("image upload failed",
				zap.String("src", src),
				zap.Error(err))
			return
		}
		p.metrics.RecordImageUpload("ok")

		if res.URL != "" {
			img.SetAttr("src", res.URL)
		}
		if first == "" {
			first = res.MediaID
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return nil, types.NewPublishError("序列化正文 HTML 失败: %v", err).WithCause(err)
	}

	return &RewriteResult{HTML: out, FirstImageID: first}, nil
}

func (p *Publisher) isHosted(src string) bool {
	return strings.HasPrefix(src, p.hostedPrefix)
}
