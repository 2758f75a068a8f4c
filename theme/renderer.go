package theme

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"

	"github.com/BaSui01/mcptools/types"
)

// FootnoteTitle 外链引用列表的标题
const FootnoteTitle = "引用链接"

// Options 渲染选项
type Options struct {
	// MacStyle 代码块顶部加上红黄绿三个圆点
	MacStyle bool
	// Footnotes 外部链接改写为编号引用，并在文末列出
	Footnotes bool
}

// Result 渲染结果
type Result struct {
	Content   string
	Title     string
	Cover     string
	Author    string
	Digest    string
	SourceURL string
}

// Renderer Markdown → 公众号 HTML 渲染器
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	logger *zap.Logger
}

// NewRenderer 创建渲染器
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe(), gmhtml.WithXHTML()),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class", "style").Globally()
	policy.AllowAttrs("type", "checked", "disabled").OnElements("input")
	policy.AllowElements("input", "section")

	return &Renderer{
		md:     md,
		policy: policy,
		logger: logger.With(zap.String("component", "theme_renderer")),
	}
}

// Render 解析 front matter，渲染 Markdown 并内联主题样式
func (r *Renderer) Render(markdown, themeID string, opts Options) (*Result, error) {
	fm, body, err := SplitFrontMatter(markdown)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return nil, types.NewInputError("Markdown 渲染失败: %v", err).WithCause(err)
	}

	safe := r.policy.Sanitize(buf.String())

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<section id="wenyan">` + safe + `</section>`))
	if err != nil {
		return nil, types.NewInputError("HTML 解析失败: %v", err).WithCause(err)
	}
	root := doc.Find("#wenyan")

	if opts.Footnotes {
		linksToFootnotes(root)
	}
	if opts.MacStyle {
		addMacSign(root)
	}

	t := Lookup(themeID)
	if themeID != "" && !Exists(themeID) {
		r.logger.Warn("unknown theme, falling back to default", zap.String("theme", themeID))
	}
	inlineStyles(root, t.Rules)

	content, err := goquery.OuterHtml(root)
	if err != nil {
		return nil, types.NewInputError("HTML 序列化失败: %v", err).WithCause(err)
	}

	return &Result{
		Content:   content,
		Title:     fm.Title,
		Cover:     fm.Cover,
		Author:    fm.Author,
		Digest:    fm.Digest,
		SourceURL: fm.SourceURL,
	}, nil
}

// inlineStyles 按规则顺序把样式内联到匹配元素，元素原有 style 保持最高优先级
func inlineStyles(root *goquery.Selection, rules []Rule) {
	styles := map[*xhtml.Node]string{}
	var order []*goquery.Selection

	apply := func(s *goquery.Selection, style string) {
		node := s.Get(0)
		if _, seen := styles[node]; !seen {
			order = append(order, s)
		}
		styles[node] += style + " "
	}

	for _, rule := range rules {
		if rule.Selector == "#wenyan" {
			apply(root, rule.Style)
			continue
		}
		root.Find(rule.Selector).Each(func(_ int, s *goquery.Selection) {
			apply(s, rule.Style)
		})
	}

	for _, s := range order {
		style := strings.TrimSpace(styles[s.Get(0)])
		if own, ok := s.Attr("style"); ok && own != "" {
			style += " " + own
		}
		s.SetAttr("style", style)
	}
}

// linksToFootnotes 外部链接替换为正文文字加编号，文末追加引用列表
func linksToFootnotes(root *goquery.Selection) {
	type ref struct {
		text string
		href string
	}
	var refs []ref

	root.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !isExternal(href) {
			return
		}
		text := strings.TrimSpace(a.Text())
		refs = append(refs, ref{text: text, href: href})

		inner, _ := a.Html()
		a.ReplaceWithHtml(fmt.Sprintf(`<span class="footnote-word">%s</span><sup class="footnote-ref">[%d]</sup>`, inner, len(refs)))
	})

	if len(refs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(`<h3 class="footnote-title">` + FootnoteTitle + `</h3><section class="footnote-list">`)
	for i, r := range refs {
		label := html.EscapeString(r.text)
		if label == "" || r.text == r.href {
			fmt.Fprintf(&sb, `<p class="footnote-item"><span class="footnote-num">[%d] </span><em>%s</em></p>`,
				i+1, html.EscapeString(r.href))
			continue
		}
		fmt.Fprintf(&sb, `<p class="footnote-item"><span class="footnote-num">[%d] </span>%s: <em>%s</em></p>`,
			i+1, label, html.EscapeString(r.href))
	}
	sb.WriteString(`</section>`)
	root.AppendHtml(sb.String())
}

// 公众号文章域名的链接可以直接点击，保留原样
func isExternal(href string) bool {
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return false
	}
	return !strings.Contains(href, "mp.weixin.qq.com")
}

const macSign = `<span class="mac-sign">` +
	`<span style="display: inline-block; width: 12px; height: 12px; margin-right: 6px; border-radius: 50%; background: #ff5f56;"></span>` +
	`<span style="display: inline-block; width: 12px; height: 12px; margin-right: 6px; border-radius: 50%; background: #ffbd2e;"></span>` +
	`<span style="display: inline-block; width: 12px; height: 12px; border-radius: 50%; background: #27c93f;"></span>` +
	`</span>`

func addMacSign(root *goquery.Selection) {
	root.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		pre.PrependHtml(macSign)
	})
}
