package theme

import (
	"fmt"
	"strings"
)

// DefaultThemeID 未指定或未知主题时使用的主题
const DefaultThemeID = "default"

// Info 主题描述，用于 list_themes
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Rule 一条选择器样式规则，渲染时内联到匹配元素的 style 属性
type Rule struct {
	Selector string
	Style    string
}

// Theme 一套排版主题
type Theme struct {
	Info
	Rules []Rule
}

// palette 主题配色
type palette struct {
	accent     string
	text       string
	heading    string
	quoteBG    string
	quoteBar   string
	codeBG     string
	inlineCode string
	h2Filled   bool
	centerH1   bool
	fontFamily string
}

// registry 按 list_themes 的展示顺序排列
var registry = []Theme{
	build(Info{ID: "default", Name: "Default", Description: "简洁的默认主题，黑白灰配色，适合大多数技术文章。"},
		palette{accent: "#0f4c81", text: "#333333", heading: "#222222", quoteBG: "#f7f7f7", quoteBar: "#dddddd",
			codeBG: "#f6f8fa", inlineCode: "#d14", centerH1: true}),
	build(Info{ID: "orangeheart", Name: "Orange Heart", Description: "橙心：暖橙色标题块，活泼醒目。"},
		palette{accent: "#ef7060", text: "#3e3e3e", heading: "#ef7060", quoteBG: "#fff9f9", quoteBar: "#ef7060",
			codeBG: "#fdf6f4", inlineCode: "#ef7060", h2Filled: true}),
	build(Info{ID: "rainbow", Name: "Rainbow", Description: "彩虹：多彩标题与柔和底色，适合轻松的内容。"},
		palette{accent: "#8e44ad", text: "#444444", heading: "#e67e22", quoteBG: "#f0f9ff", quoteBar: "#3498db",
			codeBG: "#fbf7ff", inlineCode: "#16a085", centerH1: true}),
	build(Info{ID: "lapis", Name: "Lapis", Description: "青金石：蓝色强调，清爽专业。"},
		palette{accent: "#3f51b5", text: "#40464f", heading: "#3f51b5", quoteBG: "#f3f5fc", quoteBar: "#3f51b5",
			codeBG: "#f6f8fe", inlineCode: "#3f51b5", h2Filled: true}),
	build(Info{ID: "pie", Name: "Pie", Description: "派：受 sspai 启发的红色点缀主题。"},
		palette{accent: "#da282a", text: "#333333", heading: "#222222", quoteBG: "#fafafa", quoteBar: "#da282a",
			codeBG: "#f8f8f8", inlineCode: "#da282a"}),
	build(Info{ID: "maize", Name: "Maize", Description: "玉米：明黄色调，温暖柔和。"},
		palette{accent: "#dd9f00", text: "#3d3d3d", heading: "#b17b00", quoteBG: "#fffbea", quoteBar: "#f2c94c",
			codeBG: "#fffdf3", inlineCode: "#b17b00", h2Filled: true}),
	build(Info{ID: "purple", Name: "Purple", Description: "紫色：优雅的紫色系主题。"},
		palette{accent: "#8064a9", text: "#444444", heading: "#8064a9", quoteBG: "#f8f5fc", quoteBar: "#8064a9",
			codeBG: "#faf8fd", inlineCode: "#8064a9", centerH1: true}),
	build(Info{ID: "phycat", Name: "Phycat", Description: "物理猫-薄荷：薄荷绿配色，层次分明。"},
		palette{accent: "#00a67c", text: "#3a3a3a", heading: "#00855f", quoteBG: "#f0fbf7", quoteBar: "#00a67c",
			codeBG: "#f4fbf8", inlineCode: "#00855f", h2Filled: true,
			fontFamily: "Optima, 'Microsoft YaHei', sans-serif"}),
}

// Themes 返回所有内置主题的描述
func Themes() []Info {
	out := make([]Info, 0, len(registry))
	for _, t := range registry {
		out = append(out, t.Info)
	}
	return out
}

// Lookup 按 ID 查找主题，未知或空 ID 返回默认主题
func Lookup(id string) Theme {
	id = strings.TrimSpace(strings.ToLower(id))
	for _, t := range registry {
		if t.ID == id {
			return t
		}
	}
	return registry[0]
}

// Exists 判断主题 ID 是否为内置主题
func Exists(id string) bool {
	id = strings.TrimSpace(strings.ToLower(id))
	for _, t := range registry {
		if t.ID == id {
			return true
		}
	}
	return false
}

func build(info Info, p palette) Theme {
	font := p.fontFamily
	if font == "" {
		font = "-apple-system, BlinkMacSystemFont, 'Helvetica Neue', 'PingFang SC', 'Microsoft YaHei', sans-serif"
	}

	h1Align := "left"
	if p.centerH1 {
		h1Align = "center"
	}

	h2 := fmt.Sprintf("margin: 1.6em 0 1em; font-size: 1.3em; font-weight: bold; color: %s; border-bottom: 2px solid %s; padding-bottom: 4px;", p.heading, p.accent)
	if p.h2Filled {
		h2 = fmt.Sprintf("margin: 1.6em auto 1em; font-size: 1.2em; font-weight: bold; display: table; color: #ffffff; background: %s; padding: 2px 12px; border-radius: 4px;", p.accent)
	}

	return Theme{
		Info: info,
		Rules: []Rule{
			{"#wenyan", fmt.Sprintf("font-family: %s; font-size: 16px; line-height: 1.75; color: %s; letter-spacing: 0.5px; word-break: break-word;", font, p.text)},
			{"h1", fmt.Sprintf("margin: 1.2em 0 1em; font-size: 1.5em; font-weight: bold; text-align: %s; color: %s;", h1Align, p.heading)},
			{"h2", h2},
			{"h3", fmt.Sprintf("margin: 1.4em 0 0.8em; font-size: 1.15em; font-weight: bold; color: %s; border-left: 4px solid %s; padding-left: 8px;", p.heading, p.accent)},
			{"h4, h5, h6", fmt.Sprintf("margin: 1.2em 0 0.6em; font-size: 1em; font-weight: bold; color: %s;", p.heading)},
			{"p", "margin: 1em 0; text-align: justify;"},
			{"strong", fmt.Sprintf("font-weight: bold; color: %s;", p.accent)},
			{"em", "font-style: italic;"},
			{"del", "text-decoration: line-through;"},
			{"a", fmt.Sprintf("color: %s; text-decoration: none; border-bottom: 1px solid %s;", p.accent, p.accent)},
			{"ul, ol", "margin: 0.8em 0; padding-left: 1.6em;"},
			{"li", "margin: 0.3em 0;"},
			{"blockquote", fmt.Sprintf("margin: 1.2em 0; padding: 0.8em 1em; color: #666666; background: %s; border-left: 4px solid %s; border-radius: 2px;", p.quoteBG, p.quoteBar)},
			{"blockquote p", "margin: 0.4em 0;"},
			{"pre", fmt.Sprintf("margin: 1.2em 0; padding: 0; background: %s; border-radius: 6px; overflow-x: auto; font-size: 13px; line-height: 1.6;", p.codeBG)},
			{"code", fmt.Sprintf("padding: 2px 4px; margin: 0 2px; font-size: 0.9em; color: %s; background: %s; border-radius: 3px; font-family: Menlo, Monaco, Consolas, monospace;", p.inlineCode, p.codeBG)},
			{"pre code", "display: block; margin: 0; padding: 1em; font-size: 1em; color: #383a42; background: none; white-space: pre; font-family: Menlo, Monaco, Consolas, monospace;"},
			{"img", "display: block; max-width: 100%; margin: 1em auto; border-radius: 4px;"},
			{"hr", "margin: 2em 0; border: none; border-top: 1px solid #e5e5e5;"},
			{"table", "width: 100%; margin: 1em 0; border-collapse: collapse; font-size: 14px;"},
			{"th", fmt.Sprintf("padding: 6px 10px; border: 1px solid #dfe2e5; background: %s; font-weight: bold;", p.quoteBG)},
			{"td", "padding: 6px 10px; border: 1px solid #dfe2e5;"},
			{".footnote-ref", fmt.Sprintf("font-size: 0.75em; color: %s;", p.accent)},
			{".footnote-title", fmt.Sprintf("margin: 2em 0 0.8em; font-size: 1.05em; font-weight: bold; color: %s;", p.heading)},
			{".footnote-item", "margin: 0.3em 0; font-size: 0.85em; color: #666666; word-break: break-all;"},
			{".mac-sign", "display: block; padding: 10px 12px 0; line-height: 1;"},
		},
	}
}
