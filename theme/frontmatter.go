package theme

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/mcptools/types"
)

// FrontMatter 文章头部的 YAML 元数据
type FrontMatter struct {
	Title       string `yaml:"title"`
	Cover       string `yaml:"cover"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	Digest      string `yaml:"digest"`
	SourceURL   string `yaml:"source_url"`
}

// SplitFrontMatter 拆分 `---` 包围的 YAML 头部与正文。没有头部时原样返回正文
func SplitFrontMatter(markdown string) (FrontMatter, string, error) {
	var fm FrontMatter

	text := strings.TrimPrefix(markdown, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return fm, markdown, nil
	}

	rest := text[len("---\n"):]
	var raw, body string
	switch {
	case strings.HasPrefix(rest, "---\n"):
		body = rest[len("---\n"):]
	case rest == "---":
		body = ""
	default:
		end := strings.Index(rest, "\n---\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n---") {
				return fm, markdown, nil
			}
			raw, body = strings.TrimSuffix(rest, "\n---"), ""
		} else {
			raw, body = rest[:end], rest[end+len("\n---\n"):]
		}
	}

	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return fm, markdown, types.NewInputError("front matter 解析失败: %v", err).WithCause(err)
	}
	if fm.Digest == "" {
		fm.Digest = fm.Description
	}
	return fm, body, nil
}
