// Package content 负责把 publish_article 的入参解析为待排版的 Markdown 文本。
package content

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BaSui01/mcptools/types"
)

// MsgContentRequired 既没有 content 也没有 file_path（或两者都给了）时的提示
const MsgContentRequired = "Error: Either 'content' or 'file_path' parameter is required."

var (
	// front matter 中的 cover 字段
	coverPattern = regexp.MustCompile(`(?m)^(cover:\s*)([^\s\r\n]+)`)
	// ![alt](path) 与 ![alt](path "title")
	markdownImagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)"\s]+)(?:\s+"[^"]*")?\)`)
	// <img ... src="path" ...>
	htmlImagePattern = regexp.MustCompile(`(?i)<img\s+([^>]*?)src=["']([^"']+)["']([^>]*?)>`)
)

// Resolve 返回文章原文。inline 与 filePath 必须且只能提供一个；
// 从文件读取时，相对图片路径会被改写为基于文件所在目录的绝对路径。
func Resolve(inline, filePath string) (string, error) {
	hasInline := inline != ""
	hasFile := filePath != ""
	if hasInline == hasFile {
		return "", types.NewInputError(MsgContentRequired)
	}

	if hasInline {
		return inline, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", types.NewInputError("Error reading file: %v", err).WithCause(err)
	}

	return ResolveImagePaths(string(data), filepath.Dir(filePath)), nil
}

// ResolveImagePaths 将 cover 字段、Markdown 图片与 HTML img 中的相对路径
// 改写为绝对路径。以 /、http://、https:// 开头的引用保持不变。
// Markdown 图片的 title 在改写后会被丢弃。
func ResolveImagePaths(content, baseDir string) string {
	content = coverPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := coverPattern.FindStringSubmatch(match)
		prefix, ref := m[1], m[2]
		if isAbsoluteRef(ref) {
			return match
		}
		return prefix + absolutePath(baseDir, ref)
	})

	content = markdownImagePattern.ReplaceAllStringFunc(content, func(match string) string {
		m := markdownImagePattern.FindStringSubmatch(match)
		alt, ref := m[1], m[2]
		if isAbsoluteRef(ref) {
			return match
		}
		return "![" + alt + "](" + absolutePath(baseDir, ref) + ")"
	})

	content = htmlImagePattern.ReplaceAllStringFunc(content, func(match string) string {
		m := htmlImagePattern.FindStringSubmatch(match)
		before, ref, after := m[1], m[2], m[3]
		if isAbsoluteRef(ref) {
			return match
		}
		return "<img " + before + `src="` + absolutePath(baseDir, ref) + `"` + after + ">"
	})

	return content
}

// isAbsoluteRef 绝对路径或远程地址
func isAbsoluteRef(ref string) bool {
	return strings.HasPrefix(ref, "/") ||
		strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://")
}

// absolutePath 相对 baseDir 解析；baseDir 本身为相对路径时再相对工作目录解析
func absolutePath(baseDir, ref string) string {
	p := filepath.Join(baseDir, ref)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
