// Package imagegen 实现 generate_image 工具的图片生成：调用 OpenAI 兼容的
// chat/completions 接口，从回复的 Markdown data URI 中提取 base64 图片，
// 按需写入磁盘。
package imagegen
