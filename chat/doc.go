// Package chat 实现 gemini_query 工具：可选地附加 txt / md 文件内容，
// 调用 OpenAI 兼容的 chat/completions 接口，并按需把回答写入文件。
package chat
