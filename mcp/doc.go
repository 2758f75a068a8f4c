// Package mcp 实现 Model Context Protocol 的工具服务端。
//
// 本包提供 JSON-RPC 2.0 消息模型、工具注册与分发（initialize、ping、
// tools/list、tools/call、logging/setLevel），以及 stdio、HTTP（含旧版
// SSE）和 WebSocket 三种传输。每个传输循环逐条处理请求，工具处理函数
// 返回的错误会转换为 isError 结果，不会中断服务。
package mcp
