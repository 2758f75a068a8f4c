/*
包 app 组装三个 MCP 工具服务的进程：配置加载、日志、遥测、指标、
出站 HTTP 客户端、MCP 服务器与传输层，以及 cobra 命令行。

每个二进制用一个 Definition 描述（ImageServer、ChatServer、WenyanServer），
cmd/<name>/main.go 只调用 Execute。默认以 stdio 传输运行，
serve --transport http|ws 时对外暴露 /mcp、/mcp/sse、/mcp/ws、/healthz 与 /metrics。
*/
package app
