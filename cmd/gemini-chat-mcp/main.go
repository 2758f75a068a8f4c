// gemini-chat-mcp 的进程入口，子命令与参数见 internal/app。
package main

import (
	"os"

	"github.com/BaSui01/mcptools/internal/app"
)

func main() {
	os.Exit(app.Execute(app.ChatServer))
}
