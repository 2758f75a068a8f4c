package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

// =============================================================================
// 🎯 命令行入口
// =============================================================================
//
// 使用方法:
//
//	wenyan-mcp                                # stdio 模式（MCP 客户端默认拉起方式）
//	wenyan-mcp serve --transport http         # HTTP / SSE / WebSocket 模式
//	wenyan-mcp serve --config config.yaml     # 指定配置文件
//	wenyan-mcp version --json                 # 显示版本信息
//	wenyan-mcp health --addr http://localhost:8080
// =============================================================================

// NewRootCommand 构建某个工具服务的 cobra 命令树
func NewRootCommand(def Definition, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var configPath string

	run := func(cmd *cobra.Command, transport, addr string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return Run(ctx, def, Options{
			ConfigPath: configPath,
			Transport:  transport,
			Addr:       addr,
			Stdin:      stdin,
			Stdout:     stdout,
			Stderr:     stderr,
		})
	}

	root := &cobra.Command{
		Use:           def.Name,
		Short:         def.Short,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, "", "")
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML)")

	// serve
	var transport, addr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, transport, addr)
		},
	}
	serveCmd.Flags().StringVar(&transport, "transport", "", "transport: stdio, http or ws (overrides config)")
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address for http/ws transports (overrides config)")

	root.AddCommand(serveCmd, newVersionCommand(def), newHealthCommand())
	return root
}

// newVersionCommand 显示版本信息
func newVersionCommand(def Definition) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			short, _ := cmd.Flags().GetBool("short")
			jsonOutput, _ := cmd.Flags().GetBool("json")
			w := cmd.OutOrStdout()

			if short {
				fmt.Fprintln(w, Version)
				return nil
			}

			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]string{
					"name":      def.Name,
					"version":   Version,
					"commit":    GitCommit,
					"built":     BuildTime,
					"goVersion": runtime.Version(),
					"platform":  runtime.GOOS + "/" + runtime.GOARCH,
				})
			}

			fmt.Fprintf(w, "%s version %s\n", def.Name, Version)
			fmt.Fprintf(w, "  commit:     %s\n", GitCommit)
			fmt.Fprintf(w, "  built:      %s\n", BuildTime)
			fmt.Fprintf(w, "  go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
	cmd.Flags().Bool("short", false, "print version string only")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

// newHealthCommand 检查 HTTP 模式下运行中服务的健康状态
func newHealthCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check a running server's health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			resp, err := resty.New().R().
				SetContext(ctx).
				Get(strings.TrimRight(addr, "/") + "/healthz")
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			if resp.IsError() {
				return fmt.Errorf("health check failed: status %d", resp.StatusCode())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Server is healthy")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "server address")
	return cmd
}

// Execute 运行命令并返回进程退出码
func Execute(def Definition) int {
	root := NewRootCommand(def, os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", def.Name, err)
		return 1
	}
	return 0
}
