package app

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/config"
)

func testPipe(t *testing.T) (*os.File, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, w
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand(WenyanServer, strings.NewReader(""), &out, io.Discard)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "wenyan-mcp version "+Version)
	assert.Contains(t, out.String(), "go version:")
}

func TestVersionCommand_JSON(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand(ChatServer, strings.NewReader(""), &out, io.Discard)
	root.SetArgs([]string{"version", "--json"})
	require.NoError(t, root.Execute())

	var info map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "gemini-chat-mcp", info["name"])
	assert.Equal(t, Version, info["version"])
}

func TestVersionCommand_Short(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand(ImageServer, strings.NewReader(""), &out, io.Discard)
	root.SetArgs([]string{"version", "--short"})
	require.NoError(t, root.Execute())
	assert.Equal(t, Version+"\n", out.String())
}

func TestServeCommand_ListsTools(t *testing.T) {
	isolateEnv(t)

	var out bytes.Buffer
	in := strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"tools/list"}` + "\n")
	root := NewRootCommand(WenyanServer, in, &out, io.Discard)
	root.SetArgs([]string{"serve", "--transport", "stdio"})
	require.NoError(t, root.Execute())

	msgs := decodeLines(t, out.String())
	require.Len(t, msgs, 1)
	assert.EqualValues(t, 7, msgs[0]["id"])
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	root := NewRootCommand(WenyanServer, strings.NewReader(""), io.Discard, io.Discard)
	root.SetArgs([]string{"unexpected"})
	assert.Error(t, root.Execute())
}

func TestNewLogger_WritesToStderrOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, level := NewLogger(config.LogConfig{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("visible", zap.String("k", "v"))
	require.NoError(t, logger.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"visible"`)
	assert.Contains(t, buf.String(), `"k":"v"`)

	level.SetLevel(zap.DebugLevel)
	logger.Debug("now shown")
	assert.Contains(t, buf.String(), "now shown")
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := t.TempDir() + "/mcp.log"
	logger, _ := NewLogger(config.LogConfig{Level: "warn", Format: "console", File: path, MaxSizeMB: 1}, io.Discard)

	logger.Warn("written to file")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
