package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/config"
	"github.com/BaSui01/mcptools/internal/ctxkeys"
	"github.com/BaSui01/mcptools/mcp"
	"github.com/BaSui01/mcptools/testutil"
)

// isolateEnv 关闭全局 Prometheus 注册，避免多次创建 Collector 冲突
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MCPTOOLS_METRICS_ENABLED", "false")
	t.Setenv("MCPTOOLS_LOG_LEVEL", "error")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QIANXUN_API_KEY", "")
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var msgs []map[string]any
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		msgs = append(msgs, m)
	}
	return msgs
}

func TestRun_StdioInitializeAndListTools(t *testing.T) {
	isolateEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}` + "\n" +
			`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n")
	var out, errOut bytes.Buffer

	err := Run(testutil.TestContext(t), ImageServer, Options{Stdin: in, Stdout: &out, Stderr: &errOut})
	require.NoError(t, err)

	msgs := decodeLines(t, out.String())
	require.Len(t, msgs, 2)

	info := msgs[0]["result"].(map[string]any)["serverInfo"].(map[string]any)
	assert.Equal(t, "gemini-image-mcp", info["name"])

	toolList := msgs[1]["result"].(map[string]any)["tools"].([]any)
	require.Len(t, toolList, 1)
	assert.Equal(t, "generate_image", toolList[0].(map[string]any)["name"])
}

func TestRun_WenyanListsBothTools(t *testing.T) {
	isolateEnv(t)
	t.Setenv("WECHAT_APP_ID", "")
	t.Setenv("WECHAT_APP_SECRET", "")

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n")
	var out bytes.Buffer

	err := Run(testutil.TestContext(t), WenyanServer, Options{Stdin: in, Stdout: &out, Stderr: &bytes.Buffer{}})
	require.NoError(t, err)

	msgs := decodeLines(t, out.String())
	require.Len(t, msgs, 1)
	var names []string
	for _, tool := range msgs[0]["result"].(map[string]any)["tools"].([]any) {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{"publish_article", "list_themes"}, names)
}

func TestRun_MissingAPIKey(t *testing.T) {
	isolateEnv(t)

	err := Run(testutil.TestContext(t), ChatServer, Options{
		Stdin:  strings.NewReader(""),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	})
	require.ErrorIs(t, err, config.ErrMissingAPIKey)
}

func TestRun_APIKeyFallbackScopedToImageServer(t *testing.T) {
	isolateEnv(t)
	t.Setenv("QIANXUN_API_KEY", "qx-key")

	err := Run(testutil.TestContext(t), ChatServer, Options{
		Stdin:  strings.NewReader(""),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	})
	require.ErrorIs(t, err, config.ErrMissingAPIKey)
	assert.Contains(t, err.Error(), "set OPENAI_API_KEY")
	assert.NotContains(t, err.Error(), "QIANXUN_API_KEY")

	err = Run(testutil.TestContext(t), ImageServer, Options{
		Stdin:  strings.NewReader(""),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	})
	assert.NoError(t, err)
}

func TestRun_InvalidTransport(t *testing.T) {
	isolateEnv(t)

	err := Run(testutil.TestContext(t), WenyanServer, Options{
		Transport: "grpc",
		Stdin:     strings.NewReader(""),
		Stdout:    &bytes.Buffer{},
		Stderr:    &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported transport "grpc"`)
}

func TestRun_CancelledContextIsClean(t *testing.T) {
	isolateEnv(t)

	// 读端永不结束，依赖 ctx 取消退出
	r, w := testPipe(t)
	defer w.Close()

	ctx, cancel := context.WithCancel(testutil.TestContext(t))
	cancel()

	err := Run(ctx, WenyanServer, Options{Stdin: r, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	assert.NoError(t, err)
}

func TestNewHTTPHandler_ServesMCPWithRequestID(t *testing.T) {
	s := mcp.NewServer("wenyan-mcp", "test", zap.NewNop())
	h := NewHTTPHandler(s, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestID_ReusesIncomingHeader(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ctxkeys.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}
