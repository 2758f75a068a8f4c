package chat

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/mcptools/config"
	"github.com/BaSui01/mcptools/testutil"
	"github.com/BaSui01/mcptools/types"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeModel(t *testing.T, answer string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	var got capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		resp, _ := json.Marshal(map[string]any{
			"choices": []any{map[string]any{
				"message": map[string]any{"role": "assistant", "content": answer},
			}},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newTestQuerier(srv *httptest.Server) *Querier {
	return NewQuerier(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, ChatModel: "chat-model"}, srv.Client(), nil)
}

func TestQuery_PlainPrompt(t *testing.T) {
	srv, got := fakeModel(t, "42")
	q := newTestQuerier(srv)

	text, err := q.Query(testutil.TestContext(t), QueryRequest{Prompt: "meaning of life?"})
	require.NoError(t, err)
	assert.Equal(t, "42", text)
	assert.Equal(t, "chat-model", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "meaning of life?", got.Messages[0].Content)
}

func TestQuery_Attachments(t *testing.T) {
	srv, got := fakeModel(t, "ok")
	q := newTestQuerier(srv)
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "notes.txt", []byte("alpha"))
	b := testutil.WriteFile(t, dir, "README.MD", []byte("beta"))

	_, err := q.Query(testutil.TestContext(t), QueryRequest{Prompt: "summarise", FilePaths: []string{a, b}})
	require.NoError(t, err)

	want := "summarise\n\n--- Attached Files ---\n" +
		"\nFile: " + a + "\nContent:\nalpha\n" +
		"\nFile: " + b + "\nContent:\nbeta\n"
	assert.Equal(t, want, got.Messages[0].Content)
}

func TestQuery_UnsupportedExtension(t *testing.T) {
	srv, _ := fakeModel(t, "unused")
	q := newTestQuerier(srv)

	_, err := q.Query(testutil.TestContext(t), QueryRequest{Prompt: "x", FilePaths: []string{"/tmp/data.pdf"}})
	require.Error(t, err)
	typed, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrInput, typed.Code)
	assert.Equal(t, "Error: File /tmp/data.pdf has unsupported extension. Only .txt and .md files are allowed.", typed.Message)
}

func TestQuery_UnreadableFile(t *testing.T) {
	srv, _ := fakeModel(t, "unused")
	q := newTestQuerier(srv)
	missing := filepath.Join(t.TempDir(), "missing.md")

	_, err := q.Query(testutil.TestContext(t), QueryRequest{Prompt: "x", FilePaths: []string{missing}})
	require.Error(t, err)
	typed, _ := types.AsError(err)
	assert.True(t, strings.HasPrefix(typed.Message, "Error reading file "+missing+": "))
}

func TestQuery_EmptyAnswer(t *testing.T) {
	srv, _ := fakeModel(t, "")
	q := newTestQuerier(srv)

	text, err := q.Query(testutil.TestContext(t), QueryRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, NoResponse, text)
}

func TestQuery_OutputFile(t *testing.T) {
	srv, _ := fakeModel(t, "# answer")
	q := newTestQuerier(srv)
	out := filepath.Join(t.TempDir(), "deep", "dir", "answer.md")

	text, err := q.Query(testutil.TestContext(t), QueryRequest{Prompt: "x", OutputFilePath: out})
	require.NoError(t, err)
	assert.Equal(t, "Response saved to: "+out, text)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "# answer", string(data))
}

func TestQuery_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	q := newTestQuerier(srv)

	_, err := q.Query(testutil.TestContext(t), QueryRequest{Prompt: "x"})
	require.Error(t, err)
	typed, _ := types.AsError(err)
	assert.Equal(t, types.ErrUpstream, typed.Code)
	assert.True(t, strings.HasPrefix(typed.Message, "Error calling Gemini API: "))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "md", extension("a/b.MD"))
	assert.Equal(t, "markdown", extension("x.tar.markdown"))
	assert.Equal(t, "noext", extension("noext"))
}

// 不带附件时提示词原样透传；带附件时提示词总是以原提示词开头
func TestBuildPrompt_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	dir := t.TempDir()
	file := testutil.WriteFile(t, dir, "a.txt", []byte("content"))

	properties.Property("no attachments is identity", prop.ForAll(
		func(prompt string) bool {
			out, err := BuildPrompt(prompt, nil)
			return err == nil && out == prompt
		},
		gen.AnyString(),
	))

	properties.Property("attachments keep prompt prefix", prop.ForAll(
		func(prompt string) bool {
			out, err := BuildPrompt(prompt, []string{file})
			return err == nil &&
				strings.HasPrefix(out, prompt+"\n\n--- Attached Files ---\n") &&
				strings.HasSuffix(out, "\nContent:\ncontent\n")
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
