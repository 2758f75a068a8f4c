package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMCPMessage_ErrorWithoutIDMarshalsNull verifies that error responses to
// unparseable requests carry "id": null.
func TestMCPMessage_ErrorWithoutIDMarshalsNull(t *testing.T) {
	data, err := json.Marshal(NewMCPError(nil, ErrorCodeParseError, "parse error", nil))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2.0", raw["jsonrpc"])
	v, present := raw["id"]
	assert.True(t, present)
	assert.Nil(t, v)
	assert.Equal(t, float64(ErrorCodeParseError), raw["error"].(map[string]any)["code"])
}

func TestMCPMessage_ResponseKeepsID(t *testing.T) {
	data, err := json.Marshal(NewMCPResponse(7, map[string]any{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"result":{}}`, string(data))
}

func TestMCPMessage_NotificationOmitsID(t *testing.T) {
	msg := &MCPMessage{Method: "notifications/initialized"}
	assert.True(t, msg.IsNotification())

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, string(data))
}

func TestCallToolResult_JSONShape(t *testing.T) {
	data, err := json.Marshal(ErrorResult("boom"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"boom"}],"isError":true}`, string(data))

	data, err = json.Marshal(TextResult("ok"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"ok"}],"isError":false}`, string(data))
}

func TestCallToolResult_Text(t *testing.T) {
	r := TextResults("a", "b", "c")
	assert.Len(t, r.Content, 3)
	assert.Equal(t, "a\nb\nc", r.Text())

	var nilResult *CallToolResult
	assert.Equal(t, "", nilResult.Text())
}

func TestToolDefinition_Validate(t *testing.T) {
	valid := ToolDefinition{Name: "x", Description: "d", InputSchema: ObjectSchema(nil)}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&ToolDefinition{Description: "d", InputSchema: map[string]any{}}).Validate())
	assert.Error(t, (&ToolDefinition{Name: "x", InputSchema: map[string]any{}}).Validate())
	assert.Error(t, (&ToolDefinition{Name: "x", Description: "d"}).Validate())
}

func TestDecodeArgs(t *testing.T) {
	var args struct {
		Prompt    string   `json:"prompt"`
		FilePaths []string `json:"file_paths"`
	}
	err := DecodeArgs(map[string]any{
		"prompt":     "hello",
		"file_paths": []any{"a.md", "b.txt"},
		"ignored":    true,
	}, &args)
	require.NoError(t, err)
	assert.Equal(t, "hello", args.Prompt)
	assert.Equal(t, []string{"a.md", "b.txt"}, args.FilePaths)

	err = DecodeArgs(map[string]any{"prompt": 12}, &args)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments")

	require.NoError(t, DecodeArgs(nil, &args))
}

func TestObjectSchema(t *testing.T) {
	s := ObjectSchema(map[string]any{"prompt": StringProperty("p")}, "prompt")
	assert.Equal(t, "object", s["type"])
	assert.Equal(t, []string{"prompt"}, s["required"])

	s = ObjectSchema(map[string]any{})
	_, hasRequired := s["required"]
	assert.False(t, hasRequired)
}
