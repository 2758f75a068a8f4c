package mcp

import (
	"encoding/json"
	"fmt"
)

// DecodeArgs 将 tools/call 的 arguments 解码到带 json tag 的参数结构体
func DecodeArgs(args map[string]any, v any) error {
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// ObjectSchema 构造 type=object 的 JSON Schema
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty 字符串属性
func StringProperty(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// StringArrayProperty 字符串数组属性
func StringArrayProperty(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}
