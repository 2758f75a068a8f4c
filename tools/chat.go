package tools

import (
	"context"
	"errors"

	"github.com/BaSui01/mcptools/chat"
	"github.com/BaSui01/mcptools/mcp"
)

// GeminiQueryTool gemini_query 工具名
const GeminiQueryTool = "gemini_query"

type geminiQueryArgs struct {
	Prompt         string   `json:"prompt"`
	FilePaths      []string `json:"file_paths"`
	OutputFilePath string   `json:"output_file_path"`
}

// RegisterChatTools 注册 gemini_query
func RegisterChatTools(s *mcp.Server, q ChatQuerier) error {
	tool := &mcp.ToolDefinition{
		Name:        GeminiQueryTool,
		Description: "Query Gemini 3 model with text prompt and optional file attachments (txt/md)",
		InputSchema: mcp.ObjectSchema(map[string]any{
			"prompt":           mcp.StringProperty("The prompt to send to Gemini 3"),
			"file_paths":       mcp.StringArrayProperty("Optional list of file paths (txt/md) to include in the query"),
			"output_file_path": mcp.StringProperty("Optional output file path (relative or absolute) to save Gemini response as markdown"),
		}, "prompt"),
	}

	return s.RegisterTool(tool, func(ctx context.Context, raw map[string]any) (*mcp.CallToolResult, error) {
		var args geminiQueryArgs
		if err := mcp.DecodeArgs(raw, &args); err != nil {
			return nil, err
		}
		if args.Prompt == "" {
			return nil, errors.New("Missing required argument: prompt")
		}

		text, err := q.Query(ctx, chat.QueryRequest{
			Prompt:         args.Prompt,
			FilePaths:      args.FilePaths,
			OutputFilePath: args.OutputFilePath,
		})
		if err != nil {
			return mcp.ErrorResult(errorText(err)), nil
		}
		return mcp.TextResult(text), nil
	})
}
