package tools

import (
	"context"
	"errors"

	"github.com/BaSui01/mcptools/mcp"
)

// GenerateImageTool generate_image 工具名
const GenerateImageTool = "generate_image"

type generateImageArgs struct {
	Prompt   string `json:"prompt"`
	SavePath string `json:"save_path"`
}

// RegisterImageTools 注册 generate_image
func RegisterImageTools(s *mcp.Server, gen ImageGenerator) error {
	tool := &mcp.ToolDefinition{
		Name: GenerateImageTool,
		Description: "Generate an image using Gemini 3 Pro Image Preview model. " +
			"Provide a detailed text prompt describing the image you want to create. " +
			"Optionally specify a file path to save the generated image.",
		InputSchema: mcp.ObjectSchema(map[string]any{
			"prompt":    mcp.StringProperty("Detailed description of the image to generate"),
			"save_path": mcp.StringProperty("Optional: File path to save the generated image (e.g., '/path/to/image.png')"),
		}, "prompt"),
	}

	return s.RegisterTool(tool, func(ctx context.Context, raw map[string]any) (*mcp.CallToolResult, error) {
		var args generateImageArgs
		if err := mcp.DecodeArgs(raw, &args); err != nil {
			return nil, err
		}
		if args.Prompt == "" {
			return nil, errors.New("Missing required argument: prompt")
		}

		text, err := gen.Generate(ctx, args.Prompt, args.SavePath)
		if err != nil {
			return mcp.ErrorResult("Error generating image: " + errorText(err)), nil
		}
		return mcp.TextResult(text), nil
	})
}
