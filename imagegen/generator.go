package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BaSui01/mcptools/config"
	"github.com/BaSui01/mcptools/internal/llmclient"
	"github.com/BaSui01/mcptools/internal/telemetry"
	"github.com/BaSui01/mcptools/types"
)

const (
	// MsgNoImage 响应中没有内容
	MsgNoImage = "No image generated in response"
	// MsgNoBase64 响应内容中没有 base64 图片
	MsgNoBase64 = "No base64 image found in response"

	previewChars = 100
)

var (
	dataImagePattern = regexp.MustCompile(`!\[.*?\]\(data:image/(png|jpeg|jpg);base64,([^)]+)\)`)
	imageExtPattern  = regexp.MustCompile(`(?i)\.(png|jpg|jpeg)$`)
)

// Generator 通过 OpenAI 兼容的 chat/completions 接口生成图片
type Generator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewGenerator 创建图片生成器
func NewGenerator(cfg config.OpenAIConfig, httpClient *http.Client, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.ImageModel
	if model == "" {
		model = config.DefaultOpenAIConfig().ImageModel
	}
	return &Generator{
		client: llmclient.New(cfg, httpClient),
		model:  model,
		logger: logger.With(zap.String("component", "imagegen")),
	}
}

// Image 从模型回复中提取出的图片
type Image struct {
	Format string
	Base64 string
}

// Generate 生成图片。savePath 非空时写入文件，否则返回 base64 预览
func (g *Generator) Generate(ctx context.Context, prompt, savePath string) (text string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "imagegen.generate",
		attribute.String("model", g.model),
		attribute.Bool("save", savePath != ""))
	defer func() { telemetry.EndSpan(span, err) }()

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", llmclient.WrapError(err)
	}

	g.logger.Debug("image model responded",
		zap.String("model", g.model),
		zap.Duration("latency", time.Since(start)))

	img, err := ExtractImage(llmclient.FirstContent(resp))
	if err != nil {
		return "", err
	}

	if savePath == "" {
		return Describe(img), nil
	}

	finalPath, err := Save(img, savePath)
	if err != nil {
		return "", err
	}
	g.logger.Info("image saved", zap.String("path", finalPath))
	return "Image generated and saved to: " + finalPath, nil
}

// ExtractImage 从 `![..](data:image/<fmt>;base64,<data>)` 形式的回复中提取第一张图片
func ExtractImage(content string) (*Image, error) {
	if content == "" {
		return nil, types.NewUpstreamError(MsgNoImage)
	}
	m := dataImagePattern.FindStringSubmatch(content)
	if m == nil {
		return nil, types.NewUpstreamError(MsgNoBase64)
	}
	return &Image{Format: m[1], Base64: m[2]}, nil
}

// Save 解码并写入图片，路径缺少图片扩展名时补上，返回最终路径
func Save(img *Image, savePath string) (string, error) {
	finalPath := savePath
	if !imageExtPattern.MatchString(finalPath) {
		finalPath += "." + img.Format
	}

	data, err := decodeBase64(img.Base64)
	if err != nil {
		return "", types.NewUpstreamError("invalid base64 image data: %v", err).WithCause(err)
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return "", types.NewInputError("%v", err).WithCause(err)
	}
	if err := os.WriteFile(finalPath, data, 0o644); err != nil {
		return "", types.NewInputError("%v", err).WithCause(err)
	}
	return finalPath, nil
}

// decodeBase64 容忍换行与缺失的填充
func decodeBase64(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// Describe 未保存时返回的说明文本
func Describe(img *Image) string {
	preview := img.Base64
	if len(preview) > previewChars {
		preview = preview[:previewChars]
	}
	return fmt.Sprintf("Image generated successfully (base64 encoded, %d chars).\n\n"+
		"To view the image, you can:\n"+
		"1. Save it using the save_path parameter\n"+
		"2. View the base64 data directly\n\n"+
		"Base64 preview (first 100 chars): %s...", len(img.Base64), preview)
}
