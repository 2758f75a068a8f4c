package chat

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
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

// NoResponse 模型返回空内容时的回复
const NoResponse = "No response"

var allowedExts = map[string]bool{"txt": true, "md": true, "markdown": true}

// QueryRequest 一次问答请求
type QueryRequest struct {
	Prompt         string
	FilePaths      []string
	OutputFilePath string
}

// Querier 通过 OpenAI 兼容接口向 Gemini 模型提问
type Querier struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewQuerier 创建问答客户端
func NewQuerier(cfg config.OpenAIConfig, httpClient *http.Client, logger *zap.Logger) *Querier {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.ChatModel
	if model == "" {
		model = config.DefaultOpenAIConfig().ChatModel
	}
	return &Querier{
		client: llmclient.New(cfg, httpClient),
		model:  model,
		logger: logger.With(zap.String("component", "chat")),
	}
}

// Query 拼接附件后提问。返回的错误消息可直接展示给调用方
func (q *Querier) Query(ctx context.Context, req QueryRequest) (text string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "chat.query",
		attribute.String("model", q.model),
		attribute.Int("attachments", len(req.FilePaths)))
	defer func() { telemetry.EndSpan(span, err) }()

	prompt, err := BuildPrompt(req.Prompt, req.FilePaths)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := q.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: q.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		wrapped := llmclient.WrapError(err)
		wrapped.Message = "Error calling Gemini API: " + wrapped.Message
		return "", wrapped
	}

	answer := llmclient.FirstContent(resp)
	if answer == "" {
		answer = NoResponse
	}

	q.logger.Debug("chat model responded",
		zap.String("model", q.model),
		zap.Int("answer_len", len(answer)),
		zap.Duration("latency", time.Since(start)))

	if req.OutputFilePath == "" {
		return answer, nil
	}
	return writeAnswer(req.OutputFilePath, answer)
}

// BuildPrompt 把 txt / md 附件追加到提示词后面
func BuildPrompt(prompt string, filePaths []string) (string, error) {
	if len(filePaths) == 0 {
		return prompt, nil
	}

	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\n--- Attached Files ---\n")

	for _, p := range filePaths {
		if !allowedExts[extension(p)] {
			return "", types.NewInputError("Error: File %s has unsupported extension. Only .txt and .md files are allowed.", p)
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			return "", types.NewInputError("Error reading file %s: %v", p, err).WithCause(err)
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return "", types.NewInputError("Error reading file %s: %v", p, err).WithCause(err)
		}

		fmt.Fprintf(&sb, "\nFile: %s\nContent:\n%s\n", p, data)
	}
	return sb.String(), nil
}

// extension 取最后一个点之后的部分（小写）；没有点时为整个路径
func extension(p string) string {
	parts := strings.Split(strings.ToLower(p), ".")
	return parts[len(parts)-1]
}

func writeAnswer(outputPath, answer string) (string, error) {
	abs, err := filepath.Abs(outputPath)
	if err != nil {
		return "", types.NewInputError("Error writing to file %s: %v", outputPath, err).WithCause(err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", types.NewInputError("Error writing to file %s: %v", outputPath, err).WithCause(err)
	}
	if err := os.WriteFile(abs, []byte(answer), 0o644); err != nil {
		return "", types.NewInputError("Error writing to file %s: %v", outputPath, err).WithCause(err)
	}
	return "Response saved to: " + abs, nil
}
