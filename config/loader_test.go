// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- 默认配置测试 ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, time.Duration(0), cfg.Server.ToolTimeout)

	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gemini-3-pro-image-preview", cfg.OpenAI.ImageModel)
	assert.Equal(t, "gemini-3-pro-preview", cfg.OpenAI.ChatModel)

	assert.Equal(t, "https://api.weixin.qq.com", cfg.WeChat.BaseURL)
	assert.Equal(t, "https://mmbiz.qpic.cn", cfg.WeChat.HostedPrefix)

	assert.Equal(t, "default", cfg.Publish.DefaultTheme)
	assert.Equal(t, "this is title", cfg.Publish.DefaultTitle)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "mcptools", cfg.Metrics.Namespace)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yamlContent := `
server:
  transport: http
  http_addr: ":9999"
  tool_timeout: 45s
wechat:
  app_id: wx-from-file
  hosted_prefix: http://127.0.0.1:1234
publish:
  default_theme: lapis
  mac_style: false
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, ":9999", cfg.Server.HTTPAddr)
	assert.Equal(t, 45*time.Second, cfg.Server.ToolTimeout)
	assert.Equal(t, "wx-from-file", cfg.WeChat.AppID)
	assert.Equal(t, "http://127.0.0.1:1234", cfg.WeChat.HostedPrefix)
	assert.Equal(t, "lapis", cfg.Publish.DefaultTheme)
	assert.False(t, cfg.Publish.MacStyle)
	assert.Equal(t, "debug", cfg.Log.Level)

	// 未出现在文件中的字段保留默认值
	assert.Equal(t, "https://api.weixin.qq.com", cfg.WeChat.BaseURL)
}

func TestLoader_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, "stdio", cfg.Server.Transport)
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))

	_, err := NewLoader().WithConfigPath(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config from file")
}

func TestLoader_PrefixedEnv(t *testing.T) {
	t.Setenv("MCPTOOLS_SERVER_TRANSPORT", "ws")
	t.Setenv("MCPTOOLS_SERVER_TOOL_TIMEOUT", "2m")
	t.Setenv("MCPTOOLS_PUBLISH_FOOTNOTES", "false")
	t.Setenv("MCPTOOLS_TELEMETRY_SAMPLE_RATE", "0.5")
	t.Setenv("MCPTOOLS_LOG_MAX_BACKUPS", "9")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "ws", cfg.Server.Transport)
	assert.Equal(t, 2*time.Minute, cfg.Server.ToolTimeout)
	assert.False(t, cfg.Publish.Footnotes)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRate)
	assert.Equal(t, 9, cfg.Log.MaxBackups)
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("WENYAN_WECHAT_BASE_URL", "http://localhost:7000")

	cfg, err := NewLoader().WithEnvPrefix("WENYAN").Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7000", cfg.WeChat.BaseURL)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("MCPTOOLS_SERVER_TOOL_TIMEOUT", "soon")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MCPTOOLS_SERVER_TOOL_TIMEOUT")
}

func TestLoader_FixedEnvNames(t *testing.T) {
	t.Setenv("MCPTOOLS_OPENAI_API_KEY", "prefixed")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QIANXUN_API_KEY", "qx-key")
	t.Setenv("OPENAI_BASE_URL", "https://proxy.example/v1")
	t.Setenv("GEMINI_MODEL", "gemini-custom")
	t.Setenv("WECHAT_APP_ID", "wx123")
	t.Setenv("WECHAT_APP_SECRET", "s3cret")

	cfg, err := NewLoader().WithAPIKeyFallback("QIANXUN_API_KEY").Load()
	require.NoError(t, err)

	// 固定名称优先于前缀变量
	assert.Equal(t, "qx-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "https://proxy.example/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gemini-custom", cfg.OpenAI.ChatModel)
	assert.Equal(t, "wx123", cfg.WeChat.AppID)
	assert.Equal(t, "s3cret", cfg.WeChat.AppSecret)
}

func TestLoader_OpenAIKeyPrecedence(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("QIANXUN_API_KEY", "qx-key")

	cfg, err := NewLoader().WithAPIKeyFallback("QIANXUN_API_KEY").Load()
	require.NoError(t, err)
	assert.Equal(t, "openai-key", cfg.OpenAI.APIKey)
}

func TestLoader_APIKeyFallbackIsOptIn(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MCPTOOLS_OPENAI_API_KEY", "")
	t.Setenv("QIANXUN_API_KEY", "qx-key")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.OpenAI.APIKey)

	l := NewLoader().WithAPIKeyFallback("QIANXUN_API_KEY")
	assert.Equal(t, []string{"OPENAI_API_KEY", "QIANXUN_API_KEY"}, l.APIKeyEnv())
	cfg, err = l.Load()
	require.NoError(t, err)
	assert.Equal(t, "qx-key", cfg.OpenAI.APIKey)
}

func TestLoader_RequireOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QIANXUN_API_KEY", "")
	t.Setenv("MCPTOOLS_OPENAI_API_KEY", "")

	_, err := NewLoader().WithValidator(RequireOpenAIKey).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	t.Setenv("QIANXUN_API_KEY", "k")
	cfg, err := NewLoader().WithAPIKeyFallback("QIANXUN_API_KEY").WithValidator(RequireOpenAIKey).Load()
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.OpenAI.APIKey)
}

// --- 验证测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad transport", mutate: func(c *Config) { c.Server.Transport = "grpc" }, wantErr: "unsupported transport"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "invalid log level"},
		{name: "bad sample rate", mutate: func(c *Config) { c.Telemetry.SampleRate = 2 }, wantErr: "sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
