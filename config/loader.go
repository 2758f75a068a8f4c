// =============================================================================
// 📦 mcptools 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("MCPTOOLS").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 前缀环境变量 → 固定名称环境变量
// =============================================================================
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是工具服务的完整配置结构，启动时读取一次后按值注入各组件
type Config struct {
	// Server 传输层配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// OpenAI 兼容接口配置（图片生成 / 对话）
	OpenAI OpenAIConfig `yaml:"openai" env:"OPENAI"`

	// WeChat 公众号接口配置
	WeChat WeChatConfig `yaml:"wechat" env:"WECHAT"`

	// Publish 文章排版配置
	Publish PublishConfig `yaml:"publish" env:"PUBLISH"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 传输层配置
type ServerConfig struct {
	// 传输方式: stdio, http, ws
	Transport string `yaml:"transport" env:"TRANSPORT"`
	// HTTP / WebSocket 监听地址
	HTTPAddr string `yaml:"http_addr" env:"HTTP_ADDR"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 单次工具调用超时，0 表示不限制
	ToolTimeout time.Duration `yaml:"tool_timeout" env:"TOOL_TIMEOUT"`
}

// OpenAIConfig OpenAI 兼容接口配置
type OpenAIConfig struct {
	// API Key（也可通过 OPENAI_API_KEY 提供，备用变量名见 Loader.WithAPIKeyFallback）
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL，请求发往 {base_url}/chat/completions
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 图片生成模型
	ImageModel string `yaml:"image_model" env:"IMAGE_MODEL"`
	// 对话模型（也可通过 GEMINI_MODEL 提供）
	ChatModel string `yaml:"chat_model" env:"CHAT_MODEL"`
	// 请求超时，0 表示不限制
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// WeChatConfig 公众号接口配置
type WeChatConfig struct {
	// AppID（也可通过 WECHAT_APP_ID 提供）
	AppID string `yaml:"app_id" env:"APP_ID"`
	// AppSecret（也可通过 WECHAT_APP_SECRET 提供）
	AppSecret string `yaml:"app_secret" env:"APP_SECRET"`
	// API 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 平台图床前缀，以此开头的图片视为已上传
	HostedPrefix string `yaml:"hosted_prefix" env:"HOSTED_PREFIX"`
	// 请求超时，0 表示不限制
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// PublishConfig 文章排版配置
type PublishConfig struct {
	// 默认主题
	DefaultTheme string `yaml:"default_theme" env:"DEFAULT_THEME"`
	// 代码块 Mac 风格
	MacStyle bool `yaml:"mac_style" env:"MAC_STYLE"`
	// 外链转脚注
	Footnotes bool `yaml:"footnotes" env:"FOOTNOTES"`
	// 缺省标题
	DefaultTitle string `yaml:"default_title" env:"DEFAULT_TITLE"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 日志文件路径（为空时只写 stderr）
	File string `yaml:"file" env:"FILE"`
	// 单个日志文件最大 MB
	MaxSizeMB int `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	// 保留的旧文件数
	MaxBackups int `yaml:"max_backups" env:"MAX_BACKUPS"`
	// 保留天数
	MaxAgeDays int `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// stdio 模式下独立的 /metrics 监听地址（为空则不监听）
	Addr string `yaml:"addr" env:"ADDR"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
	// OPENAI_API_KEY 为空时依次尝试的备用变量名
	apiKeyFallbacks []string
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "MCPTOOLS",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithAPIKeyFallback 设置 OPENAI_API_KEY 为空时的备用环境变量名
func (l *Loader) WithAPIKeyFallback(names ...string) *Loader {
	l.apiKeyFallbacks = append(l.apiKeyFallbacks, names...)
	return l
}

// APIKeyEnv 返回按优先级排列的 API Key 环境变量名
func (l *Loader) APIKeyEnv() []string {
	return append([]string{"OPENAI_API_KEY"}, l.apiKeyFallbacks...)
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	applyFixedEnv(cfg)
	applyEnvChain(cfg, l.APIKeyEnv(), func(c *Config, v string) { c.OpenAI.APIKey = v })

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从前缀环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)

	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	}

	return nil
}

// fixedEnv 各工具约定俗成的环境变量名，按顺序取第一个非空值
var fixedEnv = []struct {
	names []string
	apply func(*Config, string)
}{
	{[]string{"OPENAI_BASE_URL"}, func(c *Config, v string) { c.OpenAI.BaseURL = v }},
	{[]string{"GEMINI_MODEL"}, func(c *Config, v string) { c.OpenAI.ChatModel = v }},
	{[]string{"WECHAT_APP_ID"}, func(c *Config, v string) { c.WeChat.AppID = v }},
	{[]string{"WECHAT_APP_SECRET"}, func(c *Config, v string) { c.WeChat.AppSecret = v }},
}

// applyFixedEnv 应用固定名称的环境变量
func applyFixedEnv(cfg *Config) {
	for _, e := range fixedEnv {
		applyEnvChain(cfg, e.names, e.apply)
	}
}

// applyEnvChain 取 names 中第一个非空的环境变量
func applyEnvChain(cfg *Config, names []string, apply func(*Config, string)) {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			apply(cfg, v)
			return
		}
	}
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	switch c.Server.Transport {
	case "stdio", "http", "ws":
	default:
		errs = append(errs, fmt.Sprintf("unsupported transport %q", c.Server.Transport))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level %q", c.Log.Level))
	}

	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry sample_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ErrMissingAPIKey 图片 / 对话服务缺少 API Key
var ErrMissingAPIKey = errors.New("API key environment variable is required")

// RequireOpenAIKey 校验 OpenAI 兼容接口的 API Key，可作为 Loader 验证器
func RequireOpenAIKey(c *Config) error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}
