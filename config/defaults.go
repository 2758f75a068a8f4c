// =============================================================================
// 📦 mcptools 默认配置
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		OpenAI:    DefaultOpenAIConfig(),
		WeChat:    DefaultWeChatConfig(),
		Publish:   DefaultPublishConfig(),
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认传输层配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Transport:       "stdio",
		HTTPAddr:        ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    10 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		ToolTimeout:     0,
	}
}

// DefaultOpenAIConfig 返回默认 OpenAI 兼容接口配置
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		BaseURL:    "https://api.openai.com/v1",
		ImageModel: "gemini-3-pro-image-preview",
		ChatModel:  "gemini-3-pro-preview",
		Timeout:    5 * time.Minute,
	}
}

// DefaultWeChatConfig 返回默认公众号接口配置
func DefaultWeChatConfig() WeChatConfig {
	return WeChatConfig{
		BaseURL:      "https://api.weixin.qq.com",
		HostedPrefix: "https://mmbiz.qpic.cn",
		Timeout:      2 * time.Minute,
	}
}

// DefaultPublishConfig 返回默认排版配置
func DefaultPublishConfig() PublishConfig {
	return PublishConfig{
		DefaultTheme: "default",
		MacStyle:     true,
		Footnotes:    true,
		DefaultTitle: "this is title",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "json",
		MaxSizeMB:    50,
		MaxBackups:   3,
		MaxAgeDays:   7,
		EnableCaller: true,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "mcptools",
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "mcptools",
		SampleRate:   0.1,
	}
}
