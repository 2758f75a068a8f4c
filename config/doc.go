// Package config 提供工具服务的配置加载：默认值、YAML 文件、
// 前缀环境变量（MCPTOOLS_*）以及 OPENAI_API_KEY、WECHAT_APP_ID 等固定名称环境变量。
package config
