// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 并提供工具调用与上游请求使用的 span 辅助函数。
// 当遥测功能禁用时，使用 noop 实现，不连接任何外部服务。
package telemetry
