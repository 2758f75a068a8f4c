// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的工具服务指标采集能力。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，所有指标按 namespace 隔离。Collector 的方法对 nil
接收者安全，未启用指标时调用方无需判空。

# 主要能力

  - 工具调用：tool_calls_total{tool,status}、tool_call_duration_seconds{tool}
  - 上游请求：upstream_requests_total{host,status}、
    upstream_request_duration_seconds{host}
  - 素材上传：images_uploaded_total{result}
  - MCP HTTP 传输：http_requests_total、http_request_duration_seconds
*/
package metrics
