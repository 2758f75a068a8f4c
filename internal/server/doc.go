// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供 MCP HTTP / WebSocket 传输所用 HTTP 服务器的生命周期管理。

# 概述

本包通过 Manager 封装 net/http.Server，统一管理监听、服务、
关闭与错误传播流程。Run 与 context 绑定，便于在 errgroup 中
和 stdio 传输、指标端点一起编排。

# 核心类型

  - Manager：HTTP 服务器管理器，提供 Start/Run/Shutdown。
  - Config：服务器配置，ConfigFrom 由 config.ServerConfig 派生。
*/
package server
