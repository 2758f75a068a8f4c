// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供各工具服务共享的错误类型。

# 概述

types 是最底层的公共包，不依赖任何内部包。所有跨包共享的错误码
均定义于此，以避免循环依赖。

# 错误码

  - ErrAuth    ：access token 换取失败
  - ErrUpload  ：单个图片素材上传失败
  - ErrPublish ：封面解析或草稿创建失败
  - ErrInput   ：调用参数错误（互斥参数、不可读文件）
  - ErrUpstream：上游接口返回异常
  - ErrInternal：内部错误

# 主要能力

  - 结构化错误：Error 携带 Code、PlatformCode（平台 errcode）、HTTPStatus、Cause
  - 错误工具链：AsError / GetErrorCode / IsCode，均基于 errors.As
  - 构造函数：NewAuthError / NewUploadError / NewPublishError / NewInputError
*/
package types
