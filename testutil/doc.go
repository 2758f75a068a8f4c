// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 mcptools 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext
  - 文件辅助: WriteFile、最小 PNG 样例
  - 断言工具: AssertJSONEqual / AssertEventuallyTrue
  - 公众号 Fake: NewFakeWeChat 启动 httptest 服务，记录 token、素材上传、
    草稿三个接口的调用，并支持错误码注入

# 子包

  - testutil/mocks: 工具层依赖的 Mock 实现（图片生成、问答、发布、排版）
  - testutil/fixtures: Markdown 文章样例

# 使用示例

	fake := testutil.NewFakeWeChat(t)
	client := wechat.NewClient(config.WeChatConfig{BaseURL: fake.URL()}, nil, nil, nil)
	tok, err := client.GetAccessToken(testutil.TestContext(t), "appid", "secret")
*/
package testutil
