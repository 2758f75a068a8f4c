/*
Package wechat 实现公众号草稿箱发布流程。

# 概述

Client 封装三个公众号接口（基于 resty）：

  - GET  /cgi-bin/token：用 AppID/AppSecret 换取 access token，每次发布都重新获取
  - POST /cgi-bin/material/add_material：上传永久图片素材，支持本地文件与 http(s) 图片
  - POST /cgi-bin/draft/add：新建草稿

Publisher 按顺序执行 token → 列表换行归一 → 正文图片上传替换 → 封面解析 → 创建草稿。
正文图片逐张串行上传，单张失败只记录 warn 日志并保留原 src；
已托管在公众号 CDN（默认 https://mmbiz.qpic.cn）的图片不会重复上传。

# 封面解析

  1. 显式指定的封面总是优先，以 cover.jpg 上传
  2. 正文第一张图片是已托管 URL 时，重新上传为 cover.jpg
  3. 否则使用正文第一张图片上传得到的 media id
  4. 都没有时返回包装 types.ErrMissingCover 的发布错误，不调用草稿接口

# 错误

所有错误都是 *types.Error，按阶段区分 ErrAuth、ErrUpload、ErrPublish，
平台返回的 errcode 记录在 PlatformCode 中。
*/
package wechat
