/*
Package tools 把各业务包注册为 MCP 工具。

  - generate_image：imagegen，失败时返回 "Error generating image: <msg>"
  - gemini_query：chat，错误消息原样返回
  - publish_article：content → theme → wechat，成功返回草稿 media ID
  - list_themes：每个主题一段 {"id","name","description"} JSON 文本

业务失败一律以 isError 结果返回，不会变成 JSON-RPC 错误。
*/
package tools
