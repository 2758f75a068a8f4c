// Package fixtures 提供测试用的 Markdown 文章样例。
package fixtures

// ArticleWithFrontMatter 带 front matter 与相对图片路径的文章
const ArticleWithFrontMatter = `---
title: 测试文章
cover: ./img/cover.png
author: BaSui
description: 一篇用于测试的文章
---

# 标题

正文段落，包含 [外部链接](https://go.dev)。

![图一](./img/a.png "caption")

<img src="img/b.png" width="300">

- 列表一
- 列表二
`

// ArticleNoTitle 没有 front matter 的文章
const ArticleNoTitle = "# 只有正文\n\n![remote](https://example.com/a.png)\n"

// ArticleNoImages 既没有封面也没有图片的文章
const ArticleNoImages = "# 纯文字\n\n没有图片。\n"
