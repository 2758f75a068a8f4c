/*
Package theme 把 Markdown 文章渲染为可直接粘贴到公众号编辑器的 HTML。

渲染流程：YAML front matter 拆分（title、cover、author、description、source_url）
→ goldmark（GFM + 脚注）→ bluemonday 清洗 → goquery 后处理（外链转引用、
代码块 Mac 风格圆点）→ 主题样式内联到 style 属性。公众号会丢弃 <style> 标签，
所以所有样式都以内联形式输出，根节点为 <section id="wenyan">。

内置主题：default、orangeheart、rainbow、lapis、pie、maize、purple、phycat。
未知主题 ID 回退到 default。
*/
package theme
