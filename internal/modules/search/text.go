package search

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict        = bluemonday.StrictPolicy()
	blockReplacer = strings.NewReplacer("</p>", " ", "<br>", " ", "<br/>", " ", "<br />", " ", "</div>", " ", "</li>", " ", "</h1>", " ", "</h2>", " ", "</h3>", " ")
)

// PlainText strips markup from rich post content so block boundaries become
// spaces and entities are decoded.
func PlainText(content string) string {
	content = blockReplacer.Replace(content)
	text := html.UnescapeString(strict.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}
