// Package markdown renders post content to sanitized HTML and derives plain-text excerpts.
package markdown

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithXHTML(),
		),
	)
	ugc   = bluemonday.UGCPolicy()
	strip = bluemonday.StrictPolicy()
)

func init() {
	ugc.AllowImages()
	ugc.AddTargetBlankToFullyQualifiedLinks(true)
	ugc.RequireNoReferrerOnLinks(true)
}

// Render converts markdown to HTML that is safe to embed in a page.
func Render(source string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return ugc.Sanitize(source)
	}
	return string(ugc.SanitizeBytes(buf.Bytes()))
}

// Excerpt returns at most limit runes of the content's plain text, with an
// ellipsis when it was cut.
func Excerpt(source string, limit int) string {
	if limit <= 0 {
		return ""
	}
	text := html.UnescapeString(strip.Sanitize(Render(source)))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := strings.TrimSpace(string(runes[:limit-1]))
	return cut + "…"
}
