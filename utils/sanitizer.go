package utils

import (
	"regexp"
	"strings"

	"github.com/k3a/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var (
	// mailPolicy keeps the structure of received HTML that matters for a
	// text rendering and drops everything active or presentational.
	mailPolicy = newMailPolicy()

	blankLines = regexp.MustCompile(`(\n\s*){2,}`)
)

func newMailPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("div", "span", "u", "s")
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto", "cid")
	return p
}

// SanitizeHTML strips scripts, styles and event handlers from message HTML
func SanitizeHTML(html string) string {
	return mailPolicy.Sanitize(html)
}

// HTMLToText turns an HTML body into plain text an agent can read. Style and
// script content is dropped by the sanitizer before conversion.
func HTMLToText(html string) string {
	text := html2text.HTML2TextWithOptions(SanitizeHTML(html), html2text.WithUnixLineBreaks())
	return NormalizeEmptyLines(text)
}

// NormalizeEmptyLines collapses runs of blank lines into one
func NormalizeEmptyLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return blankLines.ReplaceAllString(text, "\n\n")
}
