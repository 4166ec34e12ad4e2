package util

import (
	"regexp"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var (
	converterOnce sync.Once
	converter     *md.Converter

	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// HTMLToText converts an HTML fragment to readable plain text. Markdown
// is close enough to plain text for downstream scoring, and the
// converter handles malformed markup without choking.
func HTMLToText(html string) string {
	converterOnce.Do(func() {
		converter = md.NewConverter("", true, nil)
	})

	out, err := converter.ConvertString(html)
	if err != nil {
		// Fall back to a crude tag strip; a lossy description beats none.
		out = stripTags(html)
	}
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripTags(html string) string {
	return tagRe.ReplaceAllString(html, " ")
}
