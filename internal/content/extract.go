package content

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlHint     = regexp.MustCompile(`(?i)<\s*(html|body|div|p|span|h[1-6]|br|table|li)\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Prepare turns an uploaded page or document extraction into plain text
// bounded by maxChars. HTML is detected heuristically and stripped of
// non-content elements; anything else passes through with whitespace
// collapsed. Content past the limit is dropped, not summarized.
func Prepare(raw string, maxChars int) string {
	text := raw
	if looksLikeHTML(raw) {
		text = stripHTML(raw)
	}

	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	return Truncate(text, maxChars)
}

// Truncate cuts text to at most maxChars characters without splitting a
// multi-byte rune. maxChars <= 0 means no limit.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

func looksLikeHTML(s string) bool {
	return htmlHint.MatchString(s)
}

func stripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("script, style, nav, footer, header, aside, noscript, iframe").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Text()
	}
	return body.Text()
}

// Title extracts a page title for source labeling, falling back to the
// first heading.
func Title(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	return title
}
