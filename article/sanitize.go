package article

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Maximum lengths applied to feed text fields.
const (
	MaxTitleLength       = 500
	MaxDescriptionLength = 2000
)

// Sanitize strips HTML markup, collapses runs of whitespace, and truncates
// the result to max characters with a trailing ellipsis. A max of 0
// disables truncation.
func Sanitize(text string, max int) string {
	if text == "" {
		return ""
	}

	// Feed summaries routinely carry embedded HTML or entities.
	if strings.ContainsAny(text, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")

	// Truncate on runes, not bytes, so multibyte text stays valid UTF-8.
	if r := []rune(text); max > 0 && len(r) > max {
		if max <= 3 {
			return string(r[:max])
		}
		text = string(r[:max-3]) + "..."
	}

	return text
}
