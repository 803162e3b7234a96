package feed

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// CleanHTML strips markup from a fragment, decodes entities and collapses
// runs of whitespace to single spaces.
func CleanHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	text := fragment
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment)); err == nil {
		text = doc.Text()
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// Truncate shortens text to at most maxLength characters, backing up to the
// previous word boundary when one lands in the last fifth of the cut. The
// cut happens on rune boundaries so multi-byte text stays valid UTF-8.
func Truncate(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	truncated := runes[:maxLength]
	lastSpace := -1
	for i, r := range truncated {
		if r == ' ' {
			lastSpace = i
		}
	}
	if lastSpace > maxLength*4/5 {
		truncated = truncated[:lastSpace]
	}

	return string(truncated) + "..."
}
