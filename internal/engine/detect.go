package engine

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[a-zA-Z]+\s*[^>]*>`)

// IsMarkup decides whether text should be handled as a document tree.
// A lone tag-like substring is enough to count as markup.
func IsMarkup(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<body") {
		return true
	}
	return tagPattern.MatchString(text)
}
