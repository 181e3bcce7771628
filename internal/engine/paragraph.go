package engine

import (
	"html"
	"strings"
)

// WrapParagraphs wraps each non-blank line of text in an escaped <p>.
func WrapParagraphs(text string) string {
	var paras []string
	for _, ln := range strings.Split(normalizeNewlines(text), "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		paras = append(paras, "<p>"+html.EscapeString(ln)+"</p>")
	}
	return strings.Join(paras, "\n")
}
