package engine

import "strings"

// OutputKind tells the host how to present a result.
type OutputKind string

const (
	KindMarkup OutputKind = "html"
	KindText   OutputKind = "text"
)

// ClassifyOutput treats anything holding both '<' and '>' as markup.
func ClassifyOutput(output string) OutputKind {
	if strings.Contains(output, "<") && strings.Contains(output, ">") {
		return KindMarkup
	}
	return KindText
}

// Filename is the suggested download name.
func (k OutputKind) Filename() string {
	if k == KindMarkup {
		return "output.html"
	}
	return "output.txt"
}

// ContentType is the MIME type used for preview and download.
func (k OutputKind) ContentType() string {
	if k == KindMarkup {
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}
