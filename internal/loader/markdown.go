package loader

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// MarkdownLoader renders Markdown to an HTML fragment so headings become
// navigation targets. Inline HTML is kept.
type MarkdownLoader struct{}

func (l *MarkdownLoader) Format() Format { return FormatMarkdown }

func (l *MarkdownLoader) Load(data []byte) (string, error) {
	src, err := DecodeText(data)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
