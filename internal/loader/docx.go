package loader

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXLoader turns a Word document into an HTML fragment: heading-styled
// paragraphs become <h1>-<h6>, everything else <p>.
type DOCXLoader struct{}

func (l *DOCXLoader) Format() Format { return FormatDOCX }

func (l *DOCXLoader) Load(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var blocks []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		level := 0
		if para.Properties != nil && para.Properties.Style != nil {
			level = headingStyleLevel(para.Properties.Style.Val)
		}
		blocks = append(blocks, htmlBlock(level, text))
	}
	return strings.Join(blocks, "\n"), nil
}

// headingStyleLevel maps Word style ids ("Heading2", "heading 2") to 1-6.
func headingStyleLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	rest, ok := strings.CutPrefix(s, "heading")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

func htmlBlock(level int, text string) string {
	tag := "p"
	if level > 0 {
		tag = "h" + strconv.Itoa(level)
	}
	return "<" + tag + ">" + html.EscapeString(text) + "</" + tag + ">"
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
