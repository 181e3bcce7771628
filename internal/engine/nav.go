package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/pagecraft/internal/document"
)

const (
	navStyle       = "background:#0466c8;color:white;padding:12px;border-radius:6px;margin-bottom:12px;"
	navLinkStyle   = "color:white;text-decoration:none;padding:6px;margin-right:8px;font-weight:600;"
	navSepStyle    = "color:rgba(255,255,255,0.8);margin-right:8px;"
	navSeparator   = " | "
	fallbackAnchor = "section"
)

var (
	whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)
	nonAnchorRune = regexp.MustCompile(`[^a-z0-9-]`)
)

// HeadingEntry is one navigation target.
type HeadingEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// HeadingID derives an anchor id from heading text.
func HeadingID(text string) string {
	id := whitespaceRun.ReplaceAllString(strings.ToLower(text), "-")
	return nonAnchorRune.ReplaceAllString(id, "")
}

// AddNavigation assigns ids to the non-empty h1-h3 headings of doc and
// prepends a <nav> linking to each. It returns the entries it linked, or nil
// when the document has no usable headings.
//
// Ids already on headings are kept. A derived id that clashes with any id in
// the document, or with one derived earlier, gets a numeric suffix.
func AddNavigation(doc *document.Document) []HeadingEntry {
	used := doc.IDs()
	var entries []HeadingEntry

	for _, h := range doc.Headings(1, 3) {
		text := document.TextContent(h)
		if text == "" {
			continue
		}
		id, ok := document.Attr(h, "id")
		if !ok {
			id = uniqueID(HeadingID(text), used)
			document.SetAttr(h, "id", id)
		}
		entries = append(entries, HeadingEntry{ID: id, Text: text})
	}
	if len(entries) == 0 {
		return nil
	}

	nav := document.NewElement("nav")
	document.SetAttr(nav, "style", navStyle)
	container := document.NewElement("div")
	document.AppendChild(nav, container)

	for i, e := range entries {
		a := document.NewElement("a")
		document.SetAttr(a, "href", "#"+e.ID)
		document.SetAttr(a, "style", navLinkStyle)
		document.AppendChild(a, document.NewText(e.Text))
		document.AppendChild(container, a)

		if i != len(entries)-1 {
			sep := document.NewElement("span")
			document.SetAttr(sep, "style", navSepStyle)
			document.AppendChild(sep, document.NewText(navSeparator))
			document.AppendChild(container, sep)
		}
	}

	document.InsertFirstChild(doc.ContentRoot(), nav)
	return entries
}

func uniqueID(base string, used map[string]bool) string {
	if base == "" {
		base = fallbackAnchor
	}
	id := base
	for n := 2; used[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	used[id] = true
	return id
}
