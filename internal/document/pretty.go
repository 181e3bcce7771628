package document

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true, atom.Param: true, atom.Keygen: true,
}

// Prettify re-parses markup and lays it out one node per line, indented by
// one space per nesting level.
func Prettify(markup string) (string, error) {
	doc, err := Parse(markup)
	if err != nil {
		return "", err
	}
	return doc.Prettify()
}

// Prettify lays out the tree as it stands, without a re-parse, so a fragment
// that gained a <head> stays a fragment.
func (d *Document) Prettify() (string, error) {
	var sb strings.Builder
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if err := writePretty(&sb, c, 0); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func writePretty(sb *strings.Builder, n *html.Node, depth int) error {
	indent := strings.Repeat(" ", depth)

	switch n.Type {
	case html.TextNode:
		t := strings.TrimSpace(n.Data)
		if t == "" {
			return nil
		}
		if isRawText(n.Parent) {
			sb.WriteString(indent + t + "\n")
		} else {
			sb.WriteString(indent + html.EscapeString(t) + "\n")
		}
		return nil

	case html.CommentNode:
		sb.WriteString(indent + "<!--" + n.Data + "-->\n")
		return nil

	case html.DoctypeNode:
		var raw strings.Builder
		if err := html.Render(&raw, n); err != nil {
			return fmt.Errorf("render doctype: %w", err)
		}
		sb.WriteString(indent + raw.String() + "\n")
		return nil

	case html.ElementNode:
		// Rendered verbatim.
		if n.DataAtom == atom.Pre || n.DataAtom == atom.Textarea {
			var raw strings.Builder
			if err := html.Render(&raw, n); err != nil {
				return fmt.Errorf("render %s: %w", n.Data, err)
			}
			sb.WriteString(indent + raw.String() + "\n")
			return nil
		}

		sb.WriteString(indent + openTag(n) + "\n")
		if voidElements[n.DataAtom] {
			return nil
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := writePretty(sb, c, depth+1); err != nil {
				return err
			}
		}
		sb.WriteString(indent + "</" + n.Data + ">\n")
		return nil
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := writePretty(sb, c, depth); err != nil {
			return err
		}
	}
	return nil
}

func openTag(n *html.Node) string {
	var sb strings.Builder
	sb.WriteString("<" + n.Data)
	for _, a := range n.Attr {
		sb.WriteByte(' ')
		if a.Namespace != "" {
			sb.WriteString(a.Namespace + ":")
		}
		sb.WriteString(a.Key + `="` + html.EscapeString(a.Val) + `"`)
	}
	sb.WriteString(">")
	return sb.String()
}

func isRawText(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Xmp, atom.Iframe, atom.Noembed, atom.Noframes, atom.Noscript:
		return true
	}
	return false
}
