package document

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a mutable HTML tree owned by a single transformation.
// Full documents keep the parser's <html>/<head>/<body> skeleton; fragments
// hang directly off the root with no invented wrappers.
type Document struct {
	root     *html.Node
	fragment bool
}

// Parse builds a Document from markup. Malformed input is repaired by the
// HTML5 parser, never rejected.
func Parse(markup string) (*Document, error) {
	if IsFullDocument(markup) {
		root, err := html.Parse(strings.NewReader(markup))
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
		return &Document{root: root}, nil
	}

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return &Document{root: root, fragment: true}, nil
}

// skeletonTag matches a doctype or an html/head/body open tag, not <header>.
var skeletonTag = regexp.MustCompile(`(?i)<(!doctype|html|head|body)[\s>/]`)

// IsFullDocument reports whether markup carries its own document skeleton.
func IsFullDocument(markup string) bool {
	return skeletonTag.MatchString(markup)
}

// Fragment reports whether the document was parsed as a body fragment.
func (d *Document) Fragment() bool { return d.fragment }

// Root returns the top of the tree.
func (d *Document) Root() *html.Node { return d.root }

// Body returns the <body> element, or nil for fragments.
func (d *Document) Body() *html.Node {
	return findElement(d.root, atom.Body)
}

// Head returns the <head> element if one exists.
func (d *Document) Head() *html.Node {
	return findElement(d.root, atom.Head)
}

// ContentRoot is where visible content lives: <body> when present, else the root.
func (d *Document) ContentRoot() *html.Node {
	if b := d.Body(); b != nil {
		return b
	}
	return d.root
}

// EnsureHead returns <head>, creating it as the document's first child when absent.
func (d *Document) EnsureHead() *html.Node {
	if h := d.Head(); h != nil {
		return h
	}
	head := NewElement("head")
	parent := d.root
	if h := findElement(d.root, atom.Html); h != nil {
		parent = h
	}
	InsertFirstChild(parent, head)
	return head
}

// Headings returns h<from>..h<to> elements in document order.
func (d *Document) Headings(from, to int) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if lvl := HeadingLevel(n); lvl >= from && lvl <= to {
				out = append(out, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// IDs collects every id attribute value in the document.
func (d *Document) IDs() map[string]bool {
	ids := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id, ok := Attr(n, "id"); ok && id != "" {
				ids[id] = true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return ids
}

// Render serializes the tree back to markup.
func (d *Document) Render() (string, error) {
	var sb strings.Builder
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return sb.String(), nil
}

// NewElement creates a detached element node.
func NewElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// NewText creates a detached text node. Data is escaped on render.
func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// InsertFirstChild prepends child to parent without disturbing existing children.
func InsertFirstChild(parent, child *html.Node) {
	parent.InsertBefore(child, parent.FirstChild)
}

// AppendChild adds child as parent's last child.
func AppendChild(parent, child *html.Node) {
	parent.AppendChild(child)
}

// SetAttr sets key on n, replacing an existing value.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Attr returns the value of key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HeadingLevel returns 1-6 for heading elements, 0 otherwise.
func HeadingLevel(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// TextContent concatenates the text below n, trimmed.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
