// File: internal/browser/dom/markup.go
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
)

// ErrNoRootElement is returned when markup parses but contains no element.
var ErrNoRootElement = errors.New("document has no root element")

// ParseHTML parses an HTML document and converts it into a Node tree rooted
// at the <html> element.
func ParseHTML(r io.Reader) (*Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	root := FromHTML(doc)
	if root == nil {
		return nil, ErrNoRootElement
	}
	return root, nil
}

// FromHTML converts a parsed html.Node into a Node tree. A document node is
// unwrapped to its first element child. Comments, doctypes and whitespace-only
// text are dropped. Returns nil when no element or text content remains.
func FromHTML(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				return FromHTML(c)
			}
		}
		return nil
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return nil
		}
		return NewText(n.Data)
	case html.ElementNode:
		attrs := make(AttrMap, len(n.Attr))
		for _, a := range n.Attr {
			attrs[a.Key] = a.Val
		}
		elem := NewElement(n.Data, attrs)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := FromHTML(c); child != nil {
				elem.Children = append(elem.Children, child)
			}
		}
		return elem
	default:
		return nil
	}
}

// ParseXML parses a well-formed XML (or XHTML) document into a Node tree
// rooted at the document element.
func ParseXML(r io.Reader) (*Node, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrNoRootElement
	}
	return fromXMLElement(root), nil
}

func fromXMLElement(el *etree.Element) *Node {
	attrs := make(AttrMap, len(el.Attr))
	for _, a := range el.Attr {
		attrs[a.Key] = a.Value
	}
	node := NewElement(el.Tag, attrs)
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			node.Children = append(node.Children, fromXMLElement(t))
		case *etree.CharData:
			if t.IsWhitespace() {
				continue
			}
			node.Children = append(node.Children, NewText(t.Data))
		}
	}
	return node
}
