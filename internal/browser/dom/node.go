// File: internal/browser/dom/node.go
package dom

import (
	"sort"
	"strings"
)

// NodeType distinguishes the two kinds of document node.
type NodeType int

const (
	TextNode NodeType = iota
	ElementNode
)

func (t NodeType) String() string {
	switch t {
	case TextNode:
		return "text"
	case ElementNode:
		return "element"
	default:
		return "unknown"
	}
}

// AttrMap maps attribute names to their values.
type AttrMap map[string]string

// ElementData holds the tag name and attributes of an element node.
type ElementData struct {
	TagName    string
	Attributes AttrMap
}

// ID returns the value of the "id" attribute, if present.
func (e ElementData) ID() (string, bool) {
	id, ok := e.Attributes["id"]
	return id, ok
}

// HasClass reports whether name is one of the whitespace separated entries
// of the "class" attribute.
func (e ElementData) HasClass(name string) bool {
	list, ok := e.Attributes["class"]
	if !ok {
		return false
	}
	for _, c := range strings.Fields(list) {
		if c == name {
			return true
		}
	}
	return false
}

// sortedAttributeNames returns attribute keys in a stable order for iteration.
func (e ElementData) sortedAttributeNames() []string {
	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Node is a document tree node. A node owns its children; the tree is
// read-only once it has been constructed.
type Node struct {
	Type     NodeType
	Text     string
	Element  ElementData
	Children []*Node
}

// NewText creates a text leaf.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Text: data}
}

// NewElement creates an element node with the given attributes and children.
// A nil attribute map is replaced by an empty one.
func NewElement(tag string, attrs AttrMap, children ...*Node) *Node {
	if attrs == nil {
		attrs = AttrMap{}
	}
	return &Node{
		Type:     ElementNode,
		Element:  ElementData{TagName: tag, Attributes: attrs},
		Children: children,
	}
}

// IsElement reports whether n is an element node.
func (n *Node) IsElement() bool {
	return n != nil && n.Type == ElementNode
}

// TagName returns the element's tag, or the empty string for text nodes.
func (n *Node) TagName() string {
	if !n.IsElement() {
		return ""
	}
	return n.Element.TagName
}

// InnerText concatenates the text of every descendant text node in document order.
func (n *Node) InnerText() string {
	var sb strings.Builder
	n.Walk(func(cur *Node) bool {
		if cur.Type == TextNode {
			sb.WriteString(cur.Text)
		}
		return true
	})
	return sb.String()
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
