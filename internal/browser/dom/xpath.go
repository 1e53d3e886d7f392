// browser/dom/xpath.go
package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xpath"
)

// frame is one step on the path from the virtual document root to the
// navigator's current node.
type frame struct {
	node  *Node
	index int // position within the parent's children
}

// Navigator implements xpath.NodeNavigator over a Node tree. Nodes carry no
// parent pointers, so the navigator tracks its own ancestry. An empty path
// means the navigator sits on the virtual document root above the root element.
type Navigator struct {
	root *Node
	path []frame
	attr int
}

var _ xpath.NodeNavigator = (*Navigator)(nil)

// NewNavigator positions a navigator on the virtual root above root.
func NewNavigator(root *Node) *Navigator {
	return &Navigator{root: root, attr: -1}
}

// Current returns the node the navigator is positioned on, or nil at the
// virtual document root.
func (nav *Navigator) Current() *Node {
	if len(nav.path) == 0 {
		return nil
	}
	return nav.path[len(nav.path)-1].node
}

// siblings returns the child list that holds the frame at the given depth.
func (nav *Navigator) siblings(depth int) []*Node {
	if depth == 0 {
		return []*Node{nav.root}
	}
	return nav.path[depth-1].node.Children
}

func (nav *Navigator) attrNames() []string {
	cur := nav.Current()
	if !cur.IsElement() {
		return nil
	}
	return cur.Element.sortedAttributeNames()
}

func (nav *Navigator) NodeType() xpath.NodeType {
	cur := nav.Current()
	switch {
	case cur == nil:
		return xpath.RootNode
	case cur.Type == TextNode:
		return xpath.TextNode
	case nav.attr != -1:
		return xpath.AttributeNode
	default:
		return xpath.ElementNode
	}
}

func (nav *Navigator) LocalName() string {
	cur := nav.Current()
	if cur == nil {
		return ""
	}
	if nav.attr != -1 {
		return nav.attrNames()[nav.attr]
	}
	return cur.TagName()
}

func (*Navigator) Prefix() string {
	return ""
}

func (nav *Navigator) Value() string {
	cur := nav.Current()
	switch {
	case cur == nil:
		return nav.root.InnerText()
	case cur.Type == TextNode:
		return cur.Text
	case nav.attr != -1:
		return cur.Element.Attributes[nav.attrNames()[nav.attr]]
	default:
		return cur.InnerText()
	}
}

func (nav *Navigator) Copy() xpath.NodeNavigator {
	n := *nav
	n.path = append([]frame(nil), nav.path...)
	return &n
}

func (nav *Navigator) MoveToRoot() {
	nav.path = nil
	nav.attr = -1
}

func (nav *Navigator) MoveToParent() bool {
	if nav.attr != -1 {
		nav.attr = -1
		return true
	}
	if len(nav.path) == 0 {
		return false
	}
	nav.path = nav.path[:len(nav.path)-1]
	return true
}

func (nav *Navigator) MoveToNextAttribute() bool {
	names := nav.attrNames()
	if nav.attr >= len(names)-1 {
		return false
	}
	nav.attr++
	return true
}

func (nav *Navigator) MoveToChild() bool {
	if nav.attr != -1 {
		return false
	}
	var children []*Node
	if cur := nav.Current(); cur == nil {
		children = []*Node{nav.root}
	} else {
		children = cur.Children
	}
	if len(children) == 0 {
		return false
	}
	nav.path = append(nav.path, frame{node: children[0], index: 0})
	return true
}

func (nav *Navigator) MoveToFirst() bool {
	depth := len(nav.path)
	if nav.attr != -1 || depth == 0 || nav.path[depth-1].index == 0 {
		return false
	}
	nav.path[depth-1] = frame{node: nav.siblings(depth - 1)[0], index: 0}
	return true
}

func (nav *Navigator) MoveToNext() bool {
	depth := len(nav.path)
	if nav.attr != -1 || depth == 0 {
		return false
	}
	sibs := nav.siblings(depth - 1)
	next := nav.path[depth-1].index + 1
	if next >= len(sibs) {
		return false
	}
	nav.path[depth-1] = frame{node: sibs[next], index: next}
	return true
}

func (nav *Navigator) MoveToPrevious() bool {
	depth := len(nav.path)
	if nav.attr != -1 || depth == 0 {
		return false
	}
	prev := nav.path[depth-1].index - 1
	if prev < 0 {
		return false
	}
	nav.path[depth-1] = frame{node: nav.siblings(depth - 1)[prev], index: prev}
	return true
}

func (nav *Navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*Navigator)
	if !ok || o.root != nav.root {
		return false
	}
	nav.path = append([]frame(nil), o.path...)
	nav.attr = o.attr
	return true
}

func (nav *Navigator) String() string {
	return nav.Value()
}

// Query evaluates an XPath expression against the tree and returns the
// matching element and text nodes in document order. Attribute matches
// resolve to their owning element.
func Query(root *Node, expr string) ([]*Node, error) {
	if root == nil {
		return nil, errors.New("cannot query a nil document")
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath expression %q: %w", expr, err)
	}

	var result []*Node
	seen := make(map[*Node]struct{})
	iter := compiled.Select(NewNavigator(root))
	for iter.MoveNext() {
		nav, ok := iter.Current().(*Navigator)
		if !ok {
			continue
		}
		n := nav.Current()
		if n == nil {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result, nil
}

// QueryOne returns the first node matched by expr, or nil if none matched.
func QueryOne(root *Node, expr string) (*Node, error) {
	nodes, err := Query(root, expr)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}

// UniqueXPaths computes a stable XPath for every element in the tree. Elements
// with an id are anchored on it; other elements use positional steps counted
// among same-tag siblings.
func UniqueXPaths(root *Node) map[*Node]string {
	paths := make(map[*Node]string)
	if !root.IsElement() {
		return paths
	}
	var walk func(n *Node, base string, index int)
	walk = func(n *Node, base string, index int) {
		tag := strings.ToLower(n.TagName())
		var p string
		if id, ok := n.Element.ID(); ok && id != "" {
			p = fmt.Sprintf(`//*[@id='%s']`, id)
		} else {
			p = fmt.Sprintf("%s/%s[%d]", base, tag, index)
		}
		paths[n] = p

		counts := make(map[string]int)
		for _, c := range n.Children {
			if !c.IsElement() {
				continue
			}
			ct := strings.ToLower(c.TagName())
			counts[ct]++
			walk(c, p, counts[ct])
		}
	}
	walk(root, "", 1)
	return paths
}

// UniqueXPath returns the XPath UniqueXPaths assigns to target, or the empty
// string when target is not an element of the tree.
func UniqueXPath(root, target *Node) string {
	return UniqueXPaths(root)[target]
}
