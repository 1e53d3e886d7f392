// internal/browser/style/style.go
package style

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/boxflow/internal/browser/dom"
	"github.com/xkilldash9x/boxflow/internal/browser/parser"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PropertyMap holds the winning value of each property for one node.
type PropertyMap map[string]parser.Value

// StyledNode pairs a document node with its specified values. Children follow
// the document's child order.
type StyledNode struct {
	Node            *dom.Node
	SpecifiedValues PropertyMap
	Children        []*StyledNode
}

// Value returns the specified value of a property.
func (sn *StyledNode) Value(name string) (parser.Value, bool) {
	v, ok := sn.SpecifiedValues[name]
	return v, ok
}

// Lookup returns the value of the first property in names that is set,
// falling back to def.
func (sn *StyledNode) Lookup(def parser.Value, names ...string) parser.Value {
	return Lookup(sn.SpecifiedValues, def, names...)
}

// Lookup resolves a fallback chain such as ("margin-left", "margin") against
// a property map.
func Lookup(props PropertyMap, def parser.Value, names ...string) parser.Value {
	for _, name := range names {
		if v, ok := props[name]; ok {
			return v
		}
	}
	return def
}

// Display is the box generation mode of a node.
type Display int

const (
	DisplayInline Display = iota
	DisplayBlock
	DisplayNone
)

func (d Display) String() string {
	switch d {
	case DisplayBlock:
		return "block"
	case DisplayNone:
		return "none"
	default:
		return "inline"
	}
}

// Display classifies the node from its "display" keyword. Anything other
// than "block" or "none", including an absent value, is inline.
func (sn *StyledNode) Display() Display {
	v, ok := sn.Value("display")
	if !ok {
		return DisplayInline
	}
	switch {
	case parser.IsKeyword(v, "block"):
		return DisplayBlock
	case parser.IsKeyword(v, "none"):
		return DisplayNone
	default:
		return DisplayInline
	}
}

// StyleTree builds the style tree for a document. Text nodes receive an empty
// property map.
func StyleTree(node *dom.Node, sheet parser.StyleSheet) *StyledNode {
	values := PropertyMap{}
	if node.IsElement() {
		values = SpecifiedValues(node, sheet)
	}
	sn := &StyledNode{
		Node:            node,
		SpecifiedValues: values,
	}
	if len(node.Children) > 0 {
		sn.Children = make([]*StyledNode, len(node.Children))
		for i, child := range node.Children {
			sn.Children[i] = StyleTree(child, sheet)
		}
	}
	return sn
}

// -- Style Engine --

// Engine resolves styles for documents against a set of stylesheets. Sheets
// cascade as a single sheet in the order they were added.
type Engine struct {
	sheets      []parser.StyleSheet
	concurrency int
	logger      *zap.Logger
}

// NewEngine creates a style engine. A concurrency above one builds the
// subtrees of the root's children in parallel.
func NewEngine(logger *zap.Logger, concurrency int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{
		concurrency: concurrency,
		logger:      logger.Named("style-engine"),
	}
}

// AddSheet appends a stylesheet to the cascade.
func (se *Engine) AddSheet(sheet parser.StyleSheet) {
	se.sheets = append(se.sheets, sheet)
}

// Sheet returns the combined stylesheet.
func (se *Engine) Sheet() parser.StyleSheet {
	var combined parser.StyleSheet
	for _, s := range se.sheets {
		combined.Rules = append(combined.Rules, s.Rules...)
	}
	return combined
}

// BuildTree builds the style tree for root. The result is identical whatever
// the configured concurrency; only context cancellation produces an error.
func (se *Engine) BuildTree(ctx context.Context, root *dom.Node) (*StyledNode, error) {
	if root == nil {
		return nil, fmt.Errorf("cannot style a nil document")
	}
	sheet := se.Sheet()

	if se.concurrency == 1 || len(root.Children) < 2 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tree := StyleTree(root, sheet)
		se.logger.Debug("Built style tree", zap.Int("rules", len(sheet.Rules)))
		return tree, nil
	}

	values := PropertyMap{}
	if root.IsElement() {
		values = SpecifiedValues(root, sheet)
	}
	tree := &StyledNode{
		Node:            root,
		SpecifiedValues: values,
		Children:        make([]*StyledNode, len(root.Children)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(se.concurrency)
	for i, child := range root.Children {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tree.Children[i] = StyleTree(child, sheet)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("style tree build aborted: %w", err)
	}

	se.logger.Debug("Built style tree",
		zap.Int("rules", len(sheet.Rules)),
		zap.Int("workers", se.concurrency))
	return tree, nil
}
