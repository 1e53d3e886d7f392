// internal/browser/layout/engine.go
package layout

import (
	"fmt"

	"github.com/xkilldash9x/boxflow/internal/browser/dom"
	"github.com/xkilldash9x/boxflow/internal/browser/style"
	"go.uber.org/zap"
)

// -- Engine Core --

// Engine lays out style trees against a fixed viewport.
type Engine struct {
	viewportWidth  float64
	viewportHeight float64
	logger         *zap.Logger
}

// NewEngine creates a layout engine for a viewport. A nil logger disables logging.
func NewEngine(viewportWidth, viewportHeight float64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		viewportWidth:  viewportWidth,
		viewportHeight: viewportHeight,
		logger:         logger.Named("layout-engine"),
	}
}

// Viewport returns the root containing block. LayoutTree discards its height,
// so the document always starts at the top edge.
func (e *Engine) Viewport() Dimensions {
	return Dimensions{Content: Rect{Width: e.viewportWidth, Height: e.viewportHeight}}
}

// BuildAndLayoutTree builds and positions the layout tree for a style tree.
func (e *Engine) BuildAndLayoutTree(styleRoot *style.StyledNode) (*LayoutBox, error) {
	root, err := LayoutTree(styleRoot, e.Viewport())
	if err != nil {
		e.logger.Warn("Layout failed", zap.String("kind", string(KindOf(err))), zap.Error(err))
		return nil, err
	}
	if root.BoxType == InlineNode {
		e.logger.Warn("Root element is inline; no geometry was computed")
	}

	e.logger.Debug("Laid out document",
		zap.Int("boxes", countBoxes(root)),
		zap.Float64("viewport_width", e.viewportWidth),
		zap.Float64("document_height", root.Dimensions.MarginBox().Height))
	return root, nil
}

func countBoxes(b *LayoutBox) int {
	n := 1
	for _, c := range b.Children {
		n += countBoxes(c)
	}
	return n
}

// -- Geometry Queries --

// ElementGeometry describes where an element was placed. Vertices lists the
// border box corners clockwise from the top left as x,y pairs.
type ElementGeometry struct {
	XPath    string    `json:"xpath" yaml:"xpath"`
	Tag      string    `json:"tag" yaml:"tag"`
	BoxType  string    `json:"box_type" yaml:"box_type"`
	Vertices []float64 `json:"vertices" yaml:"vertices"`
	Width    float64   `json:"width" yaml:"width"`
	Height   float64   `json:"height" yaml:"height"`
	Content  Rect      `json:"content" yaml:"content"`
}

// ElementGeometry finds the first element matching an XPath expression in the
// document behind the layout tree and returns the geometry of its box.
func (e *Engine) ElementGeometry(layoutRoot *LayoutBox, expr string) (*ElementGeometry, error) {
	if layoutRoot == nil {
		return nil, fmt.Errorf("layout tree is nil")
	}
	rootStyle, err := layoutRoot.StyleNode()
	if err != nil {
		return nil, fmt.Errorf("could not find root DOM node: %w", err)
	}
	domRoot := rootStyle.Node

	target, err := dom.QueryOne(domRoot, expr)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("element not found matching selector '%s'", expr)
	}

	box := FindBox(layoutRoot, target)
	if box == nil {
		return nil, fmt.Errorf("element '%s' found in DOM but not rendered (display: none)", expr)
	}
	e.logger.Debug("Resolved element geometry", zap.String("xpath", expr), zap.Stringer("box_type", box.BoxType))

	geom := box.ToElementGeometry()
	geom.XPath = dom.UniqueXPath(domRoot, target)
	return geom, nil
}

// ToElementGeometry converts the box's border box into an ElementGeometry.
func (b *LayoutBox) ToElementGeometry() *ElementGeometry {
	rect := b.Dimensions.BorderBox()
	x, y, w, h := rect.X, rect.Y, rect.Width, rect.Height

	geom := &ElementGeometry{
		BoxType:  b.BoxType.String(),
		Vertices: []float64{x, y, x + w, y, x + w, y + h, x, y + h},
		Width:    w,
		Height:   h,
		Content:  b.Dimensions.Content,
	}
	if b.styledNode != nil {
		geom.Tag = b.styledNode.Node.TagName()
	}
	return geom
}

// FindBox returns the box generated for a document node, or nil when the node
// produced no box.
func FindBox(root *LayoutBox, node *dom.Node) *LayoutBox {
	if root == nil {
		return nil
	}
	if root.styledNode != nil && root.styledNode.Node == node {
		return root
	}
	for _, c := range root.Children {
		if found := FindBox(c, node); found != nil {
			return found
		}
	}
	return nil
}
