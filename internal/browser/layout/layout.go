// internal/browser/layout/layout.go
package layout

import (
	"github.com/xkilldash9x/boxflow/internal/browser/parser"
	"github.com/xkilldash9x/boxflow/internal/browser/style"
)

// -- Core Structures: Box Model and Dimensions --

// Rect is a position and size in pixels.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// ExpandedBy returns a new rectangle grown outward by the edge sizes.
func (r Rect) ExpandedBy(e EdgeSizes) Rect {
	return Rect{
		X:      r.X - e.Left,
		Y:      r.Y - e.Top,
		Width:  r.Width + e.Left + e.Right,
		Height: r.Height + e.Top + e.Bottom,
	}
}

// EdgeSizes holds the four sides of a margin, border or padding area.
type EdgeSizes struct {
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// Dimensions is the geometry of a box. Content is positioned absolutely,
// relative to the origin of the root containing block.
type Dimensions struct {
	Content Rect

	Padding EdgeSizes
	Border  EdgeSizes
	Margin  EdgeSizes
}

// PaddingBox returns the rectangle enclosing the padding area.
func (d Dimensions) PaddingBox() Rect {
	return d.Content.ExpandedBy(d.Padding)
}

// BorderBox returns the rectangle enclosing the border area.
func (d Dimensions) BorderBox() Rect {
	return d.PaddingBox().ExpandedBy(d.Border)
}

// MarginBox returns the rectangle enclosing the margin area.
func (d Dimensions) MarginBox() Rect {
	return d.BorderBox().ExpandedBy(d.Margin)
}

// -- Layout Tree (Box Tree) --

// BoxType identifies the kind of box.
type BoxType int

const (
	BlockNode BoxType = iota
	InlineNode
	// AnonymousBlock wraps a run of inline siblings inside a block parent.
	// It has no styled node.
	AnonymousBlock
)

func (t BoxType) String() string {
	switch t {
	case BlockNode:
		return "block"
	case InlineNode:
		return "inline"
	case AnonymousBlock:
		return "anonymous"
	default:
		return "unknown"
	}
}

// LayoutBox is a node of the layout tree.
type LayoutBox struct {
	Dimensions Dimensions
	BoxType    BoxType
	Children   []*LayoutBox

	styledNode *style.StyledNode
}

func newLayoutBox(boxType BoxType, sn *style.StyledNode) *LayoutBox {
	return &LayoutBox{BoxType: boxType, styledNode: sn}
}

// StyleNode returns the styled node that generated the box. Anonymous blocks
// have none and report an invariant violation.
func (b *LayoutBox) StyleNode() (*style.StyledNode, error) {
	if b.BoxType == AnonymousBlock || b.styledNode == nil {
		return nil, newError(KindInvariantViolation, "StyleNode", "anonymous block has no style node")
	}
	return b.styledNode, nil
}

// inlineContainer returns the box that inline children of b are appended to.
// Inline and anonymous boxes hold their inline children directly. A block
// reuses a trailing anonymous block or opens a new one.
func (b *LayoutBox) inlineContainer() *LayoutBox {
	switch b.BoxType {
	case InlineNode, AnonymousBlock:
		return b
	default:
		if n := len(b.Children); n > 0 && b.Children[n-1].BoxType == AnonymousBlock {
			return b.Children[n-1]
		}
		anon := newLayoutBox(AnonymousBlock, nil)
		b.Children = append(b.Children, anon)
		return anon
	}
}

// -- Layout Tree Construction --

// BuildLayoutTree builds the unpositioned box tree for a style tree. A root
// with display: none yields ErrNoVisualDocument and no tree.
func BuildLayoutTree(root *style.StyledNode) (*LayoutBox, error) {
	if root == nil {
		return nil, newError(KindInvariantViolation, "BuildLayoutTree", "nil style tree")
	}
	if root.Display() == style.DisplayNone {
		return nil, newError(KindNoVisualDocument, "BuildLayoutTree", "")
	}
	return buildBox(root), nil
}

// buildBox builds the subtree for a node that is known to be displayed.
func buildBox(sn *style.StyledNode) *LayoutBox {
	boxType := InlineNode
	if sn.Display() == style.DisplayBlock {
		boxType = BlockNode
	}
	box := newLayoutBox(boxType, sn)

	for _, child := range sn.Children {
		switch child.Display() {
		case style.DisplayBlock:
			box.Children = append(box.Children, buildBox(child))
		case style.DisplayInline:
			container := box.inlineContainer()
			container.Children = append(container.Children, buildBox(child))
		case style.DisplayNone:
			// Dropped along with its subtree.
		}
	}
	return box
}

// -- Box Model Solver --

// LayoutTree builds the layout tree for root and positions it inside the
// containing block. The containing block's content height is reset to zero
// so that the root starts at its top edge.
func LayoutTree(root *style.StyledNode, containing Dimensions) (*LayoutBox, error) {
	containing.Content.Height = 0

	box, err := BuildLayoutTree(root)
	if err != nil {
		return nil, err
	}
	if err := box.Layout(containing); err != nil {
		return nil, err
	}
	return box, nil
}

// Layout positions the box and its descendants inside the containing block.
// Only block boxes are laid out; inline boxes and anonymous blocks keep zero
// geometry. Calling Layout on an anonymous block is an invariant violation.
func (b *LayoutBox) Layout(containing Dimensions) error {
	if b.BoxType == AnonymousBlock {
		return newError(KindInvariantViolation, "Layout", "anonymous block cannot be laid out as a root")
	}
	return b.layout(containing)
}

func (b *LayoutBox) layout(containing Dimensions) error {
	switch b.BoxType {
	case BlockNode:
		return b.layoutBlock(containing)
	default:
		return nil
	}
}

// layoutBlock runs width, position, children and height in that order. Width
// depends on the parent, height depends on the children.
func (b *LayoutBox) layoutBlock(containing Dimensions) error {
	sn, err := b.StyleNode()
	if err != nil {
		return err
	}

	b.calculateBlockWidth(sn, containing)
	b.calculateBlockPosition(sn, containing)
	if err := b.layoutBlockChildren(); err != nil {
		return err
	}
	b.calculateBlockHeight(sn)
	return nil
}

var (
	autoValue = parser.Keyword("auto")
	zeroPx    = parser.Pixels(0)
)

func isAuto(v parser.Value) bool {
	return parser.IsKeyword(v, "auto")
}

// calculateBlockWidth resolves width and horizontal margins so that the
// margin box fills the containing block exactly (CSS 2.1 section 10.3.3).
func (b *LayoutBox) calculateBlockWidth(sn *style.StyledNode, containing Dimensions) {
	width := sn.Lookup(autoValue, "width")

	marginLeft := sn.Lookup(zeroPx, "margin-left", "margin")
	marginRight := sn.Lookup(zeroPx, "margin-right", "margin")

	borderLeft := sn.Lookup(zeroPx, "border-left-width", "border-width")
	borderRight := sn.Lookup(zeroPx, "border-right-width", "border-width")

	paddingLeft := sn.Lookup(zeroPx, "padding-left", "padding")
	paddingRight := sn.Lookup(zeroPx, "padding-right", "padding")

	total := 0.0
	for _, v := range []parser.Value{marginLeft, marginRight, borderLeft, borderRight, paddingLeft, paddingRight, width} {
		total += v.ToPx()
	}

	// An over-constrained box cannot have auto margins.
	if !isAuto(width) && total > containing.Content.Width {
		if isAuto(marginLeft) {
			marginLeft = zeroPx
		}
		if isAuto(marginRight) {
			marginRight = zeroPx
		}
	}

	underflow := containing.Content.Width - total

	switch widthAuto, leftAuto, rightAuto := isAuto(width), isAuto(marginLeft), isAuto(marginRight); {
	case !widthAuto && !leftAuto && !rightAuto:
		marginRight = parser.Pixels(marginRight.ToPx() + underflow)

	case !widthAuto && !leftAuto && rightAuto:
		marginRight = parser.Pixels(underflow)

	case !widthAuto && leftAuto && !rightAuto:
		marginLeft = parser.Pixels(underflow)

	case widthAuto:
		if leftAuto {
			marginLeft = zeroPx
		}
		if rightAuto {
			marginRight = zeroPx
		}
		if underflow >= 0 {
			width = parser.Pixels(underflow)
		} else {
			// Width can't be negative; take the overflow out of the right margin.
			width = zeroPx
			marginRight = parser.Pixels(marginRight.ToPx() + underflow)
		}

	default: // both margins auto, width fixed
		marginLeft = parser.Pixels(underflow / 2)
		marginRight = parser.Pixels(underflow / 2)
	}

	d := &b.Dimensions
	d.Content.Width = width.ToPx()

	d.Padding.Left = paddingLeft.ToPx()
	d.Padding.Right = paddingRight.ToPx()

	d.Border.Left = borderLeft.ToPx()
	d.Border.Right = borderRight.ToPx()

	d.Margin.Left = marginLeft.ToPx()
	d.Margin.Right = marginRight.ToPx()
}

// calculateBlockPosition places the box below the content already laid out
// in the containing block.
func (b *LayoutBox) calculateBlockPosition(sn *style.StyledNode, containing Dimensions) {
	d := &b.Dimensions

	d.Margin.Top = sn.Lookup(zeroPx, "margin-top", "margin").ToPx()
	d.Margin.Bottom = sn.Lookup(zeroPx, "margin-bottom", "margin").ToPx()

	d.Border.Top = sn.Lookup(zeroPx, "border-top-width", "border-width").ToPx()
	d.Border.Bottom = sn.Lookup(zeroPx, "border-bottom-width", "border-width").ToPx()

	d.Padding.Top = sn.Lookup(zeroPx, "padding-top", "padding").ToPx()
	d.Padding.Bottom = sn.Lookup(zeroPx, "padding-bottom", "padding").ToPx()

	d.Content.X = containing.Content.X + d.Margin.Left + d.Border.Left + d.Padding.Left
	d.Content.Y = containing.Content.Y + containing.Content.Height +
		d.Margin.Top + d.Border.Top + d.Padding.Top
}

// layoutBlockChildren stacks children vertically. Each child sees a copy of
// the parent's dimensions taken after the previous sibling was added.
func (b *LayoutBox) layoutBlockChildren() error {
	for _, child := range b.Children {
		if err := child.layout(b.Dimensions); err != nil {
			return err
		}
		b.Dimensions.Content.Height += child.Dimensions.MarginBox().Height
	}
	return nil
}

// calculateBlockHeight applies an explicit pixel height, which overrides the
// height accumulated from the children.
func (b *LayoutBox) calculateBlockHeight(sn *style.StyledNode) {
	if v, ok := sn.Value("height"); ok {
		if l, ok := v.(parser.Length); ok && l.Unit == parser.Px {
			b.Dimensions.Content.Height = l.Value
		}
	}
}
