// internal/browser/layout/layout_test.go
package layout

import (
	"errors"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxflow/internal/browser/dom"
	"github.com/xkilldash9x/boxflow/internal/browser/parser"
	"github.com/xkilldash9x/boxflow/internal/browser/style"
)

// -- Test Helpers --

const epsilon = 1e-9

func px(v float64) parser.Value { return parser.Pixels(v) }

func kw(s string) parser.Value { return parser.Keyword(s) }

var (
	auto  = kw("auto")
	block = kw("block")
	none  = kw("none")
)

// elem builds a styled element directly, bypassing the cascade.
func elem(tag string, values style.PropertyMap, children ...*style.StyledNode) *style.StyledNode {
	if values == nil {
		values = style.PropertyMap{}
	}
	node := dom.NewElement(tag, nil)
	for _, c := range children {
		node.Children = append(node.Children, c.Node)
	}
	return &style.StyledNode{Node: node, SpecifiedValues: values, Children: children}
}

func text(s string) *style.StyledNode {
	return &style.StyledNode{Node: dom.NewText(s), SpecifiedValues: style.PropertyMap{}}
}

func viewport(w float64) Dimensions {
	return Dimensions{Content: Rect{Width: w, Height: 600}}
}

// marginBoxWidth sums the seven horizontal components of a box.
func marginBoxWidth(d Dimensions) float64 {
	return d.Margin.Left + d.Border.Left + d.Padding.Left + d.Content.Width +
		d.Padding.Right + d.Border.Right + d.Margin.Right
}

func layoutSingle(t *testing.T, values style.PropertyMap, containerWidth float64) Dimensions {
	t.Helper()
	values["display"] = block
	box, err := LayoutTree(elem("div", values), viewport(containerWidth))
	require.NoError(t, err)
	return box.Dimensions
}

// -- Geometry helpers --

func TestDimensions_Boxes(t *testing.T) {
	d := Dimensions{
		Content: Rect{X: 20, Y: 30, Width: 100, Height: 50},
		Padding: EdgeSizes{Left: 1, Right: 2, Top: 3, Bottom: 4},
		Border:  EdgeSizes{Left: 5, Right: 5, Top: 5, Bottom: 5},
		Margin:  EdgeSizes{Left: 10, Right: 0, Top: 2, Bottom: 8},
	}
	assert.Equal(t, Rect{X: 19, Y: 27, Width: 103, Height: 57}, d.PaddingBox())
	assert.Equal(t, Rect{X: 14, Y: 22, Width: 113, Height: 67}, d.BorderBox())
	assert.Equal(t, Rect{X: 4, Y: 20, Width: 123, Height: 77}, d.MarginBox())
}

// -- Width --

func TestBlockWidth(t *testing.T) {
	tests := []struct {
		name        string
		values      style.PropertyMap
		cw          float64
		wantWidth   float64
		wantMLeft   float64
		wantMRight  float64
		wantPadLeft float64
	}{
		{
			name:       "Auto width fills the container",
			values:     style.PropertyMap{"margin": px(10), "padding": px(5), "border-width": px(1)},
			cw:         800,
			wantWidth:  768,
			wantMLeft:  10,
			wantMRight: 10, wantPadLeft: 5,
		},
		{
			name:       "Nothing auto: right margin absorbs underflow",
			values:     style.PropertyMap{"width": px(100), "margin-left": px(10), "margin-right": px(20)},
			cw:         800,
			wantWidth:  100,
			wantMLeft:  10,
			wantMRight: 690,
		},
		{
			name:       "Auto right margin",
			values:     style.PropertyMap{"width": px(100), "margin-left": px(50), "margin-right": auto},
			cw:         800,
			wantWidth:  100,
			wantMLeft:  50,
			wantMRight: 650,
		},
		{
			name:       "Auto left margin",
			values:     style.PropertyMap{"width": px(100), "margin-left": auto, "margin-right": px(0)},
			cw:         800,
			wantWidth:  100,
			wantMLeft:  700,
			wantMRight: 0,
		},
		{
			name:       "Both margins auto center the box",
			values:     style.PropertyMap{"width": px(200), "margin": auto},
			cw:         800,
			wantWidth:  200,
			wantMLeft:  300,
			wantMRight: 300,
		},
		{
			name:       "Auto width zeroes auto margins",
			values:     style.PropertyMap{"margin-left": auto, "margin-right": auto},
			cw:         640,
			wantWidth:  640,
			wantMLeft:  0,
			wantMRight: 0,
		},
		{
			name:       "Over-constrained width drops auto margins",
			values:     style.PropertyMap{"width": px(900), "margin": auto},
			cw:         800,
			wantWidth:  900,
			wantMLeft:  0,
			wantMRight: -100,
		},
		{
			name:       "Auto width cannot go negative",
			values:     style.PropertyMap{"margin-left": px(500), "margin-right": px(400)},
			cw:         800,
			wantWidth:  0,
			wantMLeft:  500,
			wantMRight: 300,
		},
		{
			name:       "Specific sides override the shorthand",
			values:     style.PropertyMap{"padding": px(8), "padding-left": px(2), "width": px(10)},
			cw:         100,
			wantWidth:  10,
			wantMLeft:  0,
			wantMRight: 80, wantPadLeft: 2,
		},
		{
			name:       "Non-length width behaves like zero",
			values:     style.PropertyMap{"width": kw("wide")},
			cw:         300,
			wantWidth:  0,
			wantMLeft:  0,
			wantMRight: 300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := layoutSingle(t, tt.values, tt.cw)
			assert.InDelta(t, tt.wantWidth, d.Content.Width, epsilon, "content width")
			assert.InDelta(t, tt.wantMLeft, d.Margin.Left, epsilon, "margin-left")
			assert.InDelta(t, tt.wantMRight, d.Margin.Right, epsilon, "margin-right")
			assert.InDelta(t, tt.wantPadLeft, d.Padding.Left, epsilon, "padding-left")
			assert.InDelta(t, tt.cw, marginBoxWidth(d), epsilon, "margin box must fill the container")
		})
	}
}

// FuzzBlockWidth checks that the horizontal margin box of a block always equals
// the width of its containing block.
func FuzzBlockWidth(f *testing.F) {
	f.Add([]byte{0x10, 0x20, 0x30, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})
	f.Add([]byte{0xff, 0xff, 0x00, 0x00, 0x01, 0x01, 0x01, 0x01})

	f.Fuzz(func(t *testing.T, data []byte) {
		fz := fuzz.NewConsumer(data)

		value := func(allowAuto bool) (parser.Value, bool) {
			isAuto, err := fz.GetBool()
			if err != nil {
				return nil, false
			}
			if allowAuto && isAuto {
				return auto, true
			}
			n, err := fz.GetUint16()
			if err != nil {
				return nil, false
			}
			return px(float64(n%2000) / 4), true
		}

		values := style.PropertyMap{}
		props := []struct {
			name      string
			allowAuto bool
		}{
			{"width", true}, {"margin-left", true}, {"margin-right", true},
			{"padding-left", false}, {"padding-right", false},
			{"border-left-width", false}, {"border-right-width", false},
		}
		for _, p := range props {
			v, ok := value(p.allowAuto)
			if !ok {
				return
			}
			values[p.name] = v
		}
		cw, err := fz.GetUint16()
		if err != nil {
			return
		}

		d := layoutSingle(t, values, float64(cw))
		assert.InDelta(t, float64(cw), marginBoxWidth(d), 1e-6)
		assert.GreaterOrEqual(t, d.Content.Width, 0.0)
	})
}

// -- Position, children and height --

func TestBlockPosition(t *testing.T) {
	root := elem("div", style.PropertyMap{
		"display":          block,
		"margin":           px(10),
		"border-top-width": px(2),
		"border-width":     px(1),
		"padding":          px(4),
		"padding-top":      px(6),
	})
	containing := Dimensions{Content: Rect{X: 100, Y: 50, Width: 800, Height: 600}}

	box, err := LayoutTree(root, containing)
	require.NoError(t, err)

	// Height is reset, so the box starts at the containing block's top edge.
	assert.InDelta(t, 100+10+1+4, box.Dimensions.Content.X, epsilon)
	assert.InDelta(t, 50+10+2+6, box.Dimensions.Content.Y, epsilon)
	assert.Equal(t, EdgeSizes{Left: 1, Right: 1, Top: 2, Bottom: 1}, box.Dimensions.Border)
	assert.Equal(t, EdgeSizes{Left: 4, Right: 4, Top: 6, Bottom: 4}, box.Dimensions.Padding)
}

func TestBlockChildrenStackVertically(t *testing.T) {
	first := elem("div", style.PropertyMap{"display": block, "height": px(50), "margin": px(10)})
	second := elem("div", style.PropertyMap{"display": block, "height": px(30), "padding-top": px(5)})
	root := elem("body", style.PropertyMap{"display": block, "padding": px(8)}, first, second)

	box, err := LayoutTree(root, viewport(800))
	require.NoError(t, err)
	require.Len(t, box.Children, 2)

	a, b := box.Children[0].Dimensions, box.Children[1].Dimensions

	assert.InDelta(t, 8+10, a.Content.Y, epsilon)
	assert.InDelta(t, 8+10, a.Content.X, epsilon)
	assert.InDelta(t, 800-16-20, a.Content.Width, epsilon)

	// The second child starts below the first child's margin box.
	assert.InDelta(t, 8+70+5, b.Content.Y, epsilon)
	assert.InDelta(t, 800-16, b.Content.Width, epsilon)

	// Parent height accumulates margin-box heights.
	assert.InDelta(t, 70+35, box.Dimensions.Content.Height, epsilon)
}

func TestBlockHeight_ExplicitOverridesChildren(t *testing.T) {
	tall := elem("div", style.PropertyMap{"display": block, "height": px(500)})
	root := elem("div", style.PropertyMap{"display": block, "height": px(40)}, tall)

	box, err := LayoutTree(root, viewport(800))
	require.NoError(t, err)
	assert.InDelta(t, 40, box.Dimensions.Content.Height, epsilon)
	assert.InDelta(t, 500, box.Children[0].Dimensions.Content.Height, epsilon)
}

func TestBlockHeight_NonLengthIsIgnored(t *testing.T) {
	child := elem("div", style.PropertyMap{"display": block, "height": px(25)})
	root := elem("div", style.PropertyMap{"display": block, "height": auto}, child)

	box, err := LayoutTree(root, viewport(800))
	require.NoError(t, err)
	assert.InDelta(t, 25, box.Dimensions.Content.Height, epsilon)
}

func TestInlineAndAnonymousBoxesKeepZeroGeometry(t *testing.T) {
	root := elem("p", style.PropertyMap{"display": block, "width": px(100)},
		text("hello"),
		elem("span", style.PropertyMap{"width": px(50)}),
	)

	box, err := LayoutTree(root, viewport(800))
	require.NoError(t, err)
	require.Len(t, box.Children, 1)

	anon := box.Children[0]
	assert.Equal(t, AnonymousBlock, anon.BoxType)
	assert.Equal(t, Dimensions{}, anon.Dimensions)
	for _, c := range anon.Children {
		assert.Equal(t, Dimensions{}, c.Dimensions)
	}
	assert.InDelta(t, 0, box.Dimensions.Content.Height, epsilon)
}

// -- Layout tree construction --

func boxTypes(boxes []*LayoutBox) []BoxType {
	out := make([]BoxType, len(boxes))
	for i, b := range boxes {
		out[i] = b.BoxType
	}
	return out
}

func TestBuildLayoutTree_GroupsInlineRuns(t *testing.T) {
	root := elem("div", style.PropertyMap{"display": block},
		text("a"),
		elem("em", nil),
		elem("p", style.PropertyMap{"display": block}),
		elem("span", nil),
		elem("script", style.PropertyMap{"display": none}),
		elem("b", nil),
	)

	box, err := BuildLayoutTree(root)
	require.NoError(t, err)

	assert.Equal(t, []BoxType{AnonymousBlock, BlockNode, AnonymousBlock}, boxTypes(box.Children))
	assert.Equal(t, []BoxType{InlineNode, InlineNode}, boxTypes(box.Children[0].Children))
	// The display: none sibling is dropped and does not split the inline run.
	assert.Equal(t, []BoxType{InlineNode, InlineNode}, boxTypes(box.Children[2].Children))

	sn, err := box.Children[2].Children[1].StyleNode()
	require.NoError(t, err)
	assert.Equal(t, "b", sn.Node.TagName())
}

func TestBuildLayoutTree_InlineParentHoldsChildrenDirectly(t *testing.T) {
	root := elem("div", style.PropertyMap{"display": block},
		elem("span", nil,
			text("x"),
			elem("div", style.PropertyMap{"display": block}),
			elem("i", nil),
		),
	)

	box, err := BuildLayoutTree(root)
	require.NoError(t, err)
	require.Len(t, box.Children, 1)

	span := box.Children[0].Children[0]
	assert.Equal(t, InlineNode, span.BoxType)
	assert.Equal(t, []BoxType{InlineNode, BlockNode, InlineNode}, boxTypes(span.Children))
}

func TestBuildLayoutTree_DisplayNonePrunesSubtree(t *testing.T) {
	hidden := elem("div", style.PropertyMap{"display": none},
		elem("p", style.PropertyMap{"display": block}),
	)
	root := elem("div", style.PropertyMap{"display": block}, hidden, elem("p", style.PropertyMap{"display": block}))

	box, err := BuildLayoutTree(root)
	require.NoError(t, err)
	require.Len(t, box.Children, 1)
	assert.Nil(t, FindBox(box, hidden.Node))
	assert.Nil(t, FindBox(box, hidden.Children[0].Node))
}

func TestBuildLayoutTree_InlineRoot(t *testing.T) {
	box, err := LayoutTree(elem("span", nil, text("x")), viewport(800))
	require.NoError(t, err)
	assert.Equal(t, InlineNode, box.BoxType)
	assert.Equal(t, Dimensions{}, box.Dimensions)
}

// -- Errors --

func TestLayoutErrors(t *testing.T) {
	t.Run("Root with display none", func(t *testing.T) {
		box, err := LayoutTree(elem("html", style.PropertyMap{"display": none}), viewport(800))
		assert.Nil(t, box)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoVisualDocument)
		assert.Equal(t, KindNoVisualDocument, KindOf(err))

		var le *Error
		require.True(t, errors.As(err, &le))
		assert.Equal(t, "BuildLayoutTree", le.Op)
	})

	t.Run("Anonymous block has no style node", func(t *testing.T) {
		anon := newLayoutBox(AnonymousBlock, nil)
		sn, err := anon.StyleNode()
		assert.Nil(t, sn)
		assert.ErrorIs(t, err, ErrInvariantViolation)
		assert.Equal(t, KindInvariantViolation, KindOf(err))
	})

	t.Run("Anonymous block cannot be a layout root", func(t *testing.T) {
		err := newLayoutBox(AnonymousBlock, nil).Layout(viewport(800))
		assert.ErrorIs(t, err, ErrInvariantViolation)
	})

	t.Run("Nil style tree", func(t *testing.T) {
		_, err := BuildLayoutTree(nil)
		assert.ErrorIs(t, err, ErrInvariantViolation)
	})

	t.Run("Unrelated errors have no kind", func(t *testing.T) {
		assert.Equal(t, ErrorKind(""), KindOf(errors.New("boom")))
	})
}
