package style

import (
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxflow/internal/browser/dom"
	"github.com/xkilldash9x/boxflow/internal/browser/parser"
)

const selectorFixture = `<html><body>
	<div id="main" class="card wide">
		<p class="lead">Intro</p>
		<p id="second" class="lead wide">More</p>
		<span class="wide">x</span>
	</div>
	<section class="card"><p>Tail</p></section>
</body></html>`

// parseSelector parses a single simple selector through the stylesheet parser.
func parseSelector(t *testing.T, sel string) parser.Selector {
	t.Helper()
	sheet, err := parser.Parse([]byte(sel + " {}"))
	require.NoError(t, err)
	require.Len(t, sheet.Rules, 1)
	require.Len(t, sheet.Rules[0].Selectors, 1)
	return sheet.Rules[0].Selectors[0]
}

// htmlElements returns every element in the fixture paired with its converted node.
func htmlElements(t *testing.T, src string) map[*html.Node]*dom.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)

	out := make(map[*html.Node]*dom.Node)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			out[n] = dom.FromHTML(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

// TestMatches_AgreesWithCascadia checks the matcher against an independent
// selector engine for every element in the fixture.
func TestMatches_AgreesWithCascadia(t *testing.T) {
	elements := htmlElements(t, selectorFixture)
	selectors := []string{
		"*", "p", "div", "section", "#main", "#second", "#missing",
		".lead", ".wide", ".card", ".lead.wide", "p.lead", "p#second.lead",
		"span.lead", "div#main.card.wide", "*.card",
	}

	for _, raw := range selectors {
		t.Run(raw, func(t *testing.T) {
			ours := parseSelector(t, raw)
			oracle := cascadia.MustCompile(raw)
			for hn, dn := range elements {
				assert.Equal(t, oracle.Match(hn), Matches(dn, ours),
					"selector %q on <%s class=%q>", raw, dn.TagName(), dn.Element.Attributes["class"])
			}
		})
	}
}

func TestMatches(t *testing.T) {
	elem := dom.NewElement("div", dom.AttrMap{"id": "a", "class": "x y"})

	tests := []struct {
		name     string
		selector parser.SimpleSelector
		expected bool
	}{
		{"Universal", parser.SimpleSelector{}, true},
		{"Tag", parser.SimpleSelector{TagName: "div"}, true},
		{"Tag Mismatch", parser.SimpleSelector{TagName: "p"}, false},
		{"ID", parser.SimpleSelector{ID: "a"}, true},
		{"ID Mismatch", parser.SimpleSelector{ID: "b"}, false},
		{"All Classes", parser.SimpleSelector{Classes: []string{"y", "x"}}, true},
		{"Missing Class", parser.SimpleSelector{Classes: []string{"x", "z"}}, false},
		{"Everything", parser.SimpleSelector{TagName: "div", ID: "a", Classes: []string{"x"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Matches(elem, tt.selector))
			assert.Equal(t, tt.expected, Matches(elem, &tt.selector))
		})
	}

	t.Run("Element without id attribute", func(t *testing.T) {
		assert.False(t, Matches(dom.NewElement("div", nil), parser.SimpleSelector{ID: "a"}))
	})

	t.Run("Text nodes never match", func(t *testing.T) {
		assert.False(t, Matches(dom.NewText("hi"), parser.SimpleSelector{}))
	})
}
