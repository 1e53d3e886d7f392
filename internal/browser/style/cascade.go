// internal/browser/style/cascade.go
package style

import (
	"sort"

	"github.com/xkilldash9x/boxflow/internal/browser/dom"
	"github.com/xkilldash9x/boxflow/internal/browser/parser"
)

// Matches reports whether the element satisfies the selector. Non-element
// nodes never match.
func Matches(node *dom.Node, selector parser.Selector) bool {
	if !node.IsElement() {
		return false
	}
	switch sel := selector.(type) {
	case parser.SimpleSelector:
		return matchesSimple(node.Element, sel)
	case *parser.SimpleSelector:
		return sel != nil && matchesSimple(node.Element, *sel)
	default:
		return false
	}
}

func matchesSimple(elem dom.ElementData, selector parser.SimpleSelector) bool {
	if selector.TagName != "" && selector.TagName != elem.TagName {
		return false
	}
	if selector.ID != "" {
		if id, ok := elem.ID(); !ok || id != selector.ID {
			return false
		}
	}
	for _, required := range selector.Classes {
		if !elem.HasClass(required) {
			return false
		}
	}
	return true
}

// MatchedRule is a rule that applies to an element, weighted by the
// specificity of the first of its selectors that matched.
type MatchedRule struct {
	Specificity parser.Specificity
	Rule        *parser.Rule
}

// matchRule returns the rule weighted by its first matching selector.
func matchRule(node *dom.Node, rule *parser.Rule) (MatchedRule, bool) {
	for _, sel := range rule.Selectors {
		if Matches(node, sel) {
			return MatchedRule{Specificity: sel.Specificity(), Rule: rule}, true
		}
	}
	return MatchedRule{}, false
}

// MatchingRules returns every rule in the sheet that applies to the element,
// in stylesheet order.
func MatchingRules(node *dom.Node, sheet parser.StyleSheet) []MatchedRule {
	var matched []MatchedRule
	for i := range sheet.Rules {
		if m, ok := matchRule(node, &sheet.Rules[i]); ok {
			matched = append(matched, m)
		}
	}
	return matched
}

// SpecifiedValues runs the cascade for one element. Matched rules are applied
// from least to most specific; the sort is stable so that among rules of equal
// specificity the later one in the stylesheet wins. Within a rule, later
// declarations overwrite earlier ones.
func SpecifiedValues(node *dom.Node, sheet parser.StyleSheet) PropertyMap {
	values := make(PropertyMap)
	rules := MatchingRules(node, sheet)

	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Specificity.Less(rules[j].Specificity)
	})

	for _, m := range rules {
		for _, decl := range m.Rule.Declarations {
			values[decl.Name] = decl.Value
		}
	}
	return values
}
