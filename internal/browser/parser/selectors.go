// browser/parser/selectors.go
package parser

import (
	"cmp"
	"strings"
)

// Specificity is the (id, class, tag) weight of a selector. Values compare
// lexicographically.
type Specificity struct {
	A int // id selectors
	B int // class selectors
	C int // type selectors
}

// Compare returns -1, 0 or +1 depending on whether s sorts before, equal to,
// or after o.
func (s Specificity) Compare(o Specificity) int {
	if c := cmp.Compare(s.A, o.A); c != 0 {
		return c
	}
	if c := cmp.Compare(s.B, o.B); c != 0 {
		return c
	}
	return cmp.Compare(s.C, o.C)
}

// Less reports whether s is strictly less specific than o.
func (s Specificity) Less(o Specificity) bool {
	return s.Compare(o) < 0
}

// Selector is a parsed CSS selector. SimpleSelector is the only variant.
type Selector interface {
	Specificity() Specificity
	String() string
	isSelector()
}

// SimpleSelector matches on tag name, id and a set of classes. Empty fields
// are unconstrained; the zero value is the universal selector.
type SimpleSelector struct {
	TagName string
	ID      string
	Classes []string
}

func (SimpleSelector) isSelector() {}

// Specificity implements Selector.
func (s SimpleSelector) Specificity() Specificity {
	var sp Specificity
	if s.ID != "" {
		sp.A = 1
	}
	sp.B = len(s.Classes)
	if s.TagName != "" {
		sp.C = 1
	}
	return sp
}

func (s SimpleSelector) String() string {
	var sb strings.Builder
	sb.WriteString(s.TagName)
	if s.ID != "" {
		sb.WriteByte('#')
		sb.WriteString(s.ID)
	}
	for _, c := range s.Classes {
		sb.WriteByte('.')
		sb.WriteString(c)
	}
	if sb.Len() == 0 {
		return "*"
	}
	return sb.String()
}
