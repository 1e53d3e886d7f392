// browser/parser/values.go
package parser

import (
	"fmt"
	"strconv"
)

// Unit is a length unit. Only pixels are supported.
type Unit int

const (
	Px Unit = iota
)

func (u Unit) String() string {
	switch u {
	case Px:
		return "px"
	default:
		return "unknown"
	}
}

// Value is a specified CSS value. The set of implementations is closed:
// Keyword, Length and ColorValue.
type Value interface {
	// ToPx returns the value in pixels. Non-length values are zero.
	ToPx() float64
	String() string
	isValue()
}

// Keyword is an identifier value such as "auto" or "block".
type Keyword string

func (Keyword) ToPx() float64    { return 0 }
func (k Keyword) String() string { return string(k) }
func (Keyword) isValue()         {}

// Length is a numeric value with a unit.
type Length struct {
	Value float64
	Unit  Unit
}

// Pixels is shorthand for a px Length.
func Pixels(v float64) Length {
	return Length{Value: v, Unit: Px}
}

func (l Length) ToPx() float64 {
	if l.Unit == Px {
		return l.Value
	}
	return 0
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit.String()
}

func (Length) isValue() {}

// ColorValue is an RGBA color.
type ColorValue struct {
	R, G, B, A uint8
}

func (ColorValue) ToPx() float64 { return 0 }

func (c ColorValue) String() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %d)", c.R, c.G, c.B, c.A)
}

func (ColorValue) isValue() {}

// IsKeyword reports whether v is the given keyword.
func IsKeyword(v Value, kw string) bool {
	k, ok := v.(Keyword)
	return ok && string(k) == kw
}

// parseHexColor decodes "rrggbb" or "rgb" (without the leading '#') into an
// opaque color.
func parseHexColor(hex string) (ColorValue, error) {
	expand := func(s string) (uint8, error) {
		n, err := strconv.ParseUint(s, 16, 8)
		return uint8(n), err
	}
	var parts [3]string
	switch len(hex) {
	case 6:
		parts = [3]string{hex[0:2], hex[2:4], hex[4:6]}
	case 3:
		parts = [3]string{
			string([]byte{hex[0], hex[0]}),
			string([]byte{hex[1], hex[1]}),
			string([]byte{hex[2], hex[2]}),
		}
	default:
		return ColorValue{}, fmt.Errorf("invalid hex color #%s", hex)
	}

	var rgb [3]uint8
	for i, p := range parts {
		v, err := expand(p)
		if err != nil {
			return ColorValue{}, fmt.Errorf("invalid hex color #%s: %w", hex, err)
		}
		rgb[i] = v
	}
	return ColorValue{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}
