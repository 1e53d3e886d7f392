// browser/parser/css.go
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Declaration is a single "name: value" pair.
type Declaration struct {
	Name  string
	Value Value
}

// Rule pairs a selector list with the declarations it applies.
type Rule struct {
	Selectors    []Selector
	Declarations []Declaration
}

// StyleSheet is an ordered list of rules. Order is significant for the cascade.
type StyleSheet struct {
	Rules []Rule
}

// Parser turns stylesheet text into a StyleSheet.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a parser. A nil logger disables logging.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse is a convenience wrapper around a parser without logging.
func Parse(data []byte) (StyleSheet, error) {
	return NewParser(nil).Parse(data)
}

// Parse reads every rule it can from data. Unsupported selectors, values and
// syntax errors are skipped and reported together in the returned error; the
// stylesheet holds everything that did parse. Within each rule, selectors are
// ordered from most to least specific.
func (p *Parser) Parse(data []byte) (StyleSheet, error) {
	var (
		sheet StyleSheet
		errs  error
	)

	input := parse.NewInput(bytes.NewReader(data))
	cp := css.NewParser(input, false)

	for {
		gt, _, data := cp.Next()

		switch gt {
		case css.ErrorGrammar:
			err := cp.Err()
			var perr *parse.Error
			if errors.As(err, &perr) {
				errs = multierr.Append(errs, fmt.Errorf("syntax error: %w", err))
				p.log.Debug("Skipping malformed CSS", zap.Error(err))
				continue
			}
			if err != nil && !errors.Is(err, io.EOF) {
				errs = multierr.Append(errs, err)
			}
			p.log.Debug("Parsed stylesheet",
				zap.Int("rules", len(sheet.Rules)),
				zap.Int("errors", len(multierr.Errors(errs))))
			return sheet, errs

		case css.BeginAtRuleGrammar:
			p.log.Debug("Skipping @-rule", zap.ByteString("rule", data))
			if eof := p.skipBlock(cp); eof {
				return sheet, errs
			}

		case css.AtRuleGrammar:
			p.log.Debug("Skipping @-rule", zap.ByteString("rule", data))

		case css.BeginRulesetGrammar:
			selectors, err := p.parseSelectors(data, cp.Values())
			errs = multierr.Append(errs, err)

			decls, eof, err := p.parseDeclarations(cp)
			errs = multierr.Append(errs, err)

			if len(selectors) > 0 {
				sheet.Rules = append(sheet.Rules, Rule{Selectors: selectors, Declarations: decls})
			}
			if eof {
				return sheet, errs
			}

		case css.QualifiedRuleGrammar, css.DeclarationGrammar:
			errs = multierr.Append(errs, fmt.Errorf("unexpected %s outside of a rule", gt))
		}
	}
}

// parseSelectors builds the selector list of a rule from the tokens preceding
// its opening brace.
func (p *Parser) parseSelectors(data []byte, values []css.Token) ([]Selector, error) {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	var (
		selectors []Selector
		errs      error
	)
	for _, raw := range strings.Split(sb.String(), ",") {
		raw = strings.TrimSpace(raw)
		sel, err := parseSimpleSelector(raw)
		if err != nil {
			errs = multierr.Append(errs, err)
			p.log.Debug("Skipping selector", zap.String("selector", raw), zap.Error(err))
			continue
		}
		selectors = append(selectors, sel)
	}

	sort.SliceStable(selectors, func(i, j int) bool {
		return selectors[j].Specificity().Less(selectors[i].Specificity())
	})
	return selectors, errs
}

// parseDeclarations consumes declarations up to the end of the current block.
// eof reports whether input ended before the block closed.
func (p *Parser) parseDeclarations(cp *css.Parser) (decls []Declaration, eof bool, errs error) {
	for {
		gt, _, data := cp.Next()

		switch gt {
		case css.ErrorGrammar:
			err := cp.Err()
			var perr *parse.Error
			if errors.As(err, &perr) {
				errs = multierr.Append(errs, fmt.Errorf("syntax error: %w", err))
				continue
			}
			return decls, true, errs

		case css.EndRulesetGrammar:
			return decls, false, errs

		case css.DeclarationGrammar:
			name := strings.ToLower(string(data))
			v, err := parseValue(cp.Values())
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("declaration %q: %w", name, err))
				p.log.Debug("Skipping declaration", zap.String("property", name), zap.Error(err))
				continue
			}
			decls = append(decls, Declaration{Name: name, Value: v})

		case css.BeginRulesetGrammar, css.BeginAtRuleGrammar:
			errs = multierr.Append(errs, errors.New("nested rules are not supported"))
			if p.skipBlock(cp) {
				return decls, true, errs
			}

		case css.CustomPropertyGrammar:
			p.log.Debug("Skipping custom property", zap.ByteString("property", data))
		}
	}
}

// skipBlock discards tokens until the block that was just opened is closed.
// It reports whether input ended first.
func (p *Parser) skipBlock(cp *css.Parser) bool {
	depth := 1
	for depth > 0 {
		gt, _, _ := cp.Next()
		switch gt {
		case css.ErrorGrammar:
			var perr *parse.Error
			if errors.As(cp.Err(), &perr) {
				continue
			}
			return true
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
	return false
}

// parseSimpleSelector accepts an optional tag name or "*", then any number of
// "#id" and ".class" parts.
func parseSimpleSelector(raw string) (SimpleSelector, error) {
	var sel SimpleSelector
	if raw == "" {
		return sel, errors.New("empty selector")
	}

	i := 0
	switch {
	case raw[0] == '*':
		i = 1
	case isIdentByte(raw[0]):
		n := identLen(raw)
		sel.TagName = raw[:n]
		i = n
	}

	for i < len(raw) {
		c := raw[i]
		switch c {
		case '#', '.':
			n := identLen(raw[i+1:])
			if n == 0 {
				return SimpleSelector{}, fmt.Errorf("selector %q: expected a name after %q", raw, c)
			}
			name := raw[i+1 : i+1+n]
			if c == '#' {
				if sel.ID != "" && sel.ID != name {
					return SimpleSelector{}, fmt.Errorf("selector %q: more than one id", raw)
				}
				sel.ID = name
			} else if !containsString(sel.Classes, name) {
				sel.Classes = append(sel.Classes, name)
			}
			i += 1 + n
		default:
			return SimpleSelector{}, fmt.Errorf("selector %q: unsupported syntax at %q", raw, raw[i:])
		}
	}
	return sel, nil
}

func isIdentByte(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c >= 0x80
}

func identLen(s string) int {
	n := 0
	for n < len(s) && isIdentByte(s[n]) {
		n++
	}
	return n
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// parseValue converts the tokens of one declaration into a Value. Only single
// component values are supported.
func parseValue(tokens []css.Token) (Value, error) {
	var parts []css.Token
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken || t.TokenType == css.CommentToken {
			continue
		}
		parts = append(parts, t)
	}
	if len(parts) == 0 {
		return nil, errors.New("missing value")
	}
	if len(parts) > 1 {
		var raw strings.Builder
		for _, t := range parts {
			raw.Write(t.Data)
		}
		return nil, fmt.Errorf("unsupported value %q", raw.String())
	}

	t := parts[0]
	text := string(t.Data)
	switch t.TokenType {
	case css.IdentToken:
		return Keyword(strings.ToLower(text)), nil
	case css.DimensionToken:
		num, unit := splitDimension(text)
		if unit != "px" {
			return nil, fmt.Errorf("unsupported unit in %q", text)
		}
		return Pixels(num), nil
	case css.NumberToken:
		num, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", text, err)
		}
		if num != 0 {
			return nil, fmt.Errorf("length %q is missing a unit", text)
		}
		return Pixels(0), nil
	case css.HashToken:
		return parseHexColor(strings.TrimPrefix(text, "#"))
	default:
		return nil, fmt.Errorf("unsupported value %q", text)
	}
}

// splitDimension separates "12.5px" into 12.5 and "px".
func splitDimension(s string) (float64, string) {
	end := 0
	for i, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' {
			end = i + 1
		} else {
			break
		}
	}
	if end == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:end], 64)
	return num, strings.ToLower(s[end:])
}
