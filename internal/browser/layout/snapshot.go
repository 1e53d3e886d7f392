// internal/browser/layout/snapshot.go
package layout

import (
	"fmt"
	"io"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/xkilldash9x/boxflow/internal/browser/dom"
	"gopkg.in/yaml.v3"
)

// Snapshot is a serializable copy of a positioned layout tree.
type Snapshot struct {
	Type     string     `json:"type" yaml:"type"`
	Tag      string     `json:"tag,omitempty" yaml:"tag,omitempty"`
	XPath    string     `json:"xpath,omitempty" yaml:"xpath,omitempty"`
	Text     string     `json:"text,omitempty" yaml:"text,omitempty"`
	Content  Rect       `json:"content" yaml:"content"`
	Padding  EdgeSizes  `json:"padding" yaml:"padding"`
	Border   EdgeSizes  `json:"border" yaml:"border"`
	Margin   EdgeSizes  `json:"margin" yaml:"margin"`
	Children []Snapshot `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewSnapshot captures root and its descendants.
func NewSnapshot(root *LayoutBox) Snapshot {
	var paths map[*dom.Node]string
	if root != nil && root.styledNode != nil {
		paths = dom.UniqueXPaths(root.styledNode.Node)
	}
	return snapshotBox(root, paths)
}

func snapshotBox(b *LayoutBox, paths map[*dom.Node]string) Snapshot {
	if b == nil {
		return Snapshot{}
	}
	s := Snapshot{
		Type:    b.BoxType.String(),
		Content: b.Dimensions.Content,
		Padding: b.Dimensions.Padding,
		Border:  b.Dimensions.Border,
		Margin:  b.Dimensions.Margin,
	}
	if b.styledNode != nil {
		n := b.styledNode.Node
		if n.IsElement() {
			s.Tag = n.TagName()
			s.XPath = paths[n]
		} else {
			s.Text = n.Text
		}
	}
	for _, c := range b.Children {
		s.Children = append(s.Children, snapshotBox(c, paths))
	}
	return s
}

// Format selects a snapshot encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, yaml or text)", s)
	}
}

// Write encodes the snapshot to w.
func (s Snapshot) Write(w io.Writer, format Format) error {
	return writeEncoded(w, format, s, s.Dump)
}

// Write encodes the geometry to w. The text form is a single line.
func (g *ElementGeometry) Write(w io.Writer, format Format) error {
	return writeEncoded(w, format, g, func() string {
		c := g.Content
		return fmt.Sprintf("%s <%s> %s x=%g y=%g w=%g h=%g\n", g.BoxType, g.Tag, g.XPath, c.X, c.Y, c.Width, c.Height)
	})
}

func writeEncoded(w io.Writer, format Format, v any, text func() string) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %T as json: %w", v, err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode %T as yaml: %w", v, err)
		}
		return enc.Close()
	case FormatText:
		_, err := io.WriteString(w, text())
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Dump renders the snapshot as an indented outline, one box per line.
func (s Snapshot) Dump() string {
	var sb strings.Builder
	s.dump(&sb, 0)
	return sb.String()
}

func (s Snapshot) dump(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(s.Type)
	switch {
	case s.Tag != "":
		fmt.Fprintf(sb, " <%s>", s.Tag)
	case s.Text != "":
		fmt.Fprintf(sb, " %q", strings.TrimSpace(s.Text))
	}
	c := s.Content
	fmt.Fprintf(sb, " x=%g y=%g w=%g h=%g\n", c.X, c.Y, c.Width, c.Height)
	for _, child := range s.Children {
		child.dump(sb, depth+1)
	}
}
