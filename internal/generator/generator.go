// Package generator prints a resolved stylesheet as CSS text.
package generator

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/pipe01/sassy/internal/css"
	"github.com/pipe01/sassy/internal/value"
)

type Style int

const (
	// StyleExpanded prints one declaration per line with two-space indentation.
	StyleExpanded Style = iota
	// StyleCompressed prints as little whitespace as possible.
	StyleCompressed
)

func (s Style) String() string {
	switch s {
	case StyleExpanded:
		return "expanded"
	case StyleCompressed:
		return "compressed"
	}

	return "<unknown>"
}

// ParseStyle returns the style called name.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(name) {
	case "expanded", "":
		return StyleExpanded, nil
	case "compressed":
		return StyleCompressed, nil
	}

	return 0, fmt.Errorf("unknown output style %q", name)
}

// Generate writes sheet to w. Rules and at-rules that would print empty are
// left out.
func Generate(w io.Writer, sheet *css.Stylesheet, style Style) error {
	ctx := context{
		w: &outputWriter{
			w:          w,
			compressed: style == StyleCompressed,
		},
	}

	if err := ctx.visitTopLevel(sheet.Nodes); err != nil {
		return err
	}

	return ctx.w.err
}

type context struct {
	w *outputWriter
}

func (c *context) visitTopLevel(nodes []css.Node) error {
	first := true
	needSemi := false

	for _, n := range nodes {
		if css.IsEmpty(n) {
			continue
		}

		if !first {
			c.w.newLine()
		}
		first = false

		if needSemi {
			c.w.WriteSeparator()
		}

		semi, err := c.visitNode(n)
		if err != nil {
			return err
		}
		needSemi = semi
	}

	return nil
}

// visitNodes prints the children of a block. Statements are separated by
// semicolons in compressed output, with none after the last one.
func (c *context) visitNodes(nodes []css.Node) error {
	needSemi := false

	for _, n := range nodes {
		if css.IsEmpty(n) {
			continue
		}

		if needSemi {
			c.w.WriteSeparator()
		}

		semi, err := c.visitNode(n)
		if err != nil {
			return err
		}
		needSemi = semi
	}

	return nil
}

// visitNode prints n and reports whether it was a statement that needs a
// separator before the next one.
func (c *context) visitNode(n css.Node) (bool, error) {
	switch n := n.(type) {
	case *css.Rule:
		return false, c.visitBlock(n.Selector.Render(c.w.compressed), n.Nodes)

	case *css.Keyframe:
		return false, c.visitBlock(c.compressParams(n.Selector), n.Nodes)

	case *css.AtRule:
		header := "@" + n.Name
		if n.Params != "" {
			header += " " + c.compressParams(n.Params)
		}

		if !n.HasBlock {
			c.w.WriteStatement(header)
			return true, nil
		}

		return false, c.visitBlock(header, n.Nodes)

	case *css.Declaration:
		return true, c.visitDeclaration(n)

	case *css.Comment:
		c.w.WriteComment(n.Text)
		return false, nil
	}

	return false, fmt.Errorf("unknown node type %s", reflect.ValueOf(n).String())
}

func (c *context) visitBlock(header string, nodes []css.Node) error {
	c.w.WriteBlockStart(header)

	if err := c.visitNodes(nodes); err != nil {
		return err
	}

	c.w.WriteBlockEnd()
	return nil
}

func (c *context) visitDeclaration(d *css.Declaration) error {
	var text string

	if s, ok := d.Value.(*value.String); ok && d.Custom {
		text = s.Text
	} else {
		var err error
		if text, err = value.ToCSS(d.Value, c.w.compressed); err != nil {
			return fmt.Errorf("property %q: %w", d.Name, err)
		}
	}

	c.w.WriteDeclaration(d.Name, text, d.Important)
	return nil
}

func (c *context) compressParams(params string) string {
	if !c.w.compressed {
		return params
	}

	var b strings.Builder
	b.Grow(len(params))

	var quote byte
	for i := 0; i < len(params); i++ {
		ch := params[i]

		switch {
		case quote != 0:
			if ch == '\\' && i+1 < len(params) {
				b.WriteByte(ch)
				i++
				ch = params[i]
			} else if ch == quote {
				quote = 0
			}

		case ch == '"' || ch == '\'':
			quote = ch

		case (ch == ':' || ch == ',') && i+1 < len(params) && params[i+1] == ' ':
			b.WriteByte(ch)
			i++
			continue
		}

		b.WriteByte(ch)
	}

	return b.String()
}
