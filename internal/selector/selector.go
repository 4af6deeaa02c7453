// Package selector parses style rule selectors and implements nesting
// resolution and @extend.
package selector

import (
	"fmt"
	"strings"

	serrors "github.com/pipe01/sassy/errors"
)

type Combinator int

const (
	CombDescendant Combinator = iota
	CombChild
	CombNext
	CombSibling
)

func (c Combinator) String() string {
	switch c {
	case CombChild:
		return ">"
	case CombNext:
		return "+"
	case CombSibling:
		return "~"
	}

	return " "
}

type SimpleKind int

const (
	// SimpleType is an element name or the universal selector.
	SimpleType SimpleKind = iota
	SimpleClass
	SimpleID
	SimplePlaceholder
	SimpleAttribute
	SimplePseudo
	// SimpleParent is "&", with Text holding an optional suffix.
	SimpleParent
)

type Simple struct {
	Kind SimpleKind

	// Text is the selector as written, e.g. ".a", "[href]" or "::before".
	Text string
}

func (s Simple) String() string {
	if s.Kind == SimpleParent {
		return "&" + s.Text
	}

	return s.Text
}

type Compound []Simple

func (c Compound) String() string {
	var b strings.Builder
	for _, s := range c {
		b.WriteString(s.String())
	}
	return b.String()
}

func (c Compound) contains(s Simple) bool {
	for _, o := range c {
		if o == s {
			return true
		}
	}

	return false
}

func (c Compound) typeIndex() int {
	for i, s := range c {
		if s.Kind == SimpleType {
			return i
		}
	}

	return -1
}

// Component is a compound selector together with the combinator that joins it
// to the previous one. On the first component of a complex selector a
// non-descendant combinator is a leading combinator, as in "> .a".
type Component struct {
	Comb     Combinator
	Compound Compound
}

type Complex []Component

func (c Complex) render(compressed bool) string {
	var b strings.Builder

	for i, comp := range c {
		switch {
		case comp.Comb != CombDescendant:
			if i > 0 && !compressed {
				b.WriteByte(' ')
			}
			b.WriteString(comp.Comb.String())
			if !compressed {
				b.WriteByte(' ')
			}

		case i > 0:
			b.WriteByte(' ')
		}

		b.WriteString(comp.Compound.String())
	}

	return b.String()
}

func (c Complex) String() string {
	return c.render(false)
}

func (c Complex) hasParent() bool {
	for _, comp := range c {
		for _, s := range comp.Compound {
			if s.Kind == SimpleParent {
				return true
			}
		}
	}

	return false
}

func (c Complex) hasPlaceholder() bool {
	for _, comp := range c {
		for _, s := range comp.Compound {
			if s.Kind == SimplePlaceholder {
				return true
			}
		}
	}

	return false
}

func (c Complex) clone() Complex {
	ret := make(Complex, len(c))
	for i, comp := range c {
		ret[i] = Component{
			Comb:     comp.Comb,
			Compound: append(Compound{}, comp.Compound...),
		}
	}
	return ret
}

// List is a comma-separated selector list.
type List []Complex

// Render prints l as it appears in a style rule.
func (l List) Render(compressed bool) string {
	parts := make([]string, len(l))
	for i, c := range l {
		parts[i] = c.render(compressed)
	}

	if compressed {
		return strings.Join(parts, ",")
	}
	return strings.Join(parts, ", ")
}

func (l List) String() string {
	return l.Render(false)
}

// HasParent reports whether any complex selector of l uses "&".
func (l List) HasParent() bool {
	return l.hasParent()
}

func (l List) hasParent() bool {
	for _, c := range l {
		if c.hasParent() {
			return true
		}
	}

	return false
}

// WithoutPlaceholders drops every complex selector that mentions a placeholder.
func (l List) WithoutPlaceholders() List {
	ret := make(List, 0, len(l))
	for _, c := range l {
		if !c.hasPlaceholder() {
			ret = append(ret, c)
		}
	}
	return ret
}

// Resolve returns the selector of a rule written as l nested inside a rule
// whose selector is parent. A nil parent means l is at the top level.
func (l List) Resolve(parent List) (List, error) {
	if parent == nil {
		if l.hasParent() {
			return nil, Errorf("top-level selectors may not contain the parent selector \"&\"")
		}
		return l, nil
	}

	if !l.hasParent() {
		ret := make(List, 0, len(parent)*len(l))
		for _, p := range parent {
			for _, c := range l {
				ret = append(ret, concat(p, c))
			}
		}
		return ret, nil
	}

	var ret List

	for _, c := range l {
		if !c.hasParent() {
			for _, p := range parent {
				ret = append(ret, concat(p, c))
			}
			continue
		}

		resolved, err := resolveParent(c, parent)
		if err != nil {
			return nil, err
		}
		ret = append(ret, resolved...)
	}

	return ret, nil
}

func concat(a, b Complex) Complex {
	ret := make(Complex, 0, len(a)+len(b))
	ret = append(ret, a.clone()...)
	ret = append(ret, b.clone()...)
	return ret
}

// resolveParent substitutes every "&" in c with each alternative of parent.
func resolveParent(c Complex, parent List) ([]Complex, error) {
	results := []Complex{{}}

	for _, comp := range c {
		if len(comp.Compound) == 0 || comp.Compound[0].Kind != SimpleParent {
			for i := range results {
				results[i] = append(results[i], Component{
					Comb:     comp.Comb,
					Compound: append(Compound{}, comp.Compound...),
				})
			}
			continue
		}

		next := make([]Complex, 0, len(results)*len(parent))

		for _, r := range results {
			for _, p := range parent {
				sub, err := substitute(p, comp)
				if err != nil {
					return nil, err
				}

				next = append(next, append(append(Complex{}, r...), sub...))
			}
		}

		results = next
	}

	return results, nil
}

func substitute(parent Complex, comp Component) (Complex, error) {
	ret := parent.clone()
	last := &ret[len(ret)-1]

	if suffix := comp.Compound[0].Text; suffix != "" {
		end := len(last.Compound) - 1

		switch last.Compound[end].Kind {
		case SimpleType, SimpleClass, SimpleID, SimplePlaceholder:
			if last.Compound[end].Text == "*" {
				return nil, Errorf("invalid parent selector %q for suffix %q", parent.String(), suffix)
			}
			last.Compound[end].Text += suffix
		default:
			return nil, Errorf("invalid parent selector %q for suffix %q", parent.String(), suffix)
		}
	}

	last.Compound = append(last.Compound, comp.Compound[1:]...)

	if comp.Comb != CombDescendant {
		ret[0].Comb = comp.Comb
	}

	return ret, nil
}

// Error is a malformed selector or an invalid use of one.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Kind() serrors.Kind {
	return serrors.KindSelector
}

func Errorf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}
