// Package value implements the runtime values of the stylesheet language: their
// arithmetic, comparison and CSS serialization.
package value

import (
	"fmt"

	serrors "github.com/pipe01/sassy/errors"
)

type Value interface {
	// Type is the name reported by type-of().
	Type() string
}

type Bool bool

const (
	True  = Bool(true)
	False = Bool(false)
)

func (Bool) Type() string {
	return "bool"
}

type Null struct{}

func (Null) Type() string {
	return "null"
}

// Function is a first-class reference to a callable, as returned by get-function().
type Function struct {
	Name string

	// Ref is the callable itself, owned by the evaluator.
	Ref any
}

func (*Function) Type() string {
	return "function"
}

// Truthy reports whether v counts as true in a condition: everything except
// false and null does.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Null, nil:
		return false
	}

	return true
}

func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok || v == nil
}

// Error is a failure of a value operation. It carries no position; the
// evaluator situates it at the expression that triggered it.
type Error struct {
	kind serrors.Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Kind() serrors.Kind {
	return e.kind
}

func newError(kind serrors.Kind, format string, args ...any) *Error {
	return &Error{
		kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func TypeErrorf(format string, args ...any) error {
	return newError(serrors.KindType, format, args...)
}

func ArgumentErrorf(format string, args ...any) error {
	return newError(serrors.KindArgument, format, args...)
}

func unitMismatch(a, b *Number) error {
	return newError(serrors.KindUnitMismatch, "incompatible units %s and %s", a.Units.Describe(), b.Units.Describe())
}

// Equal compares values structurally: numbers by converted magnitude, strings
// ignoring quotes, maps ignoring order.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case *Number:
		b, ok := b.(*Number)
		if !ok {
			return false
		}
		return a.Equal(b)

	case *String:
		b, ok := b.(*String)
		return ok && a.Text == b.Text

	case *Color:
		b, ok := b.(*Color)
		if !ok {
			return false
		}
		ar, ag, ab := a.RGB255()
		br, bg, bb := b.RGB255()
		return ar == br && ag == bg && ab == bb && fuzzyEqual(a.A, b.A)

	case Bool:
		b, ok := b.(Bool)
		return ok && a == b

	case Null:
		_, ok := b.(Null)
		return ok

	case *Map:
		switch b := b.(type) {
		case *Map:
			return a.Equal(b)
		case *List:
			return a.Len() == 0 && len(b.Items) == 0
		}
		return false

	case *Function:
		b, ok := b.(*Function)
		return ok && a.Name == b.Name

	case *List, *ArgList:
		al, asep, abr := listParts(a)

		switch b.(type) {
		case *List, *ArgList:
		case *Map:
			return len(al) == 0 && b.(*Map).Len() == 0
		default:
			return false
		}

		bl, bsep, bbr := listParts(b)
		if len(al) != len(bl) || abr != bbr {
			return false
		}
		if len(al) > 1 && asep != bsep {
			return false
		}

		for i := range al {
			if !Equal(al[i], bl[i]) {
				return false
			}
		}
		return true
	}

	return false
}

func listParts(v Value) ([]Value, Separator, bool) {
	switch v := v.(type) {
	case *List:
		return v.Items, v.Sep, v.Bracketed
	case *ArgList:
		return v.Items, v.Sep, false
	}

	return []Value{v}, SepUndecided, false
}
