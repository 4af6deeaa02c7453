package errors

import (
	goerrors "errors"
	"fmt"
)

// Kind classifies a compilation failure.
type Kind int

const (
	KindLex Kind = iota
	KindParse
	KindUnitMismatch
	KindInvalidUnitResult
	KindType
	KindArgument
	KindUndefined
	KindImport
	KindSelector
	KindSerialization
	KindRecursionLimit
	KindUser
)

func (k Kind) String() string {
	switch k {
	case KindLex:
		return "LexError"
	case KindParse:
		return "ParseError"
	case KindUnitMismatch:
		return "UnitMismatch"
	case KindInvalidUnitResult:
		return "InvalidUnitResult"
	case KindType:
		return "TypeError"
	case KindArgument:
		return "ArgumentError"
	case KindUndefined:
		return "UndefinedError"
	case KindImport:
		return "ImportError"
	case KindSelector:
		return "SelectorError"
	case KindSerialization:
		return "SerializationError"
	case KindRecursionLimit:
		return "RecursionLimit"
	case KindUser:
		return "UserError"
	}

	return "<unknown>"
}

// Kinded is implemented by errors that know which Kind they belong to.
type Kinded interface {
	Kind() Kind
}

// KindOf returns the kind of the first error in err's chain that carries one,
// falling back to def.
func KindOf(err error, def Kind) Kind {
	var k Kinded
	if goerrors.As(err, &k) {
		return k.Kind()
	}

	return def
}

// CompileError is the single error surfaced by a failed compilation.
type CompileError struct {
	Kind    Kind
	Message string

	File string
	// 1-based
	Line, Column int
	// 0-based byte offset into the file
	Offset int

	Err error
}

func (e *CompileError) Error() string {
	if e.File == "" && e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}

	return fmt.Sprintf("%s: %s at %s:%d:%d", e.Kind, e.Message, e.File, e.Line, e.Column)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
