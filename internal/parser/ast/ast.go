package ast

import (
	"strings"

	"github.com/pipe01/sassy/internal/lexer"
)

type Pos lexer.Location

func (p Pos) Position() lexer.Location {
	return lexer.Location(p)
}

type Node interface {
	Position() lexer.Location
}

type Stylesheet struct {
	Pos

	Name   string
	Syntax lexer.Syntax
	Nodes  []Node
}

// Interpolation is text with embedded expressions, as found in selectors,
// property names, at-rule parameters and strings.
type Interpolation struct {
	Pos

	Parts []InterpPart
}

// InterpPart is either literal text or, when Expr is set, an embedded expression.
type InterpPart struct {
	Text string
	Expr Expr
}

// Plain returns the text of the interpolation if it contains no expressions.
func (i *Interpolation) Plain() (string, bool) {
	var b strings.Builder

	for _, p := range i.Parts {
		if p.Expr != nil {
			return "", false
		}
		b.WriteString(p.Text)
	}

	return b.String(), true
}

func (i *Interpolation) IsEmpty() bool {
	return len(i.Parts) == 0
}

func (i *Interpolation) AddText(s string) {
	if s == "" {
		return
	}

	if n := len(i.Parts); n > 0 && i.Parts[n-1].Expr == nil {
		i.Parts[n-1].Text += s
		return
	}

	i.Parts = append(i.Parts, InterpPart{Text: s})
}

func (i *Interpolation) AddExpr(e Expr) {
	i.Parts = append(i.Parts, InterpPart{Expr: e})
}

// TrimSpace removes leading and trailing whitespace from the outer text parts.
func (i *Interpolation) TrimSpace() {
	if n := len(i.Parts); n > 0 && i.Parts[n-1].Expr == nil {
		i.Parts[n-1].Text = strings.TrimRight(i.Parts[n-1].Text, " \t\n")
		if i.Parts[n-1].Text == "" {
			i.Parts = i.Parts[:n-1]
		}
	}

	if len(i.Parts) > 0 && i.Parts[0].Expr == nil {
		i.Parts[0].Text = strings.TrimLeft(i.Parts[0].Text, " \t\n")
		if i.Parts[0].Text == "" {
			i.Parts = i.Parts[1:]
		}
	}
}

type NodeRule struct {
	Pos

	Selector Interpolation
	Nodes    []Node
}

type NodeDeclaration struct {
	Pos

	Name Interpolation
	// Value is nil for a bare nested-property block like "font: { ... }".
	Value     Expr
	Nodes     []Node
	Important bool

	// Custom is set for "--name" properties, whose value is kept as raw text.
	Custom bool
}

type NodeVariable struct {
	Pos

	Name    string
	Value   Expr
	Default bool
	Global  bool
}

type NodeAtRule struct {
	Pos

	Name   string
	Params Interpolation
	Nodes  []Node

	HasBlock bool
}

type NodeIf struct {
	Pos

	Clauses []IfClause
	Else    []Node
	HasElse bool
}

type IfClause struct {
	Cond  Expr
	Nodes []Node
}

type NodeEach struct {
	Pos

	Vars  []string
	List  Expr
	Nodes []Node
}

type NodeFor struct {
	Pos

	Var       string
	From, To  Expr
	Inclusive bool
	Nodes     []Node
}

type NodeWhile struct {
	Pos

	Cond  Expr
	Nodes []Node
}

type Param struct {
	Name    string
	Default Expr
}

type ParamList struct {
	Params []Param
	// Rest names the variadic parameter, if any.
	Rest string
}

type NodeMixinDef struct {
	Pos

	Name   string
	Params ParamList
	Nodes  []Node
}

type NodeFunctionDef struct {
	Pos

	Name   string
	Params ParamList
	Nodes  []Node
}

type NodeReturn struct {
	Pos

	Value Expr
}

type NamedArg struct {
	Name  string
	Value Expr
}

type ArgList struct {
	Positional []Expr
	Named      []NamedArg

	// Rest and KeywordRest hold "$args..." splats.
	Rest        Expr
	KeywordRest Expr
}

func (a *ArgList) IsEmpty() bool {
	return len(a.Positional) == 0 && len(a.Named) == 0 && a.Rest == nil && a.KeywordRest == nil
}

type ContentBlock struct {
	Pos

	Params ParamList
	Nodes  []Node
}

type NodeInclude struct {
	Pos

	Name    string
	Args    ArgList
	Content *ContentBlock
}

type NodeContent struct {
	Pos

	Args ArgList
}

type Import struct {
	Pos

	// Path is the literal import argument for stylesheet imports.
	Path string

	// Plain imports are emitted as a CSS @import with Raw as parameters.
	Plain bool
	Raw   Interpolation
}

type NodeImport struct {
	Pos

	Imports []Import
}

type NodeExtend struct {
	Pos

	Selector Interpolation
	Optional bool
}

type NodeComment struct {
	Pos

	Text string
}

type MessageKind int

const (
	MessageWarn MessageKind = iota
	MessageDebug
	MessageError
)

type NodeMessage struct {
	Pos

	Kind  MessageKind
	Value Expr
}

type NodeAtRoot struct {
	Pos

	// Selector is nil when the block's rules are hoisted as-is.
	Selector *Interpolation
	Nodes    []Node
}

type Expr interface {
	Node
	expr()
}

type ExprNumber struct {
	Pos

	// Value holds the literal digits, sign included.
	Value string
	Unit  string
}

func (ExprNumber) expr() {}

type ExprString struct {
	Pos

	Parts  Interpolation
	Quoted bool
}

func (ExprString) expr() {}

type ExprColor struct {
	Pos

	// Text is the hex literal including "#".
	Text string
}

func (ExprColor) expr() {}

type ExprVariable struct {
	Pos

	Name string
}

func (ExprVariable) expr() {}

type ExprBool struct {
	Pos

	Value bool
}

func (ExprBool) expr() {}

type ExprNull struct {
	Pos
}

func (ExprNull) expr() {}

type ListSep int

const (
	SepSpace ListSep = iota
	SepComma
	SepSlash
	SepUndecided
)

type ExprList struct {
	Pos

	Items     []Expr
	Sep       ListSep
	Bracketed bool
}

func (ExprList) expr() {}

type ExprMap struct {
	Pos

	Keys, Values []Expr
}

func (ExprMap) expr() {}

type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNot
	OpNeg
	OpPos
)

func (o Op) String() string {
	switch o {
	case OpAdd, OpPos:
		return "+"
	case OpSub, OpNeg:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	}

	return "<unknown>"
}

type ExprBinary struct {
	Pos

	Op          Op
	Left, Right Expr
}

func (ExprBinary) expr() {}

type ExprUnary struct {
	Pos

	Op      Op
	Operand Expr
}

func (ExprUnary) expr() {}

type ExprParen struct {
	Pos

	Inner Expr
}

func (ExprParen) expr() {}

type ExprCall struct {
	Pos

	Name string
	Args ArgList
}

func (ExprCall) expr() {}

// ExprSpecialFunc is a CSS function such as calc() whose arguments are kept as text.
type ExprSpecialFunc struct {
	Pos

	Name string
	Args Interpolation
}

func (ExprSpecialFunc) expr() {}

// ExprParent is "&" used as a value.
type ExprParent struct {
	Pos
}

func (ExprParent) expr() {}
