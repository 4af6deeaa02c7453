package evaluator

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/exp/slices"

	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/parser/ast"
	"github.com/pipe01/sassy/internal/value"
)

func normalizeName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

func (c *context) eval(e ast.Expr) (value.Value, error) {
	switch e := e.(type) {
	case *ast.ExprNumber:
		n, err := value.ParseNumber(e.Value, e.Unit)
		if err != nil {
			return nil, c.situate(err, e)
		}
		return n, nil

	case *ast.ExprColor:
		if col, ok := value.ParseHex(e.Text); ok {
			return col, nil
		}
		return value.Unquoted(e.Text), nil

	case *ast.ExprString:
		return c.evalString(e)

	case *ast.ExprVariable:
		v, ok := c.scope.lookup(e.Name)
		if !ok {
			return nil, c.situate(failf(serrors.KindUndefined, "undefined variable $%s", e.Name), e)
		}
		return v, nil

	case *ast.ExprBool:
		return value.Bool(e.Value), nil

	case *ast.ExprNull:
		return value.Null{}, nil

	case *ast.ExprList:
		items := make([]value.Value, len(e.Items))
		for i, item := range e.Items {
			v, err := c.eval(item)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}

		return &value.List{
			Items:     items,
			Sep:       separator(e.Sep),
			Bracketed: e.Bracketed,
		}, nil

	case *ast.ExprMap:
		return c.evalMap(e)

	case *ast.ExprParen:
		v, err := c.eval(e.Inner)
		if err != nil {
			return nil, err
		}
		return withoutSlash(v), nil

	case *ast.ExprBinary:
		return c.evalBinary(e)

	case *ast.ExprUnary:
		return c.evalUnary(e)

	case *ast.ExprCall:
		return c.evalCall(e)

	case *ast.ExprSpecialFunc:
		text, err := c.interpolate(&e.Args)
		if err != nil {
			return nil, err
		}
		return value.Unquoted(e.Name + "(" + text + ")"), nil

	case *ast.ExprParent:
		return c.parentValue(), nil
	}

	return nil, fmt.Errorf("unknown expression type %s", reflect.ValueOf(e).String())
}

func separator(s ast.ListSep) value.Separator {
	switch s {
	case ast.SepComma:
		return value.SepComma
	case ast.SepSlash:
		return value.SepSlash
	case ast.SepUndecided:
		return value.SepUndecided
	}

	return value.SepSpace
}

// interpolate evaluates i to text. Embedded strings lose their quotes and
// null prints as nothing.
func (c *context) interpolate(i *ast.Interpolation) (string, error) {
	var b strings.Builder

	for _, p := range i.Parts {
		if p.Expr == nil {
			b.WriteString(p.Text)
			continue
		}

		v, err := c.eval(p.Expr)
		if err != nil {
			return "", err
		}
		b.WriteString(value.Plain(v))
	}

	return b.String(), nil
}

func (c *context) evalString(e *ast.ExprString) (value.Value, error) {
	text, err := c.interpolate(&e.Parts)
	if err != nil {
		return nil, err
	}

	if e.Quoted {
		return value.Quoted(text), nil
	}

	if _, plain := e.Parts.Plain(); plain {
		if col, ok := value.ParseNamed(text); ok {
			return col, nil
		}
	}

	return value.Unquoted(text), nil
}

func (c *context) evalMap(e *ast.ExprMap) (value.Value, error) {
	m := &value.Map{}

	for i := range e.Keys {
		k, err := c.eval(e.Keys[i])
		if err != nil {
			return nil, err
		}

		if _, dup := m.Get(k); dup {
			return nil, c.situate(value.TypeErrorf("duplicate key %s", value.Inspect(k)), e.Keys[i])
		}

		v, err := c.eval(e.Values[i])
		if err != nil {
			return nil, err
		}

		m = m.With(k, v)
	}

	return m, nil
}

// isLiteralNumber reports whether e is a number literal or a slash made of
// them, such as the "16px/1.5" in a font shorthand.
func isLiteralNumber(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.ExprNumber:
		return true
	case *ast.ExprBinary:
		return e.Op == ast.OpDiv && isLiteralNumber(e.Left) && isLiteralNumber(e.Right)
	}
	return false
}

func (c *context) evalBinary(e *ast.ExprBinary) (value.Value, error) {
	left, err := c.eval(e.Left)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpAnd:
		if !value.Truthy(left) {
			return left, nil
		}
		return c.eval(e.Right)

	case ast.OpOr:
		if value.Truthy(left) {
			return left, nil
		}
		return c.eval(e.Right)
	}

	right, err := c.eval(e.Right)
	if err != nil {
		return nil, err
	}

	var res value.Value

	switch e.Op {
	case ast.OpEq:
		return value.Bool(value.Equal(left, right)), nil

	case ast.OpNe:
		return value.Bool(!value.Equal(left, right)), nil

	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		cmp, err := value.Compare(left, right, e.Op.String())
		if err != nil {
			return nil, c.situate(err, e)
		}

		switch e.Op {
		case ast.OpLt:
			return value.Bool(cmp < 0), nil
		case ast.OpLe:
			return value.Bool(cmp <= 0), nil
		case ast.OpGt:
			return value.Bool(cmp > 0), nil
		}
		return value.Bool(cmp >= 0), nil

	case ast.OpAdd:
		res, err = value.Add(left, right)

	case ast.OpSub:
		res, err = value.Sub(left, right)

	case ast.OpMul:
		res, err = value.Mul(left, right)

	case ast.OpMod:
		res, err = value.Mod(left, right)

	case ast.OpDiv:
		res, err = value.Div(left, right)
		if err == nil && isLiteralNumber(e.Left) && isLiteralNumber(e.Right) {
			res = keepSlash(res, left, right)
		}

	default:
		return nil, fmt.Errorf("unknown binary operator %s", e.Op)
	}

	if err != nil {
		return nil, c.situate(err, e)
	}

	return res, nil
}

// keepSlash marks a division of two literals so it prints as written.
func keepSlash(res, num, den value.Value) value.Value {
	n, ok := res.(*value.Number)
	if !ok {
		return res
	}

	a, aok := num.(*value.Number)
	b, bok := den.(*value.Number)
	if !aok || !bok {
		return res
	}

	cp := *n
	cp.Slash = &value.Slash{Num: a, Den: b}
	return &cp
}

func (c *context) evalUnary(e *ast.ExprUnary) (value.Value, error) {
	v, err := c.eval(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpNot:
		return value.Bool(!value.Truthy(v)), nil

	case ast.OpNeg:
		v, err = value.Neg(v)

	case ast.OpPos:
		v, err = value.Plus(v)

	case ast.OpDiv:
		return value.Unquoted("/" + value.Plain(v)), nil

	default:
		return nil, fmt.Errorf("unknown unary operator %s", e.Op)
	}

	if err != nil {
		return nil, c.situate(err, e)
	}

	return v, nil
}

func (c *context) evalCall(e *ast.ExprCall) (value.Value, error) {
	if normalizeName(e.Name) == "if" && e.Args.Rest == nil && e.Args.KeywordRest == nil && c.scope.lookupFunction("if") == nil {
		return c.evalIf(e)
	}

	a, err := c.evalArgs(&e.Args)
	if err != nil {
		return nil, err
	}

	v, err := c.invoke(e.Name, a)
	if err != nil {
		return nil, c.situate(err, e)
	}

	return withoutSlash(v), nil
}

// evalIf implements if() lazily: only the selected branch is evaluated.
func (c *context) evalIf(e *ast.ExprCall) (value.Value, error) {
	names := []string{"condition", "if-true", "if-false"}
	exprs := make([]ast.Expr, len(names))

	if len(e.Args.Positional) > len(names) {
		return nil, c.situate(value.ArgumentErrorf("only 3 arguments allowed, but %d were passed to if()", len(e.Args.Positional)), e)
	}
	copy(exprs, e.Args.Positional)

	for _, a := range e.Args.Named {
		i := slices.Index(names, a.Name)
		switch {
		case i < 0:
			return nil, c.situate(value.ArgumentErrorf("no argument named $%s in if()", a.Name), e)
		case exprs[i] != nil:
			return nil, c.situate(value.ArgumentErrorf("argument $%s was passed both by position and by name to if()", a.Name), e)
		}
		exprs[i] = a.Value
	}

	for i, ex := range exprs {
		if ex == nil {
			return nil, c.situate(value.ArgumentErrorf("missing argument $%s in if()", names[i]), e)
		}
	}

	cond, err := c.eval(exprs[0])
	if err != nil {
		return nil, err
	}

	if value.Truthy(cond) {
		return c.eval(exprs[1])
	}
	return c.eval(exprs[2])
}

// parentValue returns the enclosing selector as a comma list of space lists,
// or null outside of style rules.
func (c *context) parentValue() value.Value {
	if c.frame.selector == nil {
		return value.Null{}
	}

	complexes := make([]value.Value, 0, len(c.frame.selector))

	for _, cx := range c.frame.selector {
		var parts []value.Value
		for _, comp := range cx {
			if s := comp.Comb.String(); s != " " {
				parts = append(parts, value.Unquoted(s))
			}
			parts = append(parts, value.Unquoted(comp.Compound.String()))
		}
		complexes = append(complexes, value.NewList(parts, value.SepSpace))
	}

	return value.NewList(complexes, value.SepComma)
}
