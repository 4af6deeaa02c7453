package parser

import (
	"strings"

	"github.com/pipe01/sassy/internal/lexer"
	. "github.com/pipe01/sassy/internal/parser/ast"
	"golang.org/x/exp/slices"
)

func startsExpression(tk *lexer.Token) bool {
	switch tk.Type {
	case lexer.TokenIdentifier, lexer.TokenVariable, lexer.TokenNumber, lexer.TokenHash,
		lexer.TokenStringStart, lexer.TokenURL, lexer.TokenInterpolationStart,
		lexer.TokenParenOpen, lexer.TokenBracketOpen, lexer.TokenMinus, lexer.TokenPlus,
		lexer.TokenSlash, lexer.TokenAmpersand:
		return true
	}

	return false
}

// parseExpression parses a comma-separated list of space-separated lists.
func (p *parser) parseExpression() Expr {
	first := p.parseSpaceList()
	if first == nil || p.peek().Type != lexer.TokenComma {
		return first
	}

	list := &ExprList{
		Pos:   Pos(first.Position()),
		Items: []Expr{first},
		Sep:   SepComma,
	}

	for p.takeIf(lexer.TokenComma) {
		if !startsExpression(p.peek()) {
			break
		}

		e := p.parseSpaceList()
		if e == nil {
			return nil
		}
		list.Items = append(list.Items, e)
	}

	return list
}

func (p *parser) parseSpaceList() Expr {
	start := p.peek()

	var items []Expr

	for !p.failed() && startsExpression(p.peek()) {
		e := p.parseOr()
		if e == nil {
			return nil
		}
		items = append(items, e)
	}

	switch len(items) {
	case 0:
		if !p.failed() {
			p.addUnexpected(start, "an expression")
		}
		return nil
	case 1:
		return items[0]
	}

	return &ExprList{
		Pos:   Pos(start.Start),
		Items: items,
		Sep:   SepSpace,
	}
}

func (p *parser) parseBinary(next func() Expr, ops func(tk *lexer.Token) (Op, bool)) Expr {
	left := next()

	for left != nil {
		op, ok := ops(p.peek())
		if !ok {
			break
		}
		p.take()

		right := next()
		if right == nil {
			return nil
		}

		left = &ExprBinary{
			Pos:   Pos(left.Position()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}

	return left
}

func (p *parser) parseOr() Expr {
	return p.parseBinary(p.parseAnd, func(tk *lexer.Token) (Op, bool) {
		return OpOr, isIdent(tk, "or")
	})
}

func (p *parser) parseAnd() Expr {
	return p.parseBinary(p.parseEquality, func(tk *lexer.Token) (Op, bool) {
		return OpAnd, isIdent(tk, "and")
	})
}

func (p *parser) parseEquality() Expr {
	return p.parseBinary(p.parseRelational, func(tk *lexer.Token) (Op, bool) {
		switch tk.Type {
		case lexer.TokenEquals:
			return OpEq, true
		case lexer.TokenNotEquals:
			return OpNe, true
		}
		return 0, false
	})
}

func (p *parser) parseRelational() Expr {
	return p.parseBinary(p.parseAdditive, func(tk *lexer.Token) (Op, bool) {
		switch tk.Type {
		case lexer.TokenLess:
			return OpLt, true
		case lexer.TokenLessEquals:
			return OpLe, true
		case lexer.TokenGreater:
			return OpGt, true
		case lexer.TokenGreaterEquals:
			return OpGe, true
		}
		return 0, false
	})
}

func (p *parser) parseAdditive() Expr {
	return p.parseBinary(p.parseMultiplicative, func(tk *lexer.Token) (Op, bool) {
		var op Op

		switch tk.Type {
		case lexer.TokenPlus:
			op = OpAdd
		case lexer.TokenMinus:
			op = OpSub
		default:
			return 0, false
		}

		// "1 -2" is a list of two numbers, not a subtraction.
		if tk.SpaceBefore && !p.peekAt(1).SpaceBefore {
			return 0, false
		}

		return op, true
	})
}

func (p *parser) parseMultiplicative() Expr {
	return p.parseBinary(p.parseUnary, func(tk *lexer.Token) (Op, bool) {
		switch tk.Type {
		case lexer.TokenStar:
			return OpMul, true
		case lexer.TokenSlash:
			return OpDiv, true
		case lexer.TokenPercent:
			return OpMod, true
		}
		return 0, false
	})
}

func (p *parser) parseUnary() Expr {
	tk := p.peek()

	var op Op

	switch {
	case tk.Type == lexer.TokenMinus:
		op = OpNeg
	case tk.Type == lexer.TokenPlus:
		op = OpPos
	case tk.Type == lexer.TokenSlash:
		op = OpDiv
	case isIdent(tk, "not"):
		op = OpNot
	default:
		return p.parsePrimary()
	}

	p.take()
	next := p.peek()

	if op == OpNeg && !next.SpaceBefore {
		switch next.Type {
		case lexer.TokenNumber:
			p.take()
			return numberExpr(next, tk.Start, "-")

		case lexer.TokenInterpolationStart:
			return p.parseIdentifierExpr(tk.Start, "-")
		}
	}

	operand := p.parseUnary()
	if operand == nil {
		return nil
	}

	return &ExprUnary{
		Pos:     Pos(tk.Start),
		Op:      op,
		Operand: operand,
	}
}

func (p *parser) parsePrimary() Expr {
	tk := p.peek()

	switch tk.Type {
	case lexer.TokenNumber:
		p.take()
		return numberExpr(tk, tk.Start, "")

	case lexer.TokenVariable:
		p.take()
		return &ExprVariable{
			Pos:  Pos(tk.Start),
			Name: normalizeName(tk.Contents[1:]),
		}

	case lexer.TokenHash:
		p.take()
		return &ExprColor{
			Pos:  Pos(tk.Start),
			Text: tk.Contents,
		}

	case lexer.TokenStringStart:
		if s := p.parseQuotedString(); s != nil {
			return s
		}
		return nil

	case lexer.TokenURL:
		return p.parseURL()

	case lexer.TokenParenOpen:
		return p.parseParen()

	case lexer.TokenBracketOpen:
		return p.parseBracketList()

	case lexer.TokenAmpersand:
		p.take()
		return &ExprParent{Pos: Pos(tk.Start)}

	case lexer.TokenIdentifier, lexer.TokenInterpolationStart:
		return p.parseIdentifierExpr(tk.Start, "")
	}

	p.addUnexpected(tk, "an expression")
	return nil
}

// numberExpr splits a number token into its magnitude and unit.
func numberExpr(tk *lexer.Token, start lexer.Location, sign string) *ExprNumber {
	s := tk.Contents
	i := 0

	for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
		i++
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}

		if j < len(s) && isDigit(s[j]) {
			i = j
			for i < len(s) && isDigit(s[i]) {
				i++
			}
		}
	}

	return &ExprNumber{
		Pos:   Pos(start),
		Value: sign + s[:i],
		Unit:  s[i:],
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isSpecialFunction(name string) bool {
	name = strings.ToLower(name)

	// Vendor prefixed forms like -webkit-calc.
	if strings.HasPrefix(name, "-") {
		if idx := strings.IndexByte(name[1:], '-'); idx >= 0 {
			name = name[idx+2:]
		}
	}

	return slices.Contains(specialFunctions, name)
}

// parseIdentifierExpr parses keywords, function calls and unquoted strings made of
// adjacent identifiers and interpolations.
func (p *parser) parseIdentifierExpr(start lexer.Location, prefix string) Expr {
	tk := p.peek()

	if prefix == "" && tk.Type == lexer.TokenIdentifier {
		if open := p.peekAt(1); open.Type == lexer.TokenParenOpen && !open.SpaceBefore {
			p.take()
			p.take()
			return p.parseFunctionCall(tk)
		}

		if next := p.peekAt(1); next.SpaceBefore || next.Type != lexer.TokenInterpolationStart {
			switch tk.Contents {
			case "true", "false":
				p.take()
				return &ExprBool{Pos: Pos(tk.Start), Value: tk.Contents == "true"}
			case "null":
				p.take()
				return &ExprNull{Pos: Pos(tk.Start)}
			}
		}
	}

	str := &ExprString{Pos: Pos(start)}
	str.Parts.Pos = str.Pos
	str.Parts.AddText(prefix)

loop:
	for first := true; !p.failed(); first = false {
		tk := p.peek()
		if !first && tk.SpaceBefore {
			break
		}

		switch tk.Type {
		case lexer.TokenIdentifier:
			p.take()
			str.Parts.AddText(tk.Contents)

		case lexer.TokenInterpolationStart:
			p.take()
			str.Parts.AddExpr(p.parseInterpolationBody())

		case lexer.TokenNumber:
			if first {
				break loop
			}
			p.take()
			str.Parts.AddText(tk.Contents)

		case lexer.TokenMinus:
			next := p.peekAt(1)
			if first || next.SpaceBefore {
				break loop
			}

			switch next.Type {
			case lexer.TokenIdentifier, lexer.TokenInterpolationStart, lexer.TokenNumber:
				p.take()
				str.Parts.AddText("-")
			default:
				break loop
			}

		default:
			break loop
		}
	}

	if p.failed() {
		return nil
	}

	return str
}

// parseFunctionCall parses a call after its opening parenthesis.
func (p *parser) parseFunctionCall(name *lexer.Token) Expr {
	if isSpecialFunction(name.Contents) {
		args := p.parseRaw(func(tk *lexer.Token) bool {
			return tk.Type == lexer.TokenParenClose
		}, true)
		args.TrimSpace()

		if _, ok := p.mustTake(lexer.TokenParenClose); !ok {
			return nil
		}

		return &ExprSpecialFunc{
			Pos:  Pos(name.Start),
			Name: name.Contents,
			Args: args,
		}
	}

	args := p.parseArgs()
	if p.failed() {
		return nil
	}

	return &ExprCall{
		Pos:  Pos(name.Start),
		Name: name.Contents,
		Args: args,
	}
}

func (p *parser) parseParen() Expr {
	open := p.take()

	if p.takeIf(lexer.TokenParenClose) {
		return &ExprList{
			Pos: Pos(open.Start),
			Sep: SepUndecided,
		}
	}

	first := p.parseSpaceList()
	if first == nil {
		return nil
	}

	if p.peek().Type == lexer.TokenColon {
		return p.parseMap(open, first)
	}

	inner := first

	if p.peek().Type == lexer.TokenComma {
		list := &ExprList{
			Pos:   Pos(first.Position()),
			Items: []Expr{first},
			Sep:   SepComma,
		}

		for p.takeIf(lexer.TokenComma) {
			if p.peek().Type == lexer.TokenParenClose {
				break
			}

			e := p.parseSpaceList()
			if e == nil {
				return nil
			}
			list.Items = append(list.Items, e)
		}

		inner = list
	}

	if _, ok := p.mustTake(lexer.TokenParenClose); !ok {
		return nil
	}

	return &ExprParen{
		Pos:   Pos(open.Start),
		Inner: inner,
	}
}

// parseMap parses the rest of "(key: value, ...)" once the first key is known.
func (p *parser) parseMap(open *lexer.Token, key Expr) Expr {
	m := &ExprMap{Pos: Pos(open.Start)}

	for !p.failed() {
		if _, ok := p.mustTake(lexer.TokenColon); !ok {
			return nil
		}

		val := p.parseSpaceList()
		if val == nil {
			return nil
		}

		m.Keys = append(m.Keys, key)
		m.Values = append(m.Values, val)

		if !p.takeIf(lexer.TokenComma) || p.peek().Type == lexer.TokenParenClose {
			break
		}

		if key = p.parseSpaceList(); key == nil {
			return nil
		}
	}

	if _, ok := p.mustTake(lexer.TokenParenClose); !ok {
		return nil
	}

	return m
}

func (p *parser) parseBracketList() Expr {
	open := p.take()

	if p.takeIf(lexer.TokenBracketClose) {
		return &ExprList{
			Pos:       Pos(open.Start),
			Sep:       SepUndecided,
			Bracketed: true,
		}
	}

	inner := p.parseExpression()
	if inner == nil {
		return nil
	}

	if _, ok := p.mustTake(lexer.TokenBracketClose); !ok {
		return nil
	}

	if list, ok := inner.(*ExprList); ok && !list.Bracketed {
		return &ExprList{
			Pos:       Pos(open.Start),
			Items:     list.Items,
			Sep:       list.Sep,
			Bracketed: true,
		}
	}

	return &ExprList{
		Pos:       Pos(open.Start),
		Items:     []Expr{inner},
		Sep:       SepUndecided,
		Bracketed: true,
	}
}

// parseURL joins the pieces of an unquoted url(...) and its interpolations.
func (p *parser) parseURL() Expr {
	start := p.peek().Start

	str := &ExprString{Pos: Pos(start)}
	str.Parts.Pos = str.Pos

	for !p.failed() {
		tk, ok := p.mustTake(lexer.TokenURL)
		if !ok {
			return nil
		}

		str.Parts.AddText(tk.Contents)
		if strings.HasSuffix(tk.Contents, ")") {
			return str
		}

		if _, ok := p.mustTake(lexer.TokenInterpolationStart); !ok {
			return nil
		}
		str.Parts.AddExpr(p.parseInterpolationBody())
	}

	return nil
}
