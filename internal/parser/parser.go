package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/lexer"
	. "github.com/pipe01/sassy/internal/parser/ast"
	"golang.org/x/exp/slices"
)

var (
	ErrLastTokenEOF         = errors.New("last token must be EOF")
	ErrModulesUnsupported   = errors.New("@use and @forward are not supported, use @import instead")
	ErrElseWithoutIf        = errors.New(`found "@else" without matching "@if"`)
	ErrEmptyInterpolation   = errors.New("expected expression inside interpolation")
	ErrPositionalAfterNamed = errors.New("positional arguments must come before keyword arguments")
)

type ParserError struct {
	Inner    error
	Location lexer.Location
}

func (e *ParserError) Unwrap() error {
	return e.Inner
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("%s at %s", e.Inner, &e.Location)
}

func (e *ParserError) At() lexer.Location {
	return e.Location
}

func (e *ParserError) Kind() serrors.Kind {
	return serrors.KindParse
}

type UnexpectedTokenError struct {
	Got      *lexer.Token
	Expected string
}

func (e *UnexpectedTokenError) Error() string {
	switch {
	case e.Got.Type == lexer.TokenEOF:
		return fmt.Sprintf("expected %s, found end of file", e.Expected)
	case e.Got.Contents == "":
		return fmt.Sprintf("expected %s, found %s", e.Expected, strings.ToLower(e.Got.Type.String()))
	}

	return fmt.Sprintf("expected %s, found %q (%s)", e.Expected, e.Got.Contents, e.Got.Type)
}

// specialFunctions keep their arguments as raw text.
var specialFunctions = []string{"calc", "var", "env", "element", "expression", "clamp"}

type parser struct {
	tokens []lexer.Token
	index  int

	errs []*ParserError
}

func newParser(tokens []lexer.Token) (*parser, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokenEOF {
		return nil, ErrLastTokenEOF
	}

	return &parser{tokens: tokens}, nil
}

// Parse builds the syntax tree of a whole stylesheet.
func Parse(tokens []lexer.Token, fileName string, syntax lexer.Syntax) (*Stylesheet, error) {
	p, err := newParser(tokens)
	if err != nil {
		return nil, err
	}

	fname := filepath.Base(fileName)

	f := &Stylesheet{
		Pos:    Pos(tokens[0].Start),
		Name:   strings.TrimSuffix(fname, filepath.Ext(fname)),
		Syntax: syntax,
		Nodes:  p.parseStatements(false),
	}

	if len(p.errs) > 0 {
		return nil, p.errs[0]
	}

	return f, nil
}

// ParseExpression parses tokens holding a single SassScript expression.
func ParseExpression(tokens []lexer.Token) (Expr, error) {
	p, err := newParser(tokens)
	if err != nil {
		return nil, err
	}

	e := p.parseExpression()
	if !p.failed() && !p.isEOF() {
		p.addUnexpected(p.peek(), "end of expression")
	}

	if len(p.errs) > 0 {
		return nil, p.errs[0]
	}

	return e, nil
}

func (p *parser) take() (tk *lexer.Token) {
	if p.index >= len(p.tokens) {
		return &p.tokens[len(p.tokens)-1] // Last token should be EOF
	}

	tk = &p.tokens[p.index]
	p.index++

	return tk
}

func (p *parser) mustTake(typ lexer.TokenType) (tk *lexer.Token, found bool) {
	tk = p.take()
	if tk.Type != typ {
		p.addUnexpected(tk, typ.String())
		return nil, false
	}

	return tk, true
}

func (p *parser) takeIf(typ lexer.TokenType) bool {
	if p.peek().Type == typ {
		p.take()
		return true
	}

	return false
}

func (p *parser) rewind() {
	if p.index == 0 {
		panic("cannot rewind any further")
	}

	p.index--
}

func (p *parser) peek() *lexer.Token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) *lexer.Token {
	if p.index+n >= len(p.tokens) {
		return &p.tokens[len(p.tokens)-1] // Last token should be EOF
	}

	return &p.tokens[p.index+n]
}

func (p *parser) isEOF() bool {
	return p.peek().Type == lexer.TokenEOF
}

func (p *parser) failed() bool {
	return len(p.errs) > 0
}

func (p *parser) addErrorAt(err error, pos lexer.Location) {
	p.errs = append(p.errs, &ParserError{
		Inner:    err,
		Location: pos,
	})
}

func (p *parser) addUnexpected(tk *lexer.Token, expected string) {
	p.addErrorAt(&UnexpectedTokenError{
		Got:      tk,
		Expected: expected,
	}, tk.Start)
}

func isIdent(tk *lexer.Token, name string) bool {
	return tk.Type == lexer.TokenIdentifier && tk.Contents == name
}

func normalizeName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

func flagName(tk *lexer.Token) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tk.Contents, "!")))
}

func (p *parser) endStatement() {
	switch tk := p.peek(); tk.Type {
	case lexer.TokenSemicolon:
		p.take()
	case lexer.TokenBlockClose, lexer.TokenEOF:
	default:
		p.addUnexpected(tk, `";"`)
	}
}

func (p *parser) parseBlock() []Node {
	if _, ok := p.mustTake(lexer.TokenBlockOpen); !ok {
		return nil
	}

	return p.parseStatements(true)
}

func (p *parser) parseStatements(inBlock bool) (nodes []Node) {
	for !p.failed() {
		tk := p.peek()

		switch tk.Type {
		case lexer.TokenEOF:
			if inBlock {
				p.addUnexpected(tk, `"}"`)
			}
			return

		case lexer.TokenBlockClose:
			p.take()
			if !inBlock {
				p.addUnexpected(tk, "a rule or declaration")
			}
			return

		case lexer.TokenSemicolon:
			p.take()
			continue
		}

		if node := p.parseStatement(); node != nil {
			nodes = append(nodes, node)
		}
	}

	return
}

func (p *parser) parseStatement() Node {
	tk := p.peek()

	switch tk.Type {
	case lexer.TokenComment:
		p.take()
		return &NodeComment{
			Pos:  Pos(tk.Start),
			Text: tk.Contents,
		}

	case lexer.TokenAtKeyword:
		return p.parseAtRule()

	case lexer.TokenVariable:
		if p.peekAt(1).Type == lexer.TokenColon {
			return p.parseVariable()
		}
	}

	if p.looksLikeDeclaration() {
		return p.parseDeclaration()
	}

	return p.parseRule()
}

// looksLikeDeclaration tells a "name: value" pair apart from a selector such as
// "a:hover" by looking past the colon.
func (p *parser) looksLikeDeclaration() bool {
	start := p.index
	i := start

loop:
	for {
		tk := &p.tokens[i]
		if i > start && tk.SpaceBefore {
			break
		}

		switch tk.Type {
		case lexer.TokenIdentifier, lexer.TokenMinus, lexer.TokenStar:
			i++
		case lexer.TokenInterpolationStart:
			i = p.skipInterpolation(i)
		default:
			break loop
		}
	}

	if i == start || p.tokens[i].Type != lexer.TokenColon {
		return false
	}

	if first := &p.tokens[start]; first.Type == lexer.TokenIdentifier && strings.HasPrefix(first.Contents, "--") {
		return true
	}

	after := p.tokens[i+1]
	if after.Type == lexer.TokenBlockOpen {
		return true
	}

	if p.scanStatementEnd(i+1) != lexer.TokenBlockOpen {
		return true
	}

	return after.SpaceBefore
}

func (p *parser) skipInterpolation(i int) int {
	depth := 0

	for ; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case lexer.TokenInterpolationStart:
			depth++
		case lexer.TokenInterpolationEnd:
			depth--
			if depth == 0 {
				return i + 1
			}
		case lexer.TokenEOF:
			return i
		}
	}

	return i
}

// scanStatementEnd returns the type of the first block or statement delimiter at nesting level 0.
func (p *parser) scanStatementEnd(i int) lexer.TokenType {
	depth := 0

	for ; i < len(p.tokens); i++ {
		switch tk := p.tokens[i]; tk.Type {
		case lexer.TokenParenOpen, lexer.TokenBracketOpen, lexer.TokenInterpolationStart:
			depth++
		case lexer.TokenParenClose, lexer.TokenBracketClose, lexer.TokenInterpolationEnd:
			depth--
		case lexer.TokenBlockOpen, lexer.TokenSemicolon, lexer.TokenBlockClose:
			if depth <= 0 {
				return tk.Type
			}
		case lexer.TokenEOF:
			return tk.Type
		}
	}

	return lexer.TokenEOF
}

func (p *parser) parseVariable() Node {
	tk := p.take()
	p.take()

	node := &NodeVariable{
		Pos:  Pos(tk.Start),
		Name: normalizeName(tk.Contents[1:]),
	}

	node.Value = p.parseExpression()
	if node.Value == nil {
		return nil
	}

	for p.peek().Type == lexer.TokenFlag {
		flag := p.take()

		switch flagName(flag) {
		case "default":
			node.Default = true
		case "global":
			node.Global = true
		default:
			p.addUnexpected(flag, `"!default" or "!global"`)
			return nil
		}
	}

	p.endStatement()
	return node
}

func (p *parser) parsePropertyName() Interpolation {
	name := Interpolation{Pos: Pos(p.peek().Start)}

	for first := true; !p.failed(); first = false {
		tk := p.peek()
		if !first && tk.SpaceBefore {
			break
		}

		switch tk.Type {
		case lexer.TokenIdentifier, lexer.TokenMinus, lexer.TokenStar:
			p.take()
			name.AddText(tk.Contents)

		case lexer.TokenInterpolationStart:
			p.take()
			name.AddExpr(p.parseInterpolationBody())

		default:
			return name
		}
	}

	return name
}

func (p *parser) parseDeclaration() Node {
	start := p.peek().Start

	decl := &NodeDeclaration{
		Pos:  Pos(start),
		Name: p.parsePropertyName(),
	}

	if _, ok := p.mustTake(lexer.TokenColon); !ok {
		return nil
	}

	if plain, ok := decl.Name.Plain(); ok && strings.HasPrefix(plain, "--") {
		raw := p.parseRaw(func(tk *lexer.Token) bool {
			return tk.Type == lexer.TokenSemicolon || tk.Type == lexer.TokenBlockClose
		}, false)
		raw.TrimSpace()

		decl.Custom = true
		decl.Value = &ExprString{Pos: raw.Pos, Parts: raw}

		p.endStatement()
		return decl
	}

	if p.peek().Type != lexer.TokenBlockOpen {
		decl.Value = p.parseExpression()
		if decl.Value == nil {
			return nil
		}
	}

	for p.peek().Type == lexer.TokenFlag {
		flag := p.take()
		if flagName(flag) != "important" {
			p.addUnexpected(flag, `"!important"`)
			return nil
		}

		decl.Important = true
	}

	if p.takeIf(lexer.TokenBlockOpen) {
		decl.Nodes = p.parseStatements(true)
		return decl
	}

	p.endStatement()
	return decl
}

func (p *parser) parseRule() Node {
	start := p.peek().Start

	sel := p.parseRaw(func(tk *lexer.Token) bool {
		switch tk.Type {
		case lexer.TokenBlockOpen, lexer.TokenSemicolon, lexer.TokenBlockClose:
			return true
		}
		return false
	}, false)
	sel.TrimSpace()

	if sel.IsEmpty() {
		p.addUnexpected(p.peek(), "a selector")
		return nil
	}

	nodes := p.parseBlock()
	if p.failed() {
		return nil
	}

	return &NodeRule{
		Pos:      Pos(start),
		Selector: sel,
		Nodes:    nodes,
	}
}

func (p *parser) parseAtRule() Node {
	tk := p.take()
	name := strings.ToLower(tk.Contents[1:])

	switch name {
	case "if":
		return p.parseIf(tk)
	case "else", "elseif":
		p.addErrorAt(ErrElseWithoutIf, tk.Start)
		return nil
	case "each":
		return p.parseEach(tk)
	case "for":
		return p.parseFor(tk)
	case "while":
		return p.parseWhile(tk)
	case "mixin":
		return p.parseMixinDef(tk)
	case "function":
		return p.parseFunctionDef(tk)
	case "return":
		return p.parseReturn(tk)
	case "include":
		return p.parseInclude(tk)
	case "content":
		return p.parseContent(tk)
	case "import":
		return p.parseImport(tk)
	case "extend":
		return p.parseExtend(tk)
	case "warn", "debug", "error":
		return p.parseMessage(tk, name)
	case "at-root":
		return p.parseAtRoot(tk)
	case "charset":
		p.parseRaw(isStatementEnd, false)
		p.endStatement()
		return nil
	case "use", "forward":
		p.addErrorAt(ErrModulesUnsupported, tk.Start)
		return nil
	}

	params := p.parseRaw(func(tk *lexer.Token) bool {
		return tk.Type == lexer.TokenBlockOpen || isStatementEnd(tk)
	}, true)
	params.TrimSpace()

	node := &NodeAtRule{
		Pos:    Pos(tk.Start),
		Name:   tk.Contents[1:],
		Params: params,
	}

	if p.takeIf(lexer.TokenBlockOpen) {
		node.HasBlock = true
		node.Nodes = p.parseStatements(true)
		return node
	}

	p.endStatement()
	return node
}

func isStatementEnd(tk *lexer.Token) bool {
	return tk.Type == lexer.TokenSemicolon || tk.Type == lexer.TokenBlockClose
}

func (p *parser) parseIf(tk *lexer.Token) Node {
	node := &NodeIf{Pos: Pos(tk.Start)}

	clause := func() bool {
		cond := p.parseExpression()
		if cond == nil {
			return false
		}

		nodes := p.parseBlock()
		node.Clauses = append(node.Clauses, IfClause{Cond: cond, Nodes: nodes})
		return !p.failed()
	}

	if !clause() {
		return nil
	}

	for {
		save := p.index
		for p.takeIf(lexer.TokenSemicolon) {
		}

		next := p.peek()
		if next.Type != lexer.TokenAtKeyword {
			p.index = save
			break
		}

		switch strings.ToLower(next.Contents) {
		case "@elseif":
			p.take()
			if !clause() {
				return nil
			}
			continue

		case "@else":
			p.take()
			if isIdent(p.peek(), "if") {
				p.take()
				if !clause() {
					return nil
				}
				continue
			}

			node.HasElse = true
			node.Else = p.parseBlock()
			return node
		}

		p.index = save
		break
	}

	return node
}

func (p *parser) parseEach(tk *lexer.Token) Node {
	node := &NodeEach{Pos: Pos(tk.Start)}

	for {
		v, ok := p.mustTake(lexer.TokenVariable)
		if !ok {
			return nil
		}
		node.Vars = append(node.Vars, normalizeName(v.Contents[1:]))

		if !p.takeIf(lexer.TokenComma) {
			break
		}
	}

	if in := p.take(); !isIdent(in, "in") {
		p.addUnexpected(in, `"in"`)
		return nil
	}

	node.List = p.parseExpression()
	if node.List == nil {
		return nil
	}

	node.Nodes = p.parseBlock()
	return node
}

func (p *parser) parseFor(tk *lexer.Token) Node {
	v, ok := p.mustTake(lexer.TokenVariable)
	if !ok {
		return nil
	}

	node := &NodeFor{
		Pos: Pos(tk.Start),
		Var: normalizeName(v.Contents[1:]),
	}

	if from := p.take(); !isIdent(from, "from") {
		p.addUnexpected(from, `"from"`)
		return nil
	}

	if node.From = p.parseOr(); node.From == nil {
		return nil
	}

	switch kw := p.take(); {
	case isIdent(kw, "through"):
		node.Inclusive = true
	case isIdent(kw, "to"):
	default:
		p.addUnexpected(kw, `"through" or "to"`)
		return nil
	}

	if node.To = p.parseOr(); node.To == nil {
		return nil
	}

	node.Nodes = p.parseBlock()
	return node
}

func (p *parser) parseWhile(tk *lexer.Token) Node {
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}

	return &NodeWhile{
		Pos:   Pos(tk.Start),
		Cond:  cond,
		Nodes: p.parseBlock(),
	}
}

func (p *parser) parseMixinDef(tk *lexer.Token) Node {
	name, ok := p.mustTake(lexer.TokenIdentifier)
	if !ok {
		return nil
	}

	node := &NodeMixinDef{
		Pos:  Pos(tk.Start),
		Name: normalizeName(name.Contents),
	}

	if p.takeIf(lexer.TokenParenOpen) {
		node.Params = p.parseParams()
	}

	node.Nodes = p.parseBlock()
	return node
}

func (p *parser) parseFunctionDef(tk *lexer.Token) Node {
	name, ok := p.mustTake(lexer.TokenIdentifier)
	if !ok {
		return nil
	}

	node := &NodeFunctionDef{
		Pos:  Pos(tk.Start),
		Name: normalizeName(name.Contents),
	}

	if _, ok := p.mustTake(lexer.TokenParenOpen); !ok {
		return nil
	}

	node.Params = p.parseParams()
	node.Nodes = p.parseBlock()
	return node
}

// parseParams parses a parameter list after its opening parenthesis.
func (p *parser) parseParams() (params ParamList) {
	for !p.failed() {
		if p.takeIf(lexer.TokenParenClose) {
			return
		}

		v, ok := p.mustTake(lexer.TokenVariable)
		if !ok {
			return
		}
		name := normalizeName(v.Contents[1:])

		if p.takeIf(lexer.TokenEllipsis) {
			params.Rest = name
			p.takeIf(lexer.TokenComma)
			p.mustTake(lexer.TokenParenClose)
			return
		}

		param := Param{Name: name}
		if p.takeIf(lexer.TokenColon) {
			if param.Default = p.parseSpaceList(); param.Default == nil {
				return
			}
		}
		params.Params = append(params.Params, param)

		if !p.takeIf(lexer.TokenComma) {
			p.mustTake(lexer.TokenParenClose)
			return
		}
	}

	return
}

// parseArgs parses an argument list after its opening parenthesis.
func (p *parser) parseArgs() (args ArgList) {
	for !p.failed() {
		if p.takeIf(lexer.TokenParenClose) {
			return
		}

		if p.peek().Type == lexer.TokenVariable && p.peekAt(1).Type == lexer.TokenColon {
			name := p.take()
			p.take()

			val := p.parseSpaceList()
			if val == nil {
				return
			}

			args.Named = append(args.Named, NamedArg{
				Name:  normalizeName(name.Contents[1:]),
				Value: val,
			})
		} else {
			start := p.peek().Start

			val := p.parseSpaceList()
			if val == nil {
				return
			}

			switch {
			case p.takeIf(lexer.TokenEllipsis):
				if args.Rest == nil {
					args.Rest = val
				} else {
					args.KeywordRest = val
				}
			case len(args.Named) > 0 || args.Rest != nil:
				p.addErrorAt(ErrPositionalAfterNamed, start)
				return
			default:
				args.Positional = append(args.Positional, val)
			}
		}

		if !p.takeIf(lexer.TokenComma) {
			p.mustTake(lexer.TokenParenClose)
			return
		}
	}

	return
}

func (p *parser) parseReturn(tk *lexer.Token) Node {
	val := p.parseExpression()
	if val == nil {
		return nil
	}

	p.endStatement()

	return &NodeReturn{
		Pos:   Pos(tk.Start),
		Value: val,
	}
}

func (p *parser) parseInclude(tk *lexer.Token) Node {
	name, ok := p.mustTake(lexer.TokenIdentifier)
	if !ok {
		return nil
	}

	node := &NodeInclude{
		Pos:  Pos(tk.Start),
		Name: normalizeName(name.Contents),
	}

	if p.takeIf(lexer.TokenParenOpen) {
		node.Args = p.parseArgs()
	}

	var content *ContentBlock

	if using := p.peek(); isIdent(using, "using") {
		p.take()
		if _, ok := p.mustTake(lexer.TokenParenOpen); !ok {
			return nil
		}

		content = &ContentBlock{
			Pos:    Pos(using.Start),
			Params: p.parseParams(),
		}

		if p.peek().Type != lexer.TokenBlockOpen {
			p.addUnexpected(p.peek(), `"{"`)
			return nil
		}
	}

	if open := p.peek(); open.Type == lexer.TokenBlockOpen {
		p.take()

		if content == nil {
			content = &ContentBlock{Pos: Pos(open.Start)}
		}
		content.Nodes = p.parseStatements(true)
		node.Content = content

		return node
	}

	p.endStatement()
	return node
}

func (p *parser) parseContent(tk *lexer.Token) Node {
	node := &NodeContent{Pos: Pos(tk.Start)}

	if p.takeIf(lexer.TokenParenOpen) {
		node.Args = p.parseArgs()
	}

	p.endStatement()
	return node
}

func (p *parser) parseImport(tk *lexer.Token) Node {
	node := &NodeImport{Pos: Pos(tk.Start)}

	for !p.failed() {
		node.Imports = append(node.Imports, p.parseImportItem())

		if !p.takeIf(lexer.TokenComma) {
			break
		}
	}

	p.endStatement()
	return node
}

func isImportEnd(tk *lexer.Token) bool {
	return tk.Type == lexer.TokenComma || isStatementEnd(tk)
}

// IsPlainCSSImport reports whether an import path is left for the browser to load.
func IsPlainCSSImport(path string) bool {
	return strings.HasSuffix(path, ".css") ||
		strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "//")
}

func (p *parser) parseImportItem() Import {
	tk := p.peek()
	imp := Import{Pos: Pos(tk.Start)}

	switch tk.Type {
	case lexer.TokenStringStart:
		str := p.parseQuotedString()
		if str == nil {
			return imp
		}

		path, isPlain := str.Parts.Plain()
		hasMedia := !isImportEnd(p.peek())

		if isPlain && !hasMedia && !IsPlainCSSImport(path) {
			imp.Path = path
			return imp
		}

		imp.Plain = true
		imp.Raw.Pos = imp.Pos
		imp.Raw.AddText(tk.Contents)
		for _, part := range str.Parts.Parts {
			if part.Expr != nil {
				imp.Raw.AddExpr(part.Expr)
			} else {
				imp.Raw.AddText(strings.ReplaceAll(part.Text, tk.Contents, `\`+tk.Contents))
			}
		}
		imp.Raw.AddText(tk.Contents)

		if hasMedia {
			media := p.parseRaw(isImportEnd, true)
			imp.Raw.AddText(" ")
			imp.Raw.Parts = append(imp.Raw.Parts, media.Parts...)
		}

	case lexer.TokenURL:
		imp.Plain = true
		imp.Raw = p.parseRaw(isImportEnd, true)

	default:
		raw := p.parseRaw(isImportEnd, false)
		raw.TrimSpace()

		path, ok := raw.Plain()
		if !ok || path == "" {
			p.addUnexpected(tk, "an import path")
			return imp
		}

		imp.Path = path
	}

	return imp
}

func (p *parser) parseExtend(tk *lexer.Token) Node {
	sel := p.parseRaw(func(tk *lexer.Token) bool {
		return tk.Type == lexer.TokenFlag || tk.Type == lexer.TokenBlockOpen || isStatementEnd(tk)
	}, false)
	sel.TrimSpace()

	if sel.IsEmpty() {
		p.addUnexpected(p.peek(), "a selector")
		return nil
	}

	node := &NodeExtend{
		Pos:      Pos(tk.Start),
		Selector: sel,
	}

	for p.peek().Type == lexer.TokenFlag {
		flag := p.take()
		if flagName(flag) != "optional" {
			p.addUnexpected(flag, `"!optional"`)
			return nil
		}

		node.Optional = true
	}

	p.endStatement()
	return node
}

func (p *parser) parseMessage(tk *lexer.Token, name string) Node {
	val := p.parseExpression()
	if val == nil {
		return nil
	}

	p.endStatement()

	kind := MessageWarn
	switch name {
	case "debug":
		kind = MessageDebug
	case "error":
		kind = MessageError
	}

	return &NodeMessage{
		Pos:   Pos(tk.Start),
		Kind:  kind,
		Value: val,
	}
}

func (p *parser) parseAtRoot(tk *lexer.Token) Node {
	node := &NodeAtRoot{Pos: Pos(tk.Start)}

	if p.peek().Type != lexer.TokenBlockOpen {
		sel := p.parseRaw(func(tk *lexer.Token) bool {
			return tk.Type == lexer.TokenBlockOpen || isStatementEnd(tk)
		}, false)
		sel.TrimSpace()

		node.Selector = &sel
	}

	node.Nodes = p.parseBlock()
	return node
}

// parseRaw rebuilds source text from tokens until stop reports true for a token
// outside of any brackets. Interpolations become expression parts, as do variables
// when vars is set.
func (p *parser) parseRaw(stop func(tk *lexer.Token) bool, vars bool) Interpolation {
	interp := Interpolation{Pos: Pos(p.peek().Start)}
	depth := 0

	for first := true; !p.failed(); first = false {
		tk := p.peek()
		if tk.Type == lexer.TokenEOF || (depth == 0 && stop(tk)) {
			break
		}

		p.take()

		if tk.SpaceBefore && !first {
			interp.AddText(" ")
		}

		switch tk.Type {
		case lexer.TokenParenOpen, lexer.TokenBracketOpen, lexer.TokenBlockOpen:
			depth++
			interp.AddText(tk.Contents)

		case lexer.TokenParenClose, lexer.TokenBracketClose, lexer.TokenBlockClose:
			depth--
			interp.AddText(tk.Contents)

		case lexer.TokenInterpolationStart:
			interp.AddExpr(p.parseInterpolationBody())

		case lexer.TokenVariable:
			if vars {
				interp.AddExpr(&ExprVariable{
					Pos:  Pos(tk.Start),
					Name: normalizeName(tk.Contents[1:]),
				})
			} else {
				interp.AddText(tk.Contents)
			}

		default:
			interp.AddText(tk.Contents)
		}
	}

	return interp
}

// parseInterpolationBody parses the expression of "#{...}" after its opening token.
func (p *parser) parseInterpolationBody() Expr {
	if end := p.peek(); end.Type == lexer.TokenInterpolationEnd {
		p.addErrorAt(ErrEmptyInterpolation, end.Start)
		return nil
	}

	e := p.parseExpression()
	if e == nil {
		return nil
	}

	p.mustTake(lexer.TokenInterpolationEnd)
	return e
}

func (p *parser) parseQuotedString() *ExprString {
	start := p.take()

	str := &ExprString{
		Pos:    Pos(start.Start),
		Quoted: true,
	}
	str.Parts.Pos = str.Pos

	for !p.failed() {
		tk := p.take()

		switch tk.Type {
		case lexer.TokenStringText:
			str.Parts.AddText(Unescape(tk.Contents))

		case lexer.TokenInterpolationStart:
			str.Parts.AddExpr(p.parseInterpolationBody())

		case lexer.TokenStringEnd:
			return str

		default:
			p.addUnexpected(tk, "end of string")
		}
	}

	return nil
}

// Unescape resolves CSS escape sequences.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	rs := []rune(s)

	for i := 0; i < len(rs); i++ {
		if rs[i] != '\\' || i == len(rs)-1 {
			b.WriteRune(rs[i])
			continue
		}

		i++

		if rs[i] == '\n' {
			continue
		}

		hexEnd := i
		for hexEnd < len(rs) && hexEnd-i < 6 && isHexDigit(rs[hexEnd]) {
			hexEnd++
		}

		if hexEnd == i {
			b.WriteRune(rs[i])
			continue
		}

		code, _ := strconv.ParseUint(string(rs[i:hexEnd]), 16, 32)
		if code == 0 || code > 0x10FFFF {
			code = 0xFFFD
		}
		b.WriteRune(rune(code))

		i = hexEnd - 1
		if hexEnd < len(rs) && slices.Contains([]rune{' ', '\t', '\n'}, rs[hexEnd]) {
			i++
		}
	}

	return b.String()
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
