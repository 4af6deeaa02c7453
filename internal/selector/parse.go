package selector

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type token struct {
	tt   css.TokenType
	data string
}

type parser struct {
	text   string
	tokens []token
	pos    int
}

func tokenize(text string) ([]token, error) {
	l := css.NewLexer(parse.NewInputString(text))

	var tokens []token
	for {
		tt, data := l.Next()

		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, Errorf("invalid selector %q: %s", text, err)
			}
			return tokens, nil

		case css.CommentToken:
			continue

		case css.BadStringToken, css.BadURLToken:
			return nil, Errorf("invalid selector %q", text)
		}

		tokens = append(tokens, token{tt, string(data)})
	}
}

// Parse parses a selector list. Interpolation must already have been applied.
func Parse(text string) (List, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}

	p := &parser{text: text, tokens: tokens}
	return p.parseList()
}

// ParseTargets parses the argument of @extend, which must be a list of
// compound selectors.
func ParseTargets(text string) ([]Compound, error) {
	l, err := Parse(text)
	if err != nil {
		return nil, err
	}

	ret := make([]Compound, 0, len(l))
	for _, c := range l {
		if len(c) != 1 || c[0].Comb != CombDescendant {
			return nil, Errorf("complex selectors may not be extended: %q", c.String())
		}
		if c.hasParent() {
			return nil, Errorf("parent selectors may not be extended: %q", c.String())
		}

		ret = append(ret, c[0].Compound)
	}

	return ret, nil
}

func (p *parser) eof() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() token {
	if p.eof() {
		return token{tt: css.ErrorToken}
	}
	return p.tokens[p.pos]
}

func (p *parser) isDelim(s string) bool {
	t := p.peek()
	return t.tt == css.DelimToken && t.data == s
}

func (p *parser) skipWhitespace() bool {
	skipped := false
	for !p.eof() && p.peek().tt == css.WhitespaceToken {
		p.pos++
		skipped = true
	}
	return skipped
}

func (p *parser) unexpected() error {
	if p.eof() {
		return Errorf("expected selector, got end of input in %q", p.text)
	}
	return Errorf("unexpected %q in selector %q", p.peek().data, p.text)
}

func (p *parser) parseList() (List, error) {
	var l List

	for {
		p.skipWhitespace()

		c, err := p.parseComplex()
		if err != nil {
			return nil, err
		}
		l = append(l, c)

		p.skipWhitespace()
		if p.eof() {
			return l, nil
		}

		if p.peek().tt != css.CommaToken {
			return nil, p.unexpected()
		}
		p.pos++
	}
}

func (p *parser) combinator() (Combinator, bool) {
	switch {
	case p.isDelim(">"):
		return CombChild, true
	case p.isDelim("+"):
		return CombNext, true
	case p.isDelim("~"):
		return CombSibling, true
	}

	return 0, false
}

func (p *parser) parseComplex() (Complex, error) {
	var c Complex

	comb := CombDescendant
	hasComb := false

	for {
		p.skipWhitespace()
		if p.eof() || p.peek().tt == css.CommaToken {
			break
		}

		if cb, ok := p.combinator(); ok {
			if hasComb {
				return nil, Errorf("consecutive combinators in selector %q", p.text)
			}
			p.pos++
			comb, hasComb = cb, true
			continue
		}

		compound, err := p.parseCompound()
		if err != nil {
			return nil, err
		}

		c = append(c, Component{Comb: comb, Compound: compound})
		comb, hasComb = CombDescendant, false
	}

	if hasComb {
		return nil, Errorf("selector %q ends with a combinator", p.text)
	}
	if len(c) == 0 {
		return nil, p.unexpected()
	}

	return c, nil
}

func (p *parser) parseCompound() (Compound, error) {
	var c Compound

loop:
	for !p.eof() {
		t := p.peek()

		switch {
		case t.tt == css.DelimToken && t.data == "&":
			if len(c) > 0 {
				return nil, Errorf("\"&\" may only be used at the beginning of a compound selector in %q", p.text)
			}
			p.pos++
			c = append(c, Simple{Kind: SimpleParent, Text: p.parentSuffix()})

		case t.tt == css.DelimToken && t.data == ".":
			p.pos++
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			c = append(c, Simple{Kind: SimpleClass, Text: "." + name})

		case t.tt == css.DelimToken && t.data == "%":
			p.pos++
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			c = append(c, Simple{Kind: SimplePlaceholder, Text: "%" + name})

		case t.tt == css.HashToken:
			p.pos++
			c = append(c, Simple{Kind: SimpleID, Text: t.data})

		case t.tt == css.IdentToken, t.tt == css.DelimToken && t.data == "*":
			if len(c) > 0 {
				return nil, Errorf("type selector %q must come first in a compound selector in %q", t.data, p.text)
			}
			p.pos++
			c = append(c, Simple{Kind: SimpleType, Text: t.data + p.namespaced()})

		case t.tt == css.LeftBracketToken:
			s, err := p.parseAttribute()
			if err != nil {
				return nil, err
			}
			c = append(c, s)

		case t.tt == css.ColonToken:
			s, err := p.parsePseudo()
			if err != nil {
				return nil, err
			}
			c = append(c, s)

		default:
			break loop
		}
	}

	if len(c) == 0 {
		return nil, p.unexpected()
	}

	return c, nil
}

// parentSuffix consumes the suffix directly attached to "&", as in "&-title".
func (p *parser) parentSuffix() string {
	var b strings.Builder

	for !p.eof() {
		t := p.peek()

		switch t.tt {
		case css.IdentToken, css.NumberToken, css.DimensionToken, css.CustomPropertyNameToken:
		case css.DelimToken:
			if t.data != "-" && t.data != "_" {
				return b.String()
			}
		default:
			return b.String()
		}

		b.WriteString(t.data)
		p.pos++
	}

	return b.String()
}

func (p *parser) expectName() (string, error) {
	t := p.peek()
	if t.tt != css.IdentToken && t.tt != css.CustomPropertyNameToken {
		return "", p.unexpected()
	}

	p.pos++
	return t.data, nil
}

// namespaced consumes a "|name" namespace suffix.
func (p *parser) namespaced() string {
	if !p.isDelim("|") || p.pos+1 >= len(p.tokens) {
		return ""
	}

	next := p.tokens[p.pos+1]
	if next.tt != css.IdentToken && !(next.tt == css.DelimToken && next.data == "*") {
		return ""
	}

	p.pos += 2
	return "|" + next.data
}

func (p *parser) parseAttribute() (Simple, error) {
	p.pos++

	var b strings.Builder
	b.WriteByte('[')

	for {
		if p.eof() {
			return Simple{}, Errorf("unterminated attribute selector in %q", p.text)
		}

		t := p.peek()
		p.pos++

		if t.tt == css.RightBracketToken {
			break
		}

		if t.tt == css.WhitespaceToken {
			b.WriteByte(' ')
		} else {
			b.WriteString(t.data)
		}
	}

	inner := strings.TrimSpace(strings.TrimPrefix(b.String(), "["))
	if inner == "" {
		return Simple{}, Errorf("empty attribute selector in %q", p.text)
	}

	return Simple{Kind: SimpleAttribute, Text: "[" + inner + "]"}, nil
}

func (p *parser) parsePseudo() (Simple, error) {
	p.pos++
	prefix := ":"

	if p.peek().tt == css.ColonToken {
		p.pos++
		prefix = "::"
	}

	t := p.peek()
	switch t.tt {
	case css.IdentToken:
		p.pos++
		return Simple{Kind: SimplePseudo, Text: prefix + t.data}, nil

	case css.FunctionToken:
		p.pos++
		args, err := p.balancedArgs()
		if err != nil {
			return Simple{}, err
		}
		return Simple{Kind: SimplePseudo, Text: prefix + t.data + args + ")"}, nil
	}

	return Simple{}, p.unexpected()
}

// balancedArgs consumes the arguments of a functional pseudo-class up to and
// including its closing parenthesis, returning them with whitespace collapsed.
func (p *parser) balancedArgs() (string, error) {
	var b strings.Builder
	depth := 1

	for {
		if p.eof() {
			return "", Errorf("unterminated pseudo selector arguments in %q", p.text)
		}

		t := p.peek()
		p.pos++

		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return strings.TrimSpace(b.String()), nil
			}
		case css.WhitespaceToken:
			b.WriteByte(' ')
			continue
		}

		b.WriteString(t.data)
	}
}
