package lexer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	serrors "github.com/pipe01/sassy/errors"
)

const debugPrint = false

type LexerError struct {
	Inner    error
	Location Location
}

func (e *LexerError) Unwrap() error {
	return e.Inner
}

func (e *LexerError) Error() string {
	return fmt.Sprintf("%s at %s", e.Inner, &e.Location)
}

func (e *LexerError) At() Location {
	return e.Location
}

func (e *LexerError) Kind() serrors.Kind {
	return serrors.KindLex
}

type UnexpectedRuneError struct {
	Got      rune
	Expected string
}

func (e *UnexpectedRuneError) Error() string {
	return fmt.Sprintf("expected %s, found %q", e.Expected, e.Got)
}

var (
	ErrMixedIndentation          = errors.New("mixed spaces and tabs aren't allowed in indentation")
	ErrInconsistentIndentation   = errors.New("inconsistent indentation")
	ErrUnexpectedIndentation     = errors.New("unexpected indentation")
	ErrUnterminatedString        = errors.New("unterminated string")
	ErrUnterminatedURL           = errors.New("unterminated url")
	ErrUnterminatedComment       = errors.New("unterminated comment")
	ErrUnterminatedInterpolation = errors.New("unterminated interpolation")
)

type stateFunc func() stateFunc

type state struct {
	str      []rune
	strStart Location

	byteIndex int
	line, col int
}

type interpolation struct {
	braces   int
	returnTo stateFunc
}

type Lexer struct {
	filename string
	file     []byte
	syntax   Syntax

	tokens chan Token

	state

	spaceBefore bool
	parens      int
	interps     []interpolation

	// Indented syntax only.
	indents     []int
	indentChar  rune
	lineIndent  int
	lastType    TokenType
	emittedSome bool

	err *LexerError
}

func New(file []byte, fileName string, syntax Syntax) *Lexer {
	tks := make(chan Token, 16)

	lexer := &Lexer{
		tokens:   tks,
		file:     file,
		filename: fileName,
		syntax:   syntax,
		indents:  []int{0},
	}

	if bytes.HasPrefix(file, []byte("\xef\xbb\xbf")) {
		lexer.byteIndex = 3
	}
	lexer.discard()

	go func() {
		defer close(tks)

		state := lexer.lexStart()
		for state != nil {
			state = state()

			if lexer.err != nil {
				return
			}
		}

		tks <- Token{
			Type: TokenEOF,
			Start: Location{
				File:   lexer.filename,
				Line:   lexer.line,
				Column: lexer.col,
				Offset: lexer.byteIndex,
			},
			SpaceBefore: lexer.spaceBefore,
		}
	}()

	return lexer
}

func (l *Lexer) Next() (*Token, error) {
	t, ok := <-l.tokens
	if !ok {
		if l.err != nil {
			return nil, l.err
		}

		return nil, io.EOF
	}

	return &t, nil
}

func (l *Lexer) Collect() ([]Token, error) {
	tks := []Token{}

	for t := range l.tokens {
		tks = append(tks, t)

		if t.Type == TokenEOF {
			break
		}
	}

	if l.err != nil {
		return nil, l.err
	}

	return tks, nil
}

func (l *Lexer) take() (r rune, eof bool) {
	if l.byteIndex < len(l.file) && l.file[l.byteIndex] == '\r' {
		l.byteIndex++
	}
	if l.byteIndex >= len(l.file) {
		return 0, true
	}

	r, size := utf8.DecodeRune(l.file[l.byteIndex:])

	l.str = append(l.str, r)

	l.col++
	l.byteIndex += size

	if r == '\n' {
		l.line++
		l.col = 0
	}

	if debugPrint {
		fmt.Printf("take %q\n", r)
	}

	return r, false
}

func (l *Lexer) peek() (r rune, eof bool) {
	r = l.peekAt(0)
	return r, r == 0 && l.atEOF()
}

// peekAt returns the rune n positions ahead, or 0 past the end of the file.
func (l *Lexer) peekAt(n int) rune {
	idx := l.byteIndex

	for {
		if idx < len(l.file) && l.file[idx] == '\r' {
			idx++
		}
		if idx >= len(l.file) {
			return 0
		}

		r, size := utf8.DecodeRune(l.file[idx:])
		if n == 0 {
			return r
		}

		idx += size
		n--
	}
}

func (l *Lexer) atEOF() bool {
	idx := l.byteIndex
	for idx < len(l.file) && l.file[idx] == '\r' {
		idx++
	}

	return idx >= len(l.file)
}

func (l *Lexer) takeMany(n int) (eof bool) {
	for i := 0; i < n; i++ {
		_, eof = l.take()
		if eof {
			return true
		}
	}

	return false
}

func (l *Lexer) takeWhile(fn func(r rune) bool) {
	for {
		r, eof := l.peek()
		if eof || !fn(r) {
			return
		}

		l.take()
	}
}

func (l *Lexer) takeUntilNewline() {
	l.takeWhile(func(r rune) bool { return r != '\n' })
}

// takeName consumes identifier characters, including escapes.
func (l *Lexer) takeName() {
	for {
		r, eof := l.peek()
		if eof {
			return
		}

		switch {
		case isNameChar(r):
			l.take()
		case r == '\\' && l.peekAt(1) != '\n' && l.peekAt(1) != 0:
			l.takeMany(2)
		default:
			return
		}
	}
}

// takeVariableName is like takeName but leaves a trailing hyphen alone, so that
// "$a-$b" is a subtraction.
func (l *Lexer) takeVariableName() {
	for {
		r := l.peekAt(0)

		switch {
		case r == '-' && !isNameChar(l.peekAt(1)):
			return
		case isNameChar(r):
			l.take()
		default:
			return
		}
	}
}

func (l *Lexer) emit(typ TokenType) {
	l.tokens <- Token{
		Type:        typ,
		Start:       l.strStart,
		Contents:    string(l.str),
		SpaceBefore: l.spaceBefore,
	}

	l.spaceBefore = false
	l.lastType = typ
	l.emittedSome = true

	l.discard()
}

// emitImplicit emits a zero-width token synthesized from the indentation.
func (l *Lexer) emitImplicit(typ TokenType) {
	pending := l.str
	l.str = nil
	l.emit(typ)
	l.str = pending
}

func (l *Lexer) discard() {
	l.strStart = Location{
		File:   l.filename,
		Line:   l.line,
		Column: l.col,
		Offset: l.byteIndex,
	}
	l.str = l.str[:0]
}

func (l *Lexer) isEmpty() bool {
	return len(l.str) == 0
}

func (l *Lexer) lexError(err error) stateFunc {
	l.err = &LexerError{
		Inner:    err,
		Location: l.strStart,
	}
	return nil
}

func (l *Lexer) lexErrorAt(err error, loc Location) stateFunc {
	l.err = &LexerError{
		Inner:    err,
		Location: loc,
	}
	return nil
}

func (l *Lexer) lexUnexpected(got rune, expected string) stateFunc {
	return l.lexError(&UnexpectedRuneError{
		Got:      got,
		Expected: expected,
	})
}

func (l *Lexer) lexStart() stateFunc {
	if l.syntax == SyntaxIndented {
		return l.lexIndentation
	}

	return l.lexToken
}

func (l *Lexer) lexEOF() stateFunc {
	if len(l.interps) > 0 {
		return l.lexError(ErrUnterminatedInterpolation)
	}

	if l.syntax == SyntaxIndented {
		l.discard()
		l.emitStatementEnd()

		for len(l.indents) > 1 {
			l.indents = l.indents[:len(l.indents)-1]
			l.emitImplicit(TokenBlockClose)
		}
	}

	return nil
}

// takeIndentation consumes the leading whitespace of a line, returning its width.
func (l *Lexer) takeIndentation() (width int, ok bool) {
	var spaces, tabs int

	for {
		r, eof := l.peek()
		if eof {
			break
		}

		switch r {
		case ' ':
			spaces++
		case '\t':
			tabs++
		default:
			if r != '\n' && spaces > 0 && tabs > 0 {
				l.discard()
				l.lexError(ErrMixedIndentation)
				return 0, false
			}

			if r != '\n' && width > 0 {
				used := ' '
				if tabs > 0 {
					used = '\t'
				}

				if l.indentChar == 0 {
					l.indentChar = used
				} else if l.indentChar != used {
					l.discard()
					l.lexError(ErrMixedIndentation)
					return 0, false
				}
			}

			return width, true
		}

		width++
		l.take()
	}

	return width, true
}

func (l *Lexer) lexIndentation() stateFunc {
	var width int

	for {
		var ok bool

		width, ok = l.takeIndentation()
		if !ok {
			return nil
		}

		r, eof := l.peek()
		if eof {
			return l.lexEOF
		}

		if r == '\n' {
			l.take()
			continue
		}

		if r == '/' && l.peekAt(1) == '/' {
			l.takeUntilNewline()
			continue
		}

		if r == '/' && l.peekAt(1) == '*' && l.peekAt(2) != '!' {
			l.lineIndent = width
			if !l.skipBlockComment() {
				return nil
			}

			l.takeWhile(isWhitespace)
			if r, eof := l.peek(); eof || r == '\n' {
				continue
			}
		}

		break
	}

	l.discard()
	l.lineIndent = width

	top := l.indents[len(l.indents)-1]

	// A trailing comma continues the statement on the next line.
	if l.lastType == TokenComma && l.emittedSome {
		l.spaceBefore = true
		return l.lexLineStart
	}

	switch {
	case width > top:
		if !l.emittedSome || l.lastType == TokenBlockOpen {
			return l.lexError(ErrUnexpectedIndentation)
		}

		l.emitImplicit(TokenBlockOpen)
		l.indents = append(l.indents, width)

	case width == top:
		l.emitStatementEnd()

	default:
		l.emitStatementEnd()

		for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
			l.indents = l.indents[:len(l.indents)-1]
			l.emitImplicit(TokenBlockClose)
		}

		if l.indents[len(l.indents)-1] != width {
			return l.lexError(ErrInconsistentIndentation)
		}
	}

	return l.lexLineStart
}

func (l *Lexer) emitStatementEnd() {
	if !l.emittedSome {
		return
	}

	switch l.lastType {
	case TokenSemicolon, TokenBlockOpen, TokenBlockClose:
		return
	}

	l.emitImplicit(TokenSemicolon)
}

// lexLineStart handles the indented syntax's mixin shorthands.
func (l *Lexer) lexLineStart() stateFunc {
	r, _ := l.peek()

	switch {
	case r == '=' && l.peekAt(1) != '=':
		l.take()
		l.str = []rune("@mixin")
		l.emit(TokenAtKeyword)
		l.spaceBefore = true

	case r == '+' && isNameStart(l.peekAt(1)):
		l.take()
		l.str = []rune("@include")
		l.emit(TokenAtKeyword)
		l.spaceBefore = true
	}

	return l.lexToken
}

func (l *Lexer) lexToken() stateFunc {
	for {
		r, eof := l.peek()
		if eof {
			return l.lexEOF
		}

		switch {
		case r == ' ' || r == '\t' || r == '\f':
			l.take()
			l.spaceBefore = true
			continue

		case r == '\n':
			l.take()
			if l.syntax == SyntaxIndented && l.parens == 0 && len(l.interps) == 0 {
				return l.lexIndentation
			}

			l.spaceBefore = true
			continue

		case r == '/' && l.peekAt(1) == '/':
			l.takeUntilNewline()
			l.spaceBefore = true
			continue

		case r == '/' && l.peekAt(1) == '*':
			l.discard()
			return l.lexBlockComment
		}

		break
	}

	l.discard()

	r, _ := l.take()

	switch {
	case r == '"' || r == '\'':
		l.emit(TokenStringStart)
		return l.lexString(r, l.strStart)

	case isDigit(r) || (r == '.' && isDigit(l.peekAt(0))):
		return l.lexNumber(r)

	case r == '$':
		if !isNameStart(l.peekAt(0)) && l.peekAt(0) != '-' {
			l.emit(TokenDelim)
			return l.lexToken
		}

		l.takeVariableName()
		l.emit(TokenVariable)

	case r == '@':
		l.takeName()
		if len(l.str) == 1 {
			l.emit(TokenDelim)
		} else {
			l.emit(TokenAtKeyword)
		}

	case r == '#':
		if next, _ := l.peek(); next == '{' {
			l.take()
			l.emit(TokenInterpolationStart)
			l.interps = append(l.interps, interpolation{returnTo: l.lexToken})
			return l.lexToken
		}

		l.takeName()
		if len(l.str) == 1 {
			l.emit(TokenDelim)
		} else {
			l.emit(TokenHash)
		}

	case r == '!':
		switch {
		case l.peekAt(0) == '=':
			l.take()
			l.emit(TokenNotEquals)
		case isNameStart(l.peekAt(0)):
			l.takeName()
			l.emit(TokenFlag)
		case l.peekAt(0) == ' ' && isNameStart(l.peekAt(1)):
			l.take()
			l.takeName()
			l.emit(TokenFlag)
		default:
			l.emit(TokenDelim)
		}

	case isNameStart(r) || r == '\\' || (r == '-' && startsName(l.peekAt(0), l.peekAt(1))):
		if r == '\\' {
			l.take()
		}
		l.takeName()

		if strings.EqualFold(string(l.str), "url") && l.peekAt(0) == '(' && l.isRawURL() {
			l.take()
			return l.lexURLBody
		}

		l.emit(TokenIdentifier)

	case r == '{':
		if n := len(l.interps); n > 0 {
			l.interps[n-1].braces++
		}
		l.emit(TokenBlockOpen)

	case r == '}':
		if n := len(l.interps); n > 0 {
			top := l.interps[n-1]
			if top.braces == 0 {
				l.interps = l.interps[:n-1]
				l.emit(TokenInterpolationEnd)
				return top.returnTo
			}

			l.interps[n-1].braces--
		}
		l.emit(TokenBlockClose)

	case r == '(':
		l.parens++
		l.emit(TokenParenOpen)

	case r == ')':
		l.parens = max(l.parens-1, 0)
		l.emit(TokenParenClose)

	case r == '[':
		l.parens++
		l.emit(TokenBracketOpen)

	case r == ']':
		l.parens = max(l.parens-1, 0)
		l.emit(TokenBracketClose)

	case r == ';':
		l.emit(TokenSemicolon)

	case r == ':':
		l.emit(TokenColon)

	case r == ',':
		l.emit(TokenComma)

	case r == '.':
		if l.peekAt(0) == '.' && l.peekAt(1) == '.' {
			l.takeMany(2)
			l.emit(TokenEllipsis)
		} else {
			l.emit(TokenDot)
		}

	case r == '&':
		l.emit(TokenAmpersand)

	case r == '+':
		l.emit(TokenPlus)

	case r == '-':
		l.emit(TokenMinus)

	case r == '*':
		l.emit(TokenStar)

	case r == '/':
		l.emit(TokenSlash)

	case r == '%':
		l.emit(TokenPercent)

	case r == '=':
		if l.peekAt(0) == '=' {
			l.take()
			l.emit(TokenEquals)
		} else {
			l.emit(TokenAssign)
		}

	case r == '<':
		if l.peekAt(0) == '=' {
			l.take()
			l.emit(TokenLessEquals)
		} else {
			l.emit(TokenLess)
		}

	case r == '>':
		if l.peekAt(0) == '=' {
			l.take()
			l.emit(TokenGreaterEquals)
		} else {
			l.emit(TokenGreater)
		}

	case r == '~':
		l.emit(TokenTilde)

	default:
		l.emit(TokenDelim)
	}

	return l.lexToken
}

func (l *Lexer) lexNumber(first rune) stateFunc {
	if first != '.' {
		l.takeWhile(isDigit)

		if l.peekAt(0) == '.' && isDigit(l.peekAt(1)) {
			l.take()
		}
	}
	l.takeWhile(isDigit)

	if r := l.peekAt(0); r == 'e' || r == 'E' {
		next := l.peekAt(1)
		if isDigit(next) {
			l.take()
			l.takeWhile(isDigit)
		} else if (next == '+' || next == '-') && isDigit(l.peekAt(2)) {
			l.takeMany(2)
			l.takeWhile(isDigit)
		}
	}

	if r := l.peekAt(0); r == '%' {
		l.take()
	} else if isLetter(r) {
		l.take()

		// A hyphen followed by a digit starts a subtraction, not more unit.
		for r := l.peekAt(0); isNameChar(r) && !(r == '-' && isDigit(l.peekAt(1))); r = l.peekAt(0) {
			l.take()
		}
	}

	l.emit(TokenNumber)
	return l.lexToken
}

func (l *Lexer) lexString(quote rune, start Location) stateFunc {
	var fn stateFunc

	fn = func() stateFunc {
		for {
			r, eof := l.peek()
			if eof || r == '\n' {
				return l.lexErrorAt(ErrUnterminatedString, start)
			}

			switch {
			case r == quote:
				if !l.isEmpty() {
					l.emit(TokenStringText)
				}

				l.take()
				l.emit(TokenStringEnd)
				return l.lexToken

			case r == '\\':
				l.take()
				if _, eof := l.take(); eof {
					return l.lexErrorAt(ErrUnterminatedString, start)
				}

			case r == '#' && l.peekAt(1) == '{':
				if !l.isEmpty() {
					l.emit(TokenStringText)
				}

				l.takeMany(2)
				l.emit(TokenInterpolationStart)
				l.interps = append(l.interps, interpolation{returnTo: fn})
				return l.lexToken

			default:
				l.take()
			}
		}
	}

	return fn
}

// isRawURL reports whether the "url(" about to be consumed holds an unquoted argument.
func (l *Lexer) isRawURL() bool {
	for i := 1; ; i++ {
		switch r := l.peekAt(i); r {
		case ' ', '\t', '\n':
			continue
		case '"', '\'', '$', 0:
			return false
		default:
			return true
		}
	}
}

func (l *Lexer) lexURLBody() stateFunc {
	start := l.strStart

	for {
		r, eof := l.peek()
		if eof {
			return l.lexErrorAt(ErrUnterminatedURL, start)
		}

		switch {
		case r == ')':
			l.take()
			l.emit(TokenURL)
			return l.lexToken

		case r == '\\':
			l.takeMany(2)

		case r == '#' && l.peekAt(1) == '{':
			l.emit(TokenURL)

			l.takeMany(2)
			l.emit(TokenInterpolationStart)
			l.interps = append(l.interps, interpolation{returnTo: l.lexURLBody})
			return l.lexToken

		default:
			l.take()
		}
	}
}

func (l *Lexer) lexBlockComment() stateFunc {
	l.takeMany(2)

	loud := l.peekAt(0) == '!'

	for {
		r, eof := l.peek()
		if eof {
			if l.syntax == SyntaxIndented {
				break
			}

			return l.lexError(ErrUnterminatedComment)
		}

		if r == '*' && l.peekAt(1) == '/' {
			l.takeMany(2)
			break
		}

		if r == '\n' && l.syntax == SyntaxIndented && l.commentEndsAtLine() {
			break
		}

		l.take()
	}

	if loud {
		l.emit(TokenComment)
	} else {
		l.discard()
		l.spaceBefore = true
	}

	return l.lexToken
}

// skipBlockComment consumes a silent comment at the start of an indented line.
func (l *Lexer) skipBlockComment() bool {
	l.discard()
	l.takeMany(2)

	for {
		r, eof := l.peek()
		if eof {
			return true
		}

		if r == '*' && l.peekAt(1) == '/' {
			l.takeMany(2)
			return true
		}

		if r == '\n' && l.commentEndsAtLine() {
			return true
		}

		l.take()
	}
}

// commentEndsAtLine reports whether an unclosed indented-syntax comment ends before
// the line that follows, because that line isn't indented past the comment.
func (l *Lexer) commentEndsAtLine() bool {
	idx := l.byteIndex + 1

	for idx < len(l.file) {
		width := 0
		for idx < len(l.file) && (l.file[idx] == ' ' || l.file[idx] == '\t') {
			width++
			idx++
		}

		if idx >= len(l.file) {
			return true
		}

		switch l.file[idx] {
		case '\n', '\r':
			idx++
			continue
		}

		return width <= l.lineIndent
	}

	return true
}

func startsName(a, b rune) bool {
	return isNameStart(a) || a == '\\' || (a == '-' && (isNameStart(b) || b == '-' || b == '\\'))
}

func isNameStart(r rune) bool {
	return r == '_' || isLetter(r) || r >= utf8.RuneSelf
}

func isNameChar(r rune) bool {
	return isNameStart(r) || isDigit(r) || r == '-'
}

func isLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= utf8.RuneSelf && unicode.IsLetter(r))
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t'
}
