package lexer

import "fmt"

type TokenType int

const (
	TokenIdentifier TokenType = iota
	TokenVariable
	TokenNumber
	TokenHash
	TokenAtKeyword
	TokenFlag
	TokenURL

	TokenStringStart
	TokenStringText
	TokenStringEnd

	TokenInterpolationStart
	TokenInterpolationEnd

	TokenBlockOpen
	TokenBlockClose
	TokenSemicolon

	TokenParenOpen
	TokenParenClose
	TokenBracketOpen
	TokenBracketClose

	TokenColon
	TokenComma
	TokenDot
	TokenEllipsis
	TokenAmpersand
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenAssign
	TokenEquals
	TokenNotEquals
	TokenLess
	TokenLessEquals
	TokenGreater
	TokenGreaterEquals
	TokenTilde
	TokenDelim

	TokenComment

	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenIdentifier:
		return "Identifier"
	case TokenVariable:
		return "Variable"
	case TokenNumber:
		return "Number"
	case TokenHash:
		return "Hash"
	case TokenAtKeyword:
		return "At-keyword"
	case TokenFlag:
		return "Flag"
	case TokenURL:
		return "URL"

	case TokenStringStart:
		return "String start"
	case TokenStringText:
		return "String text"
	case TokenStringEnd:
		return "String end"

	case TokenInterpolationStart:
		return "Interpolation start"
	case TokenInterpolationEnd:
		return "Interpolation end"

	case TokenBlockOpen:
		return "Block open"
	case TokenBlockClose:
		return "Block close"
	case TokenSemicolon:
		return "Semicolon"

	case TokenParenOpen:
		return "Parentheses open"
	case TokenParenClose:
		return "Parentheses close"
	case TokenBracketOpen:
		return "Bracket open"
	case TokenBracketClose:
		return "Bracket close"

	case TokenColon:
		return "Colon"
	case TokenComma:
		return "Comma"
	case TokenDot:
		return "Dot"
	case TokenEllipsis:
		return "Ellipsis"
	case TokenAmpersand:
		return "Ampersand"
	case TokenPlus:
		return "Plus"
	case TokenMinus:
		return "Minus"
	case TokenStar:
		return "Star"
	case TokenSlash:
		return "Slash"
	case TokenPercent:
		return "Percent"
	case TokenAssign:
		return "Assign"
	case TokenEquals:
		return "Equals"
	case TokenNotEquals:
		return "Not equals"
	case TokenLess:
		return "Less"
	case TokenLessEquals:
		return "Less or equal"
	case TokenGreater:
		return "Greater"
	case TokenGreaterEquals:
		return "Greater or equal"
	case TokenTilde:
		return "Tilde"
	case TokenDelim:
		return "Delimiter"

	case TokenComment:
		return "Comment"

	case TokenEOF:
		return "EOF"
	}

	return "<unknown>"
}

// Syntax selects the surface syntax of a source file.
type Syntax int

const (
	// SyntaxSCSS is the brace-delimited syntax.
	SyntaxSCSS Syntax = iota
	// SyntaxIndented is the indentation-delimited syntax.
	SyntaxIndented
)

type Token struct {
	Type     TokenType
	Start    Location
	Contents string

	// SpaceBefore is set when whitespace or a comment separates this token
	// from the previous one.
	SpaceBefore bool
}

type Location struct {
	File string

	// 0-based
	Line, Column int
	Offset       int
}

func (l *Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line+1, l.Column+1)
}
