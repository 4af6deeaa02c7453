package value

import (
	"strings"

	serrors "github.com/pipe01/sassy/errors"
)

// ToCSS renders v as it appears in a declaration value.
func ToCSS(v Value, compressed bool) (string, error) {
	switch v := v.(type) {
	case *Number:
		if err := checkCSSUnits(v); err != nil {
			return "", err
		}
		return v.format(compressed), nil

	case *Color:
		return v.format(compressed), nil

	case *String:
		if v.Quoted {
			return QuoteString(v.Text), nil
		}
		return v.Text, nil

	case Bool:
		return Inspect(v), nil

	case Null:
		return "", nil

	case *List, *ArgList:
		items, sep, bracketed := listParts(v)

		parts := make([]string, 0, len(items))
		for _, it := range items {
			if IsNull(it) {
				continue
			}

			s, err := ToCSS(it, compressed)
			if err != nil {
				return "", err
			}
			if s != "" {
				parts = append(parts, s)
			}
		}

		s := strings.Join(parts, sep.join(compressed))
		if bracketed {
			s = "[" + s + "]"
		}
		return s, nil

	case *Map, *Function:
		return "", newError(serrors.KindSerialization, "%s isn't a valid CSS value", Inspect(v))
	}

	return "", newError(serrors.KindSerialization, "unknown value %T", v)
}

func checkCSSUnits(n *Number) error {
	if n.Slash != nil {
		if err := checkCSSUnits(n.Slash.Num); err != nil {
			return err
		}
		return checkCSSUnits(n.Slash.Den)
	}

	if !n.Units.IsSimple() {
		return newError(serrors.KindInvalidUnitResult, "%s isn't a valid CSS value", n.format(false))
	}

	return nil
}

// Inspect renders v as a SassScript literal, as used by inspect() and @debug.
func Inspect(v Value) string {
	switch v := v.(type) {
	case *Number:
		return v.format(false)

	case *Color:
		return v.format(false)

	case *String:
		if v.Quoted {
			return QuoteString(v.Text)
		}
		return v.Text

	case Bool:
		if v {
			return "true"
		}
		return "false"

	case Null:
		return "null"

	case *List, *ArgList:
		items, sep, bracketed := listParts(v)
		open, close := "(", ")"
		if bracketed {
			open, close = "[", "]"
		}

		if len(items) == 0 {
			return open + close
		}

		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = inspectElement(it, sep)
		}

		if sep == SepComma && len(items) == 1 {
			return open + parts[0] + "," + close
		}

		s := strings.Join(parts, sep.join(false))
		if bracketed {
			return open + s + close
		}
		return s

	case *Map:
		parts := make([]string, v.Len())
		for i := range v.Keys {
			parts[i] = inspectElement(v.Keys[i], SepComma) + ": " + inspectElement(v.Values[i], SepComma)
		}
		return "(" + strings.Join(parts, ", ") + ")"

	case *Function:
		return `get-function(` + QuoteString(v.Name) + `)`
	}

	return "<unknown>"
}

// inspectElement parenthesizes nested lists that would otherwise be ambiguous.
func inspectElement(v Value, parent Separator) string {
	s := Inspect(v)

	l, ok := v.(*List)
	if !ok || l.Bracketed || len(l.Items) < 2 {
		return s
	}

	if l.Sep == SepComma || (l.Sep == SepSpace && parent == SepSpace) || (l.Sep == SepSlash && parent == SepSlash) {
		return "(" + s + ")"
	}

	return s
}

// Plain renders v for interpolation: strings lose their quotes.
func Plain(v Value) string {
	switch v := v.(type) {
	case *String:
		return v.Text

	case Null:
		return ""

	case *List, *ArgList:
		items, sep, bracketed := listParts(v)

		parts := make([]string, 0, len(items))
		for _, it := range items {
			if !IsNull(it) {
				parts = append(parts, Plain(it))
			}
		}

		s := strings.Join(parts, sep.join(false))
		if bracketed {
			s = "[" + s + "]"
		}
		return s
	}

	return Inspect(v)
}

// QuoteString quotes s, preferring double quotes.
func QuoteString(s string) string {
	q := '"'
	if strings.ContainsRune(s, '"') && !strings.ContainsRune(s, '\'') {
		q = '\''
	}

	var b strings.Builder
	b.WriteRune(q)

	rs := []rune(s)
	for i, r := range rs {
		switch {
		case r == q || r == '\\':
			b.WriteRune('\\')
			b.WriteRune(r)

		case r == '\n':
			b.WriteString(`\a`)
			if i+1 < len(rs) && (isHexRune(rs[i+1]) || rs[i+1] == ' ') {
				b.WriteRune(' ')
			}

		default:
			b.WriteRune(r)
		}
	}

	b.WriteRune(q)
	return b.String()
}

func isHexRune(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
