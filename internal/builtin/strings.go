package builtin

import (
	"strings"

	"github.com/google/uuid"

	"github.com/pipe01/sassy/internal/value"
)

func init() {
	register("unquote", "$string", func(env Env, args []value.Value) (value.Value, error) {
		s, ok := args[0].(*value.String)
		if !ok {
			return args[0], nil
		}
		return value.Unquoted(s.Text), nil
	})

	register("quote", "$string", func(env Env, args []value.Value) (value.Value, error) {
		s, err := str(args, 0, "string")
		if err != nil {
			return nil, err
		}
		return value.Quoted(s.Text), nil
	})

	register("str-length", "$string", func(env Env, args []value.Value) (value.Value, error) {
		s, err := str(args, 0, "string")
		if err != nil {
			return nil, err
		}
		return value.Int(int64(len([]rune(s.Text)))), nil
	})

	register("str-insert", "$string, $insert, $index", func(env Env, args []value.Value) (value.Value, error) {
		s, err := str(args, 0, "string")
		if err != nil {
			return nil, err
		}
		ins, err := str(args, 1, "insert")
		if err != nil {
			return nil, err
		}
		idx, err := integer(args, 2, "index")
		if err != nil {
			return nil, err
		}

		rs := []rune(s.Text)
		n := int64(len(rs))

		if idx < 0 {
			idx = n + idx + 2
		}
		idx = clampInt(idx, 1, n+1)

		text := string(rs[:idx-1]) + ins.Text + string(rs[idx-1:])
		return &value.String{Text: text, Quoted: s.Quoted}, nil
	})

	register("str-index", "$string, $substring", func(env Env, args []value.Value) (value.Value, error) {
		s, err := str(args, 0, "string")
		if err != nil {
			return nil, err
		}
		sub, err := str(args, 1, "substring")
		if err != nil {
			return nil, err
		}

		i := strings.Index(s.Text, sub.Text)
		if i < 0 {
			return value.Null{}, nil
		}

		return value.Int(int64(len([]rune(s.Text[:i]))) + 1), nil
	})

	register("str-slice", "$string, $start-at, $end-at: -1", func(env Env, args []value.Value) (value.Value, error) {
		s, err := str(args, 0, "string")
		if err != nil {
			return nil, err
		}
		start, err := integer(args, 1, "start-at")
		if err != nil {
			return nil, err
		}
		end, err := integer(args, 2, "end-at")
		if err != nil {
			return nil, err
		}

		rs := []rune(s.Text)
		n := int64(len(rs))

		if start < 0 {
			start = n + start + 1
		}
		if end < 0 {
			end = n + end + 1
		}
		start = clampInt(start, 1, n+1)
		end = clampInt(end, 0, n)

		if end < start {
			return &value.String{Quoted: s.Quoted}, nil
		}

		return &value.String{Text: string(rs[start-1 : end]), Quoted: s.Quoted}, nil
	})

	register("to-upper-case", "$string", func(env Env, args []value.Value) (value.Value, error) {
		s, err := str(args, 0, "string")
		if err != nil {
			return nil, err
		}
		return &value.String{Text: strings.Map(asciiUpper, s.Text), Quoted: s.Quoted}, nil
	})

	register("to-lower-case", "$string", func(env Env, args []value.Value) (value.Value, error) {
		s, err := str(args, 0, "string")
		if err != nil {
			return nil, err
		}
		return &value.String{Text: strings.Map(asciiLower, s.Text), Quoted: s.Quoted}, nil
	})

	register("unique-id", "", func(env Env, args []value.Value) (value.Value, error) {
		id, err := uuid.NewRandomFromReader(env.Rand())
		if err != nil {
			return nil, err
		}

		// Identifiers may not start with a digit.
		return value.Unquoted("u" + strings.ReplaceAll(id.String(), "-", "")[:12]), nil
	})
}

func clampInt(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func asciiUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

func asciiLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r - 'A' + 'a'
	}
	return r
}
