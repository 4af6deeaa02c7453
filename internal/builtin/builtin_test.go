package builtin

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/value"
)

type testEnv struct {
	rng *rand.Rand
}

func (e *testEnv) Rand() *rand.Rand {
	return e.rng
}

func newEnv(seed int64) *testEnv {
	return &testEnv{rng: rand.New(rand.NewSource(seed))}
}

func callNamed(t *testing.T, env Env, name string, args []value.Value, named ...NamedArg) (value.Value, error) {
	t.Helper()

	names := make([]string, len(named))
	for i, n := range named {
		names[i] = n.Name
	}

	f, err := Resolve(name, len(args), names)
	if err != nil {
		return nil, err
	}

	bound, err := f.Bind(args, named, value.SepComma)
	if err != nil {
		return nil, err
	}

	return f.Call(env, bound)
}

func call(t *testing.T, name string, args ...value.Value) string {
	t.Helper()

	v, err := callNamed(t, newEnv(1), name, args)
	require.NoError(t, err)

	return value.Inspect(v)
}

func n(t *testing.T, literal string) *value.Number {
	t.Helper()

	end := len(literal)
	for end > 0 && !(literal[end-1] >= '0' && literal[end-1] <= '9') {
		end--
	}

	num, err := value.ParseNumber(literal[:end], literal[end:])
	require.NoError(t, err)
	return num
}

func c(t *testing.T, hex string) *value.Color {
	t.Helper()

	col, ok := value.ParseHex(hex)
	require.True(t, ok)
	return col
}

func list(sep value.Separator, items ...value.Value) *value.List {
	return value.NewList(items, sep)
}

func TestBuiltins(t *testing.T) {
	type testCase struct {
		name string
		fn   string
		args []value.Value
		want string
	}

	m := (&value.Map{}).With(value.Unquoted("a"), value.Int(1)).With(value.Unquoted("b"), value.Int(2))
	abc := list(value.SepSpace, value.Unquoted("a"), value.Unquoted("b"), value.Unquoted("c"))

	cases := []testCase{
		{"percentage", "percentage", []value.Value{n(t, "0.5")}, "50%"},
		{"round", "round", []value.Value{n(t, "1.5px")}, "2px"},
		{"floor", "floor", []value.Value{n(t, "1.7")}, "1"},
		{"abs", "abs", []value.Value{n(t, "-3em")}, "3em"},
		{"min", "min", []value.Value{n(t, "1px"), n(t, "3px"), n(t, "2px")}, "1px"},
		{"max converts", "max", []value.Value{n(t, "1in"), n(t, "3px")}, "1in"},
		{"min plain css", "min", []value.Value{n(t, "1px"), value.Unquoted("var(--x)")}, "min(1px, var(--x))"},
		{"unit", "unit", []value.Value{n(t, "1px")}, `"px"`},
		{"unitless", "unitless", []value.Value{n(t, "1")}, "true"},
		{"comparable", "comparable", []value.Value{n(t, "1px"), n(t, "1in")}, "true"},
		{"not comparable", "comparable", []value.Value{n(t, "1px"), n(t, "1s")}, "false"},

		{"str-length", "str-length", []value.Value{value.Quoted("abc")}, "3"},
		{"str-insert start", "str-insert", []value.Value{value.Quoted("abcd"), value.Quoted("X"), n(t, "1")}, `"Xabcd"`},
		{"str-insert end", "str-insert", []value.Value{value.Quoted("abcd"), value.Quoted("X"), n(t, "-1")}, `"abcdX"`},
		{"str-index", "str-index", []value.Value{value.Quoted("abc"), value.Quoted("c")}, "3"},
		{"str-index missing", "str-index", []value.Value{value.Quoted("abc"), value.Quoted("z")}, "null"},
		{"str-slice", "str-slice", []value.Value{value.Quoted("abcd"), n(t, "2"), n(t, "3")}, `"bc"`},
		{"str-slice to end", "str-slice", []value.Value{value.Quoted("abcd"), n(t, "2")}, `"bcd"`},
		{"upper", "to-upper-case", []value.Value{value.Unquoted("abc")}, "ABC"},
		{"unquote", "unquote", []value.Value{value.Quoted("a b")}, "a b"},
		{"quote", "quote", []value.Value{value.Unquoted("a")}, `"a"`},

		{"length", "length", []value.Value{abc}, "3"},
		{"length of single value", "length", []value.Value{n(t, "1px")}, "1"},
		{"nth", "nth", []value.Value{abc, n(t, "2")}, "b"},
		{"nth negative", "nth", []value.Value{abc, n(t, "-1")}, "c"},
		{"set-nth", "set-nth", []value.Value{abc, n(t, "1"), value.Unquoted("x")}, "x b c"},
		{"join", "join", []value.Value{list(value.SepComma, n(t, "1"), n(t, "2")), n(t, "3")}, "1, 2, 3"},
		{"join separator", "join", []value.Value{abc, abc, value.Unquoted("comma")}, "a, b, c, a, b, c"},
		{"append", "append", []value.Value{list(value.SepSpace, n(t, "1"), n(t, "2")), n(t, "3")}, "1 2 3"},
		{"index", "index", []value.Value{abc, value.Unquoted("b")}, "2"},
		{"list-separator", "list-separator", []value.Value{list(value.SepComma, n(t, "1"), n(t, "2"))}, "comma"},
		{"zip", "zip", []value.Value{list(value.SepSpace, n(t, "1"), n(t, "2")), list(value.SepSpace, n(t, "3"), n(t, "4"), n(t, "5"))}, "1 3, 2 4"},
		{"is-bracketed", "is-bracketed", []value.Value{abc}, "false"},

		{"map-get", "map-get", []value.Value{m, value.Unquoted("b")}, "2"},
		{"map-get missing", "map-get", []value.Value{m, value.Unquoted("z")}, "null"},
		{"map-has-key", "map-has-key", []value.Value{m, value.Quoted("a")}, "true"},
		{"map-keys", "map-keys", []value.Value{m}, "a, b"},
		{"map-values", "map-values", []value.Value{m}, "1, 2"},
		{"map-remove", "map-remove", []value.Value{m, value.Unquoted("a")}, "(b: 2)"},
		{"map-merge", "map-merge", []value.Value{m, (&value.Map{}).With(value.Unquoted("a"), value.Int(9))}, "(a: 9, b: 2)"},
		{"map-merge empty list", "map-merge", []value.Value{list(value.SepUndecided), m}, "(a: 1, b: 2)"},

		{"rgb", "rgb", []value.Value{n(t, "255"), n(t, "0"), n(t, "0")}, "#ff0000"},
		{"rgb percentages", "rgb", []value.Value{n(t, "100%"), n(t, "0%"), n(t, "0%")}, "#ff0000"},
		{"rgba with color", "rgba", []value.Value{c(t, "#000"), n(t, "0.5")}, "rgba(0, 0, 0, 0.5)"},
		{"rgb channels", "rgb", []value.Value{list(value.SepSpace, n(t, "0"), n(t, "0"), n(t, "255"))}, "#0000ff"},
		{"rgb plain css", "rgb", []value.Value{value.Unquoted("var(--c)")}, "rgb(var(--c))"},
		{"hsl", "hsl", []value.Value{n(t, "0"), n(t, "100%"), n(t, "50%")}, "#ff0000"},
		{"red", "red", []value.Value{c(t, "#102030")}, "16"},
		{"alpha", "alpha", []value.Value{c(t, "#0000")}, "0"},
		{"lightness", "lightness", []value.Value{c(t, "#f00")}, "50%"},
		{"hue", "hue", []value.Value{c(t, "#0f0")}, "120deg"},
		{"lighten", "lighten", []value.Value{c(t, "#000"), n(t, "50%")}, "#808080"},
		{"darken", "darken", []value.Value{c(t, "#fff"), n(t, "100%")}, "#000000"},
		{"mix", "mix", []value.Value{c(t, "#f00"), c(t, "#00f")}, "#800080"},
		{"complement", "complement", []value.Value{c(t, "#f00")}, "#00ffff"},
		{"invert", "invert", []value.Value{c(t, "#000")}, "#ffffff"},
		{"grayscale", "grayscale", []value.Value{c(t, "#f00")}, "#808080"},
		{"grayscale filter", "grayscale", []value.Value{n(t, "50%")}, "grayscale(50%)"},
		{"saturate filter", "saturate", []value.Value{n(t, "150%")}, "saturate(150%)"},
		{"transparentize", "transparentize", []value.Value{c(t, "#000"), n(t, "0.5")}, "rgba(0, 0, 0, 0.5)"},
		{"opacify", "opacify", []value.Value{c(t, "#0000"), n(t, "1")}, "#000000"},
		{"ie-hex-str", "ie-hex-str", []value.Value{c(t, "#102030")}, "#FF102030"},

		{"type-of", "type-of", []value.Value{n(t, "1px")}, "number"},
		{"type-of map", "type-of", []value.Value{m}, "map"},
		{"inspect", "inspect", []value.Value{value.Quoted("a")}, `"a"`},
		{"feature-exists", "feature-exists", []value.Value{value.Quoted("at-error")}, "true"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, call(t, tc.fn, tc.args...))
		})
	}
}

func TestColorKeywords(t *testing.T) {
	type testCase struct {
		fn    string
		named []NamedArg
		want  string
	}

	cases := []testCase{
		{"adjust-color", []NamedArg{{"red", n(t, "16")}}, "#202030"},
		{"change-color", []NamedArg{{"alpha", n(t, "0.5")}}, "rgba(16, 32, 48, 0.5)"},
		{"scale-color", []NamedArg{{"lightness", n(t, "100%")}}, "#ffffff"},
	}

	for _, tc := range cases {
		t.Run(tc.fn, func(t *testing.T) {
			v, err := callNamed(t, newEnv(1), tc.fn, []value.Value{c(t, "#102030")}, tc.named...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, value.Inspect(v))
		})
	}

	_, err := callNamed(t, newEnv(1), "adjust-color", []value.Value{c(t, "#000")}, NamedArg{"red", n(t, "1")}, NamedArg{"hue", n(t, "1")})
	assert.Equal(t, serrors.KindArgument, serrors.KindOf(err, -1))

	_, err = callNamed(t, newEnv(1), "adjust-color", []value.Value{c(t, "#000")}, NamedArg{"bogus", n(t, "1")})
	assert.Equal(t, serrors.KindArgument, serrors.KindOf(err, -1))
}

func TestBuiltinErrors(t *testing.T) {
	type testCase struct {
		name string
		fn   string
		args []value.Value
		kind serrors.Kind
	}

	cases := []testCase{
		{"wrong type", "str-length", []value.Value{n(t, "1")}, serrors.KindType},
		{"percentage with unit", "percentage", []value.Value{n(t, "1px")}, serrors.KindType},
		{"nth zero", "nth", []value.Value{value.Unquoted("a"), n(t, "0")}, serrors.KindArgument},
		{"nth out of range", "nth", []value.Value{value.Unquoted("a"), n(t, "2")}, serrors.KindArgument},
		{"too many arguments", "unit", []value.Value{n(t, "1"), n(t, "2")}, serrors.KindArgument},
		{"missing argument", "str-index", []value.Value{value.Quoted("a")}, serrors.KindArgument},
		{"min mismatch", "min", []value.Value{n(t, "1px"), n(t, "1s")}, serrors.KindUnitMismatch},
		{"bad separator", "join", []value.Value{n(t, "1"), n(t, "2"), value.Unquoted("dots")}, serrors.KindArgument},
		{"weight out of range", "mix", []value.Value{c(t, "#000"), c(t, "#fff"), n(t, "150%")}, serrors.KindArgument},
		{"random limit", "random", []value.Value{n(t, "0")}, serrors.KindArgument},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := callNamed(t, newEnv(1), tc.fn, tc.args)
			require.Error(t, err)
			assert.Equal(t, tc.kind, serrors.KindOf(err, -1))
		})
	}
}

func TestBind(t *testing.T) {
	f, err := Resolve("str-slice", 2, nil)
	require.NoError(t, err)

	args, err := f.Bind([]value.Value{value.Quoted("abc"), value.Int(1)}, nil, value.SepComma)
	require.NoError(t, err)
	require.Len(t, args, 3)
	assert.Equal(t, "-1", value.Inspect(args[2]))

	_, err = f.Bind([]value.Value{value.Quoted("abc")}, []NamedArg{{"string", value.Quoted("x")}}, value.SepComma)
	assert.Equal(t, serrors.KindArgument, serrors.KindOf(err, -1))

	_, err = f.Bind([]value.Value{value.Quoted("abc"), value.Int(1)}, []NamedArg{{"nope", value.Int(1)}}, value.SepComma)
	assert.Equal(t, serrors.KindArgument, serrors.KindOf(err, -1))
}

func TestRandomIsSeeded(t *testing.T) {
	a, err := callNamed(t, newEnv(42), "unique-id", nil)
	require.NoError(t, err)
	b, err := callNamed(t, newEnv(42), "unique-id", nil)
	require.NoError(t, err)

	assert.Equal(t, value.Inspect(a), value.Inspect(b))
	assert.True(t, strings.HasPrefix(value.Inspect(a), "u"))
	assert.Len(t, value.Inspect(a), 13)

	env := newEnv(7)
	for i := 0; i < 50; i++ {
		v, err := callNamed(t, env, "random", []value.Value{value.Int(10)})
		require.NoError(t, err)

		r, err := v.(*value.Number).Int()
		require.NoError(t, err)
		assert.True(t, r >= 1 && r <= 10)
	}
}

func TestOverloads(t *testing.T) {
	f, err := Resolve("rgba", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "color", f.Params[0].Name)

	f, err = Resolve("rgba", 4, nil)
	require.NoError(t, err)
	assert.Len(t, f.Params, 4)

	_, err = Resolve("rgba", 5, nil)
	assert.Equal(t, serrors.KindArgument, serrors.KindOf(err, -1))
}
