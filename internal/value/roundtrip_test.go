package value_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipe01/sassy/internal/css"
	"github.com/pipe01/sassy/internal/evaluator"
	"github.com/pipe01/sassy/internal/lexer"
	"github.com/pipe01/sassy/internal/parser"
	"github.com/pipe01/sassy/internal/value"
	"github.com/pipe01/sassy/internal/workspace"
)

// reparse reads text back as a declaration value.
func reparse(t *testing.T, text string) value.Value {
	t.Helper()

	src := ".x { v: " + text + "; }"

	tks, err := lexer.New([]byte(src), "main.scss", lexer.SyntaxSCSS).Collect()
	require.NoError(t, err)

	sheet, err := parser.Parse(tks, "main.scss", lexer.SyntaxSCSS)
	require.NoError(t, err)

	tree, err := evaluator.Evaluate(workspace.New(nil), sheet, evaluator.Options{})
	require.NoError(t, err)

	require.Len(t, tree.Nodes, 1)
	rule, ok := tree.Nodes[0].(*css.Rule)
	require.True(t, ok)
	require.Len(t, rule.Nodes, 1)
	decl, ok := rule.Nodes[0].(*css.Declaration)
	require.True(t, ok)

	return decl.Value
}

func TestToCSSRoundTrip(t *testing.T) {
	type testCase struct {
		name string
		v    func(t *testing.T) value.Value
	}

	named := func(name string) func(t *testing.T) value.Value {
		return func(t *testing.T) value.Value {
			c, ok := value.ParseNamed(name)
			require.True(t, ok)
			return c
		}
	}

	cases := []testCase{
		{"integer", func(*testing.T) value.Value { return value.IntUnit(10, "px") }},
		{"fraction", func(*testing.T) value.Value { return value.Float(0.5, value.Unit("em")) }},
		{"negative", func(*testing.T) value.Value { return value.IntUnit(-3, "%") }},
		{"one third", func(*testing.T) value.Value { return value.NewNumber(big.NewRat(1, 3), value.Unit("")) }},
		{"two thirds with unit", func(*testing.T) value.Value { return value.NewNumber(big.NewRat(-2, 3), value.Unit("px")) }},
		{"named color", named("white")},
		{"transparent", named("transparent")},
		{"hex color", func(t *testing.T) value.Value {
			c, ok := value.ParseHex("#FFF")
			require.True(t, ok)
			return c
		}},
		{"computed color", func(*testing.T) value.Value { return value.NewRGBA(17, 34, 51, 1) }},
		{"translucent color", func(*testing.T) value.Value { return value.NewRGBA(255, 0, 0, 0.5) }},
		{"quoted string", func(*testing.T) value.Value { return value.Quoted("a b") }},
		{"quoted string with quotes", func(*testing.T) value.Value { return value.Quoted(`say "hi"`) }},
		{"unquoted string", func(*testing.T) value.Value { return value.Unquoted("sans-serif") }},
		{"comma list", func(*testing.T) value.Value {
			return value.NewList([]value.Value{value.IntUnit(1, "px"), value.Quoted("a"), value.Unquoted("serif")}, value.SepComma)
		}},
		{"space list", func(*testing.T) value.Value {
			return value.NewList([]value.Value{value.IntUnit(1, "px"), value.NewRGBA(0, 0, 255, 1), value.Unquoted("solid")}, value.SepSpace)
		}},
	}

	for _, c := range cases {
		for _, compressed := range []bool{false, true} {
			name := c.name
			if compressed {
				name += " compressed"
			}

			t.Run(name, func(t *testing.T) {
				v := c.v(t)

				first, err := value.ToCSS(v, compressed)
				require.NoError(t, err)

				back := reparse(t, first)
				assert.True(t, value.Equal(v, back), "%q read back as %s", first, value.Inspect(back))

				second, err := value.ToCSS(back, compressed)
				require.NoError(t, err)
				assert.Equal(t, first, second)
			})
		}
	}
}

func TestToCSSNonTerminating(t *testing.T) {
	third := value.NewNumber(big.NewRat(1, 3), value.Unit(""))

	got, err := value.ToCSS(third, false)
	require.NoError(t, err)
	assert.Equal(t, "0.3333333333", got)

	got, err = value.ToCSS(third, true)
	require.NoError(t, err)
	assert.Equal(t, ".3333333333", got)
}
