package parser

import (
	"testing"

	"github.com/pipe01/sassy/internal/lexer"
	. "github.com/pipe01/sassy/internal/parser/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string, syntax lexer.Syntax) *Stylesheet {
	t.Helper()

	tks, err := lexer.New([]byte(src), "test.scss", syntax).Collect()
	require.NoError(t, err)

	f, err := Parse(tks, "test.scss", syntax)
	require.NoError(t, err)

	return f
}

func parseExpr(t *testing.T, src string) Expr {
	t.Helper()

	tks, err := lexer.New([]byte(src), "", lexer.SyntaxSCSS).Collect()
	require.NoError(t, err)

	e, err := ParseExpression(tks)
	require.NoError(t, err)

	return e
}

func onlyNode[T Node](t *testing.T, nodes []Node) T {
	t.Helper()

	require.Len(t, nodes, 1)

	n, ok := nodes[0].(T)
	require.Truef(t, ok, "expected %T, found %T", n, nodes[0])

	return n
}

func plain(t *testing.T, i Interpolation) string {
	t.Helper()

	s, ok := i.Plain()
	require.True(t, ok, "interpolation is not plain")

	return s
}

func TestParser(t *testing.T) {
	type testCase struct {
		name   string
		src    string
		syntax lexer.Syntax
		verify func(t *testing.T, f *Stylesheet)
	}

	cases := []testCase{
		{
			name: "rule with declaration",
			src:  ".a { width: 1px; }",
			verify: func(t *testing.T, f *Stylesheet) {
				rule := onlyNode[*NodeRule](t, f.Nodes)
				assert.Equal(t, ".a", plain(t, rule.Selector))

				decl := onlyNode[*NodeDeclaration](t, rule.Nodes)
				assert.Equal(t, "width", plain(t, decl.Name))
				assert.Equal(t, &ExprNumber{Pos: decl.Value.(*ExprNumber).Pos, Value: "1", Unit: "px"}, decl.Value)
			},
		},
		{
			name: "pseudo selector is not a declaration",
			src:  "a:hover { color: red }",
			verify: func(t *testing.T, f *Stylesheet) {
				rule := onlyNode[*NodeRule](t, f.Nodes)
				assert.Equal(t, "a:hover", plain(t, rule.Selector))
			},
		},
		{
			name: "declaration without space after colon",
			src:  ".a { color:red }",
			verify: func(t *testing.T, f *Stylesheet) {
				rule := onlyNode[*NodeRule](t, f.Nodes)
				onlyNode[*NodeDeclaration](t, rule.Nodes)
			},
		},
		{
			name: "selector whitespace is kept",
			src:  ".a > .b, .c ~ .d {}",
			verify: func(t *testing.T, f *Stylesheet) {
				rule := onlyNode[*NodeRule](t, f.Nodes)
				assert.Equal(t, ".a > .b, .c ~ .d", plain(t, rule.Selector))
			},
		},
		{
			name: "interpolated selector",
			src:  ".icon-#{$name} {}",
			verify: func(t *testing.T, f *Stylesheet) {
				rule := onlyNode[*NodeRule](t, f.Nodes)
				require.Len(t, rule.Selector.Parts, 2)
				assert.Equal(t, ".icon-", rule.Selector.Parts[0].Text)
				assert.IsType(t, &ExprVariable{}, rule.Selector.Parts[1].Expr)
			},
		},
		{
			name: "variable flags",
			src:  "$a_b: 1 !default !global;",
			verify: func(t *testing.T, f *Stylesheet) {
				v := onlyNode[*NodeVariable](t, f.Nodes)
				assert.Equal(t, "a-b", v.Name)
				assert.True(t, v.Default)
				assert.True(t, v.Global)
			},
		},
		{
			name: "nested properties",
			src:  ".a { font: 12px { weight: bold; } }",
			verify: func(t *testing.T, f *Stylesheet) {
				rule := onlyNode[*NodeRule](t, f.Nodes)
				decl := onlyNode[*NodeDeclaration](t, rule.Nodes)
				assert.NotNil(t, decl.Value)
				onlyNode[*NodeDeclaration](t, decl.Nodes)
			},
		},
		{
			name: "custom property keeps raw text",
			src:  ".a { --x: { a: b }; --y: #{$v} 1px; }",
			verify: func(t *testing.T, f *Stylesheet) {
				rule := onlyNode[*NodeRule](t, f.Nodes)
				require.Len(t, rule.Nodes, 2)

				x := rule.Nodes[0].(*NodeDeclaration)
				assert.True(t, x.Custom)
				assert.Equal(t, "{ a: b }", plain(t, x.Value.(*ExprString).Parts))

				y := rule.Nodes[1].(*NodeDeclaration)
				parts := y.Value.(*ExprString).Parts.Parts
				require.Len(t, parts, 2)
				assert.Equal(t, " 1px", parts[1].Text)
			},
		},
		{
			name: "important",
			src:  ".a { color: red !important; }",
			verify: func(t *testing.T, f *Stylesheet) {
				rule := onlyNode[*NodeRule](t, f.Nodes)
				assert.True(t, onlyNode[*NodeDeclaration](t, rule.Nodes).Important)
			},
		},
		{
			name: "if else chain",
			src:  "@if $a { a: b } @else if $b { c: d } @else { e: f }",
			verify: func(t *testing.T, f *Stylesheet) {
				n := onlyNode[*NodeIf](t, f.Nodes)
				assert.Len(t, n.Clauses, 2)
				assert.True(t, n.HasElse)
				assert.Len(t, n.Else, 1)
			},
		},
		{
			name: "each over map",
			src:  "@each $k, $v in $map {}",
			verify: func(t *testing.T, f *Stylesheet) {
				n := onlyNode[*NodeEach](t, f.Nodes)
				assert.Equal(t, []string{"k", "v"}, n.Vars)
			},
		},
		{
			name: "for through",
			src:  "@for $i from 1 through $n - 1 {}",
			verify: func(t *testing.T, f *Stylesheet) {
				n := onlyNode[*NodeFor](t, f.Nodes)
				assert.True(t, n.Inclusive)
				assert.IsType(t, &ExprBinary{}, n.To)
			},
		},
		{
			name: "mixin definition and include",
			src:  "@mixin m($a, $b: 2, $rest...) { x: $a } .a { @include m(1, $b: 3) { y: z } }",
			verify: func(t *testing.T, f *Stylesheet) {
				require.Len(t, f.Nodes, 2)

				def := f.Nodes[0].(*NodeMixinDef)
				assert.Equal(t, "m", def.Name)
				assert.Len(t, def.Params.Params, 2)
				assert.Equal(t, "rest", def.Params.Rest)

				inc := onlyNode[*NodeInclude](t, f.Nodes[1].(*NodeRule).Nodes)
				assert.Len(t, inc.Args.Positional, 1)
				assert.Equal(t, "b", inc.Args.Named[0].Name)
				require.NotNil(t, inc.Content)
				assert.Len(t, inc.Content.Nodes, 1)
			},
		},
		{
			name: "include using",
			src:  "@include m using ($x) { a: $x; }",
			verify: func(t *testing.T, f *Stylesheet) {
				inc := onlyNode[*NodeInclude](t, f.Nodes)
				require.NotNil(t, inc.Content)
				assert.Equal(t, "x", inc.Content.Params.Params[0].Name)
			},
		},
		{
			name: "function with return",
			src:  "@function double($n) { @return $n * 2; }",
			verify: func(t *testing.T, f *Stylesheet) {
				def := onlyNode[*NodeFunctionDef](t, f.Nodes)
				ret := onlyNode[*NodeReturn](t, def.Nodes)
				assert.Equal(t, OpMul, ret.Value.(*ExprBinary).Op)
			},
		},
		{
			name: "imports",
			src:  `@import "a", "b.css", url(c.css), "d" screen;`,
			verify: func(t *testing.T, f *Stylesheet) {
				n := onlyNode[*NodeImport](t, f.Nodes)
				require.Len(t, n.Imports, 4)

				assert.Equal(t, "a", n.Imports[0].Path)
				assert.False(t, n.Imports[0].Plain)

				assert.True(t, n.Imports[1].Plain)
				assert.Equal(t, `"b.css"`, plain(t, n.Imports[1].Raw))

				assert.True(t, n.Imports[2].Plain)
				assert.Equal(t, "url(c.css)", plain(t, n.Imports[2].Raw))

				assert.True(t, n.Imports[3].Plain)
				assert.Equal(t, `"d" screen`, plain(t, n.Imports[3].Raw))
			},
		},
		{
			name: "extend optional",
			src:  ".a { @extend %p !optional; }",
			verify: func(t *testing.T, f *Stylesheet) {
				ext := onlyNode[*NodeExtend](t, f.Nodes[0].(*NodeRule).Nodes)
				assert.Equal(t, "%p", plain(t, ext.Selector))
				assert.True(t, ext.Optional)
			},
		},
		{
			name: "media with variable",
			src:  "@media screen and (max-width: $w) { .a { b: c } }",
			verify: func(t *testing.T, f *Stylesheet) {
				n := onlyNode[*NodeAtRule](t, f.Nodes)
				assert.Equal(t, "media", n.Name)
				assert.True(t, n.HasBlock)
				require.Len(t, n.Params.Parts, 3)
				assert.Equal(t, "screen and (max-width: ", n.Params.Parts[0].Text)
				assert.Equal(t, ")", n.Params.Parts[2].Text)
			},
		},
		{
			name: "charset is dropped",
			src:  `@charset "UTF-8"; .a {}`,
			verify: func(t *testing.T, f *Stylesheet) {
				onlyNode[*NodeRule](t, f.Nodes)
			},
		},
		{
			name: "loud comment",
			src:  "/*! keep */ // drop\n.a {}",
			verify: func(t *testing.T, f *Stylesheet) {
				require.Len(t, f.Nodes, 2)
				assert.Equal(t, "/*! keep */", f.Nodes[0].(*NodeComment).Text)
			},
		},
		{
			name:   "indented syntax",
			syntax: lexer.SyntaxIndented,
			src:    "=m($x)\n  width: $x\n.a\n  +m(1px)\n  &:hover\n    color: red\n",
			verify: func(t *testing.T, f *Stylesheet) {
				require.Len(t, f.Nodes, 2)
				assert.IsType(t, &NodeMixinDef{}, f.Nodes[0])

				rule := f.Nodes[1].(*NodeRule)
				require.Len(t, rule.Nodes, 2)
				assert.IsType(t, &NodeInclude{}, rule.Nodes[0])
				assert.Equal(t, "&:hover", plain(t, rule.Nodes[1].(*NodeRule).Selector))
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			c.verify(t, parse(t, c.src, c.syntax))
		})
	}
}

func TestParseExpression(t *testing.T) {
	t.Run("precedence", func(t *testing.T) {
		e := parseExpr(t, "1 + 2 * 3 == 7 and not false or $x")

		or := e.(*ExprBinary)
		assert.Equal(t, OpOr, or.Op)

		and := or.Left.(*ExprBinary)
		assert.Equal(t, OpAnd, and.Op)

		eq := and.Left.(*ExprBinary)
		assert.Equal(t, OpEq, eq.Op)

		add := eq.Left.(*ExprBinary)
		assert.Equal(t, OpAdd, add.Op)
		assert.Equal(t, OpMul, add.Right.(*ExprBinary).Op)

		assert.Equal(t, OpNot, and.Right.(*ExprUnary).Op)
	})

	t.Run("minus spacing", func(t *testing.T) {
		list := parseExpr(t, "1 -2").(*ExprList)
		assert.Equal(t, SepSpace, list.Sep)
		assert.Equal(t, "-2", list.Items[1].(*ExprNumber).Value)

		assert.Equal(t, OpSub, parseExpr(t, "1 - 2").(*ExprBinary).Op)
		assert.Equal(t, OpSub, parseExpr(t, "1-2").(*ExprBinary).Op)
		assert.Equal(t, OpSub, parseExpr(t, "$a - $b").(*ExprBinary).Op)
		assert.Equal(t, OpSub, parseExpr(t, "$a-$b").(*ExprBinary).Op)

		str := parseExpr(t, "a-b").(*ExprString)
		assert.Equal(t, "a-b", plain(t, str.Parts))
	})

	t.Run("comma and space lists", func(t *testing.T) {
		list := parseExpr(t, "1px solid red, 2px").(*ExprList)
		assert.Equal(t, SepComma, list.Sep)
		require.Len(t, list.Items, 2)
		assert.Len(t, list.Items[0].(*ExprList).Items, 3)
	})

	t.Run("map", func(t *testing.T) {
		m := parseExpr(t, "(a: 1, 'b': 2,)").(*ExprMap)
		assert.Len(t, m.Keys, 2)
	})

	t.Run("parenthesized comma list", func(t *testing.T) {
		p := parseExpr(t, "(1,)").(*ExprParen)
		assert.Len(t, p.Inner.(*ExprList).Items, 1)
	})

	t.Run("bracketed list", func(t *testing.T) {
		list := parseExpr(t, "[a b]").(*ExprList)
		assert.True(t, list.Bracketed)
		assert.Len(t, list.Items, 2)
	})

	t.Run("function call", func(t *testing.T) {
		call := parseExpr(t, "fn(1, $list..., $k: 2)").(*ExprCall)
		assert.Equal(t, "fn", call.Name)
		assert.Len(t, call.Args.Positional, 1)
		assert.NotNil(t, call.Args.Rest)
		assert.Len(t, call.Args.Named, 1)
	})

	t.Run("special function", func(t *testing.T) {
		fn := parseExpr(t, "calc(100% - #{$x})").(*ExprSpecialFunc)
		assert.Equal(t, "calc", fn.Name)
		assert.Equal(t, "100% - ", fn.Args.Parts[0].Text)
	})

	t.Run("adjacent interpolation", func(t *testing.T) {
		str := parseExpr(t, "#{$a}px").(*ExprString)
		require.Len(t, str.Parts.Parts, 2)
		assert.Equal(t, "px", str.Parts.Parts[1].Text)
	})

	t.Run("quoted string escapes", func(t *testing.T) {
		str := parseExpr(t, `"a\"b\26 c"`).(*ExprString)
		assert.True(t, str.Quoted)
		assert.Equal(t, `a"b&c`, plain(t, str.Parts))
	})

	t.Run("keywords", func(t *testing.T) {
		assert.IsType(t, &ExprBool{}, parseExpr(t, "true"))
		assert.IsType(t, &ExprNull{}, parseExpr(t, "null"))
		assert.IsType(t, &ExprColor{}, parseExpr(t, "#fff"))
	})

	t.Run("slash", func(t *testing.T) {
		b := parseExpr(t, "12px/30px").(*ExprBinary)
		assert.Equal(t, OpDiv, b.Op)
	})
}

func TestParserErrors(t *testing.T) {
	cases := map[string]string{
		"unclosed block":   ".a { b: c;",
		"missing value":    ".a { b: ; }",
		"use unsupported":  `@use "foo";`,
		"else without if":  "@else {}",
		"bad for keyword":  "@for $i from 1 until 3 {}",
		"stray close":      "}",
		"empty interp":     ".a-#{} {}",
		"bad flag":         "$a: 1 !nope;",
		"positional after": ".a { @include m($a: 1, 2); }",
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			tks, err := lexer.New([]byte(src), "", lexer.SyntaxSCSS).Collect()
			require.NoError(t, err)

			_, err = Parse(tks, "", lexer.SyntaxSCSS)
			require.Error(t, err)
			assert.IsType(t, &ParserError{}, err)
		})
	}
}
