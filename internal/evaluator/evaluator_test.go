package evaluator

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/generator"
	"github.com/pipe01/sassy/internal/lexer"
	"github.com/pipe01/sassy/internal/parser"
	"github.com/pipe01/sassy/internal/workspace"
)

func evaluate(src string, resolver workspace.Resolver) (string, error) {
	tks, err := lexer.New([]byte(src), "main.scss", lexer.SyntaxSCSS).Collect()
	if err != nil {
		return "", err
	}

	sheet, err := parser.Parse(tks, "main.scss", lexer.SyntaxSCSS)
	if err != nil {
		return "", err
	}

	tree, err := Evaluate(workspace.New(resolver), sheet, Options{Rand: rand.New(rand.NewSource(1))})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = generator.Generate(&buf, tree, generator.StyleExpanded)
	return buf.String(), err
}

func TestEvaluate(t *testing.T) {
	type testCase struct {
		name string
		src  string
		want string
	}

	cases := []testCase{
		{
			name: "default flag",
			src:  `$a: 1; $a: 2 !default; $b: null; $b: 3 !default; .x { a: $a; b: $b; }`,
			want: ".x {\n  a: 1;\n  b: 3;\n}\n",
		},
		{
			name: "global flag",
			src:  `.x { $g: 5 !global; } .y { g: $g; }`,
			want: ".y {\n  g: 5;\n}\n",
		},
		{
			name: "control flow inside rules stays local",
			src:  `.x { $v: 1; @if true { $v: 2; } v: $v; }`,
			want: ".x {\n  v: 2;\n}\n",
		},
		{
			name: "rest arguments",
			src:  `@mixin m($a, $rest...) { a: $a; n: length($rest); } .x { @include m(1, 2, 3); }`,
			want: ".x {\n  a: 1;\n  n: 2;\n}\n",
		},
		{
			name: "keyword arguments",
			src:  `@function f($a, $b: 2) { @return $a + $b; } .x { v: f($b: 10, $a: 1); }`,
			want: ".x {\n  v: 11;\n}\n",
		},
		{
			name: "splat",
			src:  `@function f($a, $b) { @return $a - $b; } $l: 5 3; .x { v: f($l...); }`,
			want: ".x {\n  v: 2;\n}\n",
		},
		{
			name: "content with arguments",
			src:  `@mixin m { @content(3px); } .x { @include m using ($w) { width: $w; } }`,
			want: ".x {\n  width: 3px;\n}\n",
		},
		{
			name: "content sees the caller's scope",
			src:  `@mixin m { $c: red; @content; } .x { $c: blue; @include m { color: $c; } }`,
			want: ".x {\n  color: blue;\n}\n",
		},
		{
			name: "function references",
			src:  `@function sq($n) { @return $n * $n; } .x { v: call(get-function(sq), 3); }`,
			want: ".x {\n  v: 9;\n}\n",
		},
		{
			name: "existence checks",
			src:  `$v: 1; @mixin m {} .x { a: variable-exists(v); b: mixin-exists(m); c: function-exists(percentage); d: global-variable-exists(nope); }`,
			want: ".x {\n  a: true;\n  b: true;\n  c: true;\n  d: false;\n}\n",
		},
		{
			name: "unknown functions are plain css",
			src:  `.x { v: foo(1, 2); }`,
			want: ".x {\n  v: foo(1, 2);\n}\n",
		},
		{
			name: "string concatenation",
			src:  `.x { a: "a" + b; b: a + "b"; }`,
			want: ".x {\n  a: \"ab\";\n  b: ab;\n}\n",
		},
		{
			name: "each over map",
			src:  `@each $k, $v in (a: 1, b: 2) { .#{$k} { v: $v; } }`,
			want: ".a {\n  v: 1;\n}\n\n.b {\n  v: 2;\n}\n",
		},
		{
			name: "for exclusive descending",
			src:  `@for $i from 3 to 1 { .m-#{$i} { v: $i; } }`,
			want: ".m-3 {\n  v: 3;\n}\n\n.m-2 {\n  v: 2;\n}\n",
		},
		{
			name: "at-root",
			src:  `.a { @at-root .b { x: 1; } }`,
			want: ".b {\n  x: 1;\n}\n",
		},
		{
			name: "keyframes",
			src:  `@keyframes spin { from { opacity: 0; } to { opacity: 1; } }`,
			want: "@keyframes spin {\n  from {\n    opacity: 0;\n  }\n  to {\n    opacity: 1;\n  }\n}\n",
		},
		{
			name: "extend in compound",
			src:  `.a.b { x: 1; } .c { @extend .a; }`,
			want: ".a.b, .b.c {\n  x: 1;\n}\n",
		},
		{
			name: "optional extend",
			src:  `.c { @extend .missing !optional; x: 1; }`,
			want: ".c {\n  x: 1;\n}\n",
		},
		{
			name: "extend within the same media",
			src:  `@media print { .a { x: 1; } .b { @extend .a; } }`,
			want: "@media print {\n  .a, .b {\n    x: 1;\n  }\n}\n",
		},
		{
			name: "top level extend reaches into media",
			src:  `@media print { .a { x: 1; } } .b { @extend .a; }`,
			want: "@media print {\n  .a, .b {\n    x: 1;\n  }\n}\n",
		},
		{
			name: "parent selector value",
			src:  `.a .b { v: &; }`,
			want: ".a .b {\n  v: .a .b;\n}\n",
		},
		{
			name: "comments",
			src:  "/*! kept */\n/* dropped */\n.a { x: 1; }",
			want: "/*! kept */\n\n.a {\n  x: 1;\n}\n",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := evaluate(c.src, nil)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	type testCase struct {
		name string
		src  string
		kind serrors.Kind
	}

	cases := []testCase{
		{
			name: "too many arguments",
			src:  `@function f($a) { @return $a; } .x { v: f(1, 2); }`,
			kind: serrors.KindArgument,
		},
		{
			name: "missing argument",
			src:  `@mixin m($a) { v: $a; } .x { @include m; }`,
			kind: serrors.KindArgument,
		},
		{
			name: "function without return",
			src:  `@function f() { $a: 1; } .x { v: f(); }`,
			kind: serrors.KindType,
		},
		{
			name: "style rule inside function",
			src:  `@function f() { .a { x: 1; } @return 1; } .x { v: f(); }`,
			kind: serrors.KindParse,
		},
		{
			name: "extend outside of a rule",
			src:  `@extend .a;`,
			kind: serrors.KindSelector,
		},
		{
			name: "extend across media",
			src:  `.a { x: 1; } @media print { .b { @extend .a; } }`,
			kind: serrors.KindSelector,
		},
		{
			name: "plain function with keywords",
			src:  `.x { v: foo($a: 1); }`,
			kind: serrors.KindUndefined,
		},
		{
			name: "unit mismatch",
			src:  `.x { v: 1px + 1s; }`,
			kind: serrors.KindUnitMismatch,
		},
		{
			name: "import without resolver",
			src:  `@import "a";`,
			kind: serrors.KindImport,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := evaluate(c.src, nil)
			require.Error(t, err)
			assert.Equal(t, c.kind, serrors.KindOf(err, serrors.KindType), err.Error())
		})
	}
}

func TestEvaluatePosition(t *testing.T) {
	_, err := evaluate(".x {\n  v: $nope;\n}", nil)
	require.Error(t, err)

	var eerr *EvalError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, 1, eerr.Location.Line)
	assert.Equal(t, 5, eerr.Location.Column)
}

func TestEvaluateImportTwice(t *testing.T) {
	got, err := evaluate(`@import "a"; @import "a";`, workspace.MapResolver{
		"_a.scss": `.a { x: 1; }`,
	})
	require.NoError(t, err)
	assert.Equal(t, ".a {\n  x: 1;\n}\n\n.a {\n  x: 1;\n}\n", got)
}

func TestMergeMedia(t *testing.T) {
	assert.Equal(t, "screen and (min-width: 1px)", mergeMedia("screen", "(min-width: 1px)"))
	assert.Equal(t, "a and c, b and c", mergeMedia("a, b", "c"))
	assert.Equal(t, []string{"(a, b)", "c"}, splitTopLevel("(a, b), c"))
}

func TestScopeTarget(t *testing.T) {
	global := newScope(nil, false)
	global.vars["g"] = nil

	semi := newScope(global, true)
	assert.Same(t, global, semi.target("g", global))
	assert.Same(t, semi, semi.target("other", global))

	local := newScope(global, false)
	assert.Same(t, local, local.target("g", global))

	inner := newScope(local, true)
	local.vars["l"] = nil
	assert.Same(t, local, inner.target("l", global))
}

func TestEvaluateUnknownNamedArgument(t *testing.T) {
	type testCase struct {
		name string
		src  string
		want string
	}

	cases := []testCase{
		{
			name: "mixin",
			src:  `@mixin m($a) { v: $a; } .x { @include m($zz: 1); }`,
			want: "no argument named $zz in m()",
		},
		{
			name: "mixin with default",
			src:  `@mixin m($a: 0) { v: $a; } .x { @include m($zz: 1); }`,
			want: "no argument named $zz in m()",
		},
		{
			name: "function",
			src:  `@function f($a, $b) { @return $a; } .x { v: f(1, $zz: 2); }`,
			want: "no argument named $zz in f()",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := evaluate(c.src, nil)
			require.Error(t, err)
			assert.Equal(t, serrors.KindArgument, serrors.KindOf(err, serrors.KindType))
			assert.Contains(t, err.Error(), c.want)
		})
	}
}

func TestEvaluateExtendAcrossMediaPosition(t *testing.T) {
	_, err := evaluate(".a { x: 1; }\n@media screen {\n  .b { @extend .a; }\n}", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "you may not @extend selectors across media queries")

	var eerr *EvalError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, 3, eerr.Location.Line)
}
