package sass

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/pipe01/sassy/errors"
)

func TestCompile(t *testing.T) {
	type testCase struct {
		name string
		src  string
		opts Options
		want string
	}

	cases := []testCase{
		{
			name: "variables and arithmetic",
			src:  `$x: 1px + 2px; .a { width: $x; }`,
			want: ".a {\n  width: 3px;\n}\n",
		},
		{
			name: "compressed",
			src:  `$x: 1px + 2px; .a { width: $x; }`,
			opts: Options{Style: StyleCompressed},
			want: ".a{width:3px}",
		},
		{
			name: "compressed statements",
			src:  `.a { color: red; width: 1px; } .b { height: 2px; }`,
			opts: Options{Style: StyleCompressed},
			want: ".a{color:red;width:1px}.b{height:2px}",
		},
		{
			name: "nesting",
			src:  `.a { color: red; .b { color: blue; } }`,
			want: ".a {\n  color: red;\n}\n\n.a .b {\n  color: blue;\n}\n",
		},
		{
			name: "parent selector suffix",
			src:  `.a { .b & { x: y; } }`,
			want: ".b .a {\n  x: y;\n}\n",
		},
		{
			name: "nested properties",
			src:  `.a { font: { family: serif; size: 2px; } }`,
			want: ".a {\n  font-family: serif;\n  font-size: 2px;\n}\n",
		},
		{
			name: "lexical scope",
			src:  `$c: red; .a { $c: blue; color: $c; } .b { color: $c; }`,
			want: ".a {\n  color: blue;\n}\n\n.b {\n  color: red;\n}\n",
		},
		{
			name: "functions see their definition scope",
			src:  `$v: outer; @function f() { @return $v; } .a { $v: inner; x: f(); }`,
			want: ".a {\n  x: outer;\n}\n",
		},
		{
			name: "repeated properties are kept",
			src:  `.a { x: 1; x: 2; }`,
			want: ".a {\n  x: 1;\n  x: 2;\n}\n",
		},
		{
			name: "control flow at top level updates globals",
			src:  `$x: 1; @if true { $x: 2; } .a { v: $x; }`,
			want: ".a {\n  v: 2;\n}\n",
		},
		{
			name: "truthiness",
			src:  `.a { x: if(0, yes, no); y: if(false, yes, no); z: if("", yes, no); w: if(null, yes, no); }`,
			want: ".a {\n  x: yes;\n  y: no;\n  z: yes;\n  w: no;\n}\n",
		},
		{
			name: "null declarations are dropped",
			src:  `.a { x: null; y: 1; }`,
			want: ".a {\n  y: 1;\n}\n",
		},
		{
			name: "mixin with content",
			src:  `@mixin m($w: 1px) { width: $w; @content; } .a { @include m(2px) { color: red; } }`,
			want: ".a {\n  width: 2px;\n  color: red;\n}\n",
		},
		{
			name: "mixin default argument",
			src:  `@mixin m($w: 1px) { width: $w; } .a { @include m; }`,
			want: ".a {\n  width: 1px;\n}\n",
		},
		{
			name: "function",
			src:  `@function double($n) { @return $n * 2; } .a { width: double(5px); }`,
			want: ".a {\n  width: 10px;\n}\n",
		},
		{
			name: "each",
			src:  `@each $n in a, b { .#{$n} { x: $n; } }`,
			want: ".a {\n  x: a;\n}\n\n.b {\n  x: b;\n}\n",
		},
		{
			name: "for",
			src:  `@for $i from 1 through 2 { .m-#{$i} { margin: $i * 2px; } }`,
			want: ".m-1 {\n  margin: 2px;\n}\n\n.m-2 {\n  margin: 4px;\n}\n",
		},
		{
			name: "while",
			src:  `$i: 0; @while $i < 2 { $i: $i + 1; } .a { i: $i; }`,
			want: ".a {\n  i: 2;\n}\n",
		},
		{
			name: "extend",
			src:  `.a { color: red; } .b { @extend .a; }`,
			want: ".a, .b {\n  color: red;\n}\n",
		},
		{
			name: "extend twice",
			src:  `.a { x: 1; } .b { @extend .a; } .b { @extend .a; }`,
			want: ".a, .b {\n  x: 1;\n}\n",
		},
		{
			name: "placeholder",
			src:  `%p { color: red; } .b { @extend %p; }`,
			want: ".b {\n  color: red;\n}\n",
		},
		{
			name: "unused placeholder",
			src:  `%p { color: red; }`,
			want: "",
		},
		{
			name: "media bubbling",
			src:  `.a { @media print { color: red; } }`,
			want: "@media print {\n  .a {\n    color: red;\n  }\n}\n",
		},
		{
			name: "slash kept between literals",
			src:  `.a { font: 12px/1.5 serif; }`,
			want: ".a {\n  font: 12px/1.5 serif;\n}\n",
		},
		{
			name: "division through variable",
			src:  `$w: 10px / 2; .a { width: $w; }`,
			want: ".a {\n  width: 5px;\n}\n",
		},
		{
			name: "builtins",
			src:  `$m: (a: 1px, b: 2px); .a { x: map-get($m, b); y: percentage(0.5); z: length(1 2 3); }`,
			want: ".a {\n  x: 2px;\n  y: 50%;\n  z: 3;\n}\n",
		},
		{
			name: "indented syntax",
			src:  ".a\n  width: 1px\n",
			opts: Options{Syntax: SyntaxIndented},
			want: ".a {\n  width: 1px;\n}\n",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Compile([]byte(c.src), c.opts)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	type testCase struct {
		name     string
		src      string
		resolver Resolver
		kind     serrors.Kind
		message  string
	}

	cases := []testCase{
		{
			name: "undefined variable",
			src:  `.a { x: $nope; }`,
			kind: serrors.KindUndefined,
		},
		{
			name: "undefined mixin",
			src:  `.a { @include nope; }`,
			kind: serrors.KindUndefined,
		},
		{
			name:    "error directive",
			src:     `@error "boom";`,
			kind:    serrors.KindUser,
			message: "boom",
		},
		{
			name: "parse error",
			src:  `.a { b: (; }`,
			kind: serrors.KindParse,
		},
		{
			name: "declaration outside of a rule",
			src:  `color: red;`,
			kind: serrors.KindParse,
		},
		{
			name: "recursion",
			src:  `@function f($n) { @return f($n); } .a { x: f(1); }`,
			kind: serrors.KindRecursionLimit,
		},
		{
			name: "import cycle",
			src:  `@import "a";`,
			resolver: MapResolver{
				"_a.scss": `@import "b";`,
				"_b.scss": `@import "a";`,
			},
			kind: serrors.KindImport,
		},
		{
			name:     "missing import",
			src:      `@import "nothing";`,
			resolver: MapResolver{},
			kind:     serrors.KindImport,
		},
		{
			name: "map as property value",
			src:  `.a { x: (a: 1); }`,
			kind: serrors.KindSerialization,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Compile([]byte(c.src), Options{FileName: "main.scss", Resolver: c.resolver})
			require.Error(t, err)

			var cerr *serrors.CompileError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, c.kind, cerr.Kind, cerr.Error())

			if c.message != "" {
				assert.Equal(t, c.message, cerr.Message)
			}
		})
	}
}

func TestUnitMismatchPosition(t *testing.T) {
	_, err := Compile([]byte(".a { width: 1px + 1s; }"), Options{FileName: "main.scss"})
	require.Error(t, err)

	cerr := err.(*serrors.CompileError)
	assert.Equal(t, serrors.KindUnitMismatch, cerr.Kind)
	assert.Equal(t, "main.scss", cerr.File)
	assert.Equal(t, 1, cerr.Line)
	assert.Equal(t, 13, cerr.Column)
	assert.Equal(t, 12, cerr.Offset)
	assert.Contains(t, cerr.Error(), "UnitMismatch: ")
}

func TestCompileImports(t *testing.T) {
	got, err := Compile([]byte(`@import "vars"; .a { color: $c; }`), Options{
		FileName: "main.scss",
		Resolver: MapResolver{
			"_vars.scss": `$c: blue;`,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, ".a {\n  color: blue;\n}\n", got)
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.scss"), []byte(`@import "partial"; .a { width: $w; }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_partial.scss"), []byte(`$w: 4px;`), 0o644))

	res, err := CompileFile(filepath.Join(dir, "main.scss"), Options{})
	require.NoError(t, err)

	assert.Equal(t, ".a {\n  width: 4px;\n}\n", res.CSS)
	require.Len(t, res.Imports, 1)
	assert.Equal(t, "_partial.scss", filepath.Base(res.Imports[0]))
}

func TestCompileFileMissing(t *testing.T) {
	_, err := CompileFile(filepath.Join(t.TempDir(), "nope.scss"), Options{})
	require.Error(t, err)
	assert.Equal(t, serrors.KindImport, err.(*serrors.CompileError).Kind)
}

func TestCompileSeeded(t *testing.T) {
	src := []byte(`.a { x: random(1000); }`)

	first, err := Compile(src, Options{Rand: rand.New(rand.NewSource(7))})
	require.NoError(t, err)

	second, err := Compile(src, Options{Rand: rand.New(rand.NewSource(7))})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompileConcurrent(t *testing.T) {
	src := []byte(`$x: 1px; @mixin m { width: $x * 2; } .a { @include m; }`)

	var wg sync.WaitGroup
	results := make([]string, 8)
	errs := make([]error, 8)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Compile(src, Options{})
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, ".a {\n  width: 2px;\n}\n", results[i])
	}
}
