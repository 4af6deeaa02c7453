package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/pipe01/sassy/errors"
)

func mustParse(t *testing.T, text string) List {
	t.Helper()

	l, err := Parse(text)
	require.NoError(t, err, text)

	return l
}

func TestParse(t *testing.T) {
	type testCase struct {
		src        string
		expanded   string
		compressed string
	}

	cases := []testCase{
		{".a", ".a", ".a"},
		{"a.b#c", "a.b#c", "a.b#c"},
		{".a   .b", ".a .b", ".a .b"},
		{".a>.b", ".a > .b", ".a>.b"},
		{".a + .b ~ .c", ".a + .b ~ .c", ".a+.b~.c"},
		{".a,\n  .b", ".a, .b", ".a,.b"},
		{"a:hover::before", "a:hover::before", "a:hover::before"},
		{":not(.a,   .b)", ":not(.a, .b)", ":not(.a, .b)"},
		{"li:nth-child(2n + 1)", "li:nth-child(2n + 1)", "li:nth-child(2n + 1)"},
		{`input[type="text"]`, `input[type="text"]`, `input[type="text"]`},
		{"[data-x]", "[data-x]", "[data-x]"},
		{"%placeholder", "%placeholder", "%placeholder"},
		{"> .a", "> .a", ">.a"},
		{"*", "*", "*"},
		{"& .b", "& .b", "& .b"},
		{"&-title", "&-title", "&-title"},
		{"&:hover", "&:hover", "&:hover"},
	}

	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			l := mustParse(t, c.src)
			assert.Equal(t, c.expanded, l.Render(false))
			assert.Equal(t, c.compressed, l.Render(true))
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		".a >",
		".a > > .b",
		".a,",
		".a&",
		"[x",
		".",
		"a)",
	}

	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
			assert.Equal(t, serrors.KindSelector, serrors.KindOf(err, -1))
		})
	}
}

func TestResolve(t *testing.T) {
	type testCase struct {
		name   string
		parent string
		child  string
		want   string
	}

	cases := []testCase{
		{"implicit descendant", ".a", ".b", ".a .b"},
		{"parent after", ".a", ".b &", ".b .a"},
		{"parent product", ".a, .b", ".c, .d", ".a .c, .a .d, .b .c, .b .d"},
		{"compound", ".a", "&.b", ".a.b"},
		{"pseudo", ".a .b", "&:hover", ".a .b:hover"},
		{"suffix", ".block", "&__elem", ".block__elem"},
		{"hyphen suffix", ".btn", "&-primary", ".btn-primary"},
		{"leading combinator", ".a", "> .b", ".a > .b"},
		{"combinator before parent", ".a", ".b > &", ".b > .a"},
		{"each alternative", ".a, .b", "& + &", ".a + .a, .a + .b, .b + .a, .b + .b"},
		{"mixed", ".a, .b", ".c, &.d", ".a .c, .b .c, .a.d, .b.d"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := mustParse(t, c.child).Resolve(mustParse(t, c.parent))
			require.NoError(t, err)
			assert.Equal(t, c.want, got.String())
		})
	}
}

func TestResolveErrors(t *testing.T) {
	_, err := mustParse(t, "&.a").Resolve(nil)
	assert.Equal(t, serrors.KindSelector, serrors.KindOf(err, -1))

	_, err = mustParse(t, "&-x").Resolve(mustParse(t, ".a:hover"))
	assert.Equal(t, serrors.KindSelector, serrors.KindOf(err, -1))

	l, err := mustParse(t, ".a").Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, ".a", l.String())
}

func extension(t *testing.T, extender, target string) *Extension {
	t.Helper()

	targets, err := ParseTargets(target)
	require.NoError(t, err)
	require.Len(t, targets, 1)

	return &Extension{Extender: mustParse(t, extender), Target: targets[0]}
}

func TestExtend(t *testing.T) {
	type testCase struct {
		name       string
		extensions [][2]string
		rule       string
		want       string
	}

	cases := []testCase{
		{"simple", [][2]string{{".b", ".a"}}, ".a", ".a, .b"},
		{"in place", [][2]string{{".c", ".a"}}, ".a, .b", ".a, .c, .b"},
		{"descendant", [][2]string{{".b", ".a"}}, ".x .a", ".x .a, .x .b"},
		{"compound target", [][2]string{{".c", ".a.b"}}, ".a.b", ".a.b, .c"},
		{"compound remainder", [][2]string{{".c", ".a"}}, ".a.b", ".a.b, .b.c"},
		{"pseudo stays last", [][2]string{{".c", ".a"}}, ".a:hover", ".a:hover, .c:hover"},
		{"type goes first", [][2]string{{"p", ".a"}}, ".a.b", ".a.b, p.b"},
		{"types conflict", [][2]string{{"p", ".a"}}, "div.a", "div.a"},
		{"transitive", [][2]string{{".b", ".a"}, {".c", ".b"}}, ".a", ".a, .b, .c"},
		{"duplicates suppressed", [][2]string{{".b", ".a"}, {".b", ".a"}}, ".a", ".a, .b"},
		{"complex extender", [][2]string{{".x .b", ".a"}}, ".a", ".a, .x .b"},
		{"unmatched", [][2]string{{".b", ".z"}}, ".a", ".a"},
		{"self", [][2]string{{".a", ".a"}}, ".a", ".a"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := NewExtender()
			for _, x := range c.extensions {
				e.Add(extension(t, x[0], x[1]))
			}

			assert.Equal(t, c.want, e.Apply(mustParse(t, c.rule), "").String())
		})
	}
}

func TestExtendMatching(t *testing.T) {
	e := NewExtender()

	used := extension(t, ".b", ".a")
	unused := extension(t, ".b", ".missing")
	optional := extension(t, ".b", ".other")
	optional.Optional = true

	e.Add(used)
	e.Add(unused)
	e.Add(optional)

	e.Apply(mustParse(t, ".a"), "")

	assert.True(t, used.Matched())
	assert.Equal(t, []*Extension{unused}, e.Unmatched())
}

func TestExtendMedia(t *testing.T) {
	type testCase struct {
		name      string
		extMedia  string
		ruleMedia string
		want      string
		cross     bool
	}

	cases := []testCase{
		{"top level extends inside media", "", "print", ".a, .b", false},
		{"same media", "print", "print", ".a, .b", false},
		{"media extends top level", "print", "", ".a", true},
		{"different media", "print", "screen", ".a", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ext := extension(t, ".b", ".a")
			ext.Media = c.extMedia

			e := NewExtender()
			e.Add(ext)

			assert.Equal(t, c.want, e.Apply(mustParse(t, ".a"), c.ruleMedia).String())

			if c.cross {
				assert.Equal(t, []*Extension{ext}, e.CrossMedia())
			} else {
				assert.Empty(t, e.CrossMedia())
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	e := NewExtender()
	e.Add(extension(t, ".btn", "%base"))

	got := e.Apply(mustParse(t, "%base, .x %base"), "").WithoutPlaceholders()
	assert.Equal(t, ".btn, .x .btn", got.String())

	assert.Empty(t, mustParse(t, "%unused").WithoutPlaceholders())
}

func TestParseTargets(t *testing.T) {
	targets, err := ParseTargets(".a, .b.c")
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, ".b.c", targets[1].String())

	_, err = ParseTargets(".a .b")
	assert.Equal(t, serrors.KindSelector, serrors.KindOf(err, -1))
}
