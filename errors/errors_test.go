package errors

import (
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type kinded struct {
	kind Kind
}

func (k *kinded) Error() string {
	return "kinded"
}

func (k *kinded) Kind() Kind {
	return k.kind
}

func TestKindOf(t *testing.T) {
	type testCase struct {
		name string
		err  error
		want Kind
	}

	cases := []testCase{
		{
			name: "direct",
			err:  &kinded{kind: KindUnitMismatch},
			want: KindUnitMismatch,
		},
		{
			name: "wrapped",
			err:  fmt.Errorf("property %q: %w", "width", &kinded{kind: KindInvalidUnitResult}),
			want: KindInvalidUnitResult,
		},
		{
			name: "plain",
			err:  goerrors.New("boom"),
			want: KindSerialization,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, KindOf(c.err, KindSerialization))
		})
	}
}

func TestCompileErrorString(t *testing.T) {
	err := &CompileError{Kind: KindParse, Message: "expected \"{\"", File: "a.scss", Line: 2, Column: 5}
	assert.Equal(t, "ParseError: expected \"{\" at a.scss:2:5", err.Error())

	err = &CompileError{Kind: KindImport, Message: "missing"}
	assert.Equal(t, "ImportError: missing", err.Error())
}
