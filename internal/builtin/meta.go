package builtin

import (
	"github.com/pipe01/sassy/internal/value"
)

var features = map[string]bool{
	"global-variable-shadowing":   true,
	"extend-selector-pseudoclass": true,
	"units-level-3":               true,
	"at-error":                    true,
	"custom-property":             true,
}

func init() {
	register("type-of", "$value", func(env Env, args []value.Value) (value.Value, error) {
		return value.Unquoted(args[0].Type()), nil
	})

	register("inspect", "$value", func(env Env, args []value.Value) (value.Value, error) {
		return value.Unquoted(value.Inspect(args[0])), nil
	})

	register("feature-exists", "$feature", func(env Env, args []value.Value) (value.Value, error) {
		s, err := str(args, 0, "feature")
		if err != nil {
			return nil, err
		}
		return value.Bool(features[s.Text]), nil
	})
}
