package builtin

import (
	"math/big"

	"github.com/pipe01/sassy/internal/value"
)

func init() {
	register("percentage", "$number", func(env Env, args []value.Value) (value.Value, error) {
		n, err := number(args, 0, "number")
		if err != nil {
			return nil, err
		}
		if !n.Unitless() {
			return nil, value.TypeErrorf("$number: expected %s to have no units", value.Inspect(n))
		}

		return value.NewNumber(new(big.Rat).Mul(n.Value, big.NewRat(100, 1)), value.Unit("%")), nil
	})

	rounding := map[string]func(n *value.Number) *value.Number{
		"round": (*value.Number).Round,
		"ceil":  (*value.Number).Ceil,
		"floor": (*value.Number).Floor,
		"abs":   (*value.Number).Abs,
	}
	for name, fn := range rounding {
		fn := fn
		register(name, "$number", func(env Env, args []value.Value) (value.Value, error) {
			n, err := number(args, 0, "number")
			if err != nil {
				return nil, err
			}
			return fn(n), nil
		})
	}

	register("min", "$numbers...", func(env Env, args []value.Value) (value.Value, error) {
		return extremum("min", restItems(args), -1)
	})
	register("max", "$numbers...", func(env Env, args []value.Value) (value.Value, error) {
		return extremum("max", restItems(args), 1)
	})

	register("random", "$limit: null", func(env Env, args []value.Value) (value.Value, error) {
		if value.IsNull(args[0]) {
			return value.Float(env.Rand().Float64(), value.Units{}), nil
		}

		limit, err := integer(args, 0, "limit")
		if err != nil {
			return nil, err
		}
		if limit < 1 {
			return nil, value.ArgumentErrorf("$limit: must be greater than 0, was %d", limit)
		}

		return value.Int(env.Rand().Int63n(limit) + 1), nil
	})

	register("unit", "$number", func(env Env, args []value.Value) (value.Value, error) {
		n, err := number(args, 0, "number")
		if err != nil {
			return nil, err
		}
		return value.Quoted(n.Units.String()), nil
	})

	register("unitless", "$number", func(env Env, args []value.Value) (value.Value, error) {
		n, err := number(args, 0, "number")
		if err != nil {
			return nil, err
		}
		return value.Bool(n.Unitless()), nil
	})

	register("comparable", "$number1, $number2", func(env Env, args []value.Value) (value.Value, error) {
		a, err := number(args, 0, "number1")
		if err != nil {
			return nil, err
		}
		b, err := number(args, 1, "number2")
		if err != nil {
			return nil, err
		}

		return value.Bool(a.Unitless() || b.Unitless() || a.Units.Compatible(b.Units)), nil
	})
}

// extremum returns the smallest (dir -1) or largest (dir 1) number. Any
// non-number argument turns the call into the plain CSS function.
func extremum(name string, items []value.Value, dir int) (value.Value, error) {
	if len(items) == 0 {
		return nil, value.ArgumentErrorf("at least one argument must be passed to %s()", name)
	}

	var best *value.Number

	for _, it := range items {
		n, ok := it.(*value.Number)
		if !ok {
			return plainCall(name, items...), nil
		}

		if best == nil {
			best = n
			continue
		}

		c, err := n.Compare(best)
		if err != nil {
			return nil, err
		}
		if c == dir {
			best = n
		}
	}

	return best.WithoutSlash(), nil
}
