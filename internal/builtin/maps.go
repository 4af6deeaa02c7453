package builtin

import (
	"github.com/pipe01/sassy/internal/value"
)

func init() {
	register("map-get", "$map, $key, $keys...", func(env Env, args []value.Value) (value.Value, error) {
		m, err := mapArg(args, 0, "map")
		if err != nil {
			return nil, err
		}

		keys := append([]value.Value{args[1]}, restItems(args)...)

		var cur value.Value = m
		for _, k := range keys {
			cm, ok := cur.(*value.Map)
			if !ok {
				return value.Null{}, nil
			}

			v, ok := cm.Get(k)
			if !ok {
				return value.Null{}, nil
			}
			cur = v
		}

		return cur, nil
	})

	register("map-has-key", "$map, $key, $keys...", func(env Env, args []value.Value) (value.Value, error) {
		m, err := mapArg(args, 0, "map")
		if err != nil {
			return nil, err
		}

		keys := append([]value.Value{args[1]}, restItems(args)...)

		var cur value.Value = m
		for _, k := range keys {
			cm, ok := cur.(*value.Map)
			if !ok {
				return value.False, nil
			}

			v, ok := cm.Get(k)
			if !ok {
				return value.False, nil
			}
			cur = v
		}

		return value.True, nil
	})

	register("map-merge", "$map1, $map2", func(env Env, args []value.Value) (value.Value, error) {
		a, err := mapArg(args, 0, "map1")
		if err != nil {
			return nil, err
		}
		b, err := mapArg(args, 1, "map2")
		if err != nil {
			return nil, err
		}

		return a.Merge(b), nil
	})

	register("map-remove", "$map, $keys...", func(env Env, args []value.Value) (value.Value, error) {
		m, err := mapArg(args, 0, "map")
		if err != nil {
			return nil, err
		}

		return m.Without(restItems(args)...), nil
	})

	register("map-keys", "$map", func(env Env, args []value.Value) (value.Value, error) {
		m, err := mapArg(args, 0, "map")
		if err != nil {
			return nil, err
		}

		return value.NewList(append([]value.Value{}, m.Keys...), value.SepComma), nil
	})

	register("map-values", "$map", func(env Env, args []value.Value) (value.Value, error) {
		m, err := mapArg(args, 0, "map")
		if err != nil {
			return nil, err
		}

		return value.NewList(append([]value.Value{}, m.Values...), value.SepComma), nil
	})

	register("keywords", "$args", func(env Env, args []value.Value) (value.Value, error) {
		a, ok := args[0].(*value.ArgList)
		if !ok {
			return nil, value.TypeErrorf("$args: %s is not an argument list", value.Inspect(args[0]))
		}

		return a.Keywords, nil
	})
}
