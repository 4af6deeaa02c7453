package builtin

import (
	"github.com/pipe01/sassy/internal/value"
)

func init() {
	register("length", "$list", func(env Env, args []value.Value) (value.Value, error) {
		return value.Int(int64(len(value.Items(args[0])))), nil
	})

	register("nth", "$list, $n", func(env Env, args []value.Value) (value.Value, error) {
		items := value.Items(args[0])

		i, err := listIndex(args, 1, len(items))
		if err != nil {
			return nil, err
		}

		return items[i], nil
	})

	register("set-nth", "$list, $n, $value", func(env Env, args []value.Value) (value.Value, error) {
		items := value.Items(args[0])

		i, err := listIndex(args, 1, len(items))
		if err != nil {
			return nil, err
		}

		newItems := append([]value.Value{}, items...)
		newItems[i] = args[2]

		return &value.List{
			Items:     newItems,
			Sep:       value.SeparatorOf(args[0]),
			Bracketed: value.IsBracketed(args[0]),
		}, nil
	})

	register("join", "$list1, $list2, $separator: auto, $bracketed: auto", func(env Env, args []value.Value) (value.Value, error) {
		sep, err := separatorArg(args, 2)
		if err != nil {
			return nil, err
		}

		if sep == value.SepUndecided {
			sep = value.SeparatorOf(args[0])
			if sep == value.SepUndecided {
				sep = value.SeparatorOf(args[1])
			}
			if sep == value.SepUndecided {
				sep = value.SepSpace
			}
		}

		bracketed := value.IsBracketed(args[0])
		if s, ok := args[3].(*value.String); !ok || s.Text != "auto" {
			bracketed = value.Truthy(args[3])
		}

		items := append(append([]value.Value{}, value.Items(args[0])...), value.Items(args[1])...)

		return &value.List{Items: items, Sep: sep, Bracketed: bracketed}, nil
	})

	register("append", "$list, $val, $separator: auto", func(env Env, args []value.Value) (value.Value, error) {
		sep, err := separatorArg(args, 2)
		if err != nil {
			return nil, err
		}

		if sep == value.SepUndecided {
			sep = value.SeparatorOf(args[0])
			if sep == value.SepUndecided {
				sep = value.SepSpace
			}
		}

		items := append(append([]value.Value{}, value.Items(args[0])...), args[1])

		return &value.List{Items: items, Sep: sep, Bracketed: value.IsBracketed(args[0])}, nil
	})

	register("zip", "$lists...", func(env Env, args []value.Value) (value.Value, error) {
		lists := restItems(args)
		if len(lists) == 0 {
			return value.NewList(nil, value.SepComma), nil
		}

		n := -1
		for _, l := range lists {
			if c := len(value.Items(l)); n < 0 || c < n {
				n = c
			}
		}

		ret := make([]value.Value, n)
		for i := range ret {
			tuple := make([]value.Value, len(lists))
			for j, l := range lists {
				tuple[j] = value.Items(l)[i]
			}
			ret[i] = value.NewList(tuple, value.SepSpace)
		}

		return value.NewList(ret, value.SepComma), nil
	})

	register("index", "$list, $value", func(env Env, args []value.Value) (value.Value, error) {
		for i, it := range value.Items(args[0]) {
			if value.Equal(it, args[1]) {
				return value.Int(int64(i) + 1), nil
			}
		}
		return value.Null{}, nil
	})

	register("list-separator", "$list", func(env Env, args []value.Value) (value.Value, error) {
		sep := value.SeparatorOf(args[0])
		if sep == value.SepUndecided {
			sep = value.SepSpace
		}
		return value.Unquoted(sep.String()), nil
	})

	register("is-bracketed", "$list", func(env Env, args []value.Value) (value.Value, error) {
		return value.Bool(value.IsBracketed(args[0])), nil
	})
}

// listIndex converts a 1-based, possibly negative index into a slice index.
func listIndex(args []value.Value, i int, length int) (int, error) {
	n, err := integer(args, i, "n")
	if err != nil {
		return 0, err
	}

	switch {
	case n == 0:
		return 0, value.ArgumentErrorf("$n: list index may not be 0")
	case n < 0:
		n += int64(length) + 1
	}

	if n < 1 || n > int64(length) {
		return 0, value.ArgumentErrorf("$n: invalid index %s for a list with %d elements", value.Inspect(args[i]), length)
	}

	return int(n - 1), nil
}

// separatorArg parses a $separator argument. "auto" maps to SepUndecided.
func separatorArg(args []value.Value, i int) (value.Separator, error) {
	s, err := str(args, i, "separator")
	if err != nil {
		return 0, err
	}

	switch s.Text {
	case "auto":
		return value.SepUndecided, nil
	case "comma":
		return value.SepComma, nil
	case "space":
		return value.SepSpace, nil
	case "slash":
		return value.SepSlash, nil
	}

	return 0, value.ArgumentErrorf("$separator: must be \"space\", \"comma\", \"slash\", or \"auto\"")
}
