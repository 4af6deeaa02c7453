package evaluator

import (
	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/builtin"
	"github.com/pipe01/sassy/internal/value"
)

// introspection holds the functions that need to look at the evaluator's
// state rather than just their arguments.
var introspection = map[string]*builtin.Func{}

func init() {
	def := func(name, sig string, call func(c *context, args []value.Value) (value.Value, error)) {
		introspection[name] = builtin.New(name, sig, func(env builtin.Env, args []value.Value) (value.Value, error) {
			return call(env.(*context), args)
		})
	}

	def("if", "$condition, $if-true, $if-false", func(c *context, args []value.Value) (value.Value, error) {
		if value.Truthy(args[0]) {
			return args[1], nil
		}
		return args[2], nil
	})

	def("variable-exists", "$name", func(c *context, args []value.Value) (value.Value, error) {
		name, err := nameArg(args[0])
		if err != nil {
			return nil, err
		}

		_, ok := c.scope.lookup(name)
		return value.Bool(ok), nil
	})

	def("global-variable-exists", "$name", func(c *context, args []value.Value) (value.Value, error) {
		name, err := nameArg(args[0])
		if err != nil {
			return nil, err
		}

		return value.Bool(c.global.has(name)), nil
	})

	def("function-exists", "$name", func(c *context, args []value.Value) (value.Value, error) {
		name, err := nameArg(args[0])
		if err != nil {
			return nil, err
		}

		_, special := introspection[name]
		return value.Bool(c.scope.lookupFunction(name) != nil || special || builtin.Has(name)), nil
	})

	def("mixin-exists", "$name", func(c *context, args []value.Value) (value.Value, error) {
		name, err := nameArg(args[0])
		if err != nil {
			return nil, err
		}

		return value.Bool(c.scope.lookupMixin(name) != nil), nil
	})

	def("content-exists", "", func(c *context, args []value.Value) (value.Value, error) {
		return value.Bool(c.content != nil), nil
	})

	def("get-function", "$name, $css: false", func(c *context, args []value.Value) (value.Value, error) {
		name, err := nameArg(args[0])
		if err != nil {
			return nil, err
		}

		if value.Truthy(args[1]) {
			return &value.Function{Name: name}, nil
		}

		if fn := c.scope.lookupFunction(name); fn != nil {
			return &value.Function{Name: name, Ref: fn}, nil
		}

		if _, ok := introspection[name]; ok || builtin.Has(name) {
			return &value.Function{Name: name, Ref: name}, nil
		}

		return nil, failf(serrors.KindUndefined, "function not found: %s", name)
	})

	def("call", "$function, $args...", func(c *context, vals []value.Value) (value.Value, error) {
		rest := vals[1].(*value.ArgList)

		a := &args{positional: rest.Items, sep: rest.Sep}
		if err := a.addKeywords(rest.Keywords); err != nil {
			return nil, err
		}

		switch f := vals[0].(type) {
		case *value.Function:
			return c.callValue(f, a)
		case *value.String:
			return c.invoke(f.Text, a)
		}

		return nil, value.TypeErrorf("$function: %s is not a function reference", value.Inspect(vals[0]))
	})
}

func nameArg(v value.Value) (string, error) {
	s, ok := v.(*value.String)
	if !ok {
		return "", value.TypeErrorf("$name: %s is not a string", value.Inspect(v))
	}
	return normalizeName(s.Text), nil
}
