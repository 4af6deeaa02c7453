package evaluator

import (
	"strings"

	"golang.org/x/exp/slices"

	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/builtin"
	"github.com/pipe01/sassy/internal/parser/ast"
	"github.com/pipe01/sassy/internal/value"
)

// callable is a user-defined mixin or function together with the scope it
// was defined in.
type callable struct {
	name   string
	params ast.ParamList
	nodes  []ast.Node
	scope  *scope
	node   ast.Node
}

// args are evaluated call arguments.
type args struct {
	positional []value.Value
	named      []builtin.NamedArg
	sep        value.Separator
}

func (a *args) names() []string {
	ret := make([]string, len(a.named))
	for i, n := range a.named {
		ret[i] = n.Name
	}
	return ret
}

func (c *context) evalArgs(list *ast.ArgList) (*args, error) {
	ret := &args{sep: value.SepComma}

	for _, e := range list.Positional {
		v, err := c.eval(e)
		if err != nil {
			return nil, err
		}
		ret.positional = append(ret.positional, v)
	}

	for _, a := range list.Named {
		v, err := c.eval(a.Value)
		if err != nil {
			return nil, err
		}
		ret.named = append(ret.named, builtin.NamedArg{Name: a.Name, Value: v})
	}

	if list.Rest != nil {
		v, err := c.eval(list.Rest)
		if err != nil {
			return nil, err
		}

		if err := ret.splat(v); err != nil {
			return nil, c.situate(err, list.Rest)
		}
	}

	if list.KeywordRest != nil {
		v, err := c.eval(list.KeywordRest)
		if err != nil {
			return nil, err
		}

		m, ok := v.(*value.Map)
		if !ok {
			return nil, c.situate(value.TypeErrorf("variable keyword arguments must be a map (was %s)", value.Inspect(v)), list.KeywordRest)
		}

		if err := ret.addKeywords(m); err != nil {
			return nil, c.situate(err, list.KeywordRest)
		}
	}

	return ret, nil
}

// splat expands "$args..." into positional and keyword arguments.
func (a *args) splat(v value.Value) error {
	switch v := v.(type) {
	case *value.ArgList:
		a.positional = append(a.positional, v.Items...)
		a.sep = v.Sep
		return a.addKeywords(v.Keywords)

	case *value.Map:
		return a.addKeywords(v)

	case *value.List:
		a.positional = append(a.positional, v.Items...)
		if v.Sep != value.SepUndecided {
			a.sep = v.Sep
		}

	default:
		a.positional = append(a.positional, v)
	}

	return nil
}

func (a *args) addKeywords(m *value.Map) error {
	if m == nil {
		return nil
	}

	for i, k := range m.Keys {
		s, ok := k.(*value.String)
		if !ok {
			return value.TypeErrorf("variable keyword argument map must have string keys, %s is not a string", value.Inspect(k))
		}
		a.named = append(a.named, builtin.NamedArg{
			Name:  strings.ReplaceAll(s.Text, "_", "-"),
			Value: m.Values[i],
		})
	}

	return nil
}

// bind creates the scope a call to fn runs in. Defaults are evaluated in that
// scope, so they can refer to earlier parameters and to fn's defining scope.
func (c *context) bind(fn *callable, a *args) (*scope, error) {
	params := fn.params.Params
	s := newScope(fn.scope, false)

	if len(a.positional) > len(params) && fn.params.Rest == "" {
		return nil, value.ArgumentErrorf("only %d arguments allowed, but %d were passed to %s()", len(params), len(a.positional), fn.name)
	}

	named := make(map[string]value.Value, len(a.named))
	for _, n := range a.named {
		if _, ok := named[n.Name]; ok {
			return nil, value.ArgumentErrorf("argument $%s was passed more than once to %s()", n.Name, fn.name)
		}
		named[n.Name] = n.Value
	}

	if fn.params.Rest == "" {
		for _, n := range a.named {
			if !slices.ContainsFunc(params, func(p ast.Param) bool { return p.Name == n.Name }) {
				return nil, value.ArgumentErrorf("no argument named $%s in %s()", n.Name, fn.name)
			}
		}
	}

	for i, p := range params {
		v, isNamed := named[p.Name]

		switch {
		case i < len(a.positional) && isNamed:
			return nil, value.ArgumentErrorf("argument $%s was passed both by position and by name to %s()", p.Name, fn.name)

		case i < len(a.positional):
			s.vars[p.Name] = a.positional[i]

		case isNamed:
			s.vars[p.Name] = v
			delete(named, p.Name)

		case p.Default != nil:
			prev := c.scope
			c.scope = s
			def, err := c.eval(p.Default)
			c.scope = prev

			if err != nil {
				return nil, err
			}
			s.vars[p.Name] = withoutSlash(def)

		default:
			return nil, value.ArgumentErrorf("missing argument $%s in %s()", p.Name, fn.name)
		}
	}

	if fn.params.Rest == "" {
		return s, nil
	}

	rest := &value.ArgList{Sep: a.sep, Keywords: &value.Map{}}
	if len(a.positional) > len(params) {
		rest.Items = append(rest.Items, a.positional[len(params):]...)
	}
	if rest.Sep == value.SepUndecided {
		rest.Sep = value.SepComma
	}
	for _, n := range a.named {
		if v, ok := named[n.Name]; ok {
			rest.Keywords = rest.Keywords.With(value.Unquoted(n.Name), v)
		}
	}
	s.vars[fn.params.Rest] = rest

	return s, nil
}

func (c *context) enterCall() (leave func(), err error) {
	if c.callDepth >= maxCallDepth {
		return nil, failf(serrors.KindRecursionLimit, "maximum call depth of %d reached", maxCallDepth)
	}

	c.callDepth++
	return func() { c.callDepth-- }, nil
}

func (c *context) visitInclude(n *ast.NodeInclude) error {
	mixin := c.scope.lookupMixin(n.Name)
	if mixin == nil {
		return c.situate(failf(serrors.KindUndefined, "undefined mixin %s", n.Name), n)
	}

	a, err := c.evalArgs(&n.Args)
	if err != nil {
		return err
	}

	leave, err := c.enterCall()
	if err != nil {
		return c.situate(err, n)
	}
	defer leave()

	s, err := c.bind(mixin, a)
	if err != nil {
		return c.situate(err, n)
	}

	var content *contentBlock
	if n.Content != nil {
		content = &contentBlock{
			block: n.Content,
			scope: c.scope,
			outer: c.content,
		}
	}

	prevScope, prevContent := c.scope, c.content
	c.scope, c.content = s, content
	defer func() { c.scope, c.content = prevScope, prevContent }()

	return c.visitNodes(mixin.nodes)
}

func (c *context) visitContent(n *ast.NodeContent) error {
	cb := c.content
	if cb == nil {
		return nil
	}

	a, err := c.evalArgs(&n.Args)
	if err != nil {
		return err
	}

	leave, err := c.enterCall()
	if err != nil {
		return c.situate(err, n)
	}
	defer leave()

	s, err := c.bind(&callable{
		name:   "@content",
		params: cb.block.Params,
		scope:  cb.scope,
	}, a)
	if err != nil {
		return c.situate(err, n)
	}

	prevScope, prevContent := c.scope, c.content
	c.scope, c.content = s, cb.outer
	defer func() { c.scope, c.content = prevScope, prevContent }()

	return c.withScope(false, func() error {
		return c.visitNodes(cb.block.Nodes)
	})
}

func (c *context) callFunction(fn *callable, a *args) (value.Value, error) {
	leave, err := c.enterCall()
	if err != nil {
		return nil, err
	}
	defer leave()

	s, err := c.bind(fn, a)
	if err != nil {
		return nil, err
	}

	prevScope, prevIn, prevRet := c.scope, c.inFunction, c.ret
	c.scope, c.inFunction, c.ret = s, true, nil

	err = c.visitNodes(fn.nodes)
	ret := c.ret

	c.scope, c.inFunction, c.ret = prevScope, prevIn, prevRet

	if err != nil {
		return nil, err
	}

	if ret == nil {
		return nil, c.situate(failf(serrors.KindType, "function %s finished without @return", fn.name), fn.node)
	}

	return ret, nil
}

// invoke calls the function called name: a user function in scope, an
// introspection function, a built-in, or else a plain CSS function.
func (c *context) invoke(name string, a *args) (value.Value, error) {
	norm := strings.ReplaceAll(name, "_", "-")

	if fn := c.scope.lookupFunction(norm); fn != nil {
		return c.callFunction(fn, a)
	}

	if f, ok := introspection[norm]; ok {
		return c.callNative(f, a)
	}

	if builtin.Has(norm) {
		f, err := builtin.Resolve(norm, len(a.positional), a.names())
		if err != nil {
			return nil, err
		}
		return c.callNative(f, a)
	}

	return plainFunction(name, a)
}

func (c *context) callNative(f *builtin.Func, a *args) (value.Value, error) {
	bound, err := f.Bind(a.positional, a.named, a.sep)
	if err != nil {
		return nil, err
	}

	return f.Call(c, bound)
}

// plainFunction renders a call to a function the stylesheet doesn't define,
// which is left for the browser.
func plainFunction(name string, a *args) (value.Value, error) {
	if len(a.named) > 0 {
		return nil, failf(serrors.KindUndefined, "undefined function %s: plain CSS functions don't take keyword arguments", name)
	}

	parts := make([]string, 0, len(a.positional))
	for _, v := range a.positional {
		s, err := value.ToCSS(v, false)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}

	return value.Unquoted(name + "(" + strings.Join(parts, ", ") + ")"), nil
}

// callValue calls a function reference returned by get-function().
func (c *context) callValue(f *value.Function, a *args) (value.Value, error) {
	switch ref := f.Ref.(type) {
	case *callable:
		return c.callFunction(ref, a)
	case string:
		return c.invoke(ref, a)
	}

	return plainFunction(f.Name, a)
}
