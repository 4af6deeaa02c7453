// Package builtin holds the registry of native functions. The registry is
// built once at init time and only read afterwards, so it is safe to share
// between concurrent compilations.
package builtin

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pipe01/sassy/internal/value"
)

// Env gives native functions access to per-compilation state.
type Env interface {
	Rand() *rand.Rand
}

type Param struct {
	Name string

	// Default is nil for required parameters.
	Default value.Value
}

type Signature struct {
	Params []Param

	// Rest names the variadic parameter, if any.
	Rest string
}

// NamedArg is an argument passed by keyword.
type NamedArg struct {
	Name  string
	Value value.Value
}

type Func struct {
	Name string
	Signature

	// Call receives one value per parameter, followed by an *value.ArgList when
	// the signature has a rest parameter.
	Call func(env Env, args []value.Value) (value.Value, error)
}

var registry = map[string][]*Func{}

// register adds an overload of name. sig is written like a parameter list:
// "$color, $amount: 50%, $rest...".
func register(name, sig string, call func(env Env, args []value.Value) (value.Value, error)) {
	registry[name] = append(registry[name], New(name, sig, call))
}

// New builds a native function outside of the registry, for callers that keep
// their own table of functions.
func New(name, sig string, call func(env Env, args []value.Value) (value.Value, error)) *Func {
	return &Func{
		Name:      name,
		Signature: parseSignature(sig),
		Call:      call,
	}
}

// Lookup returns the overloads registered for name.
func Lookup(name string) []*Func {
	return registry[name]
}

func Has(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names returns every registered function name.
func Names() []string {
	ret := make([]string, 0, len(registry))
	for name := range registry {
		ret = append(ret, name)
	}
	return ret
}

func parseSignature(sig string) Signature {
	var s Signature

	if strings.TrimSpace(sig) == "" {
		return s
	}

	for _, part := range strings.Split(sig, ",") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "$") {
			panic(fmt.Sprintf("invalid builtin signature %q", sig))
		}
		part = part[1:]

		if strings.HasSuffix(part, "...") {
			s.Rest = strings.TrimSuffix(part, "...")
			continue
		}

		name, def, hasDefault := strings.Cut(part, ":")
		p := Param{Name: strings.TrimSpace(name)}
		if hasDefault {
			p.Default = parseDefault(strings.TrimSpace(def))
		}

		s.Params = append(s.Params, p)
	}

	return s
}

func parseDefault(text string) value.Value {
	switch text {
	case "null":
		return value.Null{}
	case "true":
		return value.True
	case "false":
		return value.False
	}

	end := len(text)
	for end > 0 && !(text[end-1] >= '0' && text[end-1] <= '9') {
		end--
	}

	if end > 0 {
		if n, err := value.ParseNumber(text[:end], text[end:]); err == nil {
			return n
		}
	}

	return value.Unquoted(text)
}

// Accepts reports whether the overload can take npos positional arguments and
// the given keyword names.
func (f *Func) Accepts(npos int, names []string) bool {
	if npos > len(f.Params) && f.Rest == "" {
		return false
	}

	bound := make(map[string]bool, len(names))
	for _, n := range names {
		if f.index(n) < 0 && f.Rest == "" {
			return false
		}
		bound[n] = true
	}

	for i, p := range f.Params {
		if i >= npos && p.Default == nil && !bound[p.Name] {
			return false
		}
	}

	return true
}

func (f *Func) index(name string) int {
	for i, p := range f.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Bind matches arguments to parameters, filling in defaults. Extra positional
// and unknown keyword arguments go to the rest parameter when there is one.
func (f *Func) Bind(positional []value.Value, named []NamedArg, sep value.Separator) ([]value.Value, error) {
	n := len(f.Params)
	if f.Rest != "" {
		n++
	}
	args := make([]value.Value, n)

	if len(positional) > len(f.Params) && f.Rest == "" {
		return nil, value.ArgumentErrorf("only %d arguments allowed, but %d were passed to %s()", len(f.Params), len(positional), f.Name)
	}

	for i, v := range positional {
		if i < len(f.Params) {
			args[i] = v
		}
	}

	var rest *value.ArgList
	if f.Rest != "" {
		rest = &value.ArgList{Sep: sep, Keywords: &value.Map{}}
		if len(positional) > len(f.Params) {
			rest.Items = append(rest.Items, positional[len(f.Params):]...)
		}
		if sep == value.SepUndecided {
			rest.Sep = value.SepComma
		}
		args[n-1] = rest
	}

	for _, a := range named {
		i := f.index(a.Name)
		switch {
		case i >= 0 && args[i] != nil:
			return nil, value.ArgumentErrorf("argument $%s was passed both by position and by name to %s()", a.Name, f.Name)
		case i >= 0:
			args[i] = a.Value
		case rest != nil:
			rest.Keywords = rest.Keywords.With(value.Unquoted(a.Name), a.Value)
		default:
			return nil, value.ArgumentErrorf("no argument named $%s in %s()", a.Name, f.Name)
		}
	}

	for i, p := range f.Params {
		if args[i] != nil {
			continue
		}
		if p.Default == nil {
			return nil, value.ArgumentErrorf("missing argument $%s in %s()", p.Name, f.Name)
		}
		args[i] = p.Default
	}

	return args, nil
}

// Resolve picks the overload of name that accepts the given arguments.
func Resolve(name string, npos int, names []string) (*Func, error) {
	overloads := registry[name]
	if len(overloads) == 0 {
		return nil, fmt.Errorf("undefined function %s", name)
	}

	for _, f := range overloads {
		if f.Accepts(npos, names) {
			return f, nil
		}
	}

	// Report the mismatch against the most general overload.
	f := overloads[len(overloads)-1]
	positional := make([]value.Value, npos)
	for i := range positional {
		positional[i] = value.Null{}
	}

	_, err := f.Bind(positional, namedStubs(names), value.SepComma)
	if err == nil {
		err = value.ArgumentErrorf("no overload of %s() takes %d arguments", name, npos)
	}
	return nil, err
}

func namedStubs(names []string) []NamedArg {
	ret := make([]NamedArg, len(names))
	for i, n := range names {
		ret[i] = NamedArg{Name: n, Value: value.Null{}}
	}
	return ret
}

func number(args []value.Value, i int, name string) (*value.Number, error) {
	n, ok := args[i].(*value.Number)
	if !ok {
		return nil, value.TypeErrorf("$%s: %s is not a number", name, value.Inspect(args[i]))
	}
	return n, nil
}

func integer(args []value.Value, i int, name string) (int64, error) {
	n, err := number(args, i, name)
	if err != nil {
		return 0, err
	}

	v, err := n.Int()
	if err != nil {
		return 0, value.TypeErrorf("$%s: %s is not an int", name, value.Inspect(n))
	}
	return v, nil
}

func color(args []value.Value, i int, name string) (*value.Color, error) {
	c, ok := args[i].(*value.Color)
	if !ok {
		return nil, value.TypeErrorf("$%s: %s is not a color", name, value.Inspect(args[i]))
	}
	return c, nil
}

func str(args []value.Value, i int, name string) (*value.String, error) {
	s, ok := args[i].(*value.String)
	if !ok {
		return nil, value.TypeErrorf("$%s: %s is not a string", name, value.Inspect(args[i]))
	}
	return s, nil
}

// mapArg accepts a map or an empty list, which doubles as the empty map.
func mapArg(args []value.Value, i int, name string) (*value.Map, error) {
	switch v := args[i].(type) {
	case *value.Map:
		return v, nil
	case *value.List:
		if len(v.Items) == 0 {
			return &value.Map{}, nil
		}
	case *value.ArgList:
		if len(v.Items) == 0 {
			return v.Keywords, nil
		}
	}

	return nil, value.TypeErrorf("$%s: %s is not a map", name, value.Inspect(args[i]))
}

func restItems(args []value.Value) []value.Value {
	if rest, ok := args[len(args)-1].(*value.ArgList); ok {
		return rest.Items
	}
	return nil
}

// plainCall renders a call to a CSS function that shares its name with a
// built-in, such as a filter's grayscale(50%).
func plainCall(name string, args ...value.Value) value.Value {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if value.IsNull(a) {
			continue
		}
		s, err := value.ToCSS(a, false)
		if err != nil {
			s = value.Inspect(a)
		}
		parts = append(parts, s)
	}

	return value.Unquoted(name + "(" + strings.Join(parts, ", ") + ")")
}
