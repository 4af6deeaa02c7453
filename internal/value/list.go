package value

type String struct {
	Text   string
	Quoted bool
}

func (*String) Type() string {
	return "string"
}

func Quoted(s string) *String {
	return &String{Text: s, Quoted: true}
}

func Unquoted(s string) *String {
	return &String{Text: s}
}

type Separator int

const (
	SepSpace Separator = iota
	SepComma
	SepSlash
	// SepUndecided is the separator of empty and single-element lists.
	SepUndecided
)

func (s Separator) String() string {
	switch s {
	case SepComma:
		return "comma"
	case SepSlash:
		return "slash"
	}

	return "space"
}

func (s Separator) join(compressed bool) string {
	switch s {
	case SepComma:
		if compressed {
			return ","
		}
		return ", "
	case SepSlash:
		return "/"
	}

	return " "
}

type List struct {
	Items     []Value
	Sep       Separator
	Bracketed bool
}

func (*List) Type() string {
	return "list"
}

func NewList(items []Value, sep Separator) *List {
	return &List{Items: items, Sep: sep}
}

// ArgList is the value bound to a variadic parameter.
type ArgList struct {
	Items    []Value
	Sep      Separator
	Keywords *Map
}

func (*ArgList) Type() string {
	return "arglist"
}

// Items returns v viewed as a list: maps become lists of key/value pairs and
// any other single value becomes a one-element list.
func Items(v Value) []Value {
	switch v := v.(type) {
	case *List:
		return v.Items
	case *ArgList:
		return v.Items
	case *Map:
		ret := make([]Value, v.Len())
		for i := range v.Keys {
			ret[i] = NewList([]Value{v.Keys[i], v.Values[i]}, SepSpace)
		}
		return ret
	}

	return []Value{v}
}

// SeparatorOf returns the separator of v viewed as a list.
func SeparatorOf(v Value) Separator {
	switch v := v.(type) {
	case *List:
		return v.Sep
	case *ArgList:
		return v.Sep
	case *Map:
		if v.Len() > 0 {
			return SepComma
		}
	}

	return SepUndecided
}

func IsBracketed(v Value) bool {
	l, ok := v.(*List)
	return ok && l.Bracketed
}

// Map is an insertion-ordered map with keys unique by Equal.
type Map struct {
	Keys   []Value
	Values []Value
}

func (*Map) Type() string {
	return "map"
}

func (m *Map) Len() int {
	return len(m.Keys)
}

func (m *Map) index(key Value) int {
	for i, k := range m.Keys {
		if Equal(k, key) {
			return i
		}
	}

	return -1
}

func (m *Map) Get(key Value) (Value, bool) {
	if i := m.index(key); i >= 0 {
		return m.Values[i], true
	}

	return nil, false
}

// With returns a copy of m with key set to val.
func (m *Map) With(key, val Value) *Map {
	ret := &Map{
		Keys:   append([]Value{}, m.Keys...),
		Values: append([]Value{}, m.Values...),
	}

	if i := ret.index(key); i >= 0 {
		ret.Values[i] = val
	} else {
		ret.Keys = append(ret.Keys, key)
		ret.Values = append(ret.Values, val)
	}

	return ret
}

// Without returns a copy of m without the given keys.
func (m *Map) Without(keys ...Value) *Map {
	ret := &Map{}

outer:
	for i, k := range m.Keys {
		for _, rm := range keys {
			if Equal(k, rm) {
				continue outer
			}
		}

		ret.Keys = append(ret.Keys, k)
		ret.Values = append(ret.Values, m.Values[i])
	}

	return ret
}

func (m *Map) Merge(o *Map) *Map {
	ret := m
	for i, k := range o.Keys {
		ret = ret.With(k, o.Values[i])
	}

	return ret
}

func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}

	for i, k := range m.Keys {
		v, ok := o.Get(k)
		if !ok || !Equal(m.Values[i], v) {
			return false
		}
	}

	return true
}
