package value

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// Number is an exact rational magnitude with a compound unit.
type Number struct {
	Value *big.Rat
	Units Units

	// Slash keeps the operands of a literal like "12px/30px" so that it prints
	// as written unless used in further arithmetic.
	Slash *Slash
}

type Slash struct {
	Num, Den *Number
}

func (*Number) Type() string {
	return "number"
}

func NewNumber(r *big.Rat, units Units) *Number {
	return &Number{Value: r, Units: units}
}

func Int(n int64) *Number {
	return &Number{Value: new(big.Rat).SetInt64(n)}
}

func IntUnit(n int64, unit string) *Number {
	return &Number{Value: new(big.Rat).SetInt64(n), Units: Unit(unit)}
}

// Float builds a number from a float, as needed by irrational results.
func Float(f float64, units Units) *Number {
	r := new(big.Rat)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &Number{Value: r, Units: units}
	}

	return &Number{Value: r.SetFloat64(f), Units: units}
}

// ParseNumber parses a numeric literal and its unit.
func ParseNumber(literal, unit string) (*Number, error) {
	s := literal
	switch {
	case strings.HasPrefix(s, "."):
		s = "0" + s
	case strings.HasPrefix(s, "-."):
		s = "-0" + s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, TypeErrorf("invalid number %q", literal)
	}

	return &Number{Value: r, Units: Unit(unit)}, nil
}

func (n *Number) Unitless() bool {
	return n.Units.IsEmpty()
}

func (n *Number) Float() float64 {
	f, _ := n.Value.Float64()
	return f
}

func (n *Number) IsInt() bool {
	return n.Value.IsInt()
}

// Int returns the integer value of n, failing if n has a fractional part.
func (n *Number) Int() (int64, error) {
	if !n.Value.IsInt() || !n.Value.Num().IsInt64() {
		return 0, TypeErrorf("%s is not an int", Inspect(n))
	}

	return n.Value.Num().Int64(), nil
}

// WithoutSlash drops the literal slash form, as any arithmetic does.
func (n *Number) WithoutSlash() *Number {
	if n.Slash == nil {
		return n
	}

	return &Number{Value: n.Value, Units: n.Units}
}

func (n *Number) WithValue(r *big.Rat) *Number {
	return &Number{Value: r, Units: n.Units}
}

func (n *Number) WithUnits(u Units) *Number {
	return &Number{Value: n.Value, Units: u}
}

// ConvertTo converts n into the given units.
func (n *Number) ConvertTo(u Units) (*Number, error) {
	if n.Units.Equal(u) {
		return n.WithoutSlash(), nil
	}

	factor, ok := n.Units.factorTo(u)
	if !ok {
		return nil, unitMismatch(n, &Number{Units: u})
	}

	return &Number{
		Value: new(big.Rat).Mul(n.Value, factor),
		Units: u,
	}, nil
}

// coerce brings a and b to common units for addition and comparison. A
// unitless operand takes the units of the other.
func coerce(a, b *Number) (x, y *big.Rat, units Units, err error) {
	switch {
	case a.Unitless():
		return a.Value, b.Value, b.Units, nil
	case b.Unitless():
		return a.Value, b.Value, a.Units, nil
	}

	bc, err := b.ConvertTo(a.Units)
	if err != nil {
		return nil, nil, Units{}, unitMismatch(a, b)
	}

	return a.Value, bc.Value, a.Units, nil
}

func (n *Number) Add(o *Number) (*Number, error) {
	x, y, units, err := coerce(n, o)
	if err != nil {
		return nil, err
	}

	return NewNumber(new(big.Rat).Add(x, y), units), nil
}

func (n *Number) Sub(o *Number) (*Number, error) {
	x, y, units, err := coerce(n, o)
	if err != nil {
		return nil, err
	}

	return NewNumber(new(big.Rat).Sub(x, y), units), nil
}

func (n *Number) Mul(o *Number) *Number {
	units, factor := simplifyUnits(
		append(append([]string{}, n.Units.Numer...), o.Units.Numer...),
		append(append([]string{}, n.Units.Denom...), o.Units.Denom...),
	)

	r := new(big.Rat).Mul(n.Value, o.Value)
	return NewNumber(r.Mul(r, factor), units)
}

func (n *Number) Div(o *Number) (*Number, error) {
	if o.Value.Sign() == 0 {
		return nil, TypeErrorf("division by zero: %s / %s", Inspect(n), Inspect(o))
	}

	units, factor := simplifyUnits(
		append(append([]string{}, n.Units.Numer...), o.Units.Denom...),
		append(append([]string{}, n.Units.Denom...), o.Units.Numer...),
	)

	r := new(big.Rat).Quo(n.Value, o.Value)
	return NewNumber(r.Mul(r, factor), units), nil
}

// Mod is the floored modulo: the result takes the sign of the divisor.
func (n *Number) Mod(o *Number) (*Number, error) {
	x, y, units, err := coerce(n, o)
	if err != nil {
		return nil, err
	}

	if y.Sign() == 0 {
		return nil, TypeErrorf("modulo by zero: %s %% %s", Inspect(n), Inspect(o))
	}

	q := floorRat(new(big.Rat).Quo(x, y))
	r := new(big.Rat).Sub(x, new(big.Rat).Mul(y, new(big.Rat).SetInt(q)))

	return NewNumber(r, units), nil
}

func (n *Number) Neg() *Number {
	return NewNumber(new(big.Rat).Neg(n.Value), n.Units)
}

// Compare orders n and o, converting units when needed.
func (n *Number) Compare(o *Number) (int, error) {
	x, y, _, err := coerce(n, o)
	if err != nil {
		return 0, err
	}

	return x.Cmp(y), nil
}

func (n *Number) Equal(o *Number) bool {
	if n.Unitless() != o.Unitless() {
		return false
	}

	c, err := n.Compare(o)
	if err != nil {
		return false
	}

	// Magnitudes are compared at output precision so that conversions through
	// irrational factors still round-trip.
	return c == 0 || FormatRat(new(big.Rat).Sub(n.Value, mustConvert(o, n.Units)), false) == "0"
}

func mustConvert(n *Number, u Units) *big.Rat {
	if n.Unitless() || u.IsEmpty() {
		return n.Value
	}

	c, err := n.ConvertTo(u)
	if err != nil {
		return n.Value
	}

	return c.Value
}

func floorRat(r *big.Rat) *big.Int {
	// Euclidean division floors for the always-positive denominator.
	return new(big.Int).Div(r.Num(), r.Denom())
}

// Floor, Ceil and Round implement the rounding built-ins.
func (n *Number) Floor() *Number {
	return n.WithValue(new(big.Rat).SetInt(floorRat(n.Value)))
}

func (n *Number) Ceil() *Number {
	return n.WithValue(new(big.Rat).Neg(new(big.Rat).SetInt(floorRat(new(big.Rat).Neg(n.Value)))))
}

// Round rounds halves away from zero.
func (n *Number) Round() *Number {
	half := big.NewRat(1, 2)

	if n.Value.Sign() < 0 {
		r := new(big.Rat).Sub(n.Value, half)
		return n.WithValue(new(big.Rat).Neg(new(big.Rat).SetInt(floorRat(new(big.Rat).Neg(r)))))
	}

	r := new(big.Rat).Add(n.Value, half)
	return n.WithValue(new(big.Rat).SetInt(floorRat(r)))
}

func (n *Number) Abs() *Number {
	return n.WithValue(new(big.Rat).Abs(n.Value))
}

// FormatRat prints r with at most ten decimal places.
func FormatRat(r *big.Rat, compressed bool) string {
	var s string
	if r.IsInt() {
		s = r.Num().String()
	} else {
		s = r.FloatString(10)
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}

	if s == "-0" {
		s = "0"
	}

	if compressed {
		switch {
		case strings.HasPrefix(s, "0."):
			s = s[1:]
		case strings.HasPrefix(s, "-0."):
			s = "-" + s[2:]
		}
	}

	return s
}

func (n *Number) format(compressed bool) string {
	if n.Slash != nil {
		return n.Slash.Num.format(compressed) + "/" + n.Slash.Den.format(compressed)
	}

	return FormatRat(n.Value, compressed) + n.Units.String()
}

func (n *Number) String() string {
	return n.format(false)
}

var _ fmt.Stringer = (*Number)(nil)
