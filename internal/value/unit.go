package value

import (
	"math"
	"math/big"
	"strings"

	"golang.org/x/exp/slices"
)

// Units is a compound unit such as px, px*px or px/s.
type Units struct {
	Numer []string
	Denom []string
}

func Unit(u string) Units {
	if u == "" {
		return Units{}
	}

	return Units{Numer: []string{u}}
}

func (u Units) IsEmpty() bool {
	return len(u.Numer) == 0 && len(u.Denom) == 0
}

// IsSimple reports whether the unit can be written in CSS.
func (u Units) IsSimple() bool {
	return len(u.Numer) <= 1 && len(u.Denom) == 0
}

func (u Units) String() string {
	switch {
	case u.IsEmpty():
		return ""
	case len(u.Denom) == 0:
		return strings.Join(u.Numer, "*")
	case len(u.Numer) == 0:
		if len(u.Denom) == 1 {
			return u.Denom[0] + "^-1"
		}
		return "(" + strings.Join(u.Denom, "*") + ")^-1"
	}

	return strings.Join(u.Numer, "*") + "/" + strings.Join(u.Denom, "*")
}

// Describe names the unit for error messages.
func (u Units) Describe() string {
	if u.IsEmpty() {
		return "(unitless)"
	}

	return u.String()
}

func (u Units) Equal(o Units) bool {
	return slices.Equal(u.Numer, o.Numer) && slices.Equal(u.Denom, o.Denom)
}

type unitInfo struct {
	family string
	// factor converts one of this unit into the family's base unit.
	factor *big.Rat
}

var one = big.NewRat(1, 1)

var unitTable = map[string]unitInfo{
	"px": {"length", big.NewRat(1, 1)},
	"in": {"length", big.NewRat(96, 1)},
	"cm": {"length", big.NewRat(4800, 127)},
	"mm": {"length", big.NewRat(480, 127)},
	"q":  {"length", big.NewRat(120, 127)},
	"pt": {"length", big.NewRat(4, 3)},
	"pc": {"length", big.NewRat(16, 1)},

	"deg":  {"angle", big.NewRat(1, 1)},
	"grad": {"angle", big.NewRat(9, 10)},
	"rad":  {"angle", new(big.Rat).SetFloat64(180 / math.Pi)},
	"turn": {"angle", big.NewRat(360, 1)},

	"ms": {"time", big.NewRat(1, 1)},
	"s":  {"time", big.NewRat(1000, 1)},

	"hz":  {"frequency", big.NewRat(1, 1)},
	"khz": {"frequency", big.NewRat(1000, 1)},

	"dppx": {"resolution", big.NewRat(1, 1)},
	"x":    {"resolution", big.NewRat(1, 1)},
	"dpi":  {"resolution", big.NewRat(1, 96)},
	"dpcm": {"resolution", big.NewRat(254, 9600)},
}

func lookupUnit(u string) unitInfo {
	if info, ok := unitTable[strings.ToLower(u)]; ok {
		return info
	}

	// Unknown units only convert to themselves.
	return unitInfo{family: u, factor: one}
}

// unitRatio returns the factor converting an amount in from into to.
func unitRatio(from, to string) (*big.Rat, bool) {
	if from == to {
		return one, true
	}

	f, t := lookupUnit(from), lookupUnit(to)
	if f.family != t.family {
		return nil, false
	}

	return new(big.Rat).Quo(f.factor, t.factor), true
}

// Compatible reports whether amounts in u can be converted to o.
func (u Units) Compatible(o Units) bool {
	_, ok := u.factorTo(o)
	return ok
}

// factorTo returns the factor converting an amount in u into o.
func (u Units) factorTo(o Units) (*big.Rat, bool) {
	if len(u.Numer) != len(o.Numer) || len(u.Denom) != len(o.Denom) {
		return nil, false
	}

	factor := new(big.Rat).SetInt64(1)

	if !matchUnits(u.Numer, o.Numer, func(r *big.Rat) { factor.Mul(factor, r) }) {
		return nil, false
	}
	if !matchUnits(u.Denom, o.Denom, func(r *big.Rat) { factor.Quo(factor, r) }) {
		return nil, false
	}

	return factor, true
}

func matchUnits(from, to []string, apply func(r *big.Rat)) bool {
	used := make([]bool, len(from))

	for _, t := range to {
		found := false

		for i, f := range from {
			if used[i] {
				continue
			}

			if r, ok := unitRatio(f, t); ok {
				used[i] = true
				apply(r)
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

// simplifyUnits cancels numerator units against compatible denominator units,
// returning the remaining unit and the factor to apply to the magnitude.
func simplifyUnits(numer, denom []string) (Units, *big.Rat) {
	factor := new(big.Rat).SetInt64(1)
	denomLeft := slices.Clone(denom)

	var numerLeft []string

	for _, n := range numer {
		matched := false

		for i, d := range denomLeft {
			if r, ok := unitRatio(n, d); ok {
				factor.Mul(factor, r)
				denomLeft = slices.Delete(denomLeft, i, i+1)
				matched = true
				break
			}
		}

		if !matched {
			numerLeft = append(numerLeft, n)
		}
	}

	if len(denomLeft) == 0 {
		denomLeft = nil
	}

	return Units{Numer: numerLeft, Denom: denomLeft}, factor
}
