package value

import (
	"math"
)

func undefinedOp(a Value, op string, b Value) error {
	return TypeErrorf("undefined operation \"%s %s %s\"", Inspect(a), op, Inspect(b))
}

func opaque(v Value) bool {
	switch v.(type) {
	case *Map, *Function, Null, nil:
		return true
	}

	return false
}

// Add implements "+": numeric addition, channel-wise color arithmetic, or
// string concatenation.
func Add(a, b Value) (Value, error) {
	if an, ok := a.(*Number); ok {
		if bn, ok := b.(*Number); ok {
			return an.Add(bn)
		}
	}

	if c, ok, err := colorArith(a, "+", b, func(x, y float64) (float64, error) { return x + y, nil }); ok {
		return c, err
	}

	if opaque(a) || opaque(b) {
		return nil, undefinedOp(a, "+", b)
	}

	as, aStr := a.(*String)
	bs, bStr := b.(*String)

	quoted := false
	switch {
	case aStr:
		quoted = as.Quoted
	case bStr:
		quoted = bs.Quoted
	}

	return &String{Text: Plain(a) + Plain(b), Quoted: quoted}, nil
}

// Sub implements "-". Non-numeric operands are joined with a hyphen.
func Sub(a, b Value) (Value, error) {
	if an, ok := a.(*Number); ok {
		if bn, ok := b.(*Number); ok {
			return an.Sub(bn)
		}
	}

	if c, ok, err := colorArith(a, "-", b, func(x, y float64) (float64, error) { return x - y, nil }); ok {
		return c, err
	}

	if opaque(a) || opaque(b) {
		return nil, undefinedOp(a, "-", b)
	}

	return Unquoted(Plain(a) + "-" + Plain(b)), nil
}

func Mul(a, b Value) (Value, error) {
	if an, ok := a.(*Number); ok {
		if bn, ok := b.(*Number); ok {
			return an.Mul(bn), nil
		}
	}

	if c, ok, err := colorArith(a, "*", b, func(x, y float64) (float64, error) { return x * y, nil }); ok {
		return c, err
	}

	return nil, undefinedOp(a, "*", b)
}

// Div implements "/". Non-numeric operands are joined with a slash.
func Div(a, b Value) (Value, error) {
	if an, ok := a.(*Number); ok {
		if bn, ok := b.(*Number); ok {
			return an.Div(bn)
		}
	}

	if c, ok, err := colorArith(a, "/", b, func(x, y float64) (float64, error) {
		if y == 0 {
			return 0, TypeErrorf("division by zero: %s / %s", Inspect(a), Inspect(b))
		}
		return x / y, nil
	}); ok {
		return c, err
	}

	if opaque(a) || opaque(b) {
		return nil, undefinedOp(a, "/", b)
	}

	return Unquoted(Plain(a) + "/" + Plain(b)), nil
}

func Mod(a, b Value) (Value, error) {
	if an, ok := a.(*Number); ok {
		if bn, ok := b.(*Number); ok {
			return an.Mod(bn)
		}
	}

	if c, ok, err := colorArith(a, "%", b, func(x, y float64) (float64, error) {
		if y == 0 {
			return 0, TypeErrorf("modulo by zero: %s %% %s", Inspect(a), Inspect(b))
		}
		return x - y*math.Floor(x/y), nil
	}); ok {
		return c, err
	}

	return nil, undefinedOp(a, "%", b)
}

// Neg implements unary minus.
func Neg(v Value) (Value, error) {
	switch v := v.(type) {
	case *Number:
		return v.Neg(), nil
	case *Map, *Function:
		return nil, TypeErrorf("undefined operation \"-%s\"", Inspect(v))
	}

	return Unquoted("-" + Plain(v)), nil
}

// Plus implements unary plus.
func Plus(v Value) (Value, error) {
	switch v := v.(type) {
	case *Number:
		return v.WithoutSlash(), nil
	case *Map, *Function:
		return nil, TypeErrorf("undefined operation \"+%s\"", Inspect(v))
	}

	return Unquoted("+" + Plain(v)), nil
}

// Compare orders two numbers. Any other operands are a type error.
func Compare(a, b Value, op string) (int, error) {
	an, aok := a.(*Number)
	bn, bok := b.(*Number)
	if !aok || !bok {
		return 0, undefinedOp(a, op, b)
	}

	return an.Compare(bn)
}

// colorArith applies f channel-wise between a color and a color or number.
// The second result is false when the operands are not such a pair.
func colorArith(a Value, op string, b Value, f func(x, y float64) (float64, error)) (Value, bool, error) {
	ac, aColor := a.(*Color)
	bc, bColor := b.(*Color)

	if !aColor && !bColor {
		return nil, false, nil
	}

	apply := func(xs, ys [3]float64, alpha float64) (Value, bool, error) {
		var out [3]float64
		for i := range out {
			v, err := f(xs[i], ys[i])
			if err != nil {
				return nil, true, err
			}
			out[i] = v
		}

		return NewRGBA(out[0], out[1], out[2], alpha), true, nil
	}

	switch {
	case aColor && bColor:
		if !fuzzyEqual(ac.A, bc.A) {
			return nil, true, TypeErrorf("alpha channels must be equal: %s %s %s", Inspect(a), op, Inspect(b))
		}
		return apply([3]float64{ac.R, ac.G, ac.B}, [3]float64{bc.R, bc.G, bc.B}, ac.A)

	case aColor:
		n, ok := b.(*Number)
		if !ok {
			return nil, false, nil
		}
		if !n.Unitless() {
			return nil, true, undefinedOp(a, op, b)
		}
		x := n.Float()
		return apply([3]float64{ac.R, ac.G, ac.B}, [3]float64{x, x, x}, ac.A)
	}

	n, ok := a.(*Number)
	if !ok {
		return nil, false, nil
	}
	if !n.Unitless() || op == "%" {
		return nil, true, undefinedOp(a, op, b)
	}
	x := n.Float()
	return apply([3]float64{x, x, x}, [3]float64{bc.R, bc.G, bc.B}, bc.A)
}
