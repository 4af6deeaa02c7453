package builtin

import (
	"fmt"
	"math"
	"strings"

	"github.com/pipe01/sassy/internal/value"
)

func init() {
	for _, name := range []string{"rgb", "rgba"} {
		name := name

		register(name, "$red, $green, $blue, $alpha", func(env Env, args []value.Value) (value.Value, error) {
			return rgb(name, args[0], args[1], args[2], args[3])
		})
		register(name, "$red, $green, $blue", func(env Env, args []value.Value) (value.Value, error) {
			return rgb(name, args[0], args[1], args[2], nil)
		})
		register(name, "$color, $alpha", func(env Env, args []value.Value) (value.Value, error) {
			if isSpecial(args[0]) || isSpecial(args[1]) {
				return plainCall(name, args...), nil
			}

			c, err := color(args, 0, "color")
			if err != nil {
				return nil, err
			}
			a, err := alphaValue(args[1], "alpha")
			if err != nil {
				return nil, err
			}

			return c.WithAlpha(a), nil
		})
		register(name, "$channels", func(env Env, args []value.Value) (value.Value, error) {
			ch, alpha, special, err := splitChannels(args[0])
			if err != nil {
				return nil, err
			}
			if special {
				return plainCall(name, args[0]), nil
			}

			return rgb(name, ch[0], ch[1], ch[2], alpha)
		})
	}

	for _, name := range []string{"hsl", "hsla"} {
		name := name

		register(name, "$hue, $saturation, $lightness, $alpha", func(env Env, args []value.Value) (value.Value, error) {
			return hsl(name, args[0], args[1], args[2], args[3])
		})
		register(name, "$hue, $saturation, $lightness", func(env Env, args []value.Value) (value.Value, error) {
			return hsl(name, args[0], args[1], args[2], nil)
		})
		register(name, "$channels", func(env Env, args []value.Value) (value.Value, error) {
			ch, alpha, special, err := splitChannels(args[0])
			if err != nil {
				return nil, err
			}
			if special {
				return plainCall(name, args[0]), nil
			}

			return hsl(name, ch[0], ch[1], ch[2], alpha)
		})
	}

	channels := map[string]func(c *value.Color) value.Value{
		"red":   func(c *value.Color) value.Value { r, _, _ := c.RGB255(); return value.Int(int64(r)) },
		"green": func(c *value.Color) value.Value { _, g, _ := c.RGB255(); return value.Int(int64(g)) },
		"blue":  func(c *value.Color) value.Value { _, _, b := c.RGB255(); return value.Int(int64(b)) },
		"hue": func(c *value.Color) value.Value {
			h, _, _ := c.HSL()
			return value.Float(h, value.Unit("deg"))
		},
		"saturation": func(c *value.Color) value.Value {
			_, s, _ := c.HSL()
			return value.Float(s, value.Unit("%"))
		},
		"lightness": func(c *value.Color) value.Value {
			_, _, l := c.HSL()
			return value.Float(l, value.Unit("%"))
		},
	}
	for name, fn := range channels {
		fn := fn
		register(name, "$color", func(env Env, args []value.Value) (value.Value, error) {
			c, err := color(args, 0, "color")
			if err != nil {
				return nil, err
			}
			return fn(c), nil
		})
	}

	register("alpha", "$color", func(env Env, args []value.Value) (value.Value, error) {
		// IE's alpha(opacity=50) filter.
		if s, ok := args[0].(*value.String); ok && !s.Quoted && strings.Contains(s.Text, "=") {
			return plainCall("alpha", s), nil
		}

		c, err := color(args, 0, "color")
		if err != nil {
			return nil, err
		}
		return value.Float(c.A, value.Units{}), nil
	})

	register("opacity", "$color", func(env Env, args []value.Value) (value.Value, error) {
		if _, ok := args[0].(*value.Number); ok {
			return plainCall("opacity", args[0]), nil
		}

		c, err := color(args, 0, "color")
		if err != nil {
			return nil, err
		}
		return value.Float(c.A, value.Units{}), nil
	})

	register("mix", "$color1, $color2, $weight: 50%", func(env Env, args []value.Value) (value.Value, error) {
		a, err := color(args, 0, "color1")
		if err != nil {
			return nil, err
		}
		b, err := color(args, 1, "color2")
		if err != nil {
			return nil, err
		}
		w, err := percentArg(args, 2, "weight")
		if err != nil {
			return nil, err
		}

		return mix(a, b, w), nil
	})

	hslAdjusters := map[string]func(h, s, l, amount float64) (float64, float64, float64){
		"lighten":    func(h, s, l, amount float64) (float64, float64, float64) { return h, s, l + amount },
		"darken":     func(h, s, l, amount float64) (float64, float64, float64) { return h, s, l - amount },
		"saturate":   func(h, s, l, amount float64) (float64, float64, float64) { return h, s + amount, l },
		"desaturate": func(h, s, l, amount float64) (float64, float64, float64) { return h, s - amount, l },
	}
	for name, fn := range hslAdjusters {
		fn := fn
		register(name, "$color, $amount", func(env Env, args []value.Value) (value.Value, error) {
			c, err := color(args, 0, "color")
			if err != nil {
				return nil, err
			}
			amount, err := percentArg(args, 1, "amount")
			if err != nil {
				return nil, err
			}

			h, s, l := c.HSL()
			h, s, l = fn(h, s, l, amount)
			return value.FromHSL(h, s, l, c.A), nil
		})
	}

	// The CSS filter function saturate(150%).
	register("saturate", "$amount", func(env Env, args []value.Value) (value.Value, error) {
		if _, err := number(args, 0, "amount"); err != nil {
			return nil, err
		}
		return plainCall("saturate", args[0]), nil
	})

	register("adjust-hue", "$color, $degrees", func(env Env, args []value.Value) (value.Value, error) {
		c, err := color(args, 0, "color")
		if err != nil {
			return nil, err
		}
		deg, err := degrees(args[1], "degrees")
		if err != nil {
			return nil, err
		}

		h, s, l := c.HSL()
		return value.FromHSL(h+deg, s, l, c.A), nil
	})

	register("complement", "$color", func(env Env, args []value.Value) (value.Value, error) {
		c, err := color(args, 0, "color")
		if err != nil {
			return nil, err
		}

		h, s, l := c.HSL()
		return value.FromHSL(h+180, s, l, c.A), nil
	})

	register("grayscale", "$color", func(env Env, args []value.Value) (value.Value, error) {
		if _, ok := args[0].(*value.Number); ok {
			return plainCall("grayscale", args[0]), nil
		}

		c, err := color(args, 0, "color")
		if err != nil {
			return nil, err
		}

		h, _, l := c.HSL()
		return value.FromHSL(h, 0, l, c.A), nil
	})

	register("invert", "$color, $weight: 100%", func(env Env, args []value.Value) (value.Value, error) {
		if _, ok := args[0].(*value.Number); ok {
			return plainCall("invert", args[0]), nil
		}

		c, err := color(args, 0, "color")
		if err != nil {
			return nil, err
		}
		w, err := percentArg(args, 1, "weight")
		if err != nil {
			return nil, err
		}

		inverted := value.NewRGBA(255-c.R, 255-c.G, 255-c.B, c.A)
		return mix(inverted, c, w), nil
	})

	for _, name := range []string{"opacify", "fade-in"} {
		register(name, "$color, $amount", func(env Env, args []value.Value) (value.Value, error) {
			return adjustAlpha(args, 1)
		})
	}
	for _, name := range []string{"transparentize", "fade-out"} {
		register(name, "$color, $amount", func(env Env, args []value.Value) (value.Value, error) {
			return adjustAlpha(args, -1)
		})
	}

	register("adjust-color", "$color, $kwargs...", func(env Env, args []value.Value) (value.Value, error) {
		return modifyColor("adjust-color", args, func(cur, arg, max float64) float64 { return cur + arg })
	})

	register("change-color", "$color, $kwargs...", func(env Env, args []value.Value) (value.Value, error) {
		return modifyColor("change-color", args, func(cur, arg, max float64) float64 { return arg })
	})

	register("scale-color", "$color, $kwargs...", func(env Env, args []value.Value) (value.Value, error) {
		return modifyColor("scale-color", args, func(cur, arg, max float64) float64 {
			scale := arg / 100
			if scale > 0 {
				return cur + (max-cur)*scale
			}
			return cur + cur*scale
		})
	})

	register("ie-hex-str", "$color", func(env Env, args []value.Value) (value.Value, error) {
		c, err := color(args, 0, "color")
		if err != nil {
			return nil, err
		}

		r, g, b := c.RGB255()
		a := int(math.Round(c.A * 255))
		return value.Unquoted(fmt.Sprintf("#%02X%02X%02X%02X", a, r, g, b)), nil
	})
}

// isSpecial reports whether v is a CSS function value that must be passed
// through to the output, such as var(--x).
func isSpecial(v value.Value) bool {
	s, ok := v.(*value.String)
	if !ok || s.Quoted {
		return false
	}

	for _, prefix := range []string{"var(", "calc(", "env(", "clamp(", "min(", "max(", "attr("} {
		if strings.HasPrefix(strings.ToLower(s.Text), prefix) {
			return true
		}
	}

	return false
}

func anySpecial(vs ...value.Value) bool {
	for _, v := range vs {
		if v != nil && isSpecial(v) {
			return true
		}
	}
	return false
}

// splitChannels splits the single-argument form "r g b" or "r g b / a".
func splitChannels(v value.Value) (ch [3]value.Value, alpha value.Value, special bool, err error) {
	if isSpecial(v) {
		return ch, nil, true, nil
	}

	items := value.Items(v)

	if value.SeparatorOf(v) == value.SepSlash && len(items) == 2 {
		alpha = items[1]
		items = value.Items(items[0])
	} else if len(items) == 3 {
		if n, ok := items[2].(*value.Number); ok && n.Slash != nil {
			items = []value.Value{items[0], items[1], n.Slash.Num}
			alpha = n.Slash.Den
		}
	}

	for _, it := range items {
		if isSpecial(it) {
			return ch, nil, true, nil
		}
	}
	if alpha != nil && isSpecial(alpha) {
		return ch, nil, true, nil
	}

	if len(items) != 3 {
		return ch, nil, false, value.ArgumentErrorf("$channels: expected 3 channels, got %d", len(items))
	}

	copy(ch[:], items)
	return ch, alpha, false, nil
}

func rgb(name string, r, g, b, a value.Value) (value.Value, error) {
	if anySpecial(r, g, b, a) {
		args := []value.Value{r, g, b}
		if a != nil {
			args = append(args, a)
		}
		return plainCall(name, args...), nil
	}

	var ch [3]float64
	for i, v := range []value.Value{r, g, b} {
		f, err := channelValue(v, []string{"red", "green", "blue"}[i], 255)
		if err != nil {
			return nil, err
		}
		ch[i] = f
	}

	alpha := 1.0
	if a != nil {
		f, err := alphaValue(a, "alpha")
		if err != nil {
			return nil, err
		}
		alpha = f
	}

	return value.NewRGBA(ch[0], ch[1], ch[2], alpha), nil
}

func hsl(name string, h, s, l, a value.Value) (value.Value, error) {
	if anySpecial(h, s, l, a) {
		args := []value.Value{h, s, l}
		if a != nil {
			args = append(args, a)
		}
		return plainCall(name, args...), nil
	}

	hue, err := degrees(h, "hue")
	if err != nil {
		return nil, err
	}
	sat, err := channelValue(s, "saturation", 100)
	if err != nil {
		return nil, err
	}
	light, err := channelValue(l, "lightness", 100)
	if err != nil {
		return nil, err
	}

	alpha := 1.0
	if a != nil {
		if alpha, err = alphaValue(a, "alpha"); err != nil {
			return nil, err
		}
	}

	return value.FromHSL(hue, sat, light, alpha), nil
}

// channelValue reads a channel that is either unitless in 0..max or a percentage.
func channelValue(v value.Value, name string, max float64) (float64, error) {
	n, ok := v.(*value.Number)
	if !ok {
		return 0, value.TypeErrorf("$%s: %s is not a number", name, value.Inspect(v))
	}

	if n.Units.Equal(value.Unit("%")) {
		return n.Float() * max / 100, nil
	}

	return n.Float(), nil
}

func alphaValue(v value.Value, name string) (float64, error) {
	n, ok := v.(*value.Number)
	if !ok {
		return 0, value.TypeErrorf("$%s: %s is not a number", name, value.Inspect(v))
	}

	if n.Units.Equal(value.Unit("%")) {
		return n.Float() / 100, nil
	}

	return n.Float(), nil
}

func degrees(v value.Value, name string) (float64, error) {
	n, ok := v.(*value.Number)
	if !ok {
		return 0, value.TypeErrorf("$%s: %s is not a number", name, value.Inspect(v))
	}

	if n.Unitless() || n.Units.Equal(value.Unit("deg")) {
		return n.Float(), nil
	}

	d, err := n.ConvertTo(value.Unit("deg"))
	if err != nil {
		return n.Float(), nil
	}
	return d.Float(), nil
}

// percentArg reads an amount in 0..100, with or without "%".
func percentArg(args []value.Value, i int, name string) (float64, error) {
	n, err := number(args, i, name)
	if err != nil {
		return 0, err
	}

	f := n.Float()
	if f < 0 || f > 100 {
		return 0, value.ArgumentErrorf("$%s: expected %s to be within 0%% and 100%%", name, value.Inspect(n))
	}

	return f, nil
}

func mix(a, b *value.Color, weight float64) *value.Color {
	p := weight / 100
	w := 2*p - 1
	da := a.A - b.A

	var w1 float64
	if w*da == -1 {
		w1 = (w + 1) / 2
	} else {
		w1 = ((w+da)/(1+w*da) + 1) / 2
	}
	w2 := 1 - w1

	return value.NewRGBA(
		a.R*w1+b.R*w2,
		a.G*w1+b.G*w2,
		a.B*w1+b.B*w2,
		a.A*p+b.A*(1-p),
	)
}

func adjustAlpha(args []value.Value, sign float64) (value.Value, error) {
	c, err := color(args, 0, "color")
	if err != nil {
		return nil, err
	}
	n, err := number(args, 1, "amount")
	if err != nil {
		return nil, err
	}

	amount := n.Float()
	if amount < 0 || amount > 1 {
		return nil, value.ArgumentErrorf("$amount: expected %s to be within 0 and 1", value.Inspect(n))
	}

	return c.WithAlpha(c.A + sign*amount), nil
}

// modifyColor implements adjust-color, change-color and scale-color, which
// take their channels as keyword arguments.
func modifyColor(name string, args []value.Value, apply func(cur, arg, max float64) float64) (value.Value, error) {
	c, err := color(args, 0, "color")
	if err != nil {
		return nil, err
	}

	rest := args[1].(*value.ArgList)
	if len(rest.Items) > 0 {
		return nil, value.ArgumentErrorf("only one positional argument is allowed to %s()", name)
	}

	get := func(key string) (float64, bool, error) {
		v, ok := rest.Keywords.Get(value.Unquoted(key))
		if !ok {
			return 0, false, nil
		}

		n, ok := v.(*value.Number)
		if !ok {
			return 0, false, value.TypeErrorf("$%s: %s is not a number", key, value.Inspect(v))
		}
		if name == "scale-color" && !n.Units.Equal(value.Unit("%")) {
			return 0, false, value.ArgumentErrorf("$%s: expected %s to have unit \"%%\"", key, value.Inspect(n))
		}

		if key == "hue" {
			f, err := degrees(n, key)
			return f, true, err
		}
		return n.Float(), true, nil
	}

	for _, k := range rest.Keywords.Keys {
		switch value.Plain(k) {
		case "red", "green", "blue", "hue", "saturation", "lightness", "alpha":
		default:
			return nil, value.ArgumentErrorf("no argument named $%s in %s()", value.Plain(k), name)
		}
	}

	var vals [7]float64
	var has [7]bool
	for i, key := range []string{"red", "green", "blue", "hue", "saturation", "lightness", "alpha"} {
		if vals[i], has[i], err = get(key); err != nil {
			return nil, err
		}
	}

	hasRGB := has[0] || has[1] || has[2]
	hasHSL := has[3] || has[4] || has[5]
	if hasRGB && hasHSL {
		return nil, value.ArgumentErrorf("RGB parameters may not be passed along with HSL parameters to %s()", name)
	}

	alpha := c.A
	if has[6] {
		alpha = apply(c.A, vals[6], 1)
	}

	if hasHSL {
		h, s, l := c.HSL()
		if has[3] {
			if name == "scale-color" {
				return nil, value.ArgumentErrorf("no argument named $hue in scale-color()")
			}
			h = apply(h, vals[3], 360)
		}
		if has[4] {
			s = apply(s, vals[4], 100)
		}
		if has[5] {
			l = apply(l, vals[5], 100)
		}
		return value.FromHSL(h, s, l, alpha), nil
	}

	chans := [3]float64{c.R, c.G, c.B}
	for i := range chans {
		if has[i] {
			chans[i] = apply(chans[i], vals[i], 255)
		}
	}

	ret := value.NewRGBA(chans[0], chans[1], chans[2], alpha)
	if !hasRGB && !has[6] {
		ret.Original = c.Original
	}
	return ret, nil
}
