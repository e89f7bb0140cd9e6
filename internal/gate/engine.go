package gate

// Rule is a gate whose color source has been resolved to a literal.
type Rule struct {
	Threshold    float64
	HasThreshold bool
	Check        bool
	Color        Color
	Blend        Blend
}

type Rules []Rule

// Resolve expands presets into their constant colors. It runs once per
// gate list before any pixel is evaluated. Compile has already rejected
// unknown presets, so an unresolvable name can only come from a hand-built
// Gate and resolves to the zero color.
func Resolve(gates []Gate) Rules {
	out := make(Rules, len(gates))
	for i, g := range gates {
		c := g.Source.Literal
		if g.Source.Kind == Preset {
			c, _ = LookupPreset(g.Source.Preset)
		}
		out[i] = Rule{
			Threshold:    g.Threshold,
			HasThreshold: g.HasThreshold,
			Check:        g.Check,
			Color:        c,
			Blend:        g.Blend,
		}
	}
	return out
}

func (r Rule) matches(p Pixel, value float64) bool {
	if r.Check && p.A == 0 {
		return false
	}
	return !r.HasThreshold || value >= r.Threshold
}

func (r Rule) apply(p Pixel) Pixel {
	if r.Blend == Additive {
		return p.add(r.Color)
	}
	return Pixel{
		R: float64(r.Color.R),
		G: float64(r.Color.G),
		B: float64(r.Color.B),
		A: float64(r.Color.A),
	}
}

// Evaluate applies the first rule matching value to p. At most one rule fires.
func Evaluate(p Pixel, value float64, rules Rules) Pixel {
	for _, r := range rules {
		if r.matches(p, value) {
			return r.apply(p)
		}
	}
	return p
}
