package gate

import (
	"errors"
	"fmt"

	"github.com/danmuck/planetctl/internal/config"
)

var ErrUnknownPreset = errors.New("gate: unknown preset")

type Color struct {
	R, G, B, A int
}

// Pixel is the unclamped compositing accumulator.
type Pixel struct {
	R, G, B, A float64
}

func (p Pixel) add(c Color) Pixel {
	return Pixel{
		R: p.R + float64(c.R),
		G: p.G + float64(c.G),
		B: p.B + float64(c.B),
		A: p.A + float64(c.A),
	}
}

type Blend int

const (
	Overwrite Blend = iota
	Additive
)

func (b Blend) String() string {
	if b == Additive {
		return "additive"
	}
	return "overwrite"
}

type SourceKind int

const (
	Literal SourceKind = iota
	Preset
)

// Source is either a literal color or a named preset.
type Source struct {
	Kind    SourceKind
	Literal Color
	Preset  string
}

type Gate struct {
	Threshold    float64
	HasThreshold bool
	Check        bool
	Source       Source
	Blend        Blend
}

var presets = map[string]Color{
	"grass": {R: 51, G: 65, B: 16, A: 255},
	"sand":  {R: 239, G: 197, B: 155, A: 255},
	"water": {R: 70, G: 88, B: 186, A: 255},
}

// Water is the open-water fallback for pixels no gate claimed.
var Water = presets["water"]

// LookupPreset returns the fixed color for name. Names match exactly.
func LookupPreset(name string) (Color, bool) {
	c, ok := presets[name]
	return c, ok
}

// Compile converts wire specs to tagged gates. A preset takes precedence over
// literal channels; absent channels are zero.
func Compile(specs []config.GateSpec) ([]Gate, error) {
	out := make([]Gate, 0, len(specs))
	for i, spec := range specs {
		g := Gate{
			Check: deref(spec.Check),
			Blend: Overwrite,
		}
		if spec.Cla != nil {
			g.Threshold = *spec.Cla
			g.HasThreshold = true
		}
		if deref(spec.Modify) {
			g.Blend = Additive
		}
		if spec.Preset != nil {
			if _, ok := LookupPreset(*spec.Preset); !ok {
				return nil, fmt.Errorf("%w: gates[%d] preset %q", ErrUnknownPreset, i, *spec.Preset)
			}
			g.Source = Source{Kind: Preset, Preset: *spec.Preset}
		} else {
			g.Source = Source{Kind: Literal, Literal: Color{
				R: deref(spec.Red),
				G: deref(spec.Green),
				B: deref(spec.Blue),
				A: deref(spec.Alpha),
			}}
		}
		out = append(out, g)
	}
	return out, nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
