package noise

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/danmuck/planetctl/internal/config"
)

const MethodOctaved = "pn"

const (
	defaultOctaves     = 4
	defaultAmplitude   = 0.1
	defaultPersistence = 0.2
	lacunarity         = 2.0
)

var (
	ErrUnknownMethod = errors.New("noise: unknown method")
	ErrInvalidSize   = errors.New("noise: invalid field size")
	ErrInvalidParams = errors.New("noise: invalid parameters")
)

// Params are resolved generation parameters for one namespace.
type Params struct {
	Method      string
	Octaves     int
	Amplitude   float64
	Persistence float64
	Scale       float64
	Seed        int64
}

// ParamsFromSpec applies generator defaults to spec. A missing seed is drawn
// from the clock, so only seeded specs render reproducibly.
func ParamsFromSpec(spec config.NoiseSpec) Params {
	p := Params{
		Method:      spec.Method,
		Octaves:     spec.Octaves,
		Amplitude:   spec.Amplitude,
		Persistence: spec.Persistence,
		Scale:       spec.Scale,
	}
	if p.Octaves <= 0 {
		p.Octaves = defaultOctaves
	}
	if p.Amplitude == 0 {
		p.Amplitude = defaultAmplitude
	}
	if p.Persistence == 0 {
		p.Persistence = defaultPersistence
	}
	if p.Scale <= 0 {
		p.Scale = math.Pow(lacunarity, float64(p.Octaves-1))
	}
	if spec.Seed != nil {
		p.Seed = *spec.Seed
	} else {
		p.Seed = time.Now().UnixNano()
	}
	return p
}

// Field is a row-major grid of samples in [0,1]. It is read-only once built.
type Field struct {
	Namespace string
	Method    string
	Width     int
	Height    int
	Seed      int64
	Data      []float64
}

// Build generates the field for namespace. Only the octaved method exists.
func Build(namespace string, p Params, width, height int) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	switch p.Method {
	case MethodOctaved:
		// A non-positive persistence can zero the octave weight sum.
		if p.Octaves <= 0 || p.Persistence <= 0 {
			return nil, fmt.Errorf("%w: namespace %q oct=%d per=%v", ErrInvalidParams, namespace, p.Octaves, p.Persistence)
		}
		return &Field{
			Namespace: namespace,
			Method:    p.Method,
			Width:     width,
			Height:    height,
			Seed:      p.Seed,
			Data:      octaved(p, width, height),
		}, nil
	default:
		return nil, fmt.Errorf("%w: namespace %q method %q", ErrUnknownMethod, namespace, p.Method)
	}
}

// octaved samples Perlin noise on a cylinder so the field tiles along x.
// Octave k is weighted amplitude*persistence^k; the weights are normalized
// away, leaving values centred on 0.5.
func octaved(p Params, width, height int) []float64 {
	gen := perlin.NewPerlin(1/p.Persistence, lacunarity, int32(p.Octaves), p.Seed)

	total := 0.0
	weight := p.Amplitude
	for i := 0; i < p.Octaves; i++ {
		total += weight
		weight *= p.Persistence
	}
	gain := p.Amplitude / total

	radius := float64(width) / (2 * math.Pi * p.Scale)
	cx := make([]float64, width)
	cy := make([]float64, width)
	for x := 0; x < width; x++ {
		theta := 2 * math.Pi * float64(x) / float64(width)
		cx[x] = radius * math.Cos(theta)
		cy[x] = radius * math.Sin(theta)
	}

	data := make([]float64, width*height)
	for y := 0; y < height; y++ {
		z := float64(y) / p.Scale
		row := data[y*width : (y+1)*width]
		for x := range row {
			row[x] = clamp01(0.5 + gen.Noise3D(cx[x], cy[x], z)*gain)
		}
	}
	return data
}

// Wrap maps v onto [0, dim-1] by flooring then taking the floor-modulo.
func Wrap(v float64, dim int) int {
	i := int(math.Floor(v)) % dim
	if i < 0 {
		i += dim
	}
	return i
}

// At samples the field at (x, y), wrapping both coordinates into range.
func (f *Field) At(x, y float64) float64 {
	return f.Data[Wrap(x, f.Width)+Wrap(y, f.Height)*f.Width]
}

func (f *Field) Matches(width, height int) bool {
	return f != nil && f.Width == width && f.Height == height && len(f.Data) == width*height
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
