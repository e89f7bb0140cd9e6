package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidPatch = errors.New("config: invalid patch")

// Patch is a partial Config. Absent fields leave the target untouched.
type Patch struct {
	Image  *ImagePatch           `json:"image,omitempty"`
	Offset *PointPatch           `json:"offset,omitempty"`
	Sun    *PointPatch           `json:"sun,omitempty"`
	Noise  map[string]NoisePatch `json:"noise,omitempty"`
	Layers []LayerPatch          `json:"layers,omitempty"`
}

type ImagePatch struct {
	Width    *int  `json:"width,omitempty"`
	Height   *int  `json:"height,omitempty"`
	Circular *bool `json:"circular,omitempty"`
	Circle   *bool `json:"circle,omitempty"`
	Space    *bool `json:"space,omitempty"`
}

type PointPatch struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

type NoisePatch struct {
	Method      *string  `json:"method,omitempty"`
	Octaves     *int     `json:"oct,omitempty"`
	Amplitude   *float64 `json:"amp,omitempty"`
	Persistence *float64 `json:"per,omitempty"`
	Scale       *float64 `json:"scale,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
}

type LayerPatch struct {
	Namespace string     `json:"namespace"`
	Gates     []GateSpec `json:"gates,omitempty"`
}

// ParsePatch decodes a single JSON patch object.
func ParsePatch(data []byte) (Patch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p Patch
	if err := dec.Decode(&p); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	if dec.More() {
		return Patch{}, fmt.Errorf("%w: trailing data", ErrInvalidPatch)
	}
	for i, layer := range p.Layers {
		if layer.Namespace == "" {
			return Patch{}, fmt.Errorf("%w: layers[%d] missing namespace", ErrInvalidPatch, i)
		}
	}
	return p, nil
}

// Apply deep-merges p into a copy of c. Layers merge by namespace and their
// gates merge index-wise; unseen namespaces are appended in patch order.
func (c Config) Apply(p Patch) Config {
	out := c.Clone()

	if p.Image != nil {
		mergeValue(&out.Image.Width, p.Image.Width)
		mergeValue(&out.Image.Height, p.Image.Height)
		mergeValue(&out.Image.Circular, p.Image.Circular)
		mergeValue(&out.Image.Circle, p.Image.Circle)
		mergeValue(&out.Image.Space, p.Image.Space)
	}
	if p.Offset != nil {
		out.Offset = p.Offset.merge(out.Offset)
	}
	if p.Sun != nil {
		out.Sun = p.Sun.merge(out.Sun)
	}

	for name, np := range p.Noise {
		out.Noise[name] = np.merge(out.Noise[name])
	}

	for _, lp := range p.Layers {
		idx := indexOfLayer(out.Layers, lp.Namespace)
		if idx < 0 {
			out.Layers = append(out.Layers, Layer{Namespace: lp.Namespace})
			idx = len(out.Layers) - 1
		}
		out.Layers[idx].Gates = mergeGates(out.Layers[idx].Gates, lp.Gates)
	}
	return out
}

func (p PointPatch) merge(pt Point) Point {
	mergeValue(&pt.X, p.X)
	mergeValue(&pt.Y, p.Y)
	return pt
}

func (p NoisePatch) merge(spec NoiseSpec) NoiseSpec {
	mergeValue(&spec.Method, p.Method)
	mergeValue(&spec.Octaves, p.Octaves)
	mergeValue(&spec.Amplitude, p.Amplitude)
	mergeValue(&spec.Persistence, p.Persistence)
	mergeValue(&spec.Scale, p.Scale)
	if p.Seed != nil {
		spec.Seed = clonePtr(p.Seed)
	}
	return spec
}

func mergeGates(dst, src []GateSpec) []GateSpec {
	for i, g := range src {
		if i >= len(dst) {
			dst = append(dst, g.clone())
			continue
		}
		dst[i] = dst[i].merge(g)
	}
	return dst
}

func (g GateSpec) merge(p GateSpec) GateSpec {
	mergePtr(&g.Cla, p.Cla)
	mergePtr(&g.Check, p.Check)
	mergePtr(&g.Preset, p.Preset)
	mergePtr(&g.Red, p.Red)
	mergePtr(&g.Green, p.Green)
	mergePtr(&g.Blue, p.Blue)
	mergePtr(&g.Alpha, p.Alpha)
	mergePtr(&g.Modify, p.Modify)
	return g
}

func indexOfLayer(layers []Layer, namespace string) int {
	for i, layer := range layers {
		if layer.Namespace == namespace {
			return i
		}
	}
	return -1
}

func mergeValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func mergePtr[T any](dst **T, src *T) {
	if src != nil {
		*dst = clonePtr(src)
	}
}
