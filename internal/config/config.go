package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	ErrInvalidImage = errors.New("config: invalid image size")
	ErrInvalidNoise = errors.New("config: invalid noise spec")
)

// Image describes the output raster and its disc/space post-processing flags.
type Image struct {
	Width    int  `toml:"width" json:"width"`
	Height   int  `toml:"height" json:"height"`
	Circular bool `toml:"circular" json:"circular"`
	Circle   bool `toml:"circle" json:"circle"`
	Space    bool `toml:"space" json:"space"`
}

type Point struct {
	X float64 `toml:"x" json:"x"`
	Y float64 `toml:"y" json:"y"`
}

// NoiseSpec holds the generation parameters for one namespace. Zero values
// select the generator defaults.
type NoiseSpec struct {
	Method      string  `toml:"method" json:"method"`
	Octaves     int     `toml:"oct" json:"oct,omitempty"`
	Amplitude   float64 `toml:"amp" json:"amp,omitempty"`
	Persistence float64 `toml:"per" json:"per,omitempty"`
	Scale       float64 `toml:"scale" json:"scale,omitempty"`
	Seed        *int64  `toml:"seed" json:"seed,omitempty"`
}

// GateSpec is the declarative wire form of a gate. Every field is optional.
type GateSpec struct {
	Cla    *float64 `toml:"cla" json:"cla,omitempty"`
	Check  *bool    `toml:"check" json:"check,omitempty"`
	Preset *string  `toml:"preset" json:"preset,omitempty"`
	Red    *int     `toml:"red" json:"red,omitempty"`
	Green  *int     `toml:"green" json:"green,omitempty"`
	Blue   *int     `toml:"blue" json:"blue,omitempty"`
	Alpha  *int     `toml:"alpha" json:"alpha,omitempty"`
	Modify *bool    `toml:"modify" json:"modify,omitempty"`
}

// Layer binds an ordered gate list to a noise namespace.
type Layer struct {
	Namespace string     `toml:"namespace" json:"namespace"`
	Gates     []GateSpec `toml:"gates" json:"gates"`
}

// Config is an immutable render snapshot. Layer order is significant: later
// layers paint over or blend onto earlier ones.
type Config struct {
	Image  Image                `toml:"image" json:"image"`
	Offset Point                `toml:"offset" json:"offset"`
	Sun    Point                `toml:"sun" json:"sun"`
	Noise  map[string]NoiseSpec `toml:"noise" json:"noise"`
	Layers []Layer              `toml:"layers" json:"layers"`
}

func LoadFile(path string) (Config, error) {
	var cfg Config
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Noise == nil {
		cfg.Noise = map[string]NoiseSpec{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Image.Width <= 0 || c.Image.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidImage, c.Image.Width, c.Image.Height)
	}
	for name, spec := range c.Noise {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty namespace", ErrInvalidNoise)
		}
		if spec.Octaves < 0 || spec.Scale < 0 || spec.Persistence < 0 {
			return fmt.Errorf("%w: namespace %q", ErrInvalidNoise, name)
		}
	}
	for i, layer := range c.Layers {
		if strings.TrimSpace(layer.Namespace) == "" {
			return fmt.Errorf("layer[%d] missing namespace", i)
		}
	}
	return nil
}

// Clone returns a deep copy that shares no mutable state with c.
func (c Config) Clone() Config {
	out := c
	out.Noise = make(map[string]NoiseSpec, len(c.Noise))
	for name, spec := range c.Noise {
		out.Noise[name] = spec.clone()
	}
	out.Layers = make([]Layer, len(c.Layers))
	for i, layer := range c.Layers {
		out.Layers[i] = layer.clone()
	}
	return out
}

// LayerNamespaces lists the layer namespaces in declared order.
func (c Config) LayerNamespaces() []string {
	out := make([]string, 0, len(c.Layers))
	for _, layer := range c.Layers {
		out = append(out, layer.Namespace)
	}
	return out
}

func (s NoiseSpec) clone() NoiseSpec {
	out := s
	out.Seed = clonePtr(s.Seed)
	return out
}

func (l Layer) clone() Layer {
	out := Layer{Namespace: l.Namespace, Gates: make([]GateSpec, len(l.Gates))}
	for i, g := range l.Gates {
		out.Gates[i] = g.clone()
	}
	return out
}

func (g GateSpec) clone() GateSpec {
	return GateSpec{
		Cla:    clonePtr(g.Cla),
		Check:  clonePtr(g.Check),
		Preset: clonePtr(g.Preset),
		Red:    clonePtr(g.Red),
		Green:  clonePtr(g.Green),
		Blue:   clonePtr(g.Blue),
		Alpha:  clonePtr(g.Alpha),
		Modify: clonePtr(g.Modify),
	}
}

func clonePtr[T any](in *T) *T {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
