package render

import (
	"fmt"

	"github.com/danmuck/planetctl/internal/config"
	"github.com/danmuck/planetctl/internal/gate"
	"github.com/danmuck/planetctl/internal/noise"
	"github.com/rs/zerolog/log"
)

// FieldSource provides built noise fields by namespace.
type FieldSource interface {
	Get(namespace string) (*noise.Field, bool)
}

// Layer is one namespace ready for sampling.
type Layer struct {
	Namespace string
	Field     *noise.Field
	Rules     gate.Rules
}

// Scene is the frozen input of a render: image flags, light, offset and the
// layers in declared order.
type Scene struct {
	Width    int
	Height   int
	Circular bool
	Circle   bool
	Space    bool
	Offset   config.Point
	Sun      config.Point
	Layers   []Layer
}

// Compile freezes cfg against the built fields. Layers whose namespace has no
// noise spec or no built field are skipped with a warning.
func Compile(cfg config.Config, fields FieldSource) (Scene, error) {
	if err := cfg.Validate(); err != nil {
		return Scene{}, err
	}
	scene := Scene{
		Width:    cfg.Image.Width,
		Height:   cfg.Image.Height,
		Circular: cfg.Image.Circular,
		Circle:   cfg.Image.Circle,
		Space:    cfg.Image.Space,
		Offset:   cfg.Offset,
		Sun:      cfg.Sun,
		Layers:   make([]Layer, 0, len(cfg.Layers)),
	}

	for _, l := range cfg.Layers {
		if _, ok := cfg.Noise[l.Namespace]; !ok {
			log.Warn().Str("namespace", l.Namespace).Msg("layer skipped: no noise configured")
			continue
		}
		field, ok := fields.Get(l.Namespace)
		if !ok || !field.Matches(scene.Width, scene.Height) {
			log.Warn().Str("namespace", l.Namespace).Msg("layer skipped: noise field not built")
			continue
		}
		gates, err := gate.Compile(l.Gates)
		if err != nil {
			return Scene{}, fmt.Errorf("layer %q: %w", l.Namespace, err)
		}
		scene.Layers = append(scene.Layers, Layer{
			Namespace: l.Namespace,
			Field:     field,
			Rules:     gate.Resolve(gates),
		})
	}
	return scene, nil
}
