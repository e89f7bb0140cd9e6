package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFileTemplate(t *testing.T) {
	tmpl, err := Template("planet")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	cfg, err := LoadFile(writeFile(t, "config.toml", tmpl))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Image.Width != 512 || cfg.Image.Height != 512 {
		t.Fatalf("unexpected image: %+v", cfg.Image)
	}
	if !cfg.Image.Circular || !cfg.Image.Circle || !cfg.Image.Space {
		t.Fatalf("unexpected flags: %+v", cfg.Image)
	}
	if cfg.Sun != (Point{X: 160, Y: 160}) {
		t.Fatalf("unexpected sun: %+v", cfg.Sun)
	}
	elev, ok := cfg.Noise["elevation"]
	if !ok || elev.Method != "pn" || elev.Octaves != 4 || elev.Persistence != 0.2 || elev.Seed != nil {
		t.Fatalf("unexpected elevation noise: %+v", elev)
	}
	got := cfg.LayerNamespaces()
	if len(got) != 2 || got[0] != "elevation" || got[1] != "clouds" {
		t.Fatalf("layer order not preserved: %v", got)
	}
	g := cfg.Layers[0].Gates[0]
	if g.Cla == nil || *g.Cla != 0.62 || g.Preset == nil || *g.Preset != "grass" {
		t.Fatalf("unexpected first gate: %+v", g)
	}
	clouds := cfg.Layers[1].Gates[0]
	if clouds.Check == nil || !*clouds.Check || clouds.Modify == nil || !*clouds.Modify || *clouds.Red != 60 {
		t.Fatalf("unexpected cloud gate: %+v", clouds)
	}
}

func TestLoadFileFlatTemplateHasSeed(t *testing.T) {
	tmpl, err := Template("flat")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	cfg, err := LoadFile(writeFile(t, "flat.toml", tmpl))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if seed := cfg.Noise["elevation"].Seed; seed == nil || *seed != 1 {
		t.Fatalf("unexpected seed: %v", seed)
	}
	if len(cfg.Layers[0].Gates) != 2 || *cfg.Layers[0].Gates[1].Alpha != 255 {
		t.Fatalf("unexpected gates: %+v", cfg.Layers[0].Gates)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected missing file error")
	}
	if _, err := LoadFile(writeFile(t, "bad.toml", "[image\nwidth=")); err == nil {
		t.Fatalf("expected parse error")
	}
	_, err := LoadFile(writeFile(t, "zero.toml", "[image]\nwidth = 0\nheight = 4\n"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestValidateLayerNamespace(t *testing.T) {
	cfg := Config{Image: Image{Width: 1, Height: 1}, Layers: []Layer{{Namespace: " "}}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing namespace error")
	}
	cfg = Config{Image: Image{Width: 1, Height: 1}, Noise: map[string]NoiseSpec{"a": {Octaves: -1}}}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidNoise) {
		t.Fatalf("expected ErrInvalidNoise, got %v", err)
	}
	cfg = Config{Image: Image{Width: 1, Height: 1}, Noise: map[string]NoiseSpec{"a": {Persistence: -1}}}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidNoise) {
		t.Fatalf("expected ErrInvalidNoise for negative persistence, got %v", err)
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteTemplate(path, "planet", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteTemplate(path, "planet", false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := WriteTemplate(path, "flat", true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	if _, err := Template("galaxy"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
