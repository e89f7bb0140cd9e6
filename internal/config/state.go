package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveState writes c as an indented JSON snapshot. Noise data never lives in
// Config, so the snapshot only carries parameters.
func SaveState(path string, c Config) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("state encode failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("state write failed (%s): %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("state write failed (%s): %w", path, err)
	}
	return nil
}

// LoadState reads a snapshot written by SaveState back as a Patch so it can
// be layered over a base configuration.
func LoadState(path string) (Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Patch{}, fmt.Errorf("state load failed (%s): %w", path, err)
	}
	p, err := ParsePatch(data)
	if err != nil {
		return Patch{}, fmt.Errorf("state parse failed (%s): %w", path, err)
	}
	return p, nil
}
