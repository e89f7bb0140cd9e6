package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/planetctl/internal/planet"
)

type fileConfig struct {
	Planetctl runtimeConfig `toml:"planetctl"`
}

type runtimeConfig struct {
	Output        string `toml:"output"`
	Cache         string `toml:"cache"`
	State         string `toml:"state"`
	AdminListen   string `toml:"admin_listen"`
	AdminToken    string `toml:"admin_token"`
	Workers       int    `toml:"workers"`
	RenderOnStart bool   `toml:"render_on_start"`
}

// loadServiceConfig reads the [planetctl] table of a scene file. Keys that
// are absent keep their defaults.
func loadServiceConfig(path string) (planet.ServiceConfig, error) {
	cfg := planet.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return planet.ServiceConfig{}, fmt.Errorf("load planetctl config: %w", err)
	}
	rc := raw.Planetctl

	if meta.IsDefined("planetctl", "output") {
		cfg.OutputPath = strings.TrimSpace(rc.Output)
	}

	if meta.IsDefined("planetctl", "cache") {
		cfg.CachePath = strings.TrimSpace(rc.Cache)
	}

	if meta.IsDefined("planetctl", "state") {
		cfg.StatePath = strings.TrimSpace(rc.State)
	}

	if meta.IsDefined("planetctl", "admin_listen") {
		cfg.AdminListenAddr = strings.TrimSpace(rc.AdminListen)
	}

	if meta.IsDefined("planetctl", "admin_token") {
		cfg.AdminToken = strings.TrimSpace(rc.AdminToken)
	}

	if meta.IsDefined("planetctl", "workers") {
		if rc.Workers < 0 {
			return planet.ServiceConfig{}, fmt.Errorf("workers must be >= 0, got %d", rc.Workers)
		}
		cfg.Workers = rc.Workers
	}

	if meta.IsDefined("planetctl", "render_on_start") {
		cfg.RenderOnStart = rc.RenderOnStart
	}

	return cfg, nil
}
