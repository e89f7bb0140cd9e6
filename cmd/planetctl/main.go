package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/planetctl/internal/config"
	"github.com/danmuck/planetctl/internal/observability"
	"github.com/danmuck/planetctl/internal/planet"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "config.toml", "scene config path")
	resume := flag.Bool("resume", false, "layer the saved state snapshot over the config")
	once := flag.Bool("once", false, "render once and exit without reading patches")
	outputPath := flag.String("output", "", "override the output image path")
	admin := flag.String("admin", "", "override the admin listen address")
	flag.Parse()

	observability.InitLogger("planetctl")

	if err := run(*configPath, *resume, *once, *outputPath, *admin); err != nil {
		fmt.Fprintf(os.Stderr, "planetctl: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, resume, once bool, outputPath, admin string) error {
	scene, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	svcCfg, err := loadServiceConfig(configPath)
	if err != nil {
		return err
	}
	if outputPath != "" {
		svcCfg.OutputPath = outputPath
	}
	if admin != "" {
		svcCfg.AdminListenAddr = admin
	}
	log.Info().Str("path", configPath).Msg("loaded scene config")

	if resume && svcCfg.StatePath != "" {
		p, err := config.LoadState(svcCfg.StatePath)
		switch {
		case err == nil:
			scene = scene.Apply(p)
			log.Info().Str("state", svcCfg.StatePath).Msg("resumed saved state")
		case errors.Is(err, fs.ErrNotExist):
			log.Warn().Str("state", svcCfg.StatePath).Msg("no saved state to resume")
		default:
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := planet.NewServiceWithConfig(svcCfg, scene)
	if !once {
		return svc.Run(ctx, os.Stdin)
	}

	if err := svc.Bootstrap(ctx); err != nil {
		return err
	}
	defer svc.Close()
	_, err = svc.Render(ctx)
	return err
}
