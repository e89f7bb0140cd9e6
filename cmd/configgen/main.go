package main

import (
	"flag"
	"log"

	"github.com/danmuck/planetctl/internal/config"
)

func main() {
	kind := flag.String("kind", "planet", "template kind: planet|flat")
	output := flag.String("output", "config.toml", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing scene config")
	input := flag.String("input", "config.toml", "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.LoadFile(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated scene config at %s (%dx%d, layers=%v)",
			*input, cfg.Image.Width, cfg.Image.Height, cfg.LayerNamespaces())
		return
	}

	if err := config.WriteTemplate(*output, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, *output)
}
