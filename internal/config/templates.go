package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "planet", "":
		return planetTemplate, nil
	case "flat":
		return flatTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const planetTemplate = `[planetctl]
output = "image.png"
cache = "cache.sqlite3"
state = "state.json"
admin_listen = ""
render_on_start = true

[image]
width = 512
height = 512
circular = true
circle = true
space = true

[offset]
x = 0
y = 0

[sun]
x = 160
y = 160

[noise.elevation]
method = "pn"
oct = 4
amp = 0.1
per = 0.2

[noise.clouds]
method = "pn"
oct = 6
per = 0.5

[[layers]]
namespace = "elevation"

  [[layers.gates]]
  cla = 0.62
  preset = "grass"

  [[layers.gates]]
  cla = 0.56
  preset = "sand"

[[layers]]
namespace = "clouds"

  [[layers.gates]]
  cla = 0.7
  check = true
  modify = true
  red = 60
  green = 60
  blue = 60
`

const flatTemplate = `[planetctl]
output = "image.png"

[image]
width = 256
height = 256

[sun]
x = 0
y = 0

[noise.elevation]
method = "pn"
seed = 1

[[layers]]
namespace = "elevation"

  [[layers.gates]]
  cla = 0.6
  preset = "grass"

  [[layers.gates]]
  red = 70
  green = 88
  blue = 186
  alpha = 255
`
