package render

import (
	"context"
	"image"
	"math"
	"runtime"

	"github.com/danmuck/planetctl/internal/gate"
	"golang.org/x/sync/errgroup"
)

// discMargin is subtracted from the half width to get the disc radius.
const discMargin = 60

type Options struct {
	// Workers bounds concurrent row compositing. Zero means GOMAXPROCS.
	Workers int
}

// Render runs the full pipeline into a fresh raster: per-pixel compositing,
// 5/6/5 quantization, then the circle and space passes.
func Render(ctx context.Context, scene Scene, opts Options) (*image.NRGBA, error) {
	img, err := Composite(ctx, scene, opts)
	if err != nil {
		return nil, err
	}
	Dither565(img)
	if scene.Circle {
		img = RotateCrop(img)
		if scene.Space {
			MaskSpace(img, scene.Disc())
		}
	}
	return img, nil
}

// Composite evaluates every pixel of the scene. Pixels are independent, so
// rows are spread across workers; the buffer starts transparent black.
func Composite(ctx context.Context, scene Scene, opts Options) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, scene.Width, scene.Height))
	disc := scene.Disc()
	prefilter := scene.Circular && !scene.Space

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y := 0; y < scene.Height; y++ {
		y := y
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for x := 0; x < scene.Width; x++ {
				if prefilter && disc.Outside(x, y) {
					continue
				}
				commit(img, x, y, scene.shade(x, y))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}

// shade composites all layers at (x, y) and applies the fallback and sun.
func (s Scene) shade(x, y int) gate.Pixel {
	var p gate.Pixel
	sx := float64(x) + s.Offset.X
	sy := float64(y) + s.Offset.Y
	for _, l := range s.Layers {
		p = gate.Evaluate(p, l.Field.At(sx, sy), l.Rules)
	}
	if p.A == 0 {
		p.R += float64(gate.Water.R)
		p.G += float64(gate.Water.G)
		p.B += float64(gate.Water.B)
		p.A += float64(gate.Water.A)
	}
	falloff := SunFalloff(s.Sun, x, y, s.Width, s.Height)
	p.R -= falloff
	p.G -= falloff
	p.B -= falloff
	return p
}

func commit(img *image.NRGBA, x, y int, p gate.Pixel) {
	i := img.PixOffset(x, y)
	img.Pix[i+0] = clampChannel(p.R)
	img.Pix[i+1] = clampChannel(p.G)
	img.Pix[i+2] = clampChannel(p.B)
	img.Pix[i+3] = clampChannel(p.A)
}

func clampChannel(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
