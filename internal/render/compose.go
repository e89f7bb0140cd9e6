package render

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// rotationDegrees is the fixed counter-clockwise turn applied in circle mode.
const rotationDegrees = 14

// Disc is the circular cutout shared by the pre-filter and the space mask.
type Disc struct {
	CX, CY  int
	Radius2 float64
}

func (s Scene) Disc() Disc {
	r := float64(s.Width)/2 - discMargin
	return Disc{CX: s.Width / 2, CY: s.Height / 2, Radius2: r * r}
}

// Outside reports whether (x, y) lies strictly outside the disc.
func (d Disc) Outside(x, y int) bool {
	dx := float64(d.CX - x)
	dy := float64(d.CY - y)
	return dx*dx+dy*dy > d.Radius2
}

// RotateCrop turns src about its center and keeps the original frame, which
// is the same as rotating onto an expanded canvas and cropping the middle.
// Nearest-neighbour sampling keeps the quantized palette intact; uncovered
// corners stay transparent.
func RotateCrop(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)

	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2
	sin, cos := math.Sincos(rotationDegrees * math.Pi / 180)

	// y points down, so a counter-clockwise turn negates the usual sin terms.
	s2d := f64.Aff3{
		cos, sin, cx - cx*cos - cy*sin,
		-sin, cos, cy + cx*sin - cy*cos,
	}
	draw.NearestNeighbor.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}

// MaskSpace paints every pixel outside the disc opaque black.
func MaskSpace(img *image.NRGBA, disc Disc) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !disc.Outside(x, y) {
				continue
			}
			i := img.PixOffset(x, y)
			img.Pix[i+0] = 0
			img.Pix[i+1] = 0
			img.Pix[i+2] = 0
			img.Pix[i+3] = 255
		}
	}
}
