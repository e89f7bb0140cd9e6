package render

import (
	"image"
	"math"
)

// Channel depths for the 5/6/5 palette.
var channelBits = [3]int{5, 6, 5}

// Dither565 quantizes r, g and b to 5/6/5 bits in place, spreading the
// rounding error to unvisited neighbours with Floyd-Steinberg weights.
// Alpha is left alone.
func Dither565(img *image.NRGBA) {
	b := img.Bounds()
	w := b.Dx()
	if w == 0 || b.Dy() == 0 {
		return
	}

	// Error rows are padded by one column on each side.
	cur := make([][3]float64, w+2)
	next := make([][3]float64, w+2)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, y)
			for c := 0; c < 3; c++ {
				want := float64(img.Pix[i+c]) + cur[x+1][c]
				got := quantize(want, channelBits[c])
				img.Pix[i+c] = got
				e := want - float64(got)
				cur[x+2][c] += e * 7 / 16
				next[x][c] += e * 3 / 16
				next[x+1][c] += e * 5 / 16
				next[x+2][c] += e * 1 / 16
			}
		}
		cur, next = next, cur
		clear(next)
	}
}

// quantize snaps v to the nearest level representable in bits and expands
// it back to 8 bits.
func quantize(v float64, bits int) uint8 {
	levels := float64(int(1)<<bits - 1)
	q := math.Round(math.Max(0, math.Min(255, v)) * levels / 255)
	return uint8(math.Round(q * 255 / levels))
}
