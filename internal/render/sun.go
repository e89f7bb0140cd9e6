package render

import "github.com/danmuck/planetctl/internal/config"

const sunStrength = 510

// SunFalloff is the darkening subtracted from r, g and b at (x, y): squared
// distance to the sun over the squared image diagonal, scaled by 510.
func SunFalloff(sun config.Point, x, y, width, height int) float64 {
	dx := sun.X - float64(x)
	dy := sun.Y - float64(y)
	diag := float64(width*width + height*height)
	return (dx*dx + dy*dy) / diag * sunStrength
}
