package color

import (
	"math"

	"github.com/luciancaetano/lifegrid"
)

const (
	hueStep    = 20
	hueModulus = 256
	saturation = 100
	aliveLight = 25
	deadLight  = 95
)

// For returns the color of a cell at the given generation.
// The hue cycles with the step; live cells are dark, dead cells are pale.
func For(step uint64, alive bool) lifegrid.HSL {
	lum := deadLight
	if alive {
		lum = aliveLight
	}
	return lifegrid.HSL{
		Hue:        Hue(step),
		Saturation: saturation,
		Lightness:  lum,
	}
}

// Hue returns (step * 20) mod 256 without overflowing for large steps.
func Hue(step uint64) int {
	return int((step % hueModulus) * hueStep % hueModulus)
}

// RGB converts an HSL color to 8-bit red, green and blue components.
func RGB(c lifegrid.HSL) (r, g, b uint8) {
	h := math.Mod(float64(c.Hue), 360)
	if h < 0 {
		h += 360
	}
	s := clamp(float64(c.Saturation) / 100)
	l := clamp(float64(c.Lightness) / 100)

	chroma := (1 - math.Abs(2*l-1)) * s
	x := chroma * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - chroma/2

	var rf, gf, bf float64
	switch {
	case h < 60:
		rf, gf, bf = chroma, x, 0
	case h < 120:
		rf, gf, bf = x, chroma, 0
	case h < 180:
		rf, gf, bf = 0, chroma, x
	case h < 240:
		rf, gf, bf = 0, x, chroma
	case h < 300:
		rf, gf, bf = x, 0, chroma
	default:
		rf, gf, bf = chroma, 0, x
	}

	return channel(rf + m), channel(gf + m), channel(bf + m)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func channel(v float64) uint8 {
	return uint8(math.Round(clamp(v) * 255))
}
