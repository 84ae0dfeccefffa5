package plot

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// palette returns n visually distinct line colors with evenly spaced hues
// at fixed saturation and lightness, one per confound panel.
func palette(n int) []drawing.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]drawing.Color, n)
	for i := range colors {
		h := float64(i) / float64(n)
		r, g, b := hslToRGB(h, 0.65, 0.45)
		colors[i] = drawing.Color{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	if s == 0 {
		g := uint8(l*255 + 0.5)
		return g, g, g
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	conv := func(t float64) uint8 {
		t = math.Mod(t+1, 1)
		var v float64
		switch {
		case t < 1.0/6:
			v = p + (q-p)*6*t
		case t < 0.5:
			v = q
		case t < 2.0/3:
			v = p + (q-p)*(2.0/3-t)*6
		default:
			v = p
		}
		return uint8(v*255 + 0.5)
	}
	return conv(h + 1.0/3), conv(h), conv(h - 1.0/3)
}
