package carpet

import "image/color"

// Colormap maps a normalized value in [0, 1] to a color. Values outside
// the range saturate at the endpoints.
type Colormap func(v float64) color.RGBA

// Grayscale maps 0 to black and 1 to white.
func Grayscale(v float64) color.RGBA {
	g := uint8(clamp01(v)*255 + 0.5)
	return color.RGBA{R: g, G: g, B: g, A: 255}
}

// spectral holds the stops of the reversed Spectral diverging palette,
// used for statistical map carpets.
var spectral = []color.RGBA{
	{0x5e, 0x4f, 0xa2, 0xff},
	{0x32, 0x88, 0xbd, 0xff},
	{0x66, 0xc2, 0xa5, 0xff},
	{0xab, 0xdd, 0xa4, 0xff},
	{0xe6, 0xf5, 0x98, 0xff},
	{0xff, 0xff, 0xbf, 0xff},
	{0xfe, 0xe0, 0x8b, 0xff},
	{0xfd, 0xae, 0x61, 0xff},
	{0xf4, 0x6d, 0x43, 0xff},
	{0xd5, 0x3e, 0x4f, 0xff},
	{0x9e, 0x01, 0x42, 0xff},
}

// Spectral is a diverging colormap for statistical values.
func Spectral(v float64) color.RGBA {
	return interpStops(spectral, v)
}

// viridis holds the stops of the viridis palette, used to grade spike
// plot lines by axial slice position.
var viridis = []color.RGBA{
	{0x44, 0x01, 0x54, 0xff},
	{0x48, 0x28, 0x78, 0xff},
	{0x3e, 0x49, 0x89, 0xff},
	{0x31, 0x68, 0x8e, 0xff},
	{0x26, 0x82, 0x8e, 0xff},
	{0x1f, 0x9e, 0x89, 0xff},
	{0x35, 0xb7, 0x79, 0xff},
	{0x6e, 0xce, 0x58, 0xff},
	{0xb5, 0xde, 0x2b, 0xff},
	{0xfd, 0xe7, 0x25, 0xff},
}

// Viridis is a sequential colormap.
func Viridis(v float64) color.RGBA {
	return interpStops(viridis, v)
}

// bandGradients holds the color gradient endpoints used for the
// segmentation sidebar, one pair per band position. More bands than
// gradients cycles the table.
var bandGradients = [][2]color.RGBA{
	{{0x00, 0x80, 0x66, 0xff}, {0xff, 0xff, 0x66, 0xff}}, // green to yellow
	{{0xff, 0xff, 0x00, 0xff}, {0xff, 0x00, 0x00, 0xff}}, // yellow to red
	{{0xcc, 0x66, 0x00, 0xff}, {0xff, 0x99, 0x33, 0xff}}, // orange
	{{0x00, 0x80, 0xbf, 0xff}, {0x00, 0x00, 0xff, 0xff}}, // cyan to blue
}

// RowColors assigns a sidebar color to every displayed row: each band gets
// its own gradient, graded by label rank within the band.
func RowColors(o *Order) []color.RGBA {
	colors := make([]color.RGBA, o.Len())
	for _, span := range o.Spans {
		grad := bandGradients[span.Band%len(bandGradients)]
		lo, hi := o.Ranks[span.Start], o.Ranks[span.Start]
		for i := span.Start; i < span.End; i++ {
			if o.Ranks[i] < lo {
				lo = o.Ranks[i]
			}
			if o.Ranks[i] > hi {
				hi = o.Ranks[i]
			}
		}
		for i := span.Start; i < span.End; i++ {
			t := 0.0
			if hi > lo {
				t = float64(o.Ranks[i]-lo) / float64(hi-lo)
			}
			colors[i] = lerpColor(grad[0], grad[1], t)
		}
	}
	return colors
}

func interpStops(stops []color.RGBA, v float64) color.RGBA {
	v = clamp01(v)
	pos := v * float64(len(stops)-1)
	i := int(pos)
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	return lerpColor(stops[i], stops[i+1], pos-float64(i))
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t + 0.5),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t + 0.5),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t + 0.5),
		A: 255,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
