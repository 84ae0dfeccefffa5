package plot

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawLabel renders s onto dst with the fixed 7x13 bitmap face, with the
// baseline at (x, y).
func drawLabel(dst draw.Image, x, y int, s string, col color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// labelWidth returns the pixel width of s in the 7x13 face.
func labelWidth(s string) int {
	return len(s) * basicfont.Face7x13.Advance
}
