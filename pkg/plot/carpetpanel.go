package plot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"fmriplot/pkg/carpet"
)

const (
	sidebarWidth  = 12
	colorbarWidth = 12
	panelGap      = 4
	axisStrip     = 30
)

// renderCarpetPanel draws the full carpet row: a tissue-class sidebar on
// the left, the carpet image in the middle, an intensity colorbar on the
// right, and the time axis with tick labels underneath.
func renderCarpetPanel(m *carpet.Matrix, r *carpet.Renderer, tr float64, width, height int) (image.Image, error) {
	carpetW := width - sidebarWidth - colorbarWidth - 2*panelGap
	carpetH := height - axisStrip
	if carpetW < 10 || carpetH < 10 {
		return nil, fmt.Errorf("carpet panel %dx%d too small", width, height)
	}

	panel := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(panel, panel.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	// Carpet body.
	carpetRect := image.Rect(sidebarWidth+panelGap, 0, sidebarWidth+panelGap+carpetW, carpetH)
	sub := panel.SubImage(carpetRect).(*image.RGBA)
	info, err := r.Render(sub, m, tr)
	if err != nil {
		return nil, err
	}

	// Tissue-class sidebar, one color per display row.
	rowColors := carpet.RowColors(m.Order)
	for py := 0; py < carpetH; py++ {
		c := rowColors[py*len(rowColors)/carpetH]
		for px := 0; px < sidebarWidth; px++ {
			panel.SetRGBA(px, py, c)
		}
	}

	// Intensity colorbar, max at the top.
	cmap := carpet.Colormap(carpet.Grayscale)
	if r.Stat {
		cmap = carpet.Spectral
	}
	cbX := width - colorbarWidth
	for py := 0; py < carpetH; py++ {
		c := cmap(1 - float64(py)/float64(carpetH-1))
		for px := 0; px < colorbarWidth; px++ {
			panel.SetRGBA(cbX+px, py, c)
		}
	}

	// Time axis.
	baseline := carpetH + 16
	for _, tick := range info.Ticks {
		x := carpetRect.Min.X + tick.Column*carpetW/info.Columns
		panel.SetRGBA(x, carpetH+1, color.RGBA{A: 255})
		panel.SetRGBA(x, carpetH+2, color.RGBA{A: 255})
		lx := x - labelWidth(tick.Label)/2
		if lx < 0 {
			lx = 0
		}
		drawLabel(panel, lx, baseline, tick.Label, color.Black)
	}

	axisLabel := "time (s)"
	if tr <= 0 {
		axisLabel = "frame #"
	}
	drawLabel(panel, carpetRect.Min.X+(carpetW-labelWidth(axisLabel))/2, height-3, axisLabel, color.Black)
	drawLabel(panel, 0, height-3, "voxels", color.Gray{Y: 80})

	return panel, nil
}
