package carpet

import (
	"fmt"
	"image/draw"

	"gonum.org/v1/gonum/floats"
)

// Renderer rasterizes a voxel-by-time matrix onto a drawing surface.
// The surface is injected by the caller; the renderer owns no plotting
// state of its own.
type Renderer struct {
	// MapMin and MapMax bound the displayed intensity range. Equal values
	// select the defaults: [-2, 2] for cleaned data, the data range for
	// statistical maps.
	MapMin, MapMax float64

	// Stat marks the input as a statistical map: no detrending, no
	// decimation, diverging colormap.
	Stat bool

	// Cleaner transforms the rows before display. Nil selects the default
	// linear detrend with standardization. Ignored for statistical maps.
	Cleaner Cleaner

	// LongCutoff is the decimation threshold in timesteps.
	// Zero selects DefaultLongCutoff.
	LongCutoff int
}

// RenderInfo reports how a carpet was rasterized.
type RenderInfo struct {
	// Columns is the number of displayed columns after decimation
	Columns int

	// Stride is the applied column stride (1 or 2)
	Stride int

	// Ticks are the x-axis markers in original time units
	Ticks []Tick

	// Min and Max are the intensity bounds the colors were mapped with
	Min, Max float64
}

// Render cleans, decimates, and draws the matrix onto dst, filling its
// entire bounds with nearest-neighbor sampling. tr is the sampling
// interval in seconds, or zero when unknown.
func (r *Renderer) Render(dst draw.Image, m *Matrix, tr float64) (*RenderInfo, error) {
	if m == nil || len(m.Rows) == 0 {
		return nil, fmt.Errorf("carpet matrix is empty")
	}

	rows := m.Rows
	stride := 1
	cmap := Colormap(Spectral)

	if !r.Stat {
		cleaner := r.Cleaner
		if cleaner == nil {
			cleaner = NewDetrendCleaner()
		}
		cleaned, err := cleaner.Clean(rows, tr)
		if err != nil {
			return nil, fmt.Errorf("cleaning carpet rows: %v", err)
		}
		rows, stride = Decimate(cleaned, r.LongCutoff)
		cmap = Grayscale
	}

	lo, hi := r.MapMin, r.MapMax
	if lo == hi {
		if r.Stat {
			lo, hi = dataRange(rows)
		} else {
			lo, hi = -2, 2
		}
	}
	if hi <= lo {
		hi = lo + 1
	}

	ncols := len(rows[0])
	bounds := dst.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	for py := 0; py < h; py++ {
		row := rows[py*len(rows)/h]
		for px := 0; px < w; px++ {
			v := row[px*ncols/w]
			dst.Set(bounds.Min.X+px, bounds.Min.Y+py, cmap((v-lo)/(hi-lo)))
		}
	}

	return &RenderInfo{
		Columns: ncols,
		Stride:  stride,
		Ticks:   Ticks(ncols, stride, tr),
		Min:     lo,
		Max:     hi,
	}, nil
}

func dataRange(rows [][]float64) (float64, float64) {
	lo, hi := floats.Min(rows[0]), floats.Max(rows[0])
	for _, row := range rows[1:] {
		if m := floats.Min(row); m < lo {
			lo = m
		}
		if m := floats.Max(row); m > hi {
			hi = m
		}
	}
	return lo, hi
}
