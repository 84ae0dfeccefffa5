package carpet

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passthroughCleaner returns the rows unchanged, exposing raw values to
// the clipping stage.
type passthroughCleaner struct{}

func (passthroughCleaner) Clean(rows [][]float64, tr float64) ([][]float64, error) {
	return rows, nil
}

func constantRows(vals []float64, ncols int) [][]float64 {
	rows := make([][]float64, len(vals))
	for i, v := range vals {
		rows[i] = make([]float64, ncols)
		for t := range rows[i] {
			rows[i][t] = v
		}
	}
	return rows
}

func TestRenderClipsToDefaultRange(t *testing.T) {
	// With no map range specified, cleaned data is clipped to [-2, 2]:
	// values beyond the bounds saturate at black and white.
	m := &Matrix{Rows: constantRows([]float64{-10, 0, 10}, 20), NTsteps: 20}
	dst := image.NewRGBA(image.Rect(0, 0, 20, 3))

	r := &Renderer{Cleaner: passthroughCleaner{}}
	info, err := r.Render(dst, m, 1.0)
	require.NoError(t, err)
	assert.Equal(t, -2.0, info.Min)
	assert.Equal(t, 2.0, info.Max)

	black := dst.RGBAAt(0, 0)
	mid := dst.RGBAAt(0, 1)
	white := dst.RGBAAt(0, 2)
	assert.Equal(t, uint8(0), black.R)
	assert.Equal(t, uint8(255), white.R)
	assert.InDelta(t, 128, int(mid.R), 1)
}

func TestRenderExplicitMapRange(t *testing.T) {
	m := &Matrix{Rows: constantRows([]float64{0, 4}, 10), NTsteps: 10}
	dst := image.NewRGBA(image.Rect(0, 0, 10, 2))

	r := &Renderer{MapMin: 0, MapMax: 4, Cleaner: passthroughCleaner{}}
	info, err := r.Render(dst, m, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, info.Min)
	assert.Equal(t, 4.0, info.Max)
	assert.Equal(t, uint8(0), dst.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(255), dst.RGBAAt(0, 1).R)
}

func TestRenderDecimatesLongSeries(t *testing.T) {
	m := &Matrix{Rows: rampRows(4, 1000), NTsteps: 1000}
	dst := image.NewRGBA(image.Rect(0, 0, 100, 4))

	r := &Renderer{Cleaner: passthroughCleaner{}}
	info, err := r.Render(dst, m, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 500, info.Columns)
	assert.Equal(t, 2, info.Stride)
	require.NotEmpty(t, info.Ticks)
	// Tick labels carry original elapsed time.
	assert.Equal(t, "0.00", info.Ticks[0].Label)
	assert.Equal(t, "200.00", info.Ticks[1].Label)
}

func TestRenderStatMapSkipsCleaningAndDecimation(t *testing.T) {
	m := &Matrix{Rows: rampRows(2, 900), NTsteps: 900}
	dst := image.NewRGBA(image.Rect(0, 0, 90, 2))

	r := &Renderer{Stat: true}
	info, err := r.Render(dst, m, 0)
	require.NoError(t, err)
	assert.Equal(t, 900, info.Columns)
	assert.Equal(t, 1, info.Stride)
	// Default range for statistical maps is the data range.
	assert.Equal(t, 0.0, info.Min)
	assert.Equal(t, 899.0, info.Max)

	// Diverging colormap: the two extremes are distinct hues, not gray.
	left := dst.RGBAAt(0, 0)
	right := dst.RGBAAt(89, 0)
	assert.NotEqual(t, left, right)
	assert.NotEqual(t, left.R, left.B)
}

func TestRenderEmptyMatrix(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	_, err := (&Renderer{}).Render(dst, &Matrix{}, 1.0)
	assert.Error(t, err)
}

func TestRowColorsGradeWithinBands(t *testing.T) {
	seg := newSeg(6, 1, 1)
	seg.Labels = []int32{120, 150, 180, 5, 5, 255}
	order, err := BuildOrder(seg, DefaultBands())
	require.NoError(t, err)

	colors := RowColors(order)
	require.Len(t, colors, 6)
	// Three cortical labels grade across the band gradient.
	assert.NotEqual(t, colors[0], colors[1])
	assert.NotEqual(t, colors[1], colors[2])
	// Same label shares a color.
	assert.Equal(t, colors[4], colors[5])
}
