package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/stat"

	"fmriplot/internal/models"
	"fmriplot/pkg/carpet"
)

// DefaultSpikeThreshold is the z-score above which a slice sample is
// considered a spike.
const DefaultSpikeThreshold = 6.0

// SliceAirSignal computes one time series per axial slice from the voxels
// outside the brain mask. Air voxels carry no physiology, so intensity
// excursions there flag acquisition artifacts.
func SliceAirSignal(vol *models.Volume4D, mask *models.Volume3D) ([][]float64, error) {
	if vol.X != mask.X || vol.Y != mask.Y || vol.Z != mask.Z {
		return nil, fmt.Errorf("volume dimensions %dx%dx%d do not match mask %dx%dx%d",
			vol.X, vol.Y, vol.Z, mask.X, mask.Y, mask.Z)
	}
	out := make([][]float64, vol.Z)
	for z := 0; z < vol.Z; z++ {
		series := make([]float64, vol.T)
		for t := 0; t < vol.T; t++ {
			var sum float64
			var count int
			for y := 0; y < vol.Y; y++ {
				for x := 0; x < vol.X; x++ {
					if mask.At(x, y, z) > 0 {
						continue
					}
					sum += vol.At(x, y, z, t)
					count++
				}
			}
			if count > 0 {
				series[t] = sum / float64(count)
			}
		}
		out[z] = series
	}
	return out, nil
}

// ZScoreRows standardizes each row to zero mean and unit variance.
// Constant rows map to all zeros.
func ZScoreRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		z := make([]float64, len(row))
		mean, std := stat.MeanStdDev(row, nil)
		if std > 0 {
			for t, v := range row {
				z[t] = (v - mean) / std
			}
		}
		out[i] = z
	}
	return out
}

// zscoreAxis computes the display range, dotted guide levels, and axis
// ticks for a z-scored spike panel. Step guides sit at symmetric
// half-maximum multiples. The spike threshold is drawn only when the data
// stays below it (otherwise the excursion itself is the marker), widening
// the range to hold it; the end ticks always land on the final range.
func zscoreAxis(zmax, threshold float64) (lo, hi float64, stepGuides, thrGuides []float64, ticks []chart.Tick) {
	if zmax == 0 {
		zmax = 1
	}
	lo, hi = -1.05*zmax, 1.05*zmax

	step := math.Floor(zmax / 2)
	if step > 0 {
		for v := step; v < zmax; v += step {
			stepGuides = append(stepGuides, v, -v)
			ticks = append(ticks,
				chart.Tick{Value: -v, Label: fmt.Sprintf("%.2f", -v)},
				chart.Tick{Value: v, Label: fmt.Sprintf("%.2f", v)},
			)
		}
	}

	if zmax < threshold {
		lo, hi = -1.05*threshold, 1.05*threshold
		thrGuides = append(thrGuides, threshold, -threshold)
	}
	ticks = append(ticks,
		chart.Tick{Value: lo, Label: fmt.Sprintf("%.2f", lo)},
		chart.Tick{Value: hi, Label: fmt.Sprintf("%.2f", hi)})
	return lo, hi, stepGuides, thrGuides, ticks
}

// renderSpikes draws a spike panel: one line per axial slice, graded from
// inferior to superior with a sequential colormap. Z-scored traces get
// symmetric limits, dotted guide levels, and the spike threshold line;
// raw traces get min/median/max guides.
func renderSpikes(ts models.SpikeTrace, threshold float64, width, height int) (image.Image, error) {
	nslices := len(ts.Slices)
	if nslices == 0 {
		return nil, fmt.Errorf("spike trace has no slices")
	}
	ntsteps := len(ts.Slices[0])
	if ntsteps < 2 {
		return nil, fmt.Errorf("spike trace has %d samples, need at least 2", ntsteps)
	}
	if threshold <= 0 {
		threshold = DefaultSpikeThreshold
	}

	xs := make([]float64, ntsteps)
	for i := range xs {
		xs[i] = float64(i)
	}

	var seriesList []chart.Series
	for sl, row := range ts.Slices {
		if len(row) != ntsteps {
			return nil, fmt.Errorf("slice %d has %d samples, want %d", sl, len(row), ntsteps)
		}
		pos := 0.0
		if nslices > 1 {
			pos = float64(sl) / float64(nslices-1)
		}
		c := carpet.Viridis(pos)
		seriesList = append(seriesList, chart.ContinuousSeries{
			XValues: xs,
			YValues: row,
			Style: chart.Style{
				StrokeColor: drawing.Color{R: c.R, G: c.G, B: c.B, A: 255},
				StrokeWidth: 0.5,
			},
		})
	}

	guide := func(y float64, dash []float64) chart.Series {
		return chart.ContinuousSeries{
			XValues: []float64{0, float64(ntsteps - 1)},
			YValues: []float64{y, y},
			Style:   chart.Style{StrokeColor: drawing.ColorBlack.WithAlpha(90), StrokeWidth: 1, StrokeDashArray: dash},
		}
	}

	var lo, hi float64
	var yTicks []chart.Tick
	axisName := "slice intensity"
	if ts.ZScored {
		axisName = "z-score"
		var zmax float64
		for _, row := range ts.Slices {
			for _, v := range row {
				zmax = math.Max(zmax, math.Abs(v))
			}
		}
		var stepGuides, thrGuides []float64
		lo, hi, stepGuides, thrGuides, yTicks = zscoreAxis(zmax, threshold)
		for _, v := range stepGuides {
			seriesList = append(seriesList, guide(v, []float64{2, 4}))
		}
		for _, v := range thrGuides {
			seriesList = append(seriesList, guide(v, []float64{2, 2}))
		}
	} else {
		flat := make([]float64, 0, nslices*ntsteps)
		for _, row := range ts.Slices {
			flat = append(flat, row...)
		}
		min, max := flat[0], flat[0]
		for _, v := range flat {
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
		sorted := append([]float64(nil), flat...)
		sort.Float64s(sorted)
		med := stat.Quantile(0.5, stat.Empirical, sorted, nil)
		lo, hi = 0.95*min, 1.05*max
		if hi <= lo {
			hi = lo + 1
		}
		seriesList = append(seriesList, guide(min, []float64{2, 4}), guide(max, []float64{2, 4}))
		yTicks = []chart.Tick{
			{Value: min, Label: fmt.Sprintf("%.2f", min)},
			{Value: med, Label: fmt.Sprintf("%.2f", med)},
			{Value: max, Label: fmt.Sprintf("%.2f", max)},
		}
	}

	ch := chart.Chart{
		Title:  ts.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 4, Left: 8, Right: 8, Bottom: 4},
		},
		XAxis: chart.XAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(ntsteps - 1)},
		},
		YAxis: chart.YAxis{
			Name:  axisName,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			Ticks: yTicks,
		},
		Series: seriesList,
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering spike panel: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decoding spike panel: %v", err)
	}
	return img, nil
}
