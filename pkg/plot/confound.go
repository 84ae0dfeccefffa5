package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"

	"fmriplot/internal/models"
)

// annotationOffsets computes the vertical pixel offset of each cutoff
// label so labels of nearby thresholds repel each other instead of
// overlapping. thresholds[0] is the running mean and keeps offset zero;
// for every later threshold, each earlier one within the displayed y-range
// pushes the label up or down with a quadratic falloff.
func annotationOffsets(thresholds []float64, yrange float64) []float64 {
	offsets := make([]float64, len(thresholds))
	if yrange <= 0 {
		return offsets
	}
	for i := 1; i < len(thresholds); i++ {
		var down, up float64
		for _, prev := range thresholds[:i] {
			inc := math.Abs(thresholds[i] - prev)
			if inc >= yrange {
				continue
			}
			factor := math.Pow(1-inc/yrange, 2)
			if thresholds[i] < prev {
				down -= factor * 20
			} else {
				up += factor * 20
			}
		}
		if math.Abs(down) > up {
			offsets[i] = down
		} else {
			offsets[i] = up
		}
	}
	return offsets
}

// confoundLimits returns the display limits: 0.95×min to 1.1×max of the
// finite samples, overridden by any explicit limits on the confound.
func confoundLimits(cf models.Confound, series []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range series {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	lo, hi = 0.95*lo, 1.1*hi
	if cf.YMin != nil {
		lo = *cf.YMin
	}
	if cf.YMax != nil {
		hi = *cf.YMax
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// renderConfound draws one confound panel: the series line, a solid
// running-mean line with a μ annotation, and a dotted line plus annotation
// per cutoff threshold.
func renderConfound(cf models.Confound, tr float64, col drawing.Color, width, height int) (image.Image, error) {
	n := len(cf.Series)
	if n < 2 {
		return nil, fmt.Errorf("confound %q has %d samples, need at least 2", cf.Name, n)
	}

	series := make([]float64, n)
	copy(series, cf.Series)
	if cf.Normalize && tr > 0 {
		floats.Scale(1/tr, series)
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	lo, hi := confoundLimits(cf, series)
	yrange := hi - lo

	var sum float64
	var count int
	for _, v := range series {
		if !math.IsNaN(v) {
			sum += v
			count++
		}
	}
	mean := 0.0
	if count > 0 {
		mean = sum / float64(count)
	}

	// The mean leads the threshold list so the repulsion heuristic sees it.
	thresholds := append([]float64{mean}, cf.Cutoffs...)
	offsets := annotationOffsets(thresholds, yrange)

	unit := cf.Units
	axisName := cf.Name
	if unit != "" {
		if cf.Normalize && tr > 0 {
			axisName = fmt.Sprintf("%s [%s/s]", cf.Name, unit)
		} else {
			axisName = fmt.Sprintf("%s [%s]", cf.Name, unit)
		}
	}

	seriesList := []chart.Series{
		chart.ContinuousSeries{
			Name:    cf.Name,
			XValues: xs,
			YValues: series,
			Style:   chart.Style{StrokeColor: col, StrokeWidth: 1.2},
		},
	}

	// Pixel offsets become data offsets through the panel height.
	perPixel := yrange / float64(height)
	for i, thr := range thresholds {
		lineStyle := chart.Style{StrokeColor: drawing.ColorBlack, StrokeWidth: 0.75, StrokeDashArray: []float64{3, 3}}
		label := fmt.Sprintf("%.2f%s", thr, unit)
		if i == 0 {
			lineStyle = chart.Style{StrokeColor: col, StrokeWidth: 0.75}
			label = fmt.Sprintf("mean=%.3f%s", thr, unit)
		}
		seriesList = append(seriesList,
			chart.ContinuousSeries{
				XValues: []float64{0, float64(n - 1)},
				YValues: []float64{thr, thr},
				Style:   lineStyle,
			},
			chart.AnnotationSeries{
				Annotations: []chart.Value2{{
					XValue: float64(n - 1),
					YValue: thr + offsets[i]*perPixel,
					Label:  label,
				}},
				Style: chart.Style{
					StrokeColor: col,
					FillColor:   col.WithAlpha(40),
					FontSize:    8,
				},
			},
		)
	}

	ch := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 4, Left: 8, Right: 8, Bottom: 4},
		},
		XAxis: chart.XAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(n - 1)},
		},
		YAxis: chart.YAxis{
			Name:  axisName,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			Ticks: []chart.Tick{
				{Value: lo, Label: fmt.Sprintf("%.2f", lo)},
				{Value: hi, Label: fmt.Sprintf("%.2f", hi)},
			},
		},
		Series: seriesList,
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering confound %q: %v", cf.Name, err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decoding confound %q panel: %v", cf.Name, err)
	}
	return img, nil
}
