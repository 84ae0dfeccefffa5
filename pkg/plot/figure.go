// Package plot assembles the composite fMRI summary figure: spike panels,
// confound panels, and the tissue-ordered carpet plot, composed top to
// bottom into a single image.
package plot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"fmriplot/internal/models"
	"fmriplot/pkg/carpet"
)

// Default figure dimensions in pixels, matching an A4 landscape page at
// 100 dpi.
const (
	DefaultWidth  = 1169
	DefaultHeight = 827
)

// Params configures a summary figure.
type Params struct {
	// TR is the sampling interval in seconds. Zero falls back to the
	// volume's own TR; if that is also zero the x-axis uses frame indices.
	TR float64

	// Stat marks the volume as a statistical map rather than a raw
	// acquisition: no detrending, no decimation, diverging colormap.
	Stat bool

	// MapRange overrides the displayed intensity range when non-nil.
	MapRange *[2]float64

	// Title is drawn above the figure when non-empty.
	Title string

	// AddGlobalSignal adds a confound panel with the mean series over all
	// mask voxels.
	AddGlobalSignal bool

	// SegConfounds maps display names to segmentation labels; each entry
	// adds a confound panel with the 95th percentile series across that
	// label's voxels.
	SegConfounds map[string]int32

	// Bands is the tissue band partition. Nil selects carpet.DefaultBands.
	Bands []carpet.Band

	// LongCutoff is the carpet decimation threshold in timesteps.
	// Zero selects carpet.DefaultLongCutoff.
	LongCutoff int

	// SpikeThreshold is the z-score drawn as the spike significance
	// level. Zero selects DefaultSpikeThreshold.
	SpikeThreshold float64

	// Cleaner overrides the detrending transform applied to carpet rows.
	Cleaner carpet.Cleaner

	// Width and Height are the figure dimensions in pixels. Zero selects
	// the defaults.
	Width, Height int

	// Logger receives progress events. Nil disables logging.
	Logger *zap.Logger
}

// Figure builds the fMRI summary plot for one scan. Construct it with New,
// optionally add confounds and spike traces, then call Render.
type Figure struct {
	vol  *models.Volume4D
	mask *models.Volume3D
	seg  *models.Segmentation

	tr        float64
	params    Params
	confounds []models.Confound
	spikes    []models.SpikeTrace
	log       *zap.Logger
}

// New validates the inputs and prepares a figure. The segmentation may be
// nil, in which case one is derived from the mask with every brain voxel
// in a single band.
func New(vol *models.Volume4D, mask *models.Volume3D, seg *models.Segmentation, params Params) (*Figure, error) {
	if vol == nil || mask == nil {
		return nil, fmt.Errorf("volume and mask are required")
	}
	if vol.X != mask.X || vol.Y != mask.Y || vol.Z != mask.Z {
		return nil, fmt.Errorf("volume dimensions %dx%dx%d do not match mask %dx%dx%d",
			vol.X, vol.Y, vol.Z, mask.X, mask.Y, mask.Z)
	}
	if vol.T < 2 {
		return nil, fmt.Errorf("volume has %d timesteps, need at least 2", vol.T)
	}
	if seg == nil {
		seg = models.FromMask(mask)
	} else if vol.X != seg.X || vol.Y != seg.Y || vol.Z != seg.Z {
		return nil, fmt.Errorf("volume dimensions %dx%dx%d do not match segmentation %dx%dx%d",
			vol.X, vol.Y, vol.Z, seg.X, seg.Y, seg.Z)
	}

	tr := params.TR
	if tr <= 0 && !params.Stat {
		tr = vol.TR
	}

	log := params.Logger
	if log == nil {
		log = zap.NewNop()
	}

	f := &Figure{
		vol:    vol,
		mask:   mask,
		seg:    seg,
		tr:     tr,
		params: params,
		log:    log,
	}

	if params.AddGlobalSignal {
		f.AddConfound(f.globalSignal())
	}

	// Deterministic panel order for the label-derived confounds.
	names := make([]string, 0, len(params.SegConfounds))
	for name := range params.SegConfounds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cf, err := f.labelConfound(name, params.SegConfounds[name])
		if err != nil {
			return nil, err
		}
		f.AddConfound(cf)
	}

	return f, nil
}

// AddConfound appends an auxiliary time series panel.
func (f *Figure) AddConfound(cf models.Confound) {
	f.confounds = append(f.confounds, cf)
}

// AddSpikes appends a per-slice spike panel.
func (f *Figure) AddSpikes(ts models.SpikeTrace) {
	f.spikes = append(f.spikes, ts)
}

// globalSignal builds the mean-over-mask confound with percentile cutoffs.
func (f *Figure) globalSignal() models.Confound {
	series := make([]float64, f.vol.T)
	var inMask []int
	for i, v := range f.mask.Data {
		if v > 0 {
			inMask = append(inMask, i)
		}
	}
	stride := f.vol.NumVoxels()
	for t := 0; t < f.vol.T; t++ {
		var sum float64
		for _, idx := range inMask {
			sum += f.vol.Data[t*stride+idx]
		}
		if len(inMask) > 0 {
			series[t] = sum / float64(len(inMask))
		}
	}
	p1, p5, p95, p99 := percentiles(series)
	ymin, ymax := 0.99*p1, 1.01*p99
	return models.Confound{
		Series:  series,
		Name:    "Global signal",
		Cutoffs: []float64{p5, p95},
		YMin:    &ymin,
		YMax:    &ymax,
	}
}

// labelConfound builds the 95th percentile series over the voxels carrying
// one segmentation label.
func (f *Figure) labelConfound(name string, label int32) (models.Confound, error) {
	var voxels []int
	for i, lab := range f.seg.Labels {
		if lab == label {
			voxels = append(voxels, i)
		}
	}
	if len(voxels) == 0 {
		return models.Confound{}, fmt.Errorf("segmentation label %d for confound %q matches no voxels", label, name)
	}

	stride := f.vol.NumVoxels()
	series := make([]float64, f.vol.T)
	vals := make([]float64, len(voxels))
	for t := 0; t < f.vol.T; t++ {
		for i, idx := range voxels {
			vals[i] = f.vol.Data[t*stride+idx]
		}
		sort.Float64s(vals)
		series[t] = stat.Quantile(0.95, stat.Empirical, vals, nil)
	}

	p1, p5, p95, p99 := percentiles(series)
	ymin, ymax := 0.99*p1, 1.01*p99
	return models.Confound{
		Series:  series,
		Name:    fmt.Sprintf("%s (%d voxels)", name, len(voxels)),
		Cutoffs: []float64{p5, p95},
		YMin:    &ymin,
		YMax:    &ymax,
	}, nil
}

func percentiles(series []float64) (p1, p5, p95, p99 float64) {
	sorted := append([]float64(nil), series...)
	sort.Float64s(sorted)
	p1 = stat.Quantile(0.01, stat.Empirical, sorted, nil)
	p5 = stat.Quantile(0.05, stat.Empirical, sorted, nil)
	p95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	p99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	return
}

// Render produces the composed figure image. Panel rows are stacked top to
// bottom: spike traces, confounds, then the carpet with four times the
// height of an auxiliary row.
func (f *Figure) Render() (image.Image, error) {
	width := f.params.Width
	if width <= 0 {
		width = DefaultWidth
	}
	height := f.params.Height
	if height <= 0 {
		height = DefaultHeight
	}

	bands := f.params.Bands
	if bands == nil {
		bands = carpet.DefaultBands()
	}

	f.log.Info("building carpet order",
		zap.Int("ntsteps", f.vol.T),
		zap.Int("bands", len(bands)))

	order, err := carpet.BuildOrder(f.seg, bands)
	if err != nil {
		return nil, fmt.Errorf("building carpet order: %v", err)
	}
	if order.Len() == 0 {
		return nil, fmt.Errorf("no voxels matched the configured tissue bands")
	}
	matrix, err := carpet.ExtractMatrix(f.vol, f.seg, order)
	if err != nil {
		return nil, fmt.Errorf("extracting carpet matrix: %v", err)
	}
	f.log.Debug("carpet matrix extracted", zap.Int("rows", len(matrix.Rows)), zap.Int("cols", matrix.NTsteps))

	fig := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(fig, fig.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	top := 0
	if f.params.Title != "" {
		drawLabel(fig, (width-labelWidth(f.params.Title))/2, 14, f.params.Title, color.Black)
		top = 20
	}

	// Grid: auxiliary rows share the space above the carpet, which gets
	// a 4x weight.
	naux := len(f.spikes) + len(f.confounds)
	const hspace = 6
	avail := height - top - hspace*naux
	rowH := avail / (naux + 4)
	carpetH := avail - naux*rowH

	y := top
	for _, ts := range f.spikes {
		panel, err := renderSpikes(ts, f.params.SpikeThreshold, width, rowH)
		if err != nil {
			return nil, err
		}
		draw.Draw(fig, image.Rect(0, y, width, y+rowH), panel, image.Point{}, draw.Over)
		y += rowH + hspace
	}

	colors := palette(len(f.confounds))
	for i, cf := range f.confounds {
		panel, err := renderConfound(cf, f.tr, colors[i], width, rowH)
		if err != nil {
			return nil, err
		}
		draw.Draw(fig, image.Rect(0, y, width, y+rowH), panel, image.Point{}, draw.Over)
		y += rowH + hspace
	}

	renderer := &carpet.Renderer{
		Stat:       f.params.Stat,
		Cleaner:    f.params.Cleaner,
		LongCutoff: f.params.LongCutoff,
	}
	if f.params.MapRange != nil {
		renderer.MapMin = f.params.MapRange[0]
		renderer.MapMax = f.params.MapRange[1]
	}
	panel, err := renderCarpetPanel(matrix, renderer, f.tr, width, carpetH)
	if err != nil {
		return nil, err
	}
	draw.Draw(fig, image.Rect(0, y, width, y+carpetH), panel, image.Point{}, draw.Over)

	f.log.Info("figure rendered",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("confounds", len(f.confounds)),
		zap.Int("spikes", len(f.spikes)))

	return fig, nil
}
