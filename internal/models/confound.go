package models

// Confound is an auxiliary nuisance time series displayed alongside the
// carpet, such as the global signal or a motion parameter.
type Confound struct {
	// Series is the raw time series, one sample per frame
	Series []float64

	// Name is the display name
	Name string

	// Units is the unit suffix shown next to annotated values, empty for
	// dimensionless series
	Units string

	// Normalize divides the series by the sampling interval before
	// display, turning per-frame quantities into per-second rates
	Normalize bool

	// Cutoffs are threshold values annotated on the panel
	Cutoffs []float64

	// YMin and YMax override the display limits when non-nil
	YMin, YMax *float64
}

// SpikeTrace is a per-slice time series matrix used to flag abrupt motion
// or intensity artifacts: one row per axial slice.
type SpikeTrace struct {
	// Slices holds one series per axial slice
	Slices [][]float64

	// Title is the panel title, may be empty
	Title string

	// ZScored marks the series as slice-wise z-scores rather than raw
	// intensities
	ZScored bool
}
