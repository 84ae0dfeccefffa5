package carpet

import "fmt"

// DefaultLongCutoff is the number of timesteps above which carpet columns
// are decimated for rendering. Long acquisitions otherwise produce images
// wide enough to exhaust memory in the rasterizer.
const DefaultLongCutoff = 800

// Decimate returns the rows with every second column dropped when the
// series is longer than cutoff, together with the column stride that was
// applied (1 for no decimation, 2 otherwise). A cutoff of zero or below
// selects DefaultLongCutoff. The input is never modified.
func Decimate(rows [][]float64, cutoff int) ([][]float64, int) {
	if cutoff <= 0 {
		cutoff = DefaultLongCutoff
	}
	if len(rows) == 0 || len(rows[0]) <= cutoff {
		return rows, 1
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		dec := make([]float64, 0, (len(row)+1)/2)
		for t := 0; t < len(row); t += 2 {
			dec = append(dec, row[t])
		}
		out[i] = dec
	}
	return out, 2
}

// Tick is one x-axis marker on the carpet: a displayed column position and
// its label in original time (or frame) units.
type Tick struct {
	// Column is the displayed column index
	Column int

	// Label is the formatted axis value
	Label string
}

// Ticks places roughly ten frame markers along the displayed columns.
// stride is the decimation stride the columns were rendered with; tick
// labels are scaled by it so the axis keeps original time values. With an
// unknown sampling interval (tr <= 0) labels are frame indices, otherwise
// elapsed seconds.
func Ticks(ncols, stride int, tr float64) []Tick {
	if ncols <= 0 {
		return nil
	}
	if stride < 1 {
		stride = 1
	}
	interval := (ncols + 1) / 10
	if interval < 1 {
		interval = 1
	}
	var ticks []Tick
	for col := 0; col < ncols; col += interval {
		frame := col * stride
		var label string
		if tr <= 0 {
			label = fmt.Sprintf("%d", frame)
		} else {
			label = fmt.Sprintf("%.2f", tr*float64(frame))
		}
		ticks = append(ticks, Tick{Column: col, Label: label})
	}
	return ticks
}
