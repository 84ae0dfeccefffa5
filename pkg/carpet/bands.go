// Package carpet implements the voxel-by-time carpet plot core: partitioning
// segmentation labels into tissue bands, ordering voxel rows so tissue
// classes appear contiguously, detrending the extracted time series, and
// rendering the result onto a caller-supplied drawing surface with adaptive
// decimation for long acquisitions.
package carpet

import (
	"fmt"
	"sort"

	"fmriplot/internal/models"
)

// Band describes one tissue class as an inclusive range of segmentation
// labels. Bands are displayed in slice order, so the position of a Band in
// a band list fixes where its voxels appear in the carpet.
type Band struct {
	// Name is the display name of the tissue class
	Name string

	// Lo and Hi bound the label range, inclusive on both ends
	Lo, Hi int32
}

// Contains reports whether the label falls in this band.
func (b Band) Contains(label int32) bool {
	return label >= b.Lo && label <= b.Hi
}

// DefaultBands returns the band partition of the default segmentation
// atlas: cortical gray matter, deep gray matter, cerebellum, and white
// matter/CSF, in that display order. The numeric ranges are atlas-specific
// and can be overridden through configuration.
func DefaultBands() []Band {
	return []Band{
		{Name: "cortical GM", Lo: 101, Hi: 199},
		{Name: "deep GM", Lo: 31, Hi: 99},
		{Name: "cerebellum", Lo: 255, Hi: 255},
		{Name: "WM/CSF", Lo: 1, Hi: 9},
	}
}

// BandSpan records the contiguous row range a band occupies in the final
// display order. End is exclusive. Bands with no matching voxels produce
// no span.
type BandSpan struct {
	Name       string
	Band       int
	Start, End int
}

// Order is the display permutation of the labeled voxels of a scan.
// It is a sort key over the extracted voxel rows, not a reordering of the
// underlying volume: Voxels[i] is the flat spatial index of the voxel shown
// in display row i.
type Order struct {
	// Voxels holds flat spatial indices in display order
	Voxels []int

	// Ranks holds the dense label rank of each display row
	Ranks []int

	// NumRanks is the number of distinct ranked labels
	NumRanks int

	// Spans lists the row extent of each non-empty band in display order
	Spans []BandSpan
}

// Len returns the number of displayed rows.
func (o *Order) Len() int {
	return len(o.Voxels)
}

// BuildOrder computes the display permutation for a segmentation. Voxels
// with label 0 or with a label matching no band are dropped, so the result
// may cover fewer rows than the segmentation has labeled voxels. Within a
// band, labels are ranked in ascending numeric order and voxels keep their
// original relative order (the sort is stable).
func BuildOrder(seg *models.Segmentation, bands []Band) (*Order, error) {
	if seg == nil {
		return nil, fmt.Errorf("segmentation is nil")
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("no tissue bands defined")
	}

	// Collect the distinct labels present per band.
	present := make(map[int32]bool)
	for _, lab := range seg.Labels {
		if lab > 0 {
			present[lab] = true
		}
	}

	// Concatenate the per-band label lists into a dense rank mapping.
	rankOf := make(map[int32]int)
	bandOfRank := make([]int, 0, len(present))
	for bi, b := range bands {
		var labs []int32
		for lab := range present {
			if b.Contains(lab) {
				labs = append(labs, lab)
			}
		}
		sort.Slice(labs, func(i, j int) bool { return labs[i] < labs[j] })
		for _, lab := range labs {
			if _, dup := rankOf[lab]; dup {
				return nil, fmt.Errorf("label %d matches more than one band", lab)
			}
			rankOf[lab] = len(bandOfRank)
			bandOfRank = append(bandOfRank, bi)
		}
	}

	// Gather the voxels that survived band filtering, in grid order.
	o := &Order{NumRanks: len(bandOfRank)}
	for idx, lab := range seg.Labels {
		if lab <= 0 {
			continue
		}
		rank, ok := rankOf[lab]
		if !ok {
			continue
		}
		o.Voxels = append(o.Voxels, idx)
		o.Ranks = append(o.Ranks, rank)
	}

	// Stable sort by rank preserves grid order within each label.
	rows := make([]int, len(o.Voxels))
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return o.Ranks[rows[i]] < o.Ranks[rows[j]]
	})

	voxels := make([]int, len(rows))
	ranks := make([]int, len(rows))
	for i, r := range rows {
		voxels[i] = o.Voxels[r]
		ranks[i] = o.Ranks[r]
	}
	o.Voxels = voxels
	o.Ranks = ranks

	// Record the contiguous row span of each non-empty band.
	start := 0
	for i := 1; i <= len(ranks); i++ {
		if i == len(ranks) || bandOfRank[ranks[i]] != bandOfRank[ranks[start]] {
			bi := bandOfRank[ranks[start]]
			o.Spans = append(o.Spans, BandSpan{
				Name:  bands[bi].Name,
				Band:  bi,
				Start: start,
				End:   i,
			})
			start = i
		}
	}

	return o, nil
}
