package carpet

import (
	"fmt"

	"fmriplot/internal/models"
)

// Matrix is the voxel-by-time matrix backing a carpet image: one row per
// displayed voxel, columns in acquisition order. Rows follow the display
// permutation, so tissue bands are already contiguous.
type Matrix struct {
	// Rows holds one time series per displayed voxel
	Rows [][]float64

	// NTsteps is the number of columns
	NTsteps int

	// Order is the permutation the rows were extracted with
	Order *Order
}

// ExtractMatrix pulls the time series of every ordered voxel out of the
// volume. The volume and the segmentation the order was built from must
// share spatial dimensions.
func ExtractMatrix(vol *models.Volume4D, seg *models.Segmentation, order *Order) (*Matrix, error) {
	if vol == nil {
		return nil, fmt.Errorf("volume is nil")
	}
	if vol.X != seg.X || vol.Y != seg.Y || vol.Z != seg.Z {
		return nil, fmt.Errorf("volume dimensions %dx%dx%d do not match segmentation %dx%dx%d",
			vol.X, vol.Y, vol.Z, seg.X, seg.Y, seg.Z)
	}
	if len(vol.Data) != vol.NumVoxels()*vol.T {
		return nil, fmt.Errorf("volume data length %d does not match dimensions", len(vol.Data))
	}

	m := &Matrix{
		Rows:    make([][]float64, order.Len()),
		NTsteps: vol.T,
		Order:   order,
	}
	for i, idx := range order.Voxels {
		row := make([]float64, vol.T)
		vol.Series(idx, row)
		m.Rows[i] = row
	}
	return m, nil
}
