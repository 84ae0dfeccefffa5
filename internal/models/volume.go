package models

// Volume4D represents a 4D functional imaging volume with axes (x, y, z, t).
// Data is stored as a flat array in NIfTI disk order: x varies fastest,
// then y, then z, with one full spatial grid per timestep.
type Volume4D struct {
	// Data is the voxel samples as a 1D array
	Data []float64

	// X, Y, Z are the spatial dimensions in voxels
	X, Y, Z int

	// T is the number of timesteps
	T int

	// TR is the sampling interval (repetition time) in seconds.
	// Zero means unknown.
	TR float64
}

// NumVoxels returns the number of spatial voxels in one timestep.
func (v *Volume4D) NumVoxels() int {
	return v.X * v.Y * v.Z
}

// At returns the sample at spatial position (x, y, z) and timestep t.
func (v *Volume4D) At(x, y, z, t int) float64 {
	return v.Data[t*v.X*v.Y*v.Z+z*v.X*v.Y+y*v.X+x]
}

// Series copies the time series of the voxel at flat spatial index idx
// into dst, which must have length T.
func (v *Volume4D) Series(idx int, dst []float64) {
	stride := v.X * v.Y * v.Z
	for t := 0; t < v.T; t++ {
		dst[t] = v.Data[t*stride+idx]
	}
}

// Volume3D represents a single 3D volume such as a brain mask or a
// temporal mean image. Same flat layout as one timestep of Volume4D.
type Volume3D struct {
	// Data is the voxel values as a 1D array
	Data []float64

	// X, Y, Z are the spatial dimensions in voxels
	X, Y, Z int
}

// NumVoxels returns the total number of voxels.
func (v *Volume3D) NumVoxels() int {
	return v.X * v.Y * v.Z
}

// At returns the value at spatial position (x, y, z).
func (v *Volume3D) At(x, y, z int) float64 {
	return v.Data[z*v.X*v.Y+y*v.X+x]
}

// Segmentation is an integer tissue labeling of a 3D grid.
// Label 0 marks excluded voxels.
type Segmentation struct {
	// Labels holds one tissue label per voxel, same flat layout as Volume3D
	Labels []int32

	// X, Y, Z are the spatial dimensions in voxels
	X, Y, Z int
}

// NumVoxels returns the total number of voxels.
func (s *Segmentation) NumVoxels() int {
	return s.X * s.Y * s.Z
}

// At returns the label at spatial position (x, y, z).
func (s *Segmentation) At(x, y, z int) int32 {
	return s.Labels[z*s.X*s.Y+y*s.X+x]
}

// FromMask derives a segmentation from a binary mask by assigning label 2
// to every voxel inside the mask. Label 2 falls in the default white
// matter/CSF band, so an unsegmented scan still produces a carpet.
func FromMask(mask *Volume3D) *Segmentation {
	seg := &Segmentation{
		Labels: make([]int32, len(mask.Data)),
		X:      mask.X,
		Y:      mask.Y,
		Z:      mask.Z,
	}
	for i, v := range mask.Data {
		if v > 0 {
			seg.Labels[i] = 2
		}
	}
	return seg
}

// MeanVolume collapses a 4D volume to its temporal mean image.
func MeanVolume(vol *Volume4D) *Volume3D {
	n := vol.NumVoxels()
	out := &Volume3D{
		Data: make([]float64, n),
		X:    vol.X,
		Y:    vol.Y,
		Z:    vol.Z,
	}
	for t := 0; t < vol.T; t++ {
		base := t * n
		for i := 0; i < n; i++ {
			out.Data[i] += vol.Data[base+i]
		}
	}
	if vol.T > 0 {
		for i := range out.Data {
			out.Data[i] /= float64(vol.T)
		}
	}
	return out
}
