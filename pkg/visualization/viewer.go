// Package visualization exports anatomical slice images from a volume for
// visual inspection alongside the summary figure.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"fmriplot/internal/models"
)

// Viewer extracts 2D grayscale slices from a 3D volume, typically the
// temporal mean of a functional scan. Intensities are normalized to the
// volume's own range so exported slices use the full gray scale.
type Viewer struct {
	vol *models.Volume3D

	// lo and hi are the intensity bounds used for normalization
	lo, hi float64
}

// NewViewer creates a viewer over the volume.
func NewViewer(vol *models.Volume3D) *Viewer {
	v := &Viewer{vol: vol}
	if len(vol.Data) > 0 {
		v.lo, v.hi = vol.Data[0], vol.Data[0]
		for _, s := range vol.Data {
			if s < v.lo {
				v.lo = s
			}
			if s > v.hi {
				v.hi = s
			}
		}
	}
	return v
}

func (v *Viewer) gray(val float64) color.Gray16 {
	if v.hi <= v.lo {
		return color.Gray16{}
	}
	n := (val - v.lo) / (v.hi - v.lo)
	return color.Gray16{Y: uint16(n * 65535)}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Sagittal slice along the YZ plane
		if position >= v.vol.X {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.vol.X)
		}
		img = image.NewGray16(image.Rect(0, 0, v.vol.Z, v.vol.Y))
		for y := 0; y < v.vol.Y; y++ {
			for z := 0; z < v.vol.Z; z++ {
				img.SetGray16(z, y, v.gray(v.vol.At(position, y, z)))
			}
		}

	case "y", "Y":
		// Coronal slice along the XZ plane
		if position >= v.vol.Y {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.vol.Y)
		}
		img = image.NewGray16(image.Rect(0, 0, v.vol.X, v.vol.Z))
		for z := 0; z < v.vol.Z; z++ {
			for x := 0; x < v.vol.X; x++ {
				img.SetGray16(x, z, v.gray(v.vol.At(x, position, z)))
			}
		}

	case "z", "Z":
		// Axial slice along the XY plane
		if position >= v.vol.Z {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.vol.Z)
		}
		img = image.NewGray16(image.Rect(0, 0, v.vol.X, v.vol.Y))
		for y := 0; y < v.vol.Y; y++ {
			for x := 0; x < v.vol.X; x++ {
				img.SetGray16(x, y, v.gray(v.vol.At(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along the specified axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.vol.X
	case "y", "Y":
		maxPos = v.vol.Y
	case "z", "Z":
		maxPos = v.vol.Z
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
