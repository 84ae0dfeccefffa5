package visualization

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"fmriplot/internal/models"
)

func gradientVolume(x, y, z int) *models.Volume3D {
	vol := &models.Volume3D{Data: make([]float64, x*y*z), X: x, Y: y, Z: z}
	for k := 0; k < z; k++ {
		for j := 0; j < y; j++ {
			for i := 0; i < x; i++ {
				vol.Data[k*x*y+j*x+i] = float64(k)
			}
		}
	}
	return vol
}

// TestExtractSlice verifies that slices are correctly extracted and
// normalized to the volume intensity range
func TestExtractSlice(t *testing.T) {
	width, height, depth := 10, 10, 5
	viewer := NewViewer(gradientVolume(width, height, depth))

	for z := 0; z < depth; z++ {
		img, err := viewer.ExtractSlice("z", z)
		if err != nil {
			t.Fatalf("Failed to extract Z slice at position %d: %v", z, err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != width || bounds.Dy() != height {
			t.Errorf("Expected Z slice dimensions %dx%d, got %dx%d",
				width, height, bounds.Dx(), bounds.Dy())
		}

		// Slices span the full gray range: first black, last white.
		gray16Img, ok := img.(*image.Gray16)
		if !ok {
			t.Fatalf("Expected *image.Gray16, got %T", img)
		}
		got := gray16Img.Gray16At(width/2, height/2).Y
		want := uint16(float64(z) / float64(depth-1) * 65535)
		if got != want {
			t.Errorf("Expected Z slice value %d at center, got %d", want, got)
		}
	}

	// Sagittal slice dimensions
	imgX, err := viewer.ExtractSlice("x", width/2)
	if err != nil {
		t.Fatalf("Failed to extract X slice: %v", err)
	}
	if b := imgX.Bounds(); b.Dx() != depth || b.Dy() != height {
		t.Errorf("Expected X slice dimensions %dx%d, got %dx%d", depth, height, b.Dx(), b.Dy())
	}

	// Coronal slice dimensions
	imgY, err := viewer.ExtractSlice("y", height/2)
	if err != nil {
		t.Fatalf("Failed to extract Y slice: %v", err)
	}
	if b := imgY.Bounds(); b.Dx() != width || b.Dy() != depth {
		t.Errorf("Expected Y slice dimensions %dx%d, got %dx%d", width, depth, b.Dx(), b.Dy())
	}

	// Invalid axis
	if _, err := viewer.ExtractSlice("invalid", 0); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}

	// Out of bounds position
	if _, err := viewer.ExtractSlice("z", depth+1); err == nil {
		t.Error("Expected error for out of bounds position, got nil")
	}
}

// TestSaveSliceSequence verifies that a sequence of slices can be saved
func TestSaveSliceSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	viewer := NewViewer(gradientVolume(5, 5, 3))

	outputDir := filepath.Join(t.TempDir(), "slices")
	if err := viewer.SaveSliceSequence("z", outputDir); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}

	for z := 0; z < 3; z++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_z_%03d.jpg", z))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected slice file does not exist: %s", filename)
		}
	}

	if err := viewer.SaveSliceSequence("invalid", outputDir); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}

// TestFlatVolumeRendersBlack verifies constant volumes normalize to zero
func TestFlatVolumeRendersBlack(t *testing.T) {
	vol := &models.Volume3D{Data: []float64{3, 3, 3, 3}, X: 2, Y: 2, Z: 1}
	viewer := NewViewer(vol)

	img, err := viewer.ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	if got := img.(*image.Gray16).Gray16At(0, 0).Y; got != 0 {
		t.Errorf("Expected 0 for constant volume, got %d", got)
	}
}
