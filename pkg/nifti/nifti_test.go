package nifti

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeNifti builds a little-endian single-file NIfTI-1 volume on disk.
func writeNifti(t *testing.T, path string, hdr Header, payload interface{}, compress bool) {
	t.Helper()

	hdr.SizeofHdr = headerSize
	hdr.Magic = [4]byte{'n', '+', '1', 0}
	if hdr.VoxOffset == 0 {
		hdr.VoxOffset = 352
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	// Extension flag padding between header and voxel data.
	buf.Write(make([]byte, int(hdr.VoxOffset)-buf.Len()))
	if err := binary.Write(&buf, binary.LittleEndian, payload); err != nil {
		t.Fatalf("writing payload: %v", err)
	}

	out := buf.Bytes()
	if compress {
		var gzBuf bytes.Buffer
		gw := gzip.NewWriter(&gzBuf)
		if _, err := gw.Write(out); err != nil {
			t.Fatalf("compressing: %v", err)
		}
		gw.Close()
		out = gzBuf.Bytes()
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestLoad4DFloat32(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "func.nii")

	var hdr Header
	hdr.Dim = [8]int16{4, 3, 2, 2, 5, 1, 1, 1}
	hdr.Datatype = DTFloat32
	hdr.Bitpix = 32
	hdr.Pixdim = [8]float32{1, 2, 2, 2, 2.5, 0, 0, 0}
	hdr.XyztUnits = 0x0a // mm + seconds

	n := 3 * 2 * 2 * 5
	payload := make([]float32, n)
	for i := range payload {
		payload[i] = float32(i)
	}
	writeNifti(t, path, hdr, payload, false)

	vol, err := Load4D(path)
	if err != nil {
		t.Fatalf("Load4D failed: %v", err)
	}
	if vol.X != 3 || vol.Y != 2 || vol.Z != 2 || vol.T != 5 {
		t.Errorf("Expected dims 3x2x2x5, got %dx%dx%dx%d", vol.X, vol.Y, vol.Z, vol.T)
	}
	if vol.TR != 2.5 {
		t.Errorf("Expected TR 2.5, got %f", vol.TR)
	}
	if vol.At(0, 0, 0, 0) != 0 {
		t.Errorf("Expected first sample 0, got %f", vol.At(0, 0, 0, 0))
	}
	if got := vol.At(2, 1, 1, 4); got != float64(n-1) {
		t.Errorf("Expected last sample %d, got %f", n-1, got)
	}
}

func TestLoadInt16WithScaling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scaled.nii")

	var hdr Header
	hdr.Dim = [8]int16{3, 2, 2, 2, 1, 1, 1, 1}
	hdr.Datatype = DTInt16
	hdr.Bitpix = 16
	hdr.SclSlope = 0.5
	hdr.SclInter = 10

	payload := []int16{0, 2, 4, 6, 8, 10, 12, 14}
	writeNifti(t, path, hdr, payload, false)

	vol, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if vol.Data[0] != 10 {
		t.Errorf("Expected scaled value 10, got %f", vol.Data[0])
	}
	if vol.Data[7] != 17 {
		t.Errorf("Expected scaled value 17, got %f", vol.Data[7])
	}
}

func TestLoadGzipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mask.nii.gz")

	var hdr Header
	hdr.Dim = [8]int16{3, 2, 2, 2, 1, 1, 1, 1}
	hdr.Datatype = DTUInt8
	hdr.Bitpix = 8

	payload := []uint8{0, 1, 1, 0, 1, 0, 0, 1}
	writeNifti(t, path, hdr, payload, true)

	vol, err := Load3D(path)
	if err != nil {
		t.Fatalf("Load3D failed: %v", err)
	}
	if vol.X != 2 || vol.Y != 2 || vol.Z != 2 {
		t.Errorf("Expected dims 2x2x2, got %dx%dx%d", vol.X, vol.Y, vol.Z)
	}
	if vol.Data[1] != 1 {
		t.Errorf("Expected voxel value 1, got %f", vol.Data[1])
	}
}

func TestLoadSegmentationRoundsLabels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seg.nii")

	var hdr Header
	hdr.Dim = [8]int16{3, 2, 1, 1, 1, 1, 1, 1}
	hdr.Datatype = DTFloat64
	hdr.Bitpix = 64

	payload := []float64{149.9, 50.2}
	writeNifti(t, path, hdr, payload, false)

	seg, err := LoadSegmentation(path)
	if err != nil {
		t.Fatalf("LoadSegmentation failed: %v", err)
	}
	if seg.Labels[0] != 150 || seg.Labels[1] != 50 {
		t.Errorf("Expected labels [150 50], got %v", seg.Labels)
	}
}

func TestLoad3DRejects4D(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "func.nii")

	var hdr Header
	hdr.Dim = [8]int16{4, 2, 2, 2, 3, 1, 1, 1}
	hdr.Datatype = DTFloat32
	hdr.Bitpix = 32

	payload := make([]float32, 2*2*2*3)
	writeNifti(t, path, hdr, payload, false)

	if _, err := Load3D(path); err == nil {
		t.Error("Expected error for 4D input, got nil")
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.nii")

	var hdr Header
	hdr.SizeofHdr = headerSize
	hdr.Dim = [8]int16{3, 2, 2, 2, 1, 1, 1, 1}
	hdr.Datatype = DTUInt8
	hdr.Magic = [4]byte{'x', 'x', 'x', 0}
	hdr.VoxOffset = 352

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for bad magic, got nil")
	}
}

func TestHeaderTRUnits(t *testing.T) {
	var hdr Header
	hdr.Pixdim[4] = 2000
	hdr.XyztUnits = 0x12 // mm + milliseconds
	if got := hdr.TR(); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("Expected TR 2.0s from milliseconds, got %f", got)
	}

	hdr.XyztUnits = 0x0a // mm + seconds
	hdr.Pixdim[4] = 1.5
	if got := hdr.TR(); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("Expected TR 1.5s, got %f", got)
	}
}
