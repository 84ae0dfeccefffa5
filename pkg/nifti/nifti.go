// Package nifti reads NIfTI-1 imaging volumes, the interchange format the
// functional scans, brain masks, and tissue segmentations arrive in.
// It implements the minimal subset needed here: single-file .nii and
// .nii.gz volumes with the common scalar datatypes, endianness detection,
// and slope/intercept intensity scaling.
package nifti

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"fmriplot/internal/models"
)

// NIfTI-1 datatype codes.
const (
	DTUInt8   = 2
	DTInt16   = 4
	DTInt32   = 8
	DTFloat32 = 16
	DTFloat64 = 64
	DTInt8    = 256
	DTUInt16  = 512
)

// headerSize is the fixed size of the NIfTI-1 header.
const headerSize = 348

// Header is the NIfTI-1 file header, laid out exactly as on disk.
type Header struct {
	SizeofHdr      int32
	DataType       [10]byte
	DbName         [18]byte
	Extents        int32
	SessionError   int16
	Regular        byte
	DimInfo        byte
	Dim            [8]int16
	IntentP1       float32
	IntentP2       float32
	IntentP3       float32
	IntentCode     int16
	Datatype       int16
	Bitpix         int16
	SliceStart     int16
	Pixdim         [8]float32
	VoxOffset      float32
	SclSlope       float32
	SclInter       float32
	SliceEnd       int16
	SliceCode      int8
	XyztUnits      int8
	CalMax         float32
	CalMin         float32
	SliceDuration  float32
	Toffset        float32
	Glmax          int32
	Glmin          int32
	Descrip        [80]byte
	AuxFile        [24]byte
	QformCode      int16
	SformCode      int16
	QuaternB       float32
	QuaternC       float32
	QuaternD       float32
	QoffsetX       float32
	QoffsetY       float32
	QoffsetZ       float32
	SrowX          [4]float32
	SrowY          [4]float32
	SrowZ          [4]float32
	IntentName     [16]byte
	Magic          [4]byte
}

// TR returns the sampling interval along the time axis in seconds,
// converting from the unit encoded in the header. Zero when absent.
func (h *Header) TR() float64 {
	tr := float64(h.Pixdim[4])
	switch h.XyztUnits & 0x38 {
	case 16: // milliseconds
		tr /= 1e3
	case 24: // microseconds
		tr /= 1e6
	}
	if tr < 0 || math.IsNaN(tr) {
		return 0
	}
	return tr
}

// Volume is a decoded NIfTI volume: raw samples with dimensions and
// header metadata.
type Volume struct {
	Header Header

	// Data holds the samples in disk order (x fastest), with
	// slope/intercept scaling applied
	Data []float64

	// X, Y, Z, T are the grid dimensions; T is 1 for 3D volumes
	X, Y, Z, T int
}

// Load reads a .nii or .nii.gz file.
func Load(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	// Sniff the gzip magic rather than trusting the extension.
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream in %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	vol, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vol, nil
}

func decode(r io.Reader) (*Volume, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var hdr Header
	var order binary.ByteOrder = binary.LittleEndian
	if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
		return nil, err
	}
	// A sane dim[0] is 1..7; anything else means the file was written on
	// a machine with the opposite byte order.
	if hdr.Dim[0] < 1 || hdr.Dim[0] > 7 {
		order = binary.BigEndian
		if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
			return nil, err
		}
	}
	if hdr.SizeofHdr != headerSize {
		return nil, fmt.Errorf("bad header size %d, want %d", hdr.SizeofHdr, headerSize)
	}
	if hdr.Magic[0] != 'n' || hdr.Magic[2] != '1' {
		return nil, fmt.Errorf("bad magic %q, not a NIfTI-1 file", hdr.Magic[:3])
	}
	if hdr.Dim[0] < 1 || hdr.Dim[0] > 4 {
		return nil, fmt.Errorf("unsupported dimensionality %d", hdr.Dim[0])
	}

	dims := [4]int{1, 1, 1, 1}
	n := 1
	for i := 0; i < int(hdr.Dim[0]); i++ {
		d := int(hdr.Dim[i+1])
		if d < 1 {
			return nil, fmt.Errorf("non-positive dimension %d at axis %d", d, i+1)
		}
		dims[i] = d
		n *= d
	}

	// Skip from the end of the header to the voxel data.
	offset := int64(hdr.VoxOffset)
	if offset < headerSize {
		offset = headerSize + 4
	}
	if _, err := io.CopyN(io.Discard, r, offset-headerSize); err != nil {
		return nil, fmt.Errorf("seeking to voxel data: %w", err)
	}

	data, err := readSamples(r, order, hdr.Datatype, n)
	if err != nil {
		return nil, err
	}

	// Apply intensity scaling when present.
	slope := float64(hdr.SclSlope)
	inter := float64(hdr.SclInter)
	if slope != 0 && (slope != 1 || inter != 0) {
		for i := range data {
			data[i] = data[i]*slope + inter
		}
	}

	return &Volume{
		Header: hdr,
		Data:   data,
		X:      dims[0],
		Y:      dims[1],
		Z:      dims[2],
		T:      dims[3],
	}, nil
}

func readSamples(r io.Reader, order binary.ByteOrder, datatype int16, n int) ([]float64, error) {
	data := make([]float64, n)
	switch datatype {
	case DTUInt8:
		buf := make([]uint8, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("reading voxel data: %w", err)
		}
		for i, v := range buf {
			data[i] = float64(v)
		}
	case DTInt8:
		buf := make([]int8, n)
		if err := binary.Read(r, order, buf); err != nil {
			return nil, fmt.Errorf("reading voxel data: %w", err)
		}
		for i, v := range buf {
			data[i] = float64(v)
		}
	case DTInt16:
		buf := make([]int16, n)
		if err := binary.Read(r, order, buf); err != nil {
			return nil, fmt.Errorf("reading voxel data: %w", err)
		}
		for i, v := range buf {
			data[i] = float64(v)
		}
	case DTUInt16:
		buf := make([]uint16, n)
		if err := binary.Read(r, order, buf); err != nil {
			return nil, fmt.Errorf("reading voxel data: %w", err)
		}
		for i, v := range buf {
			data[i] = float64(v)
		}
	case DTInt32:
		buf := make([]int32, n)
		if err := binary.Read(r, order, buf); err != nil {
			return nil, fmt.Errorf("reading voxel data: %w", err)
		}
		for i, v := range buf {
			data[i] = float64(v)
		}
	case DTFloat32:
		buf := make([]float32, n)
		if err := binary.Read(r, order, buf); err != nil {
			return nil, fmt.Errorf("reading voxel data: %w", err)
		}
		for i, v := range buf {
			data[i] = float64(v)
		}
	case DTFloat64:
		if err := binary.Read(r, order, data); err != nil {
			return nil, fmt.Errorf("reading voxel data: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported datatype code %d", datatype)
	}
	return data, nil
}

// Load4D reads a functional scan. 3D inputs load as a single timestep.
func Load4D(path string) (*models.Volume4D, error) {
	vol, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &models.Volume4D{
		Data: vol.Data,
		X:    vol.X,
		Y:    vol.Y,
		Z:    vol.Z,
		T:    vol.T,
		TR:   vol.Header.TR(),
	}, nil
}

// Load3D reads a 3D volume such as a brain mask. A 4D input is rejected.
func Load3D(path string) (*models.Volume3D, error) {
	vol, err := Load(path)
	if err != nil {
		return nil, err
	}
	if vol.T != 1 {
		return nil, fmt.Errorf("%s has %d timesteps, want a 3D volume", path, vol.T)
	}
	return &models.Volume3D{
		Data: vol.Data,
		X:    vol.X,
		Y:    vol.Y,
		Z:    vol.Z,
	}, nil
}

// LoadSegmentation reads a 3D label volume, rounding samples to integer
// tissue labels.
func LoadSegmentation(path string) (*models.Segmentation, error) {
	vol, err := Load(path)
	if err != nil {
		return nil, err
	}
	if vol.T != 1 {
		return nil, fmt.Errorf("%s has %d timesteps, want a 3D segmentation", path, vol.T)
	}
	labels := make([]int32, len(vol.Data))
	for i, v := range vol.Data {
		labels[i] = int32(math.Round(v))
	}
	return &models.Segmentation{
		Labels: labels,
		X:      vol.X,
		Y:      vol.Y,
		Z:      vol.Z,
	}, nil
}

