package volume

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// niftiHeader is the 348-byte NIfTI-1 header, as defined by the official
// nifti1.h at https://nifti.nimh.nih.gov/pub/dist/src/niftilib/nifti1.h.
type niftiHeader struct {
	SizeofHdr          int32
	UnusedDataType     [10]int8
	UnusedDbName       [18]int8
	UnusedExtents      int32
	UnusedSessionError int16
	UnusedRegular      int8
	DimInfo            int8
	Dim                [8]int16
	IntentP1           float32
	IntentP2           float32
	IntentP3           float32
	IntentCode         int16
	Datatype           int16
	Bitpix             int16
	SliceStart         int16
	Pixdim             [8]float32
	VoxOffset          float32
	SclSlope           float32
	SclInter           float32
	SliceEnd           int16
	SliceCode          int8
	XyztUnits          int8
	CalMax             float32
	CalMin             float32
	SliceDuration      float32
	Toffset            float32
	UnusedGlmax        int32
	UnusedGlmin        int32
	Descrip            [80]int8
	AuxFile            [24]int8
	QformCode          int16
	SformCode          int16
	QuaternB           float32
	QuaternC           float32
	QuaternD           float32
	QoffsetX           float32
	QoffsetY           float32
	QoffsetZ           float32
	SrowX              [4]float32
	SrowY              [4]float32
	SrowZ              [4]float32
	IntentName         [16]int8
	Magic              [4]int8
}

// NIfTI-1 datatype codes for the voxel formats supported on read.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
)

const niftiHeaderSize = 348

// Single-file data starts after the header plus the 4-byte extension flag.
const niftiVoxOffset = 352

// Read loads a single-file NIfTI-1 volume (.nii or .nii.gz). Byte order is
// detected from the header; int and float voxel formats are converted to
// float64, honoring the header's scaling slope and intercept.
func Read(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open volume: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %v", err)
		}
		defer gz.Close()
		r = gz
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read volume: %v", err)
	}
	if len(raw) < niftiHeaderSize {
		return nil, fmt.Errorf("file too short for a NIfTI-1 header (%d bytes)", len(raw))
	}

	var h niftiHeader
	order := binary.ByteOrder(binary.LittleEndian)
	if err := binary.Read(bytes.NewReader(raw), order, &h); err != nil {
		return nil, fmt.Errorf("failed to parse header: %v", err)
	}
	if h.Dim[0] < 1 || h.Dim[0] > 7 {
		order = binary.BigEndian
		if err := binary.Read(bytes.NewReader(raw), order, &h); err != nil {
			return nil, fmt.Errorf("failed to parse header: %v", err)
		}
	}
	if h.SizeofHdr != niftiHeaderSize {
		return nil, fmt.Errorf("invalid NIfTI-1 header size %d", h.SizeofHdr)
	}
	if h.Dim[0] < 1 || h.Dim[0] > 7 {
		return nil, fmt.Errorf("header dim[0] = %d outside [1, 7]", h.Dim[0])
	}
	if h.Magic != [4]int8{'n', '+', '1', 0} {
		return nil, fmt.Errorf("unsupported magic %q: only single-file n+1 volumes are supported",
			magicString(h.Magic))
	}

	dim := make([]int, h.Dim[0])
	for i := range dim {
		d := int(h.Dim[i+1])
		if d < 1 {
			d = 1
		}
		dim[i] = d
	}
	// The engine is spatial-first; pad 1D/2D images out to three dimensions.
	for len(dim) < 3 {
		dim = append(dim, 1)
	}
	var pixdim [3]float64
	for i := 0; i < 3; i++ {
		pixdim[i] = float64(h.Pixdim[i+1])
	}

	offset := int(h.VoxOffset)
	if offset < niftiVoxOffset {
		offset = niftiVoxOffset
	}
	if offset > len(raw) {
		return nil, fmt.Errorf("data offset %d beyond file size %d", offset, len(raw))
	}

	n := 1
	for _, d := range dim {
		n *= d
	}
	data, err := decodeVoxels(raw[offset:], order, h.Datatype, n)
	if err != nil {
		return nil, err
	}
	if h.SclSlope != 0 && (h.SclSlope != 1 || h.SclInter != 0) {
		slope := float64(h.SclSlope)
		inter := float64(h.SclInter)
		for i := range data {
			data[i] = slope*data[i] + inter
		}
	}
	return FromData(dim, pixdim, data)
}

func decodeVoxels(raw []byte, order binary.ByteOrder, datatype int16, n int) ([]float64, error) {
	br := bytes.NewReader(raw)
	out := make([]float64, n)
	switch datatype {
	case dtUint8:
		buf := make([]uint8, n)
		if err := binary.Read(br, order, &buf); err != nil {
			return nil, fmt.Errorf("failed to read voxel data: %v", err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case dtInt16:
		buf := make([]int16, n)
		if err := binary.Read(br, order, &buf); err != nil {
			return nil, fmt.Errorf("failed to read voxel data: %v", err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case dtInt32:
		buf := make([]int32, n)
		if err := binary.Read(br, order, &buf); err != nil {
			return nil, fmt.Errorf("failed to read voxel data: %v", err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case dtFloat32:
		buf := make([]float32, n)
		if err := binary.Read(br, order, &buf); err != nil {
			return nil, fmt.Errorf("failed to read voxel data: %v", err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case dtFloat64:
		if err := binary.Read(br, order, &out); err != nil {
			return nil, fmt.Errorf("failed to read voxel data: %v", err)
		}
	default:
		return nil, fmt.Errorf("unsupported NIfTI datatype %d", datatype)
	}
	return out, nil
}

// Write saves the volume as a single-file NIfTI-1 image with float32 voxels,
// gzip-compressed when the path ends in .gz.
func Write(path string, v *Volume) error {
	var h niftiHeader
	h.SizeofHdr = niftiHeaderSize
	for i := range h.Dim {
		h.Dim[i] = 1
	}
	h.Dim[0] = int16(len(v.dim))
	for i, d := range v.dim {
		h.Dim[i+1] = int16(d)
	}
	h.Datatype = dtFloat32
	h.Bitpix = 32
	for i := range h.Pixdim {
		h.Pixdim[i] = 1
	}
	for i := 0; i < 3; i++ {
		h.Pixdim[i+1] = float32(v.pixdim[i])
	}
	h.VoxOffset = niftiVoxOffset
	h.SclSlope = 1
	copy(h.Descrip[:], stringToInt8("voxeledit"))
	h.Magic = [4]int8{'n', '+', '1', 0}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create volume file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}
	// Extension flag: no header extensions follow.
	if _, err := w.Write([]byte{0, 0, 0, 0}); err != nil {
		return fmt.Errorf("failed to write extension flag: %v", err)
	}
	buf := make([]float32, len(v.data))
	for i, val := range v.data {
		buf[i] = float32(val)
	}
	if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
		return fmt.Errorf("failed to write voxel data: %v", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %v", err)
		}
	}
	return nil
}

func magicString(m [4]int8) string {
	b := make([]byte, 0, 4)
	for _, c := range m {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}

func stringToInt8(s string) []int8 {
	out := make([]int8, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int8(s[i])
	}
	return out
}
