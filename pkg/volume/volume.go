// Package volume implements the image store the editing engine operates on:
// a dense voxel grid of three or more dimensions with physical voxel sizes,
// block-level read/write access, and NIfTI-1 file I/O.
package volume

import (
	"errors"
	"fmt"

	"voxeledit/internal/models"
)

var (
	// ErrShape is returned when a volume is constructed with fewer than
	// three dimensions, a non-positive extent, or mismatched data length.
	ErrShape = errors.New("invalid volume shape")

	// ErrBounds is returned for block accesses whose extents or volume
	// indices fall outside the grid.
	ErrBounds = errors.New("access outside volume bounds")
)

// Volume is a dense voxel grid. The first three dimensions are spatial; any
// further dimensions (time, diffusion direction, ...) are addressed through
// a current volume index so that spatial block operations stay 3D.
//
// Data is stored flat in x-fastest order: i = x + nx*(y + ny*(z + nz*t)).
type Volume struct {
	data   []float64
	dim    []int
	pixdim [3]float64
	vol    []int
}

// New creates a zero-filled volume with the given dimensions and physical
// voxel sizes. Non-positive voxel sizes default to 1.0.
func New(dim []int, pixdim [3]float64) (*Volume, error) {
	if len(dim) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 dimensions, got %d", ErrShape, len(dim))
	}
	total := 1
	for _, d := range dim {
		if d <= 0 {
			return nil, fmt.Errorf("%w: non-positive extent in %v", ErrShape, dim)
		}
		total *= d
	}
	for i := 0; i < 3; i++ {
		if pixdim[i] <= 0 {
			pixdim[i] = 1.0
		}
	}
	return &Volume{
		data:   make([]float64, total),
		dim:    append([]int(nil), dim...),
		pixdim: pixdim,
		vol:    make([]int, len(dim)-3),
	}, nil
}

// FromData creates a volume wrapping existing flat data in x-fastest order.
// The data length must match the product of the dimensions.
func FromData(dim []int, pixdim [3]float64, data []float64) (*Volume, error) {
	v, err := New(dim, pixdim)
	if err != nil {
		return nil, err
	}
	if len(data) != len(v.data) {
		return nil, fmt.Errorf("%w: data length %d does not match dimensions %v",
			ErrShape, len(data), dim)
	}
	v.data = data
	return v, nil
}

// Dims returns a copy of the full dimension list.
func (v *Volume) Dims() []int {
	return append([]int(nil), v.dim...)
}

// NumDims returns the number of dimensions.
func (v *Volume) NumDims() int {
	return len(v.dim)
}

// SpatialShape returns the first three dimensions.
func (v *Volume) SpatialShape() [3]int {
	return [3]int{v.dim[0], v.dim[1], v.dim[2]}
}

// VoxelSize returns the physical size of a voxel along each spatial axis.
func (v *Volume) VoxelSize() [3]float64 {
	return v.pixdim
}

// CurrentVolume returns a copy of the current extra-dimension indices. The
// slice is empty for purely spatial volumes.
func (v *Volume) CurrentVolume() []int {
	return append([]int(nil), v.vol...)
}

// SetCurrentVolume selects which higher-dimension volume spatial block
// operations address. The index slice must have one entry per dimension
// beyond the third.
func (v *Volume) SetCurrentVolume(idx []int) error {
	if _, err := v.base(idx); err != nil {
		return err
	}
	copy(v.vol, idx)
	return nil
}

// Data returns the underlying flat data. Callers must treat it as read-only.
func (v *Volume) Data() []float64 {
	return v.data
}

// base returns the flat offset of the first spatial voxel of the volume
// addressed by the given extra-dimension indices.
func (v *Volume) base(vol []int) (int, error) {
	if len(vol) != len(v.dim)-3 {
		return 0, fmt.Errorf("%w: volume index %v for %d-d volume", ErrBounds, vol, len(v.dim))
	}
	off := 0
	mult := 1
	for i, t := range vol {
		if t < 0 || t >= v.dim[3+i] {
			return 0, fmt.Errorf("%w: volume index %v for dimensions %v", ErrBounds, vol, v.dim)
		}
		off += t * mult
		mult *= v.dim[3+i]
	}
	spatial := v.dim[0] * v.dim[1] * v.dim[2]
	return off * spatial, nil
}

func (v *Volume) checkBlock(lo, hi [3]int) error {
	shape := v.SpatialShape()
	for i := 0; i < 3; i++ {
		if lo[i] > hi[i] {
			return fmt.Errorf("%w: inverted extent [%v, %v)", ErrBounds, lo, hi)
		}
		if lo[i] < 0 || hi[i] > shape[i] {
			return fmt.Errorf("%w: extent [%v, %v) outside shape %v", ErrBounds, lo, hi, shape)
		}
	}
	return nil
}

// At returns the value of a single voxel of the current volume.
func (v *Volume) At(p [3]int) (float64, error) {
	hi := [3]int{p[0] + 1, p[1] + 1, p[2] + 1}
	if err := v.checkBlock(p, hi); err != nil {
		return 0, err
	}
	base, err := v.base(v.vol)
	if err != nil {
		return 0, err
	}
	return v.data[base+models.Index(p, v.SpatialShape())], nil
}

// SetAt writes a single voxel of the current volume.
func (v *Volume) SetAt(p [3]int, val float64) error {
	hi := [3]int{p[0] + 1, p[1] + 1, p[2] + 1}
	if err := v.checkBlock(p, hi); err != nil {
		return err
	}
	base, err := v.base(v.vol)
	if err != nil {
		return err
	}
	v.data[base+models.Index(p, v.SpatialShape())] = val
	return nil
}

// Values returns a copy of the voxel values inside the half-open block
// [lo, hi) of the current volume, in x-fastest order. A zero-size block
// yields an empty slice.
func (v *Volume) Values(lo, hi [3]int) ([]float64, error) {
	return v.ValuesAt(lo, hi, v.vol)
}

// ValuesAt is Values for an explicit extra-dimension index, used when
// replaying recorded changes against a volume other than the current one.
func (v *Volume) ValuesAt(lo, hi [3]int, vol []int) ([]float64, error) {
	if err := v.checkBlock(lo, hi); err != nil {
		return nil, err
	}
	base, err := v.base(vol)
	if err != nil {
		return nil, err
	}
	b := models.Bounds{Lo: lo, Hi: hi}
	shape := b.Shape()
	spatial := v.SpatialShape()
	out := make([]float64, b.Volume())
	dst := 0
	for z := lo[2]; z < hi[2]; z++ {
		for y := lo[1]; y < hi[1]; y++ {
			src := base + models.Index([3]int{lo[0], y, z}, spatial)
			copy(out[dst:dst+shape[0]], v.data[src:src+shape[0]])
			dst += shape[0]
		}
	}
	return out, nil
}

// SetValues writes a block of values of the given shape at offset lo into
// the current volume. The value slice must match the block volume exactly;
// a zero-size block is a no-op.
func (v *Volume) SetValues(lo, shape [3]int, vals []float64) error {
	return v.SetValuesAt(lo, shape, vals, v.vol)
}

// SetValuesAt is SetValues for an explicit extra-dimension index.
func (v *Volume) SetValuesAt(lo, shape [3]int, vals []float64, vol []int) error {
	hi := lo
	for i := 0; i < 3; i++ {
		if shape[i] < 0 {
			return fmt.Errorf("%w: negative block shape %v", ErrBounds, shape)
		}
		hi[i] += shape[i]
	}
	if err := v.checkBlock(lo, hi); err != nil {
		return err
	}
	n := shape[0] * shape[1] * shape[2]
	if len(vals) != n {
		return fmt.Errorf("%w: %d values for block shape %v", ErrBounds, len(vals), shape)
	}
	if n == 0 {
		return nil
	}
	base, err := v.base(vol)
	if err != nil {
		return err
	}
	spatial := v.SpatialShape()
	src := 0
	for z := lo[2]; z < hi[2]; z++ {
		for y := lo[1]; y < hi[1]; y++ {
			dst := base + models.Index([3]int{lo[0], y, z}, spatial)
			copy(v.data[dst:dst+shape[0]], vals[src:src+shape[0]])
			src += shape[0]
		}
	}
	return nil
}
