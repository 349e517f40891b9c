// Package selection implements the voxel mask at the heart of the editing
// engine: a dense byte mask over an image's voxel grid with block-wise set
// operations, tolerance flood fills, line rasterization for freehand
// drawing, and last-change tracking with an optional combine mode that
// coalesces a run of edits into a single before/after record.
//
// The mask exposes only the single most recent change; undo/redo history
// lives in the editor package on top of it.
package selection

import (
	"errors"
	"fmt"

	"voxeledit/internal/models"
)

var (
	// ErrShape indicates a mask was constructed over a degenerate image
	// shape, or given a block whose data does not match its shape.
	ErrShape = errors.New("selection shape mismatch")

	// ErrInvalidArgument indicates a malformed argument: bad axis or size
	// lists, inverted restriction bounds, or a flood-fill seed outside the
	// grid or its restriction. The operation fails before any mutation.
	ErrInvalidArgument = errors.New("invalid selection argument")
)

// Image is the view of the volume store a mask needs: its spatial shape for
// sizing, physical voxel sizes for pen geometry, and value reads for
// select-by-value flood fills.
type Image interface {
	SpatialShape() [3]int
	VoxelSize() [3]float64
	Values(lo, hi [3]int) ([]float64, error)
}

// Block is a dense sub-region of mask values in x-fastest order. Nonzero
// means selected; mask mutations normalize stored values to 0 or 1.
type Block struct {
	Data  []uint8
	Shape [3]int
}

// NewBlock returns a zero-filled block of the given shape.
func NewBlock(shape [3]int) Block {
	return Block{
		Data:  make([]uint8, shape[0]*shape[1]*shape[2]),
		Shape: shape,
	}
}

// FilledBlock returns a block of the given shape with every voxel selected.
func FilledBlock(shape [3]int) Block {
	b := NewBlock(shape)
	for i := range b.Data {
		b.Data[i] = 1
	}
	return b
}

// Volume returns the number of voxels in the block.
func (b Block) Volume() int {
	return b.Shape[0] * b.Shape[1] * b.Shape[2]
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	out := Block{
		Data:  append([]uint8(nil), b.Data...),
		Shape: b.Shape,
	}
	return out
}

func (b Block) valid() bool {
	n := 1
	for _, s := range b.Shape {
		if s < 0 {
			return false
		}
		n *= s
	}
	return len(b.Data) == n
}

// Change is a recorded mask mutation: the sub-block state before and after,
// and the offset of the sub-block within the mask. Old is nil when the
// prior state was not captured (SetChange reporting a bulk replacement).
// Callers must treat the blocks as read-only.
type Change struct {
	Old    *Block
	New    Block
	Offset [3]int
}

func (c *Change) bounds() models.Bounds {
	hi := c.Offset
	for i := 0; i < 3; i++ {
		hi[i] += c.New.Shape[i]
	}
	return models.Bounds{Lo: c.Offset, Hi: hi}
}

// Mask is a dense byte mask matching an image's voxel grid. It is owned by
// exactly one editor; renderers hold a non-owning reference and treat its
// contents as read-only.
type Mask struct {
	img   Image
	shape [3]int
	data  []uint8
	last  *Change

	subs    []*subscriber
	nextTok Token
}

// New creates an all-clear mask sized to the image's spatial shape.
func New(img Image) (*Mask, error) {
	shape := img.SpatialShape()
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("%w: image shape %v", ErrShape, shape)
		}
	}
	return &Mask{
		img:   img,
		shape: shape,
		data:  make([]uint8, shape[0]*shape[1]*shape[2]),
	}, nil
}

// Shape returns the mask's voxel grid shape.
func (m *Mask) Shape() [3]int {
	return m.shape
}

// Data returns the underlying mask bytes. Callers must treat the slice as
// read-only and must not retain it across mutating calls.
func (m *Mask) Data() []uint8 {
	return m.data
}

// LastChange returns the most recent recorded change, or nil when none has
// been recorded (or the record was erased by a no-op Clear).
func (m *Mask) LastChange() *Change {
	return m.last
}

// SetChange overwrites the last-change record directly. It is meant for
// callers that replace mask contents in bulk and want to report the
// replacement without going through a block operation. old may be nil.
func (m *Mask) SetChange(b Block, offset [3]int, old *Block) error {
	if !b.valid() {
		return fmt.Errorf("%w: block data %d does not match shape %v",
			ErrShape, len(b.Data), b.Shape)
	}
	if old != nil && old.Shape != b.Shape {
		return fmt.Errorf("%w: old shape %v does not match new shape %v",
			ErrShape, old.Shape, b.Shape)
	}
	m.last = &Change{Old: old, New: b, Offset: offset}
	return nil
}

// Size returns the number of selected voxels.
func (m *Mask) Size() int {
	n := 0
	for _, v := range m.data {
		if v != 0 {
			n++
		}
	}
	return n
}

// Bounded returns the tightest block containing every selected voxel and
// its offset within the mask. When nothing is selected it returns a
// zero-shaped block at offset (0,0,0). This scans the full mask; callers
// should not invoke it in a tight loop.
func (m *Mask) Bounded() (Block, [3]int) {
	lo := m.shape
	hi := [3]int{-1, -1, -1}
	idx := 0
	for z := 0; z < m.shape[2]; z++ {
		for y := 0; y < m.shape[1]; y++ {
			for x := 0; x < m.shape[0]; x++ {
				if m.data[idx] != 0 {
					lo = models.MinPoint(lo, [3]int{x, y, z})
					hi = models.MaxPoint(hi, [3]int{x, y, z})
				}
				idx++
			}
		}
	}
	if hi[0] < 0 {
		return Block{}, [3]int{}
	}
	b := models.Bounds{Lo: lo, Hi: [3]int{hi[0] + 1, hi[1] + 1, hi[2] + 1}}
	return m.snapshot(b), lo
}

// Indices returns the coordinates of every selected voxel, optionally
// limited to a restriction region. A nil restrict means the whole mask.
func (m *Mask) Indices(restrict *models.Bounds) ([][3]int, error) {
	region, err := m.restrictRegion(restrict)
	if err != nil {
		return nil, err
	}
	var out [][3]int
	for z := region.Lo[2]; z < region.Hi[2]; z++ {
		for y := region.Lo[1]; y < region.Hi[1]; y++ {
			for x := region.Lo[0]; x < region.Hi[0]; x++ {
				if m.data[models.Index([3]int{x, y, z}, m.shape)] != 0 {
					out = append(out, [3]int{x, y, z})
				}
			}
		}
	}
	return out, nil
}

// SetSelection replaces the mask region at offset with the block, clipped to
// the mask extent. A block whose intersection with the mask is empty is a
// no-op that leaves the last change untouched.
func (m *Mask) SetSelection(b Block, offset [3]int, combine bool) error {
	return m.write(b, offset, opReplace, combine)
}

// AddToSelection selects every voxel that is nonzero in the block (OR).
func (m *Mask) AddToSelection(b Block, offset [3]int, combine bool) error {
	return m.write(b, offset, opOr, combine)
}

// RemoveFromSelection deselects every voxel that is nonzero in the block
// (AND-NOT).
func (m *Mask) RemoveFromSelection(b Block, offset [3]int, combine bool) error {
	return m.write(b, offset, opAndNot, combine)
}

// SelectBlock selects an axis-aligned block of the given size centered on a
// voxel. size has one entry (applied to every axis in axes) or three; axes
// lists the axes the pen extends along, with the others kept at a single
// voxel; bias picks the lower or upper of the two candidate positions when
// a size is even. The block is clipped to the mask, and a block that falls
// entirely outside is a no-op.
func (m *Mask) SelectBlock(center [3]int, size []int, axes []int, bias Bias, combine bool) error {
	return m.paintBlock(center, size, axes, bias, combine, opOr)
}

// DeselectBlock deselects the same block SelectBlock would select.
func (m *Mask) DeselectBlock(center [3]int, size []int, axes []int, bias Bias, combine bool) error {
	return m.paintBlock(center, size, axes, bias, combine, opAndNot)
}

func (m *Mask) paintBlock(center [3]int, size []int, axes []int, bias Bias, combine bool, op writeOp) error {
	pen, err := penSize(size, axes)
	if err != nil {
		return err
	}
	bounds := penBounds(center, pen, bias).Clip(m.shape)
	if bounds.Empty() {
		return nil
	}
	return m.write(FilledBlock(bounds.Shape()), bounds.Lo, op, combine)
}

// Clear deselects the whole mask, or the region described by restrict. The
// one deliberate exception to change recording: clearing an already-clear
// mask with no restriction erases the last-change record instead of
// recording a zero-to-zero change.
func (m *Mask) Clear(restrict *models.Bounds, combine bool) error {
	region, err := m.restrictRegion(restrict)
	if err != nil {
		return err
	}
	if restrict == nil && m.Size() == 0 {
		m.last = nil
		return nil
	}
	return m.writeRegion(NewBlock(region.Shape()), region, opReplace, combine, KindCleared)
}

type writeOp int

const (
	opReplace writeOp = iota
	opOr
	opAndNot
)

// write clips the block against the mask, snapshots the overlapping region,
// records the change, applies the operation, and notifies subscribers.
func (m *Mask) write(b Block, offset [3]int, op writeOp, combine bool) error {
	if !b.valid() {
		return fmt.Errorf("%w: block data %d does not match shape %v",
			ErrShape, len(b.Data), b.Shape)
	}
	hi := offset
	for i := 0; i < 3; i++ {
		hi[i] += b.Shape[i]
	}
	target := models.Bounds{Lo: offset, Hi: hi}.Clip(m.shape)
	if target.Empty() {
		return nil
	}
	// Clip the source block to the overlapping region.
	src := b
	if target != (models.Bounds{Lo: offset, Hi: hi}) {
		src = NewBlock(target.Shape())
		for z := target.Lo[2]; z < target.Hi[2]; z++ {
			for y := target.Lo[1]; y < target.Hi[1]; y++ {
				from := models.Index([3]int{target.Lo[0] - offset[0], y - offset[1], z - offset[2]}, b.Shape)
				to := models.Index([3]int{0, y - target.Lo[1], z - target.Lo[2]}, src.Shape)
				copy(src.Data[to:to+src.Shape[0]], b.Data[from:from+src.Shape[0]])
			}
		}
	}
	return m.writeRegion(src, target, op, combine, KindSelection)
}

// writeRegion applies a block that exactly covers a clipped in-bounds region.
func (m *Mask) writeRegion(src Block, target models.Bounds, op writeOp, combine bool, kind EventKind) error {
	old := m.snapshot(target)
	next := old.Clone()
	for i, v := range src.Data {
		switch op {
		case opReplace:
			if v != 0 {
				next.Data[i] = 1
			} else {
				next.Data[i] = 0
			}
		case opOr:
			if v != 0 {
				next.Data[i] = 1
			}
		case opAndNot:
			if v != 0 {
				next.Data[i] = 0
			}
		}
	}
	// The combine base must reflect the pre-mutation mask, so record first.
	m.storeChange(old, next, target.Lo, combine)
	m.blit(next, target.Lo)
	m.notify(Event{Kind: kind})
	return nil
}

// snapshot copies an in-bounds region of the mask into a block.
func (m *Mask) snapshot(b models.Bounds) Block {
	out := NewBlock(b.Shape())
	for z := b.Lo[2]; z < b.Hi[2]; z++ {
		for y := b.Lo[1]; y < b.Hi[1]; y++ {
			src := models.Index([3]int{b.Lo[0], y, z}, m.shape)
			dst := models.Index([3]int{0, y - b.Lo[1], z - b.Lo[2]}, out.Shape)
			copy(out.Data[dst:dst+out.Shape[0]], m.data[src:src+out.Shape[0]])
		}
	}
	return out
}

// blit writes a block into the mask at an in-bounds offset.
func (m *Mask) blit(b Block, offset [3]int) {
	for z := 0; z < b.Shape[2]; z++ {
		for y := 0; y < b.Shape[1]; y++ {
			src := models.Index([3]int{0, y, z}, b.Shape)
			dst := models.Index([3]int{offset[0], offset[1] + y, offset[2] + z}, m.shape)
			copy(m.data[dst:dst+b.Shape[0]], b.Data[src:src+b.Shape[0]])
		}
	}
}

// restrictRegion resolves an optional restriction to an in-bounds region.
func (m *Mask) restrictRegion(restrict *models.Bounds) (models.Bounds, error) {
	if restrict == nil {
		return models.Full(m.shape), nil
	}
	if !restrict.Valid() {
		return models.Bounds{}, fmt.Errorf("%w: inverted restriction %v", ErrInvalidArgument, *restrict)
	}
	return restrict.Clip(m.shape), nil
}
