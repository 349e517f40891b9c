// Package editor orchestrates a voxel mask, its target image volume and a
// change log into an editing session: fill, invert, copy and paste over the
// current selection, with grouped, linear undo/redo of every recorded
// mutation.
package editor

import (
	"errors"
	"fmt"

	"voxeledit/internal/models"
	"voxeledit/pkg/selection"
)

// ErrInvalidArgument indicates a malformed editing request: fill values of
// the wrong length, or a clipboard from an incompatible image.
var ErrInvalidArgument = errors.New("invalid editor argument")

// Image is the volume store an editor mutates. *volume.Volume satisfies it;
// the editor holds a non-owning reference and addresses dimensions beyond
// the third through explicit volume indices when replaying changes.
type Image interface {
	selection.Image
	CurrentVolume() []int
	ValuesAt(lo, hi [3]int, vol []int) ([]float64, error)
	SetValuesAt(lo, shape [3]int, vals []float64, vol []int) error
}

// Editor owns one selection mask and one change log for an image. Every
// mutation is recorded for undo unless recording is suspended. Editors are
// not safe for concurrent use; the engine assumes a single logical thread
// of control.
type Editor struct {
	img  Image
	mask *selection.Mask
	log  *changeLog

	// tok is the editor's own mask subscription, silenced during replay so
	// undo and redo are not re-recorded as new edits.
	tok selection.Token

	recordChanges   bool
	recordSelection bool
	suspended       int
	inGroup         bool
	groupOpen       bool
}

// New creates an editor with an all-clear selection sized to the image.
func New(img Image) (*Editor, error) {
	mask, err := selection.New(img)
	if err != nil {
		return nil, err
	}
	e := &Editor{
		img:           img,
		mask:          mask,
		log:           newChangeLog(),
		recordChanges: true,
	}
	e.tok = mask.Subscribe(e.onMaskEvent)
	return e, nil
}

// Selection returns the owned mask. Callers may mutate the selection
// through it but must not retain it past the editor's lifetime.
func (e *Editor) Selection() *selection.Mask {
	return e.mask
}

// SetRecordChanges toggles whether mutations are recorded for undo.
func (e *Editor) SetRecordChanges(record bool) {
	e.recordChanges = record
}

// SetRecordSelectionChanges toggles per-operation recording of selection
// edits. Off by default: selection state is normally only recorded when the
// selection is cleared.
func (e *Editor) SetRecordSelectionChanges(record bool) {
	e.recordSelection = record
}

// SuspendRecording disables change recording until the returned restore
// function runs. Guards nest, and each restore releases its own
// acquisition exactly once; callers should defer it so recording resumes
// on every exit path.
func (e *Editor) SuspendRecording() (restore func()) {
	e.suspended++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		if e.suspended > 0 {
			e.suspended--
		}
	}
}

func (e *Editor) recording() bool {
	return e.recordChanges && e.suspended == 0
}

// onMaskEvent logs selection edits when per-operation recording is active.
func (e *Editor) onMaskEvent(selection.Event) {
	if !e.recording() || !e.recordSelection {
		return
	}
	ch := e.mask.LastChange()
	if ch == nil || ch.Old == nil {
		return
	}
	e.record(&SelectionChange{Offset: ch.Offset, Old: *ch.Old, New: ch.New})
}

func (e *Editor) record(c Change) {
	if !e.recording() {
		return
	}
	if e.inGroup && e.groupOpen {
		e.log.appendToCurrent(c)
		return
	}
	e.log.add(c)
	if e.inGroup {
		e.groupOpen = true
	}
}

// StartChangeGroup makes subsequent recorded changes accumulate into one
// atomic undo entry. The redo tail is discarded immediately, as with any
// new change.
func (e *Editor) StartChangeGroup() {
	e.log.truncate()
	e.inGroup = true
	e.groupOpen = false
}

// EndChangeGroup closes the current change group.
func (e *Editor) EndChangeGroup() {
	e.inGroup = false
	e.groupOpen = false
}

// CanUndo reports whether an entry is available to undo.
func (e *Editor) CanUndo() bool {
	return e.log.canUndo()
}

// CanRedo reports whether an undone entry is available to redo.
func (e *Editor) CanRedo() bool {
	return e.log.canRedo()
}

// Undo reverts the most recent change group, newest change first, and
// returns the reverted changes. With nothing to undo it returns an empty
// list.
func (e *Editor) Undo() ([]Change, error) {
	if !e.log.canUndo() {
		return nil, nil
	}
	// Moving the cursor detaches any open change group from its entry; the
	// next recorded change starts a fresh one.
	e.groupOpen = false
	group := e.log.entries[e.log.done]
	reverted := make([]Change, 0, len(group))
	for i := len(group) - 1; i >= 0; i-- {
		if err := group[i].revert(e); err != nil {
			return reverted, fmt.Errorf("undo failed: %w", err)
		}
		reverted = append(reverted, group[i])
	}
	e.log.done--
	return reverted, nil
}

// Redo re-applies the most recently undone change group in forward order
// and returns the re-applied changes. With nothing to redo it returns an
// empty list.
func (e *Editor) Redo() ([]Change, error) {
	if !e.log.canRedo() {
		return nil, nil
	}
	e.groupOpen = false
	group := e.log.entries[e.log.done+1]
	applied := make([]Change, 0, len(group))
	for _, c := range group {
		if err := c.apply(e); err != nil {
			return applied, fmt.Errorf("redo failed: %w", err)
		}
		applied = append(applied, c)
	}
	e.log.done++
	return applied, nil
}

// replaySelection writes a recorded block back into the mask with the
// editor's own listener silenced, so the replay is not mistaken for a new
// edit. Other subscribers (renderers) are still notified.
func (e *Editor) replaySelection(b selection.Block, offset [3]int) error {
	restore := e.mask.Silence(e.tok)
	defer restore()
	return e.mask.SetSelection(b, offset, false)
}

// ClearSelection clears the mask (or a region of it) and records the
// resulting selection change, unless per-operation selection recording
// already captured it, or the clear was a no-op on an already-clear mask.
func (e *Editor) ClearSelection(restrict *models.Bounds, combine bool) error {
	if err := e.mask.Clear(restrict, combine); err != nil {
		return err
	}
	if e.recording() && !e.recordSelection {
		if ch := e.mask.LastChange(); ch != nil && ch.Old != nil {
			e.record(&SelectionChange{Offset: ch.Offset, Old: *ch.Old, New: ch.New})
		}
	}
	return nil
}

// InvertSelection flips the entire mask as a single recorded change.
func (e *Editor) InvertSelection() error {
	shape := e.mask.Shape()
	old := selection.Block{
		Data:  append([]uint8(nil), e.mask.Data()...),
		Shape: shape,
	}
	inv := old.Clone()
	for i, v := range inv.Data {
		if v != 0 {
			inv.Data[i] = 0
		} else {
			inv.Data[i] = 1
		}
	}
	c := &SelectionChange{Offset: [3]int{}, Old: old, New: inv}
	if err := c.apply(e); err != nil {
		return err
	}
	e.record(c)
	return nil
}

// FillSelection sets every selected voxel of the image to the given values:
// one value broadcast over the selection, or exactly one value per voxel of
// the selection's bounding block (x-fastest order). Unselected voxels inside
// the bounding block keep their original values. The edit is recorded
// against the image's current volume index. An empty selection is a no-op.
func (e *Editor) FillSelection(vals []float64) error {
	block, offset := e.mask.Bounded()
	n := block.Volume()
	if n == 0 {
		return nil
	}
	if len(vals) != 1 && len(vals) != n {
		return fmt.Errorf("%w: %d fill values for a selection block of %d voxels",
			ErrInvalidArgument, len(vals), n)
	}
	hi := offset
	for i := 0; i < 3; i++ {
		hi[i] += block.Shape[i]
	}
	old, err := e.img.Values(offset, hi)
	if err != nil {
		return err
	}
	next := append([]float64(nil), old...)
	for i := 0; i < n; i++ {
		if block.Data[i] == 0 {
			continue
		}
		if len(vals) == 1 {
			next[i] = vals[0]
		} else {
			next[i] = vals[i]
		}
	}
	c := &ValueChange{
		Volume: e.img.CurrentVolume(),
		Offset: offset,
		Shape:  block.Shape,
		Old:    old,
		New:    next,
	}
	if err := c.apply(e); err != nil {
		return err
	}
	e.record(c)
	return nil
}

// Clipboard is a copied region: image values over the full grid, zero
// outside the selection, with the selection mask alongside.
type Clipboard struct {
	Data  []float64
	Mask  []bool
	Shape [3]int
}

// CopySelection copies the image values under the current selection.
func (e *Editor) CopySelection() (*Clipboard, error) {
	shape := e.mask.Shape()
	vals, err := e.img.Values([3]int{}, shape)
	if err != nil {
		return nil, err
	}
	cb := &Clipboard{
		Data:  make([]float64, len(vals)),
		Mask:  make([]bool, len(vals)),
		Shape: shape,
	}
	for i, v := range e.mask.Data() {
		if v != 0 {
			cb.Data[i] = vals[i]
			cb.Mask[i] = true
		}
	}
	return cb, nil
}

// PasteSelection writes a clipboard from a same-shaped image into this one,
// at the positions where the clipboard mask is set. The write is recorded
// as a ValueChange, so a paste is undoable.
func (e *Editor) PasteSelection(cb *Clipboard) error {
	shape := e.mask.Shape()
	if cb == nil || cb.Shape != shape {
		return fmt.Errorf("%w: clipboard shape does not match image shape %v",
			ErrInvalidArgument, shape)
	}

	// Bounding box of the pasted voxels keeps the change record small.
	lo := shape
	hi := [3]int{-1, -1, -1}
	i := 0
	for z := 0; z < shape[2]; z++ {
		for y := 0; y < shape[1]; y++ {
			for x := 0; x < shape[0]; x++ {
				if cb.Mask[i] {
					lo = models.MinPoint(lo, [3]int{x, y, z})
					hi = models.MaxPoint(hi, [3]int{x, y, z})
				}
				i++
			}
		}
	}
	if hi[0] < 0 {
		return nil
	}
	for i := 0; i < 3; i++ {
		hi[i]++
	}

	old, err := e.img.Values(lo, hi)
	if err != nil {
		return err
	}
	next := append([]float64(nil), old...)
	j := 0
	for z := lo[2]; z < hi[2]; z++ {
		for y := lo[1]; y < hi[1]; y++ {
			for x := lo[0]; x < hi[0]; x++ {
				src := models.Index([3]int{x, y, z}, shape)
				if cb.Mask[src] {
					next[j] = cb.Data[src]
				}
				j++
			}
		}
	}
	c := &ValueChange{
		Volume: e.img.CurrentVolume(),
		Offset: lo,
		Shape:  models.Bounds{Lo: lo, Hi: hi}.Shape(),
		Old:    old,
		New:    next,
	}
	if err := c.apply(e); err != nil {
		return err
	}
	e.record(c)
	return nil
}
