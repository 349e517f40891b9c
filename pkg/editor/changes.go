package editor

import (
	"voxeledit/pkg/selection"
)

// Change is a recorded, invertible edit. Records are immutable once
// constructed; undo and redo replay them against the editor's image and
// mask.
type Change interface {
	apply(e *Editor) error
	revert(e *Editor) error
}

// ValueChange records an image-value edit over a sub-block: the values
// before and after (equal shapes), the block offset, and the
// extra-dimension volume index the edit addressed.
type ValueChange struct {
	Volume []int
	Offset [3]int
	Shape  [3]int
	Old    []float64
	New    []float64
}

func (c *ValueChange) apply(e *Editor) error {
	return e.img.SetValuesAt(c.Offset, c.Shape, c.New, c.Volume)
}

func (c *ValueChange) revert(e *Editor) error {
	return e.img.SetValuesAt(c.Offset, c.Shape, c.Old, c.Volume)
}

// SelectionChange records a mask edit over a sub-block, with before and
// after blocks of equal shape.
type SelectionChange struct {
	Offset [3]int
	Old    selection.Block
	New    selection.Block
}

func (c *SelectionChange) apply(e *Editor) error {
	return e.replaySelection(c.New, c.Offset)
}

func (c *SelectionChange) revert(e *Editor) error {
	return e.replaySelection(c.Old, c.Offset)
}

// changeLog is the linear undo history: an ordered list of change groups
// with a cursor at the most recently applied entry (-1 when nothing is
// applied). Entries after the cursor are redoable and are discarded
// whenever a new entry is recorded.
type changeLog struct {
	entries [][]Change
	done    int
}

func newChangeLog() *changeLog {
	return &changeLog{done: -1}
}

// truncate discards the redo tail.
func (l *changeLog) truncate() {
	l.entries = l.entries[:l.done+1]
}

// add truncates the redo tail and appends a new single-change group,
// leaving the cursor on it.
func (l *changeLog) add(c Change) {
	l.truncate()
	l.entries = append(l.entries, []Change{c})
	l.done = len(l.entries) - 1
}

// appendToCurrent grows the group at the cursor.
func (l *changeLog) appendToCurrent(c Change) {
	l.entries[l.done] = append(l.entries[l.done], c)
}

func (l *changeLog) canUndo() bool {
	return l.done >= 0
}

func (l *changeLog) canRedo() bool {
	return l.done < len(l.entries)-1
}
