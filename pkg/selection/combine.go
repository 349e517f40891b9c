package selection

import (
	"voxeledit/internal/models"
)

// storeChange records a mutation's before/after snapshots as the last
// change. With combine set and a combinable previous record present, the
// two are merged into a single record covering the union of their
// footprints, so a drag of many small edits reads back as one change.
//
// Callers must invoke this before mutating the mask: the merge below needs
// the pre-mutation contents of the union region.
func (m *Mask) storeChange(old, next Block, offset [3]int, combine bool) {
	cur := &Change{Old: &old, New: next, Offset: offset}
	if !combine || m.last == nil || m.last.Old == nil {
		m.last = cur
		return
	}
	union := m.last.bounds().Union(cur.bounds())
	m.last = combineChanges(m.snapshot(union), union.Lo, m.last, cur)
}

// combineChanges merges two change records into one spanning their combined
// bounding box. base must be the mask contents over that box as they were
// before cur was applied (prev already applied): patching prev's old values
// over base rolls the box back to the state before either change, while
// patching prev's new then cur's new values produces the state after both.
//
// The function is pure; it never touches the mask.
func combineChanges(base Block, baseOffset [3]int, prev, cur *Change) *Change {
	combinedOld := base.Clone()
	paste(combinedOld, *prev.Old, sub3(prev.Offset, baseOffset))

	combinedNew := base.Clone()
	paste(combinedNew, prev.New, sub3(prev.Offset, baseOffset))
	paste(combinedNew, cur.New, sub3(cur.Offset, baseOffset))

	return &Change{Old: &combinedOld, New: combinedNew, Offset: baseOffset}
}

// paste copies src into dst at the given relative offset. The source region
// must lie entirely within dst.
func paste(dst, src Block, at [3]int) {
	for z := 0; z < src.Shape[2]; z++ {
		for y := 0; y < src.Shape[1]; y++ {
			from := models.Index([3]int{0, y, z}, src.Shape)
			to := models.Index([3]int{at[0], at[1] + y, at[2] + z}, dst.Shape)
			copy(dst.Data[to:to+src.Shape[0]], src.Data[from:from+src.Shape[0]])
		}
	}
}

func sub3(a, b [3]int) [3]int {
	for i := 0; i < 3; i++ {
		a[i] -= b[i]
	}
	return a
}
