package selection

import (
	"testing"

	"voxeledit/internal/models"
)

// TestCombineChanges verifies the pure merge of two change records
func TestCombineChanges(t *testing.T) {
	// Base: a 4x1x1 strip that already reflects prev (voxel 0 selected)
	base := NewBlock([3]int{4, 1, 1})
	base.Data[0] = 1

	prevOld := NewBlock([3]int{2, 1, 1})
	prevNew := NewBlock([3]int{2, 1, 1})
	prevNew.Data[0] = 1
	prev := &Change{Old: &prevOld, New: prevNew, Offset: [3]int{0, 0, 0}}

	curOld := NewBlock([3]int{2, 1, 1})
	curNew := FilledBlock([3]int{2, 1, 1})
	cur := &Change{Old: &curOld, New: curNew, Offset: [3]int{2, 0, 0}}

	got := combineChanges(base, [3]int{0, 0, 0}, prev, cur)

	if got.Offset != [3]int{0, 0, 0} {
		t.Errorf("Expected combined offset [0 0 0], got %v", got.Offset)
	}
	if got.New.Shape != [3]int{4, 1, 1} {
		t.Errorf("Expected combined shape [4 1 1], got %v", got.New.Shape)
	}

	// Rolling prev back over the base yields the pre-everything state
	wantOld := []uint8{0, 0, 0, 0}
	for i, w := range wantOld {
		if got.Old.Data[i] != w {
			t.Errorf("Expected combined old %v, got %v", wantOld, got.Old.Data)
			break
		}
	}

	// Applying prev then cur yields the post-everything state
	wantNew := []uint8{1, 0, 1, 1}
	for i, w := range wantNew {
		if got.New.Data[i] != w {
			t.Errorf("Expected combined new %v, got %v", wantNew, got.New.Data)
			break
		}
	}
}

// TestCombineDrag verifies a drag of combined edits reads back as one change
func TestCombineDrag(t *testing.T) {
	m := newTestMask(t, [3]int{10, 10, 10})

	// A two-stamp drag: the first write starts the record, the second
	// merges into it.
	if err := m.SelectBlock([3]int{2, 2, 2}, []int{3}, nil, BiasLow, false); err != nil {
		t.Fatalf("Failed to select first stamp: %v", err)
	}
	if err := m.SelectBlock([3]int{3, 2, 2}, []int{3}, nil, BiasLow, true); err != nil {
		t.Fatalf("Failed to select second stamp: %v", err)
	}

	ch := m.LastChange()
	if ch == nil || ch.Old == nil {
		t.Fatal("Expected a combined change with prior state")
	}
	if ch.Offset != [3]int{1, 1, 1} {
		t.Errorf("Expected combined offset [1 1 1], got %v", ch.Offset)
	}
	if ch.New.Shape != [3]int{4, 3, 3} {
		t.Errorf("Expected combined shape [4 3 3], got %v", ch.New.Shape)
	}

	// The combined old state is the all-clear mask before the drag
	for i, v := range ch.Old.Data {
		if v != 0 {
			t.Fatalf("Expected all-clear combined old state, got %d at index %d", v, i)
		}
	}
	// The combined new state is the union of both stamps, here the full box
	for i, v := range ch.New.Data {
		if v != 1 {
			t.Fatalf("Expected fully selected combined new state, got %d at index %d", v, i)
		}
	}

	// Writing the old block back really is the drag's undo
	if err := m.SetSelection(*ch.Old, ch.Offset, false); err != nil {
		t.Fatalf("Failed to restore old state: %v", err)
	}
	if m.Size() != 0 {
		t.Errorf("Expected empty mask after restoring old state, got %d", m.Size())
	}
}

// TestCombineWithoutPrevious verifies combine falls back to a plain record
func TestCombineWithoutPrevious(t *testing.T) {
	m := newTestMask(t, [3]int{6, 6, 6})

	// No previous change: combine has nothing to merge with
	if err := m.SelectBlock([3]int{3, 3, 3}, []int{3}, nil, BiasLow, true); err != nil {
		t.Fatalf("Failed to select block: %v", err)
	}
	ch := m.LastChange()
	if ch == nil || ch.Offset != [3]int{2, 2, 2} {
		t.Errorf("Expected a plain record at [2 2 2], got %+v", ch)
	}

	// A previous record without prior state cannot be merged either
	if err := m.SetChange(FilledBlock([3]int{2, 2, 2}), [3]int{0, 0, 0}, nil); err != nil {
		t.Fatalf("Failed to set change: %v", err)
	}
	if err := m.SelectBlock([3]int{3, 3, 3}, []int{1}, nil, BiasLow, true); err != nil {
		t.Fatalf("Failed to select block: %v", err)
	}
	ch = m.LastChange()
	if ch.New.Shape != [3]int{1, 1, 1} {
		t.Errorf("Expected a fresh single-voxel record, got shape %v", ch.New.Shape)
	}
}

// TestCombineDisjointRegions verifies combining spans disjoint footprints
func TestCombineDisjointRegions(t *testing.T) {
	m := newTestMask(t, [3]int{10, 10, 10})

	if err := m.SelectBlock([3]int{1, 1, 1}, []int{1}, nil, BiasLow, false); err != nil {
		t.Fatalf("Failed to select first voxel: %v", err)
	}
	if err := m.SelectBlock([3]int{8, 8, 8}, []int{1}, nil, BiasLow, true); err != nil {
		t.Fatalf("Failed to select second voxel: %v", err)
	}

	ch := m.LastChange()
	want := models.Bounds{Lo: [3]int{1, 1, 1}, Hi: [3]int{9, 9, 9}}
	if ch.Offset != want.Lo || ch.New.Shape != want.Shape() {
		t.Errorf("Expected combined record spanning %v, got offset %v shape %v",
			want, ch.Offset, ch.New.Shape)
	}

	// Exactly the two stamped voxels are set in the combined new state
	count := 0
	for _, v := range ch.New.Data {
		if v != 0 {
			count++
		}
	}
	if count != 2 {
		t.Errorf("Expected 2 selected voxels in the combined record, got %d", count)
	}
}
