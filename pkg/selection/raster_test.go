package selection

import (
	"errors"
	"testing"

	"voxeledit/internal/models"
)

// TestSelectLineAxisAligned verifies a thin line covers every voxel between
// its endpoints
func TestSelectLineAxisAligned(t *testing.T) {
	m := newTestMask(t, [3]int{10, 10, 10})

	block, offset, err := m.SelectLine([3]int{1, 5, 5}, [3]int{8, 5, 5}, []float64{1}, nil, BiasLow, false)
	if err != nil {
		t.Fatalf("Failed to rasterize line: %v", err)
	}
	if offset != [3]int{1, 5, 5} {
		t.Errorf("Expected line offset [1 5 5], got %v", offset)
	}
	if block.Shape != [3]int{8, 1, 1} {
		t.Errorf("Expected line block shape [8 1 1], got %v", block.Shape)
	}
	if m.Size() != 8 {
		t.Errorf("Expected 8 selected voxels, got %d", m.Size())
	}
	for x := 1; x <= 8; x++ {
		if m.Data()[models.Index([3]int{x, 5, 5}, m.Shape())] != 1 {
			t.Errorf("Expected voxel (%d,5,5) on the line", x)
		}
	}
}

// TestSelectLineDiagonal verifies the stamp interpolation leaves no gaps
func TestSelectLineDiagonal(t *testing.T) {
	m := newTestMask(t, [3]int{10, 10, 10})

	if _, _, err := m.SelectLine([3]int{0, 0, 0}, [3]int{9, 9, 9}, []float64{1}, nil, BiasLow, false); err != nil {
		t.Fatalf("Failed to rasterize line: %v", err)
	}

	// Both endpoints and the exact diagonal voxels are covered
	for d := 0; d < 10; d++ {
		if m.Data()[models.Index([3]int{d, d, d}, m.Shape())] != 1 {
			t.Errorf("Expected diagonal voxel (%d,%d,%d) on the line", d, d, d)
		}
	}
}

// TestSelectLinePenSize verifies physical pen sizes convert through voxel
// dimensions
func TestSelectLinePenSize(t *testing.T) {
	img := newTestImage([3]int{20, 20, 20})
	img.dims = [3]float64{0.5, 1, 1}
	m, err := New(img)
	if err != nil {
		t.Fatalf("Failed to create mask: %v", err)
	}

	// A degenerate line (single stamp) with a pen of 2 physical units:
	// 4 voxels across at 0.5mm along x, 2 voxels along y and z
	block, offset, err := m.SelectLine([3]int{10, 10, 10}, [3]int{10, 10, 10}, []float64{2}, nil, BiasLow, false)
	if err != nil {
		t.Fatalf("Failed to rasterize point: %v", err)
	}
	if block.Shape != [3]int{4, 2, 2} {
		t.Errorf("Expected pen shape [4 2 2], got %v", block.Shape)
	}
	if offset != [3]int{8, 9, 9} {
		t.Errorf("Expected pen offset [8 9 9], got %v", offset)
	}
	if m.Size() != 16 {
		t.Errorf("Expected 16 selected voxels, got %d", m.Size())
	}
}

// TestSelectLineClipping verifies off-grid portions are clipped
func TestSelectLineClipping(t *testing.T) {
	m := newTestMask(t, [3]int{10, 10, 10})

	// A line running off the grid keeps only its in-grid portion
	if _, _, err := m.SelectLine([3]int{5, 5, 5}, [3]int{15, 5, 5}, []float64{1}, nil, BiasLow, false); err != nil {
		t.Fatalf("Failed to rasterize line: %v", err)
	}
	if m.Size() != 5 {
		t.Errorf("Expected 5 in-grid voxels, got %d", m.Size())
	}

	// A line entirely outside is a no-op
	before := m.LastChange()
	block, _, err := m.SelectLine([3]int{20, 20, 20}, [3]int{30, 20, 20}, []float64{1}, nil, BiasLow, false)
	if err != nil {
		t.Fatalf("Expected off-grid line to be a no-op, got %v", err)
	}
	if block.Volume() != 0 {
		t.Errorf("Expected empty block for off-grid line, got %v", block.Shape)
	}
	if m.LastChange() != before {
		t.Error("Expected the last change untouched by a no-op line")
	}
}

// TestDeselectLine verifies line removal
func TestDeselectLine(t *testing.T) {
	m := newTestMask(t, [3]int{10, 10, 10})

	if err := m.SetSelection(FilledBlock([3]int{10, 10, 10}), [3]int{0, 0, 0}, false); err != nil {
		t.Fatalf("Failed to select all: %v", err)
	}
	if _, _, err := m.DeselectLine([3]int{0, 5, 5}, [3]int{9, 5, 5}, []float64{1}, nil, BiasLow, false); err != nil {
		t.Fatalf("Failed to deselect line: %v", err)
	}
	if m.Size() != 990 {
		t.Errorf("Expected 990 voxels after carving the line, got %d", m.Size())
	}
	if m.Data()[models.Index([3]int{5, 5, 5}, m.Shape())] != 0 {
		t.Error("Expected line voxel deselected")
	}
}

// TestSelectLineValidation verifies malformed pen arguments are rejected
func TestSelectLineValidation(t *testing.T) {
	m := newTestMask(t, [3]int{10, 10, 10})

	if _, _, err := m.SelectLine([3]int{0, 0, 0}, [3]int{5, 5, 5}, []float64{1, 2}, nil, BiasLow, false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for 2-entry pen size, got %v", err)
	}
	if _, _, err := m.SelectLine([3]int{0, 0, 0}, [3]int{5, 5, 5}, []float64{0}, nil, BiasLow, false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for zero pen size, got %v", err)
	}
	if _, _, err := m.SelectLine([3]int{0, 0, 0}, [3]int{5, 5, 5}, []float64{1}, []int{3}, BiasLow, false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for out-of-range axis, got %v", err)
	}
	if m.Size() != 0 {
		t.Errorf("Expected mask untouched by failed lines, got %d", m.Size())
	}
}

// TestSelectLineAxesRestricted verifies the pen only extends along the
// listed axes
func TestSelectLineAxesRestricted(t *testing.T) {
	m := newTestMask(t, [3]int{20, 20, 20})

	// A 1x3 in-plane pen: a vertical bar dragged along x. The z axis is not
	// listed, so the pen stays one voxel thick there.
	if _, _, err := m.SelectLine([3]int{5, 10, 10}, [3]int{14, 10, 10}, []float64{1, 3, 9}, []int{0, 1}, BiasLow, false); err != nil {
		t.Fatalf("Failed to rasterize line: %v", err)
	}
	if m.Size() != 30 {
		t.Errorf("Expected 10x3 voxels, got %d", m.Size())
	}
	block, offset := m.Bounded()
	if offset != [3]int{5, 9, 10} || block.Shape != [3]int{10, 3, 1} {
		t.Errorf("Expected a 10x3x1 bar at [5 9 10], got %v at %v", block.Shape, offset)
	}
}
