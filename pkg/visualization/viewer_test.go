package visualization

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// TestNewOverlay verifies that a new overlay is created with the correct parameters
func TestNewOverlay(t *testing.T) {
	// Create test data
	width, height, depth := 10, 10, 5
	volumeData := make([]float64, width*height*depth)
	maskData := make([]uint8, width*height*depth)

	// Fill with test pattern
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := z*width*height + y*width + x
				volumeData[idx] = float64(x+y+z) / float64(width+height+depth)
			}
		}
	}

	// Create overlay
	overlay := NewOverlay(volumeData, maskData, width, height, depth)

	// Verify parameters
	if overlay.width != width {
		t.Errorf("Expected width %d, got %d", width, overlay.width)
	}

	if overlay.height != height {
		t.Errorf("Expected height %d, got %d", height, overlay.height)
	}

	if overlay.depth != depth {
		t.Errorf("Expected depth %d, got %d", depth, overlay.depth)
	}

	if overlay.lo != 0 {
		t.Errorf("Expected minimum intensity 0, got %f", overlay.lo)
	}

	if len(overlay.volumeData) != len(volumeData) {
		t.Errorf("Expected volume data length %d, got %d", len(volumeData), len(overlay.volumeData))
	}
}

// TestExtractSlice verifies that slices are correctly extracted from the volume
func TestExtractSlice(t *testing.T) {
	// Create test data
	width, height, depth := 10, 10, 5
	volumeData := make([]float64, width*height*depth)
	maskData := make([]uint8, width*height*depth)

	// Fill with test pattern: each slice along Z has a unique value
	for z := 0; z < depth; z++ {
		value := float64(z) / float64(depth)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := z*width*height + y*width + x
				volumeData[idx] = value
			}
		}
	}

	// Select one voxel so the tint path is exercised
	maskIdx := 2*width*height + 3*width + 4
	maskData[maskIdx] = 1

	// Create overlay
	overlay := NewOverlay(volumeData, maskData, width, height, depth)

	// Test extracting Z slices
	for z := 0; z < depth; z++ {
		img, err := overlay.ExtractSlice("z", z)
		if err != nil {
			t.Fatalf("Failed to extract Z slice at position %d: %v", z, err)
		}

		// Verify dimensions
		bounds := img.Bounds()
		if bounds.Dx() != width || bounds.Dy() != height {
			t.Errorf("Expected Z slice dimensions %dx%d, got %dx%d",
				width, height, bounds.Dx(), bounds.Dy())
		}

		rgbaImg, ok := img.(*image.RGBA)
		if !ok {
			t.Fatalf("Expected *image.RGBA, got %T", img)
		}

		// Unselected pixels are gray: equal channels
		px := rgbaImg.RGBAAt(0, 0)
		if px.R != px.G || px.G != px.B {
			t.Errorf("Expected gray pixel at (0,0) of slice %d, got %v", z, px)
		}
	}

	// The selected voxel must be tinted red on its Z slice
	imgSel, err := overlay.ExtractSlice("z", 2)
	if err != nil {
		t.Fatalf("Failed to extract slice with selection: %v", err)
	}
	selPx := imgSel.(*image.RGBA).RGBAAt(4, 3)
	if selPx.R <= selPx.G {
		t.Errorf("Expected red tint at selected voxel, got %v", selPx)
	}

	// Test extracting X slice
	xPos := width / 2
	imgX, err := overlay.ExtractSlice("x", xPos)
	if err != nil {
		t.Fatalf("Failed to extract X slice: %v", err)
	}

	// Verify dimensions
	boundsX := imgX.Bounds()
	if boundsX.Dx() != depth || boundsX.Dy() != height {
		t.Errorf("Expected X slice dimensions %dx%d, got %dx%d",
			depth, height, boundsX.Dx(), boundsX.Dy())
	}

	// Test extracting Y slice
	yPos := height / 2
	imgY, err := overlay.ExtractSlice("y", yPos)
	if err != nil {
		t.Fatalf("Failed to extract Y slice: %v", err)
	}

	// Verify dimensions
	boundsY := imgY.Bounds()
	if boundsY.Dx() != width || boundsY.Dy() != depth {
		t.Errorf("Expected Y slice dimensions %dx%d, got %dx%d",
			width, depth, boundsY.Dx(), boundsY.Dy())
	}

	// Test invalid axis
	_, err = overlay.ExtractSlice("invalid", 0)
	if err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}

	// Test out of bounds position
	_, err = overlay.ExtractSlice("z", depth+1)
	if err == nil {
		t.Error("Expected error for out of bounds position, got nil")
	}
}

// TestFlatVolumeRendersBlack verifies that a constant volume normalizes to black
func TestFlatVolumeRendersBlack(t *testing.T) {
	width, height, depth := 4, 4, 2
	volumeData := make([]float64, width*height*depth)
	for i := range volumeData {
		volumeData[i] = 7.5
	}
	maskData := make([]uint8, width*height*depth)

	overlay := NewOverlay(volumeData, maskData, width, height, depth)

	img, err := overlay.ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}

	px := img.(*image.RGBA).RGBAAt(1, 1)
	if px != (color.RGBA{A: 255}) {
		t.Errorf("Expected black pixel for flat volume, got %v", px)
	}
}

// TestSaveSlice verifies that slices can be saved to disk
func TestSaveSlice(t *testing.T) {
	// Skip this test in short mode
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	// Create temporary directory
	tempDir, err := os.MkdirTemp("", "overlay-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Create test data
	width, height, depth := 10, 10, 5
	volumeData := make([]float64, width*height*depth)
	for i := range volumeData {
		volumeData[i] = float64(i % 7)
	}
	maskData := make([]uint8, width*height*depth)

	// Create overlay
	overlay := NewOverlay(volumeData, maskData, width, height, depth)

	// Extract a slice
	img, err := overlay.ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}

	// Save the slice
	filename := filepath.Join(tempDir, "test_slice.jpg")
	err = overlay.SaveSlice(img, filename)
	if err != nil {
		t.Fatalf("Failed to save slice: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Errorf("Saved file does not exist: %s", filename)
	}
}

// TestSaveSliceSequence verifies that a sequence of slices can be saved
func TestSaveSliceSequence(t *testing.T) {
	// Skip this test in short mode
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	// Create temporary directory
	tempDir, err := os.MkdirTemp("", "overlay-sequence-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Create test data
	width, height, depth := 5, 5, 3
	volumeData := make([]float64, width*height*depth)
	for i := range volumeData {
		volumeData[i] = float64(i % 5)
	}
	maskData := make([]uint8, width*height*depth)

	// Create overlay
	overlay := NewOverlay(volumeData, maskData, width, height, depth)

	// Save slice sequence
	outputDir := filepath.Join(tempDir, "slices")
	err = overlay.SaveSliceSequence("z", outputDir)
	if err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}

	// Verify files exist
	for z := 0; z < depth; z++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_z_%03d.jpg", z))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected slice file does not exist: %s", filename)
		}
	}

	// Test invalid axis
	err = overlay.SaveSliceSequence("invalid", outputDir)
	if err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}
