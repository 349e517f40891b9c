// Package visualization renders quality-control images of an editing
// session: grayscale slices of the volume with the current selection mask
// tinted on top. It is the file-based stand-in for an interactive renderer,
// driven by the same mask contents a GUI overlay would read.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
)

// Overlay renders slices of a 3D volume with its selection mask.
type Overlay struct {
	// volumeData holds the image intensities for the current volume
	volumeData []float64

	// maskData holds the selection mask bytes, nonzero = selected
	maskData []uint8

	// dimensions of the volume
	width  int
	height int
	depth  int

	// intensity range used to normalize voxel values for display
	lo, hi float64
}

// NewOverlay creates an overlay renderer for a volume and its mask. The
// data slices are read at render time and must outlive the overlay.
func NewOverlay(volumeData []float64, maskData []uint8, width, height, depth int) *Overlay {
	lo, hi := 0.0, 0.0
	if len(volumeData) > 0 {
		lo, hi = volumeData[0], volumeData[0]
		for _, v := range volumeData {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return &Overlay{
		volumeData: volumeData,
		maskData:   maskData,
		width:      width,
		height:     height,
		depth:      depth,
		lo:         lo,
		hi:         hi,
	}
}

func (o *Overlay) gray(idx int) uint8 {
	if idx < 0 || idx >= len(o.volumeData) || o.hi <= o.lo {
		return 0
	}
	v := (o.volumeData[idx] - o.lo) / (o.hi - o.lo)
	return uint8(v * 255)
}

func (o *Overlay) pixel(idx int) color.RGBA {
	g := o.gray(idx)
	if idx >= 0 && idx < len(o.maskData) && o.maskData[idx] != 0 {
		// Selected voxels are tinted red over the grayscale base.
		r := int(g) + 128
		if r > 255 {
			r = 255
		}
		return color.RGBA{R: uint8(r), G: g / 2, B: g / 2, A: 255}
	}
	return color.RGBA{R: g, G: g, B: g, A: 255}
}

// ExtractSlice renders a 2D slice of the overlaid volume along the
// specified axis.
func (o *Overlay) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.RGBA

	switch axis {
	case "x", "X":
		// Slice along the YZ plane
		if position >= o.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, o.width)
		}
		img = image.NewRGBA(image.Rect(0, 0, o.depth, o.height))
		for y := 0; y < o.height; y++ {
			for z := 0; z < o.depth; z++ {
				idx := z*o.width*o.height + y*o.width + position
				img.SetRGBA(z, y, o.pixel(idx))
			}
		}

	case "y", "Y":
		// Slice along the XZ plane
		if position >= o.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, o.height)
		}
		img = image.NewRGBA(image.Rect(0, 0, o.width, o.depth))
		for z := 0; z < o.depth; z++ {
			for x := 0; x < o.width; x++ {
				idx := z*o.width*o.height + position*o.width + x
				img.SetRGBA(x, z, o.pixel(idx))
			}
		}

	case "z", "Z":
		// Slice along the XY plane
		if position >= o.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, o.depth)
		}
		img = image.NewRGBA(image.Rect(0, 0, o.width, o.height))
		for y := 0; y < o.height; y++ {
			for x := 0; x < o.width; x++ {
				idx := position*o.width*o.height + y*o.width + x
				img.SetRGBA(x, y, o.pixel(idx))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves a rendered slice as a JPEG image
func (o *Overlay) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence renders and saves every slice along the specified axis
func (o *Overlay) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = o.width
	case "y", "Y":
		maxPos = o.height
	case "z", "Z":
		maxPos = o.depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := o.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := o.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
