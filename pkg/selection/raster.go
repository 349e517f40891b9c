package selection

import (
	"fmt"
	"math"

	"voxeledit/internal/models"
)

// Bias picks which of the two candidate centerings an even-sized pen uses:
// the extra voxel extends to the low side with BiasLow and the high side
// with BiasHigh. Odd sizes center exactly and ignore the bias.
type Bias int

const (
	BiasLow Bias = iota
	BiasHigh
)

// SelectLine rasterizes a thick line between two voxels and selects it.
// size is the pen thickness in physical units (one entry for every axis in
// axes, or three per-axis entries); axes restricts which axes the pen
// extends along. The rasterized block and its offset are returned. Portions
// of the line outside the mask are clipped; a line entirely outside is a
// no-op.
func (m *Mask) SelectLine(from, to [3]int, size []float64, axes []int, bias Bias, combine bool) (Block, [3]int, error) {
	return m.paintLine(from, to, size, axes, bias, combine, opOr)
}

// DeselectLine deselects the same voxels SelectLine would select.
func (m *Mask) DeselectLine(from, to [3]int, size []float64, axes []int, bias Bias, combine bool) (Block, [3]int, error) {
	return m.paintLine(from, to, size, axes, bias, combine, opAndNot)
}

func (m *Mask) paintLine(from, to [3]int, size []float64, axes []int, bias Bias, combine bool, op writeOp) (Block, [3]int, error) {
	pen, minBox, err := physicalPen(size, axes, m.img.VoxelSize())
	if err != nil {
		return Block{}, [3]int{}, err
	}

	// Physical line length decides how many pen stamps are interpolated.
	dims := m.img.VoxelSize()
	length := 0.0
	for i := 0; i < 3; i++ {
		d := float64(to[i]-from[i]) * dims[i]
		length += d * d
	}
	length = math.Sqrt(length)
	n := int(math.Ceil(length/minBox)) + 2

	// Coordinates interpolate monotonically, so the pen blocks at the two
	// endpoints bound every stamp along the line.
	bounds := penBounds(from, pen, bias).Union(penBounds(to, pen, bias)).Clip(m.shape)
	if bounds.Empty() {
		return Block{}, [3]int{}, nil
	}

	block := NewBlock(bounds.Shape())
	for k := 0; k < n; k++ {
		t := float64(k) / float64(n-1)
		var p [3]int
		for i := 0; i < 3; i++ {
			p[i] = from[i] + int(math.Round(float64(to[i]-from[i])*t))
		}
		stamp := penBounds(p, pen, bias).Intersect(bounds)
		for z := stamp.Lo[2]; z < stamp.Hi[2]; z++ {
			for y := stamp.Lo[1]; y < stamp.Hi[1]; y++ {
				i := models.Index(sub3([3]int{stamp.Lo[0], y, z}, bounds.Lo), block.Shape)
				for x := stamp.Lo[0]; x < stamp.Hi[0]; x++ {
					block.Data[i] = 1
					i++
				}
			}
		}
	}
	if err := m.write(block, bounds.Lo, op, combine); err != nil {
		return Block{}, [3]int{}, err
	}
	return block, bounds.Lo, nil
}

// penSize resolves a voxel-unit size list and axis restriction to a
// per-axis pen shape. Axes not listed keep a single-voxel extent.
func penSize(size []int, axes []int) ([3]int, error) {
	axes, err := resolveAxes(axes)
	if err != nil {
		return [3]int{}, err
	}
	if len(size) != 1 && len(size) != 3 {
		return [3]int{}, fmt.Errorf("%w: block size needs 1 or 3 entries, got %d",
			ErrInvalidArgument, len(size))
	}
	pen := [3]int{1, 1, 1}
	for _, a := range axes {
		s := size[0]
		if len(size) == 3 {
			s = size[a]
		}
		if s < 1 {
			return [3]int{}, fmt.Errorf("%w: non-positive block size %v", ErrInvalidArgument, size)
		}
		pen[a] = s
	}
	return pen, nil
}

// physicalPen converts a physical-unit pen size to voxel units per axis
// using the image's voxel dimensions, and returns the smallest applied
// physical size, which paces the interpolation along a line.
func physicalPen(size []float64, axes []int, dims [3]float64) ([3]int, float64, error) {
	axes, err := resolveAxes(axes)
	if err != nil {
		return [3]int{}, 0, err
	}
	if len(size) != 1 && len(size) != 3 {
		return [3]int{}, 0, fmt.Errorf("%w: pen size needs 1 or 3 entries, got %d",
			ErrInvalidArgument, len(size))
	}
	pen := [3]int{1, 1, 1}
	minBox := math.Inf(1)
	for _, a := range axes {
		s := size[0]
		if len(size) == 3 {
			s = size[a]
		}
		if s <= 0 {
			return [3]int{}, 0, fmt.Errorf("%w: non-positive pen size %v", ErrInvalidArgument, size)
		}
		if s < minBox {
			minBox = s
		}
		v := int(math.Round(s / dims[a]))
		if v < 1 {
			v = 1
		}
		pen[a] = v
	}
	return pen, minBox, nil
}

func resolveAxes(axes []int) ([]int, error) {
	if axes == nil {
		return []int{0, 1, 2}, nil
	}
	if len(axes) == 0 || len(axes) > 3 {
		return nil, fmt.Errorf("%w: axes %v", ErrInvalidArgument, axes)
	}
	var seen [3]bool
	for _, a := range axes {
		if a < 0 || a > 2 || seen[a] {
			return nil, fmt.Errorf("%w: axes %v", ErrInvalidArgument, axes)
		}
		seen[a] = true
	}
	return axes, nil
}

// penBounds returns the unclipped bounds of a pen stamp centered on a voxel.
func penBounds(center, pen [3]int, bias Bias) models.Bounds {
	var b models.Bounds
	for i := 0; i < 3; i++ {
		lo := center[i] - pen[i]/2
		if pen[i]%2 == 0 && bias == BiasHigh {
			lo++
		}
		b.Lo[i] = lo
		b.Hi[i] = lo + pen[i]
	}
	return b
}
