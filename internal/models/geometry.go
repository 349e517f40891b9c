// Package models holds the shared geometry primitives used by the selection
// and editing packages: half-open voxel bounds, flat indexing helpers, and
// the ellipsoid inside-test used by radius-limited flood fills.
package models

// Bounds is an axis-aligned box of voxels, half-open on every axis: a voxel
// p is inside when Lo[i] <= p[i] < Hi[i] for all three axes. A Bounds with
// Hi[i] <= Lo[i] on any axis is empty.
type Bounds struct {
	Lo [3]int
	Hi [3]int
}

// Full returns the bounds covering an entire grid of the given shape.
func Full(shape [3]int) Bounds {
	return Bounds{Hi: shape}
}

// Valid reports whether the bounds are well formed (Lo <= Hi on every axis).
// Empty bounds are valid; inverted ones are not.
func (b Bounds) Valid() bool {
	for i := 0; i < 3; i++ {
		if b.Lo[i] > b.Hi[i] {
			return false
		}
	}
	return true
}

// Clip returns the bounds intersected with a grid of the given shape.
func (b Bounds) Clip(shape [3]int) Bounds {
	return b.Intersect(Full(shape))
}

// Intersect returns the overlap of two bounds. The result may be empty.
func (b Bounds) Intersect(o Bounds) Bounds {
	out := b
	for i := 0; i < 3; i++ {
		if o.Lo[i] > out.Lo[i] {
			out.Lo[i] = o.Lo[i]
		}
		if o.Hi[i] < out.Hi[i] {
			out.Hi[i] = o.Hi[i]
		}
		if out.Hi[i] < out.Lo[i] {
			out.Hi[i] = out.Lo[i]
		}
	}
	return out
}

// Union returns the smallest bounds containing both inputs. Empty inputs do
// not contribute.
func (b Bounds) Union(o Bounds) Bounds {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return Bounds{Lo: MinPoint(b.Lo, o.Lo), Hi: MaxPoint(b.Hi, o.Hi)}
}

// Empty reports whether the bounds contain no voxels.
func (b Bounds) Empty() bool {
	for i := 0; i < 3; i++ {
		if b.Hi[i] <= b.Lo[i] {
			return true
		}
	}
	return false
}

// Shape returns the per-axis extent of the bounds.
func (b Bounds) Shape() [3]int {
	var s [3]int
	for i := 0; i < 3; i++ {
		s[i] = b.Hi[i] - b.Lo[i]
		if s[i] < 0 {
			s[i] = 0
		}
	}
	return s
}

// Volume returns the number of voxels inside the bounds.
func (b Bounds) Volume() int {
	s := b.Shape()
	return s[0] * s[1] * s[2]
}

// Contains reports whether the voxel lies inside the bounds.
func (b Bounds) Contains(p [3]int) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Lo[i] || p[i] >= b.Hi[i] {
			return false
		}
	}
	return true
}

// Index returns the flat index of a voxel within a grid of the given shape.
// Storage order is x fastest: i = x + nx*(y + ny*z), matching NIfTI layout.
func Index(p, shape [3]int) int {
	return p[0] + shape[0]*(p[1]+shape[1]*p[2])
}

// MinPoint returns the per-axis minimum of two voxel coordinates.
func MinPoint(a, b [3]int) [3]int {
	for i := 0; i < 3; i++ {
		if b[i] < a[i] {
			a[i] = b[i]
		}
	}
	return a
}

// MaxPoint returns the per-axis maximum of two voxel coordinates.
func MaxPoint(a, b [3]int) [3]int {
	for i := 0; i < 3; i++ {
		if b[i] > a[i] {
			a[i] = b[i]
		}
	}
	return a
}

// Ellipsoid returns an inside-test mask for the ellipsoid centered at center
// with the given per-axis radii, evaluated over a window of the given shape.
// A voxel is inside when sum(((p[i]-center[i])/radii[i])^2) <= 1. Radii
// smaller than half a voxel are clamped so the center voxel is always inside.
func Ellipsoid(shape [3]int, center, radii [3]float64) []bool {
	r := radii
	for i := 0; i < 3; i++ {
		if r[i] < 0.5 {
			r[i] = 0.5
		}
	}
	mask := make([]bool, shape[0]*shape[1]*shape[2])
	idx := 0
	for z := 0; z < shape[2]; z++ {
		dz := (float64(z) - center[2]) / r[2]
		for y := 0; y < shape[1]; y++ {
			dy := (float64(y) - center[1]) / r[1]
			for x := 0; x < shape[0]; x++ {
				dx := (float64(x) - center[0]) / r[0]
				mask[idx] = dx*dx+dy*dy+dz*dz <= 1.0
				idx++
			}
		}
	}
	return mask
}
