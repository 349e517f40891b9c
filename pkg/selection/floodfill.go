package selection

import (
	"fmt"
	"math"

	"voxeledit/internal/models"
)

// SelectOpts controls a SelectByValue flood fill.
type SelectOpts struct {
	// Precision is the value tolerance: image voxels within Precision of
	// the seed value match. nil requires exact equality.
	Precision *float64

	// SearchRadius limits the search to an ellipsoid around the seed, in
	// voxel units. One entry applies to every axis, three give per-axis
	// radii; nil searches the whole (possibly restricted) grid.
	SearchRadius []float64

	// Local keeps only the matching voxels 6-connected to the seed.
	Local bool

	// Restrict confines the search to a region of the grid. The seed must
	// lie inside it.
	Restrict *models.Bounds

	// Combine merges the resulting change into the previous record.
	Combine bool
}

// Precision wraps a tolerance value for SelectOpts.
func Precision(v float64) *float64 {
	return &v
}

// SelectByValue grows a selection from a seed voxel to every image voxel
// within the value tolerance, replacing the mask contents over the searched
// window. It returns the hit block and the window offset. The seed must lie
// inside the grid and inside Restrict when one is given; that is validated
// before any mutation.
func (m *Mask) SelectByValue(seed [3]int, opts SelectOpts) (Block, [3]int, error) {
	window, radii, err := m.searchWindow(seed, opts)
	if err != nil {
		return Block{}, [3]int{}, err
	}
	vals, err := m.img.Values(window.Lo, window.Hi)
	if err != nil {
		return Block{}, [3]int{}, err
	}

	shape := window.Shape()
	local := sub3(seed, window.Lo)
	seedVal := vals[models.Index(local, shape)]

	hits := matchHits(vals, seedVal, opts.Precision)
	if radii != nil {
		var center [3]float64
		for i := 0; i < 3; i++ {
			center[i] = float64(local[i])
		}
		ell := models.Ellipsoid(shape, center, *radii)
		for i := range hits {
			hits[i] = hits[i] && ell[i]
		}
	}
	if opts.Local {
		hits = component(hits, shape, local)
	}

	block := NewBlock(shape)
	for i, h := range hits {
		if h {
			block.Data[i] = 1
		}
	}
	if err := m.SetSelection(block, window.Lo, opts.Combine); err != nil {
		return Block{}, [3]int{}, err
	}
	return block, window.Lo, nil
}

// InvertRegion region-grows over the mask itself from the seed and flips
// the connected region: selects it when the seed is unselected, deselects
// it otherwise. Seeded inside an unselected hole this is the "fill holes"
// gesture.
func (m *Mask) InvertRegion(seed [3]int, restrict *models.Bounds) error {
	if !models.Full(m.shape).Contains(seed) {
		return fmt.Errorf("%w: seed %v outside mask shape %v", ErrInvalidArgument, seed, m.shape)
	}
	region, err := m.restrictRegion(restrict)
	if err != nil {
		return err
	}
	if restrict != nil && !region.Contains(seed) {
		return fmt.Errorf("%w: seed %v outside restriction %v", ErrInvalidArgument, seed, region)
	}

	shape := region.Shape()
	snap := m.snapshot(region)
	vals := make([]float64, len(snap.Data))
	for i, v := range snap.Data {
		vals[i] = float64(v)
	}
	local := sub3(seed, region.Lo)
	seedVal := vals[models.Index(local, shape)]

	// Tolerance 0.5 over byte values: the region of equal selection state.
	hits := matchHits(vals, seedVal, Precision(0.5))
	hits = component(hits, shape, local)

	block := NewBlock(shape)
	for i, h := range hits {
		if h {
			block.Data[i] = 1
		}
	}
	if seedVal != 0 {
		return m.RemoveFromSelection(block, region.Lo, false)
	}
	return m.AddToSelection(block, region.Lo, false)
}

// searchWindow validates the seed, restriction, precision and radius, and
// resolves the region of the grid a flood fill will examine.
func (m *Mask) searchWindow(seed [3]int, opts SelectOpts) (models.Bounds, *[3]float64, error) {
	if !models.Full(m.shape).Contains(seed) {
		return models.Bounds{}, nil, fmt.Errorf("%w: seed %v outside mask shape %v",
			ErrInvalidArgument, seed, m.shape)
	}
	if opts.Precision != nil && *opts.Precision < 0 {
		return models.Bounds{}, nil, fmt.Errorf("%w: negative precision %v",
			ErrInvalidArgument, *opts.Precision)
	}

	window, err := m.restrictRegion(opts.Restrict)
	if err != nil {
		return models.Bounds{}, nil, err
	}
	if opts.Restrict != nil && !window.Contains(seed) {
		return models.Bounds{}, nil, fmt.Errorf("%w: seed %v outside restriction %v",
			ErrInvalidArgument, seed, window)
	}

	if opts.SearchRadius == nil {
		return window, nil, nil
	}
	var radii [3]float64
	switch len(opts.SearchRadius) {
	case 1:
		for i := 0; i < 3; i++ {
			radii[i] = opts.SearchRadius[0]
		}
	case 3:
		copy(radii[:], opts.SearchRadius)
	default:
		return models.Bounds{}, nil, fmt.Errorf("%w: search radius needs 1 or 3 entries, got %d",
			ErrInvalidArgument, len(opts.SearchRadius))
	}
	var box models.Bounds
	for i := 0; i < 3; i++ {
		if radii[i] < 0 {
			return models.Bounds{}, nil, fmt.Errorf("%w: negative search radius %v",
				ErrInvalidArgument, radii)
		}
		r := int(math.Floor(radii[i]))
		box.Lo[i] = seed[i] - r
		box.Hi[i] = seed[i] + r + 1
	}
	// The radius box is centered on the seed, so the intersection with the
	// restriction always contains the seed.
	return window.Intersect(box), &radii, nil
}

// matchHits returns the tolerance hit mask for vals against the seed value.
func matchHits(vals []float64, seedVal float64, precision *float64) []bool {
	hits := make([]bool, len(vals))
	if precision == nil {
		for i, v := range vals {
			hits[i] = v == seedVal
		}
		return hits
	}
	p := *precision
	for i, v := range vals {
		hits[i] = math.Abs(v-seedVal) <= p
	}
	return hits
}

// component keeps only the hits 6-connected to the seed, via a depth-first
// walk of the hit mask.
func component(hits []bool, shape [3]int, seed [3]int) []bool {
	out := make([]bool, len(hits))
	start := models.Index(seed, shape)
	if !hits[start] {
		return out
	}
	out[start] = true
	stack := [][3]int{seed}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for axis := 0; axis < 3; axis++ {
			for _, step := range [2]int{-1, 1} {
				q := p
				q[axis] += step
				if q[axis] < 0 || q[axis] >= shape[axis] {
					continue
				}
				i := models.Index(q, shape)
				if hits[i] && !out[i] {
					out[i] = true
					stack = append(stack, q)
				}
			}
		}
	}
	return out
}
