package editor

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the image intensities under the current selection.
type Stats struct {
	Count  int
	Mean   float64
	StdDev float64
	Median float64
	Min    float64
	Max    float64
}

// SelectionStats computes an intensity summary of the selected voxels for
// the image's current volume. An empty selection yields zero stats.
func (e *Editor) SelectionStats() (Stats, error) {
	block, offset := e.mask.Bounded()
	if block.Volume() == 0 {
		return Stats{}, nil
	}
	hi := offset
	for i := 0; i < 3; i++ {
		hi[i] += block.Shape[i]
	}
	vals, err := e.img.Values(offset, hi)
	if err != nil {
		return Stats{}, err
	}
	sel := make([]float64, 0, len(vals))
	for i, v := range block.Data {
		if v != 0 {
			sel = append(sel, vals[i])
		}
	}
	sort.Float64s(sel)
	s := Stats{
		Count:  len(sel),
		Mean:   stat.Mean(sel, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sel, nil),
		Min:    sel[0],
		Max:    sel[len(sel)-1],
	}
	if len(sel) > 1 {
		s.StdDev = stat.StdDev(sel, nil)
	}
	return s, nil
}
