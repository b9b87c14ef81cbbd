package statistics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"pickstats/internal/roles"
)

// MaxBinsPerAxis is the largest number of bins on either heatmap axis
const MaxBinsPerAxis = 1000

var (
	// ErrNoCoordinates is returned when the table lacks an X or Y coordinate
	ErrNoCoordinates = errors.New("no numeric X and Y coordinate columns")
	// ErrTooManyBins is returned when the bin size splits an axis into more
	// than MaxBinsPerAxis bins
	ErrTooManyBins = errors.New("bin size too small")
)

// Heatmap is a 2D histogram of particle positions. Counts is indexed
// [x bin][y bin]; XEdges and YEdges hold len(Counts)+1 and len(Counts[0])+1
// values.
type Heatmap struct {
	XColumn string
	YColumn string
	XEdges  []float64
	YEdges  []float64
	Counts  [][]int
}

// AsMap returns the heatmap with its report keys
func (h *Heatmap) AsMap() map[string]any {
	return map[string]any{
		"histogram": h.Counts,
		"x_edges":   h.XEdges,
		"y_edges":   h.YEdges,
		"x_col":     h.XColumn,
		"y_col":     h.YColumn,
	}
}

// Total returns the number of particles counted
func (h *Heatmap) Total() int {
	total := 0
	for _, row := range h.Counts {
		for _, n := range row {
			total += n
		}
	}
	return total
}

// Heatmap bins the first X and Y coordinate columns. Edges start at the axis
// minimum and step by binSize up to the first value past the maximum, so the
// maximum falls inside the last bin, which is closed on the right. It reports
// false when either axis is missing, no row has both coordinates or the grid
// would exceed MaxBinsPerAxis; BuildHeatmap tells these cases apart.
func (e *Engine) Heatmap(binSize float64) (*Heatmap, bool) {
	h, err := e.BuildHeatmap(binSize)
	return h, err == nil
}

// BuildHeatmap is Heatmap with the reason for a missing grid
func (e *Engine) BuildHeatmap(binSize float64) (*Heatmap, error) {
	if binSize <= 0 || math.IsNaN(binSize) || math.IsInf(binSize, 0) {
		binSize = DefaultBinSize
	}

	xName, ok := roles.FirstX(e.table.NumericNames(roles.IsX))
	if !ok {
		return nil, ErrNoCoordinates
	}
	yName, ok := roles.FirstY(e.table.NumericNames(roles.IsY))
	if !ok {
		return nil, ErrNoCoordinates
	}

	xs, ys := pairs(e.table.Column(xName).Floats, e.table.Column(yName).Floats)
	if len(xs) == 0 {
		return nil, ErrNoCoordinates
	}

	xEdges, err := edges(xs, binSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", xName, err)
	}
	yEdges, err := edges(ys, binSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", yName, err)
	}

	h := &Heatmap{
		XColumn: xName,
		YColumn: yName,
		XEdges:  xEdges,
		YEdges:  yEdges,
	}
	h.Counts = make([][]int, len(h.XEdges)-1)
	for i := range h.Counts {
		h.Counts[i] = make([]int, len(h.YEdges)-1)
	}

	for i := range xs {
		xi, xok := bin(h.XEdges, xs[i])
		yi, yok := bin(h.YEdges, ys[i])
		if xok && yok {
			h.Counts[xi][yi]++
		}
	}
	return h, nil
}

// pairs keeps the rows where both coordinates are present
func pairs(x, y []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// edges returns min, min+bin, ... while below max+bin, with at least two
func edges(values []float64, binSize float64) ([]float64, error) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	nf := math.Ceil((hi + binSize - lo) / binSize)
	if math.IsNaN(nf) || nf-1 > MaxBinsPerAxis {
		return nil, fmt.Errorf("%w: %g gives more than %d bins over [%g, %g]", ErrTooManyBins, binSize, MaxBinsPerAxis, lo, hi)
	}

	n := max(int(nf), 2)
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*binSize
	}
	return out, nil
}

// bin locates v among edges. Bins are half-open except the last.
func bin(edges []float64, v float64) (int, bool) {
	last := len(edges) - 1
	if v < edges[0] || v > edges[last] {
		return 0, false
	}
	if v == edges[last] {
		return last - 1, true
	}
	// first edge strictly greater than v
	i := sort.Search(len(edges), func(i int) bool { return edges[i] > v })
	return i - 1, true
}
