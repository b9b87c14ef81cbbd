// Package statistics computes descriptive statistics over a particle record
// set: the number of particles per micrograph, per-column summaries of the
// coordinate and defocus columns, and a 2D density histogram of particle
// positions.
//
// Standard deviations use the n-1 denominator. With fewer than two values the
// deviation is NaN; callers that serialize results map NaN to null.
package statistics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pickstats/internal/recordset"
	"pickstats/internal/roles"
)

// DefaultBinSize is the heatmap bin width used when none is given
const DefaultBinSize = 100.0

// Options configures an Engine
type Options struct {
	// MicrographColumn is preferred over the name heuristic when present
	MicrographColumn string
}

// Engine answers statistics queries about one immutable table
type Engine struct {
	table      *recordset.Table
	micrograph string
}

// New creates an engine. It never fails: without an identifier column the
// grouped statistics are empty.
func New(table *recordset.Table, opts Options) *Engine {
	if table == nil {
		table = recordset.Empty()
	}
	preferred := opts.MicrographColumn
	if preferred == "" {
		preferred = roles.DefaultMicrographColumn
	}
	micrograph, _ := roles.Micrograph(table.Names(), preferred)
	return &Engine{table: table, micrograph: micrograph}
}

// MicrographColumn returns the resolved identifier column, empty when none
func (e *Engine) MicrographColumn() string {
	return e.micrograph
}

// Table returns the analysed table
func (e *Engine) Table() *recordset.Table {
	return e.table
}

// GroupCount is the number of rows carrying one identifier value
type GroupCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Distribution returns the row count per identifier value, largest first.
// Equal counts keep the order in which the groups first appear.
func (e *Engine) Distribution() []GroupCount {
	col := e.table.Column(e.micrograph)
	if e.micrograph == "" || col == nil {
		return []GroupCount{}
	}

	index := make(map[string]int)
	groups := []GroupCount{}
	for i := 0; i < col.Len(); i++ {
		name := col.Format(i)
		pos, ok := index[name]
		if !ok {
			pos = len(groups)
			index[name] = pos
			groups = append(groups, GroupCount{Name: name})
		}
		groups[pos].Count++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups
}

// ColumnStats summarizes one numeric column. NaN cells are ignored; Count is
// the number of values used.
type ColumnStats struct {
	Count     int
	Mean      float64
	Std       float64
	Min       float64
	Max       float64
	Median    float64
	HasMedian bool
}

// AsMap returns the statistics keyed by name. Median is present only when it
// was computed.
func (s ColumnStats) AsMap() map[string]any {
	m := map[string]any{
		"mean": s.Mean,
		"std":  s.Std,
		"min":  s.Min,
		"max":  s.Max,
	}
	if s.HasMedian {
		m["median"] = s.Median
	}
	return m
}

// CoordinateStatistics summarizes every numeric coordinate column
func (e *Engine) CoordinateStatistics() map[string]ColumnStats {
	return e.columnStats(roles.IsCoordinate, true)
}

// DefocusStatistics summarizes every numeric defocus column, without median
func (e *Engine) DefocusStatistics() map[string]ColumnStats {
	return e.columnStats(roles.IsDefocus, false)
}

func (e *Engine) columnStats(keep func(string) bool, median bool) map[string]ColumnStats {
	out := make(map[string]ColumnStats)
	for _, name := range e.table.NumericNames(keep) {
		out[name] = Describe(e.table.Column(name).Floats, median)
	}
	return out
}

// Describe computes the summary of values, skipping NaN
func Describe(values []float64, withMedian bool) ColumnStats {
	clean := dropNaN(values)
	s := ColumnStats{
		Count:     len(clean),
		Mean:      math.NaN(),
		Std:       math.NaN(),
		Min:       math.NaN(),
		Max:       math.NaN(),
		Median:    math.NaN(),
		HasMedian: withMedian,
	}
	if len(clean) == 0 {
		return s
	}

	s.Mean = stat.Mean(clean, nil)
	s.Min = floats.Min(clean)
	s.Max = floats.Max(clean)
	s.Std = sampleStd(clean)
	if withMedian {
		s.Median = median(clean)
	}
	return s
}

// sampleStd is NaN below two values
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return stat.StdDev(values, nil)
}

// median averages the two middle values of an even-length input
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
