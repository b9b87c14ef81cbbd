package statistics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the table as a whole. The per-micrograph fields are zero
// when no identifier column was resolved or the table has no rows.
type Summary struct {
	TotalParticles   int
	TotalMicrographs int
	AvgPerMicrograph float64
	MinPerMicrograph int
	MaxPerMicrograph int
	StdPerMicrograph float64
}

// AsMap returns the summary with its report keys
func (s Summary) AsMap() map[string]any {
	return map[string]any{
		"total_particles":              s.TotalParticles,
		"total_micrographs":            s.TotalMicrographs,
		"avg_particles_per_micrograph": s.AvgPerMicrograph,
		"min_particles_per_micrograph": s.MinPerMicrograph,
		"max_particles_per_micrograph": s.MaxPerMicrograph,
		"std_particles_per_micrograph": s.StdPerMicrograph,
	}
}

// Summary computes the particle total and the spread of the distribution
func (e *Engine) Summary() Summary {
	s := Summary{TotalParticles: e.table.Len()}

	dist := e.Distribution()
	if len(dist) == 0 {
		return s
	}

	counts := make([]float64, len(dist))
	s.MinPerMicrograph = dist[0].Count
	for i, g := range dist {
		counts[i] = float64(g.Count)
		s.MinPerMicrograph = min(s.MinPerMicrograph, g.Count)
		s.MaxPerMicrograph = max(s.MaxPerMicrograph, g.Count)
	}

	s.TotalMicrographs = len(dist)
	s.AvgPerMicrograph = stat.Mean(counts, nil)
	s.StdPerMicrograph = math.NaN()
	if len(counts) > 1 {
		s.StdPerMicrograph = stat.StdDev(counts, nil)
	}
	return s
}
