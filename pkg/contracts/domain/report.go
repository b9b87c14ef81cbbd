// Package domain holds the plain value types exchanged between the analysis
// core and its presentation layers (CLI, dashboard API, report files).
package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Float is a float64 that encodes NaN and infinities as JSON null
type Float float64

// MarshalJSON implements json.Marshaler
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// IsNaN reports whether the value is undefined
func (f Float) IsNaN() bool {
	return math.IsNaN(float64(f))
}

// String formats the value for console output
func (f Float) String() string {
	if f.IsNaN() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(f), 'f', 2, 64)
}

// SummaryStats describes a particle file as a whole
type SummaryStats struct {
	TotalParticles   int   `json:"total_particles"`
	TotalMicrographs int   `json:"total_micrographs"`
	AvgPerMicrograph Float `json:"avg_particles_per_micrograph"`
	MinPerMicrograph int   `json:"min_particles_per_micrograph"`
	MaxPerMicrograph int   `json:"max_particles_per_micrograph"`
	StdPerMicrograph Float `json:"std_particles_per_micrograph"`
}

// ColumnStats summarizes one numeric column. Median is nil for defocus
// columns.
type ColumnStats struct {
	Mean   Float  `json:"mean"`
	Std    Float  `json:"std"`
	Min    Float  `json:"min"`
	Max    Float  `json:"max"`
	Median *Float `json:"median,omitempty"`
}

// MicrographCount is the number of particles picked on one micrograph
type MicrographCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Heatmap is a 2D particle density grid indexed [x bin][y bin]
type Heatmap struct {
	XColumn string    `json:"x_col"`
	YColumn string    `json:"y_col"`
	XEdges  []float64 `json:"x_edges"`
	YEdges  []float64 `json:"y_edges"`
	Counts  [][]int   `json:"histogram"`
}

// AnalysisReport is the result of analysing one file
type AnalysisReport struct {
	ID               string                 `json:"id"`
	File             string                 `json:"file"`
	Format           string                 `json:"format"`
	GeneratedAt      time.Time              `json:"generated_at"`
	Columns          []string               `json:"columns"`
	MicrographColumn string                 `json:"micrograph_column,omitempty"`
	DroppedRows      int                    `json:"dropped_rows"`
	Summary          SummaryStats           `json:"summary"`
	Distribution     []MicrographCount      `json:"distribution,omitempty"`
	Coordinates      map[string]ColumnStats `json:"coordinate_statistics,omitempty"`
	Defocus          map[string]ColumnStats `json:"defocus_statistics,omitempty"`
	Heatmap          *Heatmap               `json:"heatmap,omitempty"`
}

// ComparisonEntry is one row of a multi-file comparison
type ComparisonEntry struct {
	File             string `json:"file"`
	Particles        int    `json:"particles"`
	Micrographs      int    `json:"micrographs"`
	AvgPerMicrograph Float  `json:"avg_per_micrograph"`
}

// SampleResult is a fixed-seed subset of particle rows for scatter plots
type SampleResult struct {
	File    string   `json:"file"`
	Total   int      `json:"total"`
	Seed    int64    `json:"seed"`
	Indices []int    `json:"indices"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ExportResult describes a written export file
type ExportResult struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Format string `json:"format"`
	Rows   int    `json:"rows"`
}

// ParticleFile is a particle file found under the data directory
type ParticleFile struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Format  string    `json:"format"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}
