// Package api contains the dashboard API contract definitions.
// Version v1 represents the current stable API version.
package api

import (
	"pickstats/pkg/contracts/domain"
)

// AnalyzeRequest asks for the statistics of one particle file
type AnalyzeRequest struct {
	Path    string  `json:"path" validate:"required"`
	Format  string  `json:"format" validate:"omitempty,oneof=star csv box"`
	BinSize float64 `json:"bin_size" validate:"omitempty,gt=0"`
	Verbose bool    `json:"verbose"`
}

// CompareRequest asks for a side-by-side summary of several files
type CompareRequest struct {
	Paths  []string `json:"paths" validate:"required,min=1,max=64,dive,required"`
	Format string   `json:"format" validate:"omitempty,oneof=star csv box"`
}

// MicrographsRequest lists particle counts per micrograph
type MicrographsRequest struct {
	Path    string `json:"path" query:"path" validate:"required"`
	Format  string `json:"format" query:"format" validate:"omitempty,oneof=star csv box"`
	Sort    string `json:"sort" query:"sort" validate:"omitempty,oneof=name count"`
	Reverse bool   `json:"reverse" query:"reverse"`
}

// SampleRequest asks for a random subset of particle rows
type SampleRequest struct {
	Path   string `json:"path" validate:"required"`
	Format string `json:"format" validate:"omitempty,oneof=star csv box"`
	N      int    `json:"n" validate:"omitempty,min=1,max=100000"`
	Seed   *int64 `json:"seed,omitempty"`
}

// ExportRequest converts a particle file to another format
type ExportRequest struct {
	Path         string `json:"path" validate:"required"`
	Format       string `json:"format" validate:"omitempty,oneof=star csv box"`
	Output       string `json:"output" validate:"required"`
	OutputFormat string `json:"output_format" validate:"omitempty,oneof=csv json xlsx"`
}

// FilesRequest lists the particle files below a directory
type FilesRequest struct {
	Dir string `json:"dir" query:"dir"`
}

// CompareResponse wraps the comparison rows
type CompareResponse struct {
	Files []domain.ComparisonEntry `json:"files"`
}

// MicrographsResponse wraps the per-micrograph counts
type MicrographsResponse struct {
	File        string                   `json:"file"`
	Micrographs []domain.MicrographCount `json:"micrographs"`
}

// FilesResponse wraps the discovered particle files
type FilesResponse struct {
	Directory string                `json:"directory"`
	Files     []domain.ParticleFile `json:"files"`
	Truncated bool                  `json:"truncated"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
