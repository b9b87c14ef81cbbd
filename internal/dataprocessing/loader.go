package dataprocessing

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"pickstats/internal/recordset"
)

// Format identifies a particle file format
type Format string

const (
	FormatStar Format = "star"
	FormatCSV  Format = "csv"
	FormatBox  Format = "box"
)

// Formats lists the supported formats in display order
var Formats = []Format{FormatStar, FormatCSV, FormatBox}

// ParseFormat converts a user supplied name into a Format
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatStar:
		return FormatStar, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatBox:
		return FormatBox, nil
	}
	return "", fmt.Errorf("unsupported format %q (want star, csv or box)", s)
}

// DetectFormat guesses the format from the file extension, defaulting to STAR
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".box":
		return FormatBox
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	default:
		return FormatStar
	}
}

// LoadOptions configures Load
type LoadOptions struct {
	// MicrographColumn is the preferred identifier column
	MicrographColumn string
	// Delimiter for CSV input. Zero means comma, or tab for .tsv files.
	Delimiter rune
	Logger    *slog.Logger
}

// Loaded is the outcome of loading one file
type Loaded struct {
	Path    string
	Format  Format
	Table   *recordset.Table
	Dropped int
}

// LoadFile loads path and reports how many malformed rows were skipped
func LoadFile(path string, format Format, opts LoadOptions) (*Loaded, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := &Loaded{Path: path, Format: format}

	switch format {
	case FormatStar:
		sf, err := LoadStarFile(path, StarOptions{MicrographColumn: opts.MicrographColumn}, logger)
		if err != nil {
			return nil, err
		}
		out.Table = sf.Particles
		out.Dropped = sf.Dropped
		if out.Table == nil {
			out.Table = recordset.Empty()
		}
	case FormatCSV:
		delim := opts.Delimiter
		if delim == 0 && strings.EqualFold(filepath.Ext(path), ".tsv") {
			delim = '\t'
		}
		tf, err := LoadTabularFile(path, TabularOptions{
			Delimiter:        delim,
			MicrographColumn: opts.MicrographColumn,
		}, logger)
		if err != nil {
			return nil, err
		}
		out.Table = tf.Table
	case FormatBox:
		bf, err := LoadBoxFile(path, logger)
		if err != nil {
			return nil, err
		}
		out.Table = bf.Table
		out.Dropped = bf.Dropped
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return out, nil
}

// Load returns the record set of path: the particles block for STAR files and
// the whole table otherwise.
func Load(path string, format Format, opts LoadOptions) (*recordset.Table, error) {
	loaded, err := LoadFile(path, format, opts)
	if err != nil {
		return nil, err
	}
	return loaded.Table, nil
}
