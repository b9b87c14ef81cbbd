package dataprocessing

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/stat"

	apperrors "pickstats/internal/errors"
	"pickstats/internal/recordset"
	"pickstats/internal/roles"
)

const utf8BOM = "\ufeff"

// TabularOptions configures the delimited text parser
type TabularOptions struct {
	// Delimiter separates fields. Zero means comma.
	Delimiter rune
	// MicrographColumn is the preferred identifier column for the views
	MicrographColumn string
}

func (o TabularOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// TabularFile is a parsed delimited text file
type TabularFile struct {
	views
	Path  string
	Table *recordset.Table
}

// ParseTabular reads a header row followed by data rows. Every row must have
// as many fields as the header.
func ParseTabular(r io.Reader, opts TabularOptions) (*TabularFile, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.delimiter()
	reader.FieldsPerRecord = 0
	reader.ReuseRecord = false

	header, err := reader.Read()
	if stderrors.Is(err, io.EOF) {
		return newTabularFile(recordset.Empty(), opts), nil
	}
	if err != nil {
		return nil, tabularError(err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, tabularError(err)
		}
		rows = append(rows, record)
	}

	table, err := recordset.FromRows(header, rows)
	if err != nil {
		return nil, apperrors.NewParsingError("invalid tabular data", err)
	}
	return newTabularFile(table, opts), nil
}

func newTabularFile(table *recordset.Table, opts TabularOptions) *TabularFile {
	return &TabularFile{
		views: newViews(table, opts.MicrographColumn),
		Table: table,
	}
}

func tabularError(err error) error {
	var parseErr *csv.ParseError
	if stderrors.As(err, &parseErr) {
		return apperrors.NewParsingError(fmt.Sprintf("malformed row at line %d", parseErr.Line), err).
			WithContext("line", parseErr.Line)
	}
	return apperrors.NewParsingError("failed to read tabular data", err)
}

// LoadTabularFile parses the file at path. A file that cannot be opened gives
// an empty table; malformed content is an error.
func LoadTabularFile(path string, opts TabularOptions, logger *slog.Logger) (*TabularFile, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("Failed to open tabular file", slog.String("path", path), slog.String("error", err.Error()))
		tf := newTabularFile(recordset.Empty(), opts)
		tf.Path = path
		return tf, nil
	}
	defer f.Close()

	tf, err := ParseTabular(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	tf.Path = path

	logger.Debug("Parsed tabular file",
		slog.String("path", path),
		slog.Int("rows", tf.Table.Len()),
		slog.Int("columns", tf.Table.Width()))
	return tf, nil
}

// Statistics returns the row count, the column names, mean and std of each
// numeric coordinate column and the number of distinct micrographs.
func (t *TabularFile) Statistics() map[string]any {
	if t == nil || t.Table == nil || t.Table.Width() == 0 {
		return map[string]any{}
	}
	stats := map[string]any{
		"total_particles": t.Table.Len(),
		"columns":         t.Table.Names(),
	}
	for _, name := range t.Table.NumericNames(roles.IsCoordinate) {
		values := present(t.Table.Column(name).Floats)
		mean, std := math.NaN(), math.NaN()
		if len(values) > 0 {
			mean = stat.Mean(values, nil)
		}
		if len(values) > 1 {
			std = stat.StdDev(values, nil)
		}
		stats[name+"_mean"] = mean
		stats[name+"_std"] = std
	}
	if t.MicrographColumn() != "" {
		stats["unique_micrographs"] = len(t.Micrographs())
	}
	return stats
}

// present drops NaN values
func present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
