package dataprocessing

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"pickstats/internal/recordset"
)

// BoxColumns are the fixed column names of an EMAN2 box file
var BoxColumns = []string{"x", "y", "width", "height"}

// BoxFile is a parsed EMAN2 box file
type BoxFile struct {
	Path    string
	Table   *recordset.Table
	Dropped int
}

// ParseBox reads whitespace-separated box rows. Only the first four tokens of
// a line are used; a line with fewer tokens, or whose first four tokens are
// not all numbers, is dropped.
func ParseBox(r io.Reader) (*BoxFile, error) {
	values := make([][]float64, len(BoxColumns))
	dropped := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row, ok := parseBoxRow(fields)
		if !ok {
			dropped++
			continue
		}
		for j, v := range row {
			values[j] = append(values[j], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read box data: %w", err)
	}

	columns := make([]*recordset.Column, len(BoxColumns))
	for j, name := range BoxColumns {
		if values[j] == nil {
			values[j] = []float64{}
		}
		columns[j] = recordset.NewNumericColumn(name, values[j])
	}
	table, err := recordset.New(columns...)
	if err != nil {
		return nil, err
	}
	return &BoxFile{Table: table, Dropped: dropped}, nil
}

func parseBoxRow(fields []string) ([]float64, bool) {
	if len(fields) < len(BoxColumns) {
		return nil, false
	}
	row := make([]float64, len(BoxColumns))
	for j := range BoxColumns {
		v, err := strconv.ParseFloat(fields[j], 64)
		if err != nil || math.IsNaN(v) {
			return nil, false
		}
		row[j] = v
	}
	return row, true
}

// LoadBoxFile parses the box file at path. Read failures and files without a
// single valid row produce an empty table; they are logged, not returned.
func LoadBoxFile(path string, logger *slog.Logger) (*BoxFile, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("Failed to open box file", slog.String("path", path), slog.String("error", err.Error()))
		return &BoxFile{Path: path, Table: recordset.Empty()}, nil
	}
	defer f.Close()

	box, err := ParseBox(f)
	if err != nil {
		logger.Warn("Failed to parse box file", slog.String("path", path), slog.String("error", err.Error()))
		return &BoxFile{Path: path, Table: recordset.Empty()}, nil
	}
	box.Path = path

	if box.Table.IsEmpty() {
		logger.Warn("Box file has no valid rows", slog.String("path", path), slog.Int("dropped", box.Dropped))
		box.Table = recordset.Empty()
		return box, nil
	}

	logger.Debug("Parsed box file",
		slog.String("path", path),
		slog.Int("rows", box.Table.Len()),
		slog.Int("dropped", box.Dropped))
	return box, nil
}

// Statistics returns the particle count and the mean of each box column.
// The map is empty when the file has no rows.
func (b *BoxFile) Statistics() map[string]any {
	if b == nil || b.Table.IsEmpty() {
		return map[string]any{}
	}
	stats := map[string]any{"total_particles": b.Table.Len()}
	for _, name := range BoxColumns {
		stats["avg_"+name] = stat.Mean(b.Table.Column(name).Floats, nil)
	}
	return stats
}
