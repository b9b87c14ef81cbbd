package exporter

import (
	"fmt"
	"strings"

	"pickstats/internal/recordset"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat converts a user supplied export format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want csv, json or xlsx)", s)
}

// Export writes table to path in the given format
func (w *CSVWriter) Export(path string, table *recordset.Table, format Format) error {
	switch format {
	case FormatCSV:
		return w.WriteTable(path, table, WriteOptions{})
	case FormatJSON:
		return WriteJSONRecords(w.resolvePath(path), table)
	case FormatXLSX:
		return WriteXLSX(w.resolvePath(path), table, DefaultSheet)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
