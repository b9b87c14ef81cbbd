// Package exporter writes particle record sets and analysis reports to disk.
//
// Supported outputs:
//
// CSVWriter: CSV files with the table header, optional UTF-8 BOM for Excel
// and a streaming writer for large tables.
//
// WriteJSONRecords: an array of row objects whose keys follow column order.
//
// WriteXLSX: an Excel workbook with a bold header row and typed cells.
//
// WriteReport: indented JSON for analysis and comparison reports.
//
// Example usage:
//
//	w := exporter.NewCSVWriter("", logger)
//	if err := w.Export("particles.csv", table, exporter.FormatCSV); err != nil {
//	    return err
//	}
package exporter
