// Package dataprocessing reads particle-picking result files into record sets.
//
// # Formats
//
// Three input formats are supported:
//
//  1. STAR: RELION block files with data_optics and data_particles loops
//  2. CSV: delimited text with a header row (any delimiter, tab for .tsv)
//  3. Box: EMAN2 whitespace-separated x, y, width, height rows
//
// Each parser produces a *recordset.Table whose column kinds are decided once
// while parsing. Column roles (micrograph identifier, coordinates, defocus) are
// not interpreted here beyond the per-format convenience views; the statistics
// package does the analysis.
//
// # Usage
//
//	table, err := dataprocessing.Load("run_data.star", dataprocessing.FormatStar, dataprocessing.LoadOptions{})
//	if err != nil {
//	    return err
//	}
//	if table.IsEmpty() {
//	    // nothing to analyse
//	}
//
// # Error Handling
//
// Failures differ per format. Box and CSV files that cannot be read yield an
// empty table and a nil error, and the failure is logged. A STAR file that
// cannot be opened is an error wrapping fs.ErrNotExist. A CSV row whose field
// count differs from the header is a parsing error that names the line.
package dataprocessing
