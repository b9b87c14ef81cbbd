package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"pickstats/internal/exporter"
	"pickstats/pkg/contracts/domain"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	warning = color.New(color.FgYellow)
	success = color.New(color.FgGreen)

	rule       = strings.Repeat("-", 60)
	doubleRule = strings.Repeat("=", 60)
)

func count(n int) string {
	return humanize.Comma(int64(n))
}

func printAnalysis(w io.Writer, input string, report *domain.AnalysisReport, verbose bool) {
	fmt.Fprintf(w, "\nAnalyzing: %s\n", input)
	fmt.Fprintf(w, "File type: %s\n", report.Format)
	fmt.Fprintln(w, rule)

	s := report.Summary
	heading.Fprintln(w, "\nSummary Statistics:")
	fmt.Fprintf(w, "  Total particles: %s\n", count(s.TotalParticles))
	fmt.Fprintf(w, "  Total micrographs: %s\n", count(s.TotalMicrographs))
	if s.TotalMicrographs > 0 {
		fmt.Fprintf(w, "  Average particles per micrograph: %s\n", s.AvgPerMicrograph)
		fmt.Fprintf(w, "  Min particles per micrograph: %d\n", s.MinPerMicrograph)
		fmt.Fprintf(w, "  Max particles per micrograph: %d\n", s.MaxPerMicrograph)
		fmt.Fprintf(w, "  Std deviation: %s\n", s.StdPerMicrograph)
	}

	if !verbose {
		return
	}

	heading.Fprintln(w, "\nCoordinate Statistics:")
	printColumnStats(w, report.Coordinates)

	if len(report.Defocus) > 0 {
		heading.Fprintln(w, "\nDefocus Statistics:")
		printColumnStats(w, report.Defocus)
	}
}

// printColumnStats prints columns in name order so output is stable
func printColumnStats(w io.Writer, stats map[string]domain.ColumnStats) {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := stats[name]
		fmt.Fprintf(w, "  %s:\n", name)
		fmt.Fprintf(w, "    Mean: %s\n", v.Mean)
		fmt.Fprintf(w, "    Std: %s\n", v.Std)
		fmt.Fprintf(w, "    Min: %s\n", v.Min)
		fmt.Fprintf(w, "    Max: %s\n", v.Max)
	}
}

func printComparison(w io.Writer, paths []string, entries []domain.ComparisonEntry) {
	fmt.Fprintf(w, "\nComparing %d files:\n", len(paths))
	fmt.Fprintln(w, rule)

	byFile := make(map[string]domain.ComparisonEntry, len(entries))
	for _, e := range entries {
		byFile[e.File] = e
	}
	for _, p := range paths {
		fmt.Fprintf(w, "\nProcessing: %s\n", p)
		e, ok := byFile[filepath.Clean(p)]
		if !ok {
			warning.Fprintf(w, "  Warning: No data found in %s\n", p)
			continue
		}
		fmt.Fprintf(w, "  Particles: %s\n", count(e.Particles))
		fmt.Fprintf(w, "  Micrographs: %s\n", count(e.Micrographs))
		fmt.Fprintf(w, "  Avg per micrograph: %s\n", e.AvgPerMicrograph)
	}

	fmt.Fprintln(w, "\n"+doubleRule)
	heading.Fprintln(w, "Comparison Summary:")
	fmt.Fprintln(w, doubleRule)

	for i, e := range entries {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, filepath.Base(e.File))
		fmt.Fprintf(w, "   Particles: %s\n", count(e.Particles))
		fmt.Fprintf(w, "   Micrographs: %s\n", count(e.Micrographs))
		fmt.Fprintf(w, "   Avg: %s\n", e.AvgPerMicrograph)
	}
}

func printMicrographs(w io.Writer, input string, counts []domain.MicrographCount) {
	fmt.Fprintf(w, "\nListing micrographs from: %s\n", input)
	fmt.Fprintln(w, rule)

	total := 0
	for _, m := range counts {
		total += m.Count
	}
	fmt.Fprintf(w, "\nTotal micrographs: %d\n", len(counts))
	fmt.Fprintf(w, "Total particles: %s\n\n", count(total))

	heading.Fprintf(w, "%-50s %10s\n", "Micrograph", "Particles")
	fmt.Fprintln(w, strings.Repeat("-", 62))
	for _, m := range counts {
		fmt.Fprintf(w, "%-50s %10s\n", m.Name, count(m.Count))
	}
}

func printExportHeader(w io.Writer, input, output string, format exporter.Format) {
	fmt.Fprintf(w, "\nExporting: %s\n", input)
	fmt.Fprintf(w, "Output format: %s\n", format)
	fmt.Fprintf(w, "Output file: %s\n", output)
	fmt.Fprintln(w, rule)
}

func printExportResult(w io.Writer, result *domain.ExportResult) {
	success.Fprintf(w, "\nSuccessfully exported %s particles to %s\n", count(result.Rows), strings.ToUpper(result.Format))
	fmt.Fprintf(w, "Output saved to: %s\n", result.Output)
}
