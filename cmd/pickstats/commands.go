package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"pickstats/internal/app"
	"pickstats/internal/exporter"
	"pickstats/internal/services"
	"pickstats/pkg/contracts/domain"
)

func (c *cli) analyzeCommand() *cobra.Command {
	var (
		input, fileType, output string
		verbose                 bool
		binSize                 float64
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a single particle picking file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseType(fileType)
			if err != nil {
				return err
			}

			report, err := c.service.Analyze(cmd.Context(), services.AnalyzeRequest{
				Path:    input,
				Format:  format,
				BinSize: binSize,
				Verbose: verbose,
			})
			if err != nil {
				return err
			}

			printAnalysis(c.stdout, input, report, verbose)

			if output != "" {
				out := analyzeOutput{File: input, Summary: report.Summary}
				if verbose {
					out.CoordinateStats = report.Coordinates
					out.DefocusStats = report.Defocus
				}
				if err := exporter.WriteReport(output, out); err != nil {
					return err
				}
				fmt.Fprintf(c.stdout, "\nStatistics saved to: %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input file path")
	cmd.Flags().StringVarP(&fileType, "type", "t", "", "file type: star, csv or box (default: from extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write statistics to this JSON file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show coordinate and defocus statistics")
	cmd.Flags().Float64Var(&binSize, "bin-size", 0, "heatmap bin size in pixels (default from config)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// analyzeOutput is the JSON layout written by analyze --output
type analyzeOutput struct {
	File            string                        `json:"file"`
	Summary         domain.SummaryStats           `json:"summary"`
	CoordinateStats map[string]domain.ColumnStats `json:"coordinate_stats,omitempty"`
	DefocusStats    map[string]domain.ColumnStats `json:"defocus_stats,omitempty"`
}

func (c *cli) compareCommand() *cobra.Command {
	var (
		inputs           []string
		fileType, output string
	)

	cmd := &cobra.Command{
		Use:   "compare [files...]",
		Short: "Compare multiple particle picking files",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := append(append([]string(nil), inputs...), args...)
			if len(paths) == 0 {
				return fmt.Errorf("at least one input file is required")
			}
			format, err := parseType(fileType)
			if err != nil {
				return err
			}

			entries, err := c.service.Compare(cmd.Context(), paths, format)
			if err != nil {
				return err
			}

			printComparison(c.stdout, paths, entries)

			if output != "" {
				if err := exporter.WriteReport(output, entries); err != nil {
					return err
				}
				fmt.Fprintf(c.stdout, "\nComparison saved to: %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&inputs, "input", "i", nil, "input file paths (repeatable or comma separated)")
	cmd.Flags().StringVarP(&fileType, "type", "t", "", "file type: star, csv or box (default: from extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the comparison to this JSON file")
	return cmd
}

func (c *cli) listCommand() *cobra.Command {
	var (
		input, fileType, sortBy, output string
		reverse                         bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List micrographs and particle counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseType(fileType)
			if err != nil {
				return err
			}

			counts, err := c.service.List(cmd.Context(), input, format, sortBy, reverse)
			if err != nil {
				return err
			}

			printMicrographs(c.stdout, input, counts)

			if output != "" {
				records := make([][]string, len(counts))
				for i, m := range counts {
					records[i] = []string{m.Name, strconv.Itoa(m.Count)}
				}
				err := exporter.NewCSVWriter("", c.logger).WriteCSV(output, exporter.WriteOptions{
					Headers: []string{"micrograph", "particles"},
					Records: records,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(c.stdout, "\nMicrograph list saved to: %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input file path")
	cmd.Flags().StringVarP(&fileType, "type", "t", "", "file type: star, csv or box (default: from extension)")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", services.SortByCount, "sort by name or count")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "reverse sort order")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the list to this CSV file")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (c *cli) exportCommand() *cobra.Command {
	var input, fileType, output, outFormat string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export particle data to csv, json or xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseType(fileType)
			if err != nil {
				return err
			}
			target, err := exporter.ParseFormat(outFormat)
			if err != nil {
				return err
			}

			printExportHeader(c.stdout, input, output, target)

			result, err := c.service.Export(cmd.Context(), input, format, output, target)
			if err != nil {
				return err
			}
			printExportResult(c.stdout, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input file path")
	cmd.Flags().StringVarP(&fileType, "type", "t", "", "input file type: star, csv or box (default: from extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&outFormat, "format", "f", string(exporter.FormatCSV), "output format: csv, json or xlsx")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (c *cli) serveCommand() *cobra.Command {
	var (
		port    int
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.Server.Port = port
			}
			if cmd.Flags().Changed("data-dir") {
				abs, err := filepath.Abs(dataDir)
				if err != nil {
					return err
				}
				c.cfg.Server.DataDir = abs
			}

			application, err := app.NewApplication(c.cfg, c.logger)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory the API may read and write")
	return cmd
}
