package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pickstats/internal/config"
	"pickstats/internal/dataprocessing"
	apperrors "pickstats/internal/errors"
	"pickstats/internal/infrastructure"
	"pickstats/internal/services"
	"pickstats/pkg/contracts"
)

const examples = `  pickstats analyze -i data/particles.star -t star
  pickstats analyze -i data/particles.csv -t csv --output stats.json
  pickstats analyze -i data/particles.star -t star --verbose
  pickstats compare -i file1.star -i file2.star -t star
  pickstats list -i data/particles.star -s name --reverse
  pickstats export -i data/particles.star -o particles.xlsx -f xlsx
  pickstats serve --port 8080 --data-dir /data/picks`

// cli carries the state shared by every subcommand
type cli struct {
	stdout     io.Writer
	stderr     io.Writer
	configFile string
	logLevel   string

	cfg     *config.Config
	logger  *slog.Logger
	service *services.AnalysisService
}

// run executes the command line and returns the process exit status
func run(args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer infrastructure.CloseLogFile()

	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(stderr, "Error: "+describe(err))
		return 1
	}
	return 0
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pickstats",
		Short:         "Particle picking statistics for cryo-EM",
		Long:          "Analyze cryo-EM particle picking results from STAR, CSV and box files.",
		Example:       examples,
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		c.analyzeCommand(),
		c.compareCommand(),
		c.listCommand(),
		c.exportCommand(),
		c.serveCommand(),
	)
	return root
}

// setup loads configuration and builds the logger and analysis service.
// CLI logs go to stderr so report output stays clean; report commands log
// warnings only unless --log-level says otherwise.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return err
	}
	switch {
	case cmd.Flags().Changed("log-level"):
		cfg.Logging.Level = c.logLevel
	case cmd.Name() != "serve":
		cfg.Logging.Level = "warn"
	}
	c.cfg = cfg

	logger, err := infrastructure.InitializeLogger(cfg.Logging, c.stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger
	cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))
	c.service = services.NewAnalysisService(cfg.Analysis, "", nil, logger)
	return nil
}

// parseType turns the --type flag into a format; empty means detect from
// the file extension.
func parseType(s string) (dataprocessing.Format, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return dataprocessing.ParseFormat(s)
}

// describe renders err the way the command line reports it
func describe(err error) string {
	var appErr *apperrors.AppError
	if !stderrors.As(err, &appErr) {
		return err.Error()
	}

	path, _ := appErr.Context["path"].(string)
	switch appErr.Type {
	case apperrors.ErrTypeNotFound:
		if path != "" {
			return "File not found: " + path
		}
	case apperrors.ErrTypeNoData:
		if path != "" {
			return "No particle data found in " + path
		}
		return appErr.Message
	case apperrors.ErrTypeParsing:
		return "failed to load file: " + appErr.Message
	}
	return appErr.Message
}
