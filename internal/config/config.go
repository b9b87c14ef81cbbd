package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "PICKSTATS"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/pickstats.log"`
}

// AnalysisConfig holds the parsing and statistics defaults
type AnalysisConfig struct {
	// MicrographColumn is preferred over the name heuristic when present
	MicrographColumn string  `yaml:"micrograph_column" envconfig:"MICROGRAPH_COLUMN" default:"MicrographName"`
	BinSize          float64 `yaml:"bin_size" envconfig:"BIN_SIZE" default:"100"`
	SampleSize       int     `yaml:"sample_size" envconfig:"SAMPLE_SIZE" default:"5000"`
	SampleSeed       int64   `yaml:"sample_seed" envconfig:"SAMPLE_SEED" default:"42"`
	CompareWorkers   int     `yaml:"compare_workers" envconfig:"COMPARE_WORKERS" default:"4"`
	TabularDelimiter string  `yaml:"tabular_delimiter" envconfig:"TABULAR_DELIMITER" default:","`
}

// ServerConfig contains HTTP server configuration for the dashboard API
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	// DataDir confines the files the API may read and write. Empty means unrestricted.
	DataDir   string  `yaml:"data_dir" envconfig:"DATA_DIR"`
	RateLimit float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT" default:"20"`
	RateBurst int     `yaml:"rate_burst" envconfig:"RATE_BURST" default:"40"`
}

// TelemetryConfig selects the tracing exporter
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"pickstats"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1"`
}

// Load loads configuration from environment variables and an optional YAML
// file. Precedence: environment, then file, then struct defaults. An empty
// configFile searches the usual locations.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs copies every value set in the file into the env config
// unless the matching environment variable was given explicitly.
func mergeConfigs(fileConfig, envConfig Config) Config {
	overlay("LOGGING_LEVEL", &envConfig.Logging.Level, fileConfig.Logging.Level)
	overlay("LOGGING_FORMAT", &envConfig.Logging.Format, fileConfig.Logging.Format)
	overlay("LOGGING_OUTPUT", &envConfig.Logging.Output, fileConfig.Logging.Output)
	overlay("LOGGING_FILE_PATH", &envConfig.Logging.FilePath, fileConfig.Logging.FilePath)

	overlay("ANALYSIS_MICROGRAPH_COLUMN", &envConfig.Analysis.MicrographColumn, fileConfig.Analysis.MicrographColumn)
	overlay("ANALYSIS_BIN_SIZE", &envConfig.Analysis.BinSize, fileConfig.Analysis.BinSize)
	overlay("ANALYSIS_SAMPLE_SIZE", &envConfig.Analysis.SampleSize, fileConfig.Analysis.SampleSize)
	overlay("ANALYSIS_SAMPLE_SEED", &envConfig.Analysis.SampleSeed, fileConfig.Analysis.SampleSeed)
	overlay("ANALYSIS_COMPARE_WORKERS", &envConfig.Analysis.CompareWorkers, fileConfig.Analysis.CompareWorkers)
	overlay("ANALYSIS_TABULAR_DELIMITER", &envConfig.Analysis.TabularDelimiter, fileConfig.Analysis.TabularDelimiter)

	overlay("SERVER_PORT", &envConfig.Server.Port, fileConfig.Server.Port)
	overlay("SERVER_READ_TIMEOUT", &envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout)
	overlay("SERVER_WRITE_TIMEOUT", &envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout)
	overlay("SERVER_SHUTDOWN_TIMEOUT", &envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout)
	overlay("SERVER_DATA_DIR", &envConfig.Server.DataDir, fileConfig.Server.DataDir)
	overlay("SERVER_RATE_LIMIT", &envConfig.Server.RateLimit, fileConfig.Server.RateLimit)
	overlay("SERVER_RATE_BURST", &envConfig.Server.RateBurst, fileConfig.Server.RateBurst)

	overlay("TELEMETRY_SERVICE_NAME", &envConfig.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName)
	overlay("TELEMETRY_TRACE_EXPORTER", &envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter)
	overlay("TELEMETRY_SAMPLE_RATIO", &envConfig.Telemetry.SampleRatio, fileConfig.Telemetry.SampleRatio)

	return envConfig
}

func overlay[T comparable](key string, dst *T, fileValue T) {
	var zero T
	if fileValue == zero {
		return
	}
	if _, set := os.LookupEnv(EnvPrefix + "_" + key); set {
		return
	}
	*dst = fileValue
}

// validate validates the configuration
func (c *Config) validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}

	if c.Analysis.BinSize <= 0 {
		return fmt.Errorf("bin size must be positive, got %v", c.Analysis.BinSize)
	}
	if c.Analysis.SampleSize < 0 {
		return fmt.Errorf("sample size must not be negative, got %d", c.Analysis.SampleSize)
	}
	if c.Analysis.CompareWorkers < 1 {
		return fmt.Errorf("compare workers must be at least 1, got %d", c.Analysis.CompareWorkers)
	}
	if utf8.RuneCountInString(c.Analysis.TabularDelimiter) != 1 {
		return fmt.Errorf("tabular delimiter must be a single character, got %q", c.Analysis.TabularDelimiter)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Telemetry.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter: %q", c.Telemetry.TraceExporter)
	}

	return nil
}

// Delimiter returns the configured tabular delimiter as a rune
func (a AnalysisConfig) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(a.TabularDelimiter)
	return r
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"pickstats.yaml",
		"configs/pickstats.yaml",
		"../configs/pickstats.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/pickstats.log",
		},
		Analysis: AnalysisConfig{
			MicrographColumn: "MicrographName",
			BinSize:          100,
			SampleSize:       5000,
			SampleSeed:       42,
			CompareWorkers:   4,
			TabularDelimiter: ",",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       20,
			RateBurst:       40,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "pickstats",
			TraceExporter: "none",
			SampleRatio:   1,
		},
	}
}
