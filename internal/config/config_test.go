package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pickstats.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
analysis:
  micrograph_column: ImageName
  bin_size: 250
  compare_workers: 2
server:
  port: 9000
  read_timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "ImageName", cfg.Analysis.MicrographColumn)
	assert.Equal(t, 250.0, cfg.Analysis.BinSize)
	assert.Equal(t, 2, cfg.Analysis.CompareWorkers)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	// untouched values keep their defaults
	assert.Equal(t, 5000, cfg.Analysis.SampleSize)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := writeConfigFile(t, `
analysis:
  bin_size: 250
server:
  port: 9000
`)
	t.Setenv("PICKSTATS_ANALYSIS_BIN_SIZE", "500")
	t.Setenv("PICKSTATS_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500.0, cfg.Analysis.BinSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "non positive bin size",
			env:     map[string]string{"PICKSTATS_ANALYSIS_BIN_SIZE": "0"},
			wantErr: "bin size must be positive",
		},
		{
			name:    "multi character delimiter",
			env:     map[string]string{"PICKSTATS_ANALYSIS_TABULAR_DELIMITER": ";;"},
			wantErr: "single character",
		},
		{
			name:    "unknown log level",
			env:     map[string]string{"PICKSTATS_LOGGING_LEVEL": "loud"},
			wantErr: "invalid log level",
		},
		{
			name:    "unknown trace exporter",
			env:     map[string]string{"PICKSTATS_TELEMETRY_TRACE_EXPORTER": "jaeger"},
			wantErr: "unsupported trace exporter",
		},
		{
			name:    "malformed number",
			env:     map[string]string{"PICKSTATS_SERVER_PORT": "eighty"},
			wantErr: "failed to load config from env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfigFile(t, ""))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestAnalysisConfig_Delimiter(t *testing.T) {
	assert.Equal(t, ',', Default().Analysis.Delimiter())
	assert.Equal(t, '\t', AnalysisConfig{TabularDelimiter: "\t"}.Delimiter())
}
