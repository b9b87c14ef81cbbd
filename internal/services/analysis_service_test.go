package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickstats/internal/config"
	"pickstats/internal/dataprocessing"
	apperrors "pickstats/internal/errors"
	"pickstats/internal/exporter"
	"pickstats/internal/infrastructure"
	fixtures "pickstats/internal/shared/testutil"
)

func testConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		MicrographColumn: "MicrographName",
		BinSize:          100,
		SampleSize:       2,
		SampleSeed:       42,
		CompareWorkers:   2,
		TabularDelimiter: ",",
	}
}

func newTestService(t *testing.T) (*AnalysisService, *infrastructure.Metrics) {
	t.Helper()
	logger, _ := fixtures.NewTestLogger(t)
	metrics := infrastructure.NewMetrics()
	return NewAnalysisService(testConfig(), "", metrics, logger), metrics
}

func TestAnalyze(t *testing.T) {
	files := fixtures.SampleFiles(t)
	svc, metrics := newTestService(t)

	t.Run("star summary", func(t *testing.T) {
		report, err := svc.Analyze(context.Background(), AnalyzeRequest{Path: files["star"]})
		require.NoError(t, err)

		assert.NotEmpty(t, report.ID)
		assert.Equal(t, "star", report.Format)
		assert.Equal(t, "MicrographName", report.MicrographColumn)
		assert.Equal(t, 4, report.Summary.TotalParticles)
		assert.Equal(t, 2, report.Summary.TotalMicrographs)
		assert.InDelta(t, 2.0, float64(report.Summary.AvgPerMicrograph), 1e-9)
		assert.Equal(t, 2, report.Summary.MinPerMicrograph)
		assert.Equal(t, 2, report.Summary.MaxPerMicrograph)
		assert.InDelta(t, 0.0, float64(report.Summary.StdPerMicrograph), 1e-9)

		assert.Nil(t, report.Distribution)
		assert.Nil(t, report.Heatmap)
	})

	t.Run("verbose adds detail", func(t *testing.T) {
		report, err := svc.Analyze(context.Background(), AnalyzeRequest{Path: files["star"], Verbose: true})
		require.NoError(t, err)

		require.Len(t, report.Distribution, 2)
		assert.Equal(t, "micrograph_001.mrc", report.Distribution[0].Name)

		require.Contains(t, report.Coordinates, "CoordinateX")
		assert.NotNil(t, report.Coordinates["CoordinateX"].Median)
		require.Contains(t, report.Defocus, "DefocusU")
		assert.Nil(t, report.Defocus["DefocusU"].Median)

		require.NotNil(t, report.Heatmap)
		total := 0
		for _, row := range report.Heatmap.Counts {
			for _, c := range row {
				total += c
			}
		}
		assert.Equal(t, 4, total)
	})

	t.Run("csv detected from extension", func(t *testing.T) {
		report, err := svc.Analyze(context.Background(), AnalyzeRequest{Path: files["csv"]})
		require.NoError(t, err)
		assert.Equal(t, "csv", report.Format)
		assert.Equal(t, 2, report.Summary.TotalMicrographs)
	})

	t.Run("box has no micrographs", func(t *testing.T) {
		report, err := svc.Analyze(context.Background(), AnalyzeRequest{Path: files["box"]})
		require.NoError(t, err)
		assert.Equal(t, 4, report.Summary.TotalParticles)
		assert.Equal(t, 0, report.Summary.TotalMicrographs)
	})

	t.Run("report encodes", func(t *testing.T) {
		report, err := svc.Analyze(context.Background(), AnalyzeRequest{Path: files["star"], Verbose: true})
		require.NoError(t, err)
		_, err = json.Marshal(report)
		assert.NoError(t, err)
	})

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.FilesParsed.WithLabelValues("star", "ok")))
}

func TestAnalyzeBinSizeLimit(t *testing.T) {
	files := fixtures.SampleFiles(t)
	svc, _ := newTestService(t)

	for _, binSize := range []float64{1e-12, 0.01} {
		_, err := svc.Analyze(context.Background(), AnalyzeRequest{Path: files["star"], Verbose: true, BinSize: binSize})
		require.Error(t, err, "bin size %g", binSize)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	}

	// the heatmap is only built for verbose reports
	report, err := svc.Analyze(context.Background(), AnalyzeRequest{Path: files["star"], BinSize: 1e-12})
	require.NoError(t, err)
	assert.Nil(t, report.Heatmap)

	report, err = svc.Analyze(context.Background(), AnalyzeRequest{Path: files["box"], Verbose: true, BinSize: 1e-12})
	require.NoError(t, err, "box columns are not coordinate columns")
	assert.Nil(t, report.Heatmap)
}

func TestAnalyzeErrors(t *testing.T) {
	svc, metrics := newTestService(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		errType apperrors.ErrorType
	}{
		{"missing star", filepath.Join(dir, "missing.star"), apperrors.ErrTypeNotFound},
		{"missing box", filepath.Join(dir, "missing.box"), apperrors.ErrTypeNotFound},
		{"empty box", fixtures.WriteFixture(t, dir, "empty.box", ""), apperrors.ErrTypeNoData},
		{"star without particles", fixtures.WriteFixture(t, dir, "optics.star", "data_optics\n\nloop_\n_rlnVoltage #1\n300\n"), apperrors.ErrTypeNoData},
		{"empty path", "", apperrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), AnalyzeRequest{Path: tt.path})
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.errType), "got %v", err)
		})
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FilesParsed.WithLabelValues("box", "empty")))
}

func TestCompare(t *testing.T) {
	files := fixtures.SampleFiles(t)
	svc, _ := newTestService(t)
	empty := fixtures.WriteFixture(t, t.TempDir(), "empty.box", "")

	entries, err := svc.Compare(context.Background(), []string{files["star"], empty, files["csv"]}, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, files["star"], entries[0].File)
	assert.Equal(t, files["csv"], entries[1].File)
	for _, e := range entries {
		assert.Equal(t, 4, e.Particles)
		assert.Equal(t, 2, e.Micrographs)
		assert.InDelta(t, 2.0, float64(e.AvgPerMicrograph), 1e-9)
	}

	t.Run("missing file aborts", func(t *testing.T) {
		_, err := svc.Compare(context.Background(), []string{files["star"], "/nonexistent/x.star"}, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	path := fixtures.WriteFixture(t, dir, "mics.csv", "MicrographName,x\n"+
		"/data/Micrographs/b.mrc,1\n"+
		"/data/Micrographs/a.mrc,2\n"+
		"/data/Micrographs/a.mrc,3\n"+
		`C:\data\c.mrc,4`+"\n"+
		`C:\data\c.mrc,5`+"\n"+
		`C:\data\c.mrc,6`+"\n")
	svc, _ := newTestService(t)

	tests := []struct {
		name    string
		sortBy  string
		reverse bool
		want    []string
	}{
		{"count descending by default", "", false, []string{"c.mrc", "a.mrc", "b.mrc"}},
		{"count reversed", SortByCount, true, []string{"b.mrc", "a.mrc", "c.mrc"}},
		{"name", SortByName, false, []string{"a.mrc", "b.mrc", "c.mrc"}},
		{"name reversed", SortByName, true, []string{"c.mrc", "b.mrc", "a.mrc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(context.Background(), path, "", tt.sortBy, tt.reverse)
			require.NoError(t, err)
			names := make([]string, len(got))
			for i, m := range got {
				names[i] = m.Name
			}
			assert.Equal(t, tt.want, names)
		})
	}

	t.Run("bad sort key", func(t *testing.T) {
		_, err := svc.List(context.Background(), path, "", "size", false)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	})

	t.Run("no micrograph column", func(t *testing.T) {
		files := fixtures.SampleFiles(t)
		_, err := svc.List(context.Background(), files["box"], "", "", false)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNoData))
	})
}

func TestSample(t *testing.T) {
	files := fixtures.SampleFiles(t)
	svc, _ := newTestService(t)

	result, err := svc.Sample(context.Background(), files["star"], "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, int64(42), result.Seed)
	require.Len(t, result.Indices, 2)
	assert.Less(t, result.Indices[0], result.Indices[1])
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, []string{"CoordinateX", "CoordinateY", "MicrographName", "DefocusU", "DefocusV"}, result.Columns)

	again, err := svc.Sample(context.Background(), files["star"], "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, result.Indices, again.Indices)

	seed := int64(7)
	all, err := svc.Sample(context.Background(), files["star"], "", 10, &seed)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, all.Indices)
	assert.Equal(t, int64(7), all.Seed)
}

func TestSampleIndices(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, SampleIndices(3, 5, 1))
	assert.Empty(t, SampleIndices(0, 5, 1))

	got := SampleIndices(1000, 10, 42)
	assert.Len(t, got, 10)
	assert.IsIncreasing(t, got)
	assert.Equal(t, got, SampleIndices(1000, 10, 42))
	assert.NotEqual(t, got, SampleIndices(1000, 10, 43))
}

func TestExport(t *testing.T) {
	files := fixtures.SampleFiles(t)
	svc, _ := newTestService(t)
	out := filepath.Join(t.TempDir(), "exports", "particles.json")

	result, err := svc.Export(context.Background(), files["star"], dataprocessing.FormatStar, out, exporter.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Rows)
	assert.Equal(t, "json", result.Format)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, "micrograph_001.mrc", rows[0]["MicrographName"])
}

func TestDataDirConfinement(t *testing.T) {
	base := t.TempDir()
	fixtures.WriteFixture(t, base, "run.box", fixtures.SampleBox)
	logger, _ := fixtures.NewTestLogger(t)
	svc := NewAnalysisService(testConfig(), base, nil, logger)

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{Path: "run.box"})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Summary.TotalParticles)

	_, err = svc.Analyze(context.Background(), AnalyzeRequest{Path: "../run.box"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestFiles(t *testing.T) {
	base := t.TempDir()
	fixtures.WriteFixture(t, base, "run.box", fixtures.SampleBox)
	fixtures.WriteFixture(t, base, "run.star", fixtures.SampleStar)
	fixtures.WriteFixture(t, base, "notes.md", "x")
	logger, _ := fixtures.NewTestLogger(t)
	svc := NewAnalysisService(testConfig(), base, nil, logger)

	dir, found, truncated, err := svc.Files(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Equal(t, base, dir)
	require.Len(t, found, 2)
	assert.Equal(t, "run.box", found[0].Name)
	assert.Equal(t, "box", found[0].Format)
	assert.Equal(t, "star", found[1].Format)

	_, _, _, err = svc.Files(context.Background(), "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	_, _, _, err = svc.Files(context.Background(), "..")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestHealthService(t *testing.T) {
	logger, _ := fixtures.NewTestLogger(t)

	hs := NewHealthService("1.0.0", t.TempDir(), logger)
	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)
	assert.Equal(t, "ready", hs.ReadinessCheck(context.Background()).Status)
	assert.Equal(t, "alive", hs.LivenessCheck(context.Background()).Status)
	assert.Equal(t, "1.0.0", hs.Version()["version"])

	missing := NewHealthService("1.0.0", filepath.Join(t.TempDir(), "gone"), logger)
	assert.Equal(t, "not_ready", missing.ReadinessCheck(context.Background()).Status)
}
