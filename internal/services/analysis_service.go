package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"pickstats/internal/config"
	"pickstats/internal/dataprocessing"
	apperrors "pickstats/internal/errors"
	"pickstats/internal/exporter"
	"pickstats/internal/files"
	"pickstats/internal/infrastructure"
	"pickstats/internal/statistics"
	"pickstats/internal/validation"
	"pickstats/pkg/contracts/domain"
)

// Sort keys accepted by List
const (
	SortByCount = "count"
	SortByName  = "name"
)

// AnalyzeRequest describes one analysis
type AnalyzeRequest struct {
	Path    string
	Format  dataprocessing.Format
	BinSize float64
	Verbose bool
}

// AnalysisService loads particle files and runs the statistics engine on them
type AnalysisService struct {
	cfg       config.AnalysisConfig
	validator *validation.FileValidator
	writer    *exporter.CSVWriter
	discovery *files.Discovery
	metrics   *infrastructure.Metrics
	logger    *slog.Logger
}

// NewAnalysisService creates the service. dataDir confines every input and
// output path when non-empty; metrics may be nil.
func NewAnalysisService(cfg config.AnalysisConfig, dataDir string, metrics *infrastructure.Metrics, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "analysis_service")

	return &AnalysisService{
		cfg:       cfg,
		validator: validation.NewFileValidator(dataDir, logger),
		writer:    exporter.NewCSVWriter("", logger),
		discovery: files.NewDiscovery(logger),
		metrics:   metrics,
		logger:    logger,
	}
}

// Analyze loads the file and computes its summary. Verbose requests add the
// distribution, the per-column statistics and the heatmap.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.AnalysisReport, error) {
	ctx, span := infrastructure.StartSpan(ctx, "AnalysisService.Analyze",
		attribute.String("path", req.Path),
		attribute.Bool("verbose", req.Verbose))
	defer span.End()
	defer s.metrics.ObserveDuration("analyze", time.Now())

	loaded, err := s.load(ctx, req.Path, req.Format)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	engine := statistics.New(loaded.Table, statistics.Options{MicrographColumn: s.cfg.MicrographColumn})
	report := &domain.AnalysisReport{
		ID:               uuid.New().String(),
		File:             loaded.Path,
		Format:           string(loaded.Format),
		GeneratedAt:      time.Now().UTC(),
		Columns:          loaded.Table.Names(),
		MicrographColumn: engine.MicrographColumn(),
		DroppedRows:      loaded.Dropped,
		Summary:          summaryToDomain(engine.Summary()),
	}

	if req.Verbose {
		report.Distribution = distributionToDomain(engine.Distribution())
		report.Coordinates = columnStatsToDomain(engine.CoordinateStatistics())
		report.Defocus = columnStatsToDomain(engine.DefocusStatistics())

		binSize := req.BinSize
		if binSize <= 0 {
			binSize = s.cfg.BinSize
		}
		h, err := engine.BuildHeatmap(binSize)
		switch {
		case err == nil:
			report.Heatmap = heatmapToDomain(h)
		case errors.Is(err, statistics.ErrTooManyBins):
			infrastructure.RecordError(ctx, err)
			return nil, apperrors.NewAppError(apperrors.ErrTypeValidation,
				fmt.Sprintf("bin_size %g is too small for %s (at most %d bins per axis)", binSize, loaded.Path, statistics.MaxBinsPerAxis), err)
		}
	}

	infrastructure.LoggerWithContext(ctx).Info("Analysis completed",
		slog.String("file", loaded.Path),
		slog.Int("particles", report.Summary.TotalParticles),
		slog.Int("micrographs", report.Summary.TotalMicrographs))
	return report, nil
}

// Compare summarizes several files. Files are analysed concurrently, results
// keep the input order and files without particle rows are skipped. A
// missing file aborts the comparison.
func (s *AnalysisService) Compare(ctx context.Context, paths []string, format dataprocessing.Format) ([]domain.ComparisonEntry, error) {
	ctx, span := infrastructure.StartSpan(ctx, "AnalysisService.Compare",
		attribute.Int("files", len(paths)))
	defer span.End()
	defer s.metrics.ObserveDuration("compare", time.Now())

	results := make([]*domain.ComparisonEntry, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.CompareWorkers))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			loaded, err := s.load(gctx, path, format)
			if apperrors.IsType(err, apperrors.ErrTypeNoData) {
				s.logger.Warn("Skipping file without particle data", slog.String("file", path))
				return nil
			}
			if err != nil {
				return err
			}

			summary := statistics.New(loaded.Table, statistics.Options{MicrographColumn: s.cfg.MicrographColumn}).Summary()
			results[i] = &domain.ComparisonEntry{
				File:             loaded.Path,
				Particles:        summary.TotalParticles,
				Micrographs:      summary.TotalMicrographs,
				AvgPerMicrograph: domain.Float(summary.AvgPerMicrograph),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	entries := make([]domain.ComparisonEntry, 0, len(results))
	for _, r := range results {
		if r != nil {
			entries = append(entries, *r)
		}
	}
	return entries, nil
}

// List returns the particle count per micrograph. Sorting by count puts the
// largest first and by name goes A to Z; reverse flips either. Names are
// shortened to their base name.
func (s *AnalysisService) List(ctx context.Context, path string, format dataprocessing.Format, sortBy string, reverse bool) ([]domain.MicrographCount, error) {
	ctx, span := infrastructure.StartSpan(ctx, "AnalysisService.List",
		attribute.String("path", path),
		attribute.String("sort", sortBy))
	defer span.End()

	if sortBy == "" {
		sortBy = SortByCount
	}
	if sortBy != SortByCount && sortBy != SortByName {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unsupported sort key %q (want name or count)", sortBy))
	}

	loaded, err := s.load(ctx, path, format)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	dist := statistics.New(loaded.Table, statistics.Options{MicrographColumn: s.cfg.MicrographColumn}).Distribution()
	if len(dist) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeNoData, "no micrograph information found in "+path, apperrors.ErrNoData)
	}

	if sortBy == SortByName {
		sort.SliceStable(dist, func(i, j int) bool { return dist[i].Name < dist[j].Name })
	}
	if reverse {
		for i, j := 0, len(dist)-1; i < j; i, j = i+1, j-1 {
			dist[i], dist[j] = dist[j], dist[i]
		}
	}

	out := distributionToDomain(dist)
	for i := range out {
		out[i].Name = baseName(out[i].Name)
	}
	return out, nil
}

// Export converts the particle table of input to output in outFormat
func (s *AnalysisService) Export(ctx context.Context, input string, format dataprocessing.Format, output string, outFormat exporter.Format) (*domain.ExportResult, error) {
	ctx, span := infrastructure.StartSpan(ctx, "AnalysisService.Export",
		attribute.String("path", input),
		attribute.String("output_format", string(outFormat)))
	defer span.End()
	defer s.metrics.ObserveDuration("export", time.Now())

	loaded, err := s.load(ctx, input, format)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	outPath, err := s.validator.ValidateOutputFile(output)
	if err != nil {
		return nil, err
	}
	if err := s.writer.Export(outPath, loaded.Table, outFormat); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, apperrors.NewStorageError("export failed", err).WithContext("output", outPath)
	}

	return &domain.ExportResult{
		Input:  loaded.Path,
		Output: outPath,
		Format: string(outFormat),
		Rows:   loaded.Table.Len(),
	}, nil
}

// Sample returns n rows chosen with a fixed seed, in file order. n <= 0
// uses the configured sample size; all rows are returned when n covers the
// table.
func (s *AnalysisService) Sample(ctx context.Context, path string, format dataprocessing.Format, n int, seed *int64) (*domain.SampleResult, error) {
	ctx, span := infrastructure.StartSpan(ctx, "AnalysisService.Sample",
		attribute.String("path", path),
		attribute.Int("n", n))
	defer span.End()

	if n <= 0 {
		n = s.cfg.SampleSize
	}
	sd := s.cfg.SampleSeed
	if seed != nil {
		sd = *seed
	}

	loaded, err := s.load(ctx, path, format)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	indices := SampleIndices(loaded.Table.Len(), n, sd)
	subset, err := loaded.Table.Subset(indices)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, subset.Len())
	for i := range rows {
		rows[i] = jsonSafe(subset.Row(i))
	}
	return &domain.SampleResult{
		File:    loaded.Path,
		Total:   loaded.Table.Len(),
		Seed:    sd,
		Indices: indices,
		Columns: subset.Names(),
		Rows:    rows,
	}, nil
}

// SampleIndices picks min(n, total) distinct row indices with a seeded
// generator and returns them sorted.
func SampleIndices(total, n int, seed int64) []int {
	if n >= total || n <= 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	out := rng.Perm(total)[:n]
	sort.Ints(out)
	return out
}

// Files lists the particle files below dir, which defaults to the data
// directory (or the working directory when none is configured).
func (s *AnalysisService) Files(ctx context.Context, dir string) (string, []domain.ParticleFile, bool, error) {
	ctx, span := infrastructure.StartSpan(ctx, "AnalysisService.Files",
		attribute.String("dir", dir))
	defer span.End()

	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	resolved, err := s.validator.Resolve(dir)
	if err != nil {
		return "", nil, false, err
	}

	found, truncated, err := s.discovery.FindParticleFiles(resolved)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return "", nil, false, apperrors.NewNotFoundError(resolved, err)
	}

	out := make([]domain.ParticleFile, len(found))
	for i, f := range found {
		out[i] = domain.ParticleFile{
			Path:    f.Path,
			Name:    f.Name,
			Format:  string(f.Format),
			Size:    f.Size,
			ModTime: f.ModTime,
		}
	}
	return resolved, out, truncated, nil
}

// load validates the path, parses the file and records parse metrics.
// Tables without rows become a no-data error.
func (s *AnalysisService) load(ctx context.Context, path string, format dataprocessing.Format) (*dataprocessing.Loaded, error) {
	resolved, err := s.validator.ValidateInputFile(path)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = dataprocessing.DetectFormat(resolved)
	}

	loaded, err := dataprocessing.LoadFile(resolved, format, dataprocessing.LoadOptions{
		MicrographColumn: s.cfg.MicrographColumn,
		Delimiter:        s.cfg.Delimiter(),
		Logger:           infrastructure.LoggerWithContext(ctx),
	})
	if err != nil {
		s.metrics.ObserveParse(string(format), "error", 0, 0)
		return nil, err
	}

	if loaded.Table.IsEmpty() {
		s.metrics.ObserveParse(string(format), "empty", 0, loaded.Dropped)
		return nil, apperrors.NewNoDataError(resolved)
	}
	s.metrics.ObserveParse(string(format), "ok", loaded.Table.Len(), loaded.Dropped)
	return loaded, nil
}

func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}

func jsonSafe(row []any) []any {
	for i, v := range row {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			row[i] = nil
		}
	}
	return row
}

func summaryToDomain(s statistics.Summary) domain.SummaryStats {
	return domain.SummaryStats{
		TotalParticles:   s.TotalParticles,
		TotalMicrographs: s.TotalMicrographs,
		AvgPerMicrograph: domain.Float(s.AvgPerMicrograph),
		MinPerMicrograph: s.MinPerMicrograph,
		MaxPerMicrograph: s.MaxPerMicrograph,
		StdPerMicrograph: domain.Float(s.StdPerMicrograph),
	}
}

func distributionToDomain(dist []statistics.GroupCount) []domain.MicrographCount {
	out := make([]domain.MicrographCount, len(dist))
	for i, g := range dist {
		out[i] = domain.MicrographCount{Name: g.Name, Count: g.Count}
	}
	return out
}

func columnStatsToDomain(stats map[string]statistics.ColumnStats) map[string]domain.ColumnStats {
	out := make(map[string]domain.ColumnStats, len(stats))
	for name, cs := range stats {
		d := domain.ColumnStats{
			Mean: domain.Float(cs.Mean),
			Std:  domain.Float(cs.Std),
			Min:  domain.Float(cs.Min),
			Max:  domain.Float(cs.Max),
		}
		if cs.HasMedian {
			m := domain.Float(cs.Median)
			d.Median = &m
		}
		out[name] = d
	}
	return out
}

func heatmapToDomain(h *statistics.Heatmap) *domain.Heatmap {
	return &domain.Heatmap{
		XColumn: h.XColumn,
		YColumn: h.YColumn,
		XEdges:  h.XEdges,
		YEdges:  h.YEdges,
		Counts:  h.Counts,
	}
}
