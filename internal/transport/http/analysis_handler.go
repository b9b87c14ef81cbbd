package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"pickstats/internal/dataprocessing"
	apierrors "pickstats/internal/errors"
	"pickstats/internal/exporter"
	"pickstats/internal/middleware"
	"pickstats/internal/services"
	api "pickstats/pkg/contracts/api/v1"
	"pickstats/pkg/contracts/domain"
)

// AnalysisService is the part of services.AnalysisService the handlers use
type AnalysisService interface {
	Analyze(ctx context.Context, req services.AnalyzeRequest) (*domain.AnalysisReport, error)
	Compare(ctx context.Context, paths []string, format dataprocessing.Format) ([]domain.ComparisonEntry, error)
	List(ctx context.Context, path string, format dataprocessing.Format, sortBy string, reverse bool) ([]domain.MicrographCount, error)
	Sample(ctx context.Context, path string, format dataprocessing.Format, n int, seed *int64) (*domain.SampleResult, error)
	Export(ctx context.Context, input string, format dataprocessing.Format, output string, outFormat exporter.Format) (*domain.ExportResult, error)
	Files(ctx context.Context, dir string) (string, []domain.ParticleFile, bool, error)
}

// AnalysisHandler serves the particle analysis endpoints
type AnalysisHandler struct {
	service      AnalysisService
	validator    *middleware.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:      service,
		validator:    middleware.NewRequestValidator(),
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// Routes registers the analysis endpoints on r
func (h *AnalysisHandler) Routes(r chi.Router) {
	r.Post("/analyze", h.Analyze)
	r.Post("/compare", h.Compare)
	r.Get("/micrographs", h.Micrographs)
	r.Get("/files", h.Files)
	r.Post("/sample", h.Sample)
	r.Post("/export", h.Export)
}

// Analyze handles POST /api/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Analyze(r.Context(), services.AnalyzeRequest{
		Path:    req.Path,
		Format:  dataprocessing.Format(req.Format),
		BinSize: req.BinSize,
		Verbose: req.Verbose,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Compare handles POST /api/compare
func (h *AnalysisHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req api.CompareRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	entries, err := h.service.Compare(r.Context(), req.Paths, dataprocessing.Format(req.Format))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.CompareResponse{Files: entries})
}

// Micrographs handles GET /api/micrographs?path=...&sort=count&reverse=false
func (h *AnalysisHandler) Micrographs(w http.ResponseWriter, r *http.Request) {
	var req api.MicrographsRequest
	if err := h.validator.DecodeQuery(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	counts, err := h.service.List(r.Context(), req.Path, dataprocessing.Format(req.Format), req.Sort, req.Reverse)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.MicrographsResponse{File: req.Path, Micrographs: counts})
}

// Files handles GET /api/files?dir=...
func (h *AnalysisHandler) Files(w http.ResponseWriter, r *http.Request) {
	var req api.FilesRequest
	if err := h.validator.DecodeQuery(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	dir, found, truncated, err := h.service.Files(r.Context(), req.Dir)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.FilesResponse{Directory: dir, Files: found, Truncated: truncated})
}

// Sample handles POST /api/sample
func (h *AnalysisHandler) Sample(w http.ResponseWriter, r *http.Request) {
	var req api.SampleRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Sample(r.Context(), req.Path, dataprocessing.Format(req.Format), req.N, req.Seed)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Export handles POST /api/export
func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	outFormat, err := exporter.ParseFormat(req.OutputFormat)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("output_format", err.Error()))
		return
	}

	result, err := h.service.Export(r.Context(), req.Path, dataprocessing.Format(req.Format), req.Output, outFormat)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Export written",
		slog.String("output", result.Output),
		slog.Int("rows", result.Rows))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}
