package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickstats/internal/config"
	apierrors "pickstats/internal/errors"
	"pickstats/internal/services"
	"pickstats/internal/shared/testutil"
	api "pickstats/pkg/contracts/api/v1"
	"pickstats/pkg/contracts/domain"
)

func newTestRouter(t *testing.T) (http.Handler, map[string]string) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	files := testutil.SampleFiles(t)

	svc := services.NewAnalysisService(config.AnalysisConfig{
		MicrographColumn: "MicrographName",
		BinSize:          100,
		SampleSize:       3,
		SampleSeed:       42,
		CompareWorkers:   2,
		TabularDelimiter: ",",
	}, "", nil, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewAnalysisHandler(svc, logger, apierrors.NewErrorHandler(logger, false)).Routes(r)
		health := NewHealthHandler(services.NewHealthService("1.0.0", "", logger), logger)
		r.Get("/health", health.HealthCheck)
		r.Get("/health/ready", health.ReadinessCheck)
	})
	return r, files
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestAnalyzeEndpoint(t *testing.T) {
	h, files := newTestRouter(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantType   string
	}{
		{"star", api.AnalyzeRequest{Path: files["star"], Verbose: true}, http.StatusOK, ""},
		{"missing path field", map[string]any{"verbose": true}, http.StatusBadRequest, apierrors.TypeValidation},
		{"unknown format", api.AnalyzeRequest{Path: files["star"], Format: "mrc"}, http.StatusBadRequest, apierrors.TypeValidation},
		{"bin size too small", api.AnalyzeRequest{Path: files["star"], Verbose: true, BinSize: 1e-9}, http.StatusBadRequest, apierrors.TypeValidation},
		{"missing file", api.AnalyzeRequest{Path: filepath.Join(t.TempDir(), "gone.star")}, http.StatusNotFound, apierrors.TypeDataNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/analyze", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, decodeProblem(t, rec)["type"])
				return
			}

			var report domain.AnalysisReport
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.Equal(t, 4, report.Summary.TotalParticles)
			assert.Equal(t, 2, report.Summary.TotalMicrographs)
			assert.Len(t, report.Distribution, 2)
			require.NotNil(t, report.Heatmap)
		})
	}
}

func TestAnalyzeEndpointNoData(t *testing.T) {
	h, _ := newTestRouter(t)
	empty := testutil.WriteFixture(t, t.TempDir(), "empty.box", "")

	rec := postJSON(t, h, "/api/analyze", api.AnalyzeRequest{Path: empty})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apierrors.TypeNoData, decodeProblem(t, rec)["type"])
}

func TestCompareEndpoint(t *testing.T) {
	h, files := newTestRouter(t)

	rec := postJSON(t, h, "/api/compare", api.CompareRequest{Paths: []string{files["star"], files["csv"]}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.CompareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 2)
	assert.Equal(t, files["star"], resp.Files[0].File)

	rec = postJSON(t, h, "/api/compare", api.CompareRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMicrographsEndpoint(t *testing.T) {
	h, files := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/micrographs?sort=name&reverse=true&path="+files["star"], nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.MicrographsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Micrographs, 2)
	assert.Equal(t, "micrograph_002.mrc", resp.Micrographs[0].Name)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/micrographs", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSampleEndpoint(t *testing.T) {
	h, files := newTestRouter(t)

	rec := postJSON(t, h, "/api/sample", api.SampleRequest{Path: files["csv"], N: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result domain.SampleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 4, result.Total)
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, []string{"CoordinateX", "CoordinateY", "MicrographName"}, result.Columns)
}

func TestExportEndpoint(t *testing.T) {
	h, files := newTestRouter(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	rec := postJSON(t, h, "/api/export", api.ExportRequest{Path: files["box"], Output: out})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result domain.ExportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 4, result.Rows)
	assert.Equal(t, "csv", result.Format)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "x,y,width,height")
}

func TestFilesEndpoint(t *testing.T) {
	h, files := newTestRouter(t)
	dir := filepath.Dir(files["star"])

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files?dir="+dir, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.FilesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, dir, resp.Directory)
	require.Len(t, resp.Files, 3)
	assert.Equal(t, "test.box", resp.Files[0].Name)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files?dir="+filepath.Join(dir, "gone"), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, path := range []string{"/api/health", "/api/health/ready"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
