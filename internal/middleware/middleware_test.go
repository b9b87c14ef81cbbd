package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pickstats/internal/errors"
	"pickstats/internal/infrastructure"
	logtest "pickstats/internal/shared/testutil"
	api "pickstats/pkg/contracts/api/v1"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		assert.Equal(t, seen, infrastructure.GetTraceID(r.Context()))
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestRecoverer(t *testing.T) {
	logger, handler := logtest.NewTestLogger(t)
	h := Recoverer(apperrors.NewErrorHandler(logger, false))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "json")
	assert.True(t, handler.ContainsMessage("panic recovered"))
}

func TestRateLimiter(t *testing.T) {
	logger, _ := logtest.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 1, apperrors.NewErrorHandler(logger, false), logger)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	m := infrastructure.NewMetrics()
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/files/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, name := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/files/"+name, nil))
	}
	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/files/{name}", "200")))
}

func TestTracingKeepsRequestIDWithoutProvider(t *testing.T) {
	var traceID string
	h := RequestID(Tracing(nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traceID = infrastructure.GetTraceID(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "req-1", traceID)
}

func TestRequestValidator_DecodeJSON(t *testing.T) {
	v := NewRequestValidator()

	tests := []struct {
		name     string
		body     string
		wantCode string
		fields   []string
	}{
		{"valid", `{"path":"run.star","format":"star","bin_size":50}`, "", nil},
		{"missing path", `{"format":"star"}`, "VALIDATION_FAILED", []string{"path"}},
		{"bad format and bin", `{"path":"a","format":"mrc","bin_size":-1}`, "VALIDATION_FAILED", []string{"format", "bin_size"}},
		{"invalid json", `{"path":`, "INVALID_JSON", nil},
		{"empty body", ``, "INVALID_REQUEST", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst api.AnalyzeRequest
			err := v.DecodeJSON(httptest.NewRecorder(), req, &dst)

			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "run.star", dst.Path)
				assert.Equal(t, 50.0, dst.BinSize)
				return
			}

			var apiErr *apperrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
			if tt.fields != nil {
				details, ok := apiErr.Details.([]apperrors.ValidationError)
				require.True(t, ok)
				got := make([]string, len(details))
				for i, d := range details {
					got[i] = d.Field
				}
				assert.ElementsMatch(t, tt.fields, got)
			}
		})
	}
}

func TestRequestValidator_DecodeQuery(t *testing.T) {
	v := NewRequestValidator()

	req := httptest.NewRequest(http.MethodGet, "/?path=a.star&sort=name&reverse=true", nil)
	var dst api.MicrographsRequest
	require.NoError(t, v.DecodeQuery(req, &dst))
	assert.Equal(t, api.MicrographsRequest{Path: "a.star", Sort: "name", Reverse: true}, dst)

	req = httptest.NewRequest(http.MethodGet, "/?path=a.star&reverse=maybe", nil)
	err := v.DecodeQuery(req, &api.MicrographsRequest{})
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/?sort=size", nil)
	err = v.DecodeQuery(req, &api.MicrographsRequest{})
	require.ErrorAs(t, err, &apiErr)
	body, _ := json.Marshal(apiErr.Details)
	assert.Contains(t, string(body), "path is required")
	assert.Contains(t, string(body), "sort must be one of: name, count")
}
