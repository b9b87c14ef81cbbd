package infrastructure

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for parsing and analysis
type Metrics struct {
	registry *prometheus.Registry

	FilesParsed      *prometheus.CounterVec
	RowsAccepted     *prometheus.CounterVec
	RowsDropped      *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
}

// NewMetrics registers the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pickstats_files_parsed_total",
			Help: "Particle files parsed, by format and outcome",
		}, []string{"format", "outcome"}),
		RowsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pickstats_rows_accepted_total",
			Help: "Particle rows accepted by the parsers",
		}, []string{"format"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pickstats_rows_dropped_total",
			Help: "Malformed rows skipped by the parsers",
		}, []string{"format"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pickstats_analysis_duration_seconds",
			Help:    "Time spent loading and analysing one file",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pickstats_http_requests_total",
			Help: "Dashboard API requests by route and status",
		}, []string{"route", "status"}),
	}

	m.registry.MustRegister(
		m.FilesParsed,
		m.RowsAccepted,
		m.RowsDropped,
		m.AnalysisDuration,
		m.HTTPRequests,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveParse records the outcome of one parse
func (m *Metrics) ObserveParse(format, outcome string, accepted, dropped int) {
	if m == nil {
		return
	}
	m.FilesParsed.WithLabelValues(format, outcome).Inc()
	m.RowsAccepted.WithLabelValues(format).Add(float64(accepted))
	m.RowsDropped.WithLabelValues(format).Add(float64(dropped))
}

// ObserveDuration records how long an operation took
func (m *Metrics) ObserveDuration(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.AnalysisDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
