// Package services implements the operations behind both the command line
// and the dashboard API. Handlers translate requests into service calls and
// render what comes back; the services own path validation, parsing,
// statistics and export.
//
// # Available Services
//
//	- AnalysisService: analyze, compare, list, sample and export particle files
//	- HealthService: liveness and readiness checks
//
// Every AnalysisService method takes a context, opens a tracing span and
// returns errors from the internal/errors package so the HTTP layer can map
// them to problem responses. A file without particle rows is reported as a
// NO_DATA error; a missing file as NOT_FOUND.
package services
