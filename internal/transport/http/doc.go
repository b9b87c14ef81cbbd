// Package http implements the dashboard API handlers. Handlers decode and
// validate requests, call the services layer and render the result as JSON;
// every failure goes through the RFC 7807 error handler.
//
// Routes mounted under /api:
//
//	GET  /health              liveness summary
//	GET  /health/ready        data directory readiness
//	GET  /version             build information
//	POST /analyze             statistics of one file
//	POST /compare             summary rows for several files
//	GET  /micrographs         particle counts per micrograph
//	GET  /files               particle files below the data directory
//	POST /sample              fixed-seed subset of rows for scatter plots
//	POST /export              convert a file to csv, json or xlsx
package http
