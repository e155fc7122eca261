// Package server exposes detection and cleaning over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /v1/cleaners
//	POST /v1/detect        {"text": "...", "cleaners": ["email"]}
//	POST /v1/clean         {"text": "...", "strategy": "replace"}
//	POST /v1/batch/detect  {"texts": ["..."]}
//	POST /v1/batch/clean   {"texts": ["..."], "strategy": "redact"}
//	GET  /metrics          when a Prometheus exporter is configured
//
// "cleaners" is optional everywhere and takes "all", a name, or a list of
// names. Errors are application/problem+json documents.
package server
