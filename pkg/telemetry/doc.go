// Package telemetry groups the observability subpackages.
//
// Components:
//
//   - logging: process-wide slog setup with a live-adjustable level
//   - metrics: Prometheus metrics for requests, backend calls, and the
//     journal
//
// Both are configured from the telemetry section of the gateway config.
package telemetry
