// Package server assembles the gateway's HTTP surface: the route table,
// the middleware chain, and the server lifecycle.
//
// # Routes
//
//   - POST /v1/chat/completions: chat completions (API key required)
//   - GET  /v1/models: model catalog (API key required)
//   - GET  /health: liveness probe
//   - GET  /ready: readiness probe, following upstream health
//   - GET  /metrics: Prometheus metrics, when enabled
//
// # Middleware chain
//
// Requests pass through recovery, logging, request ID, CORS, and timeout
// middleware, in that order, before reaching the mux. The timeout
// middleware only attaches a deadline to the request context; with the
// default write timeout of zero it is inert, which is what keeps
// long-lived completion streams alive.
//
// # Lifecycle
//
// Start blocks until the context is cancelled, a SIGINT/SIGTERM arrives,
// or the listener fails, then drains in-flight requests for the
// configured shutdown timeout. The upstream client, metrics collector,
// and journal recorder are injected and stay owned by the caller, which
// closes them after Start returns.
package server
