// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// This package implements middleware functions that handle common functionality
// across all HTTP requests including request ID generation, logging, CORS,
// panic recovery, and timeout propagation.
//
// # Middleware Chain
//
// Middleware functions are chained in a specific order:
//
//	handler = Recovery(Logging(RequestID(CORS(Timeout(handler)))))
//
// Order (innermost to outermost):
//  1. Timeout: Attach per-request deadline (disabled by default)
//  2. CORS: Add Cross-Origin Resource Sharing headers
//  3. RequestID: Generate and propagate request ID
//  4. Logging: Log request/response details
//  5. Recovery: Recover from panics
//
// # Request ID
//
// RequestIDMiddleware generates a unique ID for each request (32 hex chars)
// unless the client supplies one in X-Request-ID:
//
//	X-Request-ID: 550e8400e29b41d4a716446655440000
//
// The request ID is:
//   - Added to context (via pkg/telemetry/logging) for handler access
//   - Included in response headers
//   - Logged with all request/response logs
//
// # Logging
//
// LoggingMiddleware uses structured logging (log/slog) to record request details:
//
//	{
//	  "time": "2026-08-24T10:30:00Z",
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "POST",
//	  "path": "/v1/chat/completions",
//	  "status": 200,
//	  "latency_ms": 1250,
//	  "request_id": "550e8400e29b41d4a716446655440000",
//	  "user_agent": "openai-python/1.0.0"
//	}
//
// The response writer wrapper forwards http.Flusher, so wrapping an SSE
// response does not break streaming.
//
// # CORS
//
// CORSMiddleware adds Cross-Origin Resource Sharing headers for web clients:
//
//	Access-Control-Allow-Origin: https://example.com
//	Access-Control-Allow-Methods: GET, POST, OPTIONS
//	Access-Control-Allow-Headers: Authorization, Content-Type, X-Request-ID
//	Access-Control-Max-Age: 3600
//
// CORS defaults to enabled with a wildcard origin; browser-based chat UIs
// are a primary consumer of the gateway.
//
// # Timeout
//
// TimeoutMiddleware only attaches a context deadline. It never writes a
// response of its own, because racing the handler for the response writer
// corrupts SSE streams. Handlers observe ctx.Done() and terminate their
// own output.
package middleware
