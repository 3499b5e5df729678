package middleware

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware attaches a deadline to the request context. Handlers and
// the upstream client observe the deadline through ctx.Done() and abort their
// work when it expires.
//
// The middleware deliberately does not race a second goroutine against the
// handler to write a timeout response: with SSE the response is usually
// already in flight when a deadline expires, and a competing writer would
// corrupt the stream. The handler that observes the expired context decides
// how to end its own response.
//
// A zero or negative timeout disables the deadline entirely. Chat responses
// can legitimately run for many minutes, so the default configuration runs
// without one.
//
// Example usage:
//
//	handler = TimeoutMiddleware(60 * time.Second)(handler)
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
