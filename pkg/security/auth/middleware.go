package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"mercator-hq/ganymede/pkg/proxy/types"
)

// Middleware is HTTP middleware for API key authentication.
type Middleware struct {
	validator *Validator
}

// NewMiddleware creates a new API key authentication middleware.
func NewMiddleware(validator *Validator) *Middleware {
	return &Middleware{validator: validator}
}

// Handle wraps an HTTP handler with API key authentication. Unauthenticated
// requests receive an OpenAI-format 401 error.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := extractAPIKey(r)

		if err := m.validator.Validate(apiKey); err != nil {
			slog.WarnContext(r.Context(), "authentication failed",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
				"key_presented", apiKey != "",
			)
			writeUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractAPIKey pulls the API key from the Authorization header. Both the
// OpenAI "Bearer <key>" convention and a bare key are accepted; some client
// tooling sends the key without a scheme.
func extractAPIKey(r *http.Request) string {
	value := strings.TrimSpace(r.Header.Get("Authorization"))
	if value == "" {
		return ""
	}

	if rest, ok := strings.CutPrefix(value, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}

	return value
}

// writeUnauthorized writes an OpenAI-compatible 401 response.
func writeUnauthorized(w http.ResponseWriter) {
	errResp := types.NewAuthenticationError(
		"Invalid API key provided. You can find your API key in the gateway configuration.",
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(errResp)
}
