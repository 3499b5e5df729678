package logging

import (
	"context"
)

// contextKey is the private type for context keys defined by this package.
type contextKey string

// requestIDKey is the context key for request IDs.
const requestIDKey contextKey = "request_id"

// WithRequestID returns a copy of ctx carrying the given request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context, or "" when unset.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// ContextAttrs extracts known fields from ctx as slog key-value pairs,
// suitable for passing to Logger.With or the slog package functions.
func ContextAttrs(ctx context.Context) []any {
	var fields []any

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}

	return fields
}
