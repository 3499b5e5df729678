package middleware

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"mercator-hq/ganymede/pkg/telemetry/logging"
)

var requestIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestRequestIDMiddleware_Generates(t *testing.T) {
	var seenID string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !requestIDPattern.MatchString(seenID) {
		t.Errorf("generated request ID = %q, want 32 hex chars", seenID)
	}
	if got := w.Header().Get(RequestIDHeader); got != seenID {
		t.Errorf("response header ID = %q, want %q", got, seenID)
	}
}

func TestRequestIDMiddleware_HonorsClientID(t *testing.T) {
	var seenID string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if seenID != "client-supplied-id" {
		t.Errorf("request ID = %q, want client-supplied-id", seenID)
	}
	if got := w.Header().Get(RequestIDHeader); got != "client-supplied-id" {
		t.Errorf("response header ID = %q, want client-supplied-id", got)
	}
}

func TestRequestIDMiddleware_UniquePerRequest(t *testing.T) {
	ids := make(map[string]bool)
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[logging.GetRequestID(r.Context())] = true
	}))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(ids) != 10 {
		t.Errorf("got %d unique IDs for 10 requests", len(ids))
	}
}
