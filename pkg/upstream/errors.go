package upstream

import "fmt"

// SessionError represents a conversation creation failure.
// This occurs when the create endpoint returns a non-200 status or a
// response with success=false.
type SessionError struct {
	// StatusCode is the HTTP status returned by the create endpoint
	// (0 when the HTTP exchange itself succeeded but the envelope was
	// rejected)
	StatusCode int

	// Message describes the failure
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("conversation create failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("conversation create failed: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *SessionError) Unwrap() error {
	return e.Cause
}

// StatusError represents a non-200 response from an upstream endpoint.
type StatusError struct {
	// Endpoint is the path that returned the error
	Endpoint string

	// StatusCode is the HTTP status code
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Endpoint, e.StatusCode)
}

// StreamError represents a failure while reading the chat event stream
// after the upstream accepted the request.
type StreamError struct {
	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream stream error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream stream error: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// ParseError represents a malformed upstream response body.
type ParseError struct {
	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("upstream response parse error: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
