package proxy

import (
	"errors"
	"fmt"

	"mercator-hq/ganymede/pkg/proxy/types"
	"mercator-hq/ganymede/pkg/upstream"
)

// HandleError converts various error types to OpenAI-compatible error responses.
// It maps upstream errors, validation errors, and internal errors to appropriate
// HTTP status codes and error formats.
//
// Example usage:
//
//	if err != nil {
//	    errResp := HandleError(err)
//	    WriteErrorResponse(w, errResp)
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	// Check for RequestError (parsing and validation errors)
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	// Conversation creation failures
	var sessionErr *upstream.SessionError
	if errors.As(err, &sessionErr) {
		return types.NewErrorResponse(
			fmt.Sprintf("Failed to create conversation: %s", sessionErr.Message),
			types.ErrorTypeServerError,
			"",
			types.CodeSessionCreateFailed,
		)
	}

	// Non-200 responses from the chat endpoint
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		return types.NewUpstreamError(UpstreamStatusMessage(statusErr.StatusCode))
	}

	// Stream read failures after the upstream accepted the request
	var streamErr *upstream.StreamError
	if errors.As(err, &streamErr) {
		return types.NewUpstreamError(
			fmt.Sprintf("Upstream stream failed: %s", streamErr.Message),
		)
	}

	// Malformed upstream response bodies
	var parseErr *upstream.ParseError
	if errors.As(err, &parseErr) {
		return types.NewUpstreamError("Failed to parse upstream response")
	}

	// Default to internal server error for unknown errors
	return types.NewServerError(
		"An internal error occurred. Please try again later.",
	)
}

// UpstreamStatusMessage is the client-facing message for a non-200 status
// from the upstream chat endpoint. The same text is used for the 500 detail
// in non-streaming mode and as the error fragment content in streaming mode,
// so both modes report the failure identically.
func UpstreamStatusMessage(statusCode int) string {
	return fmt.Sprintf("Unable to fetch response from API, status code: %d", statusCode)
}
