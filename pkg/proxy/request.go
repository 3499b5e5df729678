package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/ganymede/pkg/proxy/types"
)

// MaxRequestBodySize is the maximum allowed request body size (10MB).
const MaxRequestBodySize = 10 * 1024 * 1024

// ParseChatCompletionRequest parses an HTTP request body into a ChatCompletionRequest.
// It validates the JSON format, enforces size limits, and validates required fields.
//
// The request body is limited to MaxRequestBodySize to prevent memory exhaustion.
// If the body exceeds this limit, an error is returned.
//
// Example usage:
//
//	req, err := ParseChatCompletionRequest(r)
//	if err != nil {
//	    // Handle validation error
//	    return err
//	}
func ParseChatCompletionRequest(r *http.Request) (*types.ChatCompletionRequest, error) {
	// Enforce request body size limit
	limitedReader := io.LimitReader(r.Body, MaxRequestBodySize)

	// Read the request body
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	// Check if body exceeded size limit
	if len(body) >= MaxRequestBodySize {
		return nil, &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", MaxRequestBodySize),
			Code:    types.CodeRequestTooLarge,
			Param:   "body",
		}
	}

	// Parse JSON
	var req types.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}

	// Validate required fields
	if err := req.Validate(); err != nil {
		if valErr, ok := err.(*types.ValidationError); ok {
			return nil, &RequestError{
				Message: valErr.Message,
				Code:    types.CodeInvalidValue,
				Param:   valErr.Field,
			}
		}
		return nil, err
	}

	return &req, nil
}

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Code    string
	Param   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to an OpenAI-compatible error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}
