package types

// ErrorResponse represents an OpenAI-compatible error response.
// This is returned for all error conditions to ensure compatibility with
// OpenAI SDKs and tools.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	// Possible values: "invalid_request_error", "authentication_error",
	// "not_found", "server_error".
	Type string `json:"type"`

	// Param is the name of the parameter that caused the error (if applicable).
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error type constants matching OpenAI API specification.
const (
	// ErrorTypeInvalidRequest indicates a client-side error (400, 405).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeAuthentication indicates an authentication failure (401).
	ErrorTypeAuthentication = "authentication_error"

	// ErrorTypeNotFound indicates a resource was not found (404).
	ErrorTypeNotFound = "not_found"

	// ErrorTypeServerError indicates an internal or upstream failure (500).
	ErrorTypeServerError = "server_error"
)

// Error code constants for common error scenarios.
const (
	// CodeMissingField indicates a required field is missing.
	CodeMissingField = "missing_field"

	// CodeInvalidValue indicates a field has an invalid value.
	CodeInvalidValue = "invalid_value"

	// CodeInvalidJSON indicates the request body is not valid JSON.
	CodeInvalidJSON = "invalid_json"

	// CodeRequestTooLarge indicates the request payload is too large.
	CodeRequestTooLarge = "request_too_large"

	// CodeMethodNotAllowed indicates an unsupported HTTP method.
	CodeMethodNotAllowed = "method_not_allowed"

	// CodeInvalidAPIKey indicates a missing or wrong API key.
	CodeInvalidAPIKey = "invalid_api_key"

	// CodeSessionCreateFailed indicates the upstream conversation could not be created.
	CodeSessionCreateFailed = "session_create_failed"

	// CodeUpstreamError indicates an error from the conversational search backend.
	CodeUpstreamError = "upstream_error"

	// CodeInternalError indicates an internal server error.
	CodeInternalError = "internal_error"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewAuthenticationError creates an error response for failed authentication (401).
func NewAuthenticationError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeAuthentication, "", CodeInvalidAPIKey)
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeInternalError)
}

// NewUpstreamError creates an error response for backend failures (500).
func NewUpstreamError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeUpstreamError)
}

// HTTPStatusCode returns the appropriate HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return 400
	case ErrorTypeAuthentication:
		return 401
	case ErrorTypeNotFound:
		return 404
	case ErrorTypeServerError:
		return 500
	default:
		return 500
	}
}
