// Package types defines OpenAI-compatible request and response types for the gateway.
//
// This package contains all data transfer objects (DTOs) used for HTTP
// request/response handling. The types match the OpenAI Chat Completions API
// format, ensuring compatibility with existing OpenAI SDKs and tools.
//
// # Core Types
//
// Request types:
//   - ChatCompletionRequest: Main request body for /v1/chat/completions
//   - Message: Individual message in conversation history
//
// Response types:
//   - ChatCompletionResponse: Non-streaming response format
//   - ChatCompletionStreamChunk: Streaming response chunk (SSE)
//   - Choice: Individual completion choice
//   - Delta: Incremental content in streaming responses
//   - Usage: Token usage statistics (always zero, the backend reports none)
//   - ModelList, Model: /v1/models listing
//
// Error types:
//   - ErrorResponse: OpenAI-compatible error response
//   - ErrorDetail: Error details with type, message, param, code
//
// # OpenAI Compatibility
//
// All types match the OpenAI API wire format, allowing clients to use
// standard OpenAI SDKs without modification:
//
//	# Python OpenAI SDK
//	from openai import OpenAI
//	client = OpenAI(base_url="http://localhost:8000/v1")
//	response = client.chat.completions.create(
//	    model="deepseek-r1",
//	    messages=[{"role": "user", "content": "Hello!"}]
//	)
//
// Two deliberate deviations from mainstream providers:
//
//   - StreamChoice.FinishReason has no omitempty tag. Every chunk carries an
//     explicit "finish_reason": null until the terminal chunk's "stop". Some
//     clients key their end-of-stream handling on the field being present.
//   - Usage is zero-filled rather than omitted. The backend exposes no token
//     accounting, and clients tolerate zeros better than a missing object.
//
// # Validation
//
// ChatCompletionRequest.Validate ensures required fields are present and
// message roles are supported. Validation failures surface to clients as
// OpenAI-format 400 errors.
package types
