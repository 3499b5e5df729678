package proxy

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/proxy/types"
)

// FinishReasonStop is the finish_reason reported for completed responses.
// The backend always runs to completion, so no other reason is ever emitted.
const FinishReasonStop = "stop"

// NewResponseID generates a chat completion response ID in the OpenAI format
// "chatcmpl-" followed by 32 hex characters. All chunks of one streaming
// response share the ID generated at the start of the response.
func NewResponseID() string {
	id := uuid.New()
	return "chatcmpl-" + hex.EncodeToString(id[:])
}

// NewRoleChunk builds the first chunk of a streaming response. It announces
// the assistant role with no content, so clients can render the message
// container before any text arrives.
func NewRoleChunk(id string, created int64, model string) *types.ChatCompletionStreamChunk {
	return newChunk(id, created, model, types.Delta{Role: types.RoleAssistant}, nil)
}

// NewContentChunk builds a streaming chunk carrying an incremental content
// fragment with an explicit null finish_reason.
func NewContentChunk(id string, created int64, model, content string) *types.ChatCompletionStreamChunk {
	return newChunk(id, created, model, types.Delta{Content: content}, nil)
}

// NewStopChunk builds the terminal chunk of a streaming response: an empty
// delta with finish_reason "stop".
func NewStopChunk(id string, created int64, model string) *types.ChatCompletionStreamChunk {
	reason := FinishReasonStop
	return newChunk(id, created, model, types.Delta{}, &reason)
}

func newChunk(id string, created int64, model string, delta types.Delta, finishReason *string) *types.ChatCompletionStreamChunk {
	return &types.ChatCompletionStreamChunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []types.StreamChoice{
			{
				Index:        0,
				Delta:        delta,
				FinishReason: finishReason,
			},
		},
	}
}

// NewChatCompletionResponse builds a non-streaming chat completion response
// with the full response text as a single assistant message. Usage is
// zero-filled because the backend reports no token counts.
func NewChatCompletionResponse(id string, created int64, model, content string) *types.ChatCompletionResponse {
	return &types.ChatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: created,
		Model:   model,
		Choices: []types.Choice{
			{
				Index: 0,
				Message: types.ResponseMessage{
					Role:    types.RoleAssistant,
					Content: content,
				},
				FinishReason: FinishReasonStop,
			},
		},
		Usage: types.Usage{},
	}
}

// WriteJSONResponse writes a JSON response to the HTTP response writer.
// It sets the appropriate content-type header and handles marshaling errors.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteErrorResponse writes an OpenAI-compatible error response.
// It extracts the appropriate HTTP status code from the error type.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	statusCode := errResp.Error.HTTPStatusCode()
	return WriteJSONResponse(w, statusCode, errResp)
}

// WriteSSEChunk writes a single chunk in Server-Sent Events format.
// Each chunk is formatted as:
//
//	data: {"id":"chatcmpl-...","object":"chat.completion.chunk",...}
//
// Followed by two newlines (\n\n) and flushed immediately.
func WriteSSEChunk(w http.ResponseWriter, chunk *types.ChatCompletionStreamChunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE chunk: %w", err)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write SSE chunk: %w", err)
	}

	// Flush immediately for real-time streaming
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	return nil
}

// WriteSSEDone writes the final "[DONE]" marker for SSE streams.
// This signals to the client that the stream has completed.
func WriteSSEDone(w http.ResponseWriter) error {
	if _, err := fmt.Fprint(w, "data: [DONE]\n\n"); err != nil {
		return fmt.Errorf("failed to write SSE done marker: %w", err)
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	return nil
}

// SetSSEHeaders sets the appropriate headers for Server-Sent Events streaming.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}
