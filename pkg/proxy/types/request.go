package types

import "fmt"

// ChatCompletionRequest represents an OpenAI-compatible chat completion request.
// This matches the OpenAI Chat Completions API format so existing OpenAI SDKs
// and tools work against the gateway without modification.
//
// The conversational search backend has no sampling surface, so the sampling
// parameters (temperature, top_p, and friends) are accepted for compatibility
// but not forwarded.
type ChatCompletionRequest struct {
	// Model is the ID of the model to use (e.g., "deepseek-r1", "doubao").
	Model string `json:"model"`

	// Messages is the conversation history as a list of messages.
	Messages []Message `json:"messages"`

	// Stream enables server-sent events (SSE) streaming.
	// Optional, defaults to false.
	Stream bool `json:"stream,omitempty"`

	// Temperature controls randomness in the response (accepted, not forwarded).
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate (accepted, not forwarded).
	MaxTokens *int `json:"max_tokens,omitempty"`

	// TopP controls nucleus sampling (accepted, not forwarded).
	TopP *float64 `json:"top_p,omitempty"`

	// N is the number of completions to generate (accepted, not forwarded).
	N *int `json:"n,omitempty"`

	// Stop is a list of stop sequences (accepted, not forwarded).
	Stop []string `json:"stop,omitempty"`

	// PresencePenalty penalizes repeated topics (accepted, not forwarded).
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`

	// FrequencyPenalty penalizes repeated tokens (accepted, not forwarded).
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`

	// User is a unique identifier for the end-user making the request.
	// Optional, logged for traceability only.
	User string `json:"user,omitempty"`

	// Seed enables deterministic sampling (accepted, not forwarded).
	Seed *int `json:"seed,omitempty"`
}

// Message represents a single message in a conversation.
type Message struct {
	// Role is the author of the message ("system", "user", or "assistant").
	Role string `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content"`
}

// Message role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Validate validates the chat completion request.
// It checks that required fields are present and message roles are supported.
func (r *ChatCompletionRequest) Validate() error {
	if r.Model == "" {
		return &ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}

	if len(r.Messages) == 0 {
		return &ValidationError{
			Field:   "messages",
			Message: "messages must contain at least one message",
		}
	}

	for i, msg := range r.Messages {
		if msg.Role == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: "message role is required",
			}
		}

		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("message role %q is not supported", msg.Role),
			}
		}

		if msg.Content == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Message: "message content is required",
			}
		}
	}

	return nil
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}
