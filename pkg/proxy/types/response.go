package types

// ChatCompletionResponse represents an OpenAI-compatible chat completion response.
// This is returned for non-streaming requests.
type ChatCompletionResponse struct {
	// ID is a unique identifier for the chat completion.
	ID string `json:"id"`

	// Object is always "chat.completion".
	Object string `json:"object"`

	// Created is the Unix timestamp (seconds since epoch) of when the completion was created.
	Created int64 `json:"created"`

	// Model is the model used for the completion.
	Model string `json:"model"`

	// Choices is a list of completion choices (always exactly one).
	Choices []Choice `json:"choices"`

	// Usage contains token usage statistics.
	// The backend does not report token counts, so all fields are zero.
	Usage Usage `json:"usage"`
}

// Choice represents a single completion choice.
type Choice struct {
	// Index is the index of this choice in the list of choices.
	Index int `json:"index"`

	// Message is the generated message.
	Message ResponseMessage `json:"message"`

	// FinishReason explains why the model stopped generating tokens.
	// Always "stop" for completed responses.
	FinishReason string `json:"finish_reason"`
}

// ResponseMessage is the assistant message in a completed response.
type ResponseMessage struct {
	// Role is always "assistant".
	Role string `json:"role"`

	// Content is the full response text, including any <think> reasoning span.
	Content string `json:"content"`
}

// Usage contains token usage statistics.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens (prompt + completion).
	TotalTokens int `json:"total_tokens"`
}

// ChatCompletionStreamChunk represents a chunk in a streaming response.
// This is sent as Server-Sent Events (SSE) when stream=true.
type ChatCompletionStreamChunk struct {
	// ID is a unique identifier for the chat completion.
	// All chunks of one response share the same ID.
	ID string `json:"id"`

	// Object is always "chat.completion.chunk".
	Object string `json:"object"`

	// Created is the Unix timestamp (seconds since epoch) of when the response started.
	Created int64 `json:"created"`

	// Model is the model used for the completion.
	Model string `json:"model"`

	// Choices is a list of streaming choices (always exactly one).
	Choices []StreamChoice `json:"choices"`
}

// StreamChoice represents a single choice in a streaming response.
type StreamChoice struct {
	// Index is the index of this choice in the list of choices.
	Index int `json:"index"`

	// Delta contains incremental content.
	Delta Delta `json:"delta"`

	// FinishReason explains why the model stopped generating tokens.
	// Serialized as an explicit null on every chunk except the final one,
	// which carries "stop". Some OpenAI clients require the key to be present.
	FinishReason *string `json:"finish_reason"`
}

// Delta contains incremental content in a streaming response.
type Delta struct {
	// Role is the role of the message author (only in the first chunk).
	Role string `json:"role,omitempty"`

	// Content is the incremental text content.
	Content string `json:"content,omitempty"`
}
