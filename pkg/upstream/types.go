package upstream

// Wire types for the upstream envelope. Field order matters: struct fields
// marshal in declaration order, and the signature is computed over the
// serialized bytes, so the order here mirrors the payloads the upstream's
// own web client sends.

// createRequest is the body of the conversation create call.
type createRequest struct {
	MetaData    createMetaData `json:"metaData"`
	IsAnonymous bool           `json:"isAnonymous"`
}

type createMetaData struct {
	WriteCode       string          `json:"writeCode"`
	ChatModelConfig chatModelConfig `json:"chatModelConfig"`
}

type chatModelConfig struct {
	Model   string   `json:"model"`
	Options []string `json:"options"`
}

// createResponse is the envelope returned by the create endpoint.
type createResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ConversationID string `json:"conversationId"`
	} `json:"data"`
}

// chatRequest is the body of the chat call.
type chatRequest struct {
	Role           string     `json:"role"`
	Stream         bool       `json:"stream"`
	BotCode        string     `json:"botCode"`
	UserAction     string     `json:"userAction"`
	Model          string     `json:"model"`
	ConversationID string     `json:"conversationId"`
	Question       string     `json:"question"`
	AnonymousKey   string     `json:"anonymousKey"`
	ChatOption     chatOption `json:"chatOption"`
	Files          []string   `json:"files"`
	Status         string     `json:"status"`
	AgentID        string     `json:"agentId"`
}

// chatOption carries the chat flags. WriteCode is a pointer because the
// upstream expects an explicit JSON null there, not an empty string.
type chatOption struct {
	WriteCode       *string `json:"writeCode"`
	SearchKnowledge bool    `json:"searchKnowledge"`
}

// ChatEvent is one server-sent event from the chat stream. ContentType is
// one of "thinking", "text", or "card"; other values occur and are ignored
// by consumers.
type ChatEvent struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// ChatParams identifies one chat call against an existing conversation.
type ChatParams struct {
	// DeviceID is the device identity used to create the conversation
	DeviceID string

	// ConversationID is the upstream conversation to post into
	ConversationID string

	// Model is the backend model name (already resolved from the public ID)
	Model string

	// UserAction is the comma-joined action flags for the model
	UserAction string

	// Question is the flattened conversation text
	Question string
}
