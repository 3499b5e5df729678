package types

// ModelList represents the OpenAI-compatible /v1/models response.
type ModelList struct {
	// Object is always "list".
	Object string `json:"object"`

	// Data is the list of available models.
	Data []Model `json:"data"`
}

// Model represents a single model in a /v1/models response.
type Model struct {
	// ID is the public model identifier (e.g., "deepseek-r1-search").
	ID string `json:"id"`

	// Object is always "model".
	Object string `json:"object"`

	// Created is the Unix timestamp of when the listing was generated.
	Created int64 `json:"created"`

	// OwnedBy identifies the model owner. Always "dangbei".
	OwnedBy string `json:"owned_by"`
}

// ModelOwner is the owner reported for every catalog model.
const ModelOwner = "dangbei"
