package handlers

import (
	"context"

	"mercator-hq/ganymede/pkg/upstream"
)

// UpstreamClient is the slice of the upstream client the handlers use.
// *upstream.Client implements it.
type UpstreamClient interface {
	// CreateConversation opens a conversation for the device identity and
	// backend model, returning the conversation ID.
	CreateConversation(ctx context.Context, deviceID, model string, options []string) (string, error)

	// StreamChat posts a question into an existing conversation and
	// returns the event stream. The caller must close the stream.
	StreamChat(ctx context.Context, params upstream.ChatParams) (*upstream.ChatStream, error)

	// Healthy reports whether recent upstream calls are succeeding.
	Healthy() bool
}
