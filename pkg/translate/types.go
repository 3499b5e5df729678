package translate

// Role values for conversation messages.
const (
	// RoleSystem identifies system instruction messages.
	RoleSystem = "system"

	// RoleUser identifies end-user messages.
	RoleUser = "user"

	// RoleAssistant identifies model-generated messages.
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation. Immutable once received; the
// translation layer never mutates message content in place.
type Message struct {
	// Role is one of the Role* constants.
	Role string

	// Content is the message text.
	Content string
}

// Upstream event content types recognized by the Segmenter. Any other value
// is ignored.
const (
	// ContentThinking marks reasoning-trace content.
	ContentThinking = "thinking"

	// ContentText marks answer-body content.
	ContentText = "text"

	// ContentCard marks a structured reference-card payload (JSON string).
	ContentCard = "card"
)

// Event is one decoded line of the upstream stream.
type Event struct {
	// Type is the upstream content_type discriminator.
	Type string

	// Content is the raw content value, possibly empty.
	Content string
}

// Fragment is one unit of normalized output produced by the Segmenter:
// either literal text to append to the assistant message, or the terminal
// stop marker.
type Fragment struct {
	// Content is the literal text of this fragment. Empty for the stop marker.
	Content string

	// Stop marks the terminal fragment. It appears exactly once, last.
	Stop bool
}

// Think-span delimiters inserted around reasoning-trace content.
const (
	// ThinkOpen opens a reasoning span in the assistant message.
	ThinkOpen = "<think>"

	// ThinkClose closes a reasoning span.
	ThinkClose = "</think>"
)
