// Package translate implements the stream translation engine: the logic that
// turns the upstream backend's mixed event stream (answer text, thinking
// trace, reference cards) into a single coherent assistant message.
//
// The package is pure: no I/O, no clocks, no shared state. Its pieces are
// composed by the HTTP layer:
//
//   - Truncate bounds the conversation to a character budget.
//   - Flatten folds the message list into the one question string the
//     upstream expects.
//   - RenderCard turns a structured reference-card payload into a markdown
//     table.
//   - Segmenter is the per-request state machine that orders fragments,
//     inserts <think> delimiters, and defers cards for the models that want
//     them at the end.
//
// Streaming and non-streaming responses both consume the same fragment
// sequence, so the delivered text is identical in either mode.
package translate
