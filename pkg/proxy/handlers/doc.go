// Package handlers implements the HTTP handlers behind the gateway's
// public surface.
//
// ChatHandler is the core of the gateway. It accepts OpenAI-form chat
// completion requests on POST /v1/chat/completions and performs one full
// upstream exchange per request: resolve the model through the catalog,
// flatten the conversation history into a single question, create an
// upstream conversation under a fresh device identity, then post the
// question and re-emit the answer stream. Clients choose the response
// shape with the stream flag: server-sent events carrying
// chat.completion.chunk objects, or one aggregated chat.completion
// object. Both modes consume the same upstream stream through the same
// segmentation, so the streamed concatenation and the aggregate content
// are identical for identical upstream events.
//
// Failures map by where they occur. Malformed requests are rejected with
// OpenAI-form 400 errors before any upstream work. Conversation create
// failures return 500 in both modes, since nothing has been written yet.
// Chat call failures after the SSE stream opened are delivered in-band
// as a readable message with a clean stop, because the 200 status is
// already on the wire. Mid-stream read failures flush the segmenter so
// the client receives a well-formed, possibly shortened answer.
//
// ModelsHandler serves GET /v1/models from the catalog. HealthHandler
// and ReadyHandler back the liveness and readiness probes; readiness
// follows the upstream client's consecutive-failure tracking.
package handlers
