// Package proxy provides the OpenAI-compatible HTTP surface of the gateway.
//
// The proxy is the network-facing layer for all chat traffic. It accepts
// OpenAI-compatible API requests from clients, forwards them to the Dangbei
// conversational search backend via pkg/upstream, and re-emits the backend's
// event stream in OpenAI wire format, either as SSE chunks or as a single
// aggregated completion.
//
// # Architecture
//
// The proxy follows a middleware-based architecture with clean separation of concerns:
//
//   - Server: Main HTTP server with lifecycle management (pkg/server)
//   - Handlers: Request processing (chat completions, model listing, health checks)
//   - Middleware: Cross-cutting concerns (logging, CORS, request ID, recovery, timeouts)
//   - Types: OpenAI-compatible request/response data structures
//
// # Features
//
//   - OpenAI-compatible API endpoints (/v1/chat/completions, /v1/models)
//   - Server-Sent Events (SSE) streaming for real-time responses
//   - Aggregated non-streaming responses assembled from the same stream
//   - Health check endpoints (/health, /ready)
//   - Graceful shutdown with connection draining
//   - Request ID generation and propagation
//
// # Request Flow
//
// The request flow through the proxy:
//
//  1. Client sends OpenAI-compatible request to /v1/chat/completions
//  2. Middleware chain processes request (recovery → logging → requestID → CORS)
//  3. Handler parses and validates request body
//  4. Model resolved against the catalog, device identity generated
//  5. Upstream conversation created, chat request streamed
//  6. Backend events translated to OpenAI format through the segmenter
//  7. Response sent to client (SSE chunks or one aggregated JSON body)
//
// # Streaming Support
//
// With stream=true the client receives SSE chunks. The first chunk announces
// the assistant role, subsequent chunks carry content fragments, and the
// stream is closed by a stop-marked chunk and the [DONE] marker:
//
//	data: {"id":"chatcmpl-...","choices":[{"delta":{"role":"assistant"},"finish_reason":null}]}
//	data: {"id":"chatcmpl-...","choices":[{"delta":{"content":"<think>"},"finish_reason":null}]}
//	data: {"id":"chatcmpl-...","choices":[{"delta":{"content":"Hello"},"finish_reason":null}]}
//	data: {"id":"chatcmpl-...","choices":[{"delta":{},"finish_reason":"stop"}]}
//	data: [DONE]
//
// Concatenating the streamed content fragments yields byte-for-byte the same
// text a non-streaming request would return for the same upstream events.
//
// # Error Handling
//
// All errors follow OpenAI error response format:
//
//	{
//	  "error": {
//	    "message": "model is required",
//	    "type": "invalid_request_error",
//	    "param": "model",
//	    "code": "invalid_value"
//	  }
//	}
//
// Upstream failures map to 500. A failure of the chat call in streaming mode
// is reported in-band instead: one content fragment carrying the error
// message, then a stop-marked terminal chunk.
//
// # Thread Safety
//
// All proxy operations are safe for concurrent use from multiple goroutines.
package proxy
