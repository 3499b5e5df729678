// Package upstream implements the client for the Dangbei conversational
// search API. It covers the signed request envelope (MD5 signature over
// timestamp, compact JSON body, and nonce), per-request device identity,
// conversation creation, and the pull-based reader for the chat SSE stream.
//
// The client performs a single attempt per call and tracks consecutive
// failures for readiness reporting. All blocking operations accept a
// context.Context and honor cancellation.
package upstream
