// Ganymede is an OpenAI-compatible gateway for the Dangbei AI
// conversational search backend.
//
// It accepts standard chat completion requests, flattens the conversation
// into a single question, forwards it upstream, and re-emits the answer
// either as an SSE chunk stream or as one aggregated JSON response:
//   - Streaming and aggregated chat completions on /v1/chat/completions
//   - Model catalog on /v1/models
//   - Reasoning output wrapped in <think> tags
//   - Reference cards rendered as markdown source tables
//
// Usage:
//
//	# Start the gateway with default configuration
//	ganymede run
//
//	# Start with a custom configuration file
//	ganymede run --config /etc/ganymede/config.yaml
//
//	# Validate a configuration file without starting
//	ganymede validate
//
//	# List the served models
//	ganymede models
//
//	# Query the request journal
//	ganymede journal query --status error --limit 20
//
//	# Show version information
//	ganymede version
//
// For complete documentation, see: https://github.com/mercator-hq/ganymede
package main

func main() {
	Execute()
}
