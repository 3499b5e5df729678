// Package security groups the gateway's security subpackages.
//
// The auth subpackage implements API key authentication for the /v1
// endpoints: a single shared secret, presented either as an OpenAI-style
// "Bearer <key>" header or as the bare key, compared in constant time.
//
// Transport security is left to the deployment: the gateway serves plain
// HTTP and expects TLS termination at the edge when exposed publicly.
package security
