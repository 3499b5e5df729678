// Package auth provides API key authentication for the gateway's /v1 endpoints.
//
// The gateway protects its OpenAI-compatible surface with a single shared
// secret configured in auth.api_key (typically via the API_KEY environment
// variable). Clients present the secret in the Authorization header, either
// as a bearer token or bare:
//
//	Authorization: Bearer sk-my-gateway-key
//	Authorization: sk-my-gateway-key
//
// Keys are compared in constant time. Failed authentication returns an
// OpenAI-format 401 error:
//
//	{
//	  "error": {
//	    "message": "Invalid API key provided. ...",
//	    "type": "authentication_error",
//	    "code": "invalid_api_key"
//	  }
//	}
//
// Usage:
//
//	validator := auth.NewValidator(cfg.Auth.APIKey)
//	protected := auth.NewMiddleware(validator)
//	mux.Handle("/v1/chat/completions", protected.Handle(chatHandler))
//
// Health, readiness, and metrics endpoints are intentionally left
// unauthenticated for load balancers and scrapers.
package auth
