// Package metrics provides Prometheus metrics for the gateway.
//
// The Collector owns a private registry and three metric groups:
//
//   - Request metrics: count and duration of chat completion requests,
//     labeled by requested model, response mode, and outcome
//   - Upstream metrics: count, duration, and health of backend calls,
//     labeled by endpoint
//   - Journal metrics: record counts by persistence outcome
//
// Recording methods are no-ops when metrics are disabled in config, so
// call sites never gate on configuration.
//
// The model label echoes client input, so the collector bounds its
// cardinality: once the limit is reached, new label sets record under
// model="other".
//
// All metrics are exposed through Collector.Handler in the standard
// exposition format:
//
//	# HELP ganymede_requests_total Total number of chat completion requests processed
//	# TYPE ganymede_requests_total counter
//	ganymede_requests_total{model="deepseek-r1",mode="stream",status="success"} 1234
package metrics
