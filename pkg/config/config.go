package config

import "time"

// Config is the root configuration structure for Ganymede.
// It contains all configuration sections for the HTTP server, request
// authentication, the upstream client, translation behavior, the request
// journal, and telemetry settings.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and CORS settings.
	Server ServerConfig `yaml:"server"`

	// Auth contains gateway authentication configuration.
	Auth AuthConfig `yaml:"auth"`

	// Upstream contains configuration for the upstream API client.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Translate contains configuration for request translation including
	// the context budget and the fallback model.
	Translate TranslateConfig `yaml:"translate"`

	// UserAgent contains configuration for the browser identities presented
	// to the upstream.
	UserAgent UserAgentConfig `yaml:"user_agent"`

	// Journal contains configuration for the optional request journal.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains configuration for observability including logging
	// and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Watch enables reloading the configuration file on change. Only the
	// log level is applied live; other changes require a restart.
	// Default: false
	Watch bool `yaml:"watch"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., ":8000", "127.0.0.1:8000").
	// Default: ":8000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Streaming completions stay open for the life of the
	// upstream exchange, so this is disabled by default.
	// Default: 0 (no timeout)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// If requests are still in-flight after this timeout, the server will
	// force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values, including the
	// request line. It does not limit the size of the request body.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins for CORS requests.
	// Use ["*"] to allow all origins.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers for CORS requests.
	// Default: ["Authorization", "Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers that are exposed to the client.
	// Default: ["X-Request-ID"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight request cache.
	// Default: 3600 (1 hour)
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls whether credentials (cookies, auth headers)
	// are allowed in CORS requests.
	// Default: true
	AllowCredentials bool `yaml:"allow_credentials"`
}

// AuthConfig contains gateway authentication configuration.
type AuthConfig struct {
	// APIKey is the secret clients must present on /v1 endpoints, either
	// as "Bearer <key>" or as the bare key in the Authorization header.
	// Required. Typically supplied via the API_KEY or GANYMEDE_AUTH_API_KEY
	// environment variable rather than the file.
	APIKey string `yaml:"api_key"`
}

// UpstreamConfig contains configuration for the upstream API client.
type UpstreamConfig struct {
	// BaseURL is the upstream origin.
	// Default: "https://ai-api.dangbei.net"
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a whole upstream exchange including the time spent
	// reading the event stream. Answers stream for minutes on reasoning
	// models.
	// Default: 20m
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the connection pool size.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the per-host connection pool size.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle connections are kept.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// TranslateConfig contains configuration for request translation.
type TranslateConfig struct {
	// MaxContextChars is the character budget applied to conversation
	// history before flattening. Oldest turns are dropped first.
	// Default: 80000
	MaxContextChars int `yaml:"max_context_chars"`

	// DefaultModel is the public model ID used when a request names an
	// unknown model.
	// Default: "deepseek-v3"
	DefaultModel string `yaml:"default_model"`
}

// UserAgentConfig contains configuration for upstream browser identities.
type UserAgentConfig struct {
	// Randomize picks a per-device browser identity from a pool instead of
	// the fixed default.
	// Default: false
	Randomize bool `yaml:"randomize"`

	// CacheSize bounds the number of device identities whose User-Agent
	// assignment is remembered.
	// Default: 1024
	CacheSize int `yaml:"cache_size"`
}

// JournalConfig contains configuration for the request journal.
type JournalConfig struct {
	// Enabled controls whether completed requests are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Driver selects the SQLite driver: "sqlite" (pure Go) or "sqlite3"
	// (cgo). Both produce the same database file format.
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the SQLite database file path.
	// Default: "data/journal.db"
	Path string `yaml:"path"`

	// AsyncBuffer is the size of the in-memory queue between request
	// handling and persistence. Records are dropped (and counted) when
	// the queue is full.
	// Default: 256
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single journal write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention contains scheduled pruning settings.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig contains journal retention settings.
type RetentionConfig struct {
	// Days is how long records are kept. Zero disables pruning.
	// Default: 30
	Days int `yaml:"days"`

	// PruneSchedule is the cron expression for the pruning job.
	// Default: "0 3 * * *" (daily at 03:00)
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the prefix applied to all metric names.
	// Default: "ganymede"
	Namespace string `yaml:"namespace"`
}
