package config

import (
	"time"

	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/upstream"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = ":8000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// CORS defaults
	DefaultCORSMaxAge = 3600 // 1 hour

	// Upstream defaults
	DefaultUpstreamTimeout             = 20 * time.Minute
	DefaultUpstreamMaxIdleConns        = 100
	DefaultUpstreamMaxIdleConnsPerHost = 10
	DefaultUpstreamIdleConnTimeout     = 90 * time.Second

	// Translate defaults
	DefaultMaxContextChars = 80000

	// User-Agent defaults
	DefaultUserAgentCacheSize = 1024

	// Journal defaults
	DefaultJournalDriver       = "sqlite"
	DefaultJournalPath         = "data/journal.db"
	DefaultJournalAsyncBuffer  = 256
	DefaultJournalWriteTimeout = 5 * time.Second
	DefaultRetentionDays       = 30
	DefaultPruneSchedule       = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "ganymede"
)

// DefaultConfig returns a fully populated configuration with every field at
// its default. Loading unmarshals YAML onto this struct, so fields absent
// from the file keep their defaults while explicit values, including
// explicit false, win.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress:   DefaultListenAddress,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    0,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxHeaderBytes:  DefaultMaxHeaderBytes,
			CORS: CORSConfig{
				Enabled:          true,
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
				ExposedHeaders:   []string{"X-Request-ID"},
				MaxAge:           DefaultCORSMaxAge,
				AllowCredentials: true,
			},
		},
		Upstream: UpstreamConfig{
			BaseURL:             upstream.DefaultBaseURL,
			Timeout:             DefaultUpstreamTimeout,
			MaxIdleConns:        DefaultUpstreamMaxIdleConns,
			MaxIdleConnsPerHost: DefaultUpstreamMaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultUpstreamIdleConnTimeout,
		},
		Translate: TranslateConfig{
			MaxContextChars: DefaultMaxContextChars,
			DefaultModel:    catalog.DefaultModel,
		},
		UserAgent: UserAgentConfig{
			Randomize: false,
			CacheSize: DefaultUserAgentCacheSize,
		},
		Journal: JournalConfig{
			Enabled:      false,
			Driver:       DefaultJournalDriver,
			Path:         DefaultJournalPath,
			AsyncBuffer:  DefaultJournalAsyncBuffer,
			WriteTimeout: DefaultJournalWriteTimeout,
			Retention: RetentionConfig{
				Days:          DefaultRetentionDays,
				PruneSchedule: DefaultPruneSchedule,
			},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:  DefaultLoggingLevel,
				Format: DefaultLoggingFormat,
			},
			Metrics: MetricsConfig{
				Enabled:   true,
				Path:      DefaultMetricsPath,
				Namespace: DefaultMetricsNamespace,
			},
		},
	}
}

// ApplyDefaults fills zero-valued string, numeric, and duration fields with
// their defaults. It is idempotent and safe to call multiple times. Boolean
// defaults are not applied here; they come from DefaultConfig, which the
// loader starts from.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// CORS defaults
	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.Server.CORS.AllowedHeaders) == 0 {
		cfg.Server.CORS.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Request-ID"}
	}
	if len(cfg.Server.CORS.ExposedHeaders) == 0 {
		cfg.Server.CORS.ExposedHeaders = []string{"X-Request-ID"}
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Upstream defaults
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = upstream.DefaultBaseURL
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if cfg.Upstream.MaxIdleConns == 0 {
		cfg.Upstream.MaxIdleConns = DefaultUpstreamMaxIdleConns
	}
	if cfg.Upstream.MaxIdleConnsPerHost == 0 {
		cfg.Upstream.MaxIdleConnsPerHost = DefaultUpstreamMaxIdleConnsPerHost
	}
	if cfg.Upstream.IdleConnTimeout == 0 {
		cfg.Upstream.IdleConnTimeout = DefaultUpstreamIdleConnTimeout
	}

	// Translate defaults
	if cfg.Translate.MaxContextChars == 0 {
		cfg.Translate.MaxContextChars = DefaultMaxContextChars
	}
	if cfg.Translate.DefaultModel == "" {
		cfg.Translate.DefaultModel = catalog.DefaultModel
	}

	// User-Agent defaults
	if cfg.UserAgent.CacheSize == 0 {
		cfg.UserAgent.CacheSize = DefaultUserAgentCacheSize
	}

	// Journal defaults
	if cfg.Journal.Driver == "" {
		cfg.Journal.Driver = DefaultJournalDriver
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}
	if cfg.Journal.AsyncBuffer == 0 {
		cfg.Journal.AsyncBuffer = DefaultJournalAsyncBuffer
	}
	if cfg.Journal.WriteTimeout == 0 {
		cfg.Journal.WriteTimeout = DefaultJournalWriteTimeout
	}
	if cfg.Journal.Retention.PruneSchedule == "" {
		cfg.Journal.Retention.PruneSchedule = DefaultPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}
