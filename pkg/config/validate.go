package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/ganymede/pkg/catalog"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateTranslate(&cfg.Translate)...)
	errs = append(errs, validateUserAgent(&cfg.UserAgent)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates HTTP server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid host:port address: %v", err),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be non-negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be non-negative",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be non-negative",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be non-negative",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	if cfg.CORS.Enabled && len(cfg.CORS.AllowedOrigins) == 0 {
		errs = append(errs, FieldError{
			Field:   "server.cors.allowed_origins",
			Message: "at least one origin is required when CORS is enabled",
		})
	}

	return errs
}

// validateAuth validates gateway authentication configuration.
func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	if cfg.APIKey == "" {
		errs = append(errs, FieldError{
			Field:   "auth.api_key",
			Message: "API key is required (set auth.api_key or the API_KEY environment variable)",
		})
	}

	return errs
}

// validateUpstream validates upstream client configuration.
func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.base_url",
			Message: "base URL is required",
		})
	} else {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			errs = append(errs, FieldError{
				Field:   "upstream.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, FieldError{
				Field:   "upstream.base_url",
				Message: "URL scheme must be http or https",
			})
		} else if u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "upstream.base_url",
				Message: "URL host is required",
			})
		}
	}

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.timeout",
			Message: "timeout must be non-negative",
		})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.max_idle_conns",
			Message: "max idle connections must be non-negative",
		})
	}
	if cfg.MaxIdleConnsPerHost < 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.max_idle_conns_per_host",
			Message: "max idle connections per host must be non-negative",
		})
	}

	return errs
}

// validateTranslate validates translation configuration.
func validateTranslate(cfg *TranslateConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxContextChars <= 0 {
		errs = append(errs, FieldError{
			Field:   "translate.max_context_chars",
			Message: "max context chars must be positive",
		})
	}

	if cfg.DefaultModel == "" {
		errs = append(errs, FieldError{
			Field:   "translate.default_model",
			Message: "default model is required",
		})
	} else if _, ok := catalog.Lookup(cfg.DefaultModel); !ok {
		errs = append(errs, FieldError{
			Field:   "translate.default_model",
			Message: fmt.Sprintf("unknown model %q", cfg.DefaultModel),
		})
	}

	return errs
}

// validateUserAgent validates User-Agent configuration.
func validateUserAgent(cfg *UserAgentConfig) []FieldError {
	var errs []FieldError

	if cfg.CacheSize < 0 {
		errs = append(errs, FieldError{
			Field:   "user_agent.cache_size",
			Message: "cache size must be non-negative",
		})
	}

	return errs
}

// validateJournal validates request journal configuration. Most fields are
// only checked when the journal is enabled.
func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Driver {
	case "sqlite", "sqlite3":
	default:
		errs = append(errs, FieldError{
			Field:   "journal.driver",
			Message: fmt.Sprintf("unsupported driver %q (must be \"sqlite\" or \"sqlite3\")", cfg.Driver),
		})
	}

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "journal.path",
			Message: "database path is required when the journal is enabled",
		})
	}

	if cfg.AsyncBuffer <= 0 {
		errs = append(errs, FieldError{
			Field:   "journal.async_buffer",
			Message: "async buffer must be positive",
		})
	}

	if cfg.WriteTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "journal.write_timeout",
			Message: "write timeout must be positive",
		})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention.days",
			Message: "retention days must be non-negative",
		})
	}

	if cfg.Retention.Days > 0 {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "journal.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

// validateTelemetry validates observability configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	return errs
}
