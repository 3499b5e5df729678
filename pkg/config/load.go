package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides builds the effective configuration: a `.env`
// file in the working directory is loaded first (if present), then the YAML
// file, then environment variable overrides, and the result is validated.
//
// An empty path skips the file and starts from defaults, which supports
// environment-only deployments.
//
// Two families of environment variables are honored:
//
//   - GANYMEDE_SECTION_FIELD (e.g. GANYMEDE_SERVER_LISTEN_ADDRESS), the
//     canonical form, applied last;
//   - the bare legacy names API_KEY, MAX_CHARS, RANDOM_UA, ENABLE_CORS,
//     and LOG_LEVEL, kept for drop-in compatibility with existing
//     deployments.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
		ApplyDefaults(cfg)
	} else {
		var err error
		cfg, err = readConfigFile(path)
		if err != nil {
			return nil, err
		}
	}

	applyLegacyEnvOverrides(cfg)
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// readConfigFile reads and parses a YAML configuration file without
// validating it. Parsing starts from DefaultConfig so fields absent from
// the file keep their defaults.
func readConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies GANYMEDE_SECTION_FIELD environment variable
// overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("GANYMEDE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("GANYMEDE_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_SERVER_MAX_HEADER_BYTES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.MaxHeaderBytes = i
		}
	}
	if val := os.Getenv("GANYMEDE_SERVER_CORS_ENABLED"); val != "" {
		if b, ok := parseLooseBool(val); ok {
			cfg.Server.CORS.Enabled = b
		}
	}

	// Auth overrides
	if val := os.Getenv("GANYMEDE_AUTH_API_KEY"); val != "" {
		cfg.Auth.APIKey = val
	}

	// Upstream overrides
	if val := os.Getenv("GANYMEDE_UPSTREAM_BASE_URL"); val != "" {
		cfg.Upstream.BaseURL = val
	}
	if val := os.Getenv("GANYMEDE_UPSTREAM_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Upstream.Timeout = d
		}
	}

	// Translate overrides
	if val := os.Getenv("GANYMEDE_TRANSLATE_MAX_CONTEXT_CHARS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Translate.MaxContextChars = i
		}
	}
	if val := os.Getenv("GANYMEDE_TRANSLATE_DEFAULT_MODEL"); val != "" {
		cfg.Translate.DefaultModel = val
	}

	// User-Agent overrides
	if val := os.Getenv("GANYMEDE_USER_AGENT_RANDOMIZE"); val != "" {
		if b, ok := parseLooseBool(val); ok {
			cfg.UserAgent.Randomize = b
		}
	}
	if val := os.Getenv("GANYMEDE_USER_AGENT_CACHE_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.UserAgent.CacheSize = i
		}
	}

	// Journal overrides
	if val := os.Getenv("GANYMEDE_JOURNAL_ENABLED"); val != "" {
		if b, ok := parseLooseBool(val); ok {
			cfg.Journal.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_JOURNAL_DRIVER"); val != "" {
		cfg.Journal.Driver = val
	}
	if val := os.Getenv("GANYMEDE_JOURNAL_PATH"); val != "" {
		cfg.Journal.Path = val
	}
	if val := os.Getenv("GANYMEDE_JOURNAL_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Journal.Retention.Days = i
		}
	}

	// Telemetry overrides
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, ok := parseLooseBool(val); ok {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}

	// Watch override
	if val := os.Getenv("GANYMEDE_WATCH"); val != "" {
		if b, ok := parseLooseBool(val); ok {
			cfg.Watch = b
		}
	}
}

// applyLegacyEnvOverrides applies the bare-name environment variables the
// original deployment format uses. The prefixed GANYMEDE_* form takes
// precedence when both are set.
func applyLegacyEnvOverrides(cfg *Config) {
	if val := os.Getenv("API_KEY"); val != "" {
		cfg.Auth.APIKey = val
	}
	if val := os.Getenv("MAX_CHARS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Translate.MaxContextChars = i
		}
	}
	if val := os.Getenv("RANDOM_UA"); val != "" {
		if b, ok := parseLooseBool(val); ok {
			cfg.UserAgent.Randomize = b
		}
	}
	if val := os.Getenv("ENABLE_CORS"); val != "" {
		if b, ok := parseLooseBool(val); ok {
			cfg.Server.CORS.Enabled = b
		}
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = strings.ToLower(val)
	}
}

// parseLooseBool parses the boolean spellings accepted in deployment
// environments: everything strconv.ParseBool takes plus yes/no and on/off,
// case-insensitively.
func parseLooseBool(val string) (value, ok bool) {
	if b, err := strconv.ParseBool(val); err == nil {
		return b, true
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "yes", "on":
		return true, true
	case "no", "off":
		return false, true
	}
	return false, false
}
