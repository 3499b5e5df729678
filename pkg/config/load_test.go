package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTempConfig writes a config file into a temp dir and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

const validConfigYAML = `
server:
  listen_address: "127.0.0.1:9000"
auth:
  api_key: "test-secret"
translate:
  max_context_chars: 500
  default_model: "doubao"
`

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9000" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Auth.APIKey != "test-secret" {
		t.Errorf("api key = %q", cfg.Auth.APIKey)
	}
	if cfg.Translate.MaxContextChars != 500 {
		t.Errorf("max context chars = %d", cfg.Translate.MaxContextChars)
	}
	if cfg.Translate.DefaultModel != "doubao" {
		t.Errorf("default model = %q", cfg.Translate.DefaultModel)
	}

	// Unset fields keep their defaults.
	if cfg.Upstream.BaseURL != "https://ai-api.dangbei.net" {
		t.Errorf("upstream base URL = %q, want default", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 20*time.Minute {
		t.Errorf("upstream timeout = %s, want default 20m", cfg.Upstream.Timeout)
	}
	if !cfg.Server.CORS.Enabled {
		t.Error("CORS not enabled by default")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics not enabled by default")
	}
	if cfg.Journal.Enabled {
		t.Error("journal enabled by default, want disabled")
	}
}

func TestLoadConfigExplicitFalseWins(t *testing.T) {
	path := writeTempConfig(t, `
server:
  listen_address: "127.0.0.1:9000"
  cors:
    enabled: false
auth:
  api_key: "test-secret"
telemetry:
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Server.CORS.Enabled {
		t.Error("explicit cors.enabled: false was overridden")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("explicit metrics.enabled: false was overridden")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() succeeded on a missing file")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "server: [not a mapping")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() succeeded on invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse configuration file") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadConfigValidationFailure(t *testing.T) {
	// No API key anywhere.
	path := writeTempConfig(t, `
server:
  listen_address: ":8000"
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() succeeded without an API key")
	}
	if !strings.Contains(err.Error(), "auth.api_key") {
		t.Errorf("error does not name the missing field: %v", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)

	t.Setenv("GANYMEDE_SERVER_LISTEN_ADDRESS", "0.0.0.0:7070")
	t.Setenv("GANYMEDE_AUTH_API_KEY", "env-secret")
	t.Setenv("GANYMEDE_TRANSLATE_MAX_CONTEXT_CHARS", "1234")
	t.Setenv("GANYMEDE_UPSTREAM_TIMEOUT", "5m")
	t.Setenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7070" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Auth.APIKey != "env-secret" {
		t.Errorf("api key = %q, env override did not win", cfg.Auth.APIKey)
	}
	if cfg.Translate.MaxContextChars != 1234 {
		t.Errorf("max context chars = %d", cfg.Translate.MaxContextChars)
	}
	if cfg.Upstream.Timeout != 5*time.Minute {
		t.Errorf("upstream timeout = %s", cfg.Upstream.Timeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Setenv("API_KEY", "env-only-secret")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides(\"\") error: %v", err)
	}

	if cfg.Auth.APIKey != "env-only-secret" {
		t.Errorf("api key = %q", cfg.Auth.APIKey)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("listen address = %q, want default", cfg.Server.ListenAddress)
	}
	if cfg.Translate.MaxContextChars != DefaultMaxContextChars {
		t.Errorf("max context chars = %d, want default", cfg.Translate.MaxContextChars)
	}
}

func TestLegacyEnvOverrides(t *testing.T) {
	t.Setenv("API_KEY", "legacy-secret")
	t.Setenv("MAX_CHARS", "40000")
	t.Setenv("RANDOM_UA", "yes")
	t.Setenv("ENABLE_CORS", "no")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error: %v", err)
	}

	if cfg.Auth.APIKey != "legacy-secret" {
		t.Errorf("api key = %q", cfg.Auth.APIKey)
	}
	if cfg.Translate.MaxContextChars != 40000 {
		t.Errorf("max context chars = %d", cfg.Translate.MaxContextChars)
	}
	if !cfg.UserAgent.Randomize {
		t.Error("RANDOM_UA=yes did not enable randomization")
	}
	if cfg.Server.CORS.Enabled {
		t.Error("ENABLE_CORS=no did not disable CORS")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want lowercased debug", cfg.Telemetry.Logging.Level)
	}
}

func TestPrefixedOverridesBeatLegacy(t *testing.T) {
	t.Setenv("API_KEY", "legacy-secret")
	t.Setenv("GANYMEDE_AUTH_API_KEY", "canonical-secret")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error: %v", err)
	}
	if cfg.Auth.APIKey != "canonical-secret" {
		t.Errorf("api key = %q, prefixed form should win", cfg.Auth.APIKey)
	}
}

func TestParseLooseBool(t *testing.T) {
	tests := []struct {
		in    string
		value bool
		ok    bool
	}{
		{"true", true, true},
		{"1", true, true},
		{"yes", true, true},
		{"YES", true, true},
		{"on", true, true},
		{"false", false, true},
		{"0", false, true},
		{"no", false, true},
		{"off", false, true},
		{"maybe", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		value, ok := parseLooseBool(tt.in)
		if value != tt.value || ok != tt.ok {
			t.Errorf("parseLooseBool(%q) = (%v, %v), want (%v, %v)", tt.in, value, ok, tt.value, tt.ok)
		}
	}
}
