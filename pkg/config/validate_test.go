package config

import (
	"errors"
	"strings"
	"testing"
)

// validTestConfig returns a configuration that passes validation.
func validTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.Auth.APIKey = "secret"
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(validTestConfig()); err != nil {
		t.Fatalf("Validate() rejected defaults: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "missing api key",
			mutate:    func(c *Config) { c.Auth.APIKey = "" },
			wantField: "auth.api_key",
		},
		{
			name:      "empty listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "" },
			wantField: "server.listen_address",
		},
		{
			name:      "listen address without port",
			mutate:    func(c *Config) { c.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name:      "negative read timeout",
			mutate:    func(c *Config) { c.Server.ReadTimeout = -1 },
			wantField: "server.read_timeout",
		},
		{
			name:      "oversized max header bytes",
			mutate:    func(c *Config) { c.Server.MaxHeaderBytes = 20 * 1024 * 1024 },
			wantField: "server.max_header_bytes",
		},
		{
			name: "cors enabled without origins",
			mutate: func(c *Config) {
				c.Server.CORS.Enabled = true
				c.Server.CORS.AllowedOrigins = nil
			},
			wantField: "server.cors.allowed_origins",
		},
		{
			name:      "empty upstream url",
			mutate:    func(c *Config) { c.Upstream.BaseURL = "" },
			wantField: "upstream.base_url",
		},
		{
			name:      "upstream url with bad scheme",
			mutate:    func(c *Config) { c.Upstream.BaseURL = "ftp://example.com" },
			wantField: "upstream.base_url",
		},
		{
			name:      "upstream url without host",
			mutate:    func(c *Config) { c.Upstream.BaseURL = "https://" },
			wantField: "upstream.base_url",
		},
		{
			name:      "zero context budget",
			mutate:    func(c *Config) { c.Translate.MaxContextChars = 0 },
			wantField: "translate.max_context_chars",
		},
		{
			name:      "unknown default model",
			mutate:    func(c *Config) { c.Translate.DefaultModel = "gpt-9" },
			wantField: "translate.default_model",
		},
		{
			name:      "negative cache size",
			mutate:    func(c *Config) { c.UserAgent.CacheSize = -1 },
			wantField: "user_agent.cache_size",
		},
		{
			name: "journal with unknown driver",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Driver = "postgres"
			},
			wantField: "journal.driver",
		},
		{
			name: "journal without path",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Path = ""
			},
			wantField: "journal.path",
		},
		{
			name: "journal with invalid cron schedule",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Retention.PruneSchedule = "not a schedule"
			},
			wantField: "journal.retention.prune_schedule",
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "invalid log format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
		{
			name:      "metrics path without slash",
			mutate:    func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			wantField: "telemetry.metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() accepted invalid configuration")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type %T, want ValidationError", err)
			}

			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidateDisabledJournalSkipsChecks(t *testing.T) {
	cfg := validTestConfig()
	cfg.Journal.Enabled = false
	cfg.Journal.Driver = "postgres"
	cfg.Journal.Path = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() checked disabled journal: %v", err)
	}
}

func TestValidateJournalZeroRetentionSkipsSchedule(t *testing.T) {
	cfg := validTestConfig()
	cfg.Journal.Enabled = true
	cfg.Journal.Retention.Days = 0
	cfg.Journal.Retention.PruneSchedule = "garbage"

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() checked schedule with pruning disabled: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validTestConfig()
	cfg.Auth.APIKey = ""
	cfg.Server.ListenAddress = ""
	cfg.Translate.MaxContextChars = -5

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() accepted invalid configuration")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type %T, want ValidationError", err)
	}
	if len(verr.Errors) < 3 {
		t.Errorf("collected %d errors, want at least 3: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(verr.Error(), "errors:") {
		t.Errorf("multi-error message = %q", verr.Error())
	}
}

func TestValidateUnlistedModelAccepted(t *testing.T) {
	// Legacy aliases resolve even though they are not listed publicly.
	cfg := validTestConfig()
	cfg.Translate.DefaultModel = "qwen"

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() rejected unlisted alias: %v", err)
	}
}
