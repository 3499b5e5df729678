package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply environment overrides, and check
every field against the gateway's validation rules.

The command exits non-zero when validation fails and lists each invalid
field with the reason.

Examples:
  # Validate the default config file
  ganymede validate

  # Validate a specific file
  ganymede validate --config /etc/ganymede/config.yaml

  # Print the effective configuration summary as JSON
  ganymede validate --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

// configSummary is the effective-configuration view printed after a
// successful validation. Secrets never appear here.
type configSummary struct {
	ConfigFile     string `json:"config_file"`
	ListenAddress  string `json:"listen_address"`
	UpstreamURL    string `json:"upstream_url"`
	DefaultModel   string `json:"default_model"`
	AuthConfigured bool   `json:"auth_configured"`
	JournalEnabled bool   `json:"journal_enabled"`
	JournalDriver  string `json:"journal_driver,omitempty"`
	MetricsEnabled bool   `json:"metrics_enabled"`
	LogLevel       string `json:"log_level"`
	LogFormat      string `json:"log_format"`
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var validationErr config.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Fprintf(os.Stderr, "✗ Configuration invalid (%d errors)\n", len(validationErr.Errors))
			for _, fieldErr := range validationErr.Errors {
				fmt.Fprintf(os.Stderr, "  - %s\n", fieldErr.Error())
			}
			return cli.NewConfigError("", "validation failed")
		}
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	summary := configSummary{
		ConfigFile:     cfgFile,
		ListenAddress:  cfg.Server.ListenAddress,
		UpstreamURL:    cfg.Upstream.BaseURL,
		DefaultModel:   cfg.Translate.DefaultModel,
		AuthConfigured: cfg.Auth.APIKey != "",
		JournalEnabled: cfg.Journal.Enabled,
		MetricsEnabled: cfg.Telemetry.Metrics.Enabled,
		LogLevel:       cfg.Telemetry.Logging.Level,
		LogFormat:      cfg.Telemetry.Logging.Format,
	}
	if cfg.Journal.Enabled {
		summary.JournalDriver = cfg.Journal.Driver
	}

	if validateFlags.format == string(cli.FormatJSON) {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, summary)
	}

	fmt.Println("✓ Configuration valid")
	fmt.Printf("  Listen address: %s\n", summary.ListenAddress)
	fmt.Printf("  Upstream:       %s\n", summary.UpstreamURL)
	fmt.Printf("  Default model:  %s\n", summary.DefaultModel)
	fmt.Printf("  Auth:           %s\n", enabledWord(summary.AuthConfigured))
	fmt.Printf("  Journal:        %s\n", enabledWord(summary.JournalEnabled))
	fmt.Printf("  Metrics:        %s\n", enabledWord(summary.MetricsEnabled))
	fmt.Printf("  Log level:      %s (%s)\n", summary.LogLevel, summary.LogFormat)
	return nil
}

func enabledWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
