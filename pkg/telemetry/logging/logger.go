package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"mercator-hq/ganymede/pkg/config"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON outputs one JSON object per line.
	FormatJSON Format = "json"
	// FormatText outputs logfmt-style key=value lines.
	FormatText Format = "text"
)

// levelVar backs the level of the process-wide logger. SetLevel adjusts
// it in place, so a config reload changes verbosity without rebuilding
// the handler or dropping in-flight log calls.
var levelVar = new(slog.LevelVar)

// Setup installs the process-wide default logger according to cfg.
// All packages that log through the slog package functions pick it up.
// Output goes to stdout.
func Setup(cfg config.LoggingConfig) error {
	return SetupWithWriter(cfg, os.Stdout)
}

// SetupWithWriter is Setup with an explicit output destination.
func SetupWithWriter(cfg config.LoggingConfig, w io.Writer) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return err
	}

	levelVar.Set(level)
	opts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// SetLevel changes the minimum level of the default logger at runtime.
// The config watcher calls this on reload so the logging.level key in
// the config file takes effect without a restart.
func SetLevel(level string) error {
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}
	levelVar.Set(parsed)
	return nil
}

// Level reports the current minimum level of the default logger.
func Level() slog.Level {
	return levelVar.Level()
}

// parseLevel parses a log level string into slog.Level.
func parseLevel(levelStr string) (slog.Level, error) {
	switch levelStr {
	case "debug", "DEBUG":
		return slog.LevelDebug, nil
	case "info", "INFO", "":
		return slog.LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn, nil
	case "error", "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseFormat parses a log format string into Format.
func parseFormat(formatStr string) (Format, error) {
	switch formatStr {
	case "json", "JSON", "":
		return FormatJSON, nil
	case "text", "TEXT":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
