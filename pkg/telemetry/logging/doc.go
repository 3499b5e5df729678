// Package logging configures the process-wide structured logger.
//
// The gateway logs through the standard log/slog package; this package
// owns the handler setup. Setup installs a JSON or text handler on the
// default logger at the configured level, and SetLevel adjusts that
// level at runtime. The config watcher calls SetLevel on reload, so
// changing logging.level in the config file takes effect live.
//
// Request-scoped fields travel in the context: the request ID middleware
// stores an ID with WithRequestID, and handlers attach it to their log
// lines via ContextAttrs.
package logging
