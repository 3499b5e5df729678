// Package config provides configuration management for Ganymede.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with .env loading and environment variable
//     overrides (pass "" to run from defaults and environment alone):
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention GANYMEDE_SECTION_FIELD.
// For example:
//
//   - GANYMEDE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - GANYMEDE_AUTH_API_KEY overrides auth.api_key
//   - GANYMEDE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// The bare legacy names API_KEY, MAX_CHARS, RANDOM_UA, ENABLE_CORS, and
// LOG_LEVEL are also honored so existing deployments keep working; the
// prefixed form wins when both are set. A `.env` file in the working
// directory is loaded before overrides are read.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Legacy bare-name environment variables
//  4. GANYMEDE_* environment variables
//  5. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Server.ListenAddress)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Hot Reload
//
// With watch enabled, WatchConfig reloads the file on change and applies
// the new log level live. Other settings require a restart.
//
// # Example Configuration
//
// Here is a minimal configuration file (the API key is usually supplied
// through the API_KEY environment variable instead):
//
//	server:
//	  listen_address: ":8000"
//
//	translate:
//	  max_context_chars: 80000
//	  default_model: "deepseek-v3"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton uses read-write
// locks to allow concurrent reads while protecting against concurrent
// writes during reload operations.
package config
