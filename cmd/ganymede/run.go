package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/journal"
	"mercator-hq/ganymede/pkg/server"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Ganymede gateway server",
	Long: `Start the Ganymede gateway server with the specified configuration.

The server listens on the configured address and translates OpenAI-style
chat completion requests into upstream conversational search exchanges.

Examples:
  # Start with default config
  ganymede run

  # Start with custom config
  ganymede run --config /etc/ganymede/config.yaml

  # Override listen address
  ganymede run --listen 0.0.0.0:8080

  # Validate config without starting server
  ganymede run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if err := logging.Setup(cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	// Print startup banner
	printBanner(cfg)

	// Model catalog
	cat, err := catalog.New(cfg.Translate.DefaultModel)
	if err != nil {
		return cli.NewConfigError("translate.default_model", err.Error())
	}
	fmt.Printf("✓ Model catalog loaded (%d models)\n", cat.Size())

	// Upstream client
	slog.Info("initializing upstream client", "base_url", cfg.Upstream.BaseURL)
	agents := upstream.NewUserAgentCache(cfg.UserAgent.Randomize, cfg.UserAgent.CacheSize)
	client := upstream.NewClient(upstream.Config{
		BaseURL:             cfg.Upstream.BaseURL,
		Timeout:             cfg.Upstream.Timeout,
		MaxIdleConns:        cfg.Upstream.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Upstream.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Upstream.IdleConnTimeout,
	}, agents)
	defer client.Close()

	// Metrics collector (if enabled)
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		slog.Info("metrics enabled", "path", cfg.Telemetry.Metrics.Path)
	}

	// Request journal (if enabled)
	var recorder *journal.Recorder
	if cfg.Journal.Enabled {
		slog.Info("initializing request journal",
			"driver", cfg.Journal.Driver,
			"path", cfg.Journal.Path,
		)

		store, err := journal.NewSQLiteStore(cfg.Journal)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open journal storage: %w", err))
		}
		defer store.Close()

		var journalMetrics journal.Metrics
		if collector != nil {
			journalMetrics = collector
		}
		recorder = journal.NewRecorder(store, cfg.Journal, journalMetrics)
		defer recorder.Close()

		// Start retention pruner if a schedule is configured
		if cfg.Journal.Retention.PruneSchedule != "" {
			pruner := journal.NewPruner(store, cfg.Journal.Retention)
			if err := pruner.Start(); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer pruner.Stop()
				if next := pruner.NextRun(); next != nil {
					slog.Debug("journal retention scheduler started", "next_prune", next)
				}
			}
		}

		fmt.Println("✓ Request journal initialized")
	}

	// Create HTTP server
	slog.Info("creating HTTP server")
	srv := server.NewServer(cfg, client, cat, collector, recorder)

	// Watch the config file for live log-level changes
	if cfg.Watch {
		watcher, err := config.WatchConfig(cfgFile, func(updated *config.Config) {
			if err := logging.SetLevel(updated.Telemetry.Logging.Level); err != nil {
				slog.Warn("ignoring invalid log level from config reload",
					"level", updated.Telemetry.Logging.Level,
					"error", err,
				)
				return
			}
			slog.Info("log level updated", "level", updated.Telemetry.Logging.Level)
		})
		if err != nil {
			slog.Warn("failed to start config watcher", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	// Start server in background goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "address", cfg.Server.ListenAddress)
		if err := srv.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for the listener to come up
	if err := waitForServerReady(cfg.Server.ListenAddress, 5*time.Second); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Chat endpoint: http://%s/v1/chat/completions\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for shutdown signal or server error
	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Server stopped")
		return nil
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Ganymede v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("upstream configured",
		"base_url", cfg.Upstream.BaseURL,
		"timeout", cfg.Upstream.Timeout,
	)
	if cfg.Journal.Enabled {
		slog.Debug("journal enabled", "driver", cfg.Journal.Driver)
	}
}

// waitForServerReady polls the listen address until it accepts
// connections or the timeout elapses.
func waitForServerReady(address string, timeout time.Duration) error {
	if strings.HasPrefix(address, ":") {
		address = "localhost" + address
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", address, time.Second)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("listener on %s not ready after %s", address, timeout)
}
