package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/audit/recorder"
	"mercator-hq/ganymede/pkg/audit/retention"
	auditstorage "mercator-hq/ganymede/pkg/audit/storage"
	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/quota"
	quotastorage "mercator-hq/ganymede/pkg/quota/storage"
	"mercator-hq/ganymede/pkg/server"
	"mercator-hq/ganymede/pkg/telemetry/health"
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
	Short: "Start the Ganymede extraction server",
	Long: `Start the Ganymede extraction server with the specified configuration.

The server listens on the configured address and serves extraction sessions
over SSE and WebSocket, with quota admission, transcript compaction, and
audit recording around every session.

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

	// Initialize logging based on config
	logger, err := logging.New(logging.Config{
		Level:         cfg.Telemetry.Logging.Level,
		Format:        cfg.Telemetry.Logging.Format,
		AddSource:     cfg.Telemetry.Logging.AddSource,
		RedactSecrets: cfg.Telemetry.Logging.RedactSecrets,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Slog())

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	// Cancelled on SIGINT/SIGTERM; stops the catalog watcher, the
	// retention scheduler, and the server together.
	ctx := cli.SetupSignalHandler()

	// Metrics registry shared by every instrumented component
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(nil)
	}

	// Section catalog
	catalogManager := catalog.NewManager(cfg.Catalog.Path, cfg.Catalog.DebounceInterval, logger.Slog())
	if err := catalogManager.Load(); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to load catalog: %w", err))
	}
	defer catalogManager.Close()

	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		if err := catalogManager.Watch(ctx); err != nil {
			slog.Warn("catalog watch disabled", "error", err)
		} else {
			slog.Info("catalog hot-reload enabled", "path", cfg.Catalog.Path)
		}
	}
	fmt.Printf("✓ Catalog loaded (%d sections)\n", catalogManager.Current().SectionCount())

	// Quota guard with optional usage ledger
	var guard *quota.Guard
	var ledger quotastorage.Store
	if cfg.Quota.Enabled {
		opts := []quota.Option{quota.WithLogger(logger.Slog())}

		switch cfg.Quota.Ledger.Backend {
		case "sqlite":
			ledger, err = quotastorage.NewSQLiteStore(cfg.Quota.Ledger.Path)
			if err != nil {
				return cli.NewCommandError("run", fmt.Errorf("failed to open quota ledger: %w", err))
			}
			defer ledger.Close()
			opts = append(opts, quota.WithStore(ledger))
		case "memory", "":
			ledger = quotastorage.NewMemoryStore()
			defer ledger.Close()
			opts = append(opts, quota.WithStore(ledger))
		default:
			return cli.NewConfigError("quota.ledger.backend",
				fmt.Sprintf("unsupported ledger backend: %s", cfg.Quota.Ledger.Backend))
		}

		if collector != nil {
			opts = append(opts, quota.WithMetrics(quota.NewMetrics(collector.Registry())))
		}

		guard = quota.NewGuard(quota.Config{
			MaxTokens:      cfg.Quota.MaxTokens,
			RefillInterval: cfg.Quota.RefillInterval,
			SweepInterval:  cfg.Quota.SweepInterval,
			StaleAfter:     cfg.Quota.StaleAfter,
		}, opts...)
		defer guard.Close()

		fmt.Printf("✓ Quota guard active (%d tokens, refill %s)\n",
			cfg.Quota.MaxTokens, cfg.Quota.RefillInterval)
	} else {
		slog.Warn("quota admission disabled, every request is admitted")
	}

	// Upstream gateway client
	gateway := upstream.NewClient(upstream.Config{
		Name:                cfg.Upstream.Name,
		BaseURL:             cfg.Upstream.BaseURL,
		APIKey:              cfg.Upstream.APIKey,
		Model:               cfg.Upstream.Model,
		Timeout:             cfg.Upstream.Timeout,
		MaxIdleConns:        cfg.Upstream.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Upstream.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Upstream.IdleConnTimeout,
	}, logger.Slog())
	defer gateway.Close()

	// Audit recording
	var auditStore audit.Storage
	var auditRecorder *recorder.Recorder
	if cfg.Audit.Enabled {
		switch cfg.Audit.Backend {
		case "sqlite":
			auditStore, err = auditstorage.NewSQLiteStorage(&auditstorage.SQLiteConfig{
				Path:         cfg.Audit.SQLite.Path,
				MaxOpenConns: cfg.Audit.SQLite.MaxOpenConns,
				MaxIdleConns: cfg.Audit.SQLite.MaxIdleConns,
				WALMode:      cfg.Audit.SQLite.WALMode,
				BusyTimeout:  cfg.Audit.SQLite.BusyTimeout,
			})
			if err != nil {
				return cli.NewCommandError("run", fmt.Errorf("failed to open audit storage: %w", err))
			}
		case "memory":
			auditStore = auditstorage.NewMemoryStorage()
		default:
			return cli.NewConfigError("audit.backend",
				fmt.Sprintf("unsupported audit backend: %s", cfg.Audit.Backend))
		}
		defer auditStore.Close()

		auditRecorder = recorder.NewRecorder(auditStore, &recorder.Config{
			Enabled:      true,
			AsyncBuffer:  cfg.Audit.Recorder.AsyncBuffer,
			WriteTimeout: cfg.Audit.Recorder.WriteTimeout,
		})
		defer auditRecorder.Close()

		// Retention pruning on the configured cron schedule
		if cfg.Audit.Retention.PruneSchedule != "" {
			pruner := retention.NewPruner(auditStore, &retention.Config{
				RetentionDays:       cfg.Audit.Retention.Days,
				PruneSchedule:       cfg.Audit.Retention.PruneSchedule,
				ArchiveBeforeDelete: cfg.Audit.Retention.ArchiveBeforeDelete,
				ArchivePath:         cfg.Audit.Retention.ArchivePath,
				MaxRecords:          cfg.Audit.Retention.MaxRecords,
			})
			scheduler := retention.NewScheduler(pruner)
			if err := scheduler.Start(ctx); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer scheduler.Stop()
				if next := scheduler.NextRun(); next != nil {
					slog.Debug("audit retention scheduled", "next_run", next)
				}
			}
		}

		fmt.Printf("✓ Audit trail active (%s backend)\n", cfg.Audit.Backend)
	}

	// Extraction pipeline
	var pipelineMetrics *pipeline.Metrics
	if collector != nil {
		pipelineMetrics = pipeline.NewMetrics(collector.Registry())
	}
	runner := pipeline.NewRunner(pipeline.Config{
		TargetChars:        cfg.Compaction.TargetChars,
		PreserveTimestamps: cfg.Compaction.PreserveTimestamps,
		EventBuffer:        cfg.Server.EventBuffer,
	}, pipeline.Deps{
		Quota:    guard,
		Catalog:  catalogManager,
		Upstream: gateway,
		Recorder: auditRecorder,
		Metrics:  pipelineMetrics,
		Logger:   logger.Slog(),
	})

	// Readiness checks for the components that can go bad at runtime
	checker := health.New(0)
	checker.RegisterCheck("catalog", func(ctx context.Context) error {
		return catalogManager.LastLoadError()
	})
	if auditStore != nil {
		store := auditStore
		checker.RegisterCheck("audit_storage", func(ctx context.Context) error {
			_, err := store.Count(ctx, &audit.Query{})
			return err
		})
	}
	if ledger != nil {
		store := ledger
		checker.RegisterCheck("quota_ledger", func(ctx context.Context) error {
			_, err := store.Usage(ctx, "readiness-probe")
			return err
		})
	}

	srv, err := server.NewServer(&cfg.Server, server.Deps{
		Runner:    runner,
		Checker:   checker,
		Collector: collector,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Extraction endpoint: http://%s/v1/extractions\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if collector != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.ListenAddress)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a signal or a listener error, then drains
	// in-flight sessions within the shutdown timeout.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Ganymede v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("upstream gateway", "name", cfg.Upstream.Name, "base_url", cfg.Upstream.BaseURL, "model", cfg.Upstream.Model)
	if cfg.Catalog.Path != "" {
		slog.Debug("catalog", "path", cfg.Catalog.Path, "watch", cfg.Catalog.Watch)
	}
	if cfg.Audit.Enabled {
		slog.Debug("audit enabled", "backend", cfg.Audit.Backend)
	}
}
