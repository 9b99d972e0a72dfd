package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/nautwatch/internal/config"
	"github.com/fyrsmithlabs/nautwatch/internal/daemon"
	httpserver "github.com/fyrsmithlabs/nautwatch/internal/http"
	"github.com/fyrsmithlabs/nautwatch/internal/ignore"
	"github.com/fyrsmithlabs/nautwatch/internal/logging"
	"github.com/fyrsmithlabs/nautwatch/internal/metrics"
	"github.com/fyrsmithlabs/nautwatch/internal/notify"
	"github.com/fyrsmithlabs/nautwatch/internal/pathmap"
	"github.com/fyrsmithlabs/nautwatch/internal/redact"
	"github.com/fyrsmithlabs/nautwatch/internal/registrar"
	"github.com/fyrsmithlabs/nautwatch/internal/telemetry"
	"github.com/fyrsmithlabs/nautwatch/internal/tracker"
	"github.com/fyrsmithlabs/nautwatch/internal/watcher"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the watch daemon (default)",
		Long: `Start watching the configured directory and register new projects.

Examples:
  # Run with environment configuration
  CONTAINER_WATCH_PATH=/watch HOST_WATCH_PATH=/srv/projects \
  NAUTMANAGER_API_URL=http://nautmanager:5001/api nautwatch run

  # Run with a config file
  nautwatch run --config ~/.config/nautwatch/config.yaml`,
		Args: cobra.NoArgs,
		RunE: runDaemonCmd,
	}
}

func runDaemonCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info(ctx, "received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	return run(ctx, cfg, logger)
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logging level: %w", err)
	}
	logCfg := logging.NewDefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Logging.Format
	logCfg.Fields["version"] = version
	return logging.NewLogger(logCfg)
}

// newRedactor returns nil unless concept redaction is enabled.
func newRedactor(cfg *config.Config) (*redact.Redactor, error) {
	if !cfg.Enrich.Redact {
		return nil, nil
	}
	r, err := redact.New()
	if err != nil {
		return nil, fmt.Errorf("compiling redaction rules: %w", err)
	}
	return r, nil
}

func telemetryConfig(cfg *config.Config) *telemetry.Config {
	tc := telemetry.NewDefaultConfig()
	tc.Enabled = cfg.Telemetry.Enabled
	tc.Endpoint = cfg.Telemetry.Endpoint
	tc.Protocol = cfg.Telemetry.Protocol
	tc.Insecure = cfg.Telemetry.Insecure
	tc.TLSSkipVerify = cfg.Telemetry.TLSSkipVerify
	tc.SampleRate = cfg.Telemetry.SampleRate
	if cfg.Telemetry.ServiceName != "" {
		tc.ServiceName = cfg.Telemetry.ServiceName
	}
	tc.ServiceVersion = version
	return tc
}

// run wires every component and blocks until ctx is canceled.
//
// Order of startup:
//  1. Telemetry (traces are exported only when enabled)
//  2. Path mapping and ignore rules
//  3. Tracking API client, registrar and notifier
//  4. Filesystem watcher and daemon loop
//  5. Status server (optional)
//
// Shutdown runs in reverse once the daemon loop returns.
func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	tel, err := telemetry.New(ctx, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.ForceFlush(shutdownCtx); err != nil {
			logger.Warn(ctx, "telemetry flush failed", zap.Error(err))
		}
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
		}
	}()
	if tel.IsEnabled() {
		logger.Info(ctx, "exporting traces",
			zap.String("endpoint", cfg.Telemetry.Endpoint),
			zap.String("protocol", cfg.Telemetry.Protocol))
	} else if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded, traces will not be exported", zap.String("error", h.Error))
	}

	root, err := pathmap.NewRoot(cfg.Watch.ContainerPath, cfg.Watch.HostPath)
	if err != nil {
		return fmt.Errorf("watch root: %w", err)
	}

	patterns, err := ignore.NewParser(ignore.FileName).ParseRoot(root.ContainerPath)
	if err != nil {
		return fmt.Errorf("loading ignore rules: %w", err)
	}
	patterns = append(patterns, cfg.Watch.Ignore...)

	m := metrics.New()

	client, err := tracker.New(tracker.Options{
		BaseURL:   cfg.API.URL,
		Timeout:   cfg.API.Timeout.Duration(),
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		Metrics:   m,
		UserAgent: "nautwatch/" + version,
	})
	if err != nil {
		return fmt.Errorf("tracking API client: %w", err)
	}

	redactor, err := newRedactor(cfg)
	if err != nil {
		return err
	}

	reg := registrar.New(registrar.Options{
		API:      client,
		Logger:   logger,
		Metrics:  m,
		Summary:  cfg.Enrich.Summary,
		GitRepo:  cfg.Enrich.GitRepo,
		Redactor: redactor,
	})

	var notifier notify.Notifier = notify.Nop{}
	if cfg.NATS.URL != "" {
		n, err := notify.Connect(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		notifier = n
		logger.Info(ctx, "publishing registration outcomes",
			zap.String("nats_url", cfg.NATS.URL),
			zap.String("subject", cfg.NATS.Subject))
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warn(ctx, "closing notifier failed", zap.Error(err))
		}
	}()

	src, err := watcher.New(watcher.Options{
		Root:    root,
		Ignore:  ignore.NewMatcher(root.ContainerPath, patterns...),
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	d, err := daemon.New(daemon.Options{
		Root:            root,
		Source:          src,
		Registrar:       reg,
		Notifier:        notifier,
		Debounce:        cfg.DebounceDelay(),
		IgnoreInitial:   cfg.Watch.IgnoreInitial,
		ShutdownTimeout: cfg.Daemon.ShutdownTimeout.Duration(),
		Logger:          logger,
		Metrics:         m,
	})
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("creating daemon: %w", err)
	}

	logger.Info(ctx, "nautwatch starting",
		zap.String("container_path", root.ContainerPath),
		zap.String("host_path", root.HostPath),
		zap.String("api_url", cfg.API.URL),
		zap.Duration("debounce", cfg.DebounceDelay()),
		zap.Bool("ignore_initial", cfg.Watch.IgnoreInitial),
		zap.Strings("ignore", patterns))

	if cfg.Status.Enabled {
		srv, err := httpserver.NewServer(d, m, logger, &httpserver.Config{
			Host:    cfg.Status.Host,
			Port:    cfg.Status.Port,
			Version: version,
		})
		if err != nil {
			_ = src.Close()
			return fmt.Errorf("creating status server: %w", err)
		}
		if err := srv.Listen(); err != nil {
			_ = src.Close()
			return fmt.Errorf("status server: %w", err)
		}
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error(ctx, "status server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "status server shutdown failed", zap.Error(err))
			}
		}()
	}

	if err := d.Run(ctx); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}
	logger.Info(ctx, "nautwatch stopped")
	return nil
}
