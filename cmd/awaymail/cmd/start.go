package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/awaymail/internal/adapter/inbound/http"
	celfilter "github.com/Sentinel-Gate/awaymail/internal/adapter/outbound/cel"
	"github.com/Sentinel-Gate/awaymail/internal/adapter/outbound/memory"
	"github.com/Sentinel-Gate/awaymail/internal/adapter/outbound/smtp"
	"github.com/Sentinel-Gate/awaymail/internal/adapter/outbound/sqlite"
	"github.com/Sentinel-Gate/awaymail/internal/adapter/outbound/webhook"
	"github.com/Sentinel-Gate/awaymail/internal/config"
	"github.com/Sentinel-Gate/awaymail/internal/domain/gate"
	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
	"github.com/Sentinel-Gate/awaymail/internal/service"
	"github.com/Sentinel-Gate/awaymail/internal/telemetry"
)

// interceptorName is the name the gate is registered under.
const interceptorName = "email-on-away"

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	Long: `Start the awaymail daemon.

The hosting XMPP server posts every in-flight message to /v1/intercept.
Forwarding settings are reloaded when the config file changes.

Examples:
  # Start with config file settings
  awaymail start

  # Start with in-memory collaborators and debug logging
  awaymail start --dev

  # Start with a specific config file
  awaymail --config /path/to/awaymail.yaml start`,
	RunE: runStart,
}

var devMode bool

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (debug logging, in-memory directory and outbox)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	evaluator, err := celfilter.NewEvaluator()
	if err != nil {
		return err
	}

	cfg, err := loadDaemonConfig(evaluator)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DevMode always forces debug.
	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	logger.Debug("log level configured", "level", cfg.Server.LogLevel, "effective", logLevel.String())

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}
	if cfg.DevMode {
		logger.Warn("development mode: in-memory directory, mails are not delivered")
	}

	if err := run(ctx, cfg, evaluator, logger); err != nil {
		return err
	}

	logger.Info("awaymail stopped")
	return nil
}

// loadDaemonConfig loads, defaults and validates the configuration,
// including the forwarding filter expression.
func loadDaemonConfig(evaluator *celfilter.Evaluator) (*config.Config, error) {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Forwarding.Filter != "" {
		if err := evaluator.ValidateExpression(cfg.Forwarding.Filter); err != nil {
			return nil, fmt.Errorf("config validation failed: forwarding.filter: %w", err)
		}
	}
	return cfg, nil
}

// run wires all components together and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, evaluator *celfilter.Evaluator, logger *slog.Logger) error {
	opts := []gate.Option{gate.WithFilter(evaluator)}

	if cfg.Telemetry.Enabled {
		providers, err := telemetry.Setup(os.Stderr, Version, cfg.Telemetry.MetricsIntervalDuration())
		if err != nil {
			return fmt.Errorf("failed to set up telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := providers.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}()

		recorder, err := telemetry.NewMeterRecorder(providers.Meter)
		if err != nil {
			return fmt.Errorf("failed to create meter recorder: %w", err)
		}
		opts = append(opts, gate.WithRecorder(recorder))
		logger.Info("telemetry export enabled", "metrics_interval", cfg.Telemetry.MetricsIntervalDuration())
	}

	directory, pinger, closeDirectory, err := buildDirectory(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDirectory(); err != nil {
			logger.Warn("failed to close directory", "error", err)
		}
	}()

	mailer, err := buildMailer(cfg, logger)
	if err != nil {
		return err
	}
	router, err := buildRouter(cfg, logger)
	if err != nil {
		return err
	}

	settings := config.NewLiveSettings(cfg.Settings(), logger)
	settings.Watch(func() (*config.Config, error) {
		return loadDaemonConfig(evaluator)
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := http.NewMetrics(reg)
	stats := service.NewStatsService()
	opts = append(opts, gate.WithRecorder(stats), gate.WithRecorder(metrics))

	g := gate.New(directory, mailer, router, settings, logger, opts...)

	dispatcher := service.NewDispatchService(logger)
	if err := dispatcher.Register(interceptorName, g); err != nil {
		return err
	}
	defer dispatcher.Deregister(interceptorName)

	transport := http.NewHTTPTransport(dispatcher,
		http.WithAddr(cfg.Server.HTTPAddr),
		http.WithLogger(logger),
		http.WithMetrics(metrics, reg),
		http.WithHealthChecker(http.NewHealthChecker(stats, pinger, dispatcher, Version)),
	)

	logger.Info("awaymail started",
		"domain", cfg.Server.Domain,
		"directory", cfg.Directory.Driver,
		"addr", cfg.Server.HTTPAddr,
	)
	return transport.Start(ctx)
}

// localDomains returns the served domain followed by the extra local domains.
func localDomains(cfg *config.Config) []string {
	domains := make([]string, 0, 1+len(cfg.Directory.LocalDomains))
	domains = append(domains, cfg.Server.Domain)
	return append(domains, cfg.Directory.LocalDomains...)
}

// buildDirectory opens the configured directory. The Pinger is nil for
// backends without a health check.
func buildDirectory(ctx context.Context, cfg *config.Config) (outbound.Directory, http.Pinger, func() error, error) {
	switch cfg.Directory.Driver {
	case "sqlite":
		dir, err := sqlite.Open(ctx, cfg.Directory.DSN, localDomains(cfg)...)
		if err != nil {
			return nil, nil, nil, err
		}
		return dir, dir, dir.Close, nil
	default:
		dir := memory.NewDirectory(localDomains(cfg)...)
		if cfg.DevMode {
			seedDevDirectory(dir, cfg.Server.Domain)
		}
		return dir, nil, func() error { return nil }, nil
	}
}

// seedDevDirectory adds alice (away) and bob (available) so the daemon
// can be exercised with curl in dev mode.
func seedDevDirectory(dir *memory.Directory, domain string) {
	dir.PutUser(outbound.User{Username: "alice", Name: "Alice"})
	dir.SetProfileField("alice", outbound.FieldEmail, "alice@"+domain)
	dir.SetPresence("alice", "away")

	dir.PutUser(outbound.User{Username: "bob", Name: "Bob"})
	dir.SetPresence("bob", "available")
}

// buildMailer returns the SMTP mailer, or the in-memory outbox in dev mode
// when no relay is configured.
func buildMailer(cfg *config.Config, logger *slog.Logger) (outbound.Mailer, error) {
	if cfg.SMTP.Addr != "" {
		return smtp.NewMailer(smtp.Config{
			Addr:     cfg.SMTP.Addr,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			Envelope: cfg.SMTP.Envelope,
		}, logger), nil
	}
	if cfg.DevMode {
		return memory.NewOutbox(logger), nil
	}
	return nil, errors.New("smtp.addr is required outside dev mode")
}

// buildRouter returns the webhook router, or a logging in-memory router in
// dev mode when no endpoint is configured.
func buildRouter(cfg *config.Config, logger *slog.Logger) (outbound.Router, error) {
	if cfg.Router.URL != "" {
		return webhook.NewRouter(cfg.Router.URL, logger,
			webhook.WithTimeout(cfg.Router.TimeoutDuration()),
		), nil
	}
	if cfg.DevMode {
		return memory.NewRouter(logger), nil
	}
	return nil, errors.New("router.url is required outside dev mode")
}

// parseLogLevel converts a config log level string to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
