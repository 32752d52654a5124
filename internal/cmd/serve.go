package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ghlink/ghlink/internal/core/engine"
	errwrap "github.com/ghlink/ghlink/internal/errors"
	"github.com/ghlink/ghlink/internal/metrics"
	"github.com/ghlink/ghlink/internal/observability"
	"github.com/ghlink/ghlink/internal/server"
	"github.com/ghlink/ghlink/internal/server/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tool catalog over HTTP",
	Long: `Serve the tool catalog over HTTP with graceful shutdown support.

Endpoints:
  GET  /v1/tools           list tools
  POST /v1/tools/{name}    invoke a tool with a JSON object of arguments
  GET  /v1/admission       admission window snapshot
  GET  /v1/quotas          last GitHub quota observed per resource

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-read the config file (restart to apply changes)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "server host (default from server.host)")
	serveCmd.Flags().IntP("port", "p", 0, "server port (default from server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	identity := GetAppIdentity()
	namespace := identity.TelemetryNamespace()

	cfg, err := loadConfig(ctx, serveOverrides(cmd))
	if err != nil {
		return err
	}

	logLevel := cfg.Logging.Level
	if verbose {
		logLevel = "debug"
	}
	observability.InitServerLogger(identity.BinaryName, logLevel, namespace)
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(namespace, cfg.Metrics.Port); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "metrics initialization failed")
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	hm := handlers.NewHealthManager(versionInfo.Version)
	registerHealthChecks(hm, a, cfg.Metrics.Enabled)
	handlers.SetAppIdentity(identity)

	opts := server.Options{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Registry:     a.registry,
		Admission:    a.limiter,
		Health:       hm,
		AdminToken:   cfg.Server.AdminToken,
	}
	if a.store != nil {
		opts.Quotas = a.store
	}
	srv, err := server.New(opts)
	if err != nil {
		_ = a.Close()
		return err
	}

	logger.Info("Initializing server",
		zap.String("service", identity.BinaryName),
		zap.String("namespace", namespace),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int("tools", a.registry.Len()),
		zap.Int("metrics_port", observability.GetMetricsPort()))

	// Shutdown handlers run LIFO: HTTP server, then store, then logger.
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Flushing logger...")
		if err := logger.Sync(); err != nil {
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		if err := a.Close(); err != nil {
			logger.Warn("Store close failed", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		logger.Info("Received SIGHUP: re-reading config file")
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				logger.Info("No config file found - using defaults and environment variables")
				return nil
			}
			logger.Error("Failed to reload config file",
				zap.String("file", viper.ConfigFileUsed()),
				zap.Error(err))
			return errwrap.Wrap(ctx, errwrap.CodeValidationFailed, err, "config reload failed")
		}
		// The admission window and gateway are built once per process.
		logger.Info("Config file re-read; restart to apply GitHub or rate limit changes",
			zap.String("file", viper.ConfigFileUsed()))
		return nil
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server...",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port))
		metrics.SetServerStartTime(time.Now())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	go func() {
		if err := signals.Listen(ctx); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if err := <-errChan; err != nil {
		return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "server error")
	}
	return nil
}

// serveOverrides lets explicit flags win over file and environment settings.
func serveOverrides(cmd *cobra.Command) map[string]any {
	settings := map[string]any{}
	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		settings["host"] = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		settings["port"] = port
	}
	if len(settings) == 0 {
		return nil
	}
	return map[string]any{"server": settings}
}

func registerHealthChecks(hm *handlers.HealthManager, a *app, telemetryEnabled bool) {
	identity := GetAppIdentity()
	hm.RegisterChecker("app_identity", handlers.CheckerFunc(func(ctx context.Context) error {
		switch {
		case identity == nil || identity.BinaryName == "":
			return fmt.Errorf("app identity missing binary name")
		case identity.EnvPrefix == "":
			return fmt.Errorf("app identity missing env prefix")
		}
		return nil
	}))

	hm.RegisterChecker("admission", handlers.CheckerFunc(func(ctx context.Context) error {
		return admissionHealth(a.limiter.Snapshot())
	}))

	if telemetryEnabled {
		hm.RegisterChecker("telemetry", handlers.CheckerFunc(func(ctx context.Context) error {
			if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
				return fmt.Errorf("telemetry system not initialized")
			}
			return nil
		}))
	}

	if a.store != nil {
		hm.RegisterChecker("store", handlers.CheckerFunc(func(ctx context.Context) error {
			return a.store.DB.PingContext(ctx)
		}))
	}
}

// admissionHealth reports a saturated window as degraded, never unhealthy.
func admissionHealth(snapshot engine.AdmissionSnapshot) error {
	metrics.SetAdmissionInUse(snapshot.Used)
	if snapshot.Limit > 0 && snapshot.Used >= snapshot.Limit {
		return fmt.Errorf("%w: admission window full, next slot in %s",
			handlers.ErrDegraded, snapshot.NextSlotIn.Round(time.Second))
	}
	return nil
}
