package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ghlink/ghlink/internal/ailink/driver"
	"github.com/ghlink/ghlink/internal/config"
	"github.com/ghlink/ghlink/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, resolved configuration and version information. Secrets are redacted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := observability.CLILogger
		version := crucible.GetVersion()
		identity := GetAppIdentity()

		log.Info("=== " + identity.BinaryName + " environment ===")
		log.Info("")

		log.Info("Application:")
		log.Info("  Name:       " + identity.BinaryName)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("  Env Prefix: " + identity.EnvPrefix)
		log.Info("")

		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		log.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return err
		}

		token := "(not set)"
		if strings.TrimSpace(cfg.GitHub.Token) != "" {
			token = redact(cfg.GitHub.Token)
		}
		log.Info("GitHub:")
		log.Info("  Base URL:       " + cfg.GitHub.BaseURL)
		log.Info("  Token:          " + token)
		log.Info("  User Agent:     " + userAgent(cfg.GitHub.UserAgent))
		log.Info("  Timeout:        " + cfg.GitHub.Timeout.String())
		log.Info(fmt.Sprintf("  Admission:      %d per %s", cfg.GitHub.RateLimit.MaxRequests, cfg.GitHub.RateLimit.Window),
			zap.Int("max_requests", cfg.GitHub.RateLimit.MaxRequests),
			zap.Duration("window", cfg.GitHub.RateLimit.Window))
		log.Info("")

		log.Info("Configuration:")
		log.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		log.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		log.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info(fmt.Sprintf("  Store Enabled:  %t", cfg.Store.Enabled))
		log.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			log.Info("  DB URL:         "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
		} else {
			log.Info("  DB Path:        "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		log.Info(fmt.Sprintf("  Metrics:        %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port))
		log.Info("  Config File:    " + config.DefaultConfigPath(cmd.Context()))
		log.Info("")

		log.Info("AILink:")
		log.Info("  Provider:       " + cfg.AILink.Provider)
		log.Info("  Model:          " + cfg.AILink.Model)
		if cfg.AILink.Enabled() {
			log.Info("  API Key:        (set)")
		} else {
			log.Info("  API Key:        (not set)")
		}
		log.Info(fmt.Sprintf("  Tracing:        %t", driver.IsTracingEnabled()))
		log.Info("")

		log.Info("=== End Environment Information ===")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
