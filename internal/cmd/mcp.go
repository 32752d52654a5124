package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ghlink/ghlink/internal/mcpserver"
	"github.com/ghlink/ghlink/internal/observability"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the tool catalog over MCP on stdio",
	Long: `Serve the tool catalog as a Model Context Protocol server on stdin/stdout.

Logs go to stderr; stdout carries only the JSON-RPC stream. Configure the
GitHub token with GHLINK_GITHUB_TOKEN or GITHUB_TOKEN in the client's
server definition.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	identity := GetAppIdentity()

	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}

	logLevel := cfg.Logging.Level
	if verbose {
		logLevel = "debug"
	}
	observability.InitServerLogger(identity.BinaryName, logLevel, identity.TelemetryNamespace())
	logger := observability.ServerLogger

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Store close failed", zap.Error(err))
		}
	}()

	signals.OnShutdown(func(context.Context) error {
		logger.Info("Stopping MCP server")
		cancel()
		return nil
	})
	go func() {
		if err := signals.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Signal handler error", zap.Error(err))
		}
	}()

	srv := mcpserver.New(a.registry, identity.BinaryName, versionInfo.Version)
	logger.Info("Starting MCP stdio server",
		zap.String("version", versionInfo.Version),
		zap.Int("tools", a.registry.Len()))

	err = mcpserver.ServeStdio(ctx, srv, os.Stdin, os.Stdout, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
