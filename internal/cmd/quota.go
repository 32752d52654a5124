package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ghlink/ghlink/internal/observability"
	"github.com/ghlink/ghlink/internal/output"
	"github.com/ghlink/ghlink/internal/tools"
)

var (
	quotaListOutput  outputFlags
	quotaListRefresh bool
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Inspect GitHub quota observed from response headers",
}

var quotaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the last quota GitHub reported per resource",
	Long: `List the last X-RateLimit-* values GitHub reported per resource.

Every response the gateway receives is recorded in the metadata store.
--refresh makes one GET /rate_limit call first (needs a token).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, sink, err := quotaListOutput.open(cmd, allFormats...)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if quotaListRefresh {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, observability.CLILogger)
			if err != nil {
				return err
			}
			result := a.registry.Invoke(tools.WithTransport(ctx, "cli"), "get_rate_limit", nil)
			_ = a.Close()
			if !result.Success {
				return &toolFailure{tool: "get_rate_limit", kind: result.Kind, message: result.Error}
			}
		}

		db, err := openConfiguredStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		quotas, err := db.ListQuotas(ctx)
		if err != nil {
			return err
		}
		return output.Render(sink.writer, format, output.QuotasGrid(quotas, time.Now()), output.QuotasDocument(quotas))
	},
}

func init() {
	rootCmd.AddCommand(quotaCmd)
	quotaCmd.AddCommand(quotaListCmd)

	quotaListOutput.register(quotaListCmd, allFormats...)
	quotaListCmd.Flags().BoolVar(&quotaListRefresh, "refresh", false, "fetch GET /rate_limit before listing")
}
