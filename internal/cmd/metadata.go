package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ghlink/ghlink/internal/core"
	"github.com/ghlink/ghlink/internal/output"
)

var (
	metadataListOutput outputFlags
	metadataListOwner  string
	metadataListLimit  int
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Inspect stored repository metadata",
}

var metadataListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repositories with stored metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, sink, err := metadataListOutput.open(cmd, allFormats...)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		db, err := openConfiguredStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		records, err := db.ListRepositoryMetadata(ctx, metadataListOwner, metadataListLimit)
		if err != nil {
			return err
		}
		if records == nil {
			records = []core.RepositoryMetadata{}
		}
		doc := map[string]any{"metadata": records, "total_count": len(records)}
		return output.Render(sink.writer, format, output.MetadataGrid(records), doc)
	},
}

func init() {
	rootCmd.AddCommand(metadataCmd)
	metadataCmd.AddCommand(metadataListCmd)

	metadataListOutput.register(metadataListCmd, allFormats...)
	metadataListCmd.Flags().StringVar(&metadataListOwner, "owner", "", "only list repositories of this owner")
	metadataListCmd.Flags().IntVar(&metadataListLimit, "limit", 100, "maximum number of records")
}
