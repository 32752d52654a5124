package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghlink/ghlink/internal/output"
	"github.com/ghlink/ghlink/internal/server/handlers"
)

var (
	extended      bool
	versionOutput outputFlags
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for Go, Gofulmen, Crucible and MCP protocol versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, sink, err := versionOutput.open(cmd, output.FormatTable, output.FormatJSON, output.FormatYAML)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		report := handlers.CurrentVersion()
		if format != output.FormatTable {
			return output.Document(sink.writer, format, report)
		}

		w := sink.writer
		fmt.Fprintf(w, "%s %s\n", report.App.Name, report.App.Version)
		if !extended {
			return nil
		}
		fmt.Fprintf(w, "Commit: %s\n", report.App.Commit)
		fmt.Fprintf(w, "Built: %s\n", report.App.BuildDate)
		fmt.Fprintf(w, "Go: %s\n", report.App.GoVersion)
		fmt.Fprintf(w, "Platform: %s\n", report.Runtime.Platform)
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "Gofulmen: %s\n", report.Dependencies.Gofulmen)
		fmt.Fprintf(w, "Crucible: %s\n", report.Dependencies.Crucible)
		fmt.Fprintf(w, "MCP protocol: %s\n", report.Dependencies.MCPProtocol)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
	versionOutput.register(versionCmd, output.FormatTable, output.FormatJSON, output.FormatYAML)
}
