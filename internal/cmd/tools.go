package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghlink/ghlink/internal/core/gateway"
	"github.com/ghlink/ghlink/internal/observability"
	"github.com/ghlink/ghlink/internal/output"
	"github.com/ghlink/ghlink/internal/tools"
)

var (
	toolsListOutput outputFlags
	toolsListFilter string
	toolsShowOutput outputFlags
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect the tool catalog",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tool with its access level and parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, sink, err := toolsListOutput.open(cmd, allFormats...)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		registry, err := offlineCatalog()
		if err != nil {
			return err
		}

		list := registry.List()
		if filter := strings.ToLower(strings.TrimSpace(toolsListFilter)); filter != "" {
			filtered := list[:0]
			for _, tool := range list {
				if strings.Contains(tool.Name, filter) {
					filtered = append(filtered, tool)
				}
			}
			list = filtered
		}

		return output.Render(sink.writer, format, output.ToolsGrid(list), output.ToolsDocument(list))
	},
}

var toolsShowCmd = &cobra.Command{
	Use:   "show <tool>",
	Short: "Show one tool's parameters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, sink, err := toolsShowOutput.open(cmd, allFormats...)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		registry, err := offlineCatalog()
		if err != nil {
			return err
		}
		tool, ok := registry.Get(strings.TrimSpace(args[0]))
		if !ok {
			return fmt.Errorf("unknown tool: %s (see 'tools list')", args[0])
		}
		return output.Render(sink.writer, format, output.ParamsGrid(tool), output.ToolDocument(tool))
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsShowCmd)

	toolsListOutput.register(toolsListCmd, allFormats...)
	toolsListCmd.Flags().StringVar(&toolsListFilter, "filter", "", "only list tools whose name contains this text")
	toolsShowOutput.register(toolsShowCmd, allFormats...)
}

var errOffline = errors.New("catalog opened for listing only")

// offlineGitHub backs catalog listings, which never call GitHub and so
// need no token.
type offlineGitHub struct{}

func (offlineGitHub) Get(context.Context, string, *gateway.CallOptions, any) error { return errOffline }
func (offlineGitHub) Post(context.Context, string, *gateway.CallOptions, any) error { return errOffline }
func (offlineGitHub) Put(context.Context, string, *gateway.CallOptions, any) error { return errOffline }
func (offlineGitHub) Patch(context.Context, string, *gateway.CallOptions, any) error { return errOffline }
func (offlineGitHub) Delete(context.Context, string, *gateway.CallOptions) (bool, error) {
	return false, errOffline
}

func offlineCatalog() (*tools.Registry, error) {
	return tools.NewCatalog(tools.Deps{GitHub: offlineGitHub{}, Logger: observability.CLILogger})
}
