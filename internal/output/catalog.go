package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/ghlink/ghlink/internal/core"
	"github.com/ghlink/ghlink/internal/tools"
)

// ToolSummary is the document form of a catalog entry.
type ToolSummary struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	ReadOnly    bool          `json:"read_only"`
	Destructive bool          `json:"destructive"`
	Params      []tools.Param `json:"params"`
}

// ToolsDocument lists the catalog with its total count.
func ToolsDocument(list []*tools.Tool) map[string]any {
	summaries := make([]ToolSummary, 0, len(list))
	for _, tool := range list {
		params := tool.Params
		if params == nil {
			params = []tools.Param{}
		}
		summaries = append(summaries, ToolSummary{
			Name:        tool.Name,
			Description: tool.Description,
			ReadOnly:    tool.ReadOnly,
			Destructive: tool.Destructive,
			Params:      params,
		})
	}
	return map[string]any{"tools": summaries, "total_count": len(summaries)}
}

// ToolsGrid lists the catalog with required parameters first.
func ToolsGrid(list []*tools.Tool) Grid {
	grid := Grid{
		Title:  "Tools",
		Header: []string{"Name", "Access", "Parameters", "Description"},
		Empty:  "(no tools registered)",
		Footer: fmt.Sprintf("%d tools", len(list)),
	}
	for _, tool := range list {
		grid.Rows = append(grid.Rows, []string{
			tool.Name,
			accessLabel(tool),
			paramsLabel(tool.Params),
			tool.Description,
		})
	}
	return grid
}

func accessLabel(tool *tools.Tool) string {
	switch {
	case tool.Destructive:
		return "destructive"
	case tool.ReadOnly:
		return "read"
	default:
		return "write"
	}
}

func paramsLabel(params []tools.Param) string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		if p.Required {
			names = append(names, p.Name+"*")
		}
	}
	for _, p := range params {
		if !p.Required {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}

// QuotasDocument lists observed quotas with their total count.
func QuotasDocument(quotas []core.Quota) map[string]any {
	if quotas == nil {
		quotas = []core.Quota{}
	}
	return map[string]any{"quotas": quotas, "total_count": len(quotas)}
}

// QuotasGrid lists the last quota GitHub reported per resource.
func QuotasGrid(quotas []core.Quota, now time.Time) Grid {
	grid := Grid{
		Title:  "GitHub quotas",
		Header: []string{"Resource", "Remaining", "Limit", "Used", "Resets", "Observed"},
		Empty:  "(no quota observed yet)",
	}
	for _, quota := range quotas {
		grid.Rows = append(grid.Rows, []string{
			quota.Resource,
			fmt.Sprintf("%d", quota.Remaining),
			fmt.Sprintf("%d", quota.Limit),
			fmt.Sprintf("%d", quota.Used),
			relative(quota.ResetAt, now),
			quota.ObservedAt.UTC().Format(time.RFC3339),
		})
	}
	return grid
}

// MetadataGrid lists stored repository metadata documents.
func MetadataGrid(records []core.RepositoryMetadata) Grid {
	grid := Grid{
		Title:  "Repository metadata",
		Header: []string{"Repository", "Updated", "Size"},
		Empty:  "(no metadata stored)",
	}
	for _, record := range records {
		grid.Rows = append(grid.Rows, []string{
			core.RepositoryRef{Owner: record.Owner, Repo: record.Repo}.FullName(),
			record.UpdatedAt.UTC().Format(time.RFC3339),
			fmt.Sprintf("%d bytes", len(record.Metadata)),
		})
	}
	return grid
}

func relative(at, now time.Time) string {
	if at.IsZero() {
		return "-"
	}
	delta := at.Sub(now).Round(time.Second)
	if delta <= 0 {
		return "now"
	}
	return "in " + delta.String()
}

// ToolDocument describes one tool.
func ToolDocument(tool *tools.Tool) ToolSummary {
	return ToolsDocument([]*tools.Tool{tool})["tools"].([]ToolSummary)[0]
}

// ParamsGrid lists one tool's parameters.
func ParamsGrid(tool *tools.Tool) Grid {
	grid := Grid{
		Title:  fmt.Sprintf("%s (%s): %s", tool.Name, accessLabel(tool), tool.Description),
		Header: []string{"Parameter", "Type", "Required", "Description"},
		Empty:  "(no parameters)",
	}
	for _, p := range tool.Params {
		required := ""
		if p.Required {
			required = "yes"
		}
		grid.Rows = append(grid.Rows, []string{p.Name, string(p.Type), required, p.Description})
	}
	return grid
}
