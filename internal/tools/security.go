package tools

import (
	"context"
	"strings"

	"github.com/ghlink/ghlink/internal/core/gateway"
)

var alertSeverities = []string{"low", "medium", "high", "critical"}

// alertTool lists alerts from a repository security endpoint.
func alertTool(d Deps, name, description, path, failure, message string, filters ...Param) *Tool {
	filterNames := []string{"state"}
	for _, filter := range filters {
		filterNames = append(filterNames, filter.Name)
	}

	params := append([]Param{
		{Name: "state", Type: TypeString, Description: "Alert state (default open)"},
	}, filters...)

	return &Tool{
		Name:        name,
		Description: description,
		Params:      withRepo(append(params, pagingParams()...)...),
		ReadOnly:    true,
		Failure:     failure,
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			endpoint, err := repoEndpoint(args)
			if err != nil {
				return nil, err
			}
			values := query(args, filterNames...)
			if !values.Has("state") {
				values.Set("state", "open")
			}

			var alerts []any
			if err := d.GitHub.Get(ctx, endpoint+"/"+path, &gateway.CallOptions{Query: values}, &alerts); err != nil {
				return nil, err
			}
			return listResult("alerts", alerts, message), nil
		},
	}
}

func securityTools(d Deps) []*Tool {
	return []*Tool{
		alertTool(d, "list_dependabot_alerts", "List Dependabot alerts", "dependabot/alerts",
			"Failed to get Dependabot alerts", "Dependabot alerts retrieved successfully",
			Param{Name: "severity", Type: TypeString, Description: "Comma separated severities: " + strings.Join(alertSeverities, ", ")},
			Param{Name: "ecosystem", Type: TypeString, Description: "Comma separated package ecosystems"},
		),
		alertTool(d, "list_code_scanning_alerts", "List code scanning alerts", "code-scanning/alerts",
			"Failed to get code scanning alerts", "Code scanning alerts retrieved successfully",
			Param{Name: "ref", Type: TypeString, Description: "Git ref to list alerts for"},
			Param{Name: "tool_name", Type: TypeString, Description: "Scanning tool name"},
			Param{Name: "severity", Type: TypeString, Description: "Severity filter"},
		),
		alertTool(d, "list_secret_scanning_alerts", "List secret scanning alerts", "secret-scanning/alerts",
			"Failed to get secret scanning alerts", "Secret scanning alerts retrieved successfully",
			Param{Name: "secret_type", Type: TypeString, Description: "Comma separated secret types"},
			Param{Name: "resolution", Type: TypeString, Description: "Comma separated resolutions"},
		),
	}
}

