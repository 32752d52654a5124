package tools

import (
	"context"

	"github.com/ghlink/ghlink/internal/core/gateway"
)

func workflowParam(required bool) Param {
	return Param{Name: "workflow_id", Type: TypeString, Required: required, Description: "Workflow ID or file name such as ci.yml"}
}

func actionsTools(d Deps) []*Tool {
	return []*Tool{
		{
			Name:        "list_workflows",
			Description: "List GitHub Actions workflows",
			Params:      withRepo(pagingParams()...),
			ReadOnly:    true,
			Failure:     "Failed to list workflows",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				var page struct {
					TotalCount int   `json:"total_count"`
					Workflows  []any `json:"workflows"`
				}
				if err := d.GitHub.Get(ctx, endpoint+"/actions/workflows", &gateway.CallOptions{Query: query(args)}, &page); err != nil {
					return nil, err
				}
				return listResult("workflows", page.Workflows, "Workflows listed successfully").With("total_count", page.TotalCount), nil
			},
		},
		{
			Name:        "list_workflow_runs",
			Description: "List workflow runs for a repository or a single workflow",
			Params: withRepo(append([]Param{
				workflowParam(false),
				{Name: "branch", Type: TypeString, Description: "Branch filter"},
				{Name: "event", Type: TypeString, Description: "Triggering event filter"},
				{Name: "status", Type: TypeString, Description: "Status or conclusion filter"},
				{Name: "actor", Type: TypeString, Description: "Actor login filter"},
			}, pagingParams()...)...),
			ReadOnly: true,
			Failure:  "Failed to list workflow runs",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				if workflow := args.Str("workflow_id"); workflow != "" {
					endpoint = join(endpoint, "actions", "workflows", workflow, "runs")
				} else {
					endpoint += "/actions/runs"
				}

				var page struct {
					TotalCount   int   `json:"total_count"`
					WorkflowRuns []any `json:"workflow_runs"`
				}
				opts := &gateway.CallOptions{Query: query(args, "branch", "event", "status", "actor")}
				if err := d.GitHub.Get(ctx, endpoint, opts, &page); err != nil {
					return nil, err
				}
				return listResult("runs", page.WorkflowRuns, "Workflow runs listed successfully"), nil
			},
		},
		{
			Name:        "trigger_workflow",
			Description: "Dispatch a workflow_dispatch event",
			Params: withRepo(
				workflowParam(true),
				Param{Name: "ref", Type: TypeString, Description: "Branch or tag to run on (default main)"},
				Param{Name: "inputs", Type: TypeObject, Description: "Workflow inputs"},
			),
			Failure: "Failed to trigger workflow",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				ref := args.Str("ref")
				if ref == "" {
					ref = defaultBaseBranch
				}
				body := Payload{"ref": ref}
				body.SetObject("inputs", args.Object("inputs"))

				dispatch := join(endpoint, "actions", "workflows", args.Str("workflow_id"), "dispatches")
				if err := d.GitHub.Post(ctx, dispatch, &gateway.CallOptions{Body: body}, nil); err != nil {
					return nil, err
				}
				return OK("", nil, "Workflow triggered successfully").With("ref", ref), nil
			},
		},
		{
			Name:        "cancel_workflow_run",
			Description: "Cancel a workflow run",
			Params:      withRepo(Param{Name: "run_id", Type: TypeInteger, Required: true, Description: "Workflow run ID"}),
			Failure:     "Failed to cancel workflow run",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				runID, err := positiveID(args, "run_id")
				if err != nil {
					return nil, err
				}
				if err := d.GitHub.Post(ctx, join(endpoint, "actions", "runs", runID, "cancel"), nil, nil); err != nil {
					return nil, err
				}
				return OK("", nil, "Workflow run cancelled successfully"), nil
			},
		},
	}
}
