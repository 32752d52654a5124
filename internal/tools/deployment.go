package tools

import (
	"context"

	"github.com/ghlink/ghlink/internal/core/gateway"
)

var deploymentStates = []string{"error", "failure", "inactive", "in_progress", "queued", "pending", "success"}

func deploymentTools(d Deps) []*Tool {
	return []*Tool{
		{
			Name:        "list_deployments",
			Description: "List deployments",
			Params: withRepo(append([]Param{
				{Name: "sha", Type: TypeString, Description: "Commit SHA filter"},
				{Name: "ref", Type: TypeString, Description: "Ref filter"},
				{Name: "task", Type: TypeString, Description: "Task filter"},
				{Name: "environment", Type: TypeString, Description: "Environment filter"},
			}, pagingParams()...)...),
			ReadOnly: true,
			Failure:  "Failed to get deployments",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				var deployments []any
				opts := &gateway.CallOptions{Query: query(args, "sha", "ref", "task", "environment")}
				if err := d.GitHub.Get(ctx, endpoint+"/deployments", opts, &deployments); err != nil {
					return nil, err
				}
				return listResult("deployments", deployments, "Deployments retrieved successfully"), nil
			},
		},
		{
			Name:        "create_deployment",
			Description: "Create a deployment for a ref",
			Params: withRepo(
				Param{Name: "ref", Type: TypeString, Required: true, Description: "Ref to deploy"},
				Param{Name: "environment", Type: TypeString, Description: "Target environment (default production)"},
				Param{Name: "description", Type: TypeString, Description: "Deployment description"},
				Param{Name: "task", Type: TypeString, Description: "Task name (default deploy)"},
				Param{Name: "auto_merge", Type: TypeBoolean, Description: "Merge the default branch into ref first"},
				Param{Name: "required_contexts", Type: TypeArray, Description: "Status contexts that must pass"},
				Param{Name: "payload", Type: TypeObject, Description: "Extra data for the deployment"},
				Param{Name: "transient_environment", Type: TypeBoolean, Description: "Environment is transient"},
				Param{Name: "production_environment", Type: TypeBoolean, Description: "Environment is production"},
			),
			Failure: "Failed to create deployment",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				environment := args.Str("environment")
				if environment == "" {
					environment = "production"
				}
				body := Payload{"ref": args.Str("ref"), "environment": environment}
				body.SetString("description", args.RawStr("description")).
					SetString("task", args.Str("task")).
					SetObject("payload", args.Object("payload")).
					SetArg(args, "auto_merge", "auto_merge").
					SetArg(args, "transient_environment", "transient_environment").
					SetArg(args, "production_environment", "production_environment")
				// An empty list is meaningful: it skips status checks.
				if _, ok := args["required_contexts"]; ok {
					body.Set("required_contexts", args.Strings("required_contexts"))
				}

				var deployment map[string]any
				if err := d.GitHub.Post(ctx, endpoint+"/deployments", &gateway.CallOptions{Body: body}, &deployment); err != nil {
					return nil, err
				}
				return OK("deployment", deployment, "Deployment created successfully"), nil
			},
		},
		{
			Name:        "create_deployment_status",
			Description: "Create a deployment status",
			Params: withRepo(
				Param{Name: "deployment_id", Type: TypeInteger, Required: true, Description: "Deployment ID"},
				Param{Name: "state", Type: TypeString, Required: true, Description: "Deployment state", Enum: deploymentStates},
				Param{Name: "log_url", Type: TypeString, Description: "Deployment log URL"},
				Param{Name: "environment_url", Type: TypeString, Description: "Deployed environment URL"},
				Param{Name: "description", Type: TypeString, Description: "Short description"},
				Param{Name: "environment", Type: TypeString, Description: "Environment name"},
				Param{Name: "auto_inactive", Type: TypeBoolean, Description: "Mark earlier deployments inactive"},
			),
			Failure: "Failed to create deployment status",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				id, err := positiveID(args, "deployment_id")
				if err != nil {
					return nil, err
				}
				body := Payload{"state": args.Str("state")}
				body.SetString("log_url", args.Str("log_url")).
					SetString("environment_url", args.Str("environment_url")).
					SetString("description", args.RawStr("description")).
					SetString("environment", args.Str("environment")).
					SetArg(args, "auto_inactive", "auto_inactive")

				var status map[string]any
				if err := d.GitHub.Post(ctx, join(endpoint, "deployments", id, "statuses"), &gateway.CallOptions{Body: body}, &status); err != nil {
					return nil, err
				}
				return OK("status", status, "Deployment status created successfully"), nil
			},
		},
	}
}
