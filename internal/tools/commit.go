package tools

import (
	"context"

	"github.com/ghlink/ghlink/internal/core/gateway"
)

var commitStates = []string{"error", "failure", "pending", "success"}

func commitTools(d Deps) []*Tool {
	return []*Tool{
		{
			Name:        "list_commits",
			Description: "List commits, optionally filtered by ref, path, author, or date range",
			Params: withRepo(append([]Param{
				{Name: "sha", Type: TypeString, Description: "Branch or commit SHA to start from"},
				{Name: "path", Type: TypeString, Description: "Only commits touching this path"},
				{Name: "author", Type: TypeString, Description: "Author login or email"},
				{Name: "since", Type: TypeString, Description: "ISO 8601 lower bound"},
				{Name: "until", Type: TypeString, Description: "ISO 8601 upper bound"},
			}, pagingParams()...)...),
			ReadOnly: true,
			Failure:  "Failed to list commits",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				var commits []any
				opts := &gateway.CallOptions{Query: query(args, "sha", "path", "author", "since", "until")}
				if err := d.GitHub.Get(ctx, endpoint+"/commits", opts, &commits); err != nil {
					return nil, err
				}
				return listResult("commits", commits, "Commits listed successfully"), nil
			},
		},
		{
			Name:        "get_commit",
			Description: "Get a commit with its files and stats",
			Params:      withRepo(Param{Name: "sha", Type: TypeString, Required: true, Description: "Commit SHA or ref"}),
			ReadOnly:    true,
			Failure:     "Failed to get commit",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				var commit map[string]any
				if err := d.GitHub.Get(ctx, join(endpoint, "commits", args.Str("sha")), nil, &commit); err != nil {
					return nil, err
				}
				return OK("commit", commit, "Commit retrieved successfully"), nil
			},
		},
		{
			Name:        "create_commit_status",
			Description: "Create a commit status",
			Params: withRepo(
				Param{Name: "sha", Type: TypeString, Required: true, Description: "Commit SHA"},
				Param{Name: "state", Type: TypeString, Required: true, Description: "Status state", Enum: commitStates},
				Param{Name: "target_url", Type: TypeString, Description: "Link for the status"},
				Param{Name: "description", Type: TypeString, Description: "Short description"},
				Param{Name: "context", Type: TypeString, Description: "Status label (default \"default\")"},
			),
			Failure: "Failed to create commit status",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				body := Payload{"state": args.Str("state")}
				body.SetString("target_url", args.Str("target_url")).
					SetString("description", args.RawStr("description")).
					SetString("context", args.Str("context"))

				var status map[string]any
				if err := d.GitHub.Post(ctx, join(endpoint, "statuses", args.Str("sha")), &gateway.CallOptions{Body: body}, &status); err != nil {
					return nil, err
				}
				return OK("status", status, "Commit status created successfully"), nil
			},
		},
	}
}
