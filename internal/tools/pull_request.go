package tools

import (
	"context"

	"github.com/ghlink/ghlink/internal/core/gateway"
)

func pullNumberParam() Param {
	return Param{Name: "pull_number", Type: TypeInteger, Required: true, Description: "Pull request number"}
}

func pullEndpoint(args Args) (string, error) {
	endpoint, err := repoEndpoint(args)
	if err != nil {
		return "", err
	}
	number, err := positiveID(args, "pull_number")
	if err != nil {
		return "", err
	}
	return join(endpoint, "pulls", number), nil
}

func pullRequestTools(d Deps) []*Tool {
	return []*Tool{
		{
			Name:        "list_pull_requests",
			Description: "List pull requests",
			Params: withRepo(append([]Param{
				{Name: "state", Type: TypeString, Description: "State filter (default open)", Enum: []string{"open", "closed", "all"}},
				{Name: "head", Type: TypeString, Description: "Head filter as user:ref-name"},
				{Name: "base", Type: TypeString, Description: "Base branch filter"},
				{Name: "sort", Type: TypeString, Description: "Sort field", Enum: []string{"created", "updated", "popularity", "long-running"}},
				{Name: "direction", Type: TypeString, Description: "Sort direction", Enum: []string{"asc", "desc"}},
			}, pagingParams()...)...),
			ReadOnly: true,
			Failure:  "Failed to list PRs",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				var pulls []any
				opts := &gateway.CallOptions{Query: query(args, "state", "head", "base", "sort", "direction")}
				if err := d.GitHub.Get(ctx, endpoint+"/pulls", opts, &pulls); err != nil {
					return nil, err
				}
				return listResult("pull_requests", pulls, "PRs listed successfully"), nil
			},
		},
		{
			Name:        "get_pull_request",
			Description: "Get a pull request",
			Params:      withRepo(pullNumberParam()),
			ReadOnly:    true,
			Failure:     "Failed to get PR",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := pullEndpoint(args)
				if err != nil {
					return nil, err
				}
				var pull map[string]any
				if err := d.GitHub.Get(ctx, endpoint, nil, &pull); err != nil {
					return nil, err
				}
				return OK("pull_request", pull, "PR retrieved successfully"), nil
			},
		},
		{
			Name:        "create_pull_request",
			Description: "Open a pull request",
			Params: withRepo(
				Param{Name: "title", Type: TypeString, Required: true, Description: "Pull request title"},
				Param{Name: "head", Type: TypeString, Required: true, Description: "Branch with the changes"},
				Param{Name: "base", Type: TypeString, Description: "Branch to merge into (default main)"},
				Param{Name: "body", Type: TypeString, Description: "Pull request body (markdown)"},
				Param{Name: "draft", Type: TypeBoolean, Description: "Open as draft"},
				Param{Name: "maintainer_can_modify", Type: TypeBoolean, Description: "Allow maintainers to push (default true)"},
			),
			Failure: "Failed to create PR",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				base := args.Str("base")
				if base == "" {
					base = defaultBaseBranch
				}
				if !ValidBranchName(base) {
					return nil, invalid("base", "must be a valid branch name")
				}

				body := Payload{
					"title":                 args.RawStr("title"),
					"head":                  args.Str("head"),
					"base":                  base,
					"draft":                 args.Bool("draft", false),
					"maintainer_can_modify": args.Bool("maintainer_can_modify", true),
				}
				body.SetString("body", args.RawStr("body"))

				var pull map[string]any
				if err := d.GitHub.Post(ctx, endpoint+"/pulls", &gateway.CallOptions{Body: body}, &pull); err != nil {
					return nil, err
				}
				return OK("pull_request", pull, "PR created successfully"), nil
			},
		},
		{
			Name:        "update_pull_request",
			Description: "Update a pull request",
			Params: withRepo(
				pullNumberParam(),
				Param{Name: "title", Type: TypeString, Description: "Pull request title"},
				Param{Name: "body", Type: TypeString, Description: "Pull request body"},
				Param{Name: "state", Type: TypeString, Description: "Pull request state", Enum: []string{"open", "closed"}},
				Param{Name: "base", Type: TypeString, Description: "New base branch"},
				Param{Name: "maintainer_can_modify", Type: TypeBoolean, Description: "Allow maintainers to push"},
			),
			Failure: "Failed to update PR",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := pullEndpoint(args)
				if err != nil {
					return nil, err
				}
				if args.Has("base") && !ValidBranchName(args.Str("base")) {
					return nil, invalid("base", "must be a valid branch name")
				}
				body := Payload{}
				body.SetString("title", args.RawStr("title")).
					SetString("body", args.RawStr("body")).
					SetString("state", args.Str("state")).
					SetString("base", args.Str("base")).
					SetArg(args, "maintainer_can_modify", "maintainer_can_modify")
				if len(body) == 0 {
					return nil, invalid("", "no pull request fields to update")
				}

				var pull map[string]any
				if err := d.GitHub.Patch(ctx, endpoint, &gateway.CallOptions{Body: body}, &pull); err != nil {
					return nil, err
				}
				return OK("pull_request", pull, "PR updated successfully"), nil
			},
		},
		{
			Name:        "merge_pull_request",
			Description: "Merge a pull request",
			Params: withRepo(
				pullNumberParam(),
				Param{Name: "merge_method", Type: TypeString, Description: "Merge method (default merge)", Enum: []string{"merge", "squash", "rebase"}},
				Param{Name: "commit_title", Type: TypeString, Description: "Merge commit title"},
				Param{Name: "commit_message", Type: TypeString, Description: "Merge commit message"},
				Param{Name: "sha", Type: TypeString, Description: "Head SHA that must match to merge"},
			),
			Destructive: true,
			Failure:     "Failed to merge PR",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := pullEndpoint(args)
				if err != nil {
					return nil, err
				}
				method := args.Str("merge_method")
				if method == "" {
					method = "merge"
				}
				body := Payload{"merge_method": method}
				body.SetString("commit_title", args.RawStr("commit_title")).
					SetString("commit_message", args.RawStr("commit_message")).
					SetString("sha", args.Str("sha"))

				var merge map[string]any
				if err := d.GitHub.Put(ctx, endpoint+"/merge", &gateway.CallOptions{Body: body}, &merge); err != nil {
					return nil, err
				}
				return OK("merge_result", merge, "PR merged successfully"), nil
			},
		},
		{
			Name:        "list_pull_request_files",
			Description: "List files changed by a pull request",
			Params:      withRepo(append([]Param{pullNumberParam()}, pagingParams()...)...),
			ReadOnly:    true,
			Failure:     "Failed to get PR files",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := pullEndpoint(args)
				if err != nil {
					return nil, err
				}
				var files []any
				if err := d.GitHub.Get(ctx, endpoint+"/files", &gateway.CallOptions{Query: query(args)}, &files); err != nil {
					return nil, err
				}
				return listResult("files", files, "PR files retrieved successfully"), nil
			},
		},
	}
}
