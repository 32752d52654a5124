package tools

import (
	"context"

	"github.com/ghlink/ghlink/internal/core/gateway"
)

const defaultBaseBranch = "main"

func branchParam() Param {
	return Param{Name: "branch_name", Type: TypeString, Required: true, Description: "Branch name"}
}

// branchEndpoint returns base joined with a validated branch name. Slashes
// in branch names are kept as path separators.
func branchEndpoint(base string, args Args, name string) (string, error) {
	branch := args.Str(name)
	if !ValidBranchName(branch) {
		return "", invalid(name, "must be a valid branch name")
	}
	return joinPath(base, branch), nil
}

func branchTools(d Deps) []*Tool {
	return []*Tool{
		{
			Name:        "list_branches",
			Description: "List repository branches",
			Params: withRepo(append([]Param{
				{Name: "protected", Type: TypeBoolean, Description: "Only protected branches"},
			}, pagingParams()...)...),
			ReadOnly: true,
			Failure:  "Failed to list branches",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				var branches []any
				if err := d.GitHub.Get(ctx, endpoint+"/branches", &gateway.CallOptions{Query: query(args, "protected")}, &branches); err != nil {
					return nil, err
				}
				return listResult("branches", branches, "Branches listed successfully"), nil
			},
		},
		{
			Name:        "get_branch",
			Description: "Get a branch",
			Params:      withRepo(branchParam()),
			ReadOnly:    true,
			Failure:     "Failed to get branch",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				if endpoint, err = branchEndpoint(endpoint+"/branches", args, "branch_name"); err != nil {
					return nil, err
				}
				var branch map[string]any
				if err := d.GitHub.Get(ctx, endpoint, nil, &branch); err != nil {
					return nil, err
				}
				return OK("branch", branch, "Branch retrieved successfully"), nil
			},
		},
		{
			Name:        "create_branch",
			Description: "Create a branch from another branch or an explicit commit SHA",
			Params: withRepo(
				branchParam(),
				Param{Name: "from_branch", Type: TypeString, Description: "Source branch (default main)"},
				Param{Name: "sha", Type: TypeString, Description: "Commit SHA to branch from instead of from_branch"},
			),
			Failure: "Failed to create branch",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				name := args.Str("branch_name")
				if !ValidBranchName(name) {
					return nil, invalid("branch_name", "must be a valid branch name")
				}

				sha := args.Str("sha")
				if sha == "" {
					from := args.Str("from_branch")
					if from == "" {
						from = defaultBaseBranch
					}
					if !ValidBranchName(from) {
						return nil, invalid("from_branch", "must be a valid branch name")
					}
					var ref struct {
						Object struct {
							SHA string `json:"sha"`
						} `json:"object"`
					}
					if err := d.GitHub.Get(ctx, joinPath(endpoint+"/git/ref/heads", from), nil, &ref); err != nil {
						return nil, err
					}
					if sha = ref.Object.SHA; sha == "" {
						return nil, gateway.Inconsistent("source branch " + from + " has no commit SHA")
					}
				}

				body := Payload{"ref": "refs/heads/" + name, "sha": sha}
				var branch map[string]any
				if err := d.GitHub.Post(ctx, endpoint+"/git/refs", &gateway.CallOptions{Body: body}, &branch); err != nil {
					return nil, err
				}
				return OK("branch", branch, "Branch created successfully"), nil
			},
		},
		{
			Name:        "delete_branch",
			Description: "Delete a branch",
			Params:      withRepo(branchParam()),
			Destructive: true,
			Failure:     "Failed to delete branch",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				if endpoint, err = branchEndpoint(endpoint+"/git/refs/heads", args, "branch_name"); err != nil {
					return nil, err
				}
				if err := expectDeleted(d.GitHub.Delete(ctx, endpoint, nil)); err != nil {
					return nil, err
				}
				return OK("", nil, "Branch deleted successfully"), nil
			},
		},
		{
			Name:        "update_branch_protection",
			Description: "Replace branch protection settings",
			Params: withRepo(
				branchParam(),
				Param{Name: "required_status_checks", Type: TypeObject, Description: "Status check settings (default strict with no checks)"},
				Param{Name: "enforce_admins", Type: TypeBoolean, Description: "Apply rules to administrators"},
				Param{Name: "required_pull_request_reviews", Type: TypeObject, Description: "Review settings (default one approval)"},
				Param{Name: "restrictions", Type: TypeObject, Description: "Push restrictions (null for none)"},
			),
			Failure: "Failed to update branch protection",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				if endpoint, err = branchEndpoint(endpoint+"/branches", args, "branch_name"); err != nil {
					return nil, err
				}

				checks := args.Object("required_status_checks")
				if checks == nil {
					checks = map[string]any{"strict": true, "checks": []any{}}
				}
				reviews := args.Object("required_pull_request_reviews")
				if reviews == nil {
					reviews = map[string]any{"required_approving_review_count": 1}
				}
				// GitHub requires every key; restrictions is sent as null when absent.
				body := Payload{
					"required_status_checks":        checks,
					"enforce_admins":                args.Bool("enforce_admins", false),
					"required_pull_request_reviews": reviews,
					"restrictions":                  args.Object("restrictions"),
				}

				var protection map[string]any
				if err := d.GitHub.Put(ctx, endpoint+"/protection", &gateway.CallOptions{Body: body}, &protection); err != nil {
					return nil, err
				}
				return OK("protection", protection, "Branch protection updated successfully"), nil
			},
		},
	}
}
