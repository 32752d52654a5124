package tools

import (
	"context"

	"github.com/ghlink/ghlink/internal/core/gateway"
)

func loginParam(name, description string) Param {
	return Param{Name: name, Type: TypeString, Required: true, Description: description}
}

func validLogin(args Args, name string) (string, error) {
	login := args.Str(name)
	if !ValidOwner(login) {
		return "", invalid(name, "must be a valid login")
	}
	return login, nil
}

func userTools(d Deps) []*Tool {
	return []*Tool{
		{
			Name:        "get_authenticated_user",
			Description: "Get the user the token belongs to",
			ReadOnly:    true,
			Failure:     "Failed to get user profile",
			Handler: func(ctx context.Context, _ Args) (*Result, error) {
				var user map[string]any
				if err := d.GitHub.Get(ctx, "user", nil, &user); err != nil {
					return nil, err
				}
				return OK("user", user, "User profile retrieved successfully"), nil
			},
		},
		{
			Name:        "get_user",
			Description: "Get a public user profile",
			Params:      []Param{loginParam("username", "User login")},
			ReadOnly:    true,
			Failure:     "Failed to get user profile",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				login, err := validLogin(args, "username")
				if err != nil {
					return nil, err
				}
				var user map[string]any
				if err := d.GitHub.Get(ctx, join("users", login), nil, &user); err != nil {
					return nil, err
				}
				return OK("user", user, "User profile retrieved successfully"), nil
			},
		},
		{
			Name:        "get_organization",
			Description: "Get an organization",
			Params:      []Param{loginParam("org", "Organization login")},
			ReadOnly:    true,
			Failure:     "Failed to get organization",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				org, err := validLogin(args, "org")
				if err != nil {
					return nil, err
				}
				var organization map[string]any
				if err := d.GitHub.Get(ctx, join("orgs", org), nil, &organization); err != nil {
					return nil, err
				}
				return OK("organization", organization, "Organization retrieved successfully"), nil
			},
		},
		{
			Name:        "list_organization_members",
			Description: "List organization members",
			Params: append([]Param{
				loginParam("org", "Organization login"),
				{Name: "filter", Type: TypeString, Description: "Member filter", Enum: []string{"2fa_disabled", "all"}},
				{Name: "role", Type: TypeString, Description: "Role filter", Enum: []string{"all", "admin", "member"}},
			}, pagingParams()...),
			ReadOnly: true,
			Failure:  "Failed to get organization members",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				org, err := validLogin(args, "org")
				if err != nil {
					return nil, err
				}
				var members []any
				opts := &gateway.CallOptions{Query: query(args, "filter", "role")}
				if err := d.GitHub.Get(ctx, join("orgs", org, "members"), opts, &members); err != nil {
					return nil, err
				}
				return listResult("members", members, "Organization members retrieved successfully"), nil
			},
		},
		{
			Name:        "get_rate_limit",
			Description: "Get the remote rate limit status. The call itself does not count against the remote quota",
			ReadOnly:    true,
			Failure:     "Failed to get rate limit",
			Handler: func(ctx context.Context, _ Args) (*Result, error) {
				var status struct {
					Resources map[string]any `json:"resources"`
					Rate      map[string]any `json:"rate"`
				}
				if err := d.GitHub.Get(ctx, "rate_limit", nil, &status); err != nil {
					return nil, err
				}
				return OK("rate_limit", status.Resources, "Rate limit retrieved successfully").With("rate", status.Rate), nil
			},
		},
	}
}
