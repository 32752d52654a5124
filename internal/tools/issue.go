package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ghlink/ghlink/internal/core/gateway"
)

func issueNumberParam() Param {
	return Param{Name: "issue_number", Type: TypeInteger, Required: true, Description: "Issue number"}
}

// issueEndpoint returns "repos/{owner}/{repo}/issues/{n}" and the number.
func issueEndpoint(args Args) (string, string, error) {
	endpoint, err := repoEndpoint(args)
	if err != nil {
		return "", "", err
	}
	number, err := positiveID(args, "issue_number")
	if err != nil {
		return "", "", err
	}
	return join(endpoint, "issues", number), number, nil
}

func issueFields(args Args) Payload {
	body := Payload{}
	body.SetString("title", args.RawStr("title")).
		SetString("body", args.RawStr("body")).
		SetStrings("assignees", args.Strings("assignees")).
		SetStrings("labels", args.Strings("labels")).
		SetInt("milestone", args.Int("milestone", 0))
	return body
}

func issueTools(d Deps) []*Tool {
	editable := []Param{
		{Name: "body", Type: TypeString, Description: "Issue body (markdown)"},
		{Name: "assignees", Type: TypeArray, Description: "Logins to assign"},
		{Name: "labels", Type: TypeArray, Description: "Label names"},
		{Name: "milestone", Type: TypeInteger, Description: "Milestone number"},
	}

	return []*Tool{
		{
			Name:        "list_issues",
			Description: "List repository issues",
			Params: withRepo(append([]Param{
				{Name: "state", Type: TypeString, Description: "Issue state (default open)", Enum: []string{"open", "closed", "all"}},
				{Name: "labels", Type: TypeArray, Description: "Only issues with all of these labels"},
				{Name: "sort", Type: TypeString, Description: "Sort field", Enum: []string{"created", "updated", "comments"}},
				{Name: "direction", Type: TypeString, Description: "Sort direction", Enum: []string{"asc", "desc"}},
				{Name: "since", Type: TypeString, Description: "Only issues updated after this ISO 8601 time"},
				{Name: "assignee", Type: TypeString, Description: "Assignee login, none, or *"},
				{Name: "creator", Type: TypeString, Description: "Creator login"},
				{Name: "mentioned", Type: TypeString, Description: "Mentioned login"},
				{Name: "milestone", Type: TypeString, Description: "Milestone number, none, or *"},
			}, pagingParams()...)...),
			ReadOnly: true,
			Failure:  "Failed to list issues",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				values := query(args, "state", "sort", "direction", "since", "assignee", "creator", "mentioned", "milestone")
				if labels := args.Strings("labels"); len(labels) > 0 {
					values.Set("labels", strings.Join(labels, ","))
				}

				var issues []any
				if err := d.GitHub.Get(ctx, endpoint+"/issues", &gateway.CallOptions{Query: values}, &issues); err != nil {
					return nil, err
				}
				return listResult("issues", issues, fmt.Sprintf("Retrieved %d issues", len(issues))), nil
			},
		},
		{
			Name:        "get_issue",
			Description: "Get an issue",
			Params:      withRepo(issueNumberParam()),
			ReadOnly:    true,
			Failure:     "Failed to get issue",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, number, err := issueEndpoint(args)
				if err != nil {
					return nil, err
				}
				var issue map[string]any
				if err := d.GitHub.Get(ctx, endpoint, nil, &issue); err != nil {
					return nil, err
				}
				return OK("issue", issue, "Retrieved issue #"+number), nil
			},
		},
		{
			Name:        "create_issue",
			Description: "Create an issue",
			Params: withRepo(append([]Param{
				{Name: "title", Type: TypeString, Required: true, Description: "Issue title"},
			}, editable...)...),
			Failure: "Failed to create issue",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				var issue map[string]any
				if err := d.GitHub.Post(ctx, endpoint+"/issues", &gateway.CallOptions{Body: issueFields(args)}, &issue); err != nil {
					return nil, err
				}
				return OK("issue", issue, fmt.Sprintf("Issue '%s' created successfully", args.Str("title"))), nil
			},
		},
		{
			Name:        "update_issue",
			Description: "Update an issue",
			Params: withRepo(append([]Param{
				issueNumberParam(),
				{Name: "title", Type: TypeString, Description: "Issue title"},
				{Name: "state", Type: TypeString, Description: "Issue state", Enum: []string{"open", "closed"}},
				{Name: "state_reason", Type: TypeString, Description: "Reason for the state change", Enum: []string{"completed", "not_planned", "reopened"}},
			}, editable...)...),
			Failure: "Failed to update issue",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, number, err := issueEndpoint(args)
				if err != nil {
					return nil, err
				}
				body := issueFields(args).
					SetString("state", args.Str("state")).
					SetString("state_reason", args.Str("state_reason"))
				if len(body) == 0 {
					return nil, invalid("", "no issue fields to update")
				}

				var issue map[string]any
				if err := d.GitHub.Patch(ctx, endpoint, &gateway.CallOptions{Body: body}, &issue); err != nil {
					return nil, err
				}
				return OK("issue", issue, fmt.Sprintf("Issue #%s updated successfully", number)), nil
			},
		},
		{
			Name:        "close_issue",
			Description: "Close an issue",
			Params: withRepo(
				issueNumberParam(),
				Param{Name: "state_reason", Type: TypeString, Description: "Why the issue is closed", Enum: []string{"completed", "not_planned"}},
			),
			Failure: "Failed to close issue",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, number, err := issueEndpoint(args)
				if err != nil {
					return nil, err
				}
				body := Payload{"state": "closed"}
				body.SetString("state_reason", args.Str("state_reason"))

				var issue map[string]any
				if err := d.GitHub.Patch(ctx, endpoint, &gateway.CallOptions{Body: body}, &issue); err != nil {
					return nil, err
				}
				return OK("issue", issue, fmt.Sprintf("Issue #%s closed successfully", number)), nil
			},
		},
		{
			Name:        "add_issue_comment",
			Description: "Comment on an issue or pull request",
			Params: withRepo(
				issueNumberParam(),
				Param{Name: "body", Type: TypeString, Required: true, Description: "Comment body (markdown)"},
			),
			Failure: "Failed to add comment",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, _, err := issueEndpoint(args)
				if err != nil {
					return nil, err
				}
				var comment map[string]any
				opts := &gateway.CallOptions{Body: Payload{"body": args.RawStr("body")}}
				if err := d.GitHub.Post(ctx, endpoint+"/comments", opts, &comment); err != nil {
					return nil, err
				}
				return OK("comment", comment, "Comment added successfully"), nil
			},
		},
		{
			Name:        "list_issue_comments",
			Description: "List comments on an issue or pull request",
			Params: withRepo(append([]Param{
				issueNumberParam(),
				{Name: "since", Type: TypeString, Description: "Only comments updated after this ISO 8601 time"},
			}, pagingParams()...)...),
			ReadOnly: true,
			Failure:  "Failed to get comments",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, _, err := issueEndpoint(args)
				if err != nil {
					return nil, err
				}
				var comments []any
				if err := d.GitHub.Get(ctx, endpoint+"/comments", &gateway.CallOptions{Query: query(args, "since")}, &comments); err != nil {
					return nil, err
				}
				return listResult("comments", comments, fmt.Sprintf("Retrieved %d comments", len(comments))), nil
			},
		},
	}
}
