package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/ghlink/ghlink/internal/core/gateway"
)

var repositorySettings = []string{
	"has_issues", "has_projects", "has_wiki", "has_downloads", "is_template",
	"allow_squash_merge", "allow_merge_commit", "allow_rebase_merge",
	"allow_auto_merge", "delete_branch_on_merge",
}

func settingParams() []Param {
	params := make([]Param, 0, len(repositorySettings))
	for _, name := range repositorySettings {
		params = append(params, Param{Name: name, Type: TypeBoolean, Description: "Repository setting " + name})
	}
	return params
}

func repositoryTools(d Deps) []*Tool {
	return []*Tool{
		{
			Name:        "get_repository",
			Description: "Get repository details",
			Params:      withRepo(),
			ReadOnly:    true,
			Failure:     "Failed to get repository",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				var repository map[string]any
				if err := d.GitHub.Get(ctx, endpoint, nil, &repository); err != nil {
					return nil, err
				}
				return OK("repository", repository, fmt.Sprintf("Retrieved repository %s/%s", args.Str("owner"), args.Str("repo"))), nil
			},
		},
		{
			Name:        "list_repositories",
			Description: "List repositories for a user, an organization, or the authenticated user",
			Params: append([]Param{
				{Name: "owner", Type: TypeString, Description: "User whose repositories to list"},
				{Name: "org", Type: TypeString, Description: "Organization whose repositories to list"},
				{Name: "type", Type: TypeString, Description: "Repository type filter", Enum: []string{"all", "owner", "public", "private", "member", "forks", "sources"}},
				{Name: "visibility", Type: TypeString, Description: "Visibility filter", Enum: []string{"all", "public", "private"}},
				{Name: "affiliation", Type: TypeString, Description: "Comma separated affiliations"},
				{Name: "sort", Type: TypeString, Description: "Sort field", Enum: []string{"created", "updated", "pushed", "full_name"}},
				{Name: "direction", Type: TypeString, Description: "Sort direction", Enum: []string{"asc", "desc"}},
			}, pagingParams()...),
			ReadOnly: true,
			Failure:  "Failed to list repositories",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint := "user/repos"
				switch {
				case args.Has("owner"):
					if !ValidOwner(args.Str("owner")) {
						return nil, invalid("owner", "must be a valid login")
					}
					endpoint = join("users", args.Str("owner"), "repos")
				case args.Has("org"):
					if !ValidOwner(args.Str("org")) {
						return nil, invalid("org", "must be a valid login")
					}
					endpoint = join("orgs", args.Str("org"), "repos")
				}

				var repositories []any
				opts := &gateway.CallOptions{Query: query(args, "type", "visibility", "affiliation", "sort", "direction")}
				if err := d.GitHub.Get(ctx, endpoint, opts, &repositories); err != nil {
					return nil, err
				}
				return listResult("repositories", repositories, fmt.Sprintf("Retrieved %d repositories", len(repositories))), nil
			},
		},
		{
			Name:        "create_repository",
			Description: "Create a repository for the authenticated user or an organization",
			Params: append([]Param{
				{Name: "name", Type: TypeString, Required: true, Description: "Repository name"},
				{Name: "description", Type: TypeString, Description: "Repository description"},
				{Name: "homepage", Type: TypeString, Description: "Homepage URL"},
				{Name: "private", Type: TypeBoolean, Description: "Create a private repository"},
				{Name: "auto_init", Type: TypeBoolean, Description: "Initialize with a README (default true)"},
				{Name: "gitignore_template", Type: TypeString, Description: "Gitignore template"},
				{Name: "license_template", Type: TypeString, Description: "License template"},
				{Name: "organization", Type: TypeString, Description: "Create in this organization"},
			}, settingParams()...),
			Failure: "Failed to create repository",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				name := args.Str("name")
				if !ValidRepoName(name) {
					return nil, invalid("name", "must match [A-Za-z0-9._-] and be at most 100 characters")
				}

				endpoint := "user/repos"
				if org := args.Str("organization"); org != "" {
					if !ValidOwner(org) {
						return nil, invalid("organization", "must be a valid login")
					}
					endpoint = join("orgs", org, "repos")
				}

				body := Payload{"name": name, "auto_init": args.Bool("auto_init", true)}
				body.SetString("description", args.RawStr("description")).
					SetString("homepage", args.Str("homepage")).
					SetString("gitignore_template", args.Str("gitignore_template")).
					SetString("license_template", args.Str("license_template")).
					SetArg(args, "private", "private")
				for _, setting := range repositorySettings {
					body.SetArg(args, setting, setting)
				}

				var repository map[string]any
				if err := d.GitHub.Post(ctx, endpoint, &gateway.CallOptions{Body: body}, &repository); err != nil {
					return nil, err
				}
				return OK("repository", repository, fmt.Sprintf("Repository '%s' created successfully", name)), nil
			},
		},
		{
			Name:        "update_repository",
			Description: "Update repository settings",
			Params: append(withRepo(
				Param{Name: "name", Type: TypeString, Description: "New repository name"},
				Param{Name: "description", Type: TypeString, Description: "Repository description"},
				Param{Name: "homepage", Type: TypeString, Description: "Homepage URL"},
				Param{Name: "private", Type: TypeBoolean, Description: "Make the repository private"},
				Param{Name: "default_branch", Type: TypeString, Description: "Default branch"},
				Param{Name: "archived", Type: TypeBoolean, Description: "Archive the repository"},
			), settingParams()...),
			Failure: "Failed to update repository",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				if args.Has("name") && !ValidRepoName(args.Str("name")) {
					return nil, invalid("name", "must match [A-Za-z0-9._-] and be at most 100 characters")
				}
				if args.Has("default_branch") && !ValidBranchName(args.Str("default_branch")) {
					return nil, invalid("default_branch", "must be a valid branch name")
				}

				body := Payload{}
				body.SetString("name", args.Str("name")).
					SetString("description", args.RawStr("description")).
					SetString("homepage", args.Str("homepage")).
					SetString("default_branch", args.Str("default_branch")).
					SetArg(args, "private", "private").
					SetArg(args, "archived", "archived")
				for _, setting := range repositorySettings {
					body.SetArg(args, setting, setting)
				}
				if len(body) == 0 {
					return nil, invalid("", "no repository fields to update")
				}

				var repository map[string]any
				if err := d.GitHub.Patch(ctx, endpoint, &gateway.CallOptions{Body: body}, &repository); err != nil {
					return nil, err
				}
				return OK("repository", repository, fmt.Sprintf("Repository %s/%s updated successfully", args.Str("owner"), args.Str("repo"))), nil
			},
		},
		{
			Name:        "delete_repository",
			Description: "Delete a repository. Requires confirm=true",
			Params: withRepo(
				Param{Name: "confirm", Type: TypeBoolean, Required: true, Description: "Must be true to delete"},
			),
			Destructive: true,
			Failure:     "Failed to delete repository",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				if !args.Bool("confirm", false) {
					return Fail(invalid("confirm", "deletion not confirmed"), "Set confirm=true to delete repository"), nil
				}
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				if err := expectDeleted(d.GitHub.Delete(ctx, endpoint, nil)); err != nil {
					return nil, err
				}
				if d.Logger != nil {
					d.Logger.Warn("repository deleted: " + args.Str("owner") + "/" + args.Str("repo"))
				}
				return OK("", nil, fmt.Sprintf("Repository %s/%s deleted successfully", args.Str("owner"), args.Str("repo"))), nil
			},
		},
		{
			Name:        "fork_repository",
			Description: "Fork a repository",
			Params: withRepo(
				Param{Name: "organization", Type: TypeString, Description: "Fork into this organization"},
				Param{Name: "name", Type: TypeString, Description: "Name for the fork"},
				Param{Name: "default_branch_only", Type: TypeBoolean, Description: "Fork only the default branch"},
			),
			Failure: "Failed to fork repository",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				if args.Has("name") && !ValidRepoName(args.Str("name")) {
					return nil, invalid("name", "must match [A-Za-z0-9._-] and be at most 100 characters")
				}

				body := Payload{}
				body.SetString("organization", args.Str("organization")).
					SetString("name", args.Str("name")).
					SetArg(args, "default_branch_only", "default_branch_only")

				var repository map[string]any
				if err := d.GitHub.Post(ctx, endpoint+"/forks", &gateway.CallOptions{Body: body}, &repository); err != nil {
					return nil, err
				}
				return OK("repository", repository, fmt.Sprintf("Successfully forked %s/%s", args.Str("owner"), args.Str("repo"))), nil
			},
		},
		{
			Name:        "get_repository_contents",
			Description: "Get a file or directory listing. Base64 file content is decoded into decoded_content",
			Params: withRepo(
				Param{Name: "path", Type: TypeString, Description: "Path inside the repository (root when empty)"},
				Param{Name: "ref", Type: TypeString, Description: "Branch, tag, or commit"},
			),
			ReadOnly: true,
			Failure:  "Failed to get repository contents",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				contents, err := fetchContents(ctx, d, args)
				if err != nil {
					return nil, err
				}

				path := args.Str("path")
				count := 1
				if list, ok := contents.([]any); ok {
					count = len(list)
				}
				if path == "" {
					path = "/"
				}
				return OK("contents", contents, "Retrieved contents of "+path).
					With("path", args.Str("path")).
					With("total_count", count), nil
			},
		},
		{
			Name:        "create_or_update_file",
			Description: "Create a file, or update it when sha is given",
			Params: withRepo(
				Param{Name: "path", Type: TypeString, Required: true, Description: "File path"},
				Param{Name: "content", Type: TypeString, Required: true, Description: "File content (plain text)"},
				Param{Name: "message", Type: TypeString, Required: true, Description: "Commit message"},
				Param{Name: "branch", Type: TypeString, Description: "Target branch"},
				Param{Name: "sha", Type: TypeString, Description: "Blob SHA of the file being replaced"},
				Param{Name: "committer", Type: TypeObject, Description: "Committer {name, email}"},
				Param{Name: "author", Type: TypeObject, Description: "Author {name, email}"},
			),
			Failure: "Failed to create/update file",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, path, err := contentsEndpoint(args)
				if err != nil {
					return nil, err
				}
				if args.Has("branch") && !ValidBranchName(args.Str("branch")) {
					return nil, invalid("branch", "must be a valid branch name")
				}

				body := Payload{
					"message": args.RawStr("message"),
					"content": base64.StdEncoding.EncodeToString([]byte(args.RawStr("content"))),
				}
				body.SetString("branch", args.Str("branch")).
					SetString("sha", args.Str("sha")).
					SetObject("committer", args.Object("committer")).
					SetObject("author", args.Object("author"))

				var file map[string]any
				if err := d.GitHub.Put(ctx, endpoint, &gateway.CallOptions{Body: body}, &file); err != nil {
					return nil, err
				}
				action := "created"
				if args.Has("sha") {
					action = "updated"
				}
				return OK("file", file, fmt.Sprintf("Successfully %s file %s", action, path)).With("action", action), nil
			},
		},
		{
			Name:        "delete_file",
			Description: "Delete a file. The blob SHA is looked up when not given",
			Params: withRepo(
				Param{Name: "path", Type: TypeString, Required: true, Description: "File path"},
				Param{Name: "message", Type: TypeString, Required: true, Description: "Commit message"},
				Param{Name: "branch", Type: TypeString, Description: "Target branch"},
				Param{Name: "sha", Type: TypeString, Description: "Blob SHA of the file"},
				Param{Name: "committer", Type: TypeObject, Description: "Committer {name, email}"},
				Param{Name: "author", Type: TypeObject, Description: "Author {name, email}"},
			),
			Destructive: true,
			Failure:     "Failed to delete file",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				endpoint, path, err := contentsEndpoint(args)
				if err != nil {
					return nil, err
				}

				sha := args.Str("sha")
				if sha == "" {
					lookup := Args{"owner": args["owner"], "repo": args["repo"], "path": path, "ref": args.Str("branch")}
					contents, err := fetchContents(ctx, d, lookup)
					if err != nil {
						return nil, err
					}
					file, ok := contents.(map[string]any)
					if !ok {
						return nil, invalid("path", "is a directory, not a file")
					}
					sha, _ = file["sha"].(string)
				}
				if sha == "" {
					return nil, invalid("sha", "file SHA is required")
				}

				body := Payload{"message": args.RawStr("message"), "sha": sha}
				body.SetString("branch", args.Str("branch")).
					SetObject("committer", args.Object("committer")).
					SetObject("author", args.Object("author"))

				// The contents API answers 200 with the commit, so the 204 rule
				// does not apply here.
				if _, err := d.GitHub.Delete(ctx, endpoint, &gateway.CallOptions{Body: body}); err != nil {
					return nil, err
				}
				return OK("", nil, "Successfully deleted file "+path).With("path", path), nil
			},
		},
	}
}

func contentsEndpoint(args Args) (string, string, error) {
	endpoint, err := repoEndpoint(args)
	if err != nil {
		return "", "", err
	}
	path := strings.Trim(args.Str("path"), "/")
	if path == "" || !ValidFilePath(path) {
		return "", "", invalid("path", "must be a relative file path without '..'")
	}
	return joinPath(endpoint+"/contents", path), path, nil
}

func fetchContents(ctx context.Context, d Deps, args Args) (any, error) {
	endpoint, err := repoEndpoint(args)
	if err != nil {
		return nil, err
	}
	endpoint += "/contents"
	if path := strings.Trim(args.Str("path"), "/"); path != "" {
		if !ValidFilePath(path) {
			return nil, invalid("path", "must be a relative file path without '..'")
		}
		endpoint = joinPath(endpoint, path)
	}

	var opts *gateway.CallOptions
	if ref := args.Str("ref"); ref != "" {
		opts = &gateway.CallOptions{Query: url.Values{"ref": {ref}}}
	}

	var contents any
	if err := d.GitHub.Get(ctx, endpoint, opts, &contents); err != nil {
		return nil, err
	}
	if file, ok := contents.(map[string]any); ok {
		decodeContent(file)
	}
	return contents, nil
}

// decodeContent adds decoded_content to a base64 file object.
func decodeContent(file map[string]any) {
	encoding, _ := file["encoding"].(string)
	content, _ := file["content"].(string)
	if encoding != "base64" || content == "" {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
	if err != nil {
		return
	}
	file["decoded_content"] = string(raw)
}

// expectDeleted applies the 204 rule for endpoints that answer No Content.
func expectDeleted(deleted bool, err error) error {
	if err != nil {
		return err
	}
	if !deleted {
		return gateway.UnacknowledgedDelete()
	}
	return nil
}
