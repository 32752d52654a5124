package tools

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

var (
	errStoreUnavailable = errors.New("metadata store not configured")
	errAIUnavailable    = errors.New("ai provider not configured")
)

func ownerParam() Param {
	return Param{Name: "owner", Type: TypeString, Required: true, Description: "Repository owner (user or organization)"}
}

func repoParam() Param {
	return Param{Name: "repo", Type: TypeString, Required: true, Description: "Repository name"}
}

func pagingParams() []Param {
	return []Param{
		{Name: "per_page", Type: TypeInteger, Description: "Results per page (max 100)"},
		{Name: "page", Type: TypeInteger, Description: "Page number"},
	}
}

func withRepo(params ...Param) []Param {
	return append([]Param{ownerParam(), repoParam()}, params...)
}

// repoEndpoint validates owner/repo and returns "repos/{owner}/{repo}".
func repoEndpoint(args Args) (string, error) {
	owner, repo := args.Str("owner"), args.Str("repo")
	if err := validateOwnerRepo(owner, repo); err != nil {
		return "", err
	}
	return "repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo), nil
}

// join appends escaped segments to an endpoint.
func join(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, segment := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(segment))
	}
	return b.String()
}

// joinPath appends a slash separated path, escaping each segment.
func joinPath(base, path string) string {
	return join(base, strings.Split(strings.Trim(path, "/"), "/")...)
}

func positiveID(args Args, name string) (string, error) {
	id := args.Int(name, 0)
	if id <= 0 {
		return "", invalid(name, "must be a positive integer")
	}
	return strconv.Itoa(id), nil
}

// query copies present string arguments into query values.
func query(args Args, names ...string) url.Values {
	values := url.Values{}
	for _, name := range names {
		if args.Has(name) {
			values.Set(name, args.Str(name))
		}
	}
	if perPage := args.Int("per_page", 0); perPage > 0 {
		if perPage > 100 {
			perPage = 100
		}
		values.Set("per_page", strconv.Itoa(perPage))
	}
	if page := args.Int("page", 0); page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	return values
}

func listResult(key string, items []any, message string) *Result {
	if items == nil {
		items = []any{}
	}
	return OK(key, items, message).With("total_count", len(items))
}
