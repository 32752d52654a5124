package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ghlink/ghlink/internal/core"
)

// syncedFields are copied from the repository object into synced metadata.
var syncedFields = []string{
	"full_name", "description", "default_branch", "language", "visibility",
	"private", "archived", "fork", "topics", "homepage", "html_url",
	"stargazers_count", "forks_count", "open_issues_count", "watchers_count",
	"size", "pushed_at", "updated_at", "created_at",
}

func metadataRecord(record *core.RepositoryMetadata, message string) *Result {
	return OK("metadata", record.Metadata, message).
		With("created_at", record.CreatedAt.Format(time.RFC3339)).
		With("updated_at", record.UpdatedAt.Format(time.RFC3339))
}

func repoRef(args Args) (core.RepositoryRef, error) {
	ref := core.RepositoryRef{Owner: args.Str("owner"), Repo: args.Str("repo")}
	return ref, validateOwnerRepo(ref.Owner, ref.Repo)
}

func metadataTools(d Deps) []*Tool {
	return []*Tool{
		{
			Name:        "store_repository_metadata",
			Description: "Store a metadata document for a repository, replacing any earlier one",
			Params: withRepo(
				Param{Name: "metadata", Type: TypeObject, Required: true, Description: "Metadata document"},
			),
			Failure: "Failed to store repository metadata",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				if d.Store == nil {
					return Fail(errStoreUnavailable, "Database connection not available"), nil
				}
				ref, err := repoRef(args)
				if err != nil {
					return nil, err
				}
				raw, err := json.Marshal(args.Object("metadata"))
				if err != nil {
					return nil, invalid("metadata", err.Error())
				}
				record, err := d.Store.PutRepositoryMetadata(ctx, ref, raw, d.now())
				if err != nil {
					return nil, err
				}
				return metadataRecord(record, "Repository metadata stored for "+ref.FullName()), nil
			},
		},
		{
			Name:        "get_repository_metadata",
			Description: "Get the stored metadata document for a repository",
			Params:      withRepo(),
			ReadOnly:    true,
			Failure:     "Failed to get repository metadata",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				if d.Store == nil {
					return Fail(errStoreUnavailable, "Database connection not available"), nil
				}
				ref, err := repoRef(args)
				if err != nil {
					return nil, err
				}
				record, err := d.Store.GetRepositoryMetadata(ctx, ref)
				if errors.Is(err, core.ErrNotFound) {
					result := Fail(err, "No metadata found for "+ref.FullName())
					result.Error = "not_found"
					return result, nil
				}
				if err != nil {
					return nil, err
				}
				return metadataRecord(record, "Repository metadata retrieved for "+ref.FullName()), nil
			},
		},
		{
			Name:        "sync_repository_metadata",
			Description: "Fetch repository details and languages from GitHub and store them as metadata",
			Params:      withRepo(),
			Failure:     "Failed to sync repository to database",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				if d.Store == nil {
					return Fail(errStoreUnavailable, "Database connection not available"), nil
				}
				ref, err := repoRef(args)
				if err != nil {
					return nil, err
				}
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}

				var repository map[string]any
				if err := d.GitHub.Get(ctx, endpoint, nil, &repository); err != nil {
					return nil, err
				}
				var languages map[string]any
				if err := d.GitHub.Get(ctx, endpoint+"/languages", nil, &languages); err != nil {
					return nil, err
				}

				metadata := map[string]any{
					"owner":          ref.Owner,
					"repo":           ref.Repo,
					"sync_timestamp": d.now().Format(time.RFC3339),
					"languages":      languages,
				}
				for _, field := range syncedFields {
					if value, ok := repository[field]; ok {
						metadata[field] = value
					}
				}

				raw, err := json.Marshal(metadata)
				if err != nil {
					return nil, fmt.Errorf("encode metadata: %w", err)
				}
				record, err := d.Store.PutRepositoryMetadata(ctx, ref, raw, d.now())
				if err != nil {
					return nil, err
				}
				if d.Logger != nil {
					d.Logger.Info("synced repository metadata: " + ref.FullName())
				}
				return metadataRecord(record, "Repository synced to database: "+ref.FullName()), nil
			},
		},
	}
}
