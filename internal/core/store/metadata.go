package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ghlink/ghlink/internal/core"
)

// PutRepositoryMetadata inserts or replaces the metadata document for a
// repository. created_at survives replacement.
func (s *Store) PutRepositoryMetadata(ctx context.Context, ref core.RepositoryRef, metadata json.RawMessage, now time.Time) (*core.RepositoryMetadata, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	owner, repo := strings.TrimSpace(ref.Owner), strings.TrimSpace(ref.Repo)
	if owner == "" || repo == "" {
		return nil, errors.New("owner and repo are required")
	}
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	if !json.Valid(metadata) {
		return nil, errors.New("metadata must be valid JSON")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO repository_metadata (owner, repo, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner, repo) DO UPDATE SET
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, owner, repo, string(metadata), now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("put repository metadata: %w", err)
	}

	return s.GetRepositoryMetadata(ctx, core.RepositoryRef{Owner: owner, Repo: repo})
}

// GetRepositoryMetadata returns the stored metadata or ErrNotFound.
func (s *Store) GetRepositoryMetadata(ctx context.Context, ref core.RepositoryRef) (*core.RepositoryMetadata, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT owner, repo, metadata, created_at, updated_at
		FROM repository_metadata
		WHERE owner = ? AND repo = ?
	`, strings.TrimSpace(ref.Owner), strings.TrimSpace(ref.Repo))

	record, err := scanMetadata(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("repository metadata %s: %w", ref.FullName(), core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get repository metadata: %w", err)
	}
	return record, nil
}

// ListRepositoryMetadata returns stored records, optionally filtered by owner,
// most recently updated first. A non-positive limit returns every row.
func (s *Store) ListRepositoryMetadata(ctx context.Context, owner string, limit int) ([]core.RepositoryMetadata, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	query := `SELECT owner, repo, metadata, created_at, updated_at FROM repository_metadata`
	args := []any{}
	if owner = strings.TrimSpace(owner); owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY updated_at DESC, owner, repo`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list repository metadata: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	records := []core.RepositoryMetadata{}
	for rows.Next() {
		record, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository metadata: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list repository metadata: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner) (*core.RepositoryMetadata, error) {
	var (
		record    core.RepositoryMetadata
		metadata  string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&record.Owner, &record.Repo, &metadata, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	record.Metadata = json.RawMessage(metadata)
	record.CreatedAt = time.Unix(createdAt, 0).UTC()
	record.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &record, nil
}
