package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS repository_metadata (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		repo TEXT NOT NULL,
		metadata TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(owner, repo)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_repository_metadata_updated ON repository_metadata(updated_at);`,
	`CREATE TABLE IF NOT EXISTS api_quota (
		resource TEXT PRIMARY KEY,
		quota_limit INTEGER NOT NULL,
		remaining INTEGER NOT NULL,
		used INTEGER NOT NULL,
		reset_at INTEGER,
		observed_at INTEGER NOT NULL
	);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
