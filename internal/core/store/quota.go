package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ghlink/ghlink/internal/core"
)

// RecordQuota upserts the latest quota GitHub reported for a resource. It
// satisfies gateway.QuotaObserver.
func (s *Store) RecordQuota(ctx context.Context, quota core.Quota) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	resource := strings.TrimSpace(quota.Resource)
	if resource == "" {
		resource = "core"
	}
	observedAt := quota.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}
	var resetAt sql.NullInt64
	if !quota.ResetAt.IsZero() {
		resetAt = sql.NullInt64{Int64: quota.ResetAt.Unix(), Valid: true}
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO api_quota (resource, quota_limit, remaining, used, reset_at, observed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(resource) DO UPDATE SET
			quota_limit = excluded.quota_limit,
			remaining = excluded.remaining,
			used = excluded.used,
			reset_at = excluded.reset_at,
			observed_at = excluded.observed_at
		WHERE excluded.observed_at >= api_quota.observed_at
	`, resource, quota.Limit, quota.Remaining, quota.Used, resetAt, observedAt.Unix())
	if err != nil {
		return fmt.Errorf("record quota: %w", err)
	}
	return nil
}

// ListQuotas returns the last observed quota per resource.
func (s *Store) ListQuotas(ctx context.Context) ([]core.Quota, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT resource, quota_limit, remaining, used, reset_at, observed_at
		FROM api_quota
		ORDER BY resource
	`)
	if err != nil {
		return nil, fmt.Errorf("list quotas: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	quotas := []core.Quota{}
	for rows.Next() {
		var (
			quota      core.Quota
			resetAt    sql.NullInt64
			observedAt int64
		)
		if err := rows.Scan(&quota.Resource, &quota.Limit, &quota.Remaining, &quota.Used, &resetAt, &observedAt); err != nil {
			return nil, fmt.Errorf("scan quotas: %w", err)
		}
		if resetAt.Valid {
			quota.ResetAt = time.Unix(resetAt.Int64, 0).UTC()
		}
		quota.ObservedAt = time.Unix(observedAt, 0).UTC()
		quotas = append(quotas, quota)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quotas: %w", err)
	}
	return quotas, nil
}
