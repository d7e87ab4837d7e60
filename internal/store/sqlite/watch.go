// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// Compile-time interface check.
var _ store.WatchStore = (*WatchStore)(nil)

// WatchStore implements store.WatchStore backed by SQLite.
type WatchStore struct {
	db *sql.DB
}

func (s *WatchStore) Add(ctx context.Context, target *store.WatchTarget) error {
	if target.ProjectID == "" || target.BranchID == "" || target.Target == "" {
		return vaulterr.New(vaulterr.CodeStoreInvalidInput, "watch target: project id, branch id, and target must not be empty")
	}
	if target.Type != store.WatchTypeURL && target.Type != store.WatchTypeQuery {
		return vaulterr.Errorf(vaulterr.CodeStoreInvalidInput, "watch target: type must be url or query, got %q", target.Type)
	}
	if target.IntervalS <= 0 {
		return vaulterr.Errorf(vaulterr.CodeStoreInvalidInput, "watch target: interval must be positive, got %d", target.IntervalS)
	}
	if target.ID == "" {
		target.ID = store.NewWatchTargetID()
	}
	if target.Status == "" {
		target.Status = store.WatchStatusActive
	}
	if target.CreatedAt.IsZero() {
		target.CreatedAt = time.Now()
	}

	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO watch_targets (id, project_id, branch_id, type, target, tags, interval_s, status, last_run_at, last_error, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', '', ?)`,
			target.ID, target.ProjectID, target.BranchID, string(target.Type), target.Target, target.Tags,
			target.IntervalS, string(target.Status), formatTime(target.CreatedAt),
		)
		if err != nil && !isBusy(err) {
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "inserting watch target %s", target.ID)
		}
		return err
	})
}

func (s *WatchStore) List(ctx context.Context, projectID string) ([]*store.WatchTarget, error) {
	return s.query(ctx,
		watchColumns+` WHERE project_id = ? ORDER BY created_at ASC`, projectID)
}

func (s *WatchStore) Disable(ctx context.Context, id string) error {
	return withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE watch_targets SET status = ? WHERE id = ?`, string(store.WatchStatusDisabled), id)
		if err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "disabling watch target %s", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "checking update result")
		}
		if n == 0 {
			return vaulterr.Errorf(vaulterr.CodeStoreWatchTargetNotFound, "watch target %s not found", id)
		}
		return nil
	})
}

// ListDue returns active targets whose last run is older than their interval.
// Dueness depends on each row's own interval, so the filter runs in Go over
// the active set rather than in SQL.
func (s *WatchStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*store.WatchTarget, error) {
	active, err := s.query(ctx,
		watchColumns+` WHERE status = ? ORDER BY last_run_at ASC, created_at ASC`, string(store.WatchStatusActive))
	if err != nil {
		return nil, err
	}

	var due []*store.WatchTarget
	for _, t := range active {
		if !t.LastRunAt.IsZero() && now.Sub(t.LastRunAt) < time.Duration(t.IntervalS)*time.Second {
			continue
		}
		due = append(due, t)
		if limit > 0 && len(due) >= limit {
			break
		}
	}
	return due, nil
}

func (s *WatchStore) MarkRun(ctx context.Context, id string, at time.Time, lastError string) error {
	return withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE watch_targets SET last_run_at = ?, last_error = ? WHERE id = ?`,
			formatTime(at), lastError, id)
		if err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "stamping watch target %s", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "checking update result")
		}
		if n == 0 {
			return vaulterr.Errorf(vaulterr.CodeStoreWatchTargetNotFound, "watch target %s not found", id)
		}
		return nil
	})
}

const watchColumns = `SELECT id, project_id, branch_id, type, target, tags, interval_s, status, last_run_at, last_error, created_at FROM watch_targets`

func (s *WatchStore) query(ctx context.Context, query string, args ...any) ([]*store.WatchTarget, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "listing watch targets")
	}
	defer rows.Close()

	var out []*store.WatchTarget
	for rows.Next() {
		var (
			t                    store.WatchTarget
			typ, status          string
			lastRunAt, createdAt string
		)
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.BranchID, &typ, &t.Target, &t.Tags, &t.IntervalS, &status, &lastRunAt, &t.LastError, &createdAt); err != nil {
			return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "scanning watch target")
		}
		t.Type = store.WatchType(typ)
		t.Status = store.WatchStatus(status)
		t.LastRunAt = parseTime(lastRunAt)
		t.CreatedAt = parseTime(createdAt)
		out = append(out, &t)
	}
	return out, rows.Err()
}
