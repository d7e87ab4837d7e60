// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// Compile-time interface check.
var _ store.MissionStore = (*MissionStore)(nil)

// MissionStore implements store.MissionStore backed by SQLite. The unique
// dedup_hash column enforces at most one mission per (finding, query) pair;
// status transitions go through conditional updates so a concurrent runner
// never claims the same mission twice.
type MissionStore struct {
	db *sql.DB
}

func (s *MissionStore) Insert(ctx context.Context, m *store.Mission) (bool, error) {
	if m.ProjectID == "" || m.BranchID == "" || m.FindingID == "" || m.Query == "" || m.DedupHash == "" {
		return false, vaulterr.New(vaulterr.CodeStoreInvalidInput,
			"mission: project, branch, finding, query, and dedup hash must not be empty")
	}
	if m.ID == "" {
		m.ID = store.NewMissionID()
	}
	if m.MissionType == "" {
		m.MissionType = store.MissionTypeSearch
	}
	if m.Status == "" {
		m.Status = store.MissionStatusOpen
	}
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	inserted := false
	err := withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO verification_missions
			 (id, project_id, branch_id, finding_id, mission_type, query, query_hash, question, rationale,
			  status, priority, result_meta, last_error, dedup_hash, created_at, updated_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '', '', ?, ?, ?, '')`,
			m.ID, m.ProjectID, m.BranchID, m.FindingID, string(m.MissionType), m.Query, m.QueryHash,
			m.Question, m.Rationale, string(m.Status), m.Priority, m.DedupHash,
			formatTime(m.CreatedAt), formatTime(m.UpdatedAt),
		)
		if err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "inserting mission %s", m.ID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "checking insert result")
		}
		inserted = n > 0
		return nil
	})
	return inserted, err
}

func (s *MissionStore) Get(ctx context.Context, id string) (*store.Mission, error) {
	row := s.db.QueryRowContext(ctx, missionColumns+` WHERE id = ?`, id)
	m, err := scanMission(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vaulterr.Errorf(vaulterr.CodeStoreMissionNotFound, "mission %s not found", id)
	}
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "reading mission %s", id)
	}
	return m, nil
}

func (s *MissionStore) ListByStatus(ctx context.Context, projectID, branchID string, status store.MissionStatus, limit int) ([]*store.Mission, error) {
	query := missionColumns + ` WHERE project_id = ? AND status = ?`
	args := []any{projectID, string(status)}
	if branchID != "" {
		query += ` AND branch_id = ?`
		args = append(args, branchID)
	}
	query += ` ORDER BY priority DESC, created_at ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "listing missions")
	}
	defer rows.Close()

	var out []*store.Mission
	for rows.Next() {
		m, err := scanMission(rows.Scan)
		if err != nil {
			return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "scanning mission")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Claim transitions id from the given status to in_progress. The conditional
// WHERE is what provides mutual exclusion between concurrent runners.
func (s *MissionStore) Claim(ctx context.Context, id string, from store.MissionStatus) (bool, error) {
	claimed := false
	err := withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE verification_missions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(store.MissionStatusInProgress), formatTime(time.Now()), id, string(from))
		if err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "claiming mission %s", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "checking claim result")
		}
		claimed = n > 0
		return nil
	})
	return claimed, err
}

func (s *MissionStore) MarkDone(ctx context.Context, id, resultMeta string) error {
	now := formatTime(time.Now())
	return s.transition(ctx, id,
		`UPDATE verification_missions SET status = ?, result_meta = ?, updated_at = ?, completed_at = ? WHERE id = ? AND status = ?`,
		string(store.MissionStatusDone), resultMeta, now, now, id, string(store.MissionStatusInProgress))
}

func (s *MissionStore) Reopen(ctx context.Context, id, lastError string) error {
	return s.transition(ctx, id,
		`UPDATE verification_missions SET status = ?, last_error = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(store.MissionStatusOpen), lastError, formatTime(time.Now()), id, string(store.MissionStatusInProgress))
}

func (s *MissionStore) Complete(ctx context.Context, id string) error {
	now := formatTime(time.Now())
	return s.transition(ctx, id,
		`UPDATE verification_missions SET status = ?, updated_at = ?, completed_at = ? WHERE id = ? AND status IN (?, ?)`,
		string(store.MissionStatusDone), now, now, id,
		string(store.MissionStatusOpen), string(store.MissionStatusInProgress))
}

func (s *MissionStore) Block(ctx context.Context, id, reason string) error {
	return s.transition(ctx, id,
		`UPDATE verification_missions SET status = ?, last_error = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		string(store.MissionStatusBlocked), reason, formatTime(time.Now()), id,
		string(store.MissionStatusOpen), string(store.MissionStatusInProgress))
}

func (s *MissionStore) Cancel(ctx context.Context, id string) error {
	return s.transition(ctx, id,
		`UPDATE verification_missions SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		string(store.MissionStatusCancelled), formatTime(time.Now()), id,
		string(store.MissionStatusOpen), string(store.MissionStatusInProgress))
}

func (s *MissionStore) transition(ctx context.Context, id, query string, args ...any) error {
	return withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "transitioning mission %s", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "checking transition result")
		}
		if n == 0 {
			return vaulterr.Errorf(vaulterr.CodeStoreMissionNotFound,
				"mission %s not found in an eligible status", id)
		}
		return nil
	})
}

const missionColumns = `SELECT id, project_id, branch_id, finding_id, mission_type, query, query_hash, question, rationale,
	status, priority, result_meta, last_error, dedup_hash, created_at, updated_at, completed_at FROM verification_missions`

func scanMission(scan func(dest ...any) error) (*store.Mission, error) {
	var (
		m                                 store.Mission
		missionType, status               string
		createdAt, updatedAt, completedAt string
	)
	if err := scan(&m.ID, &m.ProjectID, &m.BranchID, &m.FindingID, &missionType, &m.Query, &m.QueryHash,
		&m.Question, &m.Rationale, &status, &m.Priority, &m.ResultMeta, &m.LastError, &m.DedupHash,
		&createdAt, &updatedAt, &completedAt); err != nil {
		return nil, err
	}
	m.MissionType = store.MissionType(missionType)
	m.Status = store.MissionStatus(status)
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	m.CompletedAt = parseTime(completedAt)
	return &m, nil
}
