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
var _ store.HypothesisStore = (*HypothesisStore)(nil)

// HypothesisStore implements store.HypothesisStore backed by SQLite.
type HypothesisStore struct {
	db *sql.DB
}

func (s *HypothesisStore) Add(ctx context.Context, h *store.Hypothesis) error {
	if h.BranchID == "" || h.Statement == "" {
		return vaulterr.New(vaulterr.CodeStoreInvalidInput, "hypothesis: branch id and statement must not be empty")
	}
	if h.ID == "" {
		h.ID = store.NewHypothesisID()
	}
	if h.Status == "" {
		h.Status = store.HypothesisStatusOpen
	}
	now := time.Now()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	if h.UpdatedAt.IsZero() {
		h.UpdatedAt = h.CreatedAt
	}

	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO hypotheses (id, branch_id, statement, rationale, confidence, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			h.ID, h.BranchID, h.Statement, h.Rationale, h.Confidence, string(h.Status), formatTime(h.CreatedAt), formatTime(h.UpdatedAt),
		)
		if err != nil && !isBusy(err) {
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "inserting hypothesis %s", h.ID)
		}
		return err
	})
}

func (s *HypothesisStore) List(ctx context.Context, projectID, branchID string) ([]*store.Hypothesis, error) {
	query := `SELECT h.id, h.branch_id, h.statement, h.rationale, h.confidence, h.status, h.created_at, h.updated_at
		FROM hypotheses h JOIN branches b ON h.branch_id = b.id
		WHERE b.project_id = ?`
	args := []any{projectID}
	if branchID != "" {
		query += ` AND h.branch_id = ?`
		args = append(args, branchID)
	}
	query += ` ORDER BY h.created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "listing hypotheses for %s", projectID)
	}
	defer rows.Close()

	var out []*store.Hypothesis
	for rows.Next() {
		var (
			h                    store.Hypothesis
			status               string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&h.ID, &h.BranchID, &h.Statement, &h.Rationale, &h.Confidence, &status, &createdAt, &updatedAt); err != nil {
			return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "scanning hypothesis")
		}
		h.Status = store.HypothesisStatus(status)
		h.CreatedAt = parseTime(createdAt)
		h.UpdatedAt = parseTime(updatedAt)
		out = append(out, &h)
	}
	return out, rows.Err()
}

func (s *HypothesisStore) UpdateStatus(ctx context.Context, id string, status store.HypothesisStatus) error {
	return withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE hypotheses SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), formatTime(time.Now()), id)
		if err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "updating hypothesis %s", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "checking update result")
		}
		if n == 0 {
			return vaulterr.Errorf(vaulterr.CodeStoreHypothesisNotFound, "hypothesis %s not found", id)
		}
		return nil
	})
}
