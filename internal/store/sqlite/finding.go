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
var _ store.FindingStore = (*FindingStore)(nil)

// FindingStore implements store.FindingStore backed by SQLite. Findings are
// append-only; there is no update or delete path.
type FindingStore struct {
	db *sql.DB
}

func (s *FindingStore) Add(ctx context.Context, finding *store.Finding) error {
	if err := prepareFinding(finding); err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		err := insertFinding(ctx, s.db, finding)
		if err != nil && !isBusy(err) {
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "inserting finding %s", finding.ID)
		}
		return err
	})
}

// prepareFinding validates and fills defaults before insert. Shared with the
// transactional ingest path.
func prepareFinding(f *store.Finding) error {
	if f.ProjectID == "" || f.BranchID == "" {
		return vaulterr.New(vaulterr.CodeStoreInvalidInput, "finding: project and branch ids must not be empty")
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return vaulterr.Errorf(vaulterr.CodeStoreInvalidInput, "finding: confidence must be in [0,1], got %g", f.Confidence)
	}
	if f.ID == "" {
		f.ID = store.NewFindingID()
	}
	if f.Evidence == "" {
		f.Evidence = "{}"
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	return nil
}

func insertFinding(ctx context.Context, ex execer, f *store.Finding) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO findings (id, project_id, branch_id, title, content, evidence, confidence, tags, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.ProjectID, f.BranchID, f.Title, f.Content, f.Evidence, f.Confidence, f.Tags, formatTime(f.CreatedAt),
	)
	return err
}

func (s *FindingStore) Get(ctx context.Context, id string) (*store.Finding, error) {
	row := s.db.QueryRowContext(ctx, findingColumns+` WHERE id = ?`, id)
	f, err := scanFinding(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vaulterr.Errorf(vaulterr.CodeStoreFindingNotFound, "finding %s not found", id)
	}
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "reading finding %s", id)
	}
	return f, nil
}

func (s *FindingStore) List(ctx context.Context, projectID string, filter store.FindingFilter) ([]*store.Finding, error) {
	query := findingColumns + ` WHERE project_id = ?`
	args := []any{projectID}
	if filter.BranchID != "" {
		query += ` AND branch_id = ?`
		args = append(args, filter.BranchID)
	}
	if filter.TagFilter != "" {
		query += ` AND tags LIKE '%' || ? || '%'`
		args = append(args, filter.TagFilter)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	return s.query(ctx, query, args...)
}

func (s *FindingStore) FindByEvidence(ctx context.Context, projectID, branchID, evidence string) (*store.Finding, error) {
	row := s.db.QueryRowContext(ctx,
		findingColumns+` WHERE project_id = ? AND branch_id = ? AND evidence = ? LIMIT 1`,
		projectID, branchID, evidence)
	f, err := scanFinding(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "matching finding evidence")
	}
	return f, nil
}

func (s *FindingStore) ListUnverified(ctx context.Context, branchID string, threshold float64, limit int) ([]*store.Finding, error) {
	query := findingColumns + ` WHERE branch_id = ? AND (confidence < ? OR tags LIKE '%unverified%')
		ORDER BY confidence ASC, created_at DESC`
	args := []any{branchID, threshold}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

const findingColumns = `SELECT id, project_id, branch_id, title, content, evidence, confidence, tags, created_at FROM findings`

func (s *FindingStore) query(ctx context.Context, query string, args ...any) ([]*store.Finding, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "listing findings")
	}
	defer rows.Close()

	var out []*store.Finding
	for rows.Next() {
		f, err := scanFinding(rows.Scan)
		if err != nil {
			return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "scanning finding")
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanFinding(scan func(dest ...any) error) (*store.Finding, error) {
	var (
		f         store.Finding
		createdAt string
	)
	if err := scan(&f.ID, &f.ProjectID, &f.BranchID, &f.Title, &f.Content, &f.Evidence, &f.Confidence, &f.Tags, &createdAt); err != nil {
		return nil, err
	}
	f.CreatedAt = parseTime(createdAt)
	return &f, nil
}
