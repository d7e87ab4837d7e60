// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// Compile-time interface check.
var _ store.BranchStore = (*BranchStore)(nil)

// BranchStore implements store.BranchStore backed by SQLite.
type BranchStore struct {
	db *sql.DB
}

// normalizeBranchName maps empty/whitespace names to the default branch.
func normalizeBranchName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "main"
	}
	return name
}

// Resolve maps a branch name to its id. Only "main" is auto-created; any
// other missing name fails, so a typo never silently creates a branch.
func (s *BranchStore) Resolve(ctx context.Context, projectID, name string) (string, error) {
	name = normalizeBranchName(name)

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM branches WHERE project_id = ? AND name = ?`, projectID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "resolving branch %s", name)
	}

	if name == "main" {
		return s.ensure(ctx, projectID, "main", "", "")
	}
	return "", vaulterr.Errorf(vaulterr.CodeStoreBranchNotFound,
		"branch %q not found for project %q", name, projectID)
}

// Create explicitly creates a branch. Re-creating an existing name is a
// no-op returning the same id.
func (s *BranchStore) Create(ctx context.Context, projectID, name, parentName, hypothesis string) (string, error) {
	name = normalizeBranchName(name)

	parentID := ""
	if parentName != "" {
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM branches WHERE project_id = ? AND name = ?`, projectID, parentName).Scan(&parentID)
		if errors.Is(err, sql.ErrNoRows) {
			return "", vaulterr.Errorf(vaulterr.CodeStoreParentBranchNotFound,
				"parent branch %q not found for project %q", parentName, projectID)
		}
		if err != nil {
			return "", vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "resolving parent branch %s", parentName)
		}
	}

	return s.ensure(ctx, projectID, name, parentID, hypothesis)
}

// ensure is the single creation path: insert-if-absent on the
// deterministically derived id.
func (s *BranchStore) ensure(ctx context.Context, projectID, name, parentID, hypothesis string) (string, error) {
	id := store.BranchID(projectID, name)

	var parent any
	if parentID != "" {
		parent = parentID
	}

	err := withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO branches (id, project_id, name, parent_id, hypothesis, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, projectID, name, parent, hypothesis, string(store.BranchStatusActive), formatTime(time.Now()),
		)
		if err != nil && !isBusy(err) {
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "inserting branch %s", id)
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *BranchStore) Get(ctx context.Context, id string) (*store.Branch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, parent_id, hypothesis, status, created_at FROM branches WHERE id = ?`, id)

	b, err := scanBranch(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vaulterr.Errorf(vaulterr.CodeStoreBranchNotFound, "branch %s not found", id)
	}
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "reading branch %s", id)
	}
	return b, nil
}

func (s *BranchStore) List(ctx context.Context, projectID string) ([]*store.Branch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, parent_id, hypothesis, status, created_at FROM branches WHERE project_id = ? ORDER BY created_at ASC`,
		projectID)
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "listing branches for %s", projectID)
	}
	defer rows.Close()

	var out []*store.Branch
	for rows.Next() {
		b, err := scanBranch(rows.Scan)
		if err != nil {
			return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "scanning branch")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBranch(scan func(dest ...any) error) (*store.Branch, error) {
	var (
		b         store.Branch
		parentID  sql.NullString
		status    string
		createdAt string
	)
	if err := scan(&b.ID, &b.ProjectID, &b.Name, &parentID, &b.Hypothesis, &status, &createdAt); err != nil {
		return nil, err
	}
	b.ParentID = parentID.String
	b.Status = store.BranchStatus(status)
	b.CreatedAt = parseTime(createdAt)
	return &b, nil
}
