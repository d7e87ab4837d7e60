// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// Compile-time interface check.
var _ store.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore implements store.ArtifactStore backed by SQLite. Paths are
// validated against the allowlist roots; escape attempts are hard rejections.
type ArtifactStore struct {
	db    *sql.DB
	roots []string
}

func (s *ArtifactStore) Add(ctx context.Context, artifact *store.Artifact) error {
	if artifact.ProjectID == "" || artifact.BranchID == "" || artifact.Path == "" {
		return vaulterr.New(vaulterr.CodeStoreInvalidInput, "artifact: project id, branch id, and path must not be empty")
	}

	abs, err := filepath.Abs(artifact.Path)
	if err != nil {
		return vaulterr.Wrapf(err, vaulterr.CodeStoreArtifactPathInvalid, "resolving artifact path %q", artifact.Path)
	}
	if !pathAllowed(abs, s.roots) {
		return vaulterr.Errorf(vaulterr.CodeStoreArtifactPathInvalid,
			"artifact path %q is outside the allowed roots", artifact.Path)
	}
	artifact.Path = abs

	if artifact.ID == "" {
		artifact.ID = store.NewArtifactID()
	}
	if artifact.Metadata == "" {
		artifact.Metadata = "{}"
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}

	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO artifacts (id, project_id, branch_id, type, path, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			artifact.ID, artifact.ProjectID, artifact.BranchID, artifact.Type, artifact.Path, artifact.Metadata, formatTime(artifact.CreatedAt),
		)
		if err != nil && !isBusy(err) {
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "inserting artifact %s", artifact.ID)
		}
		return err
	})
}

// pathAllowed reports whether abs sits under at least one allowlisted root.
func pathAllowed(abs string, roots []string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

func (s *ArtifactStore) Get(ctx context.Context, id string) (*store.Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, branch_id, type, path, metadata, created_at FROM artifacts WHERE id = ?`, id)

	a, err := scanArtifact(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vaulterr.Errorf(vaulterr.CodeStoreArtifactNotFound, "artifact %s not found", id)
	}
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "reading artifact %s", id)
	}
	return a, nil
}

func (s *ArtifactStore) List(ctx context.Context, projectID, branchID string) ([]*store.Artifact, error) {
	query := `SELECT id, project_id, branch_id, type, path, metadata, created_at FROM artifacts WHERE project_id = ?`
	args := []any{projectID}
	if branchID != "" {
		query += ` AND branch_id = ?`
		args = append(args, branchID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "listing artifacts for %s", projectID)
	}
	defer rows.Close()

	var out []*store.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows.Scan)
		if err != nil {
			return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "scanning artifact")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanArtifact(scan func(dest ...any) error) (*store.Artifact, error) {
	var (
		a         store.Artifact
		createdAt string
	)
	if err := scan(&a.ID, &a.ProjectID, &a.BranchID, &a.Type, &a.Path, &a.Metadata, &createdAt); err != nil {
		return nil, err
	}
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}
