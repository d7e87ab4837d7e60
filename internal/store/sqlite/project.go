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
var _ store.ProjectStore = (*ProjectStore)(nil)

// ProjectStore implements store.ProjectStore backed by SQLite.
type ProjectStore struct {
	db *sql.DB
}

func (s *ProjectStore) Create(ctx context.Context, project *store.Project) error {
	if project.ID == "" || project.Name == "" {
		return vaulterr.New(vaulterr.CodeStoreInvalidInput, "project create: id and name must not be empty")
	}
	if project.Status == "" {
		project.Status = store.ProjectStatusActive
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}

	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO projects (id, name, objective, status, priority, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			project.ID, project.Name, project.Objective, string(project.Status), project.Priority, formatTime(project.CreatedAt),
		)
		if err != nil && !isBusy(err) {
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "inserting project %s", project.ID)
		}
		return err
	})
}

func (s *ProjectStore) Get(ctx context.Context, id string) (*store.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, objective, status, priority, created_at FROM projects WHERE id = ?`, id)

	var (
		p         store.Project
		status    string
		createdAt string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Objective, &status, &p.Priority, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vaulterr.Errorf(vaulterr.CodeStoreProjectNotFound, "project %s not found", id)
	}
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "reading project %s", id)
	}
	p.Status = store.ProjectStatus(status)
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func (s *ProjectStore) List(ctx context.Context) ([]*store.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, objective, status, priority, created_at FROM projects ORDER BY priority DESC, created_at DESC`)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "listing projects")
	}
	defer rows.Close()

	var out []*store.Project
	for rows.Next() {
		var (
			p         store.Project
			status    string
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Objective, &status, &p.Priority, &createdAt); err != nil {
			return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "scanning project")
		}
		p.Status = store.ProjectStatus(status)
		p.CreatedAt = parseTime(createdAt)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *ProjectStore) UpdateStatus(ctx context.Context, id string, status store.ProjectStatus) error {
	return s.update(ctx, id, `UPDATE projects SET status = ? WHERE id = ?`, string(status))
}

func (s *ProjectStore) UpdatePriority(ctx context.Context, id string, priority int) error {
	return s.update(ctx, id, `UPDATE projects SET priority = ? WHERE id = ?`, priority)
}

func (s *ProjectStore) update(ctx context.Context, id, query string, value any) error {
	return withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, value, id)
		if err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "updating project %s", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "checking update result")
		}
		if n == 0 {
			return vaulterr.Errorf(vaulterr.CodeStoreProjectNotFound, "project %s not found", id)
		}
		return nil
	})
}
