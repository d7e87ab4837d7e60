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
var _ store.LinkStore = (*LinkStore)(nil)

// LinkStore implements store.LinkStore backed by SQLite. A link is only
// meaningful if both endpoints exist, so Add checks them up front.
type LinkStore struct {
	db *sql.DB
}

func (s *LinkStore) Add(ctx context.Context, link *store.Link) error {
	if link.SourceID == "" || link.TargetID == "" {
		return vaulterr.New(vaulterr.CodeStoreInvalidInput, "link: source and target ids must not be empty")
	}
	if link.LinkType == "" {
		link.LinkType = store.LinkTypeManual
	}
	if link.Metadata == "" {
		link.Metadata = "{}"
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}

	for _, id := range []string{link.SourceID, link.TargetID} {
		ok, err := s.entityExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return vaulterr.Errorf(vaulterr.CodeStoreLinkEndpointNotFound,
				"link endpoint %s does not reference an existing finding or artifact", id)
		}
	}

	return withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO links (source_id, target_id, link_type, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
			link.SourceID, link.TargetID, string(link.LinkType), link.Metadata, formatTime(link.CreatedAt),
		)
		if err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "inserting link")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "reading link id")
		}
		link.ID = id
		return nil
	})
}

func (s *LinkStore) entityExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (SELECT id FROM findings WHERE id = ? UNION SELECT id FROM artifacts WHERE id = ?)`,
		id, id).Scan(&n)
	if err != nil {
		return false, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "checking link endpoint %s", id)
	}
	return n > 0, nil
}

func (s *LinkStore) ListFor(ctx context.Context, entityID string) ([]*store.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_id, target_id, link_type, metadata, created_at FROM links WHERE source_id = ? OR target_id = ? ORDER BY id ASC`,
		entityID, entityID)
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "listing links for %s", entityID)
	}
	defer rows.Close()

	var out []*store.Link
	for rows.Next() {
		var (
			l         store.Link
			linkType  string
			createdAt string
		)
		if err := rows.Scan(&l.ID, &l.SourceID, &l.TargetID, &linkType, &l.Metadata, &createdAt); err != nil {
			return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "scanning link")
		}
		l.LinkType = store.LinkType(linkType)
		l.CreatedAt = parseTime(createdAt)
		out = append(out, &l)
	}
	return out, rows.Err()
}
