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
var _ store.EventStore = (*EventStore)(nil)

const (
	defaultTailLimit = 50
	maxTailLimit     = 200
)

// EventStore implements store.EventStore backed by SQLite. Every append runs
// the payload and source through scrubbing; there is no unscrubbed path.
type EventStore struct {
	db *sql.DB
}

func (s *EventStore) Append(ctx context.Context, event *store.Event) error {
	if err := prepareEvent(event); err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		err := insertEvent(ctx, s.db, event)
		if err != nil && !isBusy(err) {
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "appending event")
		}
		return err
	})
}

// prepareEvent validates, fills defaults, and scrubs. Shared with the
// transactional ingest path so both writers hit the same boundary.
func prepareEvent(e *store.Event) error {
	if e.ProjectID == "" || e.EventType == "" {
		return vaulterr.New(vaulterr.CodeStoreInvalidInput, "event: project id and event type must not be empty")
	}
	if e.Payload == "" {
		e.Payload = "{}"
	}
	if e.Source == "" {
		e.Source = "unknown"
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Payload = store.ScrubJSON(e.Payload)
	e.Source = store.ScrubString(e.Source)
	return nil
}

func insertEvent(ctx context.Context, ex execer, e *store.Event) error {
	res, err := ex.ExecContext(ctx,
		`INSERT INTO events (project_id, branch_id, event_type, step, payload, confidence, source, tags, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ProjectID, e.BranchID, e.EventType, e.Step, e.Payload, e.Confidence, e.Source, e.Tags, formatTime(e.Timestamp),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// TailAfter is the incremental-poll interface: events with id > sinceID,
// ascending, capped.
func (s *EventStore) TailAfter(ctx context.Context, projectID string, sinceID int64, limit int) ([]*store.Event, error) {
	return s.query(ctx,
		eventColumns+` WHERE project_id = ? AND id > ? ORDER BY id ASC LIMIT ?`,
		projectID, sinceID, clampTailLimit(limit))
}

func (s *EventStore) ListRecent(ctx context.Context, projectID string, limit int, tagFilter string) ([]*store.Event, error) {
	query := eventColumns + ` WHERE project_id = ?`
	args := []any{projectID}
	if tagFilter != "" {
		query += ` AND tags LIKE '%' || ? || '%'`
		args = append(args, tagFilter)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, clampTailLimit(limit))
	return s.query(ctx, query, args...)
}

func clampTailLimit(limit int) int {
	if limit <= 0 {
		return defaultTailLimit
	}
	if limit > maxTailLimit {
		return maxTailLimit
	}
	return limit
}

const eventColumns = `SELECT id, project_id, branch_id, event_type, step, payload, confidence, source, tags, timestamp FROM events`

func (s *EventStore) query(ctx context.Context, query string, args ...any) ([]*store.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "listing events")
	}
	defer rows.Close()

	var out []*store.Event
	for rows.Next() {
		var (
			e         store.Event
			timestamp string
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.BranchID, &e.EventType, &e.Step, &e.Payload, &e.Confidence, &e.Source, &e.Tags, &timestamp); err != nil {
			return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "scanning event")
		}
		e.Timestamp = parseTime(timestamp)
		out = append(out, &e)
	}
	return out, rows.Err()
}
