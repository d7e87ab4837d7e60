// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

// Package sqlite implements the vault entity stores on a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// Options configures a Store at open time.
type Options struct {
	// ArtifactRoots is the allowlist of directories artifact paths must
	// resolve under. Empty means no artifact writes are accepted.
	ArtifactRoots []string
}

// Store owns the database handle and hands out the typed sub-stores. All
// sub-stores share one *sql.DB so WAL locking serializes writers.
type Store struct {
	db   *sql.DB
	path string

	projects   *ProjectStore
	branches   *BranchStore
	findings   *FindingStore
	hypotheses *HypothesisStore
	artifacts  *ArtifactStore
	links      *LinkStore
	watches    *WatchStore
	missions   *MissionStore
	events     *EventStore
	cache      *CacheStore
}

// Open opens (or creates) the vault database at dbPath and applies pending
// migrations. Safe to call from multiple concurrent process starts.
func Open(dbPath string, opts Options) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "opening sqlite db %s", dbPath)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "pinging sqlite db %s", dbPath)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, path: dbPath}
	s.projects = &ProjectStore{db: db}
	s.branches = &BranchStore{db: db}
	s.findings = &FindingStore{db: db}
	s.hypotheses = &HypothesisStore{db: db}
	s.artifacts = &ArtifactStore{db: db, roots: opts.ArtifactRoots}
	s.links = &LinkStore{db: db}
	s.watches = &WatchStore{db: db}
	s.missions = &MissionStore{db: db}
	s.events = &EventStore{db: db}
	s.cache = &CacheStore{db: db}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path the store was opened with.
func (s *Store) Path() string { return s.path }

func (s *Store) Projects() store.ProjectStore        { return s.projects }
func (s *Store) Branches() store.BranchStore         { return s.branches }
func (s *Store) Findings() store.FindingStore        { return s.findings }
func (s *Store) Hypotheses() store.HypothesisStore   { return s.hypotheses }
func (s *Store) Artifacts() store.ArtifactStore      { return s.artifacts }
func (s *Store) Links() store.LinkStore              { return s.links }
func (s *Store) WatchTargets() store.WatchStore      { return s.watches }
func (s *Store) Missions() store.MissionStore        { return s.missions }
func (s *Store) Events() store.EventStore            { return s.events }
func (s *Store) SearchCache() store.SearchCacheStore { return s.cache }

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version WHERE id = 1`).Scan(&v)
	if err != nil {
		return 0, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "reading schema version")
	}
	return v, nil
}

// TableCounts returns row counts per entity table, for diagnostics.
func (s *Store) TableCounts(ctx context.Context) (map[string]int, error) {
	tables := []string{
		"projects", "branches", "findings", "hypotheses", "artifacts",
		"links", "watch_targets", "verification_missions", "events", "search_cache",
	}
	counts := make(map[string]int, len(tables))
	for _, t := range tables {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t).Scan(&n); err != nil {
			return nil, vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "counting %s", t)
		}
		counts[t] = n
	}
	return counts, nil
}

const (
	busyAttempts = 5
	busyBackoff  = 50 * time.Millisecond
)

// withRetry re-runs fn on transient SQLITE_BUSY / SQLITE_LOCKED failures
// with linear backoff, surfacing a contention error only after retries
// exhaust. Concurrent processes (a background watcher plus an interactive
// CLI call) make these routine, not fatal.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < busyAttempts; attempt++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * busyBackoff):
		}
	}
	return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseBusy, "database busy after retries")
}

func isBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// timeLayout is RFC3339 UTC with a fixed-width nanosecond fraction.
// RFC3339Nano trims trailing fractional zeros, which breaks the lexical
// ordering ORDER BY relies on; padding keeps text order chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// execer lets insert helpers run against either *sql.DB or *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
