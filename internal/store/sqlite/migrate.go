// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// migration is one forward-only, additive schema step. Up runs inside a
// transaction that also bumps the version row; both commit or neither does.
type migration struct {
	Version int
	Name    string
	Up      func(tx *sql.Tx) error
}

var migrations = []migration{
	{Version: 1, Name: "base tables", Up: migrateBaseTables},
	{Version: 2, Name: "branch model", Up: migrateBranchModel},
	{Version: 3, Name: "artifacts and links", Up: migrateArtifactsLinks},
	{Version: 4, Name: "missions and watch targets", Up: migrateMissionsWatch},
	{Version: 5, Name: "additive columns", Up: migrateAdditiveColumns},
}

// migrate applies every pending step. Steps use create-if-absent DDL and
// existence-checked backfills so an accidental re-run is harmless.
func migrate(db *sql.DB) error {
	const versionDDL = `
CREATE TABLE IF NOT EXISTS schema_version (
	id      INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL
);`
	if _, err := db.Exec(versionDDL); err != nil {
		return vaulterr.Wrap(err, vaulterr.CodeStoreMigrationFailure, "creating schema_version table")
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO schema_version (id, version) VALUES (1, 0)`); err != nil {
		return vaulterr.Wrap(err, vaulterr.CodeStoreMigrationFailure, "seeding schema_version row")
	}

	var current int
	if err := db.QueryRow(`SELECT version FROM schema_version WHERE id = 1`).Scan(&current); err != nil {
		return vaulterr.Wrap(err, vaulterr.CodeStoreMigrationFailure, "reading schema version")
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return vaulterr.Wrapf(err, vaulterr.CodeStoreMigrationFailure, "migration %d (%s)", m.Version, m.Name)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := m.Up(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE schema_version SET version = ? WHERE id = 1`, m.Version); err != nil {
		return fmt.Errorf("bumping version: %w", err)
	}
	return tx.Commit()
}

func migrateBaseTables(tx *sql.Tx) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	objective  TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'active',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	step       TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL DEFAULT '{}',
	timestamp  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_project ON events(project_id, id);

CREATE TABLE IF NOT EXISTS search_cache (
	query_hash TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	result     TEXT NOT NULL,
	timestamp  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS insights (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '',
	timestamp  TEXT NOT NULL DEFAULT ''
);`
	_, err := tx.Exec(ddl)
	return err
}

func migrateBranchModel(tx *sql.Tx) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS branches (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	parent_id  TEXT,
	hypothesis TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'active',
	created_at TEXT NOT NULL,
	UNIQUE (project_id, name)
);

CREATE TABLE IF NOT EXISTS findings (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	branch_id  TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	evidence   TEXT NOT NULL DEFAULT '{}',
	confidence REAL NOT NULL DEFAULT 1.0,
	tags       TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_findings_branch ON findings(branch_id, created_at);
CREATE INDEX IF NOT EXISTS idx_findings_project ON findings(project_id, created_at);

CREATE TABLE IF NOT EXISTS hypotheses (
	id         TEXT PRIMARY KEY,
	branch_id  TEXT NOT NULL,
	statement  TEXT NOT NULL,
	rationale  TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0.5,
	status     TEXT NOT NULL DEFAULT 'open',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hypotheses_branch ON hypotheses(branch_id, created_at);`
	if _, err := tx.Exec(ddl); err != nil {
		return err
	}
	return backfillInsights(tx)
}

// backfillInsights moves legacy free-text insights into structured findings
// under each project's main branch. Finding ids are derived from the insight
// row id so a re-run inserts nothing new.
func backfillInsights(tx *sql.Tx) error {
	rows, err := tx.Query(`SELECT id, project_id, title, content, source_url, tags, timestamp FROM insights`)
	if err != nil {
		return fmt.Errorf("reading legacy insights: %w", err)
	}
	defer rows.Close()

	type legacyInsight struct {
		id        int64
		projectID string
		title     string
		content   string
		sourceURL string
		tags      string
		timestamp string
	}
	var insights []legacyInsight
	for rows.Next() {
		var li legacyInsight
		if err := rows.Scan(&li.id, &li.projectID, &li.title, &li.content, &li.sourceURL, &li.tags, &li.timestamp); err != nil {
			return fmt.Errorf("scanning legacy insight: %w", err)
		}
		insights = append(insights, li)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	now := formatTime(time.Now())
	for _, li := range insights {
		branchID := store.BranchID(li.projectID, "main")
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO branches (id, project_id, name, parent_id, hypothesis, status, created_at) VALUES (?, ?, 'main', NULL, '', 'active', ?)`,
			branchID, li.projectID, now,
		); err != nil {
			return fmt.Errorf("ensuring main branch for %s: %w", li.projectID, err)
		}

		evidence, err := json.Marshal(map[string]string{"source_url": li.sourceURL})
		if err != nil {
			return err
		}
		createdAt := li.timestamp
		if createdAt == "" {
			createdAt = now
		}
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO findings (id, project_id, branch_id, title, content, evidence, confidence, tags, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, 1.0, ?, ?)`,
			fmt.Sprintf("fnd_legacy_%d", li.id), li.projectID, branchID, li.title, li.content, string(evidence), li.tags, createdAt,
		); err != nil {
			return fmt.Errorf("backfilling insight %d: %w", li.id, err)
		}
	}
	return nil
}

func migrateArtifactsLinks(tx *sql.Tx) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	branch_id  TEXT NOT NULL,
	type       TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_project ON artifacts(project_id, created_at);

CREATE TABLE IF NOT EXISTS links (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id  TEXT NOT NULL,
	target_id  TEXT NOT NULL,
	link_type  TEXT NOT NULL DEFAULT 'manual',
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_id);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_id);`
	_, err := tx.Exec(ddl)
	return err
}

func migrateMissionsWatch(tx *sql.Tx) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS verification_missions (
	id           TEXT PRIMARY KEY,
	project_id   TEXT NOT NULL,
	branch_id    TEXT NOT NULL,
	finding_id   TEXT NOT NULL,
	mission_type TEXT NOT NULL DEFAULT 'SEARCH',
	query        TEXT NOT NULL,
	query_hash   TEXT NOT NULL,
	question     TEXT NOT NULL DEFAULT '',
	rationale    TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'open',
	priority     INTEGER NOT NULL DEFAULT 0,
	result_meta  TEXT NOT NULL DEFAULT '',
	last_error   TEXT NOT NULL DEFAULT '',
	dedup_hash   TEXT NOT NULL UNIQUE,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	completed_at TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_missions_status ON verification_missions(project_id, branch_id, status, priority);

CREATE TABLE IF NOT EXISTS watch_targets (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL,
	branch_id   TEXT NOT NULL,
	type        TEXT NOT NULL,
	target      TEXT NOT NULL,
	tags        TEXT NOT NULL DEFAULT '',
	interval_s  INTEGER NOT NULL,
	status      TEXT NOT NULL DEFAULT 'active',
	last_run_at TEXT NOT NULL DEFAULT '',
	last_error  TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);`
	_, err := tx.Exec(ddl)
	return err
}

func migrateAdditiveColumns(tx *sql.Tx) error {
	if err := addColumnIfAbsent(tx, "projects", "priority", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	for _, col := range []struct{ name, ddl string }{
		{"confidence", "REAL NOT NULL DEFAULT 1.0"},
		{"source", "TEXT NOT NULL DEFAULT 'unknown'"},
		{"tags", "TEXT NOT NULL DEFAULT ''"},
		{"branch_id", "TEXT NOT NULL DEFAULT ''"},
	} {
		if err := addColumnIfAbsent(tx, "events", col.name, col.ddl); err != nil {
			return err
		}
	}
	return nil
}

func addColumnIfAbsent(tx *sql.Tx, table, column, ddl string) error {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", table, err)
	}
	defer rows.Close()

	exists := false
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			dfltValue  sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dfltValue, &primaryKey); err != nil {
			return err
		}
		if name == column {
			exists = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddl))
	return err
}
