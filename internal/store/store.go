// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

// Package store defines the research vault's entity model and the typed
// persistence interfaces the SQLite backend implements.
package store

import (
	"context"
	"time"
)

// ProjectStore manages project rows.
type ProjectStore interface {
	// Create inserts a project. Re-creating an existing id is a no-op.
	Create(ctx context.Context, project *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	// List returns all projects ordered by priority descending, then
	// creation time descending.
	List(ctx context.Context) ([]*Project, error)
	UpdateStatus(ctx context.Context, id string, status ProjectStatus) error
	UpdatePriority(ctx context.Context, id string, priority int) error
}

// BranchStore resolves and manages reasoning branches.
type BranchStore interface {
	// Resolve maps a branch name (empty means "main") to its branch id.
	// The main branch is auto-created on first reference; any other
	// missing name is a not-found error.
	Resolve(ctx context.Context, projectID, name string) (string, error)
	// Create explicitly creates a branch. parentName, when non-empty, must
	// resolve within the same project. Creating an existing name is a
	// no-op returning the same id.
	Create(ctx context.Context, projectID, name, parentName, hypothesis string) (string, error)
	Get(ctx context.Context, id string) (*Branch, error)
	// List returns a project's branches oldest-first (creation order).
	List(ctx context.Context, projectID string) ([]*Branch, error)
}

// FindingStore manages the append-only finding log.
type FindingStore interface {
	Add(ctx context.Context, finding *Finding) error
	Get(ctx context.Context, id string) (*Finding, error)
	// List returns findings newest-first with optional branch and tag
	// filters.
	List(ctx context.Context, projectID string, filter FindingFilter) ([]*Finding, error)
	// FindByEvidence returns the finding in the branch whose evidence JSON
	// matches exactly, or nil when no such finding exists.
	FindByEvidence(ctx context.Context, projectID, branchID, evidence string) (*Finding, error)
	// ListUnverified returns findings with confidence below threshold or
	// tagged "unverified", ordered ascending by confidence then descending
	// by creation time.
	ListUnverified(ctx context.Context, branchID string, threshold float64, limit int) ([]*Finding, error)
}

// HypothesisStore manages hypotheses per branch.
type HypothesisStore interface {
	Add(ctx context.Context, hypothesis *Hypothesis) error
	// List returns hypotheses oldest-first; branchID narrows to one branch
	// when non-empty.
	List(ctx context.Context, projectID, branchID string) ([]*Hypothesis, error)
	UpdateStatus(ctx context.Context, id string, status HypothesisStatus) error
}

// ArtifactStore manages artifact references. Path validation against the
// allowlist roots happens inside Add and is a hard rejection.
type ArtifactStore interface {
	Add(ctx context.Context, artifact *Artifact) error
	Get(ctx context.Context, id string) (*Artifact, error)
	List(ctx context.Context, projectID, branchID string) ([]*Artifact, error)
}

// LinkStore manages directed edges between findings and artifacts. Both
// endpoints must exist at insert time.
type LinkStore interface {
	Add(ctx context.Context, link *Link) error
	// ListFor returns every link whose source or target is the given
	// entity id, oldest-first.
	ListFor(ctx context.Context, entityID string) ([]*Link, error)
}

// WatchStore manages watch targets and their run bookkeeping.
type WatchStore interface {
	Add(ctx context.Context, target *WatchTarget) error
	List(ctx context.Context, projectID string) ([]*WatchTarget, error)
	Disable(ctx context.Context, id string) error
	// ListDue returns active targets whose last run is older than their
	// interval as of now, oldest-run-first, capped at limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*WatchTarget, error)
	// MarkRun stamps a target's last run time and last error (empty on
	// success).
	MarkRun(ctx context.Context, id string, at time.Time, lastError string) error
}

// MissionStore manages verification mission rows and their status
// transitions.
type MissionStore interface {
	// Insert adds a mission unless one with the same dedup hash already
	// exists. It reports whether a row was actually inserted.
	Insert(ctx context.Context, mission *Mission) (bool, error)
	Get(ctx context.Context, id string) (*Mission, error)
	// ListByStatus returns missions in the given status ordered by
	// priority descending then creation time ascending, capped at limit.
	ListByStatus(ctx context.Context, projectID, branchID string, status MissionStatus, limit int) ([]*Mission, error)
	// Claim transitions a mission from the given status to in_progress.
	// It reports false when another runner got there first.
	Claim(ctx context.Context, id string, from MissionStatus) (bool, error)
	// MarkDone transitions an in-progress mission to done, recording
	// result metadata and the completion time.
	MarkDone(ctx context.Context, id, resultMeta string) error
	// Reopen transitions an in-progress mission back to open with the
	// failure recorded, making it eligible for the next run.
	Reopen(ctx context.Context, id, lastError string) error
	// Complete, Block, and Cancel are explicit operator transitions.
	Complete(ctx context.Context, id string) error
	Block(ctx context.Context, id, reason string) error
	Cancel(ctx context.Context, id string) error
}

// EventStore appends to and tails the audit event log. Append scrubs the
// payload and source fields before persisting; callers cannot bypass it.
type EventStore interface {
	Append(ctx context.Context, event *Event) error
	// TailAfter returns events with id > sinceID ascending, capped at
	// limit. This is the incremental-poll interface.
	TailAfter(ctx context.Context, projectID string, sinceID int64, limit int) ([]*Event, error)
	// ListRecent returns the newest events first with an optional tag
	// substring filter.
	ListRecent(ctx context.Context, projectID string, limit int, tagFilter string) ([]*Event, error)
}

// SearchCacheStore persists provider search responses keyed by
// hash(provider, normalized query).
type SearchCacheStore interface {
	// Get returns the entry for key, or nil when absent.
	Get(ctx context.Context, key string) (*SearchCacheEntry, error)
	// Put inserts or overwrites the entry.
	Put(ctx context.Context, entry *SearchCacheEntry) error
}

// IngestRecorder writes a finding and its ingest event in one transaction,
// so observers never see a finding without its audit trail or vice versa.
type IngestRecorder interface {
	RecordIngest(ctx context.Context, finding *Finding, event *Event) error
}
