// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package store

import "time"

// --- Project types ---

// ProjectStatus represents the lifecycle state of a research project.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusPaused    ProjectStatus = "paused"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusFailed    ProjectStatus = "failed"
)

// Project is the root entity. Everything else hangs off a project id.
// Immutable after creation except Status and Priority.
type Project struct {
	ID        string
	Name      string
	Objective string
	Status    ProjectStatus
	Priority  int
	CreatedAt time.Time
}

// --- Branch types ---

// BranchStatus represents the lifecycle state of a reasoning branch.
type BranchStatus string

const (
	BranchStatusActive   BranchStatus = "active"
	BranchStatusArchived BranchStatus = "archived"
)

// Branch is a named reasoning timeline within a project. Its id is derived
// deterministically from the project id and name (see BranchID), but the id
// is only valid once a row exists.
type Branch struct {
	ID         string
	ProjectID  string
	Name       string
	ParentID   string // empty for root branches
	Hypothesis string
	Status     BranchStatus
	CreatedAt  time.Time
}

// --- Finding types ---

// Finding is an immutable recorded claim with a confidence score and an
// evidence reference. There is no update path; corrections are new findings.
type Finding struct {
	ID         string
	ProjectID  string
	BranchID   string
	Title      string
	Content    string
	Evidence   string // serialized JSON, e.g. {"source_url":"..."}
	Confidence float64
	Tags       string // comma-joined set
	CreatedAt  time.Time
}

// FindingFilter narrows finding listings.
type FindingFilter struct {
	BranchID  string // empty = all branches
	TagFilter string // substring match against the tags column
	Limit     int    // 0 = no cap
}

// --- Hypothesis types ---

// HypothesisStatus represents the review state of a hypothesis.
type HypothesisStatus string

const (
	HypothesisStatusOpen     HypothesisStatus = "open"
	HypothesisStatusAccepted HypothesisStatus = "accepted"
	HypothesisStatusRejected HypothesisStatus = "rejected"
	HypothesisStatusArchived HypothesisStatus = "archived"
)

// Hypothesis is a testable statement attached to exactly one branch.
type Hypothesis struct {
	ID         string
	BranchID   string
	Statement  string
	Rationale  string
	Confidence float64
	Status     HypothesisStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// --- Artifact types ---

// Artifact references a file on disk produced or collected during research.
// Its path must resolve under an allow-listed root.
type Artifact struct {
	ID        string
	ProjectID string
	BranchID  string
	Type      string
	Path      string
	Metadata  string // serialized JSON
	CreatedAt time.Time
}

// --- Link types ---

// LinkType identifies how a link between two entities came to be.
type LinkType string

const (
	LinkTypeManual     LinkType = "manual"
	LinkTypeSimilarity LinkType = "similarity"
)

// Link is a directed edge between two entities (findings or artifacts).
type Link struct {
	ID        int64
	SourceID  string
	TargetID  string
	LinkType  LinkType
	Metadata  string // serialized JSON
	CreatedAt time.Time
}

// --- Watch target types ---

// WatchType distinguishes what a watch target re-checks.
type WatchType string

const (
	WatchTypeURL   WatchType = "url"
	WatchTypeQuery WatchType = "query"
)

// WatchStatus represents whether a watch target is eligible for runs.
type WatchStatus string

const (
	WatchStatusActive   WatchStatus = "active"
	WatchStatusDisabled WatchStatus = "disabled"
)

// WatchTarget is a URL or query re-checked on a minimum interval.
type WatchTarget struct {
	ID        string
	ProjectID string
	BranchID  string
	Type      WatchType
	Target    string
	Tags      string
	IntervalS int
	Status    WatchStatus
	LastRunAt time.Time // zero = never run
	LastError string
	CreatedAt time.Time
}

// --- Mission types ---

// MissionType identifies the kind of verification work a mission performs.
type MissionType string

const (
	MissionTypeSearch MissionType = "SEARCH"
	MissionTypeRefute MissionType = "REFUTE"
	MissionTypeExpand MissionType = "EXPAND"
)

// MissionStatus represents the state machine position of a mission.
// open -> in_progress -> done on success; open -> in_progress -> open with
// LastError on failure. blocked and cancelled are operator-only terminal
// states.
type MissionStatus string

const (
	MissionStatusOpen       MissionStatus = "open"
	MissionStatusInProgress MissionStatus = "in_progress"
	MissionStatusDone       MissionStatus = "done"
	MissionStatusBlocked    MissionStatus = "blocked"
	MissionStatusCancelled  MissionStatus = "cancelled"
)

// Mission is a scheduled unit of corroborating search work tied to one
// finding. DedupHash carries a unique constraint so re-planning the same
// finding+query pair never creates a second row.
type Mission struct {
	ID          string
	ProjectID   string
	BranchID    string
	FindingID   string
	MissionType MissionType
	Query       string
	QueryHash   string
	Question    string
	Rationale   string
	Status      MissionStatus
	Priority    int // higher runs first
	ResultMeta  string
	LastError   string
	DedupHash   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt time.Time // zero until done
}

// --- Event types ---

// Event is one row of the append-only audit/telemetry stream. Consumers tail
// the table incrementally by id. Payload and Source are scrubbed of secrets
// at the write boundary, unconditionally.
type Event struct {
	ID         int64
	ProjectID  string
	BranchID   string
	EventType  string
	Step       string
	Payload    string // serialized JSON, scrubbed
	Confidence float64
	Source     string
	Tags       string
	Timestamp  time.Time
}

// --- Search cache types ---

// SearchCacheEntry is one cached provider response, keyed by
// hash(provider, normalized query). Overwritten on refresh.
type SearchCacheEntry struct {
	Key       string
	Query     string // original query text
	Result    string // serialized JSON result list
	Timestamp time.Time
}
