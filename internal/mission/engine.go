// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

// Package mission plans and executes verification missions: corroborating
// searches scheduled for low-confidence or unverified findings.
package mission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/researchvault/vault/internal/search"
	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

const (
	defaultPlanMax = 10
	defaultRunMax  = 10
)

// Searcher is the slice of the search gateway the engine needs.
type Searcher interface {
	Search(ctx context.Context, query, provider string, ttl time.Duration) (*search.Outcome, error)
}

// RunOutcome reports one mission execution. Outcomes are returned in the
// order missions were selected; an individual failure never aborts the
// batch.
type RunOutcome struct {
	MissionID string              `json:"mission_id"`
	Query     string              `json:"query"`
	Status    store.MissionStatus `json:"status"`
	Provider  string              `json:"provider,omitempty"`
	Origin    string              `json:"origin,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// Engine drives the mission state machine over the mission store and the
// search gateway.
type Engine struct {
	branches store.BranchStore
	findings store.FindingStore
	missions store.MissionStore
	events   store.EventStore
	gateway  Searcher
	logger   *slog.Logger
}

// NewEngine builds a mission engine. gateway may be nil if only Plan is
// used; events may be nil to skip audit rows.
func NewEngine(branches store.BranchStore, findings store.FindingStore, missions store.MissionStore, events store.EventStore, gateway Searcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		branches: branches,
		findings: findings,
		missions: missions,
		events:   events,
		gateway:  gateway,
		logger:   logger,
	}
}

// QueryHash fingerprints a derived query, case- and whitespace-insensitive.
func QueryHash(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:])
}

// DedupHash fingerprints a (project, branch, finding, query) quadruple. The
// mission table's unique constraint on it makes re-planning idempotent.
func DedupHash(projectID, branchID, findingID, queryHash string) string {
	sum := sha256.Sum256([]byte(projectID + "\n" + branchID + "\n" + findingID + "\n" + queryHash))
	return hex.EncodeToString(sum[:])
}

// deriveQuery picks the search query for a finding: the title when it has
// one, otherwise the top keywords of title+content joined.
func deriveQuery(f *store.Finding) string {
	if title := strings.TrimSpace(f.Title); title != "" {
		return title
	}
	return strings.Join(topKeywords(f.Title+" "+f.Content), " ")
}

// Plan schedules missions for findings in the branch whose confidence is
// below threshold or that are tagged unverified, least-trusted first. At
// most max missions are inserted; findings whose (finding, query) pair is
// already planned are skipped by the dedup hash. Returns the missions that
// were actually created.
func (e *Engine) Plan(ctx context.Context, projectID, branch string, threshold float64, max int) ([]*store.Mission, error) {
	if max <= 0 {
		max = defaultPlanMax
	}
	branchID, err := e.branches.Resolve(ctx, projectID, branch)
	if err != nil {
		return nil, err
	}

	// Over-fetch: some candidates will dedup away.
	candidates, err := e.findings.ListUnverified(ctx, branchID, threshold, max*4)
	if err != nil {
		return nil, err
	}

	var planned []*store.Mission
	for _, f := range candidates {
		if len(planned) >= max {
			break
		}
		query := deriveQuery(f)
		if query == "" {
			continue
		}
		queryHash := QueryHash(query)
		m := &store.Mission{
			ID:          store.NewMissionID(),
			ProjectID:   projectID,
			BranchID:    branchID,
			FindingID:   f.ID,
			MissionType: store.MissionTypeSearch,
			Query:       query,
			QueryHash:   queryHash,
			Question:    "Can this claim be corroborated by an independent source?",
			Rationale:   "confidence below verification threshold",
			Status:      store.MissionStatusOpen,
			Priority:    int(math.Round((1 - f.Confidence) * 100)),
			DedupHash:   DedupHash(projectID, branchID, f.ID, queryHash),
		}
		inserted, err := e.missions.Insert(ctx, m)
		if err != nil {
			return nil, vaulterr.Wrapf(err, vaulterr.CodeMissionPlanFailure, "planning mission for finding %s", f.ID)
		}
		if !inserted {
			continue
		}
		planned = append(planned, m)
		e.appendEvent(ctx, projectID, branchID, "mission_planned", map[string]any{
			"mission_id": m.ID,
			"finding_id": f.ID,
			"priority":   m.Priority,
		})
	}

	e.logger.Debug("missions planned", "project", projectID, "branch", branchID, "count", len(planned))
	return planned, nil
}

// Run executes up to limit missions in the given status (open by default),
// highest priority first. Each mission is claimed to in_progress before its
// search runs; success marks it done with result metadata, failure reopens
// it with last_error so the next run retries it.
func (e *Engine) Run(ctx context.Context, projectID, branch string, status store.MissionStatus, limit int) ([]RunOutcome, error) {
	if e.gateway == nil {
		return nil, vaulterr.New(vaulterr.CodeMissionRunFailure, "mission: no search gateway configured")
	}
	if status == "" {
		status = store.MissionStatusOpen
	}
	if limit <= 0 {
		limit = defaultRunMax
	}
	branchID, err := e.branches.Resolve(ctx, projectID, branch)
	if err != nil {
		return nil, err
	}

	missions, err := e.missions.ListByStatus(ctx, projectID, branchID, status, limit)
	if err != nil {
		return nil, err
	}

	outcomes := make([]RunOutcome, 0, len(missions))
	for _, m := range missions {
		outcomes = append(outcomes, e.runOne(ctx, m, status))
	}
	return outcomes, nil
}

func (e *Engine) runOne(ctx context.Context, m *store.Mission, from store.MissionStatus) RunOutcome {
	out := RunOutcome{MissionID: m.ID, Query: m.Query}

	claimed, err := e.missions.Claim(ctx, m.ID, from)
	if err != nil {
		out.Status = m.Status
		out.Error = err.Error()
		return out
	}
	if !claimed {
		// Another runner picked it up between list and claim.
		out.Status = store.MissionStatusInProgress
		out.Error = "mission already claimed"
		return out
	}

	outcome, err := e.gateway.Search(ctx, m.Query, search.ProviderAuto, 0)
	if err != nil {
		if reopenErr := e.missions.Reopen(ctx, m.ID, err.Error()); reopenErr != nil {
			e.logger.Warn("reopening failed mission", "mission", m.ID, "error", reopenErr)
		}
		out.Status = store.MissionStatusOpen
		out.Error = err.Error()
		e.appendEvent(ctx, m.ProjectID, m.BranchID, "mission_failed", map[string]any{
			"mission_id": m.ID,
			"error":      err.Error(),
		})
		return out
	}

	meta, _ := json.Marshal(map[string]any{
		"query_hash": m.QueryHash,
		"provider":   outcome.Provider,
		"origin":     string(outcome.Origin),
		"results":    len(outcome.Results),
	})
	if err := e.missions.MarkDone(ctx, m.ID, string(meta)); err != nil {
		out.Status = store.MissionStatusInProgress
		out.Error = err.Error()
		return out
	}

	out.Status = store.MissionStatusDone
	out.Provider = outcome.Provider
	out.Origin = string(outcome.Origin)
	e.appendEvent(ctx, m.ProjectID, m.BranchID, "mission_done", map[string]any{
		"mission_id": m.ID,
		"provider":   outcome.Provider,
		"origin":     string(outcome.Origin),
	})
	return out
}

// appendEvent records an audit row; failures are logged, never raised.
func (e *Engine) appendEvent(ctx context.Context, projectID, branchID, step string, payload map[string]any) {
	if e.events == nil {
		return
	}
	encoded, _ := json.Marshal(payload)
	err := e.events.Append(ctx, &store.Event{
		ProjectID: projectID,
		BranchID:  branchID,
		EventType: "MISSION",
		Step:      step,
		Payload:   string(encoded),
		Source:    "mission_engine",
	})
	if err != nil {
		e.logger.Warn("appending mission event", "step", step, "error", err)
	}
}
