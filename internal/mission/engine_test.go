// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package mission_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchvault/vault/internal/mission"
	"github.com/researchvault/vault/internal/search"
	"github.com/researchvault/vault/internal/store"
	"github.com/researchvault/vault/internal/store/sqlite"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// stubSearcher returns a fixed outcome or error for every query.
type stubSearcher struct {
	outcome *search.Outcome
	err     error
	calls   int
}

func (s *stubSearcher) Search(context.Context, string, string, time.Duration) (*search.Outcome, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

func newTestEngine(t *testing.T, gateway mission.Searcher) (*mission.Engine, *sqlite.Store) {
	t.Helper()
	dir := t.TempDir()
	s, err := sqlite.Open(filepath.Join(dir, "vault.db"), sqlite.Options{ArtifactRoots: []string{dir}})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Projects().Create(context.Background(), &store.Project{ID: "p1", Name: "P1"}))

	eng := mission.NewEngine(s.Branches(), s.Findings(), s.Missions(), s.Events(), gateway, nil)
	return eng, s
}

func addFinding(t *testing.T, s *sqlite.Store, title string, confidence float64) *store.Finding {
	t.Helper()
	ctx := context.Background()
	branchID, err := s.Branches().Resolve(ctx, "p1", "")
	require.NoError(t, err)
	f := &store.Finding{ProjectID: "p1", BranchID: branchID, Title: title, Confidence: confidence}
	require.NoError(t, s.Findings().Add(ctx, f))
	return f
}

func TestPlanRunReplanLifecycle(t *testing.T) {
	ctx := context.Background()
	gateway := &stubSearcher{outcome: &search.Outcome{
		Results:  []search.Result{{URL: "https://example.com", Title: "Corroboration"}},
		Provider: "brave",
		Origin:   search.OriginNetwork,
	}}
	eng, s := newTestEngine(t, gateway)
	addFinding(t, s, "Claim A", 0.4)

	planned, err := eng.Plan(ctx, "p1", "", 0.7, 10)
	require.NoError(t, err)
	require.Len(t, planned, 1)
	assert.Equal(t, "Claim A", planned[0].Query)
	assert.Equal(t, 60, planned[0].Priority)
	assert.Equal(t, store.MissionStatusOpen, planned[0].Status)

	outcomes, err := eng.Run(ctx, "p1", "", "", 10)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, store.MissionStatusDone, outcomes[0].Status)
	assert.Equal(t, "brave", outcomes[0].Provider)

	m, err := s.Missions().Get(ctx, planned[0].ID)
	require.NoError(t, err)
	assert.Equal(t, store.MissionStatusDone, m.Status)
	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(m.ResultMeta), &meta))
	assert.Equal(t, "brave", meta["provider"])
	assert.Equal(t, "network", meta["origin"])
	assert.Equal(t, m.QueryHash, meta["query_hash"])
	assert.False(t, m.CompletedAt.IsZero())

	// Re-planning the same finding+query pair creates nothing.
	replanned, err := eng.Plan(ctx, "p1", "", 0.7, 10)
	require.NoError(t, err)
	assert.Empty(t, replanned)
}

func TestPlanPriorityOrdering(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, nil)
	addFinding(t, s, "high confidence claim", 0.9)
	addFinding(t, s, "shaky claim", 0.3)
	addFinding(t, s, "middling claim", 0.6)

	planned, err := eng.Plan(ctx, "p1", "", 0.7, 10)
	require.NoError(t, err)
	require.Len(t, planned, 2)

	// Least-trusted first, and its mission carries the higher priority.
	assert.Equal(t, "shaky claim", planned[0].Query)
	assert.Equal(t, 70, planned[0].Priority)
	assert.Equal(t, "middling claim", planned[1].Query)
	assert.Equal(t, 40, planned[1].Priority)
	assert.Greater(t, planned[0].Priority, planned[1].Priority)
}

func TestPlanDerivesQueryFromContentKeywords(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, nil)
	branchID, err := s.Branches().Resolve(ctx, "p1", "")
	require.NoError(t, err)
	require.NoError(t, s.Findings().Add(ctx, &store.Finding{
		ProjectID:  "p1",
		BranchID:   branchID,
		Content:    "the scheduler starvation appears when the scheduler queue is full",
		Confidence: 0.2,
	}))

	planned, err := eng.Plan(ctx, "p1", "", 0.7, 10)
	require.NoError(t, err)
	require.Len(t, planned, 1)
	assert.Contains(t, planned[0].Query, "scheduler")
	assert.NotContains(t, planned[0].Query, "the")
}

func TestPlanRespectsMax(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, nil)
	addFinding(t, s, "claim one", 0.1)
	addFinding(t, s, "claim two", 0.2)
	addFinding(t, s, "claim three", 0.3)

	planned, err := eng.Plan(ctx, "p1", "", 0.7, 2)
	require.NoError(t, err)
	assert.Len(t, planned, 2)
}

func TestRunFailureReopensMission(t *testing.T) {
	ctx := context.Background()
	gateway := &stubSearcher{err: vaulterr.New(vaulterr.CodeSearchAllProvidersFailed, "search: every provider failed")}
	eng, s := newTestEngine(t, gateway)
	addFinding(t, s, "Claim A", 0.4)

	planned, err := eng.Plan(ctx, "p1", "", 0.7, 10)
	require.NoError(t, err)
	require.Len(t, planned, 1)

	outcomes, err := eng.Run(ctx, "p1", "", "", 10)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, store.MissionStatusOpen, outcomes[0].Status)
	assert.NotEmpty(t, outcomes[0].Error)

	m, err := s.Missions().Get(ctx, planned[0].ID)
	require.NoError(t, err)
	assert.Equal(t, store.MissionStatusOpen, m.Status)
	assert.Contains(t, m.LastError, "every provider failed")

	// Eligible again on the next run once the gateway recovers.
	gateway.err = nil
	gateway.outcome = &search.Outcome{Provider: "wikipedia", Origin: search.OriginNetwork}
	outcomes, err = eng.Run(ctx, "p1", "", "", 10)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, store.MissionStatusDone, outcomes[0].Status)
}

func TestRunFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	gateway := &stubSearcher{err: vaulterr.New(vaulterr.CodeSearchAllProvidersFailed, "down")}
	eng, s := newTestEngine(t, gateway)
	addFinding(t, s, "claim one", 0.1)
	addFinding(t, s, "claim two", 0.2)

	_, err := eng.Plan(ctx, "p1", "", 0.7, 10)
	require.NoError(t, err)

	outcomes, err := eng.Run(ctx, "p1", "", "", 10)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, out := range outcomes {
		assert.Equal(t, store.MissionStatusOpen, out.Status)
		assert.NotEmpty(t, out.Error)
	}
	assert.Equal(t, 2, gateway.calls)
}

func TestRunAppendsMissionEvents(t *testing.T) {
	ctx := context.Background()
	gateway := &stubSearcher{outcome: &search.Outcome{Provider: "brave", Origin: search.OriginCache}}
	eng, s := newTestEngine(t, gateway)
	addFinding(t, s, "Claim A", 0.4)

	_, err := eng.Plan(ctx, "p1", "", 0.7, 10)
	require.NoError(t, err)
	_, err = eng.Run(ctx, "p1", "", "", 10)
	require.NoError(t, err)

	events, err := s.Events().ListRecent(ctx, "p1", 10, "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "mission_done", events[0].Step)
	assert.Equal(t, "mission_planned", events[1].Step)
}

func TestDedupHashIsDeterministic(t *testing.T) {
	qh := mission.QueryHash("  Claim A ")
	assert.Equal(t, mission.QueryHash("claim a"), qh)
	assert.Equal(t,
		mission.DedupHash("p1", "br_p1_main", "fnd_1", qh),
		mission.DedupHash("p1", "br_p1_main", "fnd_1", qh))
	assert.NotEqual(t,
		mission.DedupHash("p1", "br_p1_main", "fnd_1", qh),
		mission.DedupHash("p1", "br_p1_main", "fnd_2", qh))
}
