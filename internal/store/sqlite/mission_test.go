// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchvault/vault/internal/store"
	"github.com/researchvault/vault/internal/store/sqlite"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

func seedMission(t *testing.T, s *sqlite.Store, branchID, dedupHash string, priority int) *store.Mission {
	t.Helper()
	m := &store.Mission{
		ProjectID: "p1",
		BranchID:  branchID,
		FindingID: "fnd_seed",
		Query:     "claim a",
		QueryHash: "qh",
		DedupHash: dedupHash,
		Priority:  priority,
	}
	inserted, err := s.Missions().Insert(context.Background(), m)
	require.NoError(t, err)
	require.True(t, inserted)
	return m
}

func TestMissionInsertDedupHashPreventsSecondRow(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	branchID := seedProject(t, s, "p1")
	seedMission(t, s, branchID, "dh1", 60)

	dup := &store.Mission{
		ProjectID: "p1", BranchID: branchID, FindingID: "fnd_seed",
		Query: "claim a", QueryHash: "qh", DedupHash: "dh1", Priority: 60,
	}
	inserted, err := s.Missions().Insert(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	open, err := s.Missions().ListByStatus(ctx, "p1", branchID, store.MissionStatusOpen, 0)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestMissionListByStatusOrdering(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	branchID := seedProject(t, s, "p1")

	seedMission(t, s, branchID, "dh-low", 40)
	time.Sleep(2 * time.Millisecond)
	seedMission(t, s, branchID, "dh-high", 70)
	time.Sleep(2 * time.Millisecond)
	seedMission(t, s, branchID, "dh-high-later", 70)

	open, err := s.Missions().ListByStatus(ctx, "p1", branchID, store.MissionStatusOpen, 0)
	require.NoError(t, err)
	require.Len(t, open, 3)
	// Priority descending, then creation ascending.
	assert.Equal(t, "dh-high", open[0].DedupHash)
	assert.Equal(t, "dh-high-later", open[1].DedupHash)
	assert.Equal(t, "dh-low", open[2].DedupHash)
}

func TestMissionClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	branchID := seedProject(t, s, "p1")
	m := seedMission(t, s, branchID, "dh1", 60)

	claimed, err := s.Missions().Claim(ctx, m.ID, store.MissionStatusOpen)
	require.NoError(t, err)
	assert.True(t, claimed)

	again, err := s.Missions().Claim(ctx, m.ID, store.MissionStatusOpen)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestMissionRetrySemantics(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	branchID := seedProject(t, s, "p1")
	m := seedMission(t, s, branchID, "dh1", 60)

	claimed, err := s.Missions().Claim(ctx, m.ID, store.MissionStatusOpen)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, s.Missions().Reopen(ctx, m.ID, "provider timeout"))

	got, err := s.Missions().Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, store.MissionStatusOpen, got.Status)
	assert.Equal(t, "provider timeout", got.LastError)

	// Eligible for re-selection on the next run.
	open, err := s.Missions().ListByStatus(ctx, "p1", branchID, store.MissionStatusOpen, 0)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestMissionMarkDoneRecordsResultMeta(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	branchID := seedProject(t, s, "p1")
	m := seedMission(t, s, branchID, "dh1", 60)

	claimed, err := s.Missions().Claim(ctx, m.ID, store.MissionStatusOpen)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, s.Missions().MarkDone(ctx, m.ID, `{"provider":"wikipedia","origin":"network"}`))

	got, err := s.Missions().Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, store.MissionStatusDone, got.Status)
	assert.Contains(t, got.ResultMeta, "wikipedia")
	assert.False(t, got.CompletedAt.IsZero())

	// done is not an eligible source for MarkDone again.
	err = s.Missions().MarkDone(ctx, m.ID, "{}")
	require.Error(t, err)
	assert.True(t, vaulterr.IsNotFound(err))
}

func TestMissionOperatorTransitions(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	branchID := seedProject(t, s, "p1")

	blocked := seedMission(t, s, branchID, "dh-block", 10)
	require.NoError(t, s.Missions().Block(ctx, blocked.ID, "no provider configured"))
	got, err := s.Missions().Get(ctx, blocked.ID)
	require.NoError(t, err)
	assert.Equal(t, store.MissionStatusBlocked, got.Status)
	assert.Equal(t, "no provider configured", got.LastError)

	cancelled := seedMission(t, s, branchID, "dh-cancel", 10)
	require.NoError(t, s.Missions().Cancel(ctx, cancelled.ID))
	got, err = s.Missions().Get(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, store.MissionStatusCancelled, got.Status)

	completed := seedMission(t, s, branchID, "dh-complete", 10)
	require.NoError(t, s.Missions().Complete(ctx, completed.ID))
	got, err = s.Missions().Get(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, store.MissionStatusDone, got.Status)

	// Terminal states reject further transitions.
	err = s.Missions().Cancel(ctx, cancelled.ID)
	require.Error(t, err)
	assert.True(t, vaulterr.IsNotFound(err))
}
