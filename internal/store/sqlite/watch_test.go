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
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

func TestWatchAddValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	branchID := seedProject(t, s, "p1")

	err := s.WatchTargets().Add(ctx, &store.WatchTarget{
		ProjectID: "p1", BranchID: branchID, Type: "rss", Target: "x", IntervalS: 60,
	})
	require.Error(t, err)
	assert.True(t, vaulterr.IsInvalidInput(err))

	err = s.WatchTargets().Add(ctx, &store.WatchTarget{
		ProjectID: "p1", BranchID: branchID, Type: store.WatchTypeQuery, Target: "x", IntervalS: 0,
	})
	require.Error(t, err)
	assert.True(t, vaulterr.IsInvalidInput(err))
}

func TestWatchListDueHonorsIntervalAndStatus(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	branchID := seedProject(t, s, "p1")
	now := time.Now()

	fresh := &store.WatchTarget{ProjectID: "p1", BranchID: branchID, Type: store.WatchTypeQuery, Target: "fresh", IntervalS: 3600}
	require.NoError(t, s.WatchTargets().Add(ctx, fresh))
	require.NoError(t, s.WatchTargets().MarkRun(ctx, fresh.ID, now.Add(-time.Minute), ""))

	stale := &store.WatchTarget{ProjectID: "p1", BranchID: branchID, Type: store.WatchTypeQuery, Target: "stale", IntervalS: 60}
	require.NoError(t, s.WatchTargets().Add(ctx, stale))
	require.NoError(t, s.WatchTargets().MarkRun(ctx, stale.ID, now.Add(-time.Hour), "old failure"))

	never := &store.WatchTarget{ProjectID: "p1", BranchID: branchID, Type: store.WatchTypeURL, Target: "https://example.com", IntervalS: 60}
	require.NoError(t, s.WatchTargets().Add(ctx, never))

	disabled := &store.WatchTarget{ProjectID: "p1", BranchID: branchID, Type: store.WatchTypeQuery, Target: "off", IntervalS: 1}
	require.NoError(t, s.WatchTargets().Add(ctx, disabled))
	require.NoError(t, s.WatchTargets().Disable(ctx, disabled.ID))

	due, err := s.WatchTargets().ListDue(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, due, 2)

	targets := []string{due[0].Target, due[1].Target}
	assert.Contains(t, targets, "stale")
	assert.Contains(t, targets, "https://example.com")
}

func TestWatchMarkRunStampsErrorAndClears(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	branchID := seedProject(t, s, "p1")

	w := &store.WatchTarget{ProjectID: "p1", BranchID: branchID, Type: store.WatchTypeQuery, Target: "q", IntervalS: 60}
	require.NoError(t, s.WatchTargets().Add(ctx, w))

	ranAt := time.Now().Add(-time.Minute)
	require.NoError(t, s.WatchTargets().MarkRun(ctx, w.ID, ranAt, "boom"))

	list, err := s.WatchTargets().List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "boom", list[0].LastError)
	assert.WithinDuration(t, ranAt, list[0].LastRunAt, time.Second)

	require.NoError(t, s.WatchTargets().MarkRun(ctx, w.ID, time.Now(), ""))
	list, err = s.WatchTargets().List(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list[0].LastError)
}
