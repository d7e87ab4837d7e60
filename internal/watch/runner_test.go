// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package watch_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchvault/vault/internal/ingest"
	"github.com/researchvault/vault/internal/search"
	"github.com/researchvault/vault/internal/store"
	"github.com/researchvault/vault/internal/store/sqlite"
	"github.com/researchvault/vault/internal/watch"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

type stubSearcher struct {
	outcome *search.Outcome
	err     error
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query, _ string, _ time.Duration) (*search.Outcome, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

type stubIngestor struct {
	result  *ingest.Result
	err     error
	sources []string
	tags    [][]string
}

func (s *stubIngestor) Ingest(_ context.Context, _ string, source string, extraTags []string, _ string) (*ingest.Result, error) {
	s.sources = append(s.sources, source)
	s.tags = append(s.tags, extraTags)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestRunner(t *testing.T, gateway watch.Searcher, ingestor watch.Ingestor) (*watch.Runner, *sqlite.Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := sqlite.Open(filepath.Join(dir, "vault.db"), sqlite.Options{ArtifactRoots: []string{dir}})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Projects().Create(ctx, &store.Project{ID: "p1", Name: "P1"}))
	branchID, err := s.Branches().Resolve(ctx, "p1", "")
	require.NoError(t, err)

	return watch.NewRunner(s.WatchTargets(), s.Branches(), s.Events(), gateway, ingestor, nil), s, branchID
}

func addTarget(t *testing.T, s *sqlite.Store, branchID string, typ store.WatchType, target, tags string) *store.WatchTarget {
	t.Helper()
	wt := &store.WatchTarget{
		ProjectID: "p1",
		BranchID:  branchID,
		Type:      typ,
		Target:    target,
		Tags:      tags,
		IntervalS: 60,
	}
	require.NoError(t, s.WatchTargets().Add(context.Background(), wt))
	return wt
}

func TestRunDueQueryTarget(t *testing.T) {
	ctx := context.Background()
	gateway := &stubSearcher{outcome: &search.Outcome{Provider: "brave", Origin: search.OriginNetwork}}
	runner, s, branchID := newTestRunner(t, gateway, nil)
	addTarget(t, s, branchID, store.WatchTypeQuery, "rust async runtimes", "")

	reports, err := runner.RunDue(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Success)
	assert.Equal(t, "brave/network", reports[0].Detail)
	assert.Equal(t, []string{"rust async runtimes"}, gateway.queries)

	// Run is stamped: the target is no longer due.
	got, err := s.WatchTargets().List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].LastRunAt.IsZero())
	assert.Empty(t, got[0].LastError)

	due, err := s.WatchTargets().ListDue(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	// And a WATCH event was appended.
	events, err := s.Events().ListRecent(ctx, "p1", 10, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "WATCH", events[0].EventType)
}

func TestRunDueURLTargetGoesThroughIngest(t *testing.T) {
	ctx := context.Background()
	ingestor := &stubIngestor{result: &ingest.Result{Success: true, FindingID: "fnd_abc"}}
	runner, s, branchID := newTestRunner(t, nil, ingestor)
	addTarget(t, s, branchID, store.WatchTypeURL, "https://example.com/feed", "watch,feed")

	reports, err := runner.RunDue(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Success)
	assert.Equal(t, "fnd_abc", reports[0].Detail)
	assert.Equal(t, []string{"https://example.com/feed"}, ingestor.sources)
	assert.Equal(t, []string{"watch", "feed"}, ingestor.tags[0])
}

func TestRunDueFailureIsStampedNotRaised(t *testing.T) {
	ctx := context.Background()
	gateway := &stubSearcher{err: vaulterr.New(vaulterr.CodeSearchAllProvidersFailed, "down")}
	runner, s, branchID := newTestRunner(t, gateway, nil)
	addTarget(t, s, branchID, store.WatchTypeQuery, "failing query", "")

	reports, err := runner.RunDue(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Success)
	assert.Contains(t, reports[0].Error, "down")

	got, err := s.WatchTargets().List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].LastError, "down")
	assert.False(t, got[0].LastRunAt.IsZero())
}

func TestRunDueOneFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	gateway := &stubSearcher{outcome: &search.Outcome{Provider: "wikipedia", Origin: search.OriginCache}}
	ingestor := &stubIngestor{err: vaulterr.New(vaulterr.CodeIngestFetchFailure, "connection refused")}
	runner, s, branchID := newTestRunner(t, gateway, ingestor)
	addTarget(t, s, branchID, store.WatchTypeURL, "https://dead.example.com", "")
	addTarget(t, s, branchID, store.WatchTypeQuery, "still works", "")

	reports, err := runner.RunDue(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	byTarget := map[string]watch.Report{}
	for _, r := range reports {
		byTarget[r.Target] = r
	}
	assert.False(t, byTarget["https://dead.example.com"].Success)
	assert.True(t, byTarget["still works"].Success)
}

func TestRunDueIngestFailureResultStamped(t *testing.T) {
	ctx := context.Background()
	ingestor := &stubIngestor{result: &ingest.Result{Success: false, Error: "HTTP 404"}}
	runner, s, branchID := newTestRunner(t, nil, ingestor)
	addTarget(t, s, branchID, store.WatchTypeURL, "https://gone.example.com", "")

	reports, err := runner.RunDue(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Success)
	assert.Contains(t, reports[0].Error, "404")

	got, err := s.WatchTargets().List(ctx, "p1")
	require.NoError(t, err)
	assert.Contains(t, got[0].LastError, "404")
}
