// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchvault/vault/internal/search"
	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// memCache is an in-memory store.SearchCacheStore for gateway tests.
type memCache struct {
	entries map[string]*store.SearchCacheEntry
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]*store.SearchCacheEntry{}}
}

func (c *memCache) Get(_ context.Context, key string) (*store.SearchCacheEntry, error) {
	return c.entries[key], nil
}

func (c *memCache) Put(_ context.Context, entry *store.SearchCacheEntry) error {
	copied := *entry
	c.entries[entry.Key] = &copied
	return nil
}

// stubProvider returns canned results or a canned error and counts calls.
type stubProvider struct {
	name    string
	results []search.Result
	err     error
	calls   int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Search(context.Context, string) ([]search.Result, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.results, nil
}

func TestGatewayRejectsBlankQuery(t *testing.T) {
	g := search.NewGateway(newMemCache(), nil, nil, 0, nil)

	_, err := g.Search(context.Background(), "   ", search.ProviderAuto, 0)
	require.Error(t, err)
	assert.Equal(t, vaulterr.CodeSearchQueryInvalid, vaulterr.CodeOf(err))
}

func TestGatewayRejectsUnknownProvider(t *testing.T) {
	g := search.NewGateway(newMemCache(), nil, nil, 0, nil)

	_, err := g.Search(context.Background(), "query", "google", 0)
	require.Error(t, err)
	assert.Equal(t, vaulterr.CodeSearchProviderUnknown, vaulterr.CodeOf(err))
}

func TestGatewayFallsThroughToSecondProvider(t *testing.T) {
	first := &stubProvider{name: "brave", err: vaulterr.New(vaulterr.CodeSearchProviderCredentialMissing, "no key")}
	second := &stubProvider{name: "wikipedia", results: []search.Result{{URL: "https://w/A", Title: "A"}}}
	g := search.NewGateway(newMemCache(), []search.Provider{first, second}, []string{"brave", "wikipedia"}, 0, nil)

	out, err := g.Search(context.Background(), "Claim A", search.ProviderAuto, 0)
	require.NoError(t, err)
	assert.Equal(t, "wikipedia", out.Provider)
	assert.Equal(t, search.OriginNetwork, out.Origin)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestGatewayCacheHitShortCircuitsNetwork(t *testing.T) {
	p := &stubProvider{name: "wikipedia", results: []search.Result{{URL: "https://w/A", Title: "A"}}}
	g := search.NewGateway(newMemCache(), []search.Provider{p}, []string{"wikipedia"}, 0, nil)

	_, err := g.Search(context.Background(), "Claim A", search.ProviderAuto, 0)
	require.NoError(t, err)

	// Query normalization makes case and padding irrelevant to the hit.
	out, err := g.Search(context.Background(), "  claim a ", search.ProviderAuto, 0)
	require.NoError(t, err)
	assert.Equal(t, search.OriginCache, out.Origin)
	assert.Equal(t, "wikipedia", out.Provider)
	assert.Equal(t, 1, p.calls)
}

func TestGatewayScansCacheAcrossProvidersBeforeNetwork(t *testing.T) {
	// A cached wikipedia result must beat a fresh brave call even though
	// brave comes first in the order.
	cache := newMemCache()
	require.NoError(t, cache.Put(context.Background(), &store.SearchCacheEntry{
		Key:       search.CacheKey("wikipedia", "claim a"),
		Query:     "claim a",
		Result:    `[{"url":"https://w/A","title":"A","description":""}]`,
		Timestamp: time.Now(),
	}))

	brave := &stubProvider{name: "brave", results: []search.Result{{URL: "https://b/A", Title: "B"}}}
	wiki := &stubProvider{name: "wikipedia"}
	g := search.NewGateway(cache, []search.Provider{brave, wiki}, []string{"brave", "wikipedia"}, 0, nil)

	out, err := g.Search(context.Background(), "claim a", search.ProviderAuto, 0)
	require.NoError(t, err)
	assert.Equal(t, search.OriginCache, out.Origin)
	assert.Equal(t, "wikipedia", out.Provider)
	assert.Zero(t, brave.calls)
	assert.Zero(t, wiki.calls)
}

func TestGatewayCacheTTLBoundary(t *testing.T) {
	ttl := time.Hour
	cache := newMemCache()
	p := &stubProvider{name: "wikipedia", results: []search.Result{{URL: "https://w/A", Title: "fresh"}}}
	g := search.NewGateway(cache, []search.Provider{p}, []string{"wikipedia"}, 0, nil)

	// Entry one second younger than the TTL is a hit.
	require.NoError(t, cache.Put(context.Background(), &store.SearchCacheEntry{
		Key:       search.CacheKey("wikipedia", "claim a"),
		Query:     "claim a",
		Result:    `[{"url":"https://w/A","title":"cached","description":""}]`,
		Timestamp: time.Now().Add(-ttl + time.Second),
	}))
	out, err := g.Search(context.Background(), "claim a", search.ProviderAuto, ttl)
	require.NoError(t, err)
	assert.Equal(t, search.OriginCache, out.Origin)
	assert.Equal(t, "cached", out.Results[0].Title)

	// One second past the TTL triggers a fresh network call.
	require.NoError(t, cache.Put(context.Background(), &store.SearchCacheEntry{
		Key:       search.CacheKey("wikipedia", "claim a"),
		Query:     "claim a",
		Result:    `[{"url":"https://w/A","title":"cached","description":""}]`,
		Timestamp: time.Now().Add(-ttl - time.Second),
	}))
	out, err = g.Search(context.Background(), "claim a", search.ProviderAuto, ttl)
	require.NoError(t, err)
	assert.Equal(t, search.OriginNetwork, out.Origin)
	assert.Equal(t, "fresh", out.Results[0].Title)
	assert.Equal(t, 1, p.calls)
}

func TestGatewayCachesEmptyResultsAsSuccess(t *testing.T) {
	p := &stubProvider{name: "wikipedia", results: nil}
	g := search.NewGateway(newMemCache(), []search.Provider{p}, []string{"wikipedia"}, 0, nil)

	out, err := g.Search(context.Background(), "obscure query", search.ProviderAuto, 0)
	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.Equal(t, search.OriginNetwork, out.Origin)

	// Second call hits the cached empty set instead of the provider.
	out, err = g.Search(context.Background(), "obscure query", search.ProviderAuto, 0)
	require.NoError(t, err)
	assert.Equal(t, search.OriginCache, out.Origin)
	assert.Equal(t, 1, p.calls)
}

func TestGatewaySpecificProviderFailurePropagates(t *testing.T) {
	brave := &stubProvider{name: "brave", err: vaulterr.New(vaulterr.CodeSearchProviderCredentialMissing, "brave: API key is not configured")}
	wiki := &stubProvider{name: "wikipedia", results: []search.Result{{URL: "https://w/A", Title: "A"}}}
	g := search.NewGateway(newMemCache(), []search.Provider{brave, wiki}, []string{"brave", "wikipedia"}, 0, nil)

	_, err := g.Search(context.Background(), "claim a", "brave", 0)
	require.Error(t, err)
	assert.True(t, vaulterr.IsCredentialMissing(err))
	// The other provider was never consulted for a specific request.
	assert.Zero(t, wiki.calls)
}

func TestGatewayAllProvidersFailedCarriesLastError(t *testing.T) {
	a := &stubProvider{name: "brave", err: vaulterr.New(vaulterr.CodeSearchProviderCredentialMissing, "no key")}
	b := &stubProvider{name: "searxng", err: vaulterr.New(vaulterr.CodeSearchProviderNotConfigured, "no base url")}
	g := search.NewGateway(newMemCache(), []search.Provider{a, b}, []string{"brave", "searxng"}, 0, nil)

	_, err := g.Search(context.Background(), "claim a", search.ProviderAuto, 0)
	require.Error(t, err)
	assert.Equal(t, vaulterr.CodeSearchAllProvidersFailed, vaulterr.CodeOf(err))
	assert.Contains(t, err.Error(), "no base url")
}

func TestCacheKeyIsProviderScoped(t *testing.T) {
	assert.NotEqual(t, search.CacheKey("brave", "q"), search.CacheKey("wikipedia", "q"))
	assert.Equal(t, search.CacheKey("brave", "q"), search.CacheKey("brave", "q"))
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "claim a", search.NormalizeQuery("  Claim A\t"))
}
