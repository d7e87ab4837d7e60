// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// ProviderAuto selects providers in the gateway's configured fallback order.
const ProviderAuto = "auto"

// Origin says whether an outcome came from the cache or a live call.
type Origin string

const (
	OriginCache   Origin = "cache"
	OriginNetwork Origin = "network"
)

// Outcome is a resolved search: the results plus which provider produced
// them and how.
type Outcome struct {
	Results  []Result
	Provider string
	Origin   Origin
}

// Gateway checks the cache across every candidate provider before making any
// network call, then walks providers in the configured order until one
// succeeds. Successful responses (including empty ones) are cached.
type Gateway struct {
	cache      store.SearchCacheStore
	providers  map[string]Provider
	order      []string
	defaultTTL time.Duration
	logger     *slog.Logger
}

// NewGateway builds a gateway over the given providers. order is the
// fallback order and must only name registered providers; it is injected at
// construction rather than read from ambient state.
func NewGateway(cache store.SearchCacheStore, providers []Provider, order []string, defaultTTL time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Gateway{
		cache:      cache,
		providers:  byName,
		order:      order,
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

// NormalizeQuery maps query text onto its cache-canonical form.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// CacheKey is the content address for one (provider, normalized query) pair.
func CacheKey(provider, normalizedQuery string) string {
	sum := sha256.Sum256([]byte(provider + "\n" + normalizedQuery))
	return hex.EncodeToString(sum[:])
}

// Search resolves query through the cache and the provider chain. provider
// is ProviderAuto or one specific name; ttl <= 0 uses the gateway default.
func (g *Gateway) Search(ctx context.Context, query, provider string, ttl time.Duration) (*Outcome, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil, vaulterr.New(vaulterr.CodeSearchQueryInvalid, "search: query must not be blank")
	}
	if ttl <= 0 {
		ttl = g.defaultTTL
	}

	candidates, err := g.candidates(provider)
	if err != nil {
		return nil, err
	}

	// Scan the cache across every candidate before any network call: a
	// previously successful provider's results beat a fresh call from a
	// different one.
	now := time.Now()
	for _, name := range candidates {
		entry, err := g.cache.Get(ctx, CacheKey(name, normalized))
		if err != nil {
			return nil, err
		}
		if entry == nil || now.Sub(entry.Timestamp) >= ttl {
			continue
		}
		var results []Result
		if err := json.Unmarshal([]byte(entry.Result), &results); err != nil {
			g.logger.Warn("discarding undecodable cache entry", "provider", name, "error", err)
			continue
		}
		g.logger.Debug("search cache hit", "provider", name, "query", normalized)
		return &Outcome{Results: results, Provider: name, Origin: OriginCache}, nil
	}

	var firstErr, lastErr error
	for _, name := range candidates {
		p := g.providers[name]
		results, err := p.Search(ctx, strings.TrimSpace(query))
		if err != nil {
			g.logger.Debug("provider failed", "provider", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			lastErr = err
			continue
		}
		if results == nil {
			results = []Result{}
		}

		// Empty result sets cache as a hit too, so a query a provider
		// legitimately has nothing for does not hammer it.
		encoded, err := json.Marshal(results)
		if err != nil {
			return nil, vaulterr.Wrap(err, vaulterr.CodeInternalFailure, "encoding search results")
		}
		if err := g.cache.Put(ctx, &store.SearchCacheEntry{
			Key:       CacheKey(name, normalized),
			Query:     query,
			Result:    string(encoded),
			Timestamp: time.Now(),
		}); err != nil {
			return nil, err
		}

		g.logger.Debug("search resolved", "provider", name, "results", len(results))
		return &Outcome{Results: results, Provider: name, Origin: OriginNetwork}, nil
	}

	if provider != ProviderAuto && provider != "" {
		// A specific provider was requested: its own failure propagates.
		return nil, firstErr
	}
	return nil, vaulterr.Wrap(lastErr, vaulterr.CodeSearchAllProvidersFailed, "search: every provider failed")
}

func (g *Gateway) candidates(provider string) ([]string, error) {
	if provider == ProviderAuto || provider == "" {
		return g.order, nil
	}
	if _, ok := g.providers[provider]; !ok {
		return nil, vaulterr.Errorf(vaulterr.CodeSearchProviderUnknown, "search: unknown provider %q", provider)
	}
	return []string{provider}, nil
}
