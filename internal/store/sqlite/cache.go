// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// Compile-time interface check.
var _ store.SearchCacheStore = (*CacheStore)(nil)

// CacheStore implements store.SearchCacheStore backed by SQLite.
type CacheStore struct {
	db *sql.DB
}

func (s *CacheStore) Get(ctx context.Context, key string) (*store.SearchCacheEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT query_hash, query, result, timestamp FROM search_cache WHERE query_hash = ?`, key)

	var (
		e         store.SearchCacheEntry
		timestamp string
	)
	err := row.Scan(&e.Key, &e.Query, &e.Result, &timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "reading search cache entry")
	}
	e.Timestamp = parseTime(timestamp)
	return &e, nil
}

func (s *CacheStore) Put(ctx context.Context, entry *store.SearchCacheEntry) error {
	if entry.Key == "" {
		return vaulterr.New(vaulterr.CodeStoreInvalidInput, "search cache: key must not be empty")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO search_cache (query_hash, query, result, timestamp) VALUES (?, ?, ?, ?)`,
			entry.Key, entry.Query, entry.Result, formatTime(entry.Timestamp),
		)
		if err != nil && !isBusy(err) {
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "writing search cache entry")
		}
		return err
	})
}
