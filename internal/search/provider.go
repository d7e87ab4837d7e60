// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

// Package search resolves free-text queries through a content-addressed
// cache and a fixed set of pluggable providers with fallback.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider names form a fixed enumeration; configuration only reorders them.
const (
	ProviderBrave      = "brave"
	ProviderSerper     = "serper"
	ProviderSearxNG    = "searxng"
	ProviderDuckDuckGo = "duckduckgo"
	ProviderWikipedia  = "wikipedia"
)

// Result is one ranked search hit in the normalized shape every provider
// returns.
type Result struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Provider is an external search backend. Search returns ranked results or
// an error; zero results with a nil error is a legitimate success.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}

const (
	maxResponseBytes  = 1 << 20
	defaultMaxResults = 10
	userAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

func defaultClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// readBody drains a response body with a size cap so a misbehaving provider
// cannot balloon memory.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
