// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// Compile-time interface check.
var _ Provider = (*SearxNGProvider)(nil)

// SearxNGProvider queries a self-hosted SearXNG instance. Requires a base
// URL; there is no API key.
type SearxNGProvider struct {
	baseURL string
	client  *http.Client
}

// NewSearxNGProvider builds a SearXNG provider for the given instance URL.
func NewSearxNGProvider(baseURL string, client *http.Client) *SearxNGProvider {
	if client == nil {
		client = defaultClient(30 * time.Second)
	}
	return &SearxNGProvider{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *SearxNGProvider) Name() string { return ProviderSearxNG }

func (p *SearxNGProvider) Search(ctx context.Context, query string) ([]Result, error) {
	if p.baseURL == "" {
		return nil, vaulterr.New(vaulterr.CodeSearchProviderNotConfigured,
			"searxng: base URL is not configured",
			vaulterr.FieldProvider(ProviderSearxNG))
	}

	reqURL := p.baseURL + "/search?format=json&q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "searxng: building request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "searxng: request failed",
			vaulterr.FieldProvider(ProviderSearxNG))
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "searxng: reading response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, vaulterr.Errorf(vaulterr.CodeSearchProviderUpstreamFailure, "searxng: HTTP %d", resp.StatusCode)
	}

	var decoded struct {
		Results []struct {
			URL     string `json:"url"`
			Title   string `json:"title"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "searxng: decoding response")
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, Result{URL: r.URL, Title: r.Title, Description: r.Content})
	}
	return results, nil
}
