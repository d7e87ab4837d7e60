// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	vaulterr "github.com/researchvault/vault/pkg/errors"
)

const defaultWikipediaBaseURL = "https://en.wikipedia.org"

// Compile-time interface check.
var _ Provider = (*WikipediaProvider)(nil)

// WikipediaProvider queries the MediaWiki opensearch API. Needs no
// configuration.
type WikipediaProvider struct {
	baseURL string
	client  *http.Client
}

// NewWikipediaProvider builds a Wikipedia provider. baseURL and client may
// be empty for the production defaults.
func NewWikipediaProvider(baseURL string, client *http.Client) *WikipediaProvider {
	if baseURL == "" {
		baseURL = defaultWikipediaBaseURL
	}
	if client == nil {
		client = defaultClient(30 * time.Second)
	}
	return &WikipediaProvider{baseURL: baseURL, client: client}
}

func (p *WikipediaProvider) Name() string { return ProviderWikipedia }

func (p *WikipediaProvider) Search(ctx context.Context, query string) ([]Result, error) {
	reqURL := p.baseURL + "/w/api.php?action=opensearch&format=json&limit=10&search=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "wikipedia: building request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "wikipedia: request failed",
			vaulterr.FieldProvider(ProviderWikipedia))
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "wikipedia: reading response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, vaulterr.Errorf(vaulterr.CodeSearchProviderUpstreamFailure, "wikipedia: HTTP %d", resp.StatusCode)
	}

	// Opensearch responses are a four-element array:
	// [query, [titles...], [descriptions...], [urls...]].
	var decoded []json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil || len(decoded) < 4 {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "wikipedia: decoding response")
	}
	var titles, descriptions, urls []string
	if err := json.Unmarshal(decoded[1], &titles); err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "wikipedia: decoding titles")
	}
	if err := json.Unmarshal(decoded[2], &descriptions); err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "wikipedia: decoding descriptions")
	}
	if err := json.Unmarshal(decoded[3], &urls); err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "wikipedia: decoding urls")
	}

	results := make([]Result, 0, len(titles))
	for i, title := range titles {
		r := Result{Title: title}
		if i < len(descriptions) {
			r.Description = descriptions[i]
		}
		if i < len(urls) {
			r.URL = urls[i]
		}
		if r.URL != "" {
			results = append(results, r)
		}
	}
	return results, nil
}
