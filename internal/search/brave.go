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

const defaultBraveBaseURL = "https://api.search.brave.com"

// Compile-time interface check.
var _ Provider = (*BraveProvider)(nil)

// BraveProvider queries the Brave Search API. Requires an API key.
type BraveProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewBraveProvider builds a Brave provider. baseURL and client may be empty
// for the production defaults.
func NewBraveProvider(apiKey, baseURL string, client *http.Client) *BraveProvider {
	if baseURL == "" {
		baseURL = defaultBraveBaseURL
	}
	if client == nil {
		client = defaultClient(30 * time.Second)
	}
	return &BraveProvider{apiKey: apiKey, baseURL: baseURL, client: client}
}

func (p *BraveProvider) Name() string { return ProviderBrave }

func (p *BraveProvider) Search(ctx context.Context, query string) ([]Result, error) {
	if p.apiKey == "" {
		return nil, vaulterr.New(vaulterr.CodeSearchProviderCredentialMissing,
			"brave: API key is not configured",
			vaulterr.FieldProvider(ProviderBrave))
	}

	reqURL := p.baseURL + "/res/v1/web/search?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "brave: building request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "brave: request failed",
			vaulterr.FieldProvider(ProviderBrave))
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "brave: reading response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, vaulterr.Errorf(vaulterr.CodeSearchProviderUpstreamFailure, "brave: HTTP %d", resp.StatusCode)
	}

	var decoded struct {
		Web struct {
			Results []struct {
				URL         string `json:"url"`
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "brave: decoding response")
	}

	results := make([]Result, 0, len(decoded.Web.Results))
	for _, r := range decoded.Web.Results {
		results = append(results, Result{URL: r.URL, Title: r.Title, Description: r.Description})
	}
	return results, nil
}
