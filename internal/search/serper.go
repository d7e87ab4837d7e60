// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	vaulterr "github.com/researchvault/vault/pkg/errors"
)

const defaultSerperBaseURL = "https://google.serper.dev"

// Compile-time interface check.
var _ Provider = (*SerperProvider)(nil)

// SerperProvider queries the Serper.dev Google proxy. Requires an API key.
type SerperProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewSerperProvider builds a Serper provider. baseURL and client may be
// empty for the production defaults.
func NewSerperProvider(apiKey, baseURL string, client *http.Client) *SerperProvider {
	if baseURL == "" {
		baseURL = defaultSerperBaseURL
	}
	if client == nil {
		client = defaultClient(30 * time.Second)
	}
	return &SerperProvider{apiKey: apiKey, baseURL: baseURL, client: client}
}

func (p *SerperProvider) Name() string { return ProviderSerper }

func (p *SerperProvider) Search(ctx context.Context, query string) ([]Result, error) {
	if p.apiKey == "" {
		return nil, vaulterr.New(vaulterr.CodeSearchProviderCredentialMissing,
			"serper: API key is not configured",
			vaulterr.FieldProvider(ProviderSerper))
	}

	payload, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "serper: encoding request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "serper: building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "serper: request failed",
			vaulterr.FieldProvider(ProviderSerper))
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "serper: reading response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, vaulterr.Errorf(vaulterr.CodeSearchProviderUpstreamFailure, "serper: HTTP %d", resp.StatusCode)
	}

	var decoded struct {
		Organic []struct {
			Link    string `json:"link"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "serper: decoding response")
	}

	results := make([]Result, 0, len(decoded.Organic))
	for _, r := range decoded.Organic {
		results = append(results, Result{URL: r.Link, Title: r.Title, Description: r.Snippet})
	}
	return results, nil
}
