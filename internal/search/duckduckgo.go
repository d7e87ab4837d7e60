// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package search

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	vaulterr "github.com/researchvault/vault/pkg/errors"
)

const defaultDuckDuckGoBaseURL = "https://html.duckduckgo.com"

// Compile-time interface check.
var _ Provider = (*DuckDuckGoProvider)(nil)

// DuckDuckGoProvider scrapes the DuckDuckGo HTML endpoint. Needs no
// configuration at all, which makes it the safety net late in the fallback
// order.
type DuckDuckGoProvider struct {
	baseURL string
	client  *http.Client
}

// NewDuckDuckGoProvider builds a DuckDuckGo provider. baseURL and client may
// be empty for the production defaults.
func NewDuckDuckGoProvider(baseURL string, client *http.Client) *DuckDuckGoProvider {
	if baseURL == "" {
		baseURL = defaultDuckDuckGoBaseURL
	}
	if client == nil {
		client = defaultClient(30 * time.Second)
	}
	return &DuckDuckGoProvider{baseURL: baseURL, client: client}
}

func (p *DuckDuckGoProvider) Name() string { return ProviderDuckDuckGo }

func (p *DuckDuckGoProvider) Search(ctx context.Context, query string) ([]Result, error) {
	reqURL := p.baseURL + "/html/?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "duckduckgo: building request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "duckduckgo: request failed",
			vaulterr.FieldProvider(ProviderDuckDuckGo))
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "duckduckgo: reading response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, vaulterr.Errorf(vaulterr.CodeSearchProviderUpstreamFailure, "duckduckgo: HTTP %d", resp.StatusCode)
	}

	return parseDuckDuckGoResults(body, defaultMaxResults)
}

// parseDuckDuckGoResults extracts results from the HTML listing: each hit is
// a div whose class contains both "result" and "results_links".
func parseDuckDuckGoResults(body []byte, maxResults int) ([]Result, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeSearchProviderUpstreamFailure, "duckduckgo: parsing HTML")
	}

	var results []Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			class := nodeAttr(n, "class")
			if strings.Contains(class, "result") && strings.Contains(class, "results_links") {
				if r := extractDuckDuckGoResult(n); r.URL != "" && r.Title != "" {
					results = append(results, r)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

func extractDuckDuckGoResult(n *html.Node) Result {
	var r Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := nodeAttr(n, "class")
			switch {
			case strings.Contains(class, "result__a"):
				r.URL = cleanDuckDuckGoURL(nodeAttr(n, "href"))
				r.Title = nodeText(n)
			case strings.Contains(class, "result__snippet"):
				r.Description = nodeText(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return r
}

// cleanDuckDuckGoURL unwraps the redirect DuckDuckGo puts around result
// links.
func cleanDuckDuckGoURL(href string) string {
	const redirectPrefix = "//duckduckgo.com/l/?uddg="
	if !strings.HasPrefix(href, redirectPrefix) {
		return href
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(href, redirectPrefix))
	if err != nil {
		return href
	}
	if idx := strings.Index(decoded, "&"); idx > 0 {
		decoded = decoded[:idx]
	}
	return decoded
}

func nodeAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
