// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	vaulterr "github.com/researchvault/vault/pkg/errors"
)

const (
	webUserAgent     = "ResearchVault/1.0"
	maxWebPageBytes  = 1 << 20
	maxContentChars  = 5000
	minParagraphSize = 50
)

// Compile-time interface check.
var _ Connector = (*WebConnector)(nil)

// WebConnector is the universal fallback: it accepts any source and treats
// it as a URL, extracting the page title and paragraph text. Register it
// last.
type WebConnector struct {
	client *http.Client
}

// NewWebConnector builds a web connector; client may be nil for a default
// with a 10s timeout.
func NewWebConnector(client *http.Client) *WebConnector {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebConnector{client: client}
}

func (c *WebConnector) Name() string { return "web" }

// CanHandle always reports true; this connector is the fallback.
func (c *WebConnector) CanHandle(string) bool { return true }

func (c *WebConnector) Fetch(ctx context.Context, source string) (*Draft, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, vaulterr.Wrapf(err, vaulterr.CodeIngestFetchFailure, "web: building request for %s", source)
	}
	req.Header.Set("User-Agent", webUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeIngestFetchFailure, "web: request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, vaulterr.Errorf(vaulterr.CodeIngestFetchFailure, "web: HTTP %d fetching %s", resp.StatusCode, source)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebPageBytes))
	if err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.CodeIngestFetchFailure, "web: reading page body")
	}

	title, content := extractPage(body)
	if title == "" {
		title = source
	}
	content = truncateUTF8(content, maxContentChars)

	return &Draft{
		Title:      strings.TrimSpace(title),
		Content:    content,
		Tags:       []string{"web", "scraping"},
		Confidence: 0.7,
		Source:     "web",
		RawPayload: map[string]any{
			"title": strings.TrimSpace(title),
			"bytes": fmt.Sprintf("%d", len(body)),
		},
	}, nil
}

// extractPage pulls the <title> and substantial <p> paragraphs out of an
// HTML document. Script and style subtrees are skipped.
func extractPage(body []byte) (title, content string) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", ""
	}

	var paragraphs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "title":
				if title == "" {
					title = textContent(n)
				}
			case "p":
				if text := textContent(n); len(text) >= minParagraphSize {
					paragraphs = append(paragraphs, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, strings.Join(paragraphs, "\n\n")
}

// truncateUTF8 caps s at n bytes, backing off to a rune boundary so the cut
// never leaves an invalid trailing sequence.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(strings.Join(strings.Fields(sb.String()), " "))
}
