// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package ingest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchvault/vault/internal/ingest"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

func TestWebConnectorExtractsTitleAndParagraphs(t *testing.T) {
	page := `<html><head><title>Example Page</title></head><body>
<script>var ignored = "this script text is long enough to look like a paragraph";</script>
<p>short</p>
<p>This paragraph is comfortably longer than the minimum size and must be kept.</p>
</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	c := ingest.NewWebConnector(srv.Client())
	draft, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Example Page", draft.Title)
	assert.Contains(t, draft.Content, "comfortably longer")
	assert.NotContains(t, draft.Content, "short")
	assert.NotContains(t, draft.Content, "ignored")
	assert.Equal(t, []string{"web", "scraping"}, draft.Tags)
	assert.InDelta(t, 0.7, draft.Confidence, 1e-9)
}

func TestWebConnectorTruncatesOnRuneBoundary(t *testing.T) {
	// 2000 snowmen = 6000 bytes; the byte cap falls mid-rune, so a byte
	// slice would leave an invalid trailing sequence.
	page := "<html><head><title>t</title></head><body><p>" +
		strings.Repeat("☃", 2000) + "</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	c := ingest.NewWebConnector(srv.Client())
	draft, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(draft.Content), 5000)
	assert.True(t, utf8.ValidString(draft.Content))
}

func TestWebConnectorNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := ingest.NewWebConnector(srv.Client())
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, vaulterr.CodeIngestFetchFailure, vaulterr.CodeOf(err))
}
