// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

// Package ingest routes source identifiers to capability-matching
// connectors and records deduplicated findings with their audit events.
package ingest

import "context"

// Draft is what a connector fetched from a source, ready to become a
// finding.
type Draft struct {
	Title      string
	Content    string
	Tags       []string
	Confidence float64
	// Source labels where the draft came from (e.g. "web"), not the URL.
	Source string
	// RawPayload is the connector's native payload, logged as the ingest
	// event body. Nil falls back to {"title": ...}.
	RawPayload map[string]any
}

// Connector fetches content for the sources it can handle. CanHandle is the
// capability predicate; connectors are probed in registration order and the
// first match wins, so a universal fallback must be registered last.
type Connector interface {
	Name() string
	CanHandle(source string) bool
	Fetch(ctx context.Context, source string) (*Draft, error)
}
