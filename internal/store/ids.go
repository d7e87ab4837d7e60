// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package store

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var idPartRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// sanitizeIDPart maps arbitrary text onto the id-safe alphabet.
func sanitizeIDPart(raw string) string {
	return idPartRe.ReplaceAllString(strings.TrimSpace(raw), "_")
}

// BranchID derives the deterministic branch id for a project + branch name.
// The id is reproducible without a lookup, but only valid once a row exists.
func BranchID(projectID, name string) string {
	return "br_" + sanitizeIDPart(projectID) + "_" + sanitizeIDPart(name)
}

func randomHex(n int) string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:n]
}

// NewFindingID returns a fresh finding id (fnd_<8 hex>).
func NewFindingID() string { return "fnd_" + randomHex(8) }

// NewHypothesisID returns a fresh hypothesis id (hyp_<10 hex>).
func NewHypothesisID() string { return "hyp_" + randomHex(10) }

// NewMissionID returns a fresh mission id (mis_<10 hex>).
func NewMissionID() string { return "mis_" + randomHex(10) }

// NewArtifactID returns a fresh artifact id (art_<10 hex>).
func NewArtifactID() string { return "art_" + randomHex(10) }

// NewWatchTargetID returns a fresh watch target id (wt_<10 hex>).
func NewWatchTargetID() string { return "wt_" + randomHex(10) }
