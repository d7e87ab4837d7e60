// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/researchvault/vault/internal/store"
	"github.com/researchvault/vault/internal/store/sqlite"
)

// newTestStore opens a fresh vault database in a temp directory. The temp
// directory doubles as the artifact allowlist root.
func newTestStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := sqlite.Open(filepath.Join(dir, "vault.db"), sqlite.Options{ArtifactRoots: []string{dir}})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

// seedProject creates a project and returns its main branch id.
func seedProject(t *testing.T, s *sqlite.Store, projectID string) string {
	t.Helper()
	ctx := context.Background()
	err := s.Projects().Create(ctx, &store.Project{
		ID:        projectID,
		Name:      projectID,
		Objective: "test objective",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	branchID, err := s.Branches().Resolve(ctx, projectID, "")
	require.NoError(t, err)
	return branchID
}
