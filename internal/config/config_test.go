// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchvault/vault/internal/config"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultProviderOrder, cfg.Search.Order)
	assert.Equal(t, 24, cfg.Search.TTLHours)
	assert.Equal(t, 30, cfg.Search.TimeoutSeconds)
	assert.Equal(t, 50, cfg.Events.TailLimit)
	assert.Equal(t, 20, cfg.Watch.BatchLimit)
	assert.Empty(t, cfg.DBPath)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.yaml")
	yaml := `
db_path: /tmp/research.db
search:
  order: [wikipedia, duckduckgo]
  ttl_hours: 6
  searxng:
    base_url: http://localhost:8080
artifacts:
  roots:
    - /tmp/vault-artifacts
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/research.db", cfg.DBPath)
	assert.Equal(t, []string{"wikipedia", "duckduckgo"}, cfg.Search.Order)
	assert.Equal(t, 6, cfg.Search.TTLHours)
	assert.Equal(t, "http://localhost:8080", cfg.Search.SearxNG.BaseURL)
	assert.Equal(t, []string{"/tmp/vault-artifacts"}, cfg.Artifacts.Roots)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, vaulterr.CodeConfigLoadReadFailure, vaulterr.CodeOf(err))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RESEARCHVAULT_DB", "/tmp/env-override.db")
	t.Setenv("RESEARCHVAULT_SEARCH_TTL_HOURS", "12")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env-override.db", cfg.DBPath)
	assert.Equal(t, 12, cfg.Search.TTLHours)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.yaml")
	yaml := `
search:
  order: [brave, google]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.True(t, vaulterr.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "google")
}

func TestValidateRejectsNonPositiveTTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  ttl_hours: 0\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.True(t, vaulterr.IsInvalidInput(err))
}

func TestResolveDBPathDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := &config.Config{}
	path, err := cfg.ResolveDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".researchvault", "research_vault.db"), path)

	// Parent directory is created.
	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestResolveArtifactRootsExpandsTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := &config.Config{Artifacts: config.ArtifactsConfig{Roots: []string{"~/artifacts"}}}
	roots, err := cfg.ResolveArtifactRoots()
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, filepath.Join(home, "artifacts"), roots[0])
}

func TestResolveArtifactRootsDefaultsToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := &config.Config{}
	roots, err := cfg.ResolveArtifactRoots()
	require.NoError(t, err)
	assert.Equal(t, []string{home}, roots)
}
