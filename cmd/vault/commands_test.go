// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchvault/vault/internal/secrets"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// memSecrets is an in-memory secrets.Store so tests never touch the OS
// keyring.
type memSecrets struct {
	values map[string]string
}

func (m *memSecrets) Set(key, value string) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func (m *memSecrets) Get(key string) (string, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", vaulterr.Errorf(vaulterr.CodeSecretNotFound, "secret %s not found", key)
}

func (m *memSecrets) Delete(key string) error {
	if _, ok := m.values[key]; !ok {
		return vaulterr.Errorf(vaulterr.CodeSecretNotFound, "secret %s not found", key)
	}
	delete(m.values, key)
	return nil
}

var _ secrets.Store = (*memSecrets)(nil)

// runCLI executes the root command against a temp database and returns
// stdout. The global viper is reset around each invocation.
func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	orig := secretStoreFactory
	secretStoreFactory = func() secrets.Store { return &memSecrets{} }
	t.Cleanup(func() { secretStoreFactory = orig })
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append(args, "--db", dbPath))

	err := root.Execute()
	return buf.String(), err
}

func TestInitAndListProjects(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")

	out, err := runCLI(t, db, "init", "--id", "p1", "--objective", "figure out the thing")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized project p1")

	out, err = runCLI(t, db, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "p1")
	assert.Contains(t, out, "figure out the thing")
}

func TestInitRequiresObjective(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")
	_, err := runCLI(t, db, "init", "--id", "p1")
	require.Error(t, err)
}

func TestFindingAddAndListJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")
	_, err := runCLI(t, db, "init", "--id", "p1", "--objective", "obj")
	require.NoError(t, err)

	_, err = runCLI(t, db, "finding", "add",
		"--project", "p1", "--title", "Claim A", "--confidence", "0.4", "--tags", "alpha")
	require.NoError(t, err)

	out, err := runCLI(t, db, "finding", "list", "--project", "p1", "--format", "json")
	require.NoError(t, err)

	var findings []struct {
		ID         string
		Title      string
		Confidence float64
	}
	require.NoError(t, json.Unmarshal([]byte(out), &findings))
	require.Len(t, findings, 1)
	assert.Equal(t, "Claim A", findings[0].Title)
	assert.InDelta(t, 0.4, findings[0].Confidence, 1e-9)
}

func TestMissionPlanFromCLI(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")
	_, err := runCLI(t, db, "init", "--id", "p1", "--objective", "obj")
	require.NoError(t, err)
	_, err = runCLI(t, db, "finding", "add",
		"--project", "p1", "--title", "Claim A", "--confidence", "0.4")
	require.NoError(t, err)

	out, err := runCLI(t, db, "mission", "plan", "--project", "p1", "--threshold", "0.7")
	require.NoError(t, err)
	assert.Contains(t, out, "Planned 1 mission(s)")
	assert.Contains(t, out, "prio=60")

	// Re-planning dedups.
	out, err = runCLI(t, db, "mission", "plan", "--project", "p1", "--threshold", "0.7")
	require.NoError(t, err)
	assert.Contains(t, out, "Planned 0 mission(s)")
}

func TestBranchCreateAndList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")
	_, err := runCLI(t, db, "init", "--id", "p1", "--objective", "obj")
	require.NoError(t, err)

	out, err := runCLI(t, db, "branch", "create", "--project", "p1", "--name", "alt", "--hypothesis", "other path")
	require.NoError(t, err)
	assert.Contains(t, out, "br_p1_alt")

	out, err = runCLI(t, db, "branch", "list", "--project", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "alt")
}

func TestUpdateUnknownProjectFails(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")
	_, err := runCLI(t, db, "update", "--id", "ghost", "--status", "paused")
	require.Error(t, err)
	assert.True(t, vaulterr.IsNotFound(err))
}

func TestDoctorReportsSchemaAndProviders(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")
	out, err := runCLI(t, db, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "schema v5")
	assert.Contains(t, out, "provider brave")
	assert.Contains(t, out, "missing credential")
	assert.Contains(t, out, "keyless")
}

func TestSecretSetAndClear(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")

	// Shared in-memory store across both invocations.
	shared := &memSecrets{}
	orig := secretStoreFactory
	secretStoreFactory = func() secrets.Store { return shared }
	defer func() { secretStoreFactory = orig }()

	viper.Reset()
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"secret", "set", "brave", "key123", "--db", db})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "Stored API key for brave")

	v, err := shared.Get("brave_api_key")
	require.NoError(t, err)
	assert.Equal(t, "key123", v)

	viper.Reset()
	root = NewRootCmd()
	buf.Reset()
	root.SetOut(buf)
	root.SetArgs([]string{"secret", "clear", "brave", "--db", db})
	require.NoError(t, root.Execute())

	_, err = shared.Get("brave_api_key")
	assert.True(t, vaulterr.IsNotFound(err))
	viper.Reset()
}

func TestEventsListRendersTimestamps(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")
	_, err := runCLI(t, db, "init", "--id", "p1", "--objective", "obj")
	require.NoError(t, err)
	_, err = runCLI(t, db, "finding", "add",
		"--project", "p1", "--title", "Claim A", "--confidence", "0.4")
	require.NoError(t, err)
	_, err = runCLI(t, db, "mission", "plan", "--project", "p1", "--threshold", "0.7")
	require.NoError(t, err)

	out, err := runCLI(t, db, "events", "list", "--project", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "MISSION/mission_planned")
	assert.NotContains(t, out, "[-]")

	out, err = runCLI(t, db, "events", "tail", "--project", "p1", "--since", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "mission_planned")
	assert.NotContains(t, out, "[-]")
}

func TestVersionCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")
	out, err := runCLI(t, db, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vault dev")
}

func TestMissionCommandHelp(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")
	out, err := runCLI(t, db, "mission", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "plan")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "block")
}
