// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/researchvault/vault/internal/secrets"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check the database schema, table counts, and per-provider search configuration.",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	schemaVersion, err := app.Store.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	counts, err := app.Store.TableCounts(ctx)
	if err != nil {
		return err
	}

	providerStatus := map[string]string{}
	keystore := secretStoreFactory()
	for provider, configValue := range map[string]string{
		"brave":  app.Config.Search.Brave.APIKey,
		"serper": app.Config.Search.Serper.APIKey,
	} {
		key, source, err := secrets.ResolveAPIKey(keystore, provider, configValue)
		switch {
		case err != nil:
			providerStatus[provider] = "error"
		case key == "":
			providerStatus[provider] = "missing credential"
		default:
			providerStatus[provider] = "configured (" + string(source) + ")"
		}
	}
	if app.Config.Search.SearxNG.BaseURL != "" {
		providerStatus["searxng"] = "configured"
	} else {
		providerStatus["searxng"] = "no base URL"
	}
	providerStatus["duckduckgo"] = "keyless"
	providerStatus["wikipedia"] = "keyless"

	if jsonOutput() {
		return writeJSON(out, map[string]any{
			"binary":         fmt.Sprintf("vault %s (%s/%s)", version, runtime.GOOS, runtime.GOARCH),
			"db_path":        app.Store.Path(),
			"schema_version": schemaVersion,
			"table_counts":   counts,
			"providers":      providerStatus,
			"search_order":   providerOrder(app.Config),
		})
	}

	fmt.Fprintf(out, "%-20s vault %s (%s/%s, Go %s)\n", "Binary:", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	fmt.Fprintf(out, "%-20s %s (schema v%d)\n", "Database:", app.Store.Path(), schemaVersion)
	for table, n := range counts {
		fmt.Fprintf(out, "%-20s %d\n", table+":", n)
	}
	for _, p := range providerOrder(app.Config) {
		fmt.Fprintf(out, "%-20s %s\n", "provider "+p+":", providerStatus[p])
	}
	return nil
}
