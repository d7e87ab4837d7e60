// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/researchvault/vault/internal/search"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search through the cached provider gateway",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}
	cmd.Flags().String("provider", search.ProviderAuto, "provider name or auto")
	cmd.Flags().Int("ttl-hours", 0, "cache TTL override in hours")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	provider, _ := cmd.Flags().GetString("provider")
	ttlHours, _ := cmd.Flags().GetInt("ttl-hours")

	query := args[0]
	for _, a := range args[1:] {
		query += " " + a
	}

	outcome, err := app.Gateway.Search(cmd.Context(), query, provider, time.Duration(ttlHours)*time.Hour)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, map[string]any{
			"provider": outcome.Provider,
			"origin":   outcome.Origin,
			"results":  outcome.Results,
		})
	}

	fmt.Fprintf(out, "%d results via %s (%s)\n", len(outcome.Results), outcome.Provider, outcome.Origin)
	for _, r := range outcome.Results {
		fmt.Fprintf(out, "  %s\n    %s\n", r.Title, r.URL)
		if r.Description != "" {
			fmt.Fprintf(out, "    %s\n", r.Description)
		}
	}
	return nil
}
