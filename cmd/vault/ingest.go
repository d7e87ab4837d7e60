// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <source>",
		Short: "Fetch a source and record it as a finding",
		Long:  "Routes the source to the first connector that can handle it, deduplicates on the evidence URL, and records the finding with its audit event in one transaction.",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("branch", "", "branch name (defaults to main)")
	cmd.Flags().StringSlice("tags", nil, "extra tags for the finding")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	tags, _ := cmd.Flags().GetStringSlice("tags")

	res, err := app.Ingest.Ingest(cmd.Context(), project, args[0], tags, branch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, res)
	}
	switch {
	case res.Dedup:
		_, err = fmt.Fprintf(out, "Already ingested as %s\n", res.FindingID)
	case res.Success:
		_, err = fmt.Fprintf(out, "Ingested %q -> %s\n", res.Title, res.FindingID)
	default:
		_, err = fmt.Fprintf(out, "Ingest failed: %s\n", res.Error)
	}
	return err
}
