// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/researchvault/vault/internal/store"
)

func newFindingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finding",
		Short: "Record and query findings",
	}
	cmd.AddCommand(newFindingAddCmd(), newFindingListCmd())
	return cmd
}

func newFindingAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a finding",
		RunE:  runFindingAdd,
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("branch", "", "branch name (defaults to main)")
	cmd.Flags().String("title", "", "the claim")
	cmd.Flags().String("content", "", "supporting detail")
	cmd.Flags().String("evidence", "", "evidence JSON")
	cmd.Flags().Float64("confidence", 0.5, "confidence in [0,1]")
	cmd.Flags().StringSlice("tags", nil, "comma-separated tags")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func runFindingAdd(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	title, _ := cmd.Flags().GetString("title")
	content, _ := cmd.Flags().GetString("content")
	evidence, _ := cmd.Flags().GetString("evidence")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	tags, _ := cmd.Flags().GetStringSlice("tags")

	branchID, err := app.Store.Branches().Resolve(ctx, project, branch)
	if err != nil {
		return err
	}

	finding := &store.Finding{
		ProjectID:  project,
		BranchID:   branchID,
		Title:      title,
		Content:    content,
		Evidence:   evidence,
		Confidence: confidence,
		Tags:       strings.Join(tags, ","),
	}
	if err := app.Store.Findings().Add(ctx, finding); err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), finding)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded finding %s\n", finding.ID)
	return err
}

func newFindingListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List findings, newest first",
		RunE:  runFindingList,
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("branch", "", "restrict to one branch")
	cmd.Flags().String("tag", "", "tag substring filter")
	cmd.Flags().Int("limit", 20, "maximum rows")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runFindingList(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	tag, _ := cmd.Flags().GetString("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := store.FindingFilter{TagFilter: tag, Limit: limit}
	if branch != "" {
		branchID, err := app.Store.Branches().Resolve(ctx, project, branch)
		if err != nil {
			return err
		}
		filter.BranchID = branchID
	}

	findings, err := app.Store.Findings().List(ctx, project, filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, findings)
	}
	for _, f := range findings {
		if _, err := fmt.Fprintf(out, "%-14s conf=%.2f [%s] %s\n", f.ID, f.Confidence, f.Tags, f.Title); err != nil {
			return err
		}
	}
	return nil
}
