// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/researchvault/vault/internal/store"
)

func newHypothesisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hypothesis",
		Short: "Manage hypotheses",
	}
	cmd.AddCommand(newHypothesisAddCmd(), newHypothesisListCmd(), newHypothesisStatusCmd())
	return cmd
}

func newHypothesisAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a hypothesis on a branch",
		RunE:  runHypothesisAdd,
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("branch", "", "branch name (defaults to main)")
	cmd.Flags().String("statement", "", "the hypothesis")
	cmd.Flags().String("rationale", "", "why it is plausible")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("statement")
	return cmd
}

func runHypothesisAdd(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	statement, _ := cmd.Flags().GetString("statement")
	rationale, _ := cmd.Flags().GetString("rationale")

	branchID, err := app.Store.Branches().Resolve(ctx, project, branch)
	if err != nil {
		return err
	}

	h := &store.Hypothesis{
		BranchID:  branchID,
		Statement: statement,
		Rationale: rationale,
	}
	if err := app.Store.Hypotheses().Add(ctx, h); err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), h)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded hypothesis %s\n", h.ID)
	return err
}

func newHypothesisListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List hypotheses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			project, _ := cmd.Flags().GetString("project")
			branch, _ := cmd.Flags().GetString("branch")

			branchID := ""
			if branch != "" {
				if branchID, err = app.Store.Branches().Resolve(ctx, project, branch); err != nil {
					return err
				}
			}

			hypotheses, err := app.Store.Hypotheses().List(ctx, project, branchID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				return writeJSON(out, hypotheses)
			}
			for _, h := range hypotheses {
				if _, err := fmt.Fprintf(out, "%-14s %-10s %s\n", h.ID, h.Status, h.Statement); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("branch", "", "restrict to one branch")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newHypothesisStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-status",
		Short: "Accept, reject, or archive a hypothesis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			id, _ := cmd.Flags().GetString("id")
			status, _ := cmd.Flags().GetString("status")
			if err := app.Store.Hypotheses().UpdateStatus(cmd.Context(), id, store.HypothesisStatus(status)); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Hypothesis %s -> %s\n", id, status)
			return err
		},
	}
	cmd.Flags().String("id", "", "hypothesis id")
	cmd.Flags().String("status", "", "new status (open, accepted, rejected, archived)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}
