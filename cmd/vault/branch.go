// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Manage reasoning branches",
	}
	cmd.AddCommand(newBranchCreateCmd(), newBranchListCmd())
	return cmd
}

func newBranchCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a branch (no-op if it already exists)",
		RunE:  runBranchCreate,
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("name", "", "branch name")
	cmd.Flags().String("parent", "", "parent branch name")
	cmd.Flags().String("hypothesis", "", "the idea this branch explores")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runBranchCreate(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	project, _ := cmd.Flags().GetString("project")
	name, _ := cmd.Flags().GetString("name")
	parent, _ := cmd.Flags().GetString("parent")
	hypothesis, _ := cmd.Flags().GetString("hypothesis")

	id, err := app.Store.Branches().Create(cmd.Context(), project, name, parent, hypothesis)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"branch_id": id})
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Branch %s -> %s\n", name, id)
	return err
}

func newBranchListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's branches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			project, _ := cmd.Flags().GetString("project")
			branches, err := app.Store.Branches().List(cmd.Context(), project)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				return writeJSON(out, branches)
			}
			for _, b := range branches {
				parent := b.ParentID
				if parent == "" {
					parent = "-"
				}
				if _, err := fmt.Fprintf(out, "%-30s %-10s parent=%s %s\n", b.ID, b.Status, parent, b.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().String("project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
