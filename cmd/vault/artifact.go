// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/researchvault/vault/internal/store"
)

func newArtifactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Track files produced during research",
	}
	cmd.AddCommand(newArtifactAddCmd(), newArtifactListCmd(), newArtifactLinkCmd())
	return cmd
}

func newArtifactAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register an artifact file",
		Long:  "The path must resolve under one of the configured artifact roots; anything else is rejected.",
		Args:  cobra.ExactArgs(1),
		RunE:  runArtifactAdd,
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("branch", "", "branch name (defaults to main)")
	cmd.Flags().String("type", "file", "artifact type label")
	cmd.Flags().String("metadata", "", "metadata JSON")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runArtifactAdd(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	typ, _ := cmd.Flags().GetString("type")
	metadata, _ := cmd.Flags().GetString("metadata")

	branchID, err := app.Store.Branches().Resolve(ctx, project, branch)
	if err != nil {
		return err
	}

	artifact := &store.Artifact{
		ProjectID: project,
		BranchID:  branchID,
		Type:      typ,
		Path:      args[0],
		Metadata:  metadata,
	}
	if err := app.Store.Artifacts().Add(ctx, artifact); err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), artifact)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Registered artifact %s\n", artifact.ID)
	return err
}

func newArtifactListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List artifacts",
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

			artifacts, err := app.Store.Artifacts().List(ctx, project, branchID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				return writeJSON(out, artifacts)
			}
			for _, a := range artifacts {
				fmt.Fprintf(out, "%-14s %-8s %s\n", a.ID, a.Type, a.Path)
			}
			return nil
		},
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("branch", "", "restrict to one branch")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newArtifactLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <source-id> <target-id>",
		Short: "Link two entities (findings or artifacts)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			metadata, _ := cmd.Flags().GetString("metadata")
			link := &store.Link{
				SourceID: args[0],
				TargetID: args[1],
				LinkType: store.LinkTypeManual,
				Metadata: metadata,
			}
			if err := app.Store.Links().Add(cmd.Context(), link); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Linked %s -> %s\n", args[0], args[1])
			return err
		},
	}
	cmd.Flags().String("metadata", "", "metadata JSON")
	return cmd
}
