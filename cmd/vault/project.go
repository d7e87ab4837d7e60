// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a research project",
		RunE:  runInit,
	}
	cmd.Flags().String("id", "", "project id")
	cmd.Flags().String("name", "", "human-readable project name")
	cmd.Flags().String("objective", "", "what this project is trying to establish")
	cmd.Flags().Int("priority", 0, "scheduling priority (higher first)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("objective")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString("name")
	objective, _ := cmd.Flags().GetString("objective")
	priority, _ := cmd.Flags().GetInt("priority")
	if name == "" {
		name = id
	}

	project := &store.Project{
		ID:        id,
		Name:      name,
		Objective: objective,
		Status:    store.ProjectStatusActive,
		Priority:  priority,
	}
	if err := app.Store.Projects().Create(cmd.Context(), project); err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), project)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Initialized project %s\n", id)
	return err
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects by priority",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			projects, err := app.Store.Projects().List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				return writeJSON(out, projects)
			}
			if len(projects) == 0 {
				_, err := fmt.Fprintln(out, "No projects.")
				return err
			}
			for _, p := range projects {
				if _, err := fmt.Fprintf(out, "%-20s %-10s prio=%-4d %s\n", p.ID, p.Status, p.Priority, p.Objective); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a project's status or priority",
		RunE:  runUpdate,
	}
	cmd.Flags().String("id", "", "project id")
	cmd.Flags().String("status", "", "new status (active, paused, completed, failed)")
	cmd.Flags().Int("priority", -1, "new priority")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	id, _ := cmd.Flags().GetString("id")
	status, _ := cmd.Flags().GetString("status")
	priority, _ := cmd.Flags().GetInt("priority")

	if status == "" && priority < 0 {
		return vaulterr.New(vaulterr.CodeCLIInputInvalid, "update: pass --status and/or --priority")
	}

	ctx := cmd.Context()
	if status != "" {
		if err := app.Store.Projects().UpdateStatus(ctx, id, store.ProjectStatus(status)); err != nil {
			return err
		}
	}
	if priority >= 0 {
		if err := app.Store.Projects().UpdatePriority(ctx, id, priority); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s\n", id)
	return err
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a project summary",
		RunE:  runStatus,
	}
	cmd.Flags().String("id", "", "project id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	id, _ := cmd.Flags().GetString("id")

	project, err := app.Store.Projects().Get(ctx, id)
	if err != nil {
		return err
	}
	branches, err := app.Store.Branches().List(ctx, id)
	if err != nil {
		return err
	}
	findings, err := app.Store.Findings().List(ctx, id, store.FindingFilter{})
	if err != nil {
		return err
	}
	open, err := app.Store.Missions().ListByStatus(ctx, id, "", store.MissionStatusOpen, 100)
	if err != nil {
		return err
	}
	events, err := app.Store.Events().ListRecent(ctx, id, 5, "")
	if err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"project":       project,
			"branches":      len(branches),
			"findings":      len(findings),
			"open_missions": len(open),
			"recent_events": events,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project:  %s (%s)\n", project.ID, project.Status)
	fmt.Fprintf(out, "Goal:     %s\n", project.Objective)
	fmt.Fprintf(out, "Branches: %d  Findings: %d  Open missions: %d\n", len(branches), len(findings), len(open))
	for _, e := range events {
		fmt.Fprintf(out, "  [%s] %s/%s\n", formatTime(e.Timestamp), e.EventType, e.Step)
	}
	return nil
}
