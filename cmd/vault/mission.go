// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/researchvault/vault/internal/store"
)

func newMissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mission",
		Short: "Plan and run verification missions",
	}
	cmd.AddCommand(
		newMissionPlanCmd(),
		newMissionRunCmd(),
		newMissionListCmd(),
		newMissionTransitionCmd("complete", "Mark a mission complete", "completed", func(app *App, cmd *cobra.Command, id string) error {
			return app.Store.Missions().Complete(cmd.Context(), id)
		}),
		newMissionTransitionCmd("cancel", "Cancel a mission", "cancelled", func(app *App, cmd *cobra.Command, id string) error {
			return app.Store.Missions().Cancel(cmd.Context(), id)
		}),
		newMissionBlockCmd(),
	)
	return cmd
}

func newMissionPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Schedule missions for low-confidence findings",
		RunE:  runMissionPlan,
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("branch", "", "branch name (defaults to main)")
	cmd.Flags().Float64("threshold", 0.7, "confidence threshold")
	cmd.Flags().Int("max", 10, "maximum missions to create")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runMissionPlan(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	max, _ := cmd.Flags().GetInt("max")

	planned, err := app.Missions.Plan(cmd.Context(), project, branch, threshold, max)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, planned)
	}
	fmt.Fprintf(out, "Planned %d mission(s)\n", len(planned))
	for _, m := range planned {
		fmt.Fprintf(out, "  %-14s prio=%-4d %s\n", m.ID, m.Priority, m.Query)
	}
	return nil
}

func newMissionRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute open missions through the search gateway",
		RunE:  runMissionRun,
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("branch", "", "branch name (defaults to main)")
	cmd.Flags().String("status", string(store.MissionStatusOpen), "status to select")
	cmd.Flags().Int("limit", 10, "maximum missions to run")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runMissionRun(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	outcomes, err := app.Missions.Run(cmd.Context(), project, branch, store.MissionStatus(status), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, outcomes)
	}
	for _, o := range outcomes {
		if o.Error != "" {
			fmt.Fprintf(out, "%-14s %-12s %s (%s)\n", o.MissionID, o.Status, o.Query, o.Error)
			continue
		}
		fmt.Fprintf(out, "%-14s %-12s %s via %s/%s\n", o.MissionID, o.Status, o.Query, o.Provider, o.Origin)
	}
	return nil
}

func newMissionListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List missions by status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			project, _ := cmd.Flags().GetString("project")
			branch, _ := cmd.Flags().GetString("branch")
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			branchID := ""
			if branch != "" {
				if branchID, err = app.Store.Branches().Resolve(ctx, project, branch); err != nil {
					return err
				}
			}

			missions, err := app.Store.Missions().ListByStatus(ctx, project, branchID, store.MissionStatus(status), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				return writeJSON(out, missions)
			}
			for _, m := range missions {
				fmt.Fprintf(out, "%-14s %-12s prio=%-4d %s\n", m.ID, m.Status, m.Priority, m.Query)
			}
			return nil
		},
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("branch", "", "restrict to one branch")
	cmd.Flags().String("status", string(store.MissionStatusOpen), "status to list")
	cmd.Flags().Int("limit", 20, "maximum rows")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newMissionTransitionCmd(use, short, done string, fn func(*App, *cobra.Command, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <mission-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := fn(app, cmd, args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Mission %s %s\n", args[0], done)
			return err
		},
	}
}

func newMissionBlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block <mission-id>",
		Short: "Block a mission pending operator attention",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			reason, _ := cmd.Flags().GetString("reason")
			if err := app.Store.Missions().Block(cmd.Context(), args[0], reason); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Mission %s blocked\n", args[0])
			return err
		},
	}
	cmd.Flags().String("reason", "", "why the mission cannot proceed")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
