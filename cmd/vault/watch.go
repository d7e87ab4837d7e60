// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/researchvault/vault/internal/store"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage and run watch targets",
	}
	cmd.AddCommand(newWatchAddCmd(), newWatchListCmd(), newWatchDisableCmd(), newWatchRunCmd())
	return cmd
}

func newWatchAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <target>",
		Short: "Register a url or query watch target",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatchAdd,
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("branch", "", "branch name (defaults to main)")
	cmd.Flags().String("type", "url", "target type (url or query)")
	cmd.Flags().StringSlice("tags", nil, "tags applied to ingested findings")
	cmd.Flags().Int("interval", 3600, "minimum seconds between runs")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runWatchAdd(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	project, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	typ, _ := cmd.Flags().GetString("type")
	tags, _ := cmd.Flags().GetStringSlice("tags")
	interval, _ := cmd.Flags().GetInt("interval")

	branchID, err := app.Store.Branches().Resolve(ctx, project, branch)
	if err != nil {
		return err
	}

	target := &store.WatchTarget{
		ProjectID: project,
		BranchID:  branchID,
		Type:      store.WatchType(typ),
		Target:    args[0],
		Tags:      strings.Join(tags, ","),
		IntervalS: interval,
	}
	if err := app.Store.WatchTargets().Add(ctx, target); err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), target)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Watching %s every %ds (%s)\n", args[0], interval, target.ID)
	return err
}

func newWatchListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's watch targets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			project, _ := cmd.Flags().GetString("project")
			targets, err := app.Store.WatchTargets().List(cmd.Context(), project)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				return writeJSON(out, targets)
			}
			for _, wt := range targets {
				fmt.Fprintf(out, "%-14s %-8s %-9s every %-6ds last=%s %s\n",
					wt.ID, wt.Status, wt.Type, wt.IntervalS, formatTime(wt.LastRunAt), wt.Target)
			}
			return nil
		},
	}
	cmd.Flags().String("project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newWatchDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <target-id>",
		Short: "Disable a watch target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Store.WatchTargets().Disable(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Disabled %s\n", args[0])
			return err
		},
	}
}

func newWatchRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every watch target whose interval has elapsed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				limit = app.Config.Watch.BatchLimit
			}

			reports, err := app.Watch.RunDue(cmd.Context(), time.Now(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				return writeJSON(out, reports)
			}
			fmt.Fprintf(out, "Ran %d target(s)\n", len(reports))
			for _, r := range reports {
				if r.Success {
					fmt.Fprintf(out, "  ok   %-8s %s (%s)\n", r.Type, r.Target, r.Detail)
					continue
				}
				fmt.Fprintf(out, "  fail %-8s %s (%s)\n", r.Type, r.Target, r.Error)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 0, "maximum targets per run (default from config)")
	return cmd
}
