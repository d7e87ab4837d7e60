// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read the audit event log",
	}
	cmd.AddCommand(newEventsTailCmd(), newEventsListCmd())
	return cmd
}

func newEventsTailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Read events after a given id, oldest first",
		Long:  "The incremental-poll interface: pass the highest id you have seen as --since and receive everything newer.",
		RunE:  runEventsTail,
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().Int64("since", 0, "return events with id greater than this")
	cmd.Flags().Int("limit", 0, "maximum rows (default from config)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runEventsTail(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	project, _ := cmd.Flags().GetString("project")
	since, _ := cmd.Flags().GetInt64("since")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = app.Config.Events.TailLimit
	}

	events, err := app.Store.Events().TailAfter(cmd.Context(), project, since, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, events)
	}
	for _, e := range events {
		fmt.Fprintf(out, "%-6d [%s] %s/%s %s\n", e.ID, formatTime(e.Timestamp), e.EventType, e.Step, e.Payload)
	}
	return nil
}

func newEventsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent events, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			project, _ := cmd.Flags().GetString("project")
			tag, _ := cmd.Flags().GetString("tag")
			limit, _ := cmd.Flags().GetInt("limit")

			events, err := app.Store.Events().ListRecent(cmd.Context(), project, limit, tag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				return writeJSON(out, events)
			}
			for _, e := range events {
				fmt.Fprintf(out, "%-6d [%s] %s/%s src=%s\n", e.ID, formatTime(e.Timestamp), e.EventType, e.Step, e.Source)
			}
			return nil
		},
	}
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("tag", "", "tag substring filter")
	cmd.Flags().Int("limit", 20, "maximum rows")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
