// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/viper"
)

// jsonOutput reports whether --format json was requested.
func jsonOutput() bool {
	return viper.GetString("format") == "json"
}

// writeJSON pretty-prints v as JSON, the machine-readable output the portal
// shells out for.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatTime renders a timestamp for human output; zero renders as "-".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
