// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

// Package watch re-runs registered watch targets on their minimum interval:
// query targets through the search gateway, url targets through the
// ingestion pipeline.
package watch

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/researchvault/vault/internal/ingest"
	"github.com/researchvault/vault/internal/search"
	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

const defaultRunLimit = 20

// Searcher is the slice of the search gateway the runner needs.
type Searcher interface {
	Search(ctx context.Context, query, provider string, ttl time.Duration) (*search.Outcome, error)
}

// Ingestor is the slice of the ingest service the runner needs.
type Ingestor interface {
	Ingest(ctx context.Context, projectID, source string, extraTags []string, branch string) (*ingest.Result, error)
}

// Report is the outcome of one watch target run.
type Report struct {
	TargetID string `json:"target_id"`
	Type     string `json:"type"`
	Target   string `json:"target"`
	Success  bool   `json:"success"`
	Detail   string `json:"detail,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Runner executes due watch targets. Per-target failures are stamped on the
// target and reported, never raised.
type Runner struct {
	watches  store.WatchStore
	branches store.BranchStore
	events   store.EventStore
	gateway  Searcher
	ingestor Ingestor
	logger   *slog.Logger
}

// NewRunner builds a watch runner.
func NewRunner(watches store.WatchStore, branches store.BranchStore, events store.EventStore, gateway Searcher, ingestor Ingestor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		watches:  watches,
		branches: branches,
		events:   events,
		gateway:  gateway,
		ingestor: ingestor,
		logger:   logger,
	}
}

// RunDue executes every active target whose interval has elapsed as of now,
// up to limit. Reports mirror selection order.
func (r *Runner) RunDue(ctx context.Context, now time.Time, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	due, err := r.watches.ListDue(ctx, now, limit)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(due))
	for _, target := range due {
		report := r.runOne(ctx, target)
		runErr := ""
		if !report.Success {
			runErr = report.Error
		}
		if err := r.watches.MarkRun(ctx, target.ID, now, runErr); err != nil {
			r.logger.Warn("stamping watch run", "target", target.ID, "error", err)
		}
		r.appendEvent(ctx, target, report)
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *Runner) runOne(ctx context.Context, target *store.WatchTarget) Report {
	report := Report{TargetID: target.ID, Type: string(target.Type), Target: target.Target}

	switch target.Type {
	case store.WatchTypeQuery:
		outcome, err := r.gateway.Search(ctx, target.Target, search.ProviderAuto, 0)
		if err != nil {
			report.Error = err.Error()
			return report
		}
		report.Success = true
		report.Detail = outcome.Provider + "/" + string(outcome.Origin)

	case store.WatchTypeURL:
		branch, err := r.branches.Get(ctx, target.BranchID)
		if err != nil {
			report.Error = err.Error()
			return report
		}
		res, err := r.ingestor.Ingest(ctx, target.ProjectID, target.Target, splitTags(target.Tags), branch.Name)
		if err != nil {
			report.Error = err.Error()
			return report
		}
		if !res.Success {
			report.Error = res.Error
			return report
		}
		report.Success = true
		report.Detail = res.FindingID
		if res.Dedup {
			report.Detail = "dedup:" + res.FindingID
		}

	default:
		report.Error = vaulterr.Errorf(vaulterr.CodeStoreInvalidInput, "watch: unknown target type %q", target.Type).Error()
	}
	return report
}

func (r *Runner) appendEvent(ctx context.Context, target *store.WatchTarget, report Report) {
	if r.events == nil {
		return
	}
	payload, _ := json.Marshal(report)
	err := r.events.Append(ctx, &store.Event{
		ProjectID: target.ProjectID,
		BranchID:  target.BranchID,
		EventType: "WATCH",
		Step:      "target_run",
		Payload:   string(payload),
		Source:    "watch_runner",
		Tags:      target.Tags,
	})
	if err != nil {
		r.logger.Warn("appending watch event", "target", target.ID, "error", err)
	}
}

func splitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
