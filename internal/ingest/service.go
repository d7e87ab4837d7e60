// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/researchvault/vault/internal/store"
)

// Result is the structured outcome of one ingestion. Fetch and write
// failures are reported here rather than raised: dead links and rate limits
// are routine, and a batch caller must not lose sibling work over them.
type Result struct {
	Success   bool   `json:"success"`
	Dedup     bool   `json:"dedup"`
	FindingID string `json:"finding_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Source    string `json:"source,omitempty"`
	Error     string `json:"error,omitempty"`
}

// evidenceDoc is the serialized evidence blob. Marshalling the struct (not a
// map) keeps key order stable, so string equality is a sound dedup key.
type evidenceDoc struct {
	SourceURL string `json:"source_url"`
}

// EvidenceJSON returns the canonical evidence serialization for a source.
func EvidenceJSON(sourceURL string) string {
	b, _ := json.Marshal(evidenceDoc{SourceURL: sourceURL})
	return string(b)
}

// Service routes sources to connectors and records findings. Connectors are
// probed in registration order, first match wins.
type Service struct {
	branches store.BranchStore
	findings store.FindingStore
	links    store.LinkStore
	recorder store.IngestRecorder
	logger   *slog.Logger

	connectors []Connector

	// similarityThreshold gates automatic similarity links between a new
	// finding and prior findings in the branch; <= 0 disables linking.
	similarityThreshold float64
}

// NewService builds an ingest service. links may be nil to disable
// similarity linking.
func NewService(branches store.BranchStore, findings store.FindingStore, links store.LinkStore, recorder store.IngestRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		branches:            branches,
		findings:            findings,
		links:               links,
		recorder:            recorder,
		logger:              logger,
		similarityThreshold: 0.5,
	}
}

// Register appends a connector to the probe order.
func (s *Service) Register(c Connector) {
	s.connectors = append(s.connectors, c)
}

func (s *Service) connectorFor(source string) Connector {
	for _, c := range s.connectors {
		if c.CanHandle(source) {
			return c
		}
	}
	return nil
}

// Ingest records the source as a finding in the project branch, unless a
// finding with identical evidence already exists there. Branch-not-found
// propagates as an error; everything downstream of branch resolution is
// captured in the Result.
func (s *Service) Ingest(ctx context.Context, projectID, source string, extraTags []string, branch string) (*Result, error) {
	branchID, err := s.branches.Resolve(ctx, projectID, branch)
	if err != nil {
		return nil, err
	}

	scrubbed := store.ScrubString(strings.TrimSpace(source))
	evidence := EvidenceJSON(scrubbed)

	existing, err := s.findings.FindByEvidence(ctx, projectID, branchID, evidence)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Debug("ingest dedup hit", "project", projectID, "finding", existing.ID)
		return &Result{Success: true, Dedup: true, FindingID: existing.ID, Title: existing.Title}, nil
	}

	connector := s.connectorFor(source)
	if connector == nil {
		return &Result{Success: false, Error: fmt.Sprintf("no connector found for source: %s", scrubbed)}, nil
	}

	draft, err := connector.Fetch(ctx, source)
	if err != nil {
		s.logger.Debug("connector fetch failed", "connector", connector.Name(), "error", err)
		return &Result{Success: false, Error: err.Error()}, nil
	}

	tags := mergeTags(draft.Tags, extraTags)
	finding := &store.Finding{
		ProjectID:  projectID,
		BranchID:   branchID,
		Title:      draft.Title,
		Content:    draft.Content,
		Evidence:   evidence,
		Confidence: draft.Confidence,
		Tags:       strings.Join(tags, ","),
	}

	payload := draft.RawPayload
	if payload == nil {
		payload = map[string]any{"title": draft.Title}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("encoding ingest payload: %v", err)}, nil
	}
	event := &store.Event{
		ProjectID:  projectID,
		BranchID:   branchID,
		EventType:  "INGEST",
		Step:       "connector_fetch",
		Payload:    string(encoded),
		Confidence: draft.Confidence,
		Source:     draft.Source,
		Tags:       strings.Join(tags, ","),
	}

	if err := s.recorder.RecordIngest(ctx, finding, event); err != nil {
		s.logger.Debug("ingest write failed", "project", projectID, "error", err)
		return &Result{Success: false, Error: err.Error()}, nil
	}

	s.linkSimilar(ctx, finding)

	return &Result{Success: true, FindingID: finding.ID, Title: draft.Title, Source: draft.Source}, nil
}

// mergeTags unions draft and extra tags, preserving draft order.
func mergeTags(draftTags, extraTags []string) []string {
	seen := make(map[string]bool, len(draftTags)+len(extraTags))
	var out []string
	for _, t := range draftTags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range extraTags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// linkSimilar connects the new finding to prior findings in the branch
// whose tag-and-title term overlap crosses the threshold. Best-effort: a
// linking failure never fails the ingest.
func (s *Service) linkSimilar(ctx context.Context, finding *store.Finding) {
	if s.links == nil || s.similarityThreshold <= 0 {
		return
	}

	prior, err := s.findings.List(ctx, finding.ProjectID, store.FindingFilter{BranchID: finding.BranchID, Limit: 50})
	if err != nil {
		s.logger.Debug("similarity scan failed", "error", err)
		return
	}

	newTerms := findingTerms(finding)
	if len(newTerms) == 0 {
		return
	}

	for _, other := range prior {
		if other.ID == finding.ID {
			continue
		}
		score := jaccard(newTerms, findingTerms(other))
		if score < s.similarityThreshold {
			continue
		}
		meta, _ := json.Marshal(map[string]float64{"score": score})
		link := &store.Link{
			SourceID: finding.ID,
			TargetID: other.ID,
			LinkType: store.LinkTypeSimilarity,
			Metadata: string(meta),
		}
		if err := s.links.Add(ctx, link); err != nil {
			s.logger.Debug("similarity link failed", "target", other.ID, "error", err)
		}
	}
}

// findingTerms is the term set similarity is computed over: tags plus
// lowercased title words of three or more characters.
func findingTerms(f *store.Finding) map[string]bool {
	terms := make(map[string]bool)
	for _, t := range strings.Split(f.Tags, ",") {
		t = strings.TrimSpace(strings.ToLower(t))
		if t != "" {
			terms[t] = true
		}
	}
	for _, w := range strings.Fields(strings.ToLower(f.Title)) {
		w = strings.Trim(w, `.,;:!?"'()[]`)
		if len(w) >= 3 {
			terms[w] = true
		}
	}
	return terms
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if b[t] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
