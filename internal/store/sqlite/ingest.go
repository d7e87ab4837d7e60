// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package sqlite

import (
	"context"

	"github.com/researchvault/vault/internal/store"
	vaulterr "github.com/researchvault/vault/pkg/errors"
)

// Compile-time interface check.
var _ store.IngestRecorder = (*Store)(nil)

// RecordIngest writes a finding and its ingest event in one transaction so
// observers tailing the event log never see one without the other.
func (s *Store) RecordIngest(ctx context.Context, finding *store.Finding, event *store.Event) error {
	if err := prepareFinding(finding); err != nil {
		return err
	}
	if err := prepareEvent(event); err != nil {
		return err
	}

	return withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "beginning ingest transaction")
		}
		defer tx.Rollback()

		if err := insertFinding(ctx, tx, finding); err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrapf(err, vaulterr.CodeStoreDatabaseFailure, "inserting finding %s", finding.ID)
		}
		if err := insertEvent(ctx, tx, event); err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "appending ingest event")
		}
		if err := tx.Commit(); err != nil {
			if isBusy(err) {
				return err
			}
			return vaulterr.Wrap(err, vaulterr.CodeStoreDatabaseFailure, "committing ingest")
		}
		return nil
	})
}
