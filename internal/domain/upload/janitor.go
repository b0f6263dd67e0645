package upload

import (
	"context"
	"fmt"

	"learnhub/upload-broker/internal/infrastructure/metrics"
)

// SweepReport summarizes one janitor pass.
type SweepReport struct {
	Scanned   int
	Discarded int
	NotFound  int
	Failed    int
}

// SweepStaleSessions aborts multipart sessions older than the configured
// maximum age. Sessions whose abort fails stay in the ledger for the next pass.
// The ledger is walked page by page with a keyset cursor, so entries that keep
// failing never hide newer ones behind them.
func (s *Service) SweepStaleSessions(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	cutoff := s.now().Add(-s.cfg.SessionMaxAge).UTC()
	query := StaleQuery{OlderThan: cutoff, Limit: s.cfg.JanitorBatchSize}
	for {
		records, err := s.ledger.ListStale(ctx, query)
		if err != nil {
			return report, fmt.Errorf("list stale sessions: %w", err)
		}

		for _, record := range records {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Scanned++
			outcome := s.abort(ctx, record.Key, record.UploadID, "janitor")
			metrics.RecordJanitor(string(outcome))
			switch outcome {
			case AbortDiscarded:
				report.Discarded++
			case AbortNotFound:
				report.NotFound++
			default:
				report.Failed++
			}
		}

		if len(records) == 0 || len(records) < query.Limit {
			break
		}
		last := records[len(records)-1]
		query.After = &last
	}

	if report.Scanned > 0 {
		s.log.Info().
			Int("scanned", report.Scanned).
			Int("discarded", report.Discarded).
			Int("not_found", report.NotFound).
			Int("failed", report.Failed).
			Time("cutoff", cutoff).
			Msg("stale multipart sessions swept")
	}
	return report, nil
}
