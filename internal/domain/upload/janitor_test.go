package upload

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepStaleSessions(t *testing.T) {
	f := newFixture()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	var gotCutoff time.Time
	var gotLimit int
	f.ledger.ListStaleFunc = func(_ context.Context, query StaleQuery) ([]SessionRecord, error) {
		gotCutoff, gotLimit = query.OlderThan, query.Limit
		return []SessionRecord{
			{UploadID: "ok", Key: validCourseKey},
			{UploadID: "gone", Key: validCourseKey},
			{UploadID: "down", Key: validCourseKey},
		}, nil
	}
	f.storage.AbortFunc = func(_ context.Context, _ string, uploadID string) error {
		switch uploadID {
		case "gone":
			return ErrSessionNotFound
		case "down":
			return ErrBackendUnavailable
		}
		return nil
	}

	report, err := f.svc.SweepStaleSessions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepReport{Scanned: 3, Discarded: 1, NotFound: 1, Failed: 1}, report)
	assert.Equal(t, now.Add(-24*time.Hour), gotCutoff)
	assert.Equal(t, 100, gotLimit)
	assert.ElementsMatch(t, []string{"ok", "gone"}, f.ledger.forgotten)
}

func TestSweepStaleSessionsLedgerError(t *testing.T) {
	f := newFixture()
	f.ledger.ListStaleFunc = func(context.Context, StaleQuery) ([]SessionRecord, error) {
		return nil, errors.New("connection reset")
	}

	_, err := f.svc.SweepStaleSessions(context.Background())

	assert.Error(t, err)
	assert.Empty(t, f.storage.Calls())
}

func TestSweepPagesPastEntriesThatKeepFailing(t *testing.T) {
	f := newFixture()
	f.svc.cfg.JanitorBatchSize = 2
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	oldest := now.Add(-72 * time.Hour)
	f.ledger.records["poison-1"] = SessionRecord{UploadID: "poison-1", Key: validCourseKey, CreatedAt: oldest}
	f.ledger.records["poison-2"] = SessionRecord{UploadID: "poison-2", Key: validCourseKey, CreatedAt: oldest.Add(time.Minute)}
	f.ledger.records["orphan"] = SessionRecord{UploadID: "orphan", Key: validCourseKey, CreatedAt: oldest.Add(time.Hour)}
	f.ledger.records["fresh"] = SessionRecord{UploadID: "fresh", Key: validCourseKey, CreatedAt: now.Add(-time.Hour)}

	var aborted []string
	f.storage.AbortFunc = func(_ context.Context, _ string, uploadID string) error {
		aborted = append(aborted, uploadID)
		if uploadID == "orphan" {
			return nil
		}
		return fmt.Errorf("%w: AccessDenied", ErrBackendRejected)
	}

	report, err := f.svc.SweepStaleSessions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepReport{Scanned: 3, Discarded: 1, Failed: 2}, report)
	assert.Equal(t, []string{"poison-1", "poison-2", "orphan"}, aborted)
	assert.Equal(t, []string{"orphan"}, f.ledger.forgotten)
	assert.Contains(t, f.ledger.records, "poison-1")
	assert.Contains(t, f.ledger.records, "poison-2")
	assert.Contains(t, f.ledger.records, "fresh")
	assert.Equal(t, 2, f.ledger.pages)

	aborted = nil
	report, err = f.svc.SweepStaleSessions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepReport{Scanned: 2, Failed: 2}, report)
	assert.Equal(t, []string{"poison-1", "poison-2"}, aborted)
}

func TestSweepStopsOnFullPageWhenLedgerIsDrained(t *testing.T) {
	f := newFixture()
	f.svc.cfg.JanitorBatchSize = 2
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }
	for _, id := range []string{"a", "b"} {
		f.ledger.records[id] = SessionRecord{UploadID: id, Key: validCourseKey, CreatedAt: now.Add(-48 * time.Hour)}
	}

	report, err := f.svc.SweepStaleSessions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepReport{Scanned: 2, Discarded: 2}, report)
	assert.Equal(t, 2, f.ledger.pages)
	assert.Empty(t, f.ledger.records)
}
