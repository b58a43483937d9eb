package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appraise-tools/appraise/internal/common"
	"github.com/appraise-tools/appraise/internal/model"
	"github.com/appraise-tools/appraise/internal/service"
)

func openTestStore(t *testing.T) service.AnalyticsStore {
	t.Helper()

	store, err := Open(context.Background(), Config{
		SQLitePath: filepath.Join(t.TempDir(), "usage_data.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func startSession(t *testing.T, store service.AnalyticsStore, usedAI bool) string {
	t.Helper()

	id, err := store.RecordSessionStart(context.Background(), &model.Session{
		InputMode: model.InputModeText,
		UsedAI:    usedAI,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "usage_data.db")

	first, err := Open(ctx, Config{SQLitePath: path})
	require.NoError(t, err)
	startSession(t, first, true)
	require.NoError(t, first.Close())

	// Reopening the same file must not disturb existing data.
	second, err := Open(ctx, Config{SQLitePath: path})
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	stats, err := second.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSessions)
}

func TestRecordSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id := startSession(t, store, true)

	score := 82
	require.NoError(t, store.RecordSessionEnd(ctx, id, model.OutcomeSuccess, &score))

	// A replay with a different outcome must not overwrite the first close.
	require.NoError(t, store.RecordSessionEnd(ctx, id, model.OutcomeFailure, nil))

	stats, err := store.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 0, stats.FailureCount)
	assert.InDelta(t, 82, stats.AverageScore, 1e-9)
}

func TestRecordSessionStartDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	session := &model.Session{ID: "fixed-id", InputMode: model.InputModeText}
	_, err := store.RecordSessionStart(ctx, session)
	require.NoError(t, err)
	_, err = store.RecordSessionStart(ctx, session)
	require.NoError(t, err)

	stats, err := store.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSessions)
}

func TestAppendAndListActivities(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id := startSession(t, store, false)

	base := time.Now().Add(-time.Minute)
	for i, event := range []string{model.EventAnalysisStarted, model.EventParseCompleted, model.EventAnalysisCompleted} {
		require.NoError(t, store.AppendActivity(ctx, model.ActivityLogEntry{
			SessionID: id,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			EventType: event,
			Detail:    "d",
		}))
	}

	entries, err := store.RecentActivities(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, model.EventAnalysisCompleted, entries[0].EventType)
	assert.Equal(t, model.EventParseCompleted, entries[1].EventType)

	require.Error(t, store.AppendActivity(ctx, model.ActivityLogEntry{EventType: "x"}))
	require.Error(t, store.AppendActivity(ctx, model.ActivityLogEntry{SessionID: id}))
}

func TestQueryStatsFallsBackToSessions(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	scores := []int{80, 60}
	for _, score := range scores {
		id := startSession(t, store, true)
		s := score
		require.NoError(t, store.RecordSessionEnd(ctx, id, model.OutcomeSuccess, &s))
	}
	failed := startSession(t, store, true)
	require.NoError(t, store.RecordSessionEnd(ctx, failed, model.OutcomeFailure, nil))

	// No UpdateDailyStats call: rollups are empty, sessions are the source
	// of truth.
	now := time.Now()
	stats, err := store.QueryStats(ctx, now.AddDate(0, 0, -7), now)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].SessionCount)
	assert.Equal(t, 2, stats[0].SuccessCount)
	assert.InDelta(t, 70, stats[0].AverageScore, 1e-9)
}

func TestUpdateDailyStatsMaterializesRollup(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id := startSession(t, store, true)
	score := 75
	require.NoError(t, store.RecordSessionEnd(ctx, id, model.OutcomeSuccess, &score))

	require.NoError(t, store.UpdateDailyStats(ctx))
	// Running it again must upsert, not duplicate.
	require.NoError(t, store.UpdateDailyStats(ctx))

	now := time.Now()
	stats, err := store.QueryStats(ctx, now, now)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].SessionCount)
	assert.Equal(t, 1, stats[0].SuccessCount)
	assert.InDelta(t, 75, stats[0].AverageScore, 1e-9)
	assert.Equal(t, dateOf(now), stats[0].Date)
}

func TestStoreOperationsAreBoundedByContext(t *testing.T) {
	store := openTestStore(t)

	// An expired context must make writes and reads fail promptly instead
	// of blocking the caller; telemetry is best-effort.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.RecordSessionStart(ctx, &model.Session{InputMode: model.InputModeText})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConnection)

	err = store.AppendActivity(ctx, model.ActivityLogEntry{
		SessionID: "s1",
		EventType: model.EventAnalysisStarted,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConnection)

	_, err = store.Summary(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConnection)
}

func TestSummaryCountsToday(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id := startSession(t, store, true)
	require.NoError(t, store.AppendActivity(ctx, model.ActivityLogEntry{
		SessionID: id,
		EventType: model.EventAnalysisStarted,
	}))

	stats, err := store.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TodaySessions)
	assert.Equal(t, 1, stats.TodayActivities)
	assert.Equal(t, 1, stats.TotalActivities)
}
