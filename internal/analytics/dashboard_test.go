package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appraise-tools/appraise/internal/model"
)

func TestDashboardSummarySuccessRate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, outcome := range []model.Outcome{model.OutcomeSuccess, model.OutcomeSuccess, model.OutcomeFailure} {
		id, err := store.RecordSessionStart(ctx, &model.Session{InputMode: model.InputModeText})
		require.NoError(t, err)
		var score *int
		if outcome == model.OutcomeSuccess {
			s := 50
			score = &s
		}
		require.NoError(t, store.RecordSessionEnd(ctx, id, outcome, score))
	}

	// An open session counts toward totals but not the rate.
	_, err := store.RecordSessionStart(ctx, &model.Session{InputMode: model.InputModePDF})
	require.NoError(t, err)

	summary, err := NewDashboard(store).Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalSessions)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	assert.InDelta(t, 200.0/3.0, summary.SuccessRate, 1e-9)
	assert.InDelta(t, 50, summary.AverageScore, 1e-9)
}

func TestDashboardSummaryEmptyStore(t *testing.T) {
	summary, err := NewDashboard(NewMemoryStore()).Summary(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.TotalSessions)
	assert.Zero(t, summary.SuccessRate)
}

func TestDashboardDailyTrendDefaultsRange(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.RecordSessionStart(ctx, &model.Session{InputMode: model.InputModeText})
	require.NoError(t, err)
	score := 40
	require.NoError(t, store.RecordSessionEnd(ctx, id, model.OutcomeSuccess, &score))

	trend, err := NewDashboard(store).DailyTrend(ctx, 0)
	require.NoError(t, err)
	require.Len(t, trend, 1)
	assert.Equal(t, 1, trend[0].SessionCount)
}

func TestDashboardRecentActivities(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.AppendActivity(ctx, model.ActivityLogEntry{
		SessionID: "s1",
		EventType: model.EventDashboardViewed,
	}))

	entries, err := NewDashboard(store).RecentActivities(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.EventDashboardViewed, entries[0].EventType)
}
