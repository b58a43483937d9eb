package analytics

import (
	"context"
	"time"

	"github.com/appraise-tools/appraise/internal/model"
	"github.com/appraise-tools/appraise/internal/service"
)

// Dashboard provides the read-side queries behind the admin view. It never
// mutates stored data and tolerates partially populated rows: sessions
// without a final score count toward totals but not averages.
type Dashboard struct {
	store service.AnalyticsStore
}

// NewDashboard creates a dashboard aggregator over a store.
func NewDashboard(store service.AnalyticsStore) *Dashboard {
	return &Dashboard{store: store}
}

// Summary extends the stored summary with the derived success rate.
type Summary struct {
	model.SummaryStats
	// SuccessRate is the percentage of completed analyses that succeeded,
	// 0 when nothing has completed yet.
	SuccessRate float64
}

// Summary returns usage totals and the derived success rate.
func (d *Dashboard) Summary(ctx context.Context) (*Summary, error) {
	stats, err := d.store.Summary(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{SummaryStats: *stats}
	completed := stats.SuccessCount + stats.FailureCount
	if completed > 0 {
		summary.SuccessRate = float64(stats.SuccessCount) / float64(completed) * 100
	}
	return summary, nil
}

// DailyTrend returns per-day usage for the trailing number of days,
// including today.
func (d *Dashboard) DailyTrend(ctx context.Context, days int) ([]model.DailyStat, error) {
	if days <= 0 {
		days = 30
	}
	to := time.Now()
	from := to.AddDate(0, 0, -(days - 1))
	return d.store.QueryStats(ctx, from, to)
}

// RecentActivities returns the newest anonymous activity entries.
func (d *Dashboard) RecentActivities(ctx context.Context, limit int) ([]model.ActivityLogEntry, error) {
	return d.store.RecentActivities(ctx, limit)
}
