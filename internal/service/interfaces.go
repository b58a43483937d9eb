// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/appraise-tools/appraise/internal/model"
)

// AnalyticsStore defines the contract for the telemetry persistence layer.
// Writes are best-effort: implementations must not block the scoring
// pipeline on failure.
type AnalyticsStore interface {
	// RecordSessionStart inserts a new session row and returns its ID.
	RecordSessionStart(ctx context.Context, session *model.Session) (string, error)
	// RecordSessionEnd closes a session. Calling it again for the same ID
	// after the first success is a no-op.
	RecordSessionEnd(ctx context.Context, sessionID string, outcome model.Outcome, totalScore *int) error
	// AppendActivity records an append-only activity event. There is no
	// update or delete path.
	AppendActivity(ctx context.Context, entry model.ActivityLogEntry) error
	// QueryStats returns daily rollups for the inclusive date range,
	// aggregating on the fly when no rollup rows are materialized.
	QueryStats(ctx context.Context, from, to time.Time) ([]model.DailyStat, error)
	// UpdateDailyStats recomputes the rollup row for the current day.
	UpdateDailyStats(ctx context.Context) error
	// RecentActivities returns the most recent activity entries, newest first.
	RecentActivities(ctx context.Context, limit int) ([]model.ActivityLogEntry, error)
	// Summary returns the all-time usage summary.
	Summary(ctx context.Context) (*model.SummaryStats, error)
	// Close releases the underlying backend.
	Close() error
}

// TextExtractor converts raw document bytes to plain text. The core never
// parses document binary structure itself; implementations live outside
// this module.
type TextExtractor interface {
	ExtractText(ctx context.Context, raw []byte) (string, error)
}
