package model

import "time"

// InputMode records how the document text entered the pipeline.
type InputMode string

const (
	// InputModePDF indicates text extracted from an uploaded PDF.
	InputModePDF InputMode = "pdf"
	// InputModeText indicates raw pasted text.
	InputModeText InputMode = "text"
)

// Outcome is the terminal state of a session. An empty outcome means the
// session is still open.
type Outcome string

const (
	// OutcomeSuccess indicates the request produced a report.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure indicates the request failed before a report was produced.
	OutcomeFailure Outcome = "failure"
)

// Session is one end-to-end analysis interaction, created when the request
// starts and closed exactly once when it completes or fails.
type Session struct {
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	TotalScore *int       `json:"total_score,omitempty"`
	ID         string     `json:"id"`
	InputMode  InputMode  `json:"input_mode"`
	Outcome    Outcome    `json:"outcome,omitempty"`
	UsedAI     bool       `json:"used_ai"`
}

// Activity event types recorded around the scoring pipeline.
const (
	EventAnalysisStarted   = "analysis_started"
	EventProviderCalled    = "provider_called"
	EventProviderFailed    = "provider_failed"
	EventParseCompleted    = "parse_completed"
	EventAnalysisCompleted = "analysis_completed"
	EventAnalysisFailed    = "analysis_failed"
	EventDashboardViewed   = "dashboard_viewed"
)

// ActivityLogEntry is an append-only record of a single pipeline event.
// Entries are never mutated or deleted once written.
type ActivityLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	EventType string    `json:"event_type"`
	Detail    string    `json:"detail,omitempty"`
}

// DailyStat is a materialized per-day rollup. It is derived data, always
// reconstructible from sessions and activity logs.
type DailyStat struct {
	Date         time.Time `json:"date"`
	SessionCount int       `json:"session_count"`
	SuccessCount int       `json:"success_count"`
	AverageScore float64   `json:"average_score"`
}
