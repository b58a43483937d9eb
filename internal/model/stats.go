package model

// SummaryStats is the all-time usage summary read by the dashboard.
type SummaryStats struct {
	TotalSessions   int     `json:"total_sessions"`
	TotalActivities int     `json:"total_activities"`
	SuccessCount    int     `json:"success_count"`
	FailureCount    int     `json:"failure_count"`
	AverageScore    float64 `json:"average_score"`
	TodaySessions   int     `json:"today_sessions"`
	TodayActivities int     `json:"today_activities"`
}
