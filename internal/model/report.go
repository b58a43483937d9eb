package model

import "time"

// ScoreEntry is the awarded result for a single criterion.
type ScoreEntry struct {
	CriterionID   string `json:"criterion_id"`
	AwardedPoints int    `json:"awarded_points"`
	Rationale     string `json:"rationale"`
}

// AppraisalReport is the final aggregated result of one analysis request.
// It is created once per request and immutable after creation; the caller
// owns it and the core persists only analytics metadata.
type AppraisalReport struct {
	GeneratedAt     time.Time      `json:"generated_at"`
	CategoryTotals  map[string]int `json:"category_totals"`
	ID              string         `json:"id"`
	SessionID       string         `json:"session_id"`
	RubricName      string         `json:"rubric_name"`
	Reasoning       string         `json:"reasoning,omitempty"`
	Entries         []ScoreEntry   `json:"entries"`
	Strengths       []string       `json:"strengths"`
	Weaknesses      []string       `json:"weaknesses"`
	Recommendations []string       `json:"recommendations"`
	TotalScore      int            `json:"total_score"`
	ParseConfidence float64        `json:"parse_confidence"`
	Truncated       bool           `json:"truncated"`
	UsedAI          bool           `json:"used_ai"`
	Degraded        bool           `json:"degraded"`
}
