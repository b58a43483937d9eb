package analysis

import (
	"log/slog"

	"github.com/appraise-tools/appraise/internal/model"
)

// AggregateResult is the validated, summed outcome of a score sequence.
type AggregateResult struct {
	CategoryTotals map[string]int
	Entries        []model.ScoreEntry
	TotalScore     int
	// Degraded reports that clamping, duplicate discards, or missing
	// entries occurred during aggregation.
	Degraded bool
}

// AggregateScores validates score entries against the rubric and produces
// category and grand totals. Out-of-range points are clamped to
// [0, maxPoints] and flagged, never silently accepted; duplicate entries
// for a criterion keep the latest received value. It never fails.
func AggregateScores(rubric *model.Rubric, entries []model.ScoreEntry) AggregateResult {
	result := AggregateResult{
		CategoryTotals: make(map[string]int, len(rubric.Categories)),
	}

	latest := make(map[string]model.ScoreEntry, len(entries))
	for _, e := range entries {
		if _, known := rubric.CriterionByID(e.CriterionID); !known {
			slog.Warn("Discarding entry for unknown criterion", "criterion_id", e.CriterionID)
			result.Degraded = true
			continue
		}
		if _, dup := latest[e.CriterionID]; dup {
			result.Degraded = true
		}
		latest[e.CriterionID] = e
	}

	for _, cat := range rubric.Categories {
		subtotal := 0
		for _, c := range cat.Criteria {
			entry, ok := latest[c.ID]
			if !ok {
				entry = model.ScoreEntry{CriterionID: c.ID, AwardedPoints: 0, Rationale: "not scored"}
				result.Degraded = true
			}

			if entry.AwardedPoints < 0 {
				entry.AwardedPoints = 0
				result.Degraded = true
			} else if entry.AwardedPoints > c.MaxPoints {
				slog.Warn("Clamping over-range score",
					"criterion_id", c.ID,
					"awarded", entry.AwardedPoints,
					"max", c.MaxPoints)
				entry.AwardedPoints = c.MaxPoints
				result.Degraded = true
			}

			subtotal += entry.AwardedPoints
			result.Entries = append(result.Entries, entry)
		}
		result.CategoryTotals[cat.Name] = subtotal
		result.TotalScore += subtotal
	}

	return result
}
