package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appraise-tools/appraise/internal/model"
)

func TestFormatReportText(t *testing.T) {
	rubric := model.DefaultRubric()
	agg := AggregateScores(rubric, fullEntries(rubric, func(c model.Criterion) int {
		return c.MaxPoints - 1
	}))

	report := &model.AppraisalReport{
		RubricName:      rubric.Name,
		GeneratedAt:     time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Entries:         agg.Entries,
		CategoryTotals:  agg.CategoryTotals,
		TotalScore:      agg.TotalScore,
		Strengths:       []string{"Clear objectives"},
		Weaknesses:      []string{"Weak budget detail"},
		Recommendations: []string{"Add a procurement plan"},
		ParseConfidence: 1,
	}

	text := FormatReportText(rubric, report)

	assert.Contains(t, text, "Project Appraisal Analysis Result (unofficial)")
	assert.Contains(t, text, "Generated: 2026-03-14 10:30:00")
	assert.Contains(t, text, "[1] Policy Alignment (25/30)")
	assert.Contains(t, text, "[2] Implementation Readiness (65/70)")
	assert.Contains(t, text, "SDG Linkage: 9/10")
	assert.Contains(t, text, "✓ Clear objectives")
	assert.Contains(t, text, "✗ Weak budget detail")
	assert.Contains(t, text, "→ Add a procurement plan")
	assert.NotContains(t, text, "degraded")
	assert.NotContains(t, text, "truncated")

	// The total line terminates the report.
	require.True(t, strings.HasSuffix(text, "Total: 90/100\n"))
}

func TestFormatReportTextDegradedNotes(t *testing.T) {
	rubric := model.DefaultRubric()
	agg := AggregateScores(rubric, nil)

	report := &model.AppraisalReport{
		RubricName:      rubric.Name,
		GeneratedAt:     time.Now(),
		Entries:         agg.Entries,
		CategoryTotals:  agg.CategoryTotals,
		TotalScore:      agg.TotalScore,
		Degraded:        true,
		Truncated:       true,
		ParseConfidence: 0.5,
	}

	text := FormatReportText(rubric, report)

	assert.Contains(t, text, "degraded result (parse confidence 50%)")
	assert.Contains(t, text, "document was truncated before analysis")
	assert.Contains(t, text, "(none identified)")
	assert.True(t, strings.HasSuffix(text, "Total: 0/100\n"))
}
