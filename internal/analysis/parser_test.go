package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appraise-tools/appraise/internal/model"
)

func entryByID(t *testing.T, entries []model.ScoreEntry, id string) model.ScoreEntry {
	t.Helper()
	for _, e := range entries {
		if e.CriterionID == id {
			return e
		}
	}
	t.Fatalf("no entry for criterion %q", id)
	return model.ScoreEntry{}
}

func TestParseEmptyReply(t *testing.T) {
	rubric := model.DefaultRubric()
	parser := NewResponseParser(rubric)

	result := parser.Parse("")

	require.Len(t, result.Entries, len(rubric.Criteria()))
	for _, e := range result.Entries {
		assert.Zero(t, e.AwardedPoints)
		assert.Equal(t, "not found", e.Rationale)
	}
	assert.Zero(t, result.Confidence)
}

func TestParseStructuredJSON(t *testing.T) {
	rubric := model.DefaultRubric()
	parser := NewResponseParser(rubric)

	reply := "Here is the analysis:\n```json\n" + `{
		"total_score": 78,
		"reasoning": "Solid plan with minor gaps.",
		"detailed_scores": [
			{"item": "SDG Linkage", "score": 8, "max_score": 10, "reason": "Clear goal mapping"},
			{"item": "Recipient Country Policy Fit", "score": 4, "max_score": 5, "reason": "Mostly aligned"},
			{"item": "Risk Management", "score": 6, "max_score": 10, "reason": "No mitigation plan"}
		],
		"strengths": ["Strong ownership"],
		"weaknesses": ["Thin risk register"],
		"recommendations": ["Add a mitigation matrix"]
	}` + "\n```\nLet me know if you need more."

	result := parser.Parse(reply)

	require.Len(t, result.Entries, len(rubric.Criteria()))
	assert.Equal(t, 8, entryByID(t, result.Entries, "sdg_linkage").AwardedPoints)
	assert.Equal(t, "Clear goal mapping", entryByID(t, result.Entries, "sdg_linkage").Rationale)
	assert.Equal(t, 4, entryByID(t, result.Entries, "recipient_policy").AwardedPoints)
	assert.Equal(t, 6, entryByID(t, result.Entries, "risk_management").AwardedPoints)

	// Criteria absent from the reply still appear, at zero.
	assert.Equal(t, 0, entryByID(t, result.Entries, "domestic_system").AwardedPoints)
	assert.Equal(t, "not found", entryByID(t, result.Entries, "domestic_system").Rationale)

	assert.Equal(t, "Solid plan with minor gaps.", result.Reasoning)
	assert.Equal(t, []string{"Strong ownership"}, result.Strengths)
	assert.Equal(t, []string{"Thin risk register"}, result.Weaknesses)
	assert.Equal(t, []string{"Add a mitigation matrix"}, result.Recommendations)
	assert.InDelta(t, 0.3, result.Confidence, 1e-9)
}

func TestParseFreeTextFallback(t *testing.T) {
	rubric := model.DefaultRubric()
	parser := NewResponseParser(rubric)

	var sb strings.Builder
	for _, c := range rubric.Criteria() {
		fmt.Fprintf(&sb, "- **%s**: %d/%d solid evidence in section 3\n", c.Label, c.MaxPoints-1, c.MaxPoints)
	}
	result := parser.Parse(sb.String())

	require.Len(t, result.Entries, len(rubric.Criteria()))
	total := 0
	for _, c := range rubric.Criteria() {
		e := entryByID(t, result.Entries, c.ID)
		assert.Equal(t, c.MaxPoints-1, e.AwardedPoints, c.ID)
		total += e.AwardedPoints
	}
	assert.Equal(t, 90, total)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}

func TestParseSkipsMaxPointsParenthetical(t *testing.T) {
	rubric := model.DefaultRubric()
	parser := NewResponseParser(rubric)

	result := parser.Parse("SDG Linkage (10 points): 7, good coverage of goals")

	e := entryByID(t, result.Entries, "sdg_linkage")
	assert.Equal(t, 7, e.AwardedPoints)
}

func TestParseInvalidScores(t *testing.T) {
	rubric := model.DefaultRubric()
	parser := NewResponseParser(rubric)

	result := parser.Parse("Risk Management: -3 penalties applied")

	e := entryByID(t, result.Entries, "risk_management")
	assert.Equal(t, 0, e.AwardedPoints)
	assert.Equal(t, "invalid score", e.Rationale)
	// An invalid score is located but does not count toward confidence.
	assert.InDelta(t, 0.0, result.Confidence, 1e-9)
}

func TestParseDuplicateLabelKeepsLatest(t *testing.T) {
	rubric := model.DefaultRubric()
	parser := NewResponseParser(rubric)

	result := parser.Parse("SDG Linkage: 5/10 first pass\nSDG Linkage: 9/10 revised\n")

	e := entryByID(t, result.Entries, "sdg_linkage")
	assert.Equal(t, 9, e.AwardedPoints)
}

func TestParseFreeTextSections(t *testing.T) {
	rubric := model.DefaultRubric()
	parser := NewResponseParser(rubric)

	reply := `Overall a reasonable proposal.

Strengths:
- Clear SDG mapping
- Experienced implementing agency

Weaknesses:
1. No exit strategy

Recommendations:
* Define performance indicators
`
	result := parser.Parse(reply)

	assert.Equal(t, []string{"Clear SDG mapping", "Experienced implementing agency"}, result.Strengths)
	assert.Equal(t, []string{"No exit strategy"}, result.Weaknesses)
	assert.Equal(t, []string{"Define performance indicators"}, result.Recommendations)
}

func TestParseUniformRubricAllEights(t *testing.T) {
	rubric := &model.Rubric{
		Name: "uniform",
		Categories: []model.RubricCategory{
			{Name: "First Half", Weight: 50},
			{Name: "Second Half", Weight: 50},
		},
	}
	for i := 0; i < 10; i++ {
		c := model.Criterion{
			ID:        fmt.Sprintf("crit_%d", i),
			Label:     fmt.Sprintf("Criterion Number %d", i),
			MaxPoints: 10,
		}
		rubric.Categories[i/5].Criteria = append(rubric.Categories[i/5].Criteria, c)
	}
	require.NoError(t, rubric.Validate())

	var sb strings.Builder
	for _, c := range rubric.Criteria() {
		fmt.Fprintf(&sb, "%s: 8/10\n", c.Label)
	}

	parser := NewResponseParser(rubric)
	result := parser.Parse(sb.String())

	require.Len(t, result.Entries, 10)
	for _, e := range result.Entries {
		assert.Equal(t, 8, e.AwardedPoints, e.CriterionID)
	}

	agg := AggregateScores(rubric, result.Entries)
	assert.Equal(t, 80, agg.TotalScore)
}

func TestParseSurvivesWidthChangingRunes(t *testing.T) {
	rubric := model.DefaultRubric()
	parser := NewResponseParser(rubric)

	// Ⱥ grows from 2 to 3 bytes when lowercased, so byte offsets computed
	// on a lowercased copy of the line would not line up with the original.
	result := parser.Parse(strings.Repeat("Ⱥ", 8) + " SDG Linkage: 8")

	e := entryByID(t, result.Entries, "sdg_linkage")
	assert.Equal(t, 8, e.AwardedPoints)
}

func TestParseMatchesLabelsCaseInsensitively(t *testing.T) {
	rubric := model.DefaultRubric()
	parser := NewResponseParser(rubric)

	result := parser.Parse("sdg LINKAGE: 6/10 partial goal coverage")

	e := entryByID(t, result.Entries, "sdg_linkage")
	assert.Equal(t, 6, e.AwardedPoints)
}

func TestParseRoundsFractionalScores(t *testing.T) {
	rubric := model.DefaultRubric()
	parser := NewResponseParser(rubric)

	result := parser.Parse("Domestic Implementation System: 12.6/15 adequate staffing")

	e := entryByID(t, result.Entries, "domestic_system")
	assert.Equal(t, 13, e.AwardedPoints)
}
