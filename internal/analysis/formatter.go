package analysis

import (
	"fmt"
	"strings"

	"github.com/appraise-tools/appraise/internal/model"
)

const ruleHeavy = "================================================================================"
const ruleLight = "--------------------------------------------------------------------------------"

// FormatReportText renders an appraisal report as plain text suitable for
// download: category headers, per-criterion lines, the qualitative lists,
// and a terminating total line.
func FormatReportText(rubric *model.Rubric, report *model.AppraisalReport) string {
	var b strings.Builder

	entries := make(map[string]model.ScoreEntry, len(report.Entries))
	for _, e := range report.Entries {
		entries[e.CriterionID] = e
	}

	b.WriteString(ruleHeavy + "\n")
	b.WriteString("Project Appraisal Analysis Result (unofficial)\n")
	b.WriteString(ruleHeavy + "\n\n")
	b.WriteString("This report is AI-assisted reference material, not an official appraisal.\n\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	if report.Degraded {
		b.WriteString(fmt.Sprintf("Note: degraded result (parse confidence %.0f%%)\n", report.ParseConfidence*100))
	}
	if report.Truncated {
		b.WriteString("Note: document was truncated before analysis\n")
	}
	b.WriteString("\n")

	for i, cat := range rubric.Categories {
		b.WriteString(fmt.Sprintf("[%d] %s (%d/%d)\n", i+1, cat.Name, report.CategoryTotals[cat.Name], cat.Weight))
		b.WriteString(ruleLight + "\n")
		for _, c := range cat.Criteria {
			e := entries[c.ID]
			b.WriteString(fmt.Sprintf("  %s: %d/%d — %s\n", c.Label, e.AwardedPoints, c.MaxPoints, e.Rationale))
		}
		b.WriteString("\n")
	}

	writeList(&b, "Strengths", "✓", report.Strengths)
	writeList(&b, "Weaknesses", "✗", report.Weaknesses)
	writeList(&b, "Recommendations", "→", report.Recommendations)

	b.WriteString(ruleHeavy + "\n")
	b.WriteString(fmt.Sprintf("Total: %d/%d\n", report.TotalScore, model.TotalMaxScore))

	return b.String()
}

func writeList(b *strings.Builder, title, marker string, items []string) {
	b.WriteString(title + ":\n")
	if len(items) == 0 {
		b.WriteString("  (none identified)\n")
	}
	for _, item := range items {
		b.WriteString(fmt.Sprintf("  %s %s\n", marker, item))
	}
	b.WriteString("\n")
}
