package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/appraise-tools/appraise/internal/common"
	"github.com/appraise-tools/appraise/internal/model"
)

// ParseResult holds the structured outcome of parsing a provider reply.
// Entries always contains one entry per rubric criterion, in rubric order.
type ParseResult struct {
	Reasoning       string
	Entries         []model.ScoreEntry
	Strengths       []string
	Weaknesses      []string
	Recommendations []string
	// Confidence is the fraction of criteria for which a valid score was
	// located in the reply.
	Confidence float64
}

// ResponseParser converts a provider's free-text reply into per-criterion
// scores and qualitative notes. It never fails for malformed input; it
// degrades per criterion and reports a confidence fraction instead.
type ResponseParser struct {
	rubric *model.Rubric
}

// NewResponseParser creates a parser bound to a rubric.
func NewResponseParser(rubric *model.Rubric) *ResponseParser {
	return &ResponseParser{rubric: rubric}
}

// Parse extracts scores from the reply. It first attempts the structured
// JSON shape the prompt requests, then falls back to a tolerant line scan.
// Every known criterion is emitted exactly once: criteria without a
// locatable score get zero points and a "not found" rationale, so the
// rubric-weight invariant is never silently corrupted.
func (p *ResponseParser) Parse(reply string) ParseResult {
	criteria := p.rubric.Criteria()
	found := make(map[string]model.ScoreEntry)

	var result ParseResult
	if jr, ok := decodeProviderJSON(reply); ok {
		p.mergeDetailedScores(jr.DetailedScores, found)
		result.Reasoning = jr.Reasoning
		result.Strengths = jr.Strengths
		result.Weaknesses = jr.Weaknesses
		result.Recommendations = jr.Recommendations
	}

	if len(found) == 0 {
		p.scanLines(reply, found)
	}
	if result.Strengths == nil && result.Weaknesses == nil && result.Recommendations == nil {
		strengths, weaknesses, recommendations := scanSections(reply)
		result.Strengths = strengths
		result.Weaknesses = weaknesses
		result.Recommendations = recommendations
	}

	matched := 0
	for _, c := range criteria {
		entry, ok := found[c.ID]
		if !ok {
			entry = model.ScoreEntry{CriterionID: c.ID, AwardedPoints: 0, Rationale: "not found"}
		} else if entry.Rationale != rationaleInvalidScore {
			matched++
		}
		result.Entries = append(result.Entries, entry)
	}

	if len(criteria) > 0 {
		result.Confidence = float64(matched) / float64(len(criteria))
	}
	return result
}

const rationaleInvalidScore = "invalid score"

// providerReply mirrors the JSON output the prompt requests.
type providerReply struct {
	Reasoning       string          `json:"reasoning"`
	DetailedScores  []providerScore `json:"detailed_scores"`
	Strengths       []string        `json:"strengths"`
	Weaknesses      []string        `json:"weaknesses"`
	Recommendations []string        `json:"recommendations"`
	TotalScore      json.Number     `json:"total_score"`
}

type providerScore struct {
	Item     string      `json:"item"`
	Reason   string      `json:"reason"`
	Score    json.Number `json:"score"`
	MaxScore json.Number `json:"max_score"`
}

// decodeProviderJSON attempts to decode the reply as the structured shape,
// tolerating markdown code fences and surrounding prose.
func decodeProviderJSON(reply string) (*providerReply, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var jr providerReply
	dec := json.NewDecoder(strings.NewReader(reply[start : end+1]))
	dec.UseNumber()
	if err := dec.Decode(&jr); err != nil {
		return nil, false
	}
	if len(jr.DetailedScores) == 0 && jr.Reasoning == "" && len(jr.Strengths) == 0 {
		return nil, false
	}
	return &jr, true
}

// mergeDetailedScores maps structured score items onto rubric criteria by
// label. Duplicate items for the same criterion keep the latest value.
func (p *ResponseParser) mergeDetailedScores(scores []providerScore, found map[string]model.ScoreEntry) {
	for _, s := range scores {
		criterion := p.matchCriterion(s.Item)
		if criterion == nil {
			continue
		}

		points, err := parseScoreToken(s.Score.String())
		if err != nil {
			found[criterion.ID] = model.ScoreEntry{
				CriterionID:   criterion.ID,
				AwardedPoints: 0,
				Rationale:     rationaleInvalidScore,
			}
			continue
		}

		rationale := strings.TrimSpace(s.Reason)
		if rationale == "" {
			rationale = "no rationale given"
		}
		found[criterion.ID] = model.ScoreEntry{
			CriterionID:   criterion.ID,
			AwardedPoints: points,
			Rationale:     rationale,
		}
	}
}

var markdownNoise = strings.NewReplacer("*", "", "_", "", "`", "", "#", "")

// scanLines locates a numeric score token near each criterion label in
// free text, tolerating colons, markdown emphasis, and "n/m" fractions.
func (p *ResponseParser) scanLines(reply string, found map[string]model.ScoreEntry) {
	criteria := p.rubric.Criteria()

	for _, line := range strings.Split(reply, "\n") {
		clean := markdownNoise.Replace(line)

		for i := range criteria {
			c := &criteria[i]
			idx := indexFold(clean, c.Label)
			if idx < 0 {
				continue
			}

			segment := clean[idx+len(c.Label):]
			token, rest, ok := locateScoreToken(segment, c.MaxPoints)
			if !ok {
				continue
			}

			entry := model.ScoreEntry{CriterionID: c.ID}
			points, err := parseScoreToken(token)
			if err != nil {
				entry.AwardedPoints = 0
				entry.Rationale = rationaleInvalidScore
			} else {
				entry.AwardedPoints = points
				entry.Rationale = trimRationale(rest)
			}
			// Latest occurrence wins when a label repeats.
			found[c.ID] = entry
		}
	}
}

// indexFold returns the byte offset of the first case-insensitive match of
// substr in s, or -1. Offsets are taken on s itself; lowercasing the whole
// line first would shift byte offsets, since some runes change width under
// case mapping. Labels are ASCII, so a match always spans len(substr) bytes.
func indexFold(s, substr string) int {
	if substr == "" {
		return 0
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

var scoreTokenRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)(?:\s*/\s*(\d+(?:\.\d+)?))?`)

// locateScoreToken picks the score token from the text following a
// criterion label. Fractional "n/m" tokens are preferred; a leading
// parenthetical restating the criterion maximum (e.g. "(10 points)") is
// skipped when a later token exists.
func locateScoreToken(segment string, maxPoints int) (token, rest string, ok bool) {
	matches := scoreTokenRe.FindAllStringSubmatchIndex(segment, -1)
	if len(matches) == 0 {
		return "", "", false
	}

	// Prefer the first "n/m" fraction.
	for _, m := range matches {
		if m[4] >= 0 {
			return segment[m[2]:m[3]], segment[m[1]:], true
		}
	}

	pick := matches[0]
	if len(matches) > 1 {
		first := segment[pick[2]:pick[3]]
		tail := segment[pick[1]:]
		restates := first == strconv.Itoa(maxPoints) &&
			(strings.HasPrefix(strings.TrimSpace(tail), "points") ||
				strings.HasPrefix(strings.TrimSpace(tail), "pts") ||
				strings.HasPrefix(strings.TrimSpace(tail), "point"))
		if restates {
			pick = matches[1]
		}
	}
	return segment[pick[2]:pick[3]], segment[pick[1]:], true
}

// parseScoreToken converts a numeric token to awarded points, rejecting
// non-numeric and negative values.
func parseScoreToken(token string) (int, error) {
	token = strings.TrimSpace(token)
	if i := strings.Index(token, "/"); i >= 0 {
		token = strings.TrimSpace(token[:i])
	}

	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidScore, token)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative value %q", common.ErrInvalidScore, token)
	}
	return int(math.Round(v)), nil
}

// trimRationale cleans the text trailing a score token for use as the
// entry rationale.
func trimRationale(s string) string {
	s = strings.TrimLeft(s, " \t:—–-.,)")
	s = strings.TrimSpace(s)
	if s == "" {
		return "score located in reply"
	}
	return s
}

var sectionHeaderRe = regexp.MustCompile(`(?i)^\s*(strengths?|weaknesses?|recommendations?)\b`)
var bulletPrefixRe = regexp.MustCompile(`^\s*(?:[-*•✓✗→]|\d+[.)])\s*`)

// scanSections collects bullet lists under strengths/weaknesses/
// recommendations headers in free text.
func scanSections(reply string) (strengths, weaknesses, recommendations []string) {
	section := ""
	for _, line := range strings.Split(reply, "\n") {
		clean := markdownNoise.Replace(line)
		if m := sectionHeaderRe.FindStringSubmatch(clean); m != nil {
			section = strings.ToLower(m[1])
			continue
		}
		if section == "" {
			continue
		}
		// Bullets are detected on the raw line; noise stripping would eat
		// "*" markers.
		if loc := bulletPrefixRe.FindStringIndex(line); loc != nil {
			item := strings.TrimSpace(markdownNoise.Replace(line[loc[1]:]))
			if item == "" {
				continue
			}
			switch {
			case strings.HasPrefix(section, "strength"):
				strengths = append(strengths, item)
			case strings.HasPrefix(section, "weakness"):
				weaknesses = append(weaknesses, item)
			default:
				recommendations = append(recommendations, item)
			}
		} else if strings.TrimSpace(clean) != "" {
			section = ""
		}
	}
	return strengths, weaknesses, recommendations
}

// matchCriterion resolves a reply item name to a rubric criterion by
// normalized label or ID.
func (p *ResponseParser) matchCriterion(item string) *model.Criterion {
	norm := normalizeLabel(item)
	if norm == "" {
		return nil
	}

	for _, cat := range p.rubric.Categories {
		for i := range cat.Criteria {
			c := &cat.Criteria[i]
			label := normalizeLabel(c.Label)
			id := normalizeLabel(c.ID)
			if norm == label || norm == id ||
				strings.Contains(label, norm) || strings.Contains(norm, label) {
				return c
			}
		}
	}
	return nil
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
