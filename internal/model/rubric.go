// Package model defines the core data types shared across the application.
package model

import "fmt"

// Criterion is a single scored line item within a rubric category.
type Criterion struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	MaxPoints int    `json:"max_points"`
}

// RubricCategory groups criteria under a declared point weight.
type RubricCategory struct {
	Name     string      `json:"name"`
	Weight   int         `json:"weight"`
	Criteria []Criterion `json:"criteria"`
}

// Rubric is the fixed weighted taxonomy of scoring categories and criteria.
// It is loaded once at startup and treated as immutable afterwards.
type Rubric struct {
	Name       string           `json:"name"`
	Categories []RubricCategory `json:"categories"`
}

// TotalMaxScore is the required grand total of all criterion weights.
const TotalMaxScore = 100

// Validate ensures every category's criteria sum to its declared weight and
// that the weights sum to TotalMaxScore.
func (r *Rubric) Validate() error {
	if len(r.Categories) == 0 {
		return fmt.Errorf("rubric has no categories")
	}
	total := 0
	seen := make(map[string]bool)
	for _, cat := range r.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category name is required")
		}
		sum := 0
		for _, c := range cat.Criteria {
			if c.ID == "" {
				return fmt.Errorf("criterion ID is required in category %q", cat.Name)
			}
			if c.Label == "" {
				return fmt.Errorf("criterion %q has no label", c.ID)
			}
			if c.MaxPoints <= 0 {
				return fmt.Errorf("criterion %q has non-positive max points", c.ID)
			}
			if seen[c.ID] {
				return fmt.Errorf("duplicate criterion ID %q", c.ID)
			}
			seen[c.ID] = true
			sum += c.MaxPoints
		}
		if sum != cat.Weight {
			return fmt.Errorf("category %q criteria sum to %d, declared weight is %d", cat.Name, sum, cat.Weight)
		}
		total += cat.Weight
	}
	if total != TotalMaxScore {
		return fmt.Errorf("category weights sum to %d, expected %d", total, TotalMaxScore)
	}
	return nil
}

// Criteria returns every criterion in declaration order.
func (r *Rubric) Criteria() []Criterion {
	var out []Criterion
	for _, cat := range r.Categories {
		out = append(out, cat.Criteria...)
	}
	return out
}

// CategoryOf returns the name of the category owning the given criterion ID.
func (r *Rubric) CategoryOf(criterionID string) (string, bool) {
	for _, cat := range r.Categories {
		for _, c := range cat.Criteria {
			if c.ID == criterionID {
				return cat.Name, true
			}
		}
	}
	return "", false
}

// CriterionByID looks up a criterion by its ID.
func (r *Rubric) CriterionByID(id string) (*Criterion, bool) {
	for _, cat := range r.Categories {
		for i := range cat.Criteria {
			if cat.Criteria[i].ID == id {
				return &cat.Criteria[i], true
			}
		}
	}
	return nil, false
}

// DefaultRubric returns the built-in project appraisal rubric: policy
// alignment (30 points) and implementation readiness (70 points).
func DefaultRubric() *Rubric {
	return &Rubric{
		Name: "Project Appraisal",
		Categories: []RubricCategory{
			{
				Name:   "Policy Alignment",
				Weight: 30,
				Criteria: []Criterion{
					{ID: "sdg_linkage", Label: "SDG Linkage", MaxPoints: 10},
					{ID: "recipient_policy", Label: "Recipient Country Policy Fit", MaxPoints: 5},
					{ID: "cps_alignment", Label: "Government CPS Alignment", MaxPoints: 5},
					{ID: "agency_strategy", Label: "Agency Mid-Term Strategy Fit", MaxPoints: 5},
					{ID: "donor_overlap", Label: "Other Donor Overlap Analysis", MaxPoints: 5},
				},
			},
			{
				Name:   "Implementation Readiness",
				Weight: 70,
				Criteria: []Criterion{
					{ID: "recipient_system", Label: "Recipient Implementation System", MaxPoints: 20},
					{ID: "domestic_system", Label: "Domestic Implementation System", MaxPoints: 15},
					{ID: "implementation_strategy", Label: "Implementation Strategy", MaxPoints: 15},
					{ID: "risk_management", Label: "Risk Management", MaxPoints: 10},
					{ID: "performance_management", Label: "Performance Management", MaxPoints: 10},
				},
			},
		},
	}
}
