// Package interactions reports known supplement interactions from a static
// table.
package interactions

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/process/citations"
)

// Severity grades an interaction.
type Severity string

// Severity values.
const (
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
)

// Interaction describes one known interaction of a supplement.
type Interaction struct {
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
}

// Request lists the supplements to check. Medications are accepted for
// display and are not matched against the table.
type Request struct {
	Supplements []string `json:"supplements"`
	Medications []string `json:"medications,omitempty"`
}

type entry struct {
	name         string
	interactions []Interaction
}

// known is ordered so that longer names are tried first.
var known = []entry{
	{name: "st. john's wort", interactions: []Interaction{
		{Severity: SeverityHigh, Description: "Interacts with antidepressants (SSRIs, MAOIs)", Recommendation: "Do NOT combine - risk of serotonin syndrome"},
		{Severity: SeverityHigh, Description: "Reduces effectiveness of birth control pills", Recommendation: "Use alternative contraception methods"},
	}},
	{name: "vitamin k", interactions: []Interaction{
		{Severity: SeverityHigh, Description: "Interacts with blood thinners (Warfarin, Coumadin)", Recommendation: "Consult doctor before taking - may reduce medication effectiveness"},
	}},
	{name: "magnesium", interactions: []Interaction{
		{Severity: SeverityModerate, Description: "May interact with antibiotics (tetracyclines, fluoroquinolones)", Recommendation: "Take magnesium 2-3 hours before or after antibiotics"},
		{Severity: SeverityModerate, Description: "Can interact with bisphosphonates (osteoporosis medications)", Recommendation: "Separate doses by at least 2 hours"},
	}},
	{name: "calcium", interactions: []Interaction{
		{Severity: SeverityModerate, Description: "Interferes with thyroid medication absorption", Recommendation: "Take at least 4 hours apart from thyroid medication"},
	}},
	{name: "iron", interactions: []Interaction{
		{Severity: SeverityLow, Description: "May reduce calcium absorption", Recommendation: "Take iron and calcium supplements at different times"},
	}},
}

// Checker looks supplements up in the interaction table.
type Checker struct{}

// NewChecker creates a checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Check returns the known interactions keyed by the supplement name as
// given. Supplements without known interactions are omitted.
func (c *Checker) Check(_ context.Context, req Request) (map[string][]Interaction, error) {
	if len(req.Supplements) == 0 {
		return nil, fmt.Errorf("%w: supplements are required", apperrors.ErrInvalidRequest)
	}

	out := make(map[string][]Interaction)

	for _, supplement := range req.Supplements {
		if found := lookup(supplement); found != nil {
			out[strings.TrimSpace(supplement)] = append([]Interaction(nil), found...)
		}
	}

	return out, nil
}

// lookup matches the base ingredient name at the start of a supplement
// label, so "Magnesium Glycinate 400mg" matches magnesium.
func lookup(supplement string) []Interaction {
	key := citations.NormalizeKey(supplement)
	if key == "" {
		return nil
	}

	for _, e := range known {
		if key == e.name || strings.HasPrefix(key, e.name+" ") {
			return e.interactions
		}
	}

	return nil
}
