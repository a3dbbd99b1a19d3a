package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Profile holds optional user attributes used to personalise generation.
type Profile struct {
	Age                 int      `json:"age,omitempty"`
	Sex                 string   `json:"sex,omitempty"`
	ActivityLevel       string   `json:"activityLevel,omitempty"`
	DietaryPreferences  []string `json:"dietaryPreferences,omitempty"`
	DietaryRestrictions []string `json:"dietaryRestrictions,omitempty"`
	Allergies           []string `json:"allergies,omitempty"`
	GeneticMarkers      []string `json:"geneticMarkers,omitempty"`
}

// Empty reports whether no attribute is set.
func (p *Profile) Empty() bool {
	if p == nil {
		return true
	}

	return p.Age == 0 && p.Sex == "" && p.ActivityLevel == "" &&
		len(p.DietaryPreferences) == 0 && len(p.DietaryRestrictions) == 0 &&
		len(p.Allergies) == 0 && len(p.GeneticMarkers) == 0
}

// Describe renders the set attributes as prompt lines, one per attribute.
func (p *Profile) Describe() string {
	if p.Empty() {
		return ""
	}

	var sb strings.Builder

	if p.Age > 0 {
		fmt.Fprintf(&sb, "- Age: %d\n", p.Age)
	}

	writeField(&sb, "Sex", p.Sex)
	writeField(&sb, "Activity level", p.ActivityLevel)
	writeField(&sb, "Dietary preferences", strings.Join(p.DietaryPreferences, ", "))
	writeField(&sb, "Dietary restrictions", strings.Join(p.DietaryRestrictions, ", "))
	writeField(&sb, "Allergies", strings.Join(p.Allergies, ", "))
	writeField(&sb, "Genetic markers", strings.Join(p.GeneticMarkers, ", "))

	return sb.String()
}

// DescribeAnswers renders questionnaire answers sorted by question.
func DescribeAnswers(answers map[string]string) string {
	if len(answers) == 0 {
		return ""
	}

	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var sb strings.Builder

	for _, k := range keys {
		writeField(&sb, k, answers[k])
	}

	return sb.String()
}

func writeField(sb *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}

	fmt.Fprintf(sb, "- %s: %s\n", label, value)
}
