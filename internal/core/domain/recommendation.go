package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Data source values for a recommendation's citations.
const (
	DataSourcePubMed     = "pubmed"
	DataSourceGenerative = "ai"
)

const (
	minSentiment = 0
	maxSentiment = 100
)

// Ingredient is one active ingredient of a supplement.
type Ingredient struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage,omitempty"`
}

// UnmarshalJSON accepts either a bare string or a {name, dosage} object.
func (i *Ingredient) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.Name = strings.TrimSpace(s)
		i.Dosage = ""

		return nil
	}

	var obj struct {
		Name   string `json:"name"`
		Dosage string `json:"dosage"`
	}

	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("ingredient must be a string or object: %w", err)
	}

	i.Name = strings.TrimSpace(obj.Name)
	i.Dosage = strings.TrimSpace(obj.Dosage)

	return nil
}

// Supplement is a recommendation, first as a generated draft and later
// enriched with citations and a recomputed grade.
type Supplement struct {
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	SocialSentiment    int                `json:"socialSentiment"`
	EvidenceLevel      EvidenceGrade      `json:"evidenceLevel"`
	KeyBenefits        []string           `json:"keyBenefits"`
	Warnings           []string           `json:"warnings"`
	Ingredients        []Ingredient       `json:"ingredients"`
	Price              string             `json:"price,omitempty"`
	PersonalizedReason string             `json:"personalizedReason,omitempty"`
	RecommendedDose    string             `json:"recommendedDose,omitempty"`
	ScientificPapers   []SelectedCitation `json:"scientificPapers"`
	DataSource         string             `json:"dataSource"`
}

// PrimaryIngredient returns the first listed ingredient name, or the
// product name when no ingredient is listed.
func (s *Supplement) PrimaryIngredient() string {
	for _, ing := range s.Ingredients {
		if name := strings.TrimSpace(ing.Name); name != "" {
			return name
		}
	}

	return strings.TrimSpace(s.Name)
}

// ClampSentiment bounds the sentiment score to [0,100].
func (s *Supplement) ClampSentiment() {
	if s.SocialSentiment < minSentiment {
		s.SocialSentiment = minSentiment
	}

	if s.SocialSentiment > maxSentiment {
		s.SocialSentiment = maxSentiment
	}
}

// AttachCitations replaces the draft placeholders with real citations and
// recomputes the evidence grade from them.
func (s *Supplement) AttachCitations(citations []SelectedCitation) {
	s.ScientificPapers = citations
	s.DataSource = DataSourcePubMed
	s.EvidenceLevel = ComputeGrade(citations)
}

// KeepPlaceholders marks the draft citations as generative and recomputes
// the grade from whatever study types they carry.
func (s *Supplement) KeepPlaceholders() {
	for i := range s.ScientificPapers {
		s.ScientificPapers[i].Verified = false
	}

	if s.ScientificPapers == nil {
		s.ScientificPapers = []SelectedCitation{}
	}

	s.DataSource = DataSourceGenerative
	s.EvidenceLevel = ComputeGrade(s.ScientificPapers)
}
