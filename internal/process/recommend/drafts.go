package recommend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/core/llm"
	"github.com/lueurxax/nutrimatch/internal/process/citations"
)

// DraftCount is the number of recommendations per request.
const DraftCount = 3

// flexNumber accepts a JSON number or a numeric string such as "85" or "85%".
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
		if s == "" {
			*n = 0
			return nil
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}

		*n = flexNumber(f)

		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	*n = flexNumber(f)

	return nil
}

type rawPaper struct {
	PMID              string     `json:"pmid"`
	Title             string     `json:"title"`
	Authors           string     `json:"authors"`
	Journal           string     `json:"journal"`
	Year              flexNumber `json:"year"`
	Summary           string     `json:"summary"`
	HighlightSentence string     `json:"highlightSentence"`
	StudyType         string     `json:"studyType"`
}

type rawDraft struct {
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	SocialSentiment    flexNumber          `json:"socialSentiment"`
	EvidenceLevel      string              `json:"evidenceLevel"`
	KeyBenefits        []string            `json:"keyBenefits"`
	Warnings           []string            `json:"warnings"`
	Ingredients        []domain.Ingredient `json:"ingredients"`
	Price              string              `json:"price"`
	PersonalizedReason string              `json:"personalizedReason"`
	RecommendedDose    string              `json:"recommendedDose"`
	ScientificPapers   []rawPaper          `json:"scientificPapers"`
}

type draftEnvelope struct {
	Supplements []rawDraft `json:"supplements"`
}

// decodeDrafts parses generated text into exactly DraftCount drafts. Extra
// drafts are dropped; fewer drafts or a repeated primary ingredient fail
// with ErrDraftGeneration.
func decodeDrafts(content string) ([]domain.Supplement, error) {
	var raw []rawDraft
	if err := llm.DecodeJSON(content, &raw); err != nil {
		var env draftEnvelope
		if envErr := llm.DecodeJSON(content, &env); envErr != nil || env.Supplements == nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrDraftGeneration, err)
		}

		raw = env.Supplements
	}

	if len(raw) < DraftCount {
		return nil, fmt.Errorf("%w: expected %d drafts, got %d", apperrors.ErrDraftGeneration, DraftCount, len(raw))
	}

	raw = raw[:DraftCount]
	drafts := make([]domain.Supplement, 0, DraftCount)
	seen := make(map[string]int, DraftCount)

	for i, r := range raw {
		s := r.toSupplement()

		key := citations.NormalizeKey(s.PrimaryIngredient())
		if key == "" {
			return nil, fmt.Errorf("%w: draft %d has no name or ingredient", apperrors.ErrDraftGeneration, i+1)
		}

		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: drafts %d and %d share primary ingredient %q", apperrors.ErrDraftGeneration, prev+1, i+1, key)
		}

		seen[key] = i
		drafts = append(drafts, s)
	}

	return drafts, nil
}

func (r rawDraft) toSupplement() domain.Supplement {
	s := domain.Supplement{
		Name:               strings.TrimSpace(r.Name),
		Description:        strings.TrimSpace(r.Description),
		SocialSentiment:    int(math.Round(float64(r.SocialSentiment))),
		EvidenceLevel:      domain.EvidenceGrade(strings.ToUpper(strings.TrimSpace(r.EvidenceLevel))),
		KeyBenefits:        nonNil(r.KeyBenefits),
		Warnings:           nonNil(r.Warnings),
		Ingredients:        make([]domain.Ingredient, 0, len(r.Ingredients)),
		Price:              strings.TrimSpace(r.Price),
		PersonalizedReason: strings.TrimSpace(r.PersonalizedReason),
		RecommendedDose:    strings.TrimSpace(r.RecommendedDose),
		ScientificPapers:   make([]domain.SelectedCitation, 0, len(r.ScientificPapers)),
		DataSource:         domain.DataSourceGenerative,
	}

	s.ClampSentiment()

	if !s.EvidenceLevel.Valid() {
		s.EvidenceLevel = domain.EvidenceGradeD
	}

	for _, ing := range r.Ingredients {
		if ing.Name != "" {
			s.Ingredients = append(s.Ingredients, ing)
		}
	}

	for _, p := range r.ScientificPapers {
		s.ScientificPapers = append(s.ScientificPapers, p.toCitation())
	}

	return s
}

func (p rawPaper) toCitation() domain.SelectedCitation {
	studyType := domain.StudyType(strings.ToLower(strings.TrimSpace(p.StudyType)))
	if !studyType.Valid() {
		studyType = ""
	}

	return domain.SelectedCitation{
		PMID:              strings.TrimSpace(p.PMID),
		Title:             strings.TrimSpace(p.Title),
		Authors:           strings.TrimSpace(p.Authors),
		Journal:           strings.TrimSpace(p.Journal),
		Year:              int(p.Year),
		Summary:           strings.TrimSpace(p.Summary),
		HighlightSentence: strings.TrimSpace(p.HighlightSentence),
		StudyType:         studyType,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}

	return in
}
