package citations

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/core/llm"
)

const (
	defaultMaxAbstractRunes = 1200
	defaultFilterTemp       = 0.2

	logKeyPMID       = "pmid"
	logKeyIngredient = "ingredient"
	logKeyKept       = "kept"
)

// RelevanceFilter asks the generative gateway to pick the most relevant
// candidates, then verifies every pick against the candidate pool.
type RelevanceFilter struct {
	client           llm.Client
	temperature      float32
	maxAbstractRunes int
	logger           *zerolog.Logger
}

// NewRelevanceFilter creates a filter. A non-positive temperature selects
// a low default suited to extraction.
func NewRelevanceFilter(client llm.Client, temperature float32, logger *zerolog.Logger) *RelevanceFilter {
	if temperature <= 0 {
		temperature = defaultFilterTemp
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &RelevanceFilter{
		client:           client,
		temperature:      temperature,
		maxAbstractRunes: defaultMaxAbstractRunes,
		logger:           logger,
	}
}

type relevancePick struct {
	PMID              string `json:"pmid"`
	Summary           string `json:"summary"`
	HighlightSentence string `json:"highlightSentence"`
	StudyType         string `json:"studyType"`
}

// Filter selects up to three candidates. Errors wrap ErrFilterFailure;
// callers fall back to Fallback.
func (f *RelevanceFilter) Filter(ctx context.Context, candidates []domain.CandidateCitation, ingredient, goal string) ([]domain.SelectedCitation, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	content, err := f.client.Complete(ctx, llm.Request{
		Task:        llm.TaskRelevance,
		System:      relevanceSystemPrompt,
		User:        buildRelevancePrompt(candidates, ingredient, goal, f.maxAbstractRunes),
		Temperature: f.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFilterFailure, err)
	}

	picks, err := decodePicks(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFilterFailure, err)
	}

	selected := f.verify(picks, candidates, ingredient)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no selection matched the candidate pool", apperrors.ErrFilterFailure)
	}

	return topUp(selected, candidates), nil
}

func decodePicks(content string) ([]relevancePick, error) {
	var wrapper struct {
		Papers []relevancePick `json:"papers"`
	}

	if err := llm.DecodeJSON(content, &wrapper); err == nil && len(wrapper.Papers) > 0 {
		return wrapper.Papers, nil
	}

	var picks []relevancePick
	if err := llm.DecodeJSON(content, &picks); err != nil {
		return nil, fmt.Errorf("decode relevance picks: %w", err)
	}

	return picks, nil
}

// verify keeps picks that name a pooled record once, copies bibliographic
// fields from the pool and clears highlight sentences that are not
// verbatim substrings of the abstract.
func (f *RelevanceFilter) verify(picks []relevancePick, candidates []domain.CandidateCitation, ingredient string) []domain.SelectedCitation {
	pool := make(map[string]domain.CandidateCitation, len(candidates))
	for _, c := range candidates {
		pool[c.PMID] = c
	}

	seen := make(map[string]struct{}, MaxSelected)
	out := make([]domain.SelectedCitation, 0, MaxSelected)
	base := ingredientBaseName(ingredient)

	for _, p := range picks {
		if len(out) == MaxSelected {
			break
		}

		pmid := strings.TrimSpace(p.PMID)

		c, ok := pool[pmid]
		if !ok {
			f.logger.Warn().Str(logKeyPMID, pmid).Str(logKeyIngredient, ingredient).Msg("Dropping selection outside the candidate pool")
			continue
		}

		if _, dup := seen[pmid]; dup {
			continue
		}

		seen[pmid] = struct{}{}

		sel := fallbackCitation(c)

		if summary := strings.TrimSpace(p.Summary); summary != "" {
			sel.Summary = summary
		}

		if highlight := strings.TrimSpace(p.HighlightSentence); highlight != "" {
			switch {
			case !strings.Contains(c.Abstract, highlight):
				f.logger.Debug().Str(logKeyPMID, pmid).Msg("Discarding highlight not found in abstract")
			case base != "" && !strings.Contains(NormalizeKey(highlight), base):
				f.logger.Debug().Str(logKeyPMID, pmid).Str(logKeyIngredient, ingredient).Msg("Discarding highlight that does not name the ingredient")
			default:
				sel.HighlightSentence = highlight
			}
		}

		if sel.StudyType == "" {
			if st := domain.StudyType(strings.ToLower(strings.TrimSpace(p.StudyType))); st.Valid() {
				sel.StudyType = st
			}
		}

		out = append(out, sel)
	}

	f.logger.Debug().Int(logKeyKept, len(out)).Str(logKeyIngredient, ingredient).Msg("Relevance selection verified")

	return out
}

// ingredientBaseName reduces an ingredient label to the word a quote must
// contain, so "L-Theanine 200mg" becomes "theanine". Vitamins keep their
// letter: "Vitamin D3" becomes "vitamin d".
func ingredientBaseName(ingredient string) string {
	name, _, _ := strings.Cut(NormalizeKey(ingredient), "(")

	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}

	first := strings.Trim(fields[0], ",.;:")

	if first == "vitamin" && len(fields) > 1 {
		letter := strings.TrimRight(strings.Trim(fields[1], ",.;:"), "0123456789")
		return strings.TrimSpace(first + " " + letter)
	}

	for _, prefix := range []string{"l-", "d-", "dl-"} {
		if rest, ok := strings.CutPrefix(first, prefix); ok && rest != "" {
			return rest
		}
	}

	return first
}

// topUp fills a short selection with unselected candidates in input order.
func topUp(selected []domain.SelectedCitation, candidates []domain.CandidateCitation) []domain.SelectedCitation {
	target := min(MaxSelected, len(candidates))
	if len(selected) >= target {
		return selected
	}

	chosen := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		chosen[s.PMID] = struct{}{}
	}

	for _, c := range candidates {
		if len(selected) == target {
			break
		}

		if _, ok := chosen[c.PMID]; ok {
			continue
		}

		selected = append(selected, fallbackCitation(c))
	}

	return selected
}
