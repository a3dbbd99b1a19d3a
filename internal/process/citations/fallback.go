package citations

import (
	"github.com/lueurxax/nutrimatch/internal/core/domain"
)

// Fallback selection limits.
const (
	MaxSelected          = 3
	FallbackSummaryRunes = 150
)

// Fallback selects the first candidates in input order without generation.
// Each summary is the leading part of the abstract and no sentence is
// highlighted.
func Fallback(candidates []domain.CandidateCitation) []domain.SelectedCitation {
	n := min(len(candidates), MaxSelected)
	out := make([]domain.SelectedCitation, 0, n)

	for _, c := range candidates[:n] {
		out = append(out, fallbackCitation(c))
	}

	return out
}

func fallbackCitation(c domain.CandidateCitation) domain.SelectedCitation {
	return domain.SelectedCitation{
		PMID:      c.PMID,
		Title:     c.Title,
		Authors:   c.Authors,
		Journal:   c.Journal,
		Year:      c.Year,
		Summary:   truncateRunes(c.Abstract, FallbackSummaryRunes),
		StudyType: c.StudyType,
		Verified:  true,
	}
}
