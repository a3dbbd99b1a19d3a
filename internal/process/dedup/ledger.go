// Package dedup keeps citations from repeating across the recommendations
// of a single request.
package dedup

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
)

// Log key constants for deduplication.
const (
	logKeySkippedID = "skipped_id"
	logKeyReserved  = "reserved"
)

// Ledger is the set of citation identifiers already assigned within one
// request. It is not safe for concurrent use; recommendations are enriched
// sequentially.
type Ledger struct {
	reserved map[string]struct{}
	logger   *zerolog.Logger
}

// NewLedger creates an empty ledger. logger may be nil.
func NewLedger(logger *zerolog.Logger) *Ledger {
	return &Ledger{
		reserved: make(map[string]struct{}),
		logger:   logger,
	}
}

// Reserve adds identifiers to the ledger. Already reserved or empty
// identifiers are ignored.
func (l *Ledger) Reserve(ids []string) {
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		l.reserved[id] = struct{}{}
	}

	if l.logger != nil {
		l.logger.Debug().Int(logKeyReserved, len(l.reserved)).Msg("Citation ledger updated")
	}
}

// Contains reports whether id is reserved.
func (l *Ledger) Contains(id string) bool {
	_, ok := l.reserved[strings.TrimSpace(id)]
	return ok
}

// Len returns the number of reserved identifiers.
func (l *Ledger) Len() int {
	return len(l.reserved)
}

// FilterFresh returns the candidates whose identifier is not reserved,
// preserving order.
func (l *Ledger) FilterFresh(candidates []domain.CandidateCitation) []domain.CandidateCitation {
	return filterFresh(l, candidates, func(c domain.CandidateCitation) string { return c.PMID })
}

// FilterFreshSelected is FilterFresh for already selected citations, used
// when a cached selection is reused.
func (l *Ledger) FilterFreshSelected(citations []domain.SelectedCitation) []domain.SelectedCitation {
	return filterFresh(l, citations, func(c domain.SelectedCitation) string { return c.PMID })
}

// FreshOrAll applies FilterFresh and falls back to the full pool when every
// candidate is already reserved. The boolean reports whether the fallback
// was taken.
func (l *Ledger) FreshOrAll(candidates []domain.CandidateCitation) ([]domain.CandidateCitation, bool) {
	fresh := l.FilterFresh(candidates)
	if len(fresh) == 0 && len(candidates) > 0 {
		return candidates, true
	}

	return fresh, false
}

// FreshOrAllSelected is FreshOrAll for selected citations.
func (l *Ledger) FreshOrAllSelected(citations []domain.SelectedCitation) ([]domain.SelectedCitation, bool) {
	fresh := l.FilterFreshSelected(citations)
	if len(fresh) == 0 && len(citations) > 0 {
		return citations, true
	}

	return fresh, false
}

func filterFresh[T any](l *Ledger, items []T, id func(T) string) []T {
	result := make([]T, 0, len(items))

	for _, item := range items {
		if l.Contains(id(item)) {
			if l.logger != nil {
				l.logger.Debug().Str(logKeySkippedID, id(item)).Msg("Skipping already cited record")
			}

			continue
		}

		result = append(result, item)
	}

	return result
}
