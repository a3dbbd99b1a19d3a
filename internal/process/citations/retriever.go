package citations

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/core/pubmed"
	"github.com/lueurxax/nutrimatch/internal/platform/observability"
)

const (
	defaultSearchMaxResults = 20

	fallbackReasonFilterError = "filter_error"
	fallbackReasonUnavailable = "filter_unavailable"

	logKeyTerm       = "term"
	logKeyCandidates = "candidates"
)

// Searcher is the literature index.
type Searcher interface {
	Search(ctx context.Context, term string, maxResults int) ([]string, error)
	Fetch(ctx context.Context, ids []string) (string, error)
}

// Filterer ranks candidates for an ingredient and goal.
type Filterer interface {
	Filter(ctx context.Context, candidates []domain.CandidateCitation, ingredient, goal string) ([]domain.SelectedCitation, error)
}

// Exclusions is the set of identifiers already attached elsewhere in one
// request.
type Exclusions interface {
	Contains(id string) bool
	// FreshOrAll drops excluded candidates, returning the full pool and
	// true when nothing would remain.
	FreshOrAll(pool []domain.CandidateCitation) ([]domain.CandidateCitation, bool)
}

// Query describes one citation lookup.
type Query struct {
	Ingredient string
	Goal       string
	// Exclude, when set, keeps the selection clear of identifiers already
	// used by the same request. It never affects what is cached.
	Exclude Exclusions
}

// Result is the outcome of a lookup.
type Result struct {
	Citations []domain.SelectedCitation
	FromCache bool
	Fallback  bool
	// Reused reports that every candidate was excluded and the full pool
	// was used.
	Reused bool
}

// Retriever runs search, fetch, parse and selection for an ingredient,
// consulting the cache when one is configured.
type Retriever struct {
	searcher   Searcher
	filterer   Filterer
	cache      *Cache
	maxResults int
	logger     *zerolog.Logger
}

// NewRetriever creates a retriever. filterer and cache may be nil; without
// a filterer every lookup uses Fallback.
func NewRetriever(searcher Searcher, filterer Filterer, cache *Cache, maxResults int, logger *zerolog.Logger) *Retriever {
	if maxResults <= 0 {
		maxResults = defaultSearchMaxResults
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Retriever{
		searcher:   searcher,
		filterer:   filterer,
		cache:      cache,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Lookup returns selected citations for q. Errors wrap ErrSearchUnavailable
// or ErrMetadataParse; filter failures are absorbed by Fallback.
//
// The cache only ever holds the selection made from the full candidate
// pool. When that selection clashes with q.Exclude, a fresh selection is
// made from the remaining candidates for this lookup alone.
func (r *Retriever) Lookup(ctx context.Context, q Query) (Result, error) {
	if strings.TrimSpace(q.Ingredient) == "" {
		return Result{}, fmt.Errorf("%w: empty ingredient", apperrors.ErrSearchUnavailable)
	}

	if r.cache == nil {
		pool, err := r.Candidates(ctx, q.Ingredient, q.Goal)
		if err != nil {
			return Result{}, err
		}

		return r.selectFrom(ctx, q, pool), nil
	}

	// Set only when this caller ran the load itself.
	var pool []domain.CandidateCitation

	sel, hit, err := r.cache.GetOrLoad(ctx, CacheKey(q.Ingredient, q.Goal), func(ctx context.Context) (domain.CitationSelection, error) {
		candidates, err := r.Candidates(ctx, q.Ingredient, q.Goal)
		if err != nil {
			return domain.CitationSelection{}, err
		}

		pool = candidates
		selected, fellBack := r.Select(ctx, candidates, q.Ingredient, q.Goal)

		return domain.CitationSelection{Citations: selected, Fallback: fellBack}, nil
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Citations: sel.Citations, FromCache: hit, Fallback: sel.Fallback}
	if !excludesAny(q.Exclude, sel.Citations) {
		return res, nil
	}

	if pool == nil {
		if pool, err = r.Candidates(ctx, q.Ingredient, q.Goal); err != nil {
			return Result{}, err
		}
	}

	if _, reused := q.Exclude.FreshOrAll(pool); reused {
		res.Reused = true

		return res, nil
	}

	return r.selectFrom(ctx, q, pool), nil
}

// selectFrom selects from pool after applying the query's exclusions.
func (r *Retriever) selectFrom(ctx context.Context, q Query, pool []domain.CandidateCitation) Result {
	var reused bool

	if q.Exclude != nil {
		pool, reused = q.Exclude.FreshOrAll(pool)
	}

	selected, fellBack := r.Select(ctx, pool, q.Ingredient, q.Goal)

	return Result{Citations: selected, Fallback: fellBack, Reused: reused}
}

func excludesAny(ex Exclusions, selected []domain.SelectedCitation) bool {
	if ex == nil {
		return false
	}

	for _, c := range selected {
		if ex.Contains(c.PMID) {
			return true
		}
	}

	return false
}

// Candidates searches with study type keywords first and, when that finds
// nothing, with the bare ingredient and goal. The matching records are
// fetched and parsed.
func (r *Retriever) Candidates(ctx context.Context, ingredient, goal string) ([]domain.CandidateCitation, error) {
	ids, err := r.search(ctx, pubmed.BuildTerm(ingredient, goal, true))
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		if ids, err = r.search(ctx, pubmed.BuildTerm(ingredient, goal, false)); err != nil {
			return nil, err
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %w for %q", apperrors.ErrSearchUnavailable, apperrors.ErrNoMatches, ingredient)
	}

	raw, err := r.searcher.Fetch(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := pubmed.Parse(raw)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %d identifiers for %q", apperrors.ErrMetadataParse, len(ids), ingredient)
	}

	r.logger.Debug().Str(logKeyIngredient, ingredient).Int(logKeyCandidates, len(candidates)).Msg("Candidate citations parsed")

	return candidates, nil
}

func (r *Retriever) search(ctx context.Context, term string) ([]string, error) {
	ids, err := r.searcher.Search(ctx, term, r.maxResults)
	if err != nil {
		r.logger.Warn().Err(err).Str(logKeyTerm, term).Msg("Literature search failed")

		return nil, err
	}

	return ids, nil
}

// Select runs the relevance filter and falls back to the first candidates
// when it fails. The boolean reports whether the fallback was used.
func (r *Retriever) Select(ctx context.Context, candidates []domain.CandidateCitation, ingredient, goal string) ([]domain.SelectedCitation, bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	if r.filterer == nil {
		observability.RelevanceFallbacks.WithLabelValues(fallbackReasonUnavailable).Inc()

		return Fallback(candidates), true
	}

	selected, err := r.filterer.Filter(ctx, candidates, ingredient, goal)
	if err == nil && len(selected) > 0 {
		return selected, false
	}

	if err == nil {
		err = apperrors.ErrFilterFailure
	}

	r.logger.Warn().Err(err).Str(logKeyIngredient, ingredient).Msg("Relevance filter failed, using first candidates")
	observability.RelevanceFallbacks.WithLabelValues(fallbackReasonFilterError).Inc()

	return Fallback(candidates), true
}
