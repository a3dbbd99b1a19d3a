package citations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/platform/observability"
)

const (
	// DefaultCacheTTL is the freshness window of a cached selection.
	DefaultCacheTTL = 30 * 24 * time.Hour
	// DefaultLoadTimeout bounds one shared load.
	DefaultLoadTimeout = 30 * time.Second

	keySeparator = "|"

	cacheResultHit   = "hit"
	cacheResultMiss  = "miss"
	cacheResultError = "error"

	logKeyCacheKey = "cache_key"
)

// Store persists citation selections by key. GetCitations returns
// apperrors.ErrCacheNotFound when no entry fetched at or after notBefore
// exists.
type Store interface {
	GetCitations(ctx context.Context, key string, notBefore time.Time) (domain.CitationSelection, error)
	PutCitations(ctx context.Context, key string, sel domain.CitationSelection, fetchedAt time.Time) error
}

// Loader computes a selection on a cache miss.
type Loader func(ctx context.Context) (domain.CitationSelection, error)

// Cache is a read-through citation cache. Concurrent lookups of one key
// share a single load.
type Cache struct {
	store       Store
	ttl         time.Duration
	loadTimeout time.Duration
	group       singleflight.Group
	now         func() time.Time
	logger      *zerolog.Logger
}

// NewCache creates a cache over store. A non-positive ttl selects
// DefaultCacheTTL.
func NewCache(store Store, ttl time.Duration, logger *zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Cache{
		store:       store,
		ttl:         ttl,
		loadTimeout: DefaultLoadTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

type cacheOutcome struct {
	sel domain.CitationSelection
	hit bool
}

// GetOrLoad returns the fresh cached selection for key or runs load and
// stores a non-empty result. The boolean reports a cache hit. Store
// failures are logged and bypassed.
//
// A shared load is detached from the cancellation of the caller that
// started it and bounded by its own timeout instead. Each caller stops
// waiting when its own ctx is done.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load Loader) (domain.CitationSelection, bool, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		return c.getOrLoad(loadCtx, key, load)
	})

	var res singleflight.Result

	select {
	case <-ctx.Done():
		return domain.CitationSelection{}, false, ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		return domain.CitationSelection{}, false, res.Err
	}

	out, ok := res.Val.(cacheOutcome)
	if !ok {
		return domain.CitationSelection{}, false, fmt.Errorf("citation cache: unexpected result %T", res.Val)
	}

	return cloneSelection(out.sel), out.hit, nil
}

func (c *Cache) getOrLoad(ctx context.Context, key string, load Loader) (cacheOutcome, error) {
	cached, err := c.store.GetCitations(ctx, key, c.now().Add(-c.ttl))

	switch {
	case err == nil && len(cached.Citations) > 0:
		observability.CitationCacheLookups.WithLabelValues(cacheResultHit).Inc()

		return cacheOutcome{sel: cached, hit: true}, nil
	case err == nil, errors.Is(err, apperrors.ErrCacheNotFound):
		observability.CitationCacheLookups.WithLabelValues(cacheResultMiss).Inc()
	default:
		observability.CitationCacheLookups.WithLabelValues(cacheResultError).Inc()
		c.logger.Warn().Err(err).Str(logKeyCacheKey, key).Msg("Citation cache read failed")
	}

	loaded, err := load(ctx)
	if err != nil {
		return cacheOutcome{}, err
	}

	if len(loaded.Citations) > 0 {
		if err := c.store.PutCitations(ctx, key, loaded, c.now()); err != nil {
			c.logger.Warn().Err(err).Str(logKeyCacheKey, key).Msg("Citation cache write failed")
		}
	}

	return cacheOutcome{sel: loaded}, nil
}

func cloneSelection(sel domain.CitationSelection) domain.CitationSelection {
	return domain.CitationSelection{Citations: cloneCitations(sel.Citations), Fallback: sel.Fallback}
}

func cloneCitations(in []domain.SelectedCitation) []domain.SelectedCitation {
	if in == nil {
		return nil
	}

	out := make([]domain.SelectedCitation, len(in))
	copy(out, in)

	return out
}

// NormalizeKey folds case, applies NFKC and collapses whitespace so that
// spelling variants of an ingredient share one cache entry.
func NormalizeKey(s string) string {
	folded := cases.Fold().String(norm.NFKC.String(s))

	return strings.Join(strings.Fields(folded), " ")
}

// CacheKey builds the key for an ingredient, qualified by goal when one is
// given.
func CacheKey(ingredient, goal string) string {
	key := NormalizeKey(ingredient)
	if g := NormalizeKey(goal); g != "" {
		key += keySeparator + g
	}

	return key
}

// MemoryStore is an in-process Store used when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	sel       domain.CitationSelection
	fetchedAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// GetCitations implements Store.
func (s *MemoryStore) GetCitations(_ context.Context, key string, notBefore time.Time) (domain.CitationSelection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.fetchedAt.Before(notBefore) {
		return domain.CitationSelection{}, apperrors.ErrCacheNotFound
	}

	return cloneSelection(e.sel), nil
}

// PutCitations implements Store.
func (s *MemoryStore) PutCitations(_ context.Context, key string, sel domain.CitationSelection, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{sel: cloneSelection(sel), fetchedAt: fetchedAt}

	return nil
}
