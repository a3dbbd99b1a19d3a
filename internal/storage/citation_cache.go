package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
)

// GetCitations returns the cached selection for key if it was fetched at or
// after notBefore.
func (db *DB) GetCitations(ctx context.Context, key string, notBefore time.Time) (domain.CitationSelection, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT payload, fallback
		FROM citation_cache
		WHERE cache_key = $1 AND fetched_at >= $2
	`, key, notBefore)

	var (
		payload  []byte
		fallback bool
	)

	if err := row.Scan(&payload, &fallback); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CitationSelection{}, apperrors.ErrCacheNotFound
		}

		return domain.CitationSelection{}, fmt.Errorf("get citation cache: %w", err)
	}

	citations, err := decodeCitations(payload)
	if err != nil {
		return domain.CitationSelection{}, fmt.Errorf("decode citation cache %q: %w", key, err)
	}

	return domain.CitationSelection{Citations: citations, Fallback: fallback}, nil
}

// PutCitations stores the selection for key, replacing any previous entry.
func (db *DB) PutCitations(ctx context.Context, key string, sel domain.CitationSelection, fetchedAt time.Time) error {
	payload, err := encodeCitations(sel.Citations)
	if err != nil {
		return fmt.Errorf("encode citation cache: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO citation_cache (cache_key, payload, fallback, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			fallback = EXCLUDED.fallback,
			fetched_at = EXCLUDED.fetched_at
	`, key, payload, sel.Fallback, fetchedAt)
	if err != nil {
		return fmt.Errorf("upsert citation cache: %w", err)
	}

	return nil
}

// DeleteStaleCitations removes entries fetched before cutoff.
func (db *DB) DeleteStaleCitations(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM citation_cache WHERE fetched_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale citations: %w", err)
	}

	return tag.RowsAffected(), nil
}

func encodeCitations(citations []domain.SelectedCitation) ([]byte, error) {
	if citations == nil {
		citations = []domain.SelectedCitation{}
	}

	return json.Marshal(citations)
}

func decodeCitations(payload []byte) ([]domain.SelectedCitation, error) {
	var citations []domain.SelectedCitation
	if err := json.Unmarshal(payload, &citations); err != nil {
		return nil, err
	}

	return citations, nil
}
