// Package recommend drafts supplement recommendations and enriches each
// one with literature citations.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/core/llm"
	"github.com/lueurxax/nutrimatch/internal/platform/observability"
	"github.com/lueurxax/nutrimatch/internal/platform/worker"
	"github.com/lueurxax/nutrimatch/internal/process/citations"
	"github.com/lueurxax/nutrimatch/internal/process/dedup"
)

const (
	// DefaultDraftDelay is the pause between the enrichment of two drafts.
	DefaultDraftDelay = 350 * time.Millisecond
	// DefaultTimeout bounds one whole request.
	DefaultTimeout = 45 * time.Second

	outcomeEnriched    = "enriched"
	outcomePlaceholder = "placeholder"
	outcomeReused      = "reused"

	logKeyDraft      = "draft"
	logKeyIngredient = "ingredient"
	logKeyCitations  = "citations"
	logKeyFromCache  = "from_cache"
	logKeyFallback   = "fallback"
)

// CitationSource looks up citations for one ingredient and goal.
type CitationSource interface {
	Lookup(ctx context.Context, q citations.Query) (citations.Result, error)
}

// Request is one recommendation request.
type Request struct {
	Query   string            `json:"query"`
	Answers map[string]string `json:"answers,omitempty"`
	Profile *domain.Profile   `json:"profile,omitempty"`
}

// Config tunes a Generator.
type Config struct {
	Model       string
	Temperature float32
	DraftDelay  time.Duration
	Timeout     time.Duration
}

// Generator runs draft, sequential enrichment and grading for a request.
type Generator struct {
	client llm.Client
	source CitationSource
	cfg    Config
	sleep  func(ctx context.Context, d time.Duration) error
	logger *zerolog.Logger
}

// NewGenerator creates a generator. source may be nil, in which case drafts
// keep their generated placeholder citations.
func NewGenerator(client llm.Client, source CitationSource, cfg Config, logger *zerolog.Logger) *Generator {
	if cfg.DraftDelay <= 0 {
		cfg.DraftDelay = DefaultDraftDelay
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Generator{
		client: client,
		source: source,
		cfg:    cfg,
		sleep:  worker.Wait,
		logger: logger,
	}
}

// Generate returns exactly DraftCount enriched recommendations in draft
// order. Only invalid input, missing credentials, draft failures and the
// request deadline produce an error; citation problems degrade the
// affected recommendation.
func (g *Generator) Generate(ctx context.Context, req Request) ([]domain.Supplement, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, fmt.Errorf("%w: query is required", apperrors.ErrInvalidRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	drafts, err := g.draft(ctx, req)
	if err != nil {
		return nil, err
	}

	ledger := dedup.NewLedger(g.logger)

	for i := range drafts {
		if i > 0 {
			if err := g.sleep(ctx, g.cfg.DraftDelay); err != nil {
				return nil, timeoutError(err)
			}
		}

		if err := g.enrich(ctx, i, &drafts[i], req.Query, ledger); err != nil {
			return nil, err
		}
	}

	return drafts, nil
}

func (g *Generator) draft(ctx context.Context, req Request) ([]domain.Supplement, error) {
	content, err := g.client.Complete(ctx, llm.Request{
		Task:        llm.TaskDrafts,
		System:      draftSystemPrompt,
		User:        buildDraftPrompt(req),
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
	})

	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUpstreamConfiguration):
		return nil, err
	case ctx.Err() != nil:
		return nil, timeoutError(ctx.Err())
	default:
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDraftGeneration, err)
	}

	drafts, err := decodeDrafts(content)
	if err != nil {
		g.logger.Error().Err(err).Msg("Failed to decode recommendation drafts")

		return nil, err
	}

	return drafts, nil
}

// enrich attaches citations to one draft. Recoverable lookup failures
// leave the draft placeholders in place; fatal ones and the request
// deadline abort the request.
func (g *Generator) enrich(ctx context.Context, idx int, s *domain.Supplement, goal string, ledger *dedup.Ledger) error {
	ingredient := s.PrimaryIngredient()
	logger := g.logger.With().Int(logKeyDraft, idx+1).Str(logKeyIngredient, ingredient).Logger()

	if g.source == nil {
		g.keepPlaceholders(s)

		return nil
	}

	res, err := g.source.Lookup(ctx, citations.Query{
		Ingredient: ingredient,
		Goal:       goal,
		Exclude:    ledger,
	})
	if err != nil {
		if ctx.Err() != nil {
			return timeoutError(ctx.Err())
		}

		if apperrors.Fatal(err) {
			return err
		}

		logger.Warn().Err(err).Msg("Citation lookup failed, keeping draft citations")
		g.keepPlaceholders(s)

		return nil
	}

	selected, reusedSelected := ledger.FreshOrAllSelected(res.Citations)
	selected = selected[:min(len(selected), citations.MaxSelected)]
	reused := res.Reused || reusedSelected

	if len(selected) == 0 {
		g.keepPlaceholders(s)

		return nil
	}

	ledger.Reserve(domain.PMIDs(selected))
	s.AttachCitations(selected)

	outcome := outcomeEnriched
	if reused {
		outcome = outcomeReused
	}

	observability.DraftEnrichments.WithLabelValues(outcome).Inc()
	logger.Debug().
		Int(logKeyCitations, len(selected)).
		Bool(logKeyFromCache, res.FromCache).
		Bool(logKeyFallback, res.Fallback).
		Msg("Draft enriched")

	return nil
}

func (g *Generator) keepPlaceholders(s *domain.Supplement) {
	s.KeepPlaceholders()
	observability.DraftEnrichments.WithLabelValues(outcomePlaceholder).Inc()
}

func timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", apperrors.ErrRequestTimeout, err)
	}

	return err
}
