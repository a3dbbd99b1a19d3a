// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires configuration, storage, external clients and services
// together and exposes the operational modes of the binary:
//
//   - Serve: HTTP API with health checks and metrics
//   - Papers: one-off citation lookup for an ingredient
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/nutrimatch/internal/api"
	"github.com/lueurxax/nutrimatch/internal/core/llm"
	"github.com/lueurxax/nutrimatch/internal/core/pubmed"
	"github.com/lueurxax/nutrimatch/internal/platform/config"
	"github.com/lueurxax/nutrimatch/internal/platform/observability"
	"github.com/lueurxax/nutrimatch/internal/platform/worker"
	"github.com/lueurxax/nutrimatch/internal/process/citations"
	"github.com/lueurxax/nutrimatch/internal/process/coaching"
	"github.com/lueurxax/nutrimatch/internal/process/interactions"
	"github.com/lueurxax/nutrimatch/internal/process/progress"
	"github.com/lueurxax/nutrimatch/internal/process/recommend"
	db "github.com/lueurxax/nutrimatch/internal/storage"
)

const (
	cachePruneInterval = 6 * time.Hour
	cachePruneTimeout  = time.Minute

	logFieldDeleted = "deleted"
	logFieldStore   = "store"
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger

	llmClient llm.Client
	retriever *citations.Retriever
}

// New creates a new App instance. database may be nil, in which case
// citation selections are cached in memory.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	a := &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}

	a.llmClient = llm.NewOpenAI(cfg.LLM, a.componentLogger("llm"))
	a.retriever = a.newRetriever()

	return a
}

func (a *App) componentLogger(name string) *zerolog.Logger {
	l := a.logger.With().Str("component", name).Logger()

	return &l
}

func (a *App) newRetriever() *citations.Retriever {
	client := pubmed.New(pubmed.Config{
		BaseURL:     a.cfg.PubMed.BaseURL,
		APIKey:      a.cfg.PubMed.APIKey,
		Tool:        a.cfg.PubMed.Tool,
		Email:       a.cfg.PubMed.Email,
		MinInterval: a.cfg.PubMed.MinInterval,
		Timeout:     a.cfg.PubMed.Timeout,
	}, a.componentLogger("pubmed"))

	filter := citations.NewRelevanceFilter(a.llmClient, a.cfg.LLM.FilterTemperature, a.componentLogger("relevance"))

	var store citations.Store = citations.NewMemoryStore()

	storeName := "memory"
	if a.database != nil {
		store = a.database
		storeName = "postgres"
	}

	a.logger.Info().Str(logFieldStore, storeName).Msg("Citation cache configured")

	cache := citations.NewCache(store, a.cfg.Cache.TTL, a.componentLogger("citation_cache"))

	return citations.NewRetriever(client, filter, cache, a.cfg.PubMed.MaxResults, a.componentLogger("citations"))
}

// Services assembles the API backends.
func (a *App) Services() api.Services {
	return api.Services{
		Recommender: recommend.NewGenerator(a.llmClient, a.retriever, recommend.Config{
			Model:       a.cfg.LLM.Model,
			Temperature: a.cfg.LLM.Temperature,
			DraftDelay:  a.cfg.Recommend.DraftDelay,
			Timeout:     a.cfg.Recommend.Timeout,
		}, a.componentLogger("recommend")),
		Papers:       a.retriever,
		Coach:        coaching.New(a.llmClient, a.cfg.LLM.Model, a.cfg.LLM.Temperature, a.componentLogger("coaching")),
		Progress:     progress.New(a.llmClient, a.cfg.LLM.Model, 0, a.componentLogger("progress")),
		Interactions: interactions.NewChecker(),
	}
}

// RunServer serves the API, health checks and metrics until ctx is done.
func (a *App) RunServer(ctx context.Context) error {
	handler := api.NewHandler(a.cfg.API, a.Services(), a.componentLogger("api"))

	var pinger observability.Pinger
	if a.database != nil {
		pinger = a.database

		go a.runCachePruning(ctx)
	}

	srv := observability.NewServer(pinger, a.cfg.API.Port, handler, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	return nil
}

// LookupPapers runs one citation lookup.
func (a *App) LookupPapers(ctx context.Context, ingredient, goal string) (citations.Result, error) {
	return a.retriever.Lookup(ctx, citations.Query{Ingredient: ingredient, Goal: goal})
}

func (a *App) runCachePruning(ctx context.Context) {
	err := worker.Loop(ctx, worker.LoopConfig{
		Name:       "citation_cache_pruning",
		Interval:   cachePruneInterval,
		OnTick:     a.pruneCacheOnce,
		RunOnStart: true,
		Logger:     a.logger,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error().Err(err).Msg("Citation cache pruning stopped")
	}
}

func (a *App) pruneCacheOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, cachePruneTimeout)
	defer cancel()

	deleted, err := a.database.DeleteStaleCitations(ctx, time.Now().Add(-a.cfg.Cache.TTL))
	if err != nil {
		a.logger.Warn().Err(err).Msg("Citation cache pruning failed")

		return
	}

	if deleted > 0 {
		a.logger.Info().Int64(logFieldDeleted, deleted).Msg("Pruned stale citation cache entries")
	}
}
