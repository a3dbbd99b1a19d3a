// Package api serves the recommendation HTTP endpoints.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
	"github.com/lueurxax/nutrimatch/internal/platform/config"
	"github.com/lueurxax/nutrimatch/internal/process/citations"
	"github.com/lueurxax/nutrimatch/internal/process/coaching"
	"github.com/lueurxax/nutrimatch/internal/process/interactions"
	"github.com/lueurxax/nutrimatch/internal/process/progress"
	"github.com/lueurxax/nutrimatch/internal/process/recommend"
)

// Route paths.
const (
	PathSupplements       = "/v1/supplements"
	PathPapers            = "/v1/papers"
	PathCoaching          = "/v1/coaching"
	PathProgressQuestions = "/v1/progress-questions"
	PathInteractions      = "/v1/interactions"
)

// Recommender generates enriched supplement recommendations.
type Recommender interface {
	Generate(ctx context.Context, req recommend.Request) ([]domain.Supplement, error)
}

// PaperFinder looks up citations for one ingredient.
type PaperFinder interface {
	Lookup(ctx context.Context, q citations.Query) (citations.Result, error)
}

// Coach answers coaching questions.
type Coach interface {
	Advise(ctx context.Context, req coaching.Request) (*coaching.Advice, error)
}

// QuestionWriter writes progress journal questions.
type QuestionWriter interface {
	Questions(ctx context.Context, req progress.Request) ([]string, error)
}

// InteractionChecker reports known supplement interactions.
type InteractionChecker interface {
	Check(ctx context.Context, req interactions.Request) (map[string][]interactions.Interaction, error)
}

// Services are the backends of the API. A nil service leaves its route
// unregistered.
type Services struct {
	Recommender  Recommender
	Papers       PaperFinder
	Coach        Coach
	Progress     QuestionWriter
	Interactions InteractionChecker
}

// Handler routes API requests.
type Handler struct {
	cfg    config.APIConfig
	svc    Services
	mux    *http.ServeMux
	logger *zerolog.Logger

	// IP-based rate limiting
	limiters   map[string]*clientLimiter
	limitersMu sync.Mutex
	lastSweep  time.Time
	now        func() time.Time
}

// NewHandler creates the API handler.
func NewHandler(cfg config.APIConfig, svc Services, logger *zerolog.Logger) *Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	h := &Handler{
		cfg:      cfg,
		svc:      svc,
		mux:      http.NewServeMux(),
		logger:   logger,
		limiters: make(map[string]*clientLimiter),
		now:      time.Now,
	}

	if svc.Recommender != nil {
		h.route(PathSupplements, fieldSupplements, h.handleSupplements)
	}

	if svc.Papers != nil {
		h.route(PathPapers, fieldPapers, h.handlePapers)
	}

	if svc.Coach != nil {
		h.route(PathCoaching, fieldAdvice, h.handleCoaching)
	}

	if svc.Progress != nil {
		h.route(PathProgressQuestions, fieldQuestions, h.handleProgressQuestions)
	}

	if svc.Interactions != nil {
		h.route(PathInteractions, fieldInteractions, h.handleInteractions)
	}

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type endpointFunc func(w http.ResponseWriter, r *http.Request, field resultField)

func (h *Handler) route(path string, field resultField, fn endpointFunc) {
	h.mux.Handle(path, h.instrument(path, h.withRequestID(h.withCORS(h.withRateLimit(field, h.postOnly(field, fn))))))
}
