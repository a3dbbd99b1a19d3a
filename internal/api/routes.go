package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/process/citations"
	"github.com/lueurxax/nutrimatch/internal/process/coaching"
	"github.com/lueurxax/nutrimatch/internal/process/interactions"
	"github.com/lueurxax/nutrimatch/internal/process/progress"
	"github.com/lueurxax/nutrimatch/internal/process/recommend"
)

const defaultPaperResults = 3

type supplementsResponse struct {
	Supplements []domain.Supplement `json:"supplements"`
}

func (h *Handler) handleSupplements(w http.ResponseWriter, r *http.Request, field resultField) {
	var req recommend.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, r, err, field)
		return
	}

	supplements, err := h.svc.Recommender.Generate(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err, field)
		return
	}

	writeJSON(w, r, http.StatusOK, supplementsResponse{Supplements: supplements})
}

type papersRequest struct {
	IngredientName string `json:"ingredientName"`
	MaxResults     int    `json:"maxResults"`
}

type papersResponse struct {
	Papers    []domain.SelectedCitation `json:"papers"`
	FromCache bool                      `json:"fromCache"`
}

func (h *Handler) handlePapers(w http.ResponseWriter, r *http.Request, field resultField) {
	var req papersRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, r, err, field)
		return
	}

	ingredient := strings.TrimSpace(req.IngredientName)
	if ingredient == "" {
		writeFailure(w, r, fmt.Errorf("%w: ingredientName is required", apperrors.ErrInvalidRequest), field)
		return
	}

	limit := req.MaxResults
	if limit <= 0 || limit > citations.MaxSelected {
		limit = defaultPaperResults
	}

	res, err := h.svc.Papers.Lookup(r.Context(), citations.Query{Ingredient: ingredient})

	switch {
	case errors.Is(err, apperrors.ErrNoMatches):
		writeJSON(w, r, http.StatusOK, papersResponse{Papers: []domain.SelectedCitation{}})
		return
	case err != nil:
		writeFailure(w, r, err, field)
		return
	}

	papers := res.Citations
	if papers == nil {
		papers = []domain.SelectedCitation{}
	}

	writeJSON(w, r, http.StatusOK, papersResponse{
		Papers:    papers[:min(len(papers), limit)],
		FromCache: res.FromCache,
	})
}

type coachingResponse struct {
	Advice *coaching.Advice `json:"advice"`
}

func (h *Handler) handleCoaching(w http.ResponseWriter, r *http.Request, field resultField) {
	var req coaching.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, r, err, field)
		return
	}

	advice, err := h.svc.Coach.Advise(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err, field)
		return
	}

	writeJSON(w, r, http.StatusOK, coachingResponse{Advice: advice})
}

type questionsResponse struct {
	Questions []string `json:"questions"`
}

func (h *Handler) handleProgressQuestions(w http.ResponseWriter, r *http.Request, field resultField) {
	var req progress.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, r, err, field)
		return
	}

	questions, err := h.svc.Progress.Questions(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err, field)
		return
	}

	writeJSON(w, r, http.StatusOK, questionsResponse{Questions: questions})
}

type interactionsResponse struct {
	Interactions map[string][]interactions.Interaction `json:"interactions"`
}

func (h *Handler) handleInteractions(w http.ResponseWriter, r *http.Request, field resultField) {
	var req interactions.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, r, err, field)
		return
	}

	found, err := h.svc.Interactions.Check(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err, field)
		return
	}

	writeJSON(w, r, http.StatusOK, interactionsResponse{Interactions: found})
}
