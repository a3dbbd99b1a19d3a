package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
)

const (
	contentTypeJSON = "application/json"
	maxBodyBytes    = 1 << 20
)

// resultField is the list field every response of an endpoint carries,
// with the value it takes on failure.
type resultField struct {
	name  string
	empty any
}

var (
	fieldSupplements  = resultField{name: "supplements", empty: []any{}}
	fieldPapers       = resultField{name: "papers", empty: []any{}}
	fieldAdvice       = resultField{name: "advice", empty: nil}
	fieldQuestions    = resultField{name: "questions", empty: []any{}}
	fieldInteractions = resultField{name: "interactions", empty: map[string]any{}}
)

// statusFor maps the error taxonomy to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, apperrors.ErrUpstreamConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, apperrors.ErrDraftGeneration):
		return http.StatusBadGateway
	case errors.Is(err, apperrors.ErrRequestTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error, field resultField) {
	logger := zerolog.Ctx(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}

	event.Err(err).Int(logKeyStatus, status).Msg("Request failed")

	writeJSON(w, r, status, map[string]any{
		"error":    err.Error(),
		field.name: field.empty,
	})
}

func writeFailure(w http.ResponseWriter, r *http.Request, err error, field resultField) {
	writeError(w, r, statusFor(err), err, field)
}

// decodeBody reads a JSON request body. Malformed input wraps
// ErrInvalidRequest.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %w", apperrors.ErrInvalidRequest, err)
	}

	return nil
}
