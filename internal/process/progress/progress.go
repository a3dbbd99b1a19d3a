// Package progress generates daily journal questions for tracking a
// supplement against a health goal.
package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/core/llm"
)

const (
	// MaxQuestions caps the returned question list.
	MaxQuestions = 5

	defaultTemperature = 0.6
)

// Request names the goal and the supplement being tracked.
type Request struct {
	HealthGoal     string `json:"healthGoal"`
	SupplementName string `json:"supplementName"`
}

// Service produces progress questions.
type Service struct {
	client      llm.Client
	model       string
	temperature float32
	logger      *zerolog.Logger
}

// New creates a progress question service. A zero temperature selects 0.6.
func New(client llm.Client, model string, temperature float32, logger *zerolog.Logger) *Service {
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Service{client: client, model: model, temperature: temperature, logger: logger}
}

// Questions returns up to MaxQuestions short journal questions.
func (s *Service) Questions(ctx context.Context, req Request) ([]string, error) {
	goal := strings.TrimSpace(req.HealthGoal)
	supplement := strings.TrimSpace(req.SupplementName)

	if goal == "" || supplement == "" {
		return nil, fmt.Errorf("%w: healthGoal and supplementName are required", apperrors.ErrInvalidRequest)
	}

	content, err := s.client.Complete(ctx, llm.Request{
		Task:        llm.TaskProgress,
		User:        buildPrompt(goal, supplement),
		Model:       s.model,
		Temperature: s.temperature,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrUpstreamConfiguration) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: progress questions: %w", apperrors.ErrDraftGeneration, err)
	}

	var parsed struct {
		Questions []string `json:"questions"`
	}

	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("%w: progress questions: %w", apperrors.ErrDraftGeneration, err)
	}

	if parsed.Questions == nil {
		s.logger.Warn().Msg("Progress response has no questions array")

		return nil, fmt.Errorf("%w: no questions array", apperrors.ErrDraftGeneration)
	}

	questions := make([]string, 0, MaxQuestions)

	for _, q := range parsed.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}

		if len(questions) == MaxQuestions {
			break
		}
	}

	return questions, nil
}

func buildPrompt(goal, supplement string) string {
	return fmt.Sprintf(`You are designing a tiny daily progress journal for a person using the supplement %[1]q to help with %[2]q.

Goal: create 3-5 SHORT, concrete questions they can answer each day to track how this supplement is affecting their specific problem.

Rules:
- Questions must be specific to %[2]q (e.g., hair shedding, joint pain, sleep quality), not generic mood questions.
- Use simple language that a non-medical person understands.
- Focus on symptoms, function, and quality of life (e.g., pain, energy, confidence, sleep, daily activities).
- Include at least one question about side effects or new symptoms.
- Each question should fit on one line.

Return ONLY valid JSON in this shape (no extra text, no markdown):
{
  "questions": [
    "question 1",
    "question 2",
    "question 3"
  ]
}`, supplement, goal)
}
