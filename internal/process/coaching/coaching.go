// Package coaching generates training advice for a free-text question.
package coaching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/core/llm"
)

const systemPrompt = `You are an expert sports coach AI that provides personalized training advice based on YouTube video content and coaching best practices.

For each coaching question, provide advice in JSON format with these fields:
- title: Short title for the coaching advice
- mainAdvice: 3-4 sentence overview of the main coaching point
- personalizedReason: 2-3 sentences explaining why this approach suits the user's profile
- techniqueTips: Array of 4-5 specific technique tips
- commonMistakes: Array of 3-4 common mistakes to avoid
- progressionSteps: Array of 4-5 progressive steps to improve
- youtubeVideos: Array of 3 relevant videos, each with:
  - title: Video title
  - channel: Channel name
  - url: YouTube URL (use realistic format)
  - relevantTimestamp: Time to start watching (e.g., "2:15")
  - keyTakeaway: One sentence summarizing what to learn from this video
- equipmentNeeded: Array of equipment items needed (can be empty)

Reference real coaching concepts from popular YouTube channels. Make recommendations specific and actionable.
Return ONLY valid JSON with no markdown formatting.`

// Video is a referenced coaching video.
type Video struct {
	Title             string `json:"title"`
	Channel           string `json:"channel"`
	URL               string `json:"url"`
	RelevantTimestamp string `json:"relevantTimestamp"`
	KeyTakeaway       string `json:"keyTakeaway"`
}

// Advice is generated coaching guidance.
type Advice struct {
	Title              string   `json:"title"`
	MainAdvice         string   `json:"mainAdvice"`
	PersonalizedReason string   `json:"personalizedReason"`
	TechniqueTips      []string `json:"techniqueTips"`
	CommonMistakes     []string `json:"commonMistakes"`
	ProgressionSteps   []string `json:"progressionSteps"`
	YouTubeVideos      []Video  `json:"youtubeVideos"`
	EquipmentNeeded    []string `json:"equipmentNeeded"`
}

// Request is a coaching question with an optional profile.
type Request struct {
	Query   string          `json:"query"`
	Profile *domain.Profile `json:"profile,omitempty"`
}

// Service produces coaching advice.
type Service struct {
	client      llm.Client
	model       string
	temperature float32
	logger      *zerolog.Logger
}

// New creates a coaching service.
func New(client llm.Client, model string, temperature float32, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Service{client: client, model: model, temperature: temperature, logger: logger}
}

// Advise answers one coaching question.
func (s *Service) Advise(ctx context.Context, req Request) (*Advice, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", apperrors.ErrInvalidRequest)
	}

	content, err := s.client.Complete(ctx, llm.Request{
		Task:        llm.TaskCoaching,
		System:      systemPrompt,
		User:        buildPrompt(query, req.Profile),
		Model:       s.model,
		Temperature: s.temperature,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrUpstreamConfiguration) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: coaching: %w", apperrors.ErrDraftGeneration, err)
	}

	var advice Advice
	if err := llm.DecodeJSON(content, &advice); err != nil {
		s.logger.Error().Err(err).Msg("Failed to decode coaching advice")

		return nil, fmt.Errorf("%w: coaching: %w", apperrors.ErrDraftGeneration, err)
	}

	if strings.TrimSpace(advice.MainAdvice) == "" && strings.TrimSpace(advice.Title) == "" {
		return nil, fmt.Errorf("%w: coaching advice is empty", apperrors.ErrDraftGeneration)
	}

	advice.normalize()

	return &advice, nil
}

func (a *Advice) normalize() {
	for _, list := range []*[]string{&a.TechniqueTips, &a.CommonMistakes, &a.ProgressionSteps, &a.EquipmentNeeded} {
		if *list == nil {
			*list = []string{}
		}
	}

	if a.YouTubeVideos == nil {
		a.YouTubeVideos = []Video{}
	}
}

func buildPrompt(query string, profile *domain.Profile) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Provide coaching advice for: %q\n\n", query)
	sb.WriteString("Act as if you've analyzed expert YouTube coaching videos on this topic. ")
	sb.WriteString("Reference techniques and drills that would realistically appear in top coaching channels.")

	if !profile.Empty() {
		sb.WriteString("\n\nUser Profile Context:\n")
		sb.WriteString(profile.Describe())
		sb.WriteString("\nConsider this profile when providing coaching advice. Adjust technique recommendations based on age and activity level.")
	}

	return sb.String()
}
