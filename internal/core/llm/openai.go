package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/nutrimatch/internal/core/errors"
	"github.com/lueurxax/nutrimatch/internal/platform/config"
	"github.com/lueurxax/nutrimatch/internal/platform/observability"
)

type openaiClient struct {
	cfg         config.LLMConfig
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter

	// Circuit breaker state
	threshold           int
	cooldown            time.Duration
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

// NewOpenAI creates a client for an OpenAI-compatible chat gateway. A
// missing API key is reported by Complete, not here, so the service can
// start and surface the misconfiguration per request.
func NewOpenAI(cfg config.LLMConfig, logger *zerolog.Logger) Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = defaultRateLimitRPS
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	threshold := cfg.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = circuitBreakerThreshold
	}

	cooldown := cfg.CircuitBreakerCooldown
	if cooldown <= 0 {
		cooldown = circuitBreakerTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &openaiClient{
		cfg:         cfg,
		client:      openai.NewClientWithConfig(clientCfg),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
		threshold:   threshold,
		cooldown:    cooldown,
	}
}

func (c *openaiClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("%w until %v", apperrors.ErrCircuitBreakerOpen, c.circuitOpenUntil)
	}

	return nil
}

func (c *openaiClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures = 0
}

func (c *openaiClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures >= c.threshold {
		c.circuitOpenUntil = time.Now().Add(c.cooldown)
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("Circuit breaker opened")
	}
}

func (c *openaiClient) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", fmt.Errorf("%w: LLM_API_KEY is not configured", apperrors.ErrUpstreamConfiguration)
	}

	if err := c.checkCircuit(); err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	model := c.resolveModel(req.Model)
	start := time.Now()
	status := statusError

	defer func() {
		observability.LLMRequestDuration.WithLabelValues(string(req.Task)).Observe(time.Since(start).Seconds())
		observability.LLMRequests.WithLabelValues(string(req.Task), status).Inc()
	}()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}

	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.resolveTemperature(req.Temperature),
	})
	if err != nil {
		c.recordFailure()

		return "", fmt.Errorf(errOpenAIChatCompletion, err)
	}

	c.recordSuccess()

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s completion: %w", req.Task, apperrors.ErrEmptyResponse)
	}

	status = statusOK
	content := resp.Choices[0].Message.Content

	c.logger.Debug().
		Str(logKeyTask, string(req.Task)).
		Str(logKeyModel, model).
		Str(logKeyResponse, truncate(content, maxLoggedResponse)).
		Msg("LLM response")

	return content, nil
}

func (c *openaiClient) resolveModel(model string) string {
	if model == "" {
		model = c.cfg.Model
	}

	if model == "" {
		model = defaultModel
	}

	return model
}

func (c *openaiClient) resolveTemperature(t float32) float32 {
	if t > 0 {
		return t
	}

	if c.cfg.Temperature > 0 {
		return c.cfg.Temperature
	}

	return defaultTemperature
}
