package llm

import "time"

// Error message templates
const (
	errRateLimiter          = "rate limiter error: %w"
	errOpenAIChatCompletion = "openai chat completion error: %w"
)

const (
	rateLimiterBurst        = 5
	defaultRateLimitRPS     = 5
	defaultTimeout          = 30 * time.Second
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute
	defaultModel            = "google/gemini-2.5-flash"
	defaultTemperature      = 0.7
)

// Log key strings
const (
	logKeyTask     = "task"
	logKeyModel    = "model"
	logKeyResponse = "response"
)

const (
	statusOK    = "ok"
	statusError = "error"
)
