package config

import "time"

// DatabaseConfig holds database connection settings.
// An empty DSN selects the in-memory citation cache.
type DatabaseConfig struct {
	PostgresDSN       string        `env:"POSTGRES_DSN"`
	MaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	MinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// LLMConfig holds settings for the OpenAI-compatible generative gateway.
type LLMConfig struct {
	APIKey                  string        `env:"LLM_API_KEY"`
	BaseURL                 string        `env:"LLM_BASE_URL" envDefault:"https://ai.gateway.lovable.dev/v1"`
	Model                   string        `env:"LLM_MODEL" envDefault:"google/gemini-2.5-flash"`
	Temperature             float32       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	FilterTemperature       float32       `env:"LLM_FILTER_TEMPERATURE" envDefault:"0.2"`
	RateLimitRPS            float64       `env:"LLM_RATE_LIMIT_RPS" envDefault:"5"`
	Timeout                 time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	CircuitBreakerThreshold int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	CircuitBreakerCooldown  time.Duration `env:"LLM_CIRCUIT_COOLDOWN" envDefault:"1m"`
}

// PubMedConfig holds NCBI E-utilities settings.
type PubMedConfig struct {
	BaseURL     string        `env:"PUBMED_BASE_URL" envDefault:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	APIKey      string        `env:"PUBMED_API_KEY"`
	Tool        string        `env:"PUBMED_TOOL" envDefault:"nutrimatch"`
	Email       string        `env:"PUBMED_EMAIL"`
	MinInterval time.Duration `env:"PUBMED_MIN_INTERVAL" envDefault:"350ms"`
	Timeout     time.Duration `env:"PUBMED_TIMEOUT" envDefault:"15s"`
	MaxResults  int           `env:"PUBMED_SEARCH_MAX_RESULTS" envDefault:"20"`
}

// RecommendConfig holds recommendation pipeline settings.
type RecommendConfig struct {
	Timeout    time.Duration `env:"RECOMMEND_TIMEOUT" envDefault:"45s"`
	DraftDelay time.Duration `env:"RECOMMEND_DRAFT_DELAY" envDefault:"350ms"`
}

// CacheConfig holds citation cache settings.
type CacheConfig struct {
	TTL time.Duration `env:"CITATION_CACHE_TTL" envDefault:"720h"`
}

// APIConfig holds HTTP API settings.
// Forwarded client headers are honored only when TrustProxyHeaders is set.
type APIConfig struct {
	Port              int           `env:"HTTP_PORT" envDefault:"8080"`
	RateLimitPerMin   int           `env:"API_RATE_LIMIT_PER_MIN" envDefault:"30"`
	RateLimitBurst    int           `env:"API_RATE_LIMIT_BURST" envDefault:"10"`
	RateLimitIdleTTL  time.Duration `env:"API_RATE_LIMIT_IDLE_TTL" envDefault:"10m"`
	TrustProxyHeaders bool          `env:"API_TRUST_PROXY_HEADERS" envDefault:"false"`
	CORSAllowOrigin   string        `env:"CORS_ALLOW_ORIGIN" envDefault:"*"`
}
