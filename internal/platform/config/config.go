package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const appEnvLocal = "local"

var errInvalidConfig = errors.New("invalid config")

// Legacy variable names accepted when the primary ones are unset.
const (
	legacyLLMAPIKey    = "LOVABLE_API_KEY"
	legacyPubMedAPIKey = "NCBI_API_KEY"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Database  DatabaseConfig
	LLM       LLMConfig
	PubMed    PubMedConfig
	Recommend RecommendConfig
	Cache     CacheConfig
	API       APIConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyLegacyAliases(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsLocal reports whether the service runs in a developer environment.
func (c *Config) IsLocal() bool {
	return c.AppEnv == appEnvLocal
}

// CacheEnabled reports whether citation lookups are persisted to Postgres.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.Database.PostgresDSN) != ""
}

// Validate rejects settings that would break pacing or timeouts.
func (c *Config) Validate() error {
	if c.PubMed.MinInterval < 0 || c.Recommend.DraftDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", errInvalidConfig)
	}

	if c.PubMed.MaxResults <= 0 {
		return fmt.Errorf("%w: PUBMED_SEARCH_MAX_RESULTS must be positive", errInvalidConfig)
	}

	if c.Recommend.Timeout <= 0 {
		return fmt.Errorf("%w: RECOMMEND_TIMEOUT must be positive", errInvalidConfig)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("%w: CITATION_CACHE_TTL must be positive", errInvalidConfig)
	}

	return nil
}

func applyLegacyAliases(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		setStringFromEnv(legacyLLMAPIKey, &cfg.LLM.APIKey)
	}

	if cfg.PubMed.APIKey == "" {
		setStringFromEnv(legacyPubMedAPIKey, &cfg.PubMed.APIKey)
	}
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}
