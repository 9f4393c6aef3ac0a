package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fundsight/analyst/internal/models"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. ANALYST_AGENT_MAX_ROUND_TRIPS.
const EnvPrefix = "ANALYST"

type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Model     ModelConfig     `mapstructure:"model"`
	Agent     AgentConfig     `mapstructure:"agent"`
	News      NewsConfig      `mapstructure:"news"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Audit     AuditConfig     `mapstructure:"audit"`
}

// ModelConfig selects and tunes the reasoning model backend.
type ModelConfig struct {
	Provider    string        `mapstructure:"provider"` // "anthropic" | "openai"
	Name        string        `mapstructure:"name"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"` // override for compatible proxies
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

type AgentConfig struct {
	MaxRoundTrips   int  `mapstructure:"max_round_trips"`
	MaxPromptLength int  `mapstructure:"max_prompt_length"`
	Verbose         bool `mapstructure:"verbose"`
}

type NewsConfig struct {
	MaxResults    int     `mapstructure:"max_results"`
	Region        string  `mapstructure:"region"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

type ProvidersConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	YahooBaseURL   string        `mapstructure:"yahoo_base_url"`
	YahooCookieURL string        `mapstructure:"yahoo_cookie_url"`
	DuckDuckGoURL  string        `mapstructure:"duckduckgo_url"`
	// FundamentalsCacheTTL is how long a successful lookup is reused; 0 disables.
	FundamentalsCacheTTL time.Duration `mapstructure:"fundamentals_cache_ttl"`
}

type AuditConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	InputCostPerMTok  float64 `mapstructure:"input_cost_per_mtok"`
	OutputCostPerMTok float64 `mapstructure:"output_cost_per_mtok"`
}

// Load builds the configuration from defaults, an optional file named by
// ANALYST_CONFIG (YAML, JSON or TOML) and ANALYST_* environment overrides.
// The provider credential falls back to the provider's conventional variable.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := getEnv(EnvPrefix+"_CONFIG", ""); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", models.ErrConfiguration, path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", models.ErrConfiguration, err)
	}

	applyProviderDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetDefault("model.provider", DefaultModelProvider)
	v.SetDefault("model.name", "")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.max_tokens", DefaultModelMaxTokens)
	v.SetDefault("model.temperature", DefaultModelTemperature)
	v.SetDefault("model.timeout", DefaultModelTimeout)
	v.SetDefault("model.max_retries", DefaultModelMaxRetries)

	v.SetDefault("agent.max_round_trips", DefaultMaxRoundTrips)
	v.SetDefault("agent.max_prompt_length", DefaultMaxPromptLength)
	v.SetDefault("agent.verbose", false)

	v.SetDefault("news.max_results", DefaultNewsMaxResults)
	v.SetDefault("news.region", DefaultNewsRegion)
	v.SetDefault("news.rate_per_second", DefaultNewsRatePerSec)

	v.SetDefault("providers.timeout", DefaultProviderTimeout)
	v.SetDefault("providers.user_agent", DefaultUserAgent)
	v.SetDefault("providers.yahoo_base_url", DefaultYahooBaseURL)
	v.SetDefault("providers.yahoo_cookie_url", DefaultYahooCookieURL)
	v.SetDefault("providers.duckduckgo_url", DefaultDuckDuckGoURL)
	v.SetDefault("providers.fundamentals_cache_ttl", DefaultFundamentalsCacheTTL)

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.input_cost_per_mtok", DefaultInputCostPerMTok)
	v.SetDefault("audit.output_cost_per_mtok", DefaultOutputCostPerMTok)
}

func applyProviderDefaults(cfg *Config) {
	cfg.Model.Provider = strings.ToLower(strings.TrimSpace(cfg.Model.Provider))
	if cfg.Model.Name == "" {
		switch cfg.Model.Provider {
		case ProviderOpenAI:
			cfg.Model.Name = DefaultOpenAIModel
		default:
			cfg.Model.Name = DefaultAnthropicModel
		}
	}
	if cfg.Model.APIKey == "" {
		if env, ok := credentialEnv[cfg.Model.Provider]; ok {
			cfg.Model.APIKey = getEnv(env, "")
		}
	}
}

// Validate checks settings that would otherwise fail deep inside a query.
// A missing credential is not an error here; see EnsureCredential.
func (c *Config) Validate() error {
	if _, ok := credentialEnv[c.Model.Provider]; !ok {
		return fmt.Errorf("%w: unknown model provider %q", models.ErrConfiguration, c.Model.Provider)
	}
	if c.Agent.MaxRoundTrips < 1 {
		return fmt.Errorf("%w: agent.max_round_trips must be >= 1, got %d", models.ErrConfiguration, c.Agent.MaxRoundTrips)
	}
	if c.News.MaxResults < 1 || c.News.MaxResults > MaxNewsResults {
		return fmt.Errorf("%w: news.max_results must be in [1, %d], got %d", models.ErrConfiguration, MaxNewsResults, c.News.MaxResults)
	}
	if c.Model.MaxTokens < 1 {
		return fmt.Errorf("%w: model.max_tokens must be positive", models.ErrConfiguration)
	}
	if c.Model.Timeout <= 0 || c.Providers.Timeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", models.ErrConfiguration)
	}
	return nil
}

// CredentialEnv names the environment variable consulted for the configured provider.
func (c *Config) CredentialEnv() string {
	return credentialEnv[c.Model.Provider]
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
