package config

import "time"

const (
	DefaultLogLevel = "warn"

	DefaultModelProvider    = ProviderAnthropic
	DefaultAnthropicModel   = "claude-sonnet-4-6"
	DefaultOpenAIModel      = "gpt-4o"
	DefaultModelMaxTokens   = 4096
	DefaultModelTemperature = 0.0
	DefaultModelTimeout     = 60 * time.Second
	DefaultModelMaxRetries  = 3

	DefaultMaxRoundTrips   = 8
	DefaultMaxPromptLength = 2000

	DefaultNewsMaxResults = 3
	MaxNewsResults        = 10
	DefaultNewsRegion     = "us-en"
	DefaultNewsRatePerSec = 1.0

	DefaultProviderTimeout      = 15 * time.Second
	DefaultFundamentalsCacheTTL = time.Minute
	DefaultUserAgent            = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultYahooBaseURL         = "https://query2.finance.yahoo.com"
	DefaultYahooCookieURL       = "https://fc.yahoo.com"
	DefaultDuckDuckGoURL        = "https://html.duckduckgo.com/html/"

	// USD per million tokens, used only for the usage log line.
	DefaultInputCostPerMTok  = 3.0
	DefaultOutputCostPerMTok = 15.0
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// credentialEnv maps a model provider to the environment variable holding its key.
var credentialEnv = map[string]string{
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
}
