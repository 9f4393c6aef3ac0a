package agent

import (
	"fmt"

	"github.com/fundsight/analyst/internal/config"
	"github.com/fundsight/analyst/internal/models"
)

// NewDecider builds the backend named by cfg.Provider with the analyst persona.
func NewDecider(cfg config.ModelConfig) (Decider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key is empty", models.ErrConfiguration, cfg.Provider)
	}
	switch cfg.Provider {
	case config.ProviderAnthropic, "":
		return NewAnthropicDecider(cfg, SystemPrompt), nil
	case config.ProviderOpenAI:
		return NewOpenAIDecider(cfg, SystemPrompt), nil
	default:
		return nil, fmt.Errorf("%w: unknown model provider %q", models.ErrConfiguration, cfg.Provider)
	}
}
