package llm

import (
	"strings"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, eris.Errorf("llm: unknown provider %q (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:  modelConfig.Provider,
		Model:     modelConfig.Model,
		APIKey:    modelConfig.APIKey,
		BaseURL:   modelConfig.BaseURL,
		Timeout:   modelConfig.Timeout,
		MaxTokens: modelConfig.MaxTokens,
	}
}

// StrategyFromConfig builds the LLM analysis strategy, or nil when no provider is configured
func StrategyFromConfig(cfg model.LLMConfig) (*Strategy, error) {
	provider, err := NewProvider(ConfigFromModel(cfg))
	if err != nil || provider == nil {
		return nil, err
	}
	return NewStrategy(provider, cfg.MaxTokens), nil
}
