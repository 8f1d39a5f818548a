package llm

import (
	"fmt"
	"strings"

	"github.com/planproof/planproof/internal/model"
)

// NewProvider creates an inference provider based on configuration.
// An empty provider name returns nil: inference is disabled and the caller
// must not build an extractor.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown inference provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:       mc.Provider,
		Model:          mc.Model,
		APIKey:         mc.APIKey,
		BaseURL:        mc.BaseURL,
		Timeout:        mc.Timeout,
		MaxTokens:      mc.MaxTokens,
		RequestRetries: mc.RequestRetries,
		HTTPProxy:      mc.HTTPProxy,
		HTTPSProxy:     mc.HTTPSProxy,
		NoProxy:        mc.NoProxy,
	}
}
