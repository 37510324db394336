package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/maktabalabs/maktaba/internal/model"
)

// NewProvider creates a completion provider based on configuration.
// An empty provider name disables generation and returns (nil, nil).
func NewProvider(config model.LLMConfig) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		p, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		return p, nil

	case "anthropic", "claude":
		p, err := NewAnthropicProvider(config)
		if err != nil {
			return nil, err
		}
		return p, nil

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic)", config.Provider)
	}
}

// ResolveAPIKey fills the API key from the conventional environment
// variable when the config left it empty.
func ResolveAPIKey(config *model.LLMConfig) error {
	if config.APIKey != "" || config.Provider == "" {
		return nil
	}

	switch strings.ToLower(config.Provider) {
	case "openai":
		config.APIKey = os.Getenv("OPENAI_API_KEY")
		if config.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		config.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if config.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	}

	return nil
}
