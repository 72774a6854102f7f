package driven

import "github.com/custodia-labs/archon-cli/internal/core/domain"

// AIConfigValidator checks a single provider entry before settings commit to it.
type AIConfigValidator interface {
	// ValidateLLM builds a client for config and pings it. A nil config is
	// valid. A missing API key or an unknown provider yields ErrInvalidConfig;
	// an unreachable provider or unpulled model yields ErrLLMUnavailable.
	ValidateLLM(config *domain.LLMSettings) error
}
