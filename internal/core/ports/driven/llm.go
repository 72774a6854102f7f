package driven

import (
	"context"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// LLMService is one text-generation back-end.
//
// Implementations include:
//   - OpenAI (GPT-4)
//   - Anthropic (Claude)
//   - Gemini
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*domain.Generation, error)

	// Provider identifies the back-end.
	Provider() domain.AIProvider

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Generator is the single generation capability the synthesis engine depends on.
// Implementations try their providers in a fixed priority order and return the first success.
type Generator interface {
	// Generate returns the first successful provider response.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*domain.Generation, error)

	// IsAvailable reports whether at least one provider can be tried.
	IsAvailable(ctx context.Context) bool
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// SystemPrompt is sent as the system message where the provider supports one.
	SystemPrompt string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string

	// JSON asks the provider for a JSON object response where supported.
	JSON bool
}
