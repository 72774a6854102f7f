// Package ai provides factory functions for creating generation providers
// and the chain that tries them in priority order.
package ai

import (
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/archon-cli/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/archon-cli/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/archon-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/archon-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of provider initialisation.
type InitResult struct {
	Chain    *Chain
	Warnings []string // Providers that were configured but could not be created.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Chain != nil {
		_ = r.Chain.Close()
	}
}

// NewChainFromSettings creates a service for every configured provider and
// orders them by domain.ProviderPriority with the preferred provider first.
// Provider construction failures are reported as warnings, not errors.
func NewChainFromSettings(settings domain.AppSettings, opts ...ChainOption) *InitResult {
	result := &InitResult{}

	configured := make(map[domain.AIProvider]domain.LLMSettings)
	for _, p := range settings.ConfiguredProviders() {
		configured[p.Provider] = p
	}

	var services []driven.LLMService
	for _, provider := range PriorityOrder(settings.PreferredProvider) {
		cfg, ok := configured[provider]
		if !ok {
			continue
		}
		svc, err := CreateLLMService(&cfg, settings.Generation.Timeout)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", provider, err))
			logger.Warn("skipping provider %s: %v", provider, err)
			continue
		}
		if svc != nil {
			services = append(services, svc)
		}
	}

	result.Chain = NewChain(services, settings.Generation, opts...)
	return result
}

// PriorityOrder returns domain.ProviderPriority with preferred moved to the front.
func PriorityOrder(preferred domain.AIProvider) []domain.AIProvider {
	out := make([]domain.AIProvider, 0, len(domain.ProviderPriority))
	if preferred.IsValid() {
		out = append(out, preferred)
	}
	for _, p := range domain.ProviderPriority {
		if p != preferred {
			out = append(out, p)
		}
	}
	return out
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured. A zero timeout uses the adapter default.
func CreateLLMService(settings *domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// fixHint names the command that repairs a provider's configuration.
func fixHint(p domain.AIProvider) string {
	if p.RequiresAPIKey() {
		return fmt.Sprintf("Run 'archon settings set-key %s' to fix", p)
	}
	return fmt.Sprintf("Check the server is running or run 'archon settings set providers.%s.base_url <url>'", p)
}
