package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks a provider entry before it is relied on, as
// `settings set-key --validate` does. Unlike chain construction it treats a
// missing key as an error rather than a provider to skip.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator that waits up to the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// WithTimeout returns a copy of v that waits up to d for the provider to answer.
func (v *ConfigValidator) WithTimeout(d time.Duration) *ConfigValidator {
	return &ConfigValidator{timeout: d}
}

// ValidateLLM creates the provider's client and pings it. A nil config has
// nothing to check.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if config == nil {
		return nil
	}
	if !config.Provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidConfig, config.Provider)
	}
	if !config.IsConfigured() {
		return fmt.Errorf("%w: %s has no API key. %s", domain.ErrInvalidConfig, config.Provider, fixHint(config.Provider))
	}

	svc, err := CreateLLMService(config, v.timeout)
	if err != nil {
		return fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint(config.Provider))
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%s %s: %w", config.Provider, svc.ModelName(), err)
	}
	return nil
}
