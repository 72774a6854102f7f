package driving

import "github.com/custodia-labs/archon-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// SetLLMProvider configures one provider's model and API key.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetPreferredProvider selects the provider tried first.
	SetPreferredProvider(provider domain.AIProvider) error

	// Set stores a raw configuration value by dot key.
	Set(key string, value any) error

	// Validate checks that settings are well formed.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateLLMConfig pings the given provider with current settings.
	ValidateLLMConfig(provider domain.AIProvider) error

	// ConfigPath returns the configuration file path.
	ConfigPath() string
}
