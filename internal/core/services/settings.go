package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyPreferredProvider = "providers.preferred"

	keyGenTimeout    = "generation.timeout"
	keyGenRetries    = "generation.max_retries"
	keyGenTemp       = "generation.temperature"
	keyGenMaxTokens  = "generation.max_tokens"
	keyGenRateLimit  = "generation.requests_per_second"
	keyPipelineMode  = "pipeline.mode"
	keyChunkSize     = "pipeline.max_chunk_size"
	keyChunkOverlap  = "pipeline.chunk_overlap"
	keyOutputDir     = "build.output_dir"
	keyCmdTimeout    = "build.command_timeout"
	keyDryRun        = "build.dry_run_default"
	keyAllowShell    = "build.allow_shell_commands"
	keyCacheEnabled  = "cache.enabled"
	keyCacheTTL      = "cache.ttl"
	keyAnalysisTTL   = "cache.analysis_ttl"
	keyCacheMaxItems = "cache.max_entries"
)

// Per-provider key suffixes, under "providers.<name>.".
const (
	providerModel   = "model"
	providerBaseURL = "base_url"
	providerAPIKey  = "api_key"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARCHON_"

// valueKind is how a raw config value is parsed.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindProvider
	kindMode
)

// settingKeys lists every settable key and its kind.
var settingKeys = map[string]valueKind{
	keyPreferredProvider: kindProvider,
	keyGenTimeout:        kindDuration,
	keyGenRetries:        kindInt,
	keyGenTemp:           kindFloat,
	keyGenMaxTokens:      kindInt,
	keyGenRateLimit:      kindFloat,
	keyPipelineMode:      kindMode,
	keyChunkSize:         kindInt,
	keyChunkOverlap:      kindInt,
	keyOutputDir:         kindString,
	keyCmdTimeout:        kindDuration,
	keyDryRun:            kindBool,
	keyAllowShell:        kindBool,
	keyCacheEnabled:      kindBool,
	keyCacheTTL:          kindDuration,
	keyAnalysisTTL:       kindDuration,
	keyCacheMaxItems:     kindInt,
}

func init() {
	for _, p := range domain.ProviderPriority {
		for _, suffix := range []string{providerModel, providerBaseURL, providerAPIKey} {
			settingKeys[providerKey(p, suffix)] = kindString
		}
	}
}

// envOverrides maps environment variables to config keys. The first variable
// set for a key wins.
var envOverrides = []struct {
	key  string
	vars []string
}{
	{providerKey(domain.AIProviderOpenAI, providerAPIKey), []string{EnvPrefix + "OPENAI_API_KEY", "OPENAI_API_KEY"}},
	{providerKey(domain.AIProviderAnthropic, providerAPIKey), []string{EnvPrefix + "ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"}},
	{providerKey(domain.AIProviderGemini, providerAPIKey), []string{EnvPrefix + "GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}},
	{providerKey(domain.AIProviderOllama, providerBaseURL), []string{EnvPrefix + "OLLAMA_BASE_URL"}},
	{keyPreferredProvider, []string{EnvPrefix + "PREFERRED_PROVIDER"}},
	{keyOutputDir, []string{EnvPrefix + "OUTPUT_DIR"}},
	{keyDryRun, []string{EnvPrefix + "DRY_RUN"}},
}

func providerKey(p domain.AIProvider, suffix string) string {
	return "providers." + p.String() + "." + suffix
}

// SettingKeys returns every settable key, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
// Values resolve as environment override, then config store, then default.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	providers := make([]domain.LLMSettings, 0, len(defaults.Providers))
	for _, def := range defaults.Providers {
		p := def.Provider
		providers = append(providers, domain.LLMSettings{
			Provider: p,
			Model:    s.getString(providerKey(p, providerModel), def.Model),
			BaseURL:  s.getString(providerKey(p, providerBaseURL), def.BaseURL),
			APIKey:   s.getString(providerKey(p, providerAPIKey), ""),
		})
	}

	settings := &domain.AppSettings{
		Providers:         providers,
		PreferredProvider: s.getProvider(keyPreferredProvider),
		Generation: domain.GenerationSettings{
			Timeout:           s.getDuration(keyGenTimeout, defaults.Generation.Timeout),
			MaxRetries:        s.getInt(keyGenRetries, defaults.Generation.MaxRetries),
			Temperature:       s.getFloat(keyGenTemp, defaults.Generation.Temperature),
			MaxTokens:         s.getInt(keyGenMaxTokens, defaults.Generation.MaxTokens),
			RequestsPerSecond: s.getFloat(keyGenRateLimit, defaults.Generation.RequestsPerSecond),
		},
		Pipeline: domain.PipelineSettings{
			Mode:         s.getMode(defaults.Pipeline.Mode),
			MaxChunkSize: s.getInt(keyChunkSize, defaults.Pipeline.MaxChunkSize),
			ChunkOverlap: s.getInt(keyChunkOverlap, defaults.Pipeline.ChunkOverlap),
		},
		Build: domain.BuildSettings{
			OutputDir:          s.getString(keyOutputDir, defaults.Build.OutputDir),
			CommandTimeout:     s.getDuration(keyCmdTimeout, defaults.Build.CommandTimeout),
			DryRunDefault:      s.getBool(keyDryRun, defaults.Build.DryRunDefault),
			AllowShellCommands: s.getBool(keyAllowShell, defaults.Build.AllowShellCommands),
		},
		Cache: domain.CacheSettings{
			Enabled:     s.getBool(keyCacheEnabled, defaults.Cache.Enabled),
			TTL:         s.getDuration(keyCacheTTL, defaults.Cache.TTL),
			AnalysisTTL: s.getDuration(keyAnalysisTTL, defaults.Cache.AnalysisTTL),
			MaxEntries:  s.getInt(keyCacheMaxItems, defaults.Cache.MaxEntries),
		},
	}

	return settings, nil
}

// SetLLMProvider configures one provider's model and API key.
// Empty model or key leave the stored value unchanged.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidConfig, provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" && s.getString(providerKey(provider, providerAPIKey), "") == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidConfig, provider)
	}

	if model != "" {
		if err := s.configStore.Set(providerKey(provider, providerModel), model); err != nil {
			return fmt.Errorf("save %s model: %w", provider, err)
		}
	}
	if apiKey != "" {
		if err := s.configStore.Set(providerKey(provider, providerAPIKey), apiKey); err != nil {
			return fmt.Errorf("save %s api_key: %w", provider, err)
		}
	}

	// Local providers need a base URL
	if provider.IsLocal() && s.configStore.GetString(providerKey(provider, providerBaseURL)) == "" {
		for _, def := range domain.DefaultAppSettings().Providers {
			if def.Provider == provider {
				if err := s.configStore.Set(providerKey(provider, providerBaseURL), def.BaseURL); err != nil {
					return fmt.Errorf("save %s base_url: %w", provider, err)
				}
			}
		}
	}

	return nil
}

// SetPreferredProvider selects the provider tried first.
func (s *SettingsService) SetPreferredProvider(provider domain.AIProvider) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidConfig, provider)
	}
	if err := s.configStore.Set(keyPreferredProvider, provider.String()); err != nil {
		return fmt.Errorf("save preferred provider: %w", err)
	}
	return nil
}

// Set stores a value by dot key. String values are parsed according to the
// key's kind, so "0.2", "true" and "90s" are stored typed.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidConfig, key)
	}

	parsed, err := parseValue(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, key, err)
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseValue(kind valueKind, value any) (any, error) {
	str, isString := value.(string)
	if !isString {
		str = fmt.Sprint(value)
	}
	str = strings.TrimSpace(str)

	switch kind {
	case kindInt:
		return strconv.Atoi(str)
	case kindFloat:
		return strconv.ParseFloat(str, 64)
	case kindBool:
		return strconv.ParseBool(str)
	case kindDuration:
		d, err := parseDuration(value)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	case kindProvider:
		p := domain.AIProvider(strings.ToLower(str))
		if str != "" && !p.IsValid() {
			return nil, fmt.Errorf("unknown provider %q", str)
		}
		return p.String(), nil
	case kindMode:
		m := domain.ProcessingMode(strings.ToLower(str))
		if !m.IsValid() {
			return nil, fmt.Errorf("unknown processing mode %q", str)
		}
		return string(m), nil
	default:
		return str, nil
	}
}

// Validate checks that settings are well formed. Every problem is reported.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs error
	invalid := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidConfig}, args...)...))
	}

	if raw := s.getString(keyPreferredProvider, ""); raw != "" && !domain.AIProvider(raw).IsValid() {
		invalid("unknown preferred provider %q", raw)
	}
	if raw := s.getString(keyPipelineMode, ""); raw != "" && !domain.ProcessingMode(raw).IsValid() {
		invalid("unknown processing mode %q", raw)
	}
	if settings.Pipeline.MaxChunkSize <= 0 {
		invalid("pipeline.max_chunk_size must be positive")
	}
	if settings.Pipeline.ChunkOverlap < 0 || settings.Pipeline.ChunkOverlap >= settings.Pipeline.MaxChunkSize {
		invalid("pipeline.chunk_overlap must be between 0 and max_chunk_size")
	}
	if settings.Generation.Temperature < 0 || settings.Generation.Temperature > 2 {
		invalid("generation.temperature must be between 0 and 2")
	}
	if settings.Generation.MaxRetries < 1 {
		invalid("generation.max_retries must be at least 1")
	}
	if settings.Generation.Timeout <= 0 || settings.Build.CommandTimeout <= 0 {
		invalid("timeouts must be positive")
	}
	if strings.TrimSpace(settings.Build.OutputDir) == "" {
		invalid("build.output_dir must not be empty")
	}
	if settings.Cache.MaxEntries <= 0 {
		invalid("cache.max_entries must be positive")
	}

	return errs
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates one provider's configuration by pinging it.
func (s *SettingsService) ValidateLLMConfig(provider domain.AIProvider) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	for i := range settings.Providers {
		if settings.Providers[i].Provider == provider {
			return s.aiValidator.ValidateLLM(&settings.Providers[i])
		}
	}
	return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidConfig, provider)
}

// ConfigPath returns the configuration file path.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Helper methods for reading config with env overrides and defaults.

func (s *SettingsService) lookup(key string) (any, bool) {
	for _, o := range envOverrides {
		if o.key != key {
			continue
		}
		for _, name := range o.vars {
			if v, ok := s.lookupEnv(name); ok && v != "" {
				return v, true
			}
		}
	}
	return s.configStore.Get(key)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	str, _ := val.(string)
	if str == "" {
		return defaultVal
	}
	return str
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	val, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	d, err := parseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// parseDuration accepts Go duration strings or a number of seconds.
func parseDuration(val any) (time.Duration, error) {
	switch v := val.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		v = strings.TrimSpace(v)
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		return time.ParseDuration(v)
	default:
		return 0, fmt.Errorf("not a duration: %v", val)
	}
}

func (s *SettingsService) getProvider(key string) domain.AIProvider {
	provider := domain.AIProvider(strings.ToLower(s.getString(key, "")))
	if !provider.IsValid() {
		return ""
	}
	return provider
}

func (s *SettingsService) getMode(defaultVal domain.ProcessingMode) domain.ProcessingMode {
	mode := domain.ProcessingMode(strings.ToLower(s.getString(keyPipelineMode, "")))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}
