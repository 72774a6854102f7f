package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a text-generation provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// ProviderPriority is the fixed fallback order for generation.
var ProviderPriority = []AIProvider{
	AIProviderOpenAI,
	AIProviderAnthropic,
	AIProviderGemini,
	AIProviderOllama,
}

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// Confidence returns the fixed confidence estimate attached to this provider's output.
func (p AIProvider) Confidence() float64 {
	switch p {
	case AIProviderOpenAI, AIProviderAnthropic:
		return 0.9
	case AIProviderGemini:
		return 0.85
	case AIProviderOllama:
		return 0.7
	default:
		return 0.5
	}
}

// CostPer1KTokens returns the estimated USD cost per thousand tokens.
func (p AIProvider) CostPer1KTokens() float64 {
	switch p {
	case AIProviderOpenAI:
		return 0.03
	case AIProviderAnthropic:
		return 0.015
	case AIProviderGemini:
		return 0.0035
	default:
		return 0
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// ProcessingMode selects the segmenter and classifier rule sets.
type ProcessingMode string

// Available processing modes.
const (
	ProcessingBasic    ProcessingMode = "basic"
	ProcessingEnhanced ProcessingMode = "enhanced"
)

// IsValid returns true if the mode is recognised.
func (m ProcessingMode) IsValid() bool {
	return m == ProcessingBasic || m == ProcessingEnhanced
}

// LLMSettings holds one provider's configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// GenerationSettings bounds calls to generation providers.
type GenerationSettings struct {
	// Timeout caps a single provider request.
	Timeout time.Duration

	// MaxRetries is the attempt cap per provider.
	MaxRetries int

	// Temperature for synthesis requests.
	Temperature float64

	// MaxTokens for synthesis responses.
	MaxTokens int

	// RequestsPerSecond rate-limits provider calls.
	RequestsPerSecond float64
}

// PipelineSettings configures segmentation.
type PipelineSettings struct {
	// Mode selects basic or enhanced processing.
	Mode ProcessingMode

	// MaxChunkSize is the token bound per chunk.
	MaxChunkSize int

	// ChunkOverlap is the token overlap between enhanced sub-chunks.
	ChunkOverlap int
}

// BuildSettings configures plan execution.
type BuildSettings struct {
	// OutputDir is where projects and plan files are written.
	OutputDir string

	// CommandTimeout caps each subprocess.
	CommandTimeout time.Duration

	// DryRunDefault enables dry-run unless overridden by a flag.
	DryRunDefault bool

	// AllowShellCommands permits command and dependency instructions.
	AllowShellCommands bool
}

// CacheSettings configures the persistent cache.
type CacheSettings struct {
	// Enabled turns the cache on.
	Enabled bool

	// TTL is the default entry lifetime.
	TTL time.Duration

	// AnalysisTTL is the lifetime of cached synthesis results.
	AnalysisTTL time.Duration

	// MaxEntries bounds the cache before LRU eviction.
	MaxEntries int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Providers         []LLMSettings
	PreferredProvider AIProvider
	Generation        GenerationSettings
	Pipeline          PipelineSettings
	Build             BuildSettings
	Cache             CacheSettings
}

// ConfiguredProviders returns providers that are set up, in configuration order.
func (s AppSettings) ConfiguredProviders() []LLMSettings {
	var out []LLMSettings
	for _, p := range s.Providers {
		if p.IsConfigured() {
			out = append(out, p)
		}
	}
	return out
}

// DefaultAppSettings returns the default settings.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Providers: []LLMSettings{
			{Provider: AIProviderOpenAI, Model: "gpt-4"},
			{Provider: AIProviderAnthropic, Model: "claude-3-sonnet-20240229"},
			{Provider: AIProviderGemini, Model: "gemini-1.5-pro"},
			{Provider: AIProviderOllama, Model: "llama3.2", BaseURL: "http://localhost:11434"},
		},
		Generation: GenerationSettings{
			Timeout:           120 * time.Second,
			MaxRetries:        3,
			Temperature:       0.1,
			MaxTokens:         4000,
			RequestsPerSecond: 1,
		},
		Pipeline: PipelineSettings{
			Mode:         ProcessingEnhanced,
			MaxChunkSize: 4000,
			ChunkOverlap: 200,
		},
		Build: BuildSettings{
			OutputDir:          "./output",
			CommandTimeout:     300 * time.Second,
			AllowShellCommands: true,
		},
		Cache: CacheSettings{
			Enabled:     true,
			TTL:         24 * time.Hour,
			AnalysisTTL: 48 * time.Hour,
			MaxEntries:  1000,
		},
	}
}

// CacheStats reports cache occupancy.
type CacheStats struct {
	Entries   int
	SizeBytes int64
	Expired   int
	Path      string
}
