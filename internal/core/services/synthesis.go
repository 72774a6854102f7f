package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

// Ensure SynthesisService implements the interfaces.
var (
	_ driving.SynthesisService = (*SynthesisService)(nil)
	_ driven.PromptStoreAware  = (*SynthesisService)(nil)
)

// Digest limits.
const (
	maxPriorityChunks = 10
	maxTextChunks     = 5
	maxChunkChars     = 1000
)

const defaultAnalysisSystemPrompt = `You are an expert software architect. Analyse architecture documents and reply with a single JSON object and nothing else, using this schema:
{
  "project_name": "kebab-case-name",
  "description": "one sentence",
  "technology_stack": ["framework", "language", "database"],
  "directory_structure": {"src": {"app": "directory"}, "package.json": "file"},
  "dependencies": ["package-name"],
  "environment_variables": {"NAME": "value"},
  "post_build_commands": ["command"],
  "build_sequence": ["command"],
  "build_instructions": [
    {"type": "directory|file|dependency|command", "action": "create|install|run", "target": "path, package or command", "content": "file body for file instructions", "order": 0}
  ]
}`

const defaultArchitectureAnalysisPrompt = `Analyse the following architecture document and produce a build plan.
Fill every schema field you can infer. Use empty lists or objects for fields the document does not mention.
Build instructions must be ordered so directories exist before files are written into them.

%s`

// SynthesisService turns chunks into an architecture analysis, through a
// generator when one is available and through extraction rules otherwise.
type SynthesisService struct {
	generator   driven.Generator
	settings    domain.GenerationSettings
	promptStore driven.PromptStore
	reporter    driven.ErrorReporter

	cache    driven.Cache
	cacheTTL time.Duration
}

// NewSynthesisService creates a synthesis service. generator may be nil, in
// which case every analysis is rule-based.
func NewSynthesisService(generator driven.Generator, settings domain.GenerationSettings) *SynthesisService {
	return &SynthesisService{
		generator: generator,
		settings:  settings,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the service uses hardcoded default prompts.
func (s *SynthesisService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// SetErrorReporter sets the sink for generation failures.
func (s *SynthesisService) SetErrorReporter(r driven.ErrorReporter) {
	s.reporter = r
}

// SetCache enables caching of generation responses keyed by chunk content.
func (s *SynthesisService) SetCache(cache driven.Cache, ttl time.Duration) {
	s.cache = cache
	s.cacheTTL = ttl
}

// cachedGeneration is the cache record for one generation response.
type cachedGeneration struct {
	Content    string  `json:"content"`
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
	Confidence float64 `json:"confidence"`
	TokensUsed int     `json:"tokens_used"`
}

// Synthesize analyses base chunks followed by overlay chunks.
// Generation failures fall back to the rule-based analysis and are reported
// on the result, never returned as errors.
func (s *SynthesisService) Synthesize(ctx context.Context, base, overlay []domain.Chunk) (*domain.SynthesisResult, error) {
	chunks := make([]domain.Chunk, 0, len(base)+len(overlay))
	chunks = append(chunks, base...)
	chunks = append(chunks, overlay...)

	ruleBased := ruleBasedAnalysis(chunks)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.generator == nil || !s.generator.IsAvailable(ctx) {
		logger.Debug("No generation provider available, using rule-based analysis")
		return &domain.SynthesisResult{
			Analysis:       ruleBased,
			FallbackReason: "no generation provider available",
		}, nil
	}

	key := AnalysisCacheKey(chunks)
	if gen, ok := s.cachedGeneration(ctx, key); ok {
		logger.Debug("Using cached analysis from %s", gen.Provider)
		if result, err := s.fromGeneration(ruleBased, gen); err == nil {
			return result, nil
		}
	}

	prompt := fmt.Sprintf(s.loadPrompt(driven.PromptArchitectureAnalysis, defaultArchitectureAnalysisPrompt),
		BuildDigest(chunks, ruleBased))

	gen, err := s.generator.Generate(ctx, prompt, driven.GenerateOptions{
		SystemPrompt: s.loadPrompt(driven.PromptAnalysisSystem, defaultAnalysisSystemPrompt),
		MaxTokens:    s.maxTokens(),
		Temperature:  s.settings.Temperature,
		JSON:         true,
	})
	if err != nil {
		return s.fallback(ruleBased, err), nil
	}

	result, err := s.fromGeneration(ruleBased, gen)
	if err != nil {
		return s.fallback(ruleBased, err), nil
	}
	s.storeGeneration(ctx, key, gen)

	logger.Debug("Analysis from %s (%s): %d tokens, valid=%t",
		gen.Provider, gen.Model, gen.TokensUsed, result.Validation.IsValid)
	return result, nil
}

// fromGeneration parses, validates and merges a generation response.
func (s *SynthesisService) fromGeneration(ruleBased *domain.Analysis, gen *domain.Generation) (*domain.SynthesisResult, error) {
	obj, raw, err := parseResponse(gen.Content)
	if err != nil {
		return nil, err
	}

	validation := ValidateResponse(obj)
	for _, problem := range validation.Errors {
		logger.Debug("Response validation: %s", problem)
	}

	ai := decodeAnalysis(obj)
	ai.Provider = gen.Provider.String()
	ai.Model = gen.Model
	ai.Confidence = gen.Confidence
	ai.TokensUsed = gen.TokensUsed

	return &domain.SynthesisResult{
		Analysis:   domain.MergeAnalysis(ruleBased, ai),
		Raw:        raw,
		Validation: &validation,
	}, nil
}

func (s *SynthesisService) fallback(ruleBased *domain.Analysis, err error) *domain.SynthesisResult {
	logger.Warn("Generation failed, using rule-based analysis: %v", err)
	if s.reporter != nil {
		s.reporter.Report(domain.StageSynthesis, err, nil)
	}
	return &domain.SynthesisResult{
		Analysis:       ruleBased,
		FellBack:       true,
		FallbackReason: err.Error(),
	}
}

func (s *SynthesisService) maxTokens() int {
	if s.settings.MaxTokens > 0 {
		return s.settings.MaxTokens
	}
	return domain.DefaultAppSettings().Generation.MaxTokens
}

func (s *SynthesisService) cachedGeneration(ctx context.Context, key string) (*domain.Generation, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var rec cachedGeneration
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	return &domain.Generation{
		Content:    rec.Content,
		Provider:   domain.AIProvider(rec.Provider),
		Model:      rec.Model,
		Confidence: rec.Confidence,
		TokensUsed: rec.TokensUsed,
	}, true
}

func (s *SynthesisService) storeGeneration(ctx context.Context, key string, gen *domain.Generation) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(cachedGeneration{
		Content:    gen.Content,
		Provider:   gen.Provider.String(),
		Model:      gen.Model,
		Confidence: gen.Confidence,
		TokensUsed: gen.TokensUsed,
	})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		logger.Warn("Failed to cache analysis: %v", err)
	}
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (s *SynthesisService) loadPrompt(name, fallback string) string {
	if s.promptStore == nil {
		return fallback
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// BuildDigest renders the prompt context: a summary of rule-based findings
// followed by the most informative chunks. Code, command and config chunks
// come first; each chunk is truncated.
func BuildDigest(chunks []domain.Chunk, extracted *domain.Analysis) string {
	var b strings.Builder

	b.WriteString("EXTRACTED DATA SUMMARY:\n")
	if extracted != nil {
		fmt.Fprintf(&b, "Project Info: name=%s, description=%s\n", extracted.ProjectName, extracted.Description)
		fmt.Fprintf(&b, "Technology Stack: %s\n", strings.Join(extracted.TechnologyStack, ", "))
		fmt.Fprintf(&b, "Dependencies: %s\n", strings.Join(extracted.Dependencies, ", "))
	}

	b.WriteString("\nKEY DOCUMENTATION SECTIONS:\n")
	var priority, text []domain.Chunk
	for i := range chunks {
		switch {
		case chunks[i].Type.IsPriority():
			if len(priority) < maxPriorityChunks {
				priority = append(priority, chunks[i])
			}
		case chunks[i].Type == domain.ContentTypeText:
			if len(text) < maxTextChunks {
				text = append(text, chunks[i])
			}
		}
	}
	for _, c := range append(priority, text...) {
		fmt.Fprintf(&b, "\n--- %s CHUNK ---\n%s\n", strings.ToUpper(c.Type.String()), truncateRunes(c.Content, maxChunkChars))
	}

	return b.String()
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
