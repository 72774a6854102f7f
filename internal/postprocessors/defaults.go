package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/postprocessors/classifier"
	"github.com/custodia-labs/archon-cli/internal/postprocessors/segmenter"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register(segmenter.Name, buildSegmenter)
	r.Register(classifier.Name, buildClassifier)
}

// DefaultPipeline builds the segmenter followed by the classifier, both
// configured from the pipeline settings.
func DefaultPipeline(s domain.PipelineSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	cfg := map[string]any{
		"mode":           string(s.Mode),
		"max_chunk_size": s.MaxChunkSize,
		"overlap":        s.ChunkOverlap,
	}

	return r.BuildPipeline(cfg, segmenter.Name, classifier.Name)
}

// buildSegmenter creates a segmenter from generic config.
// Supported config keys:
//   - mode (string): basic or enhanced (default: enhanced)
//   - max_chunk_size (int): Token bound per chunk (default: 4000)
//   - overlap (int): Token overlap between enhanced sub-chunks (default: 200)
func buildSegmenter(cfg map[string]any) (driven.PostProcessor, error) {
	mode, err := modeFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	opts := []segmenter.Option{segmenter.WithMode(mode)}
	if size := getIntFromConfig(cfg, "max_chunk_size"); size > 0 {
		opts = append(opts, segmenter.WithMaxTokens(size))
	}
	if _, ok := cfg["overlap"]; ok {
		opts = append(opts, segmenter.WithOverlap(getIntFromConfig(cfg, "overlap")))
	}

	return segmenter.New(opts...), nil
}

// buildClassifier creates a classifier from generic config.
// Supported config keys:
//   - mode (string): basic or enhanced (default: enhanced)
func buildClassifier(cfg map[string]any) (driven.PostProcessor, error) {
	mode, err := modeFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return classifier.New(classifier.WithMode(mode)), nil
}

func modeFromConfig(cfg map[string]any) (domain.ProcessingMode, error) {
	raw := getStringFromConfig(cfg, "mode")
	if raw == "" {
		return domain.ProcessingEnhanced, nil
	}
	mode := domain.ProcessingMode(raw)
	if !mode.IsValid() {
		return "", fmt.Errorf("%w: unknown processing mode %q", domain.ErrInvalidConfig, raw)
	}
	return mode, nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func getStringFromConfig(cfg map[string]any, key string) string {
	s, _ := cfg[key].(string)
	return s
}
