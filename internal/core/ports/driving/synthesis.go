package driving

import (
	"context"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// SynthesisService derives an architecture analysis from chunks.
type SynthesisService interface {
	// Synthesize analyses base chunks followed by overlay chunks.
	// Generation failures fall back to the rule-based path and never return an error.
	Synthesize(ctx context.Context, base, overlay []domain.Chunk) (*domain.SynthesisResult, error)

	// RuleBased runs only the deterministic extraction path.
	RuleBased(chunks []domain.Chunk) *domain.Analysis
}
