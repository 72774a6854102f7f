package driven

import (
	"context"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// PostProcessor is one stage that turns normalised text into classified chunks.
// The first stage receives nil chunks and splits the document; later stages
// refine or label what they are given.
type PostProcessor interface {
	// Name is the key used in pipeline configuration and debug logs.
	Name() string

	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs the configured stages over a document.
type PostProcessorPipeline interface {
	// Process returns the final chunks with blank ones dropped, Index
	// renumbered from zero and SourceFile defaulted to the document URI.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
