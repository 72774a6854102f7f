package driven

import (
	"context"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// Normaliser extracts plain text and a title from one document format.
type Normaliser interface {
	SupportedMIMETypes() []string

	// Priority orders normalisers that share a MIME type, highest first.
	// Format readers use 50; the plain-text fallback uses 5.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult carries the extracted document. Chunking happens later,
// in the PostProcessorPipeline.
type NormaliseResult struct {
	Document domain.Document
}
