package driving

import (
	"context"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// IngestService turns an input file into an ordered chunk sequence.
type IngestService interface {
	// Ingest reads, normalises, segments and classifies the file at path.
	// Unsupported or unparseable formats fall back to lossy text decoding.
	Ingest(ctx context.Context, path string) ([]domain.Chunk, error)
}
