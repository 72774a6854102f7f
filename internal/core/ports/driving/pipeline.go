package driving

import (
	"context"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// BuildRequest describes one end-to-end pipeline run.
type BuildRequest struct {
	// Document is the primary architecture document.
	Document string

	// Overlay is an optional secondary document appended after Document.
	Overlay string

	// PlanPath is where the plan is saved. Empty skips saving.
	PlanPath string

	// PlanOnly stops after the plan is produced.
	PlanOnly bool

	// Execute holds execution options when PlanOnly is false.
	Execute ExecuteOptions
}

// BuildResult is the outcome of a pipeline run.
type BuildResult struct {
	Chunks    []domain.Chunk
	Synthesis *domain.SynthesisResult
	Plan      *domain.BuildPlan
	Report    *domain.ExecutionReport
}

// PipelineService runs document → chunks → synthesis → plan → execution.
type PipelineService interface {
	// Analyze ingests a document and returns its chunks.
	Analyze(ctx context.Context, path string) ([]domain.Chunk, error)

	// Build runs the pipeline described by req.
	Build(ctx context.Context, req BuildRequest) (*BuildResult, error)
}
