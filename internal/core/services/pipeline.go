package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

// Ensure PipelineService implements the interface.
var _ driving.PipelineService = (*PipelineService)(nil)

// PipelineService runs the stages in sequence: each one completes before the
// next starts.
type PipelineService struct {
	ingest    driving.IngestService
	synthesis driving.SynthesisService
	plans     driving.PlanService
	executor  driving.ExecutorService
	reporter  driven.ErrorReporter
}

// NewPipelineService creates a pipeline from its stage services.
func NewPipelineService(
	ingest driving.IngestService,
	synthesis driving.SynthesisService,
	plans driving.PlanService,
	executor driving.ExecutorService,
) *PipelineService {
	return &PipelineService{
		ingest:    ingest,
		synthesis: synthesis,
		plans:     plans,
		executor:  executor,
	}
}

// SetErrorReporter sets the sink for stage failures.
func (s *PipelineService) SetErrorReporter(r driven.ErrorReporter) {
	s.reporter = r
}

// Analyze ingests a document and returns its chunks.
func (s *PipelineService) Analyze(ctx context.Context, path string) ([]domain.Chunk, error) {
	chunks, err := s.ingest.Ingest(ctx, path)
	if err != nil {
		return nil, s.fail(domain.StageIngest, err, map[string]any{"path": path})
	}
	return chunks, nil
}

// Build runs ingest, synthesis and compilation, then saves the plan and
// executes it unless the request stops earlier. The result holds every stage
// output produced before a failure.
func (s *PipelineService) Build(ctx context.Context, req driving.BuildRequest) (*driving.BuildResult, error) {
	result := &driving.BuildResult{}

	logger.Section("Processing documents")
	chunks, err := s.Analyze(ctx, req.Document)
	if err != nil {
		return result, err
	}
	result.Chunks = chunks

	var overlay []domain.Chunk
	if req.Overlay != "" {
		overlay, err = s.Analyze(ctx, req.Overlay)
		if err != nil {
			return result, err
		}
	}
	logger.Info("Extracted %d chunks", len(chunks)+len(overlay))

	logger.Section("Synthesising architecture")
	synthesis, err := s.synthesis.Synthesize(ctx, chunks, overlay)
	if err != nil {
		return result, s.fail(domain.StageSynthesis, err, nil)
	}
	result.Synthesis = synthesis
	if synthesis.FellBack {
		logger.Warn("Using rule-based analysis: %s", synthesis.FallbackReason)
	}

	all := append(append([]domain.Chunk(nil), chunks...), overlay...)
	plan := s.plans.NewPlan(synthesis, all)
	result.Plan = plan
	logger.Info("Compiled %d build instructions for %s", len(plan.BuildInstructions), plan.ProjectName)

	if req.PlanPath != "" {
		if err := s.plans.Save(plan, req.PlanPath); err != nil {
			return result, s.fail(domain.StageCompile, err, map[string]any{"path": req.PlanPath})
		}
	}

	if req.PlanOnly {
		return result, nil
	}

	logger.Section("Executing build plan")
	report, err := s.executor.Execute(ctx, plan, req.Execute)
	result.Report = report
	if err != nil {
		return result, fmt.Errorf("execute plan: %w", err)
	}
	return result, nil
}

func (s *PipelineService) fail(stage string, err error, details map[string]any) error {
	if s.reporter == nil {
		return err
	}
	return s.reporter.Report(stage, err, details)
}
