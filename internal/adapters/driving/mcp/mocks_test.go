package mcp

import (
	"context"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
)

// mockPipelineService is a mock implementation of driving.PipelineService.
type mockPipelineService struct {
	chunks  []domain.Chunk
	result  *driving.BuildResult
	err     error
	lastReq driving.BuildRequest
}

func (m *mockPipelineService) Analyze(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockPipelineService) Build(_ context.Context, req driving.BuildRequest) (*driving.BuildResult, error) {
	m.lastReq = req
	return m.result, m.err
}

// mockPlanService is a mock implementation of driving.PlanService.
type mockPlanService struct {
	plan *domain.BuildPlan
	err  error
}

func (m *mockPlanService) Compile(_ *domain.Analysis) []domain.BuildInstruction {
	return nil
}

func (m *mockPlanService) NewPlan(_ *domain.SynthesisResult, _ []domain.Chunk) *domain.BuildPlan {
	return m.plan
}

func (m *mockPlanService) Save(_ *domain.BuildPlan, _ string) error {
	return m.err
}

func (m *mockPlanService) Load(_ string) (*domain.BuildPlan, error) {
	return m.plan, m.err
}

// mockExecutorService is a mock implementation of driving.ExecutorService.
type mockExecutorService struct {
	validation domain.ValidationResult
	report     *domain.ExecutionReport
	err        error
	lastOpts   driving.ExecuteOptions
}

func (m *mockExecutorService) Execute(
	_ context.Context,
	_ *domain.BuildPlan,
	opts driving.ExecuteOptions,
) (*domain.ExecutionReport, error) {
	m.lastOpts = opts
	return m.report, m.err
}

func (m *mockExecutorService) Validate(_ *domain.BuildPlan) domain.ValidationResult {
	return m.validation
}

// mockCacheService is a mock implementation of driving.CacheService.
type mockCacheService struct {
	stats domain.CacheStats
	err   error
}

func (m *mockCacheService) Stats(_ context.Context) (domain.CacheStats, error) {
	return m.stats, m.err
}

func (m *mockCacheService) Clear(_ context.Context) error {
	return m.err
}

// mockErrorHistory is a mock implementation of driving.ErrorHistoryService.
type mockErrorHistory struct {
	summary driving.ErrorSummary
}

func (m *mockErrorHistory) Summary() driving.ErrorSummary {
	return m.summary
}
