package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
)

func fullPorts() (*Ports, *mockPipelineService, *mockPlanService, *mockExecutorService) {
	pipeline := &mockPipelineService{}
	plans := &mockPlanService{plan: &domain.BuildPlan{ProjectName: "demo"}}
	executor := &mockExecutorService{validation: domain.NewValidationResult()}
	return &Ports{Pipeline: pipeline, Plan: plans, Executor: executor}, pipeline, plans, executor
}

func TestServer_handleAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("returns chunk previews", func(t *testing.T) {
		pipeline := &mockPipelineService{chunks: []domain.Chunk{
			{Index: 0, Type: domain.ContentType("overview"), Content: "  Intro text  ", SectionHierarchy: []string{"Intro"}},
			{Index: 1, Type: domain.ContentType("code"), Content: strings.Repeat("x", 400)},
		}}
		server, err := NewServer(&Ports{Pipeline: pipeline})
		require.NoError(t, err)

		_, output, err := server.handleAnalyze(ctx, nil, AnalyzeInput{Path: "arch.md"})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "overview", output.Chunks[0].Type)
		assert.Equal(t, "Intro text", output.Chunks[0].Preview)
		assert.Equal(t, []string{"Intro"}, output.Chunks[0].Sections)
		assert.Len(t, []rune(output.Chunks[1].Preview), previewLength)
		assert.True(t, strings.HasSuffix(output.Chunks[1].Preview, "..."))
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}})
		require.NoError(t, err)

		_, _, err = server.handleAnalyze(ctx, nil, AnalyzeInput{Path: " "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("propagates pipeline errors", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{err: domain.ErrNotFound}})
		require.NoError(t, err)

		_, _, err = server.handleAnalyze(ctx, nil, AnalyzeInput{Path: "missing.md"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handlePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("requests plan only and maps the plan", func(t *testing.T) {
		pipeline := &mockPipelineService{result: &driving.BuildResult{
			Plan: &domain.BuildPlan{
				ProjectName:     "shop",
				TechnologyStack: []string{"go"},
				BuildInstructions: []domain.BuildInstruction{
					{Order: 2, Type: domain.InstructionFile, Action: domain.ActionCreate, Target: "main.go"},
					{Order: 1, Type: domain.InstructionDirectory, Action: domain.ActionCreate, Target: "cmd"},
				},
				ProviderUsed: "openai",
			},
			Synthesis: &domain.SynthesisResult{FellBack: true, FallbackReason: "no providers"},
		}}
		server, err := NewServer(&Ports{Pipeline: pipeline})
		require.NoError(t, err)

		_, output, err := server.handlePlan(ctx, nil, PlanInput{Document: "a.md", Overlay: "b.md", PlanPath: "out/plan.json"})

		require.NoError(t, err)
		assert.True(t, pipeline.lastReq.PlanOnly)
		assert.Equal(t, "b.md", pipeline.lastReq.Overlay)
		assert.Equal(t, "shop", output.ProjectName)
		require.Len(t, output.Instructions, 2)
		assert.Equal(t, "cmd", output.Instructions[0].Target)
		assert.Equal(t, "directory", output.Instructions[0].Type)
		assert.True(t, output.FellBack)
		assert.Equal(t, "no providers", output.FallbackReason)
		assert.Equal(t, "out/plan.json", output.PlanPath)
	})

	t.Run("missing plan is an error", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{result: &driving.BuildResult{}}})
		require.NoError(t, err)

		_, _, err = server.handlePlan(ctx, nil, PlanInput{Document: "a.md"})
		assert.ErrorIs(t, err, domain.ErrPlanInvalid)
	})

	t.Run("empty document is rejected", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}})
		require.NoError(t, err)

		_, _, err = server.handlePlan(ctx, nil, PlanInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable without plan ports", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}})
		require.NoError(t, err)

		_, _, err = server.handleValidate(ctx, nil, ValidateInput{PlanPath: "p.json"})
		assert.ErrorIs(t, err, errToolUnavailable)
	})

	t.Run("reports validation result", func(t *testing.T) {
		ports, _, _, executor := fullPorts()
		executor.validation = domain.ValidationResult{IsValid: false, Errors: []string{"project name is empty"}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleValidate(ctx, nil, ValidateInput{PlanPath: "p.json"})

		require.NoError(t, err)
		assert.False(t, output.Valid)
		assert.Equal(t, []string{"project name is empty"}, output.Errors)
		assert.NotNil(t, output.Warnings)
		assert.NotNil(t, output.Suggestions)
	})

	t.Run("load errors propagate", func(t *testing.T) {
		ports, _, plans, _ := fullPorts()
		plans.err = domain.ErrNotFound
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleValidate(ctx, nil, ValidateInput{PlanPath: "missing.json"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults working dir and passes dry run", func(t *testing.T) {
		ports, _, _, executor := fullPorts()
		executor.report = &domain.ExecutionReport{
			Success:    true,
			DryRun:     true,
			ProjectDir: "output/demo",
			Results: []domain.InstructionResult{{
				Instruction: domain.BuildInstruction{Order: 1, Type: domain.InstructionDirectory, Action: domain.ActionCreate, Target: "src"},
				State:       domain.StateSucceeded,
				Message:     "would create directory",
			}},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleExecute(ctx, nil, ExecuteInput{PlanPath: "p.json", DryRun: true})

		require.NoError(t, err)
		assert.Equal(t, "./output", executor.lastOpts.WorkingDir)
		assert.True(t, executor.lastOpts.DryRun)
		assert.True(t, output.Success)
		require.Len(t, output.Steps, 1)
		assert.Equal(t, "succeeded", output.Steps[0].State)
		assert.Equal(t, "src", output.Steps[0].Instruction.Target)
		assert.Empty(t, output.Error)
	})

	t.Run("failed run returns report with error", func(t *testing.T) {
		ports, _, _, executor := fullPorts()
		executor.report = &domain.ExecutionReport{
			Success: false,
			Results: []domain.InstructionResult{{State: domain.StateFailed, Error: "exit status 1"}},
		}
		executor.err = errors.New("instruction #1 failed")
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleExecute(ctx, nil, ExecuteInput{PlanPath: "p.json", WorkingDir: "/tmp/x"})

		require.NoError(t, err)
		assert.False(t, output.Success)
		assert.Equal(t, "instruction #1 failed", output.Error)
		assert.Equal(t, "/tmp/x", executor.lastOpts.WorkingDir)
	})

	t.Run("invalid plan is not executed", func(t *testing.T) {
		ports, _, _, executor := fullPorts()
		executor.validation = domain.ValidationResult{Errors: []string{"no instructions"}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleExecute(ctx, nil, ExecuteInput{PlanPath: "p.json"})

		assert.ErrorIs(t, err, domain.ErrPlanInvalid)
		assert.Contains(t, err.Error(), "no instructions")
		assert.Empty(t, executor.lastOpts.WorkingDir)
	})

	t.Run("missing report is an error", func(t *testing.T) {
		ports, _, _, _ := fullPorts()
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleExecute(ctx, nil, ExecuteInput{PlanPath: "p.json"})
		assert.ErrorIs(t, err, domain.ErrCommandFailed)
	})
}
