package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
)

// previewLength bounds chunk content returned by the analyze tool.
const previewLength = 280

// AnalyzeInput is the input schema for the analyze tool.
type AnalyzeInput struct {
	Path string `json:"path" jsonschema:"path to the architecture document"`
}

// AnalyzeOutput is the output schema for the analyze tool.
type AnalyzeOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput is one classified chunk.
type ChunkOutput struct {
	Index    int      `json:"index"`
	Type     string   `json:"type"`
	Sections []string `json:"sections,omitempty"`
	Preview  string   `json:"preview"`
}

// PlanInput is the input schema for the plan tool.
type PlanInput struct {
	Document string `json:"document" jsonschema:"path to the primary architecture document"`
	Overlay  string `json:"overlay,omitempty" jsonschema:"optional secondary document merged after the primary one"`
	PlanPath string `json:"plan_path,omitempty" jsonschema:"where to save the plan; empty skips saving"`
}

// PlanOutput is the output schema for the plan tool.
type PlanOutput struct {
	ProjectName     string              `json:"project_name"`
	Description     string              `json:"description"`
	TechnologyStack []string            `json:"technology_stack"`
	Dependencies    []string            `json:"dependencies"`
	Instructions    []InstructionOutput `json:"instructions"`
	PostBuild       []string            `json:"post_build_commands"`
	Provider        string              `json:"provider,omitempty"`
	Confidence      float64             `json:"confidence,omitempty"`
	FellBack        bool                `json:"fell_back"`
	FallbackReason  string              `json:"fallback_reason,omitempty"`
	PlanPath        string              `json:"plan_path,omitempty"`
}

// InstructionOutput is one plan instruction.
type InstructionOutput struct {
	Order  int    `json:"order"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Target string `json:"target"`
}

// ValidateInput is the input schema for the validate tool.
type ValidateInput struct {
	PlanPath string `json:"plan_path" jsonschema:"path to a saved BuildPlan.json or yaml file"`
}

// ValidateOutput is the output schema for the validate tool.
type ValidateOutput struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// ExecuteInput is the input schema for the execute tool.
type ExecuteInput struct {
	PlanPath   string `json:"plan_path" jsonschema:"path to a saved plan file"`
	WorkingDir string `json:"working_dir,omitempty" jsonschema:"directory the project is created in (default ./output)"`
	DryRun     bool   `json:"dry_run,omitempty" jsonschema:"describe actions without touching the filesystem"`
}

// ExecuteOutput is the output schema for the execute tool.
type ExecuteOutput struct {
	Success    bool         `json:"success"`
	DryRun     bool         `json:"dry_run"`
	ProjectDir string       `json:"project_dir"`
	Steps      []StepOutput `json:"steps"`
	Warnings   []string     `json:"warnings"`
	Error      string       `json:"error,omitempty"`
}

// StepOutput is the outcome of one executed instruction.
type StepOutput struct {
	Instruction InstructionOutput `json:"instruction"`
	State       string            `json:"state"`
	Message     string            `json:"message,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze",
		Description: "Extract and classify chunks from an architecture document",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "plan",
		Description: "Generate a build plan from an architecture document without executing it",
	}, s.handlePlan)

	if !s.ports.canRunPlans() {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "validate",
		Description: "Check a saved build plan for errors and warnings",
	}, s.handleValidate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "execute",
		Description: "Run a saved build plan, optionally as a dry run",
	}, s.handleExecute)
}

func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, AnalyzeOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	chunks, err := s.ports.Pipeline.Analyze(ctx, input.Path)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	output := AnalyzeOutput{
		Chunks: make([]ChunkOutput, len(chunks)),
		Count:  len(chunks),
	}
	for i := range chunks {
		output.Chunks[i] = ChunkOutput{
			Index:    chunks[i].Index,
			Type:     string(chunks[i].Type),
			Sections: chunks[i].SectionHierarchy,
			Preview:  preview(chunks[i].Content),
		}
	}
	return nil, output, nil
}

func (s *Server) handlePlan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PlanInput,
) (*mcp.CallToolResult, PlanOutput, error) {
	if strings.TrimSpace(input.Document) == "" {
		return nil, PlanOutput{}, fmt.Errorf("%w: document is required", domain.ErrInvalidInput)
	}

	result, err := s.ports.Pipeline.Build(ctx, driving.BuildRequest{
		Document: input.Document,
		Overlay:  input.Overlay,
		PlanPath: input.PlanPath,
		PlanOnly: true,
	})
	if err != nil {
		return nil, PlanOutput{}, err
	}
	if result == nil || result.Plan == nil {
		return nil, PlanOutput{}, fmt.Errorf("%w: pipeline produced no plan", domain.ErrPlanInvalid)
	}

	plan := result.Plan
	output := PlanOutput{
		ProjectName:     plan.ProjectName,
		Description:     plan.Description,
		TechnologyStack: plan.TechnologyStack,
		Dependencies:    plan.Dependencies,
		Instructions:    instructionOutputs(plan.SortedInstructions()),
		PostBuild:       plan.PostBuildCommands,
		Provider:        plan.ProviderUsed,
		Confidence:      plan.ConfidenceScore,
		PlanPath:        input.PlanPath,
	}
	if result.Synthesis != nil {
		output.FellBack = result.Synthesis.FellBack
		output.FallbackReason = result.Synthesis.FallbackReason
	}
	return nil, output, nil
}

func (s *Server) handleValidate(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ValidateInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	if !s.ports.canRunPlans() {
		return nil, ValidateOutput{}, errToolUnavailable
	}

	plan, err := s.ports.Plan.Load(input.PlanPath)
	if err != nil {
		return nil, ValidateOutput{}, err
	}

	v := s.ports.Executor.Validate(plan)
	return nil, ValidateOutput{
		Valid:       v.IsValid,
		Errors:      nonNil(v.Errors),
		Warnings:    nonNil(v.Warnings),
		Suggestions: nonNil(v.Suggestions),
	}, nil
}

func (s *Server) handleExecute(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExecuteInput,
) (*mcp.CallToolResult, ExecuteOutput, error) {
	if !s.ports.canRunPlans() {
		return nil, ExecuteOutput{}, errToolUnavailable
	}

	plan, err := s.ports.Plan.Load(input.PlanPath)
	if err != nil {
		return nil, ExecuteOutput{}, err
	}

	v := s.ports.Executor.Validate(plan)
	if !v.IsValid {
		return nil, ExecuteOutput{}, fmt.Errorf("%w: %s", domain.ErrPlanInvalid, strings.Join(v.Errors, "; "))
	}

	workingDir := input.WorkingDir
	if workingDir == "" {
		workingDir = domain.DefaultAppSettings().Build.OutputDir
	}

	report, err := s.ports.Executor.Execute(ctx, plan, driving.ExecuteOptions{
		WorkingDir: workingDir,
		DryRun:     input.DryRun,
	})
	if report == nil {
		if err == nil {
			err = fmt.Errorf("%w: executor returned no report", domain.ErrCommandFailed)
		}
		return nil, ExecuteOutput{}, err
	}

	// A failed run still reports per-step outcomes to the caller.
	output := reportOutput(report)
	if err != nil {
		output.Error = err.Error()
	}
	return nil, output, nil
}

func reportOutput(r *domain.ExecutionReport) ExecuteOutput {
	out := ExecuteOutput{
		Success:    r.Success,
		DryRun:     r.DryRun,
		ProjectDir: r.ProjectDir,
		Warnings:   nonNil(r.Warnings),
		Steps:      make([]StepOutput, 0, len(r.Results)+len(r.PostBuild)),
	}
	for _, res := range append(append([]domain.InstructionResult(nil), r.Results...), r.PostBuild...) {
		out.Steps = append(out.Steps, StepOutput{
			Instruction: instructionOutput(res.Instruction),
			State:       string(res.State),
			Message:     res.Message,
			Error:       res.Error,
		})
	}
	return out
}

func instructionOutputs(in []domain.BuildInstruction) []InstructionOutput {
	out := make([]InstructionOutput, len(in))
	for i, inst := range in {
		out[i] = instructionOutput(inst)
	}
	return out
}

func instructionOutput(inst domain.BuildInstruction) InstructionOutput {
	return InstructionOutput{
		Order:  inst.Order,
		Type:   string(inst.Type),
		Action: string(inst.Action),
		Target: inst.Target,
	}
}

func preview(content string) string {
	content = strings.TrimSpace(content)
	r := []rune(content)
	if len(r) <= previewLength {
		return content
	}
	return string(r[:previewLength-3]) + "..."
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
