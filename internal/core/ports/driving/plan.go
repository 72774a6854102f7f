package driving

import "github.com/custodia-labs/archon-cli/internal/core/domain"

// PlanService compiles analyses into build plans and persists them.
type PlanService interface {
	// Compile converts an analysis into ordered build instructions.
	Compile(analysis *domain.Analysis) []domain.BuildInstruction

	// NewPlan assembles a complete plan from a synthesis result and its chunks.
	NewPlan(result *domain.SynthesisResult, chunks []domain.Chunk) *domain.BuildPlan

	// Save writes the plan to path.
	Save(plan *domain.BuildPlan, path string) error

	// Load reads a plan from path.
	Load(path string) (*domain.BuildPlan, error)
}
