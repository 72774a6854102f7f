package driven

import "github.com/custodia-labs/archon-cli/internal/core/domain"

// PlanStore persists build plans as flat files.
type PlanStore interface {
	// Save writes the plan to path, creating parent directories.
	Save(plan *domain.BuildPlan, path string) error

	// Load reads a plan from path.
	Load(path string) (*domain.BuildPlan, error)
}
