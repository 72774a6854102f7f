package driving

import (
	"context"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// ExecuteOptions configures one plan run.
type ExecuteOptions struct {
	// WorkingDir is the directory the project root is created in.
	WorkingDir string

	// DryRun records intended actions without side effects.
	DryRun bool
}

// ExecutorService runs build plans.
type ExecutorService interface {
	// Execute runs every instruction in order, then post-build commands.
	// The report is always returned; err is non-nil when the run failed.
	Execute(ctx context.Context, plan *domain.BuildPlan, opts ExecuteOptions) (*domain.ExecutionReport, error)

	// Validate checks a plan before execution.
	Validate(plan *domain.BuildPlan) domain.ValidationResult
}
