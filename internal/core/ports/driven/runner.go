package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// CommandRunner executes shell commands for the plan executor.
type CommandRunner interface {
	// Run executes command in dir and waits for it.
	// A non-zero exit returns the result together with an error wrapping domain.ErrCommandFailed.
	// Exceeding timeout returns an error wrapping domain.ErrCommandTimeout.
	Run(ctx context.Context, command, dir string, env []string, timeout time.Duration) (*domain.CommandResult, error)
}
