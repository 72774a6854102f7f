// Package shell runs plan commands through the system shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

var _ driven.CommandRunner = (*Runner)(nil)

const (
	// DefaultTimeout applies when Run is called with a zero timeout.
	DefaultTimeout = 300 * time.Second

	// waitDelay bounds how long Run waits for output pipes after the process is killed.
	waitDelay = 2 * time.Second
)

// Runner executes commands with `sh -c` (`cmd /C` on Windows).
// The child inherits the current environment plus the variables passed to Run.
type Runner struct {
	shell   string
	flag    string
	environ func() []string
}

// NewRunner creates a runner using the platform shell.
func NewRunner() *Runner {
	shell, flag := platformShell()
	return &Runner{shell: shell, flag: flag, environ: os.Environ}
}

// Run executes command in dir and waits for it to finish or time out.
func (r *Runner) Run(ctx context.Context, command, dir string, env []string, timeout time.Duration) (*domain.CommandResult, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, r.shell, r.flag, command)
	cmd.Dir = dir
	cmd.Env = append(r.environ(), env...)
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("exec: %s (dir=%s, timeout=%s)", command, dir, timeout)
	start := time.Now()
	err := cmd.Run()

	result := &domain.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return result, nil
	}

	result.ExitCode = -1
	switch {
	case errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		logger.Warn("exec: %q killed after %s", command, timeout)
		return result, fmt.Errorf("%w: %q after %s", domain.ErrCommandTimeout, command, timeout)
	case ctx.Err() != nil:
		return result, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, fmt.Errorf("%w: %q exited with code %d", domain.ErrCommandFailed, command, result.ExitCode)
	}
	return result, fmt.Errorf("%w: %q: %w", domain.ErrCommandFailed, command, err)
}
