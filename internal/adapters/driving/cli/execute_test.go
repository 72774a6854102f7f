package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

func TestValidateCmd_Valid(t *testing.T) {
	ts := setupTestServices(t)
	ts.executor.validation.Warnings = []string{"duplicate order 3"}

	out, err := runCommand(t, "validate", "BuildPlan.json")

	require.NoError(t, err)
	assert.Equal(t, "BuildPlan.json", ts.plan.loadArg)
	assert.Contains(t, out, "Plan is valid")
	assert.Contains(t, out, "duplicate order 3")
	assert.False(t, ts.executor.executed)
}

func TestValidateCmd_Invalid(t *testing.T) {
	ts := setupTestServices(t)
	ts.executor.validation = domain.ValidationResult{Errors: []string{"project name is empty"}}

	out, err := runCommand(t, "validate", "BuildPlan.json")

	assert.ErrorIs(t, err, domain.ErrPlanInvalid)
	assert.Contains(t, out, "Plan is invalid")
	assert.Contains(t, out, "project name is empty")
}

func TestValidateCmd_LoadError(t *testing.T) {
	ts := setupTestServices(t)
	ts.plan.err = domain.ErrNotFound

	_, err := runCommand(t, "validate", "missing.json")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExecuteCmd_RunsPlan(t *testing.T) {
	ts := setupTestServices(t)
	ts.executor.report = &domain.ExecutionReport{
		ProjectName: "demo",
		ProjectDir:  "build/demo",
		DryRun:      true,
		Success:     true,
		Results: []domain.InstructionResult{{
			Instruction: domain.BuildInstruction{Order: 1, Type: domain.InstructionDirectory, Action: domain.ActionCreate, Target: "src"},
			State:       domain.StateSucceeded,
			Message:     "would create directory",
		}},
	}

	out, err := runCommand(t, "execute", "plan.yaml", "-o", "build", "--dry-run")

	require.NoError(t, err)
	assert.True(t, ts.executor.executed)
	assert.Equal(t, "build", ts.executor.lastOpts.WorkingDir)
	assert.True(t, ts.executor.lastOpts.DryRun)
	assert.Contains(t, out, "Execution of demo (dry run)")
	assert.Contains(t, out, "would create directory")
	assert.Contains(t, out, "succeeded")
}

func TestExecuteCmd_UsesSettingsDefaults(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.settings.Build.OutputDir = "/tmp/projects"
	ts.settings.settings.Build.DryRunDefault = true

	_, err := runCommand(t, "execute", "plan.json")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/projects", ts.executor.lastOpts.WorkingDir)
	assert.True(t, ts.executor.lastOpts.DryRun)
}

func TestExecuteCmd_InvalidPlanNotRun(t *testing.T) {
	ts := setupTestServices(t)
	ts.executor.validation = domain.ValidationResult{Errors: []string{"no instructions"}}

	_, err := runCommand(t, "execute", "plan.json")

	assert.ErrorIs(t, err, domain.ErrPlanInvalid)
	assert.False(t, ts.executor.executed)
}

func TestExecuteCmd_NoServices(t *testing.T) {
	t.Cleanup(func() { resetFlags(rootCmd) })
	SetServices(nil)

	_, err := runCommand(t, "execute", "plan.json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan service not configured")
}
