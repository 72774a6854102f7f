package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

// Ensure ExecutorService implements the interface.
var _ driving.ExecutorService = (*ExecutorService)(nil)

const dryRunPrefix = "[DRY RUN] "

// Package manager markers checked in the project root, in order.
var packageManagers = []struct {
	markers []string
	install string
}{
	{[]string{"package.json"}, "npm install"},
	{[]string{"requirements.txt", "pyproject.toml"}, "pip install"},
}

// ExecutorService replays build plans against the filesystem.
// Instructions run strictly one after another in order.
type ExecutorService struct {
	runner   driven.CommandRunner
	settings domain.BuildSettings
	reporter driven.ErrorReporter
	now      func() time.Time
}

// NewExecutorService creates an executor that runs commands through runner.
func NewExecutorService(runner driven.CommandRunner, settings domain.BuildSettings) *ExecutorService {
	if settings.CommandTimeout <= 0 {
		settings.CommandTimeout = domain.DefaultAppSettings().Build.CommandTimeout
	}
	return &ExecutorService{
		runner:   runner,
		settings: settings,
		now:      time.Now,
	}
}

// SetErrorReporter sets the sink for instruction failures.
func (s *ExecutorService) SetErrorReporter(r driven.ErrorReporter) {
	s.reporter = r
}

// Validate checks a plan before execution. Duplicate orders and unknown
// instruction types are warnings.
func (s *ExecutorService) Validate(plan *domain.BuildPlan) domain.ValidationResult {
	result := domain.NewValidationResult()
	if plan == nil {
		result.AddError("Build plan is empty")
		return result
	}

	if strings.TrimSpace(plan.ProjectName) == "" {
		result.AddError("Project name is required")
	} else if _, err := projectDirName(plan.ProjectName); err != nil {
		result.AddError("Project name %q is not a valid directory name", plan.ProjectName)
	}
	if len(plan.BuildInstructions) == 0 {
		result.AddError("No build instructions found")
	}

	if dups := plan.DuplicateOrders(); len(dups) > 0 {
		result.AddWarning("Duplicate instruction orders: %v", dups)
		result.Suggestions = append(result.Suggestions, "Renumber instructions so each order is unique")
	}
	for i, inst := range plan.BuildInstructions {
		if !inst.Type.IsValid() {
			result.AddWarning("Instruction %d has unknown type %q", i, inst.Type)
		}
		if strings.TrimSpace(inst.Target) == "" {
			result.AddWarning("Instruction %d has no target", i)
		}
	}
	return result
}

// Execute runs the plan's instructions in order inside WorkingDir/<project_name>,
// then its post-build commands. The first failing instruction halts the run;
// post-build failures only add warnings.
func (s *ExecutorService) Execute(ctx context.Context, plan *domain.BuildPlan, opts driving.ExecuteOptions) (*domain.ExecutionReport, error) {
	start := s.now()
	report := &domain.ExecutionReport{
		DryRun:    opts.DryRun,
		Results:   []domain.InstructionResult{},
		Warnings:  []string{},
		StartedAt: start.UTC(),
	}
	finish := func(err error) (*domain.ExecutionReport, error) {
		report.Duration = s.now().Sub(start)
		report.Success = err == nil
		report.Err = err
		return report, err
	}

	validation := s.Validate(plan)
	if !validation.IsValid {
		return finish(fmt.Errorf("%w: %s", domain.ErrPlanInvalid, strings.Join(validation.Errors, "; ")))
	}
	report.Warnings = append(report.Warnings, validation.Warnings...)
	report.ProjectName = plan.ProjectName

	root, err := s.projectRoot(plan, opts)
	if err != nil {
		return finish(err)
	}
	report.ProjectDir = root

	run := &execution{
		executor: s,
		ctx:      ctx,
		root:     root,
		dryRun:   opts.DryRun,
		env:      environment(plan.EnvironmentVariables),
		report:   report,
	}

	if !opts.DryRun {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return finish(fmt.Errorf("create project directory: %w", err))
		}
	}

	logger.Debug("Executing %d instructions for %s in %s", len(plan.BuildInstructions), plan.ProjectName, root)

	instructions := plan.SortedInstructions()
	for i, inst := range instructions {
		res := run.instruction(inst)
		report.Results = append(report.Results, res)
		if res.State == domain.StateFailed {
			failed := inst
			report.Failed = &failed
			for _, rest := range instructions[i+1:] {
				report.Results = append(report.Results, domain.InstructionResult{
					Instruction: rest,
					State:       domain.StatePending,
					DryRun:      opts.DryRun,
				})
			}
			err := fmt.Errorf("instruction %s: %s", inst, res.Error)
			if s.reporter != nil {
				s.reporter.Report(domain.StageExecute, err, map[string]any{"instruction": inst.String()})
			}
			return finish(err)
		}
	}

	for _, cmd := range plan.PostBuildCommands {
		res := run.command(domain.BuildInstruction{
			Type:   domain.InstructionCommand,
			Action: domain.ActionRun,
			Target: cmd,
		})
		report.PostBuild = append(report.PostBuild, res)
		if res.State == domain.StateFailed {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Post-build command failed: %s: %s", cmd, res.Error))
		}
	}

	if !opts.DryRun {
		report.Warnings = append(report.Warnings, checkProject(root)...)
	}

	logger.Debug("Executed %d instructions for %s", report.Succeeded(), plan.ProjectName)
	return finish(nil)
}

func (s *ExecutorService) projectRoot(plan *domain.BuildPlan, opts driving.ExecuteOptions) (string, error) {
	base := opts.WorkingDir
	if base == "" {
		base = s.settings.OutputDir
	}
	if base == "" {
		base = "."
	}
	name, err := projectDirName(plan.ProjectName)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(filepath.Join(base, name))
	if err != nil {
		return "", fmt.Errorf("resolve project directory: %w", err)
	}
	return abs, nil
}

// projectDirName rejects project names that are not a single path component.
func projectDirName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: project name %q", domain.ErrPathEscapesRoot, name)
	}
	return name, nil
}

func environment(vars map[string]string) []string {
	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// execution carries the state of one Execute call.
type execution struct {
	executor *ExecutorService
	ctx      context.Context
	root     string
	dryRun   bool
	env      []string
	report   *domain.ExecutionReport
}

// handler is one instruction type's behaviour. preview describes the effect
// without causing it and apply causes it; step picks one of the two.
type handler struct {
	preview func(inst domain.BuildInstruction) (string, error)
	apply   func(inst domain.BuildInstruction, res *domain.InstructionResult) error
}

func (e *execution) handler(t domain.InstructionType) (handler, bool) {
	switch t {
	case domain.InstructionDirectory:
		return handler{e.previewDirectory, e.createDirectory}, true
	case domain.InstructionFile:
		return handler{e.previewFile, e.createFile}, true
	case domain.InstructionDependency:
		return handler{e.previewDependency, e.installDependency}, true
	case domain.InstructionCommand:
		return handler{
			preview: func(inst domain.BuildInstruction) (string, error) {
				return "Would run command: " + inst.Target, nil
			},
			apply: func(inst domain.BuildInstruction, res *domain.InstructionResult) error {
				return e.run(inst.Target, res)
			},
		}, true
	default:
		return handler{}, false
	}
}

// instruction runs one instruction through pending → running → terminal.
func (e *execution) instruction(inst domain.BuildInstruction) domain.InstructionResult {
	h, ok := e.handler(inst.Type)
	if !ok {
		warning := fmt.Sprintf("Unknown instruction type %q for %s, skipped", inst.Type, inst.Target)
		e.report.Warnings = append(e.report.Warnings, warning)
		logger.Warn("%s", warning)
		return domain.InstructionResult{
			Instruction: inst,
			State:       domain.StateSucceeded,
			DryRun:      e.dryRun,
			Message:     warning,
		}
	}
	return e.step(inst, h)
}

func (e *execution) command(inst domain.BuildInstruction) domain.InstructionResult {
	h, _ := e.handler(domain.InstructionCommand)
	return e.step(inst, h)
}

// step is the only place a dry run is decided: apply is never reached when
// dryRun is set.
func (e *execution) step(inst domain.BuildInstruction, h handler) domain.InstructionResult {
	res := domain.InstructionResult{Instruction: inst, State: domain.StatePending, DryRun: e.dryRun}

	start := time.Now()
	res.State = domain.StateRunning
	logger.Debug("Running %s", inst)

	var err error
	if e.dryRun {
		var msg string
		if msg, err = h.preview(inst); err == nil {
			res.Message = dryRunPrefix + msg
		}
	} else {
		err = h.apply(inst, &res)
	}

	if err != nil {
		res.State = domain.StateFailed
		res.Error = err.Error()
		logger.Debug("Instruction %s failed: %v", inst, err)
	} else {
		res.State = domain.StateSucceeded
	}
	res.Duration = time.Since(start)
	return res
}

// resolve joins target to the project root and rejects escapes.
func (e *execution) resolve(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("%w: empty target", domain.ErrInvalidInput)
	}
	full := filepath.Join(e.root, filepath.FromSlash(strings.ReplaceAll(target, `\`, "/")))
	rel, err := filepath.Rel(e.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathEscapesRoot, target)
	}
	return full, nil
}

func (e *execution) previewDirectory(inst domain.BuildInstruction) (string, error) {
	full, err := e.resolve(inst.Target)
	if err != nil {
		return "", err
	}
	return "Would create directory: " + full, nil
}

func (e *execution) createDirectory(inst domain.BuildInstruction, res *domain.InstructionResult) error {
	full, err := e.resolve(inst.Target)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	res.Message = "Created directory: " + full
	return nil
}

func (e *execution) previewFile(inst domain.BuildInstruction) (string, error) {
	full, err := e.resolve(inst.Target)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Would create file: %s (%d bytes)", full, len(inst.Content)), nil
}

func (e *execution) createFile(inst domain.BuildInstruction, res *domain.InstructionResult) error {
	full, err := e.resolve(inst.Target)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(full, []byte(inst.Content), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	res.Message = "Created file: " + full
	return nil
}

// installer returns the install command for the first package manager whose
// marker file exists in the project root, or "".
func (e *execution) installer() string {
	for _, pm := range packageManagers {
		for _, marker := range pm.markers {
			if _, err := os.Stat(filepath.Join(e.root, marker)); err == nil {
				return pm.install
			}
		}
	}
	return ""
}

func dependencyName(inst domain.BuildInstruction) (string, error) {
	pkg := strings.TrimSpace(inst.Target)
	if pkg == "" {
		return "", fmt.Errorf("%w: empty dependency", domain.ErrInvalidInput)
	}
	return pkg, nil
}

// previewDependency cannot see markers that earlier instructions would have
// written, so it names the package manager only when one already exists.
func (e *execution) previewDependency(inst domain.BuildInstruction) (string, error) {
	pkg, err := dependencyName(inst)
	if err != nil {
		return "", err
	}
	if install := e.installer(); install != "" {
		return "Would run command: " + install + " " + pkg, nil
	}
	return "Would install dependency: " + pkg, nil
}

// installDependency picks a package manager from marker files in the project
// root. Without a marker the dependency is skipped with a warning.
func (e *execution) installDependency(inst domain.BuildInstruction, res *domain.InstructionResult) error {
	pkg, err := dependencyName(inst)
	if err != nil {
		return err
	}
	install := e.installer()
	if install == "" {
		warning := "No package manager detected for dependency: " + pkg
		e.report.Warnings = append(e.report.Warnings, warning)
		res.Message = warning
		return nil
	}
	return e.run(install+" "+pkg, res)
}

// run starts a subprocess. Only apply functions reach it.
func (e *execution) run(command string, res *domain.InstructionResult) error {
	if !e.executor.settings.AllowShellCommands {
		return fmt.Errorf("%w: %s", domain.ErrCommandsDisabled, command)
	}
	if e.executor.runner == nil {
		return fmt.Errorf("%w: no command runner configured", domain.ErrCommandsDisabled)
	}

	out, err := e.executor.runner.Run(e.ctx, command, e.root, e.env, e.executor.settings.CommandTimeout)
	if out != nil {
		res.Output = out.Stdout
	}
	if err != nil {
		if out != nil && strings.TrimSpace(out.Stderr) != "" && !errors.Is(err, domain.ErrCommandTimeout) {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(out.Stderr))
		}
		return err
	}
	res.Message = "Ran command: " + command
	return nil
}

// checkProject inspects the generated project for obvious defects.
func checkProject(root string) []string {
	var warnings []string
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err == nil && !json.Valid(data) {
		warnings = append(warnings, "Invalid package.json format")
	}
	return warnings
}
