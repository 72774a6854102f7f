package domain

import "time"

// InstructionState tracks one instruction through execution.
type InstructionState string

// Instruction states. Transitions are pending → running → succeeded | failed.
const (
	StatePending   InstructionState = "pending"
	StateRunning   InstructionState = "running"
	StateSucceeded InstructionState = "succeeded"
	StateFailed    InstructionState = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s InstructionState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// InstructionResult is the recorded outcome of one instruction.
type InstructionResult struct {
	Instruction BuildInstruction `json:"instruction"`
	State       InstructionState `json:"state"`
	DryRun      bool             `json:"dry_run,omitempty"`
	Message     string           `json:"message,omitempty"`
	Output      string           `json:"output,omitempty"`
	Error       string           `json:"error,omitempty"`
	Duration    time.Duration    `json:"duration"`
}

// ExecutionReport summarises one run of a build plan.
type ExecutionReport struct {
	ProjectName string              `json:"project_name"`
	ProjectDir  string              `json:"project_dir"`
	DryRun      bool                `json:"dry_run"`
	Success     bool                `json:"success"`
	Results     []InstructionResult `json:"results"`
	PostBuild   []InstructionResult `json:"post_build,omitempty"`
	Warnings    []string            `json:"warnings"`

	// Failed is the instruction that halted the run, nil on success.
	Failed *BuildInstruction `json:"failed,omitempty"`

	// Err is the failure cause, nil on success.
	Err error `json:"-"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Succeeded counts instructions that reached StateSucceeded.
func (r *ExecutionReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.State == StateSucceeded {
			n++
		}
	}
	return n
}

// CommandResult is what a subprocess run produced.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}
