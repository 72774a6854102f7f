package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// InstructionType is the kind of work a build instruction performs.
type InstructionType string

// Available instruction types.
const (
	InstructionDirectory  InstructionType = "directory"
	InstructionFile       InstructionType = "file"
	InstructionDependency InstructionType = "dependency"
	InstructionCommand    InstructionType = "command"
)

// IsValid returns true if the instruction type is recognised.
func (t InstructionType) IsValid() bool {
	switch t {
	case InstructionDirectory, InstructionFile, InstructionDependency, InstructionCommand:
		return true
	default:
		return false
	}
}

// DefaultAction returns the action paired with this type.
func (t InstructionType) DefaultAction() Action {
	switch t {
	case InstructionDirectory, InstructionFile:
		return ActionCreate
	case InstructionDependency:
		return ActionInstall
	default:
		return ActionRun
	}
}

// Action is the verb applied to an instruction target.
type Action string

// Available actions.
const (
	ActionCreate  Action = "create"
	ActionInstall Action = "install"
	ActionRun     Action = "run"
)

// BuildInstruction is one atomic, schedulable build step.
// Instructions are owned by the BuildPlan that contains them.
type BuildInstruction struct {
	// Type selects the executor behaviour.
	Type InstructionType `json:"type"`

	// Action is create, install or run depending on Type.
	Action Action `json:"action"`

	// Target is a path, package name or command text depending on Type.
	Target string `json:"target"`

	// Content is the file body when Type is file.
	Content string `json:"content,omitempty"`

	// Order is the execution position. Ties are allowed and keep input order.
	Order int `json:"order"`
}

// String renders the instruction for logs.
func (i BuildInstruction) String() string {
	return fmt.Sprintf("#%d %s/%s %s", i.Order, i.Type, i.Action, i.Target)
}

// Directory tree leaf markers.
const (
	LeafFile      = "file"
	LeafDirectory = "directory"
)

// DirectoryTree maps a path component to its node.
type DirectoryTree map[string]DirectoryNode

// DirectoryNode is either a subtree or a leaf marker.
// It serialises as a JSON object when it has children and as a string otherwise.
type DirectoryNode struct {
	Children DirectoryTree
	Leaf     string
}

// IsDir reports whether the node denotes a directory.
func (n DirectoryNode) IsDir() bool {
	return n.Children != nil || n.Leaf == LeafDirectory
}

// MarshalJSON encodes subtrees as objects and leaves as strings.
func (n DirectoryNode) MarshalJSON() ([]byte, error) {
	if n.Children != nil {
		return json.Marshal(map[string]DirectoryNode(n.Children))
	}
	return json.Marshal(n.Leaf)
}

// UnmarshalJSON accepts an object (subtree) or any scalar (leaf marker).
// Non-string scalars and arrays are treated as file leaves.
func (n *DirectoryNode) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		children := make(DirectoryTree)
		if err := json.Unmarshal(data, (*map[string]DirectoryNode)(&children)); err != nil {
			return err
		}
		n.Children = children
		n.Leaf = ""
		return nil
	}

	var leaf string
	if err := json.Unmarshal(data, &leaf); err != nil {
		leaf = LeafFile
	}
	n.Children = nil
	n.Leaf = leaf
	return nil
}

// Insert adds a slash-separated path to the tree, one component at a time.
// Intermediate components become subtrees; the last becomes leaf unless isDir.
func (t DirectoryTree) Insert(path string, isDir bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return
	}

	current := t
	for i, part := range parts {
		last := i == len(parts)-1
		node, exists := current[part]

		if last && !isDir {
			if !exists {
				current[part] = DirectoryNode{Leaf: LeafFile}
			}
			return
		}

		if node.Children == nil {
			node = DirectoryNode{Children: make(DirectoryTree)}
			current[part] = node
		}
		current = node.Children
	}
}

// Directories returns every directory path in pre-order: a node is listed
// before its children, siblings in lexical order.
func (t DirectoryTree) Directories() []string {
	var dirs []string
	t.walk("", &dirs)
	return dirs
}

func (t DirectoryTree) walk(prefix string, dirs *[]string) {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		node := t[name]
		if !node.IsDir() {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}
		*dirs = append(*dirs, path)
		node.Children.walk(path, dirs)
	}
}

func splitPath(path string) []string {
	path = strings.ReplaceAll(path, "\\", "/")
	var parts []string
	for _, p := range strings.Split(path, "/") {
		p = strings.TrimSpace(p)
		if p == "" || p == "." {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

// PlanMetadata records where a plan came from.
type PlanMetadata struct {
	// GeneratedAt is the working location the plan was generated from.
	GeneratedAt string `json:"generated_at"`

	// SourceFiles lists the documents that contributed chunks.
	SourceFiles []string `json:"source_files"`

	// TotalChunks is the number of chunks synthesised.
	TotalChunks int `json:"total_chunks"`

	// ChunkTypes counts chunks per content type.
	ChunkTypes map[string]int `json:"chunk_types"`

	// CreatedAt is the generation timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// ValidationResult collects the outcome of a plan or response check.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// NewValidationResult returns a passing result with empty lists.
func NewValidationResult() ValidationResult {
	return ValidationResult{
		IsValid:     true,
		Errors:      []string{},
		Warnings:    []string{},
		Suggestions: []string{},
	}
}

// AddError records a fatal problem and marks the result invalid.
func (v *ValidationResult) AddError(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
	v.IsValid = false
}

// AddWarning records a non-fatal problem.
func (v *ValidationResult) AddWarning(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// Merge folds other into v.
func (v *ValidationResult) Merge(other ValidationResult) {
	v.Errors = append(v.Errors, other.Errors...)
	v.Warnings = append(v.Warnings, other.Warnings...)
	v.Suggestions = append(v.Suggestions, other.Suggestions...)
	v.IsValid = v.IsValid && other.IsValid
}

// BuildPlan is the complete, serialisable blueprint for one generated project.
// The enhanced fields are empty for plans produced without synthesis metadata.
type BuildPlan struct {
	ProjectName          string             `json:"project_name"`
	Description          string             `json:"description"`
	TechnologyStack      []string           `json:"technology_stack"`
	DirectoryStructure   DirectoryTree      `json:"directory_structure"`
	Dependencies         []string           `json:"dependencies"`
	BuildInstructions    []BuildInstruction `json:"build_instructions"`
	EnvironmentVariables map[string]string  `json:"environment_variables"`
	PostBuildCommands    []string           `json:"post_build_commands"`
	Metadata             PlanMetadata       `json:"metadata"`

	AIAnalysis        json.RawMessage   `json:"ai_analysis,omitempty"`
	ConfidenceScore   float64           `json:"confidence_score,omitempty"`
	ProviderUsed      string            `json:"provider_used,omitempty"`
	ValidationResults *ValidationResult `json:"validation_results,omitempty"`
}

// IsEnhanced reports whether the plan carries synthesis metadata.
func (p *BuildPlan) IsEnhanced() bool {
	return p.ProviderUsed != "" || p.ValidationResults != nil || len(p.AIAnalysis) > 0
}

// SortedInstructions returns a copy of the instructions sorted by Order.
// The sort is stable so ties keep their original sequence.
func (p *BuildPlan) SortedInstructions() []BuildInstruction {
	sorted := make([]BuildInstruction, len(p.BuildInstructions))
	copy(sorted, p.BuildInstructions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// DuplicateOrders returns each order value used by more than one instruction, ascending.
func (p *BuildPlan) DuplicateOrders() []int {
	counts := make(map[int]int)
	for _, inst := range p.BuildInstructions {
		counts[inst.Order]++
	}
	var dups []int
	for order, n := range counts {
		if n > 1 {
			dups = append(dups, order)
		}
	}
	sort.Ints(dups)
	return dups
}
