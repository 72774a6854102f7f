package services

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

// Ensure PlanService implements the interface.
var _ driving.PlanService = (*PlanService)(nil)

// Plan defaults for analyses without an identity.
const (
	defaultPlanName        = "generated-project"
	defaultPlanDescription = "Generated application"
)

// invalidConfidence is the validity term used when a response failed validation.
const invalidConfidence = 0.3

// PlanService compiles analyses into ordered build plans.
type PlanService struct {
	store driven.PlanStore
	now   func() time.Time
}

// NewPlanService creates a plan service. store may be nil when plans are
// never persisted.
func NewPlanService(store driven.PlanStore) *PlanService {
	return &PlanService{
		store: store,
		now:   time.Now,
	}
}

// Compile converts an analysis into build instructions.
//
// Instructions are emitted in four phases: directories in pre-order, then
// explicit file instructions supplied by the analysis, then dependencies,
// then build-sequence commands. Files precede dependencies so manifests such
// as package.json exist when the package manager is chosen. Orders are
// assigned from 0 in emission order, so sorting by order never runs a
// command before the directories, files and packages it needs.
//
// Explicit directory, dependency and command instructions are folded into
// their phases; a file instruction also creates its parent directories.
func (s *PlanService) Compile(analysis *domain.Analysis) []domain.BuildInstruction {
	if analysis == nil {
		return []domain.BuildInstruction{}
	}

	tree := make(domain.DirectoryTree)
	for _, dir := range analysis.DirectoryStructure.Directories() {
		tree.Insert(dir, true)
	}
	deps := append([]string(nil), analysis.Dependencies...)
	commands := append([]string(nil), analysis.BuildSequence...)
	var explicit []domain.BuildInstruction

	for _, inst := range sortedByOrder(analysis.BuildInstructions) {
		target := strings.TrimSpace(inst.Target)
		if target == "" {
			logger.Debug("Skipping instruction without target: %s", inst)
			continue
		}
		switch inst.Type {
		case domain.InstructionDirectory:
			tree.Insert(target, true)
		case domain.InstructionDependency:
			deps = appendMissing(deps, target)
		case domain.InstructionCommand:
			commands = appendMissing(commands, target)
		default:
			if inst.Type == domain.InstructionFile {
				if dir := path.Dir(strings.ReplaceAll(target, `\`, "/")); dir != "." && dir != "/" {
					tree.Insert(dir, true)
				}
			}
			inst.Target = target
			explicit = append(explicit, inst)
		}
	}

	dirs := tree.Directories()
	out := make([]domain.BuildInstruction, 0, len(dirs)+len(deps)+len(commands)+len(explicit))
	emit := func(inst domain.BuildInstruction) {
		inst.Order = len(out)
		out = append(out, inst)
	}

	for _, dir := range dirs {
		emit(domain.BuildInstruction{Type: domain.InstructionDirectory, Action: domain.ActionCreate, Target: dir})
	}
	for _, inst := range explicit {
		if inst.Action == "" {
			inst.Action = inst.Type.DefaultAction()
		}
		emit(inst)
	}
	for _, dep := range deps {
		emit(domain.BuildInstruction{Type: domain.InstructionDependency, Action: domain.ActionInstall, Target: dep})
	}
	for _, cmd := range commands {
		emit(domain.BuildInstruction{Type: domain.InstructionCommand, Action: domain.ActionRun, Target: cmd})
	}

	return out
}

func sortedByOrder(insts []domain.BuildInstruction) []domain.BuildInstruction {
	sorted := append([]domain.BuildInstruction(nil), insts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

func appendMissing(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// NewPlan assembles a complete plan from a synthesis result and the chunks
// it was derived from. Missing fields get safe defaults.
func (s *PlanService) NewPlan(result *domain.SynthesisResult, chunks []domain.Chunk) *domain.BuildPlan {
	analysis := &domain.Analysis{}
	if result != nil && result.Analysis != nil {
		analysis = result.Analysis
	}

	plan := &domain.BuildPlan{
		ProjectName:          strings.TrimSpace(analysis.ProjectName),
		Description:          strings.TrimSpace(analysis.Description),
		TechnologyStack:      domain.CollapseDuplicates(analysis.TechnologyStack),
		DirectoryStructure:   analysis.DirectoryStructure,
		Dependencies:         domain.CollapseDuplicates(analysis.Dependencies),
		EnvironmentVariables: analysis.EnvironmentVariables,
		PostBuildCommands:    domain.CollapseDuplicates(analysis.PostBuildCommands),
		Metadata: domain.PlanMetadata{
			GeneratedAt: workingDir(),
			SourceFiles: domain.SourceFiles(chunks),
			TotalChunks: len(chunks),
			ChunkTypes:  domain.ChunkTypeCounts(chunks),
			CreatedAt:   s.now().UTC(),
		},
	}

	if plan.ProjectName == "" {
		plan.ProjectName = defaultPlanName
	}
	if plan.Description == "" {
		plan.Description = defaultPlanDescription
	}
	if plan.DirectoryStructure == nil {
		plan.DirectoryStructure = make(domain.DirectoryTree)
	}
	if plan.EnvironmentVariables == nil {
		plan.EnvironmentVariables = map[string]string{}
	}
	if plan.Metadata.SourceFiles == nil {
		plan.Metadata.SourceFiles = []string{}
	}

	normalised := *analysis
	normalised.Dependencies = plan.Dependencies
	plan.BuildInstructions = s.Compile(&normalised)

	plan.ProviderUsed = analysis.Provider
	plan.ConfidenceScore = analysis.Confidence
	if result != nil && result.Validation != nil {
		validation := *result.Validation
		plan.ValidationResults = &validation
		plan.AIAnalysis = append([]byte(nil), result.Raw...)

		validity := invalidConfidence
		if validation.IsValid {
			validity = 1.0
		}
		plan.ConfidenceScore = (analysis.Confidence + validity) / 2
	}

	return plan
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// Save writes the plan through the plan store.
func (s *PlanService) Save(plan *domain.BuildPlan, path string) error {
	if plan == nil {
		return fmt.Errorf("%w: nil plan", domain.ErrInvalidInput)
	}
	if s.store == nil {
		return fmt.Errorf("save plan: no plan store configured")
	}
	if err := s.store.Save(plan, path); err != nil {
		return fmt.Errorf("save plan %s: %w", path, err)
	}
	logger.Debug("Saved plan %q to %s", plan.ProjectName, path)
	return nil
}

// Load reads a plan through the plan store.
func (s *PlanService) Load(path string) (*domain.BuildPlan, error) {
	if s.store == nil {
		return nil, fmt.Errorf("load plan: no plan store configured")
	}
	plan, err := s.store.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", path, err)
	}
	return plan, nil
}
