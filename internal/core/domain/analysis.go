package domain

import "strings"

// Synthesis provider identifiers recorded on plans that did not come from an LLM.
const (
	ProviderRuleBased = "rule_based"
)

// RuleBasedConfidence is the confidence assigned to rule-based analyses.
const RuleBasedConfidence = 0.6

// Analysis is the architecture record synthesised from a document's chunks.
// Every field has a usable zero value so a partial analysis still compiles.
type Analysis struct {
	ProjectName          string             `json:"project_name"`
	Description          string             `json:"description"`
	TechnologyStack      []string           `json:"technology_stack"`
	DirectoryStructure   DirectoryTree      `json:"directory_structure"`
	Dependencies         []string           `json:"dependencies"`
	EnvironmentVariables map[string]string  `json:"environment_variables"`
	PostBuildCommands    []string           `json:"post_build_commands"`
	BuildSequence        []string           `json:"build_sequence"`
	BuildInstructions    []BuildInstruction `json:"build_instructions,omitempty"`

	// Provider names the path that produced the analysis.
	Provider string `json:"-"`

	// Model is the provider model, empty for rule-based analyses.
	Model string `json:"-"`

	// Confidence is the provider's confidence estimate.
	Confidence float64 `json:"-"`

	// TokensUsed is reported by the provider, zero for rule-based analyses.
	TokensUsed int `json:"-"`
}

// MergeAnalysis applies override onto base field by field and returns the result.
// A field in override replaces the base field only when it is non-empty.
// Provenance (provider, model, confidence, tokens) always comes from override.
func MergeAnalysis(base, override *Analysis) *Analysis {
	if base == nil {
		base = &Analysis{}
	}
	merged := *base
	if override == nil {
		return &merged
	}

	if strings.TrimSpace(override.ProjectName) != "" {
		merged.ProjectName = override.ProjectName
	}
	if strings.TrimSpace(override.Description) != "" {
		merged.Description = override.Description
	}
	if len(override.TechnologyStack) > 0 {
		merged.TechnologyStack = override.TechnologyStack
	}
	if len(override.DirectoryStructure) > 0 {
		merged.DirectoryStructure = override.DirectoryStructure
	}
	if len(override.Dependencies) > 0 {
		merged.Dependencies = override.Dependencies
	}
	if len(override.EnvironmentVariables) > 0 {
		merged.EnvironmentVariables = override.EnvironmentVariables
	}
	if len(override.PostBuildCommands) > 0 {
		merged.PostBuildCommands = override.PostBuildCommands
	}
	if len(override.BuildSequence) > 0 {
		merged.BuildSequence = override.BuildSequence
	}
	if len(override.BuildInstructions) > 0 {
		merged.BuildInstructions = override.BuildInstructions
	}

	merged.Provider = override.Provider
	merged.Model = override.Model
	merged.Confidence = override.Confidence
	merged.TokensUsed = override.TokensUsed

	return &merged
}

// CollapseDuplicates returns values with blanks and repeats removed, keeping first occurrences.
func CollapseDuplicates(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// SynthesisResult is the synthesis engine's output for one chunk sequence.
type SynthesisResult struct {
	// Analysis is the merged analysis the compiler consumes.
	Analysis *Analysis

	// Raw is the unmodified generation response when it parsed as JSON.
	Raw []byte

	// Validation is the response validation outcome, nil for rule-based results.
	Validation *ValidationResult

	// FellBack is true when generation was attempted and the rule-based path was used instead.
	FellBack bool

	// FallbackReason explains why the rule-based path was used.
	FallbackReason string
}
