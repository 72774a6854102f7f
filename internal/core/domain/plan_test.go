package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionType_DefaultAction(t *testing.T) {
	assert.Equal(t, ActionCreate, InstructionDirectory.DefaultAction())
	assert.Equal(t, ActionCreate, InstructionFile.DefaultAction())
	assert.Equal(t, ActionInstall, InstructionDependency.DefaultAction())
	assert.Equal(t, ActionRun, InstructionCommand.DefaultAction())
	assert.False(t, InstructionType("template").IsValid())
}

func TestDirectoryTree_JSON(t *testing.T) {
	input := `{"src": {"app": "directory"}, "package.json": "file"}`

	var tree DirectoryTree
	require.NoError(t, json.Unmarshal([]byte(input), &tree))

	require.Contains(t, tree, "src")
	assert.True(t, tree["src"].IsDir())
	assert.True(t, tree["src"].Children["app"].IsDir())
	assert.False(t, tree["package.json"].IsDir())

	out, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestDirectoryTree_UnmarshalOddLeaves(t *testing.T) {
	var tree DirectoryTree
	require.NoError(t, json.Unmarshal([]byte(`{"a": 1, "b": ["x"], "c": null}`), &tree))

	assert.Equal(t, LeafFile, tree["a"].Leaf)
	assert.Equal(t, LeafFile, tree["b"].Leaf)
	assert.False(t, tree["c"].IsDir())
}

func TestDirectoryTree_Directories(t *testing.T) {
	tree := DirectoryTree{
		"src": {Children: DirectoryTree{
			"app":        {Leaf: LeafDirectory},
			"components": {Children: DirectoryTree{"Button.tsx": {Leaf: LeafFile}}},
		}},
		"package.json": {Leaf: LeafFile},
		"docs":         {Children: DirectoryTree{}},
	}

	assert.Equal(t, []string{"docs", "src", "src/app", "src/components"}, tree.Directories())
}

func TestDirectoryTree_Insert(t *testing.T) {
	tree := make(DirectoryTree)
	tree.Insert("src/components/Button.tsx", false)
	tree.Insert("src/lib/", true)
	tree.Insert(`public\images`, true)
	tree.Insert("", true)

	assert.Equal(t, []string{"public", "public/images", "src", "src/components", "src/lib"}, tree.Directories())
	assert.Equal(t, LeafFile, tree["src"].Children["components"].Children["Button.tsx"].Leaf)
}

func TestBuildPlan_SortedInstructionsStable(t *testing.T) {
	plan := BuildPlan{
		BuildInstructions: []BuildInstruction{
			{Type: InstructionCommand, Target: "b", Order: 2},
			{Type: InstructionCommand, Target: "a1", Order: 1},
			{Type: InstructionCommand, Target: "a2", Order: 1},
			{Type: InstructionDirectory, Target: "src", Order: 0},
		},
	}

	sorted := plan.SortedInstructions()
	targets := make([]string, len(sorted))
	for i, inst := range sorted {
		targets[i] = inst.Target
	}
	assert.Equal(t, []string{"src", "a1", "a2", "b"}, targets)
	assert.Equal(t, "b", plan.BuildInstructions[0].Target, "original slice untouched")
	assert.Equal(t, []int{1}, plan.DuplicateOrders())
}

func TestBuildPlan_JSONRoundTrip(t *testing.T) {
	plan := BuildPlan{
		ProjectName:     "todo-app",
		Description:     "A todo app",
		TechnologyStack: []string{"next.js", "typescript"},
		DirectoryStructure: DirectoryTree{
			"src":          {Children: DirectoryTree{"app": {Leaf: LeafDirectory}}},
			"package.json": {Leaf: LeafFile},
		},
		Dependencies: []string{"react", "next"},
		BuildInstructions: []BuildInstruction{
			{Type: InstructionDirectory, Action: ActionCreate, Target: "src", Order: 0},
			{Type: InstructionFile, Action: ActionCreate, Target: "src/index.ts", Content: "export {}\n", Order: 1},
		},
		EnvironmentVariables: map[string]string{"PORT": "3000"},
		PostBuildCommands:    []string{"npm run lint"},
		Metadata: PlanMetadata{
			GeneratedAt: "/work",
			SourceFiles: []string{"arch.md"},
			TotalChunks: 7,
			ChunkTypes:  map[string]int{"text": 5, "command": 2},
			CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		AIAnalysis:      json.RawMessage(`{"project_name":"todo-app"}`),
		ConfidenceScore: 0.95,
		ProviderUsed:    "openai",
		ValidationResults: &ValidationResult{
			IsValid:     true,
			Errors:      []string{},
			Warnings:    []string{"Instruction 0 missing field: action"},
			Suggestions: []string{},
		},
	}

	data, err := json.Marshal(plan)
	require.NoError(t, err)

	var loaded BuildPlan
	require.NoError(t, json.Unmarshal(data, &loaded))

	if diff := cmp.Diff(plan, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, loaded.IsEnhanced())
}

func TestValidationResult(t *testing.T) {
	v := NewValidationResult()
	assert.True(t, v.IsValid)

	v.AddWarning("duplicate order %d", 3)
	assert.True(t, v.IsValid)

	other := NewValidationResult()
	other.AddError("missing %s", "project_name")
	v.Merge(other)

	assert.False(t, v.IsValid)
	assert.Equal(t, []string{"missing project_name"}, v.Errors)
	assert.Equal(t, []string{"duplicate order 3"}, v.Warnings)
}
