package classifier

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

func TestClassify_Enhanced(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    domain.ContentType
	}{
		{"markdown heading", "# Overview", domain.ContentTypeSectionHeader},
		{"caps label", "ARCHITECTURE:", domain.ContentTypeSectionHeader},
		{"fenced code", "```go\nfmt.Println()\n```", domain.ContentTypeCode},
		{"keyword statement", "def main():\n    pass", domain.ContentTypeCode},
		{"shebang", "#!/bin/sh\necho hi", domain.ContentTypeCode},
		{"config extension", "Create a tsconfig.json file", domain.ContentTypeConfig},
		{"key value", "port: 8080", domain.ContentTypeConfig},
		{"command", "npm install react", domain.ContentTypeCommand},
		{"table", "| Name | Type |\n|------|------|", domain.ContentTypeTable},
		{"bullet list", "- item one\n- item two", domain.ContentTypeList},
		{"numbered list", "1. first\n2. second", domain.ContentTypeList},
		{"quote", "> quoted wisdom here", domain.ContentTypeQuote},
		{"diagram", "┌──┐\n└──┘", domain.ContentTypeDiagram},
		{"prose", "Just some prose about the system.", domain.ContentTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.content, EnhancedRules))
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// Heading beats command, fence beats command.
	assert.Equal(t, domain.ContentTypeSectionHeader, Classify("# Setup\nnpm install react", EnhancedRules))
	assert.Equal(t, domain.ContentTypeCode, Classify("```bash\nnpm install\n```", EnhancedRules))
	// Config extension beats command.
	assert.Equal(t, domain.ContentTypeConfig, Classify("git add package.json", EnhancedRules))
}

func TestClassify_Basic(t *testing.T) {
	assert.Equal(t, domain.ContentTypeCode, Classify("# Setup", BasicRules))
	assert.Equal(t, domain.ContentTypeConfig, Classify("See package.json", BasicRules))
	assert.Equal(t, domain.ContentTypeCommand, Classify("npm install react", BasicRules))
	assert.Equal(t, domain.ContentTypeText, Classify("| a | b |", BasicRules))
	assert.Equal(t, domain.ContentTypeText, Classify("Hello world", BasicRules))
}

func TestClassify_CustomRules(t *testing.T) {
	rules := []Rule{{Type: domain.ContentTypeMetadata, Match: func(s string) bool {
		return strings.HasPrefix(s, "---")
	}}}
	assert.Equal(t, domain.ContentTypeMetadata, Classify("---\ntitle: x", rules))
	assert.Equal(t, domain.ContentTypeText, Classify("anything", nil))
}

func TestExtractEntities(t *testing.T) {
	content := "Build with Next.js and React on Docker.\n" +
		"Run npm install axios then npx create-next-app my-app.\n" +
		"Edit src/app/page.tsx and see https://example.com/docs."

	got := ExtractEntities(content)

	assert.Equal(t, []string{"docker", "next.js", "react"}, got[domain.EntityTechnologies])
	assert.Equal(t, []string{"npm install", "npx create-next-app"}, got[domain.EntityCommands])
	assert.Equal(t, []string{"https://example.com/docs"}, got[domain.EntityURLs])
	assert.Equal(t, []string{"/app/page.tsx", "src/app/page"}, got[domain.EntityFilePaths])
	assert.Equal(t, []string{"axios"}, got[domain.EntityDependencies])
}

func TestExtractEntities_Deduplicates(t *testing.T) {
	got := ExtractEntities("react React REACT\nnpm install react\nnpm install react")

	assert.Equal(t, []string{"react"}, got[domain.EntityTechnologies])
	assert.Equal(t, []string{"react"}, got[domain.EntityDependencies])
	assert.Equal(t, []string{"npm install"}, got[domain.EntityCommands])
}

func TestExtractEntities_ManifestPairs(t *testing.T) {
	got := ExtractEntities(`{"dependencies": {"next": "14.0.0", "@prisma/client": "^5"}}`)
	assert.Equal(t, []string{"@prisma/client", "next"}, got[domain.EntityDependencies])
}

func TestExtractEntities_Empty(t *testing.T) {
	assert.Empty(t, ExtractEntities("nothing to see"))
}

func TestContentHierarchy(t *testing.T) {
	content := "## Backend\nTask 3 wire the API: now\nPhase 2 rollout\n### Details"
	assert.Equal(t, []string{
		"H2: Backend",
		"H3: Details",
		"Task: Task 3 wire the API",
		"Phase: Phase 2 rollout",
	}, ContentHierarchy(content))
	assert.Empty(t, ContentHierarchy("plain"))
}

func TestConfidence(t *testing.T) {
	long := strings.Repeat("word ", 250)

	tests := []struct {
		name    string
		content string
		typ     domain.ContentType
		want    float64
	}{
		{"short text", "hi", domain.ContentTypeText, 0.6},
		{"medium text", strings.Repeat("x", 60), domain.ContentTypeText, 0.8},
		{"long text", long, domain.ContentTypeText, 0.9},
		{"short code with def", "def f(): pass", domain.ContentTypeCode, 0.8},
		{"short command with npm", "npm install x", domain.ContentTypeCommand, 0.8},
		{"short config with brace", `{"a": 1}`, domain.ContentTypeConfig, 0.7},
		{"long code clamps", long + "function x() {}", domain.ContentTypeCode, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Confidence(tt.content, tt.typ), 1e-9)
		})
	}
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "classifier", New().Name())
}

func TestProcessor_Process_Enhanced(t *testing.T) {
	contents := []string{
		"# Project",
		"intro text",
		"## Setup",
		"Task 1: Install deps\nnpm install react",
		"# Deploy",
		"ship it",
	}
	in := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		in[i] = domain.Chunk{Content: c, Type: domain.ContentTypeText, Index: i, SourceFile: "a.md"}
	}

	out, err := New().Process(context.Background(), &domain.Document{}, in)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	assert.Equal(t, domain.ContentTypeSectionHeader, out[0].Type)
	assert.Equal(t, domain.ContentTypeText, out[1].Type)
	assert.Equal(t, domain.ContentTypeCommand, out[3].Type)

	assert.Equal(t, []string{"H1: Project"}, out[0].SectionHierarchy)
	assert.Equal(t, []string{"H1: Project"}, out[1].SectionHierarchy)
	assert.Equal(t, []string{"H1: Project", "H2: Setup"}, out[2].SectionHierarchy)
	assert.Equal(t, []string{"H1: Project", "H2: Setup", "Task: Task 1"}, out[3].SectionHierarchy)
	assert.Equal(t, []string{"H1: Deploy"}, out[4].SectionHierarchy)
	assert.Equal(t, []string{"H1: Deploy"}, out[5].SectionHierarchy)

	assert.Equal(t, []string{"react"}, out[3].Entities[domain.EntityDependencies])
	for i, c := range out {
		assert.Equal(t, i, c.Index)
		assert.GreaterOrEqual(t, c.Confidence, 0.1)
		assert.LessOrEqual(t, c.Confidence, 1.0)
	}

	// Input chunks are left untouched.
	assert.Equal(t, domain.ContentTypeText, in[0].Type)
	assert.Nil(t, in[0].SectionHierarchy)
	assert.Zero(t, in[3].Confidence)
}

func TestProcessor_Process_Basic(t *testing.T) {
	in := []domain.Chunk{{Content: "npm install react"}, {Content: "prose"}}

	out, err := New(WithMode(domain.ProcessingBasic)).Process(context.Background(), nil, in)
	require.NoError(t, err)

	assert.Equal(t, domain.ContentTypeCommand, out[0].Type)
	assert.Equal(t, domain.ContentTypeText, out[1].Type)
	assert.Nil(t, out[0].Entities)
	assert.Nil(t, out[0].SectionHierarchy)
	assert.Zero(t, out[0].Confidence)
}

func TestProcessor_Process_Empty(t *testing.T) {
	out, err := New().Process(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProcessor_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Process(ctx, nil, []domain.Chunk{{Content: "x"}})
	assert.Error(t, err)
}
