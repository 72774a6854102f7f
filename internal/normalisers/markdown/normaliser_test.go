package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.Contains(t, mimeTypes, "text/markdown")
	assert.Contains(t, mimeTypes, "text/x-markdown")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_KeepsMarkdown(t *testing.T) {
	content := "# Shop Platform\r\n\r\n## Stack\r\n- **Next.js** frontend\r\n\r\n```bash\r\nnpm install\r\n```\r\n"

	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      "/docs/plan.md",
		MIMEType: "text/markdown",
		Content:  []byte(content),
	})
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "Shop Platform", doc.Title)
	assert.Equal(t, "markdown", doc.Format)
	assert.Equal(t, "# Shop Platform\n\n## Stack\n- **Next.js** frontend\n\n```bash\nnpm install\n```", doc.Content)
	assert.Equal(t, "text/markdown", doc.Metadata["mime_type"])
	assert.NotContains(t, doc.Metadata, MetaFrontMatter)
}

func TestNormalise_FrontMatter(t *testing.T) {
	content := "---\ntitle: Billing Service\ntags: [go, stripe]\n---\n# Heading\nBody text.\n"

	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "/billing.md",
		Content: []byte(content),
	})
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "Billing Service", doc.Title)
	assert.Equal(t, "# Heading\nBody text.", doc.Content)

	front, ok := doc.Metadata[MetaFrontMatter].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Billing Service", front["title"])
	assert.Equal(t, []any{"go", "stripe"}, front["tags"])
}

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantFront bool
		wantBody  string
	}{
		{"no front matter", "# Title\n", false, "# Title\n"},
		{"unterminated", "---\ntitle: x\n# Title", false, "---\ntitle: x\n# Title"},
		{"invalid yaml", "---\n: [\n---\nbody", false, "---\n: [\n---\nbody"},
		{"closing fence only", "---\ntitle: x\n---", true, ""},
		{"rule not fence", "---\ntitle: x\n--- more\nbody", false, "---\ntitle: x\n--- more\nbody"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			front, body := splitFrontMatter(tc.text)
			assert.Equal(t, tc.wantFront, front != nil)
			assert.Equal(t, tc.wantBody, body)
		})
	}
}

func TestFirstHeading(t *testing.T) {
	assert.Equal(t, "Real", firstHeading("```\n# not a heading\n```\n## Sub\n# Real ##"))
	assert.Equal(t, "", firstHeading("## Only level two"))
}

func TestNormalise_TitleFallsBackToFilename(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "/notes/release_notes.md",
		Content: []byte("no headings here"),
	})
	require.NoError(t, err)
	assert.Equal(t, "release notes", result.Document.Title)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
