package pdf

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error

	name string
	args []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func TestConstructors(t *testing.T) {
	n := New()
	assert.True(t, n.lookPath)
	assert.Equal(t, []string{MIMEType}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())

	runner := &mockRunner{}
	injected := NewWithRunner(runner)
	assert.Same(t, runner, injected.runner)
	assert.False(t, injected.lookPath)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		uri     string
		want    string
	}{
		{"first non-empty line", "\n\nInventory Service Design\nOverview", "/d.pdf", "Inventory Service Design"},
		{"overlong line skipped", strings.Repeat("x", 250) + "\nDeployment\n", "/d.pdf", "Deployment"},
		{"file name when empty", "", "/docs/system_overview.pdf", "system overview"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTitle(tt.content, tt.uri))
		})
	}
}

func TestPaginate(t *testing.T) {
	content, pages := paginate("Intro\n\n\n\nmore\fSecond page\f\fFourth\f")
	assert.Equal(t, 4, pages)
	assert.Equal(t, "--- Page 1 ---\nIntro\n\nmore\n\n--- Page 2 ---\nSecond page\n\n--- Page 4 ---\nFourth", content)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

// TestNormalise_WithMockRunner tests normalisation with a mocked pdftotext.
func TestNormalise_WithMockRunner(t *testing.T) {
	runner := &mockRunner{
		output: []byte("PDF Title\n\nThis is the content of the PDF.\n\fPage two.\n\f"),
	}
	normaliser := NewWithRunner(runner)
	ctx := context.Background()

	raw := &domain.RawDocument{
		URI:      "/path/to/document.pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.4 fake pdf content"),
		Metadata: map[string]any{"origin": "upload"},
	}

	result, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)
	require.NotNil(t, result)

	doc := result.Document
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "/path/to/document.pdf", doc.URI)
	assert.Equal(t, "PDF Title", doc.Title)
	assert.Contains(t, doc.Content, "This is the content of the PDF.")
	assert.Contains(t, doc.Content, "--- Page 2 ---\nPage two.")
	assert.Equal(t, "application/pdf", doc.Metadata["mime_type"])
	assert.Equal(t, "pdf", doc.Metadata["format"])
	assert.Equal(t, "upload", doc.Metadata["origin"])
	assert.Equal(t, 2, doc.Metadata["page_count"])

	assert.Equal(t, "pdftotext", runner.name)
	require.Len(t, runner.args, 5)
	assert.Equal(t, "-", runner.args[4])
}

// TestNormalise_RunnerError tests error handling when pdftotext fails.
func TestNormalise_RunnerError(t *testing.T) {
	runner := &mockRunner{
		output: nil,
		err:    errors.New("pdftotext crashed"),
	}
	normaliser := NewWithRunner(runner)
	ctx := context.Background()

	raw := &domain.RawDocument{
		URI:      "/path/to/document.pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.4 fake pdf content"),
	}

	result, err := normaliser.Normalise(ctx, raw)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Nil(t, result)
}

// Only meaningful on machines without poppler installed.
func TestNormalise_ToolMissing(t *testing.T) {
	if err := CheckAvailable(); err == nil {
		t.Skip("pdftotext installed, nothing to check")
	}

	_, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "a.pdf", Content: []byte("%PDF")})
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
}
