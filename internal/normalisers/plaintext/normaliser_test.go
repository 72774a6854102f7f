package plaintext

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	require.NotEmpty(t, mimeTypes)
	assert.Contains(t, mimeTypes, "text/plain")
	assert.Contains(t, mimeTypes, "text/x-go")
	assert.Contains(t, mimeTypes, "application/json")
	assert.NotContains(t, mimeTypes, "text/html")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/path/to/document.txt",
		MIMEType: "text/plain",
		Content:  []byte("This is plain text content.\r\nSecond line."),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, result)

	doc := result.Document
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, raw.URI, doc.URI)
	assert.Equal(t, "document", doc.Title)
	assert.Equal(t, "text", doc.Format)
	assert.Equal(t, "This is plain text content.\nSecond line.", doc.Content)
	assert.Equal(t, "text/plain", doc.Metadata["mime_type"])
	assert.Equal(t, "utf-8", doc.Metadata[MetaEncoding])
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_EmptyContent(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "/empty.txt"})
	require.NoError(t, err)
	assert.Empty(t, result.Document.Content)
}

func TestNormalise_TitleExtraction(t *testing.T) {
	tests := []struct {
		name     string
		raw      domain.RawDocument
		expected string
	}{
		{"simple filename", domain.RawDocument{URI: "/path/to/readme.txt"}, "readme"},
		{"underscores", domain.RawDocument{URI: "/my_notes_file.txt"}, "my notes file"},
		{"dashes", domain.RawDocument{URI: "/setup-guide.md"}, "setup guide"},
		{"no extension", domain.RawDocument{URI: "/Makefile"}, "Makefile"},
		{
			"metadata title wins",
			domain.RawDocument{URI: "/x.txt", Metadata: map[string]any{"title": "Quarterly Plan"}},
			"Quarterly Plan",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := tc.raw
			result, err := New().Normalise(context.Background(), &raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result.Document.Title)
		})
	}
}

func TestNormalise_MetadataPreserved(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/doc.txt",
		MIMEType: "text/plain",
		Content:  []byte("x"),
		Metadata: map[string]any{"author": "jane"},
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "jane", result.Document.Metadata["author"])

	result.Document.Metadata["author"] = "changed"
	assert.Equal(t, "jane", raw.Metadata["author"])
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    string
		wantEnc string
	}{
		{"utf-8", []byte("héllo 世界"), "héllo 世界", "utf-8"},
		{"utf-8 bom stripped", []byte("\xEF\xBB\xBFhello"), "hello", "utf-8"},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi", "utf-16le"},
		{"utf-16be bom", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi", "utf-16be"},
		{"empty", []byte{}, "", "utf-8"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, enc := Decode(tc.input)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantEnc, enc)
		})
	}
}

func TestDecode_Latin1(t *testing.T) {
	input := []byte("Le caf\xe9 est tr\xe8s bon, la cr\xe8me br\xfbl\xe9e aussi. " +
		"Nous avons d\xe9cid\xe9 de d\xe9ployer le service \xe0 Paris.")

	got, enc := Decode(input)
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "café")
	assert.Contains(t, got, "crème brûlée")
	assert.NotEqual(t, "utf-8", enc)
}

func TestDecode_NeverFails(t *testing.T) {
	inputs := [][]byte{
		{0x00, 0x01, 0x02, 0xFF, 0xFE, 0xFD},
		{0x81, 0x8D, 0x8F, 0x90, 0x9D},
		{0xFF, 0xFE, 0x00},
		[]byte(strings.Repeat("\xC3", 100)),
	}

	for _, in := range inputs {
		got, enc := Decode(in)
		assert.True(t, utf8.ValidString(got))
		assert.NotEmpty(t, enc)

		result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "/blob.bin", Content: in})
		require.NoError(t, err)
		assert.True(t, utf8.ValidString(result.Document.Content))
	}
}

func TestHasUndefinedWindows1252(t *testing.T) {
	assert.True(t, hasUndefinedWindows1252([]byte{'a', 0x81}))
	assert.False(t, hasUndefinedWindows1252([]byte("caf\xe9")))
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
