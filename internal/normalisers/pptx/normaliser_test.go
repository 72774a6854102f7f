package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

func slideXML(paragraphs ...string) string {
	var body string
	for _, p := range paragraphs {
		body += fmt.Sprintf(`<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, p)
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree><p:sp><p:txBody>` + body + `</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

func createTestPPTX(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, body := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{MIMEType}, New().SupportedMIMETypes())
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_SlidesInNumericOrder(t *testing.T) {
	content := createTestPPTX(t, map[string]string{
		"ppt/slides/slide10.xml":           slideXML("Appendix"),
		"ppt/slides/slide2.xml":            slideXML("Stack", "Next.js and Prisma"),
		"ppt/slides/slide1.xml":            slideXML("Shop Platform", "  "),
		"ppt/slides/_rels/slide1.xml.rels": "<Relationships/>",
		"ppt/presentation.xml":             "<p:presentation/>",
	})

	raw := &domain.RawDocument{URI: "/decks/shop_platform.pptx", MIMEType: MIMEType, Content: content}
	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	want := "--- Slide 1 ---\nShop Platform\n\n" +
		"--- Slide 2 ---\nStack\nNext.js and Prisma\n\n" +
		"--- Slide 10 ---\nAppendix"
	assert.Equal(t, want, result.Document.Content)
	assert.Equal(t, "shop platform", result.Document.Title)
	assert.Equal(t, "pptx", result.Document.Format)
	assert.Equal(t, 3, result.Document.Metadata["slide_count"])
}

func TestNormalise_NoSlides(t *testing.T) {
	content := createTestPPTX(t, map[string]string{"ppt/presentation.xml": "<p/>"})
	_, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "x.pptx", Content: content})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_NotZip(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "x.pptx", Content: []byte("nope")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSlideParts(t *testing.T) {
	parts := slideParts([]string{
		"ppt/slides/slide3.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slideLayout.xml",
		"ppt/slides/_rels/slide1.xml.rels",
	})
	require.Len(t, parts, 2)
	assert.Equal(t, 1, parts[0].number)
	assert.Equal(t, 3, parts[1].number)
}
