// Package docmeta holds the helpers every normaliser uses to build its result.
package docmeta

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
)

// Metadata keys set on every normalised document.
const (
	KeyMIMEType = "mime_type"
	KeyFormat   = "format"
)

// Result wraps extracted text in a NormaliseResult.
// Raw metadata is copied, never shared.
func Result(raw *domain.RawDocument, format, title, content string) *driven.NormaliseResult {
	meta := CopyMetadata(raw.Metadata)
	if meta == nil {
		meta = make(map[string]any)
	}
	meta[KeyMIMEType] = raw.MIMEType
	meta[KeyFormat] = format

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:        uuid.New().String(),
			URI:       raw.URI,
			Title:     title,
			Format:    format,
			Content:   content,
			Metadata:  meta,
			CreatedAt: time.Now(),
		},
	}
}

// TitleFromURI turns a file name into a readable title:
// the extension is dropped and underscores and dashes become spaces.
func TitleFromURI(uri string) string {
	filename := filepath.Base(uri)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	return strings.NewReplacer("_", " ", "-", " ").Replace(filename)
}

// CopyMetadata creates a shallow copy of metadata.
func CopyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// CollapseBlankLines trims every line and keeps at most one empty line in a row.
func CollapseBlankLines(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
