package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/logger"
	"github.com/custodia-labs/archon-cli/internal/normalisers/docx"
	"github.com/custodia-labs/archon-cli/internal/normalisers/html"
	"github.com/custodia-labs/archon-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/archon-cli/internal/normalisers/pdf"
	"github.com/custodia-labs/archon-cli/internal/normalisers/plaintext"
	"github.com/custodia-labs/archon-cli/internal/normalisers/pptx"
	"github.com/custodia-labs/archon-cli/internal/normalisers/xlsx"
)

// Verify interface compliance.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw documents to normalisers by MIME type.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
	fallback    driven.Normaliser
}

// NewRegistry creates an empty registry whose last resort is the plaintext decoder.
func NewRegistry() *Registry {
	return &Registry{fallback: plaintext.New()}
}

// NewDefaultRegistry creates a registry with every built-in normaliser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// RegisterDefaults registers all built-in normalisers.
func RegisterDefaults(r driven.NormaliserRegistry) {
	r.Register(docx.New())
	r.Register(pptx.New())
	r.Register(xlsx.New())
	r.Register(pdf.New())
	r.Register(html.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
}

// Register adds a normaliser. Higher priorities are tried first; equal
// priorities keep registration order.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// SupportedMIMETypes returns all MIME types that can be normalised, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, m := range n.SupportedMIMETypes() {
			seen[m] = struct{}{}
		}
	}
	types := make([]string, 0, len(seen))
	for m := range seen {
		types = append(types, m)
	}
	sort.Strings(types)
	return types
}

// Normalise runs the matching normalisers in priority order and returns the
// first success. When every candidate fails, the content is decoded as text.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mimeType := baseMIMEType(raw.MIMEType)
	for _, n := range r.candidates(mimeType) {
		res, err := n.Normalise(ctx, raw)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug("normaliser for %s failed on %s: %v", mimeType, raw.URI, err)
	}

	res, err := r.fallback.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("fallback decode %s: %w", raw.URI, err)
	}
	return res, nil
}

func (r *Registry) candidates(mimeType string) []driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []driven.Normaliser
	for _, n := range r.normalisers {
		for _, m := range n.SupportedMIMETypes() {
			if m == mimeType {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func baseMIMEType(t string) string {
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(t))
}

// extensionTypes covers the formats the normalisers understand plus common
// source files that should read as text.
var extensionTypes = map[string]string{
	".docx":     docx.MIMEType,
	".pptx":     pptx.MIMEType,
	".xlsx":     xlsx.MIMEType,
	".pdf":      pdf.MIMEType,
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".csv":      "text/csv",
	".json":     "application/json",
	".xml":      "application/xml",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".java":     "text/x-java",
	".js":       "text/javascript",
	".ts":       "text/typescript",
	".css":      "text/css",
	".sh":       "text/x-shellscript",
	".sql":      "text/x-sql",
}

// MIMETypeFor guesses a MIME type from the file extension.
// Unknown extensions read as text/plain.
func MIMETypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return "text/plain"
}
