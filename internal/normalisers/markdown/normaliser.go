// Package markdown provides a Normaliser for markdown documents.
// Markdown is already the pipeline's working format, so the body is kept
// as written. YAML front matter is lifted into document metadata.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/normalisers/docmeta"
)

// MetaFrontMatter holds the parsed front matter map.
const MetaFrontMatter = "front_matter"

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles markdown documents.
type Normaliser struct{}

// New creates a new markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts a markdown document to a normalised document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	text = strings.TrimPrefix(text, "\uFEFF")

	front, body := splitFrontMatter(text)
	body = strings.TrimSpace(body)

	title := stringField(front, "title")
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		title = docmeta.TitleFromURI(raw.URI)
	}

	res := docmeta.Result(raw, "markdown", title, body)
	if len(front) > 0 {
		res.Document.Metadata[MetaFrontMatter] = front
	}
	return res, nil
}

// splitFrontMatter separates a leading "---" YAML block from the body.
// Front matter that fails to parse is left in the body untouched.
func splitFrontMatter(text string) (map[string]any, string) {
	if !strings.HasPrefix(text, "---\n") {
		return nil, text
	}

	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, text
	}

	block := rest[:end]
	after := rest[end+len("\n---"):]
	if nl := strings.IndexByte(after, '\n'); nl >= 0 {
		if strings.TrimSpace(after[:nl]) != "" {
			return nil, text
		}
		after = after[nl+1:]
	} else if strings.TrimSpace(after) != "" {
		return nil, text
	} else {
		after = ""
	}

	var front map[string]any
	if err := yaml.Unmarshal([]byte(block), &front); err != nil {
		return nil, text
	}
	return front, after
}

var atxHeading = regexp.MustCompile(`(?m)^#\s+(.+?)\s*#*\s*$`)

// firstHeading returns the text of the first level-one heading outside code fences.
func firstHeading(body string) string {
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if m := atxHeading.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
