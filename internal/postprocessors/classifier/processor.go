// Package classifier tags chunks with a content type and, in enhanced mode,
// extracted entities, a section hierarchy and a confidence score.
package classifier

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
)

// Name is the registry name of the classifier.
const Name = "classifier"

// Verify interface compliance.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor annotates chunks produced by an earlier processor.
// It returns new chunk values and leaves its input untouched.
type Processor struct {
	mode  domain.ProcessingMode
	rules []Rule
}

// Option configures the classifier.
type Option func(*Processor)

// WithMode selects the basic or enhanced rule set.
func WithMode(mode domain.ProcessingMode) Option {
	return func(p *Processor) {
		if mode.IsValid() {
			p.mode = mode
		}
	}
}

// WithRules overrides the rule list for the selected mode.
func WithRules(rules []Rule) Option {
	return func(p *Processor) {
		p.rules = rules
	}
}

// New creates a classifier with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{mode: domain.ProcessingEnhanced}
	for _, opt := range opts {
		opt(p)
	}
	if p.rules == nil {
		p.rules = EnhancedRules
		if p.mode == domain.ProcessingBasic {
			p.rules = BasicRules
		}
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process classifies every chunk in order.
func (p *Processor) Process(ctx context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	out := make([]domain.Chunk, len(chunks))
	var headings headingStack

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk.Type = Classify(chunk.Content, p.rules)
		if p.mode == domain.ProcessingEnhanced {
			if chunk.Type == domain.ContentTypeSectionHeader {
				headings.push(chunk.Content)
			}
			chunk.SectionHierarchy = headings.hierarchy(ContentHierarchy(chunk.Content))
			chunk.Entities = ExtractEntities(chunk.Content)
			chunk.Confidence = Confidence(chunk.Content, chunk.Type)
		}
		out[i] = chunk
	}

	return out, nil
}

var leadingHeading = regexp.MustCompile(`^(#{1,6})\s+(.+)`)

type heading struct {
	level int
	label string
}

// headingStack tracks the markdown headings enclosing the current chunk.
type headingStack []heading

func (s *headingStack) push(content string) {
	m := leadingHeading.FindStringSubmatch(firstLine(content))
	if m == nil {
		return
	}
	level := len(m[1])
	for len(*s) > 0 && (*s)[len(*s)-1].level >= level {
		*s = (*s)[:len(*s)-1]
	}
	*s = append(*s, heading{level: level, label: headingLabel(level, m[2])})
}

// hierarchy returns the enclosing headings, outermost first, followed by
// any markers found in the chunk itself.
func (s headingStack) hierarchy(own []string) []string {
	if len(s) == 0 && len(own) == 0 {
		return nil
	}
	out := make([]string, 0, len(s)+len(own))
	seen := make(map[string]bool, len(s)+len(own))
	for _, h := range s {
		out = append(out, h.label)
		seen[h.label] = true
	}
	for _, label := range own {
		if !seen[strings.TrimSpace(label)] {
			out = append(out, label)
			seen[label] = true
		}
	}
	return out
}
