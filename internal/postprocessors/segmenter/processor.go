// Package segmenter splits document text into sections and token-bounded sub-chunks.
package segmenter

import (
	"context"
	"strings"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
)

// Name is the registry name of the segmenter.
const Name = "segmenter"

// DefaultMaxTokens is the default token bound per chunk.
const DefaultMaxTokens = 4000

// DefaultOverlap is the default token overlap between enhanced sub-chunks.
const DefaultOverlap = 200

// wordsPerToken converts token bounds to word windows.
const wordsPerToken = 0.75

// Verify interface compliance.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor turns a document's content into ordered chunks.
// It implements the PostProcessor interface and must run first in a pipeline.
type Processor struct {
	mode      domain.ProcessingMode
	maxTokens int
	overlap   int
	counter   TokenCounter
}

// Option configures the segmenter.
type Option func(*Processor)

// WithMode selects the basic or enhanced separator set.
func WithMode(mode domain.ProcessingMode) Option {
	return func(p *Processor) {
		if mode.IsValid() {
			p.mode = mode
		}
	}
}

// WithMaxTokens sets the token bound per chunk.
func WithMaxTokens(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithOverlap sets the token overlap between enhanced sub-chunks.
func WithOverlap(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.overlap = n
		}
	}
}

// WithTokenCounter replaces the default estimator.
func WithTokenCounter(c TokenCounter) Option {
	return func(p *Processor) {
		if c != nil {
			p.counter = c
		}
	}
}

// New creates a segmenter with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		mode:      domain.ProcessingEnhanced,
		maxTokens: DefaultMaxTokens,
		overlap:   DefaultOverlap,
		counter:   EstimateCounter{},
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for forward progress.
	if p.overlap >= p.maxTokens {
		p.overlap = p.maxTokens / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Mode returns the active processing mode.
func (p *Processor) Mode() domain.ProcessingMode {
	return p.mode
}

// Process segments the document content into chunks.
// Input chunks are ignored. Chunk types default to text until a classifier runs.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	sections := p.Segment(doc.Content)
	chunks := make([]domain.Chunk, 0, len(sections))

	for sectionIndex, section := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if p.counter.CountTokens(section) <= p.maxTokens {
			chunks = append(chunks, p.newChunk(doc, section, len(chunks), sectionIndex))
			continue
		}

		parts := p.SplitOversized(section)
		for i, part := range parts {
			chunk := p.newChunk(doc, part, len(chunks), sectionIndex)
			chunk.Metadata[domain.MetaSubChunk] = i
			chunk.Metadata[domain.MetaTotalSubChunks] = len(parts)
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

// Segment returns the document's sections in document order.
func (p *Processor) Segment(text string) []string {
	if p.mode == domain.ProcessingBasic {
		return segment(text, basicSeparators)
	}
	return segment(text, enhancedSeparators)
}

// SplitOversized breaks a section that exceeds the token bound.
// Basic mode accumulates whole sentences; enhanced mode emits overlapping word windows.
func (p *Processor) SplitOversized(section string) []string {
	if p.mode == domain.ProcessingBasic {
		return p.splitSentences(section)
	}
	return p.splitWindows(section)
}

func (p *Processor) splitSentences(section string) []string {
	var parts []string
	current := ""

	for _, sentence := range splitSentences(section) {
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if current != "" && p.counter.CountTokens(candidate) > p.maxTokens {
			parts = append(parts, current)
			current = sentence
			continue
		}
		current = candidate
	}
	if current != "" {
		parts = append(parts, current)
	}

	return parts
}

func (p *Processor) splitWindows(section string) []string {
	words := strings.Fields(section)
	if len(words) == 0 {
		return []string{section}
	}

	maxWords := int(float64(p.maxTokens) * wordsPerToken)
	if maxWords < 1 {
		maxWords = 1
	}
	overlapWords := int(float64(p.overlap) * wordsPerToken)
	if overlapWords >= maxWords {
		overlapWords = maxWords / 4
	}

	var parts []string
	start := 0
	for start < len(words) {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		parts = append(parts, strings.Join(words[start:end], " "))

		if end >= len(words) {
			break
		}
		start = end - overlapWords
	}

	return parts
}

func (p *Processor) newChunk(doc *domain.Document, content string, index, sectionIndex int) domain.Chunk {
	return domain.Chunk{
		Content:    content,
		Type:       domain.ContentTypeText,
		Index:      index,
		SourceFile: doc.URI,
		Metadata: map[string]any{
			domain.MetaTokenCount:     p.counter.CountTokens(content),
			domain.MetaSectionIndex:   sectionIndex,
			domain.MetaProcessingMode: string(p.mode),
		},
	}
}
