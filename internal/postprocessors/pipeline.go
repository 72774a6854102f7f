// Package postprocessors turns normalised documents into classified chunks.
package postprocessors

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

// Verify interface compliance.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs chunk stages in order. The first stage receives no chunks
// and creates them; later stages annotate or reshape what they are given.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline creates a pipeline over stages, run in the order given.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process runs doc through every stage and returns the final chunk sequence.
// Blank chunks are dropped, indices are renumbered from zero and chunks
// without a source inherit the document URI.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		chunks, err = stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", stage.Name(), err)
		}
		logger.Debug("%s: %d chunks", stage.Name(), len(chunks))
	}

	return finalise(doc, chunks), nil
}

func finalise(doc *domain.Document, chunks []domain.Chunk) []domain.Chunk {
	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		c.Index = len(out)
		if c.SourceFile == "" {
			c.SourceFile = doc.URI
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
