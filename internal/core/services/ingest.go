package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService reads a file, normalises it and runs the post-processor pipeline.
type IngestService struct {
	registry   driven.NormaliserRegistry
	pipeline   driven.PostProcessorPipeline
	detectMIME func(path string) string

	cache       driven.Cache
	cacheTTL    time.Duration
	cacheConfig string
}

// NewIngestService creates an ingest service.
// detectMIME maps a path to a MIME type; nil treats every file as text/plain.
func NewIngestService(
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	detectMIME func(path string) string,
) *IngestService {
	if detectMIME == nil {
		detectMIME = func(string) string { return "text/plain" }
	}
	return &IngestService{
		registry:   registry,
		pipeline:   pipeline,
		detectMIME: detectMIME,
	}
}

// SetCache enables chunk caching. config identifies the pipeline settings so
// a change in mode or chunk size misses the cache.
func (s *IngestService) SetCache(cache driven.Cache, ttl time.Duration, config string) {
	s.cache = cache
	s.cacheTTL = ttl
	s.cacheConfig = config
}

// Ingest reads, normalises, segments and classifies the file at path.
func (s *IngestService) Ingest(ctx context.Context, path string) ([]domain.Chunk, error) {
	if s.registry == nil || s.pipeline == nil {
		return nil, fmt.Errorf("ingest: normaliser registry or pipeline not configured")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	key := DocumentCacheKey(path, content, s.cacheConfig)
	if chunks, ok := s.cached(ctx, key); ok {
		logger.Debug("Using cached chunks for %s", path)
		return chunks, nil
	}

	raw := &domain.RawDocument{
		URI:      path,
		MIMEType: s.detectMIME(path),
		Content:  content,
		Metadata: map[string]any{"size_bytes": len(content)},
	}

	result, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", path, err)
	}
	doc := result.Document
	logger.Debug("Normalised %s as %s (%d chars)", path, doc.Format, len(doc.Content))

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", path, err)
	}
	logger.Debug("Produced %d chunks from %s", len(chunks), path)

	s.store(ctx, key, chunks)
	return chunks, nil
}

func (s *IngestService) cached(ctx context.Context, key string) ([]domain.Chunk, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		logger.Debug("Discarding unreadable cache entry %s: %v", key, err)
		return nil, false
	}
	return chunks, true
}

func (s *IngestService) store(ctx context.Context, key string, chunks []domain.Chunk) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		logger.Warn("Failed to cache chunks: %v", err)
	}
}
