package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
)

// Ensure CacheService implements the interface.
var _ driving.CacheService = (*CacheService)(nil)

// Cache key prefixes.
const (
	CachePrefixDocument = "doc_processed"
	CachePrefixAnalysis = "ai_analysis"
)

// CacheService exposes maintenance operations on the pipeline cache.
type CacheService struct {
	cache driven.Cache
}

// NewCacheService creates a cache service. A nil cache reports empty stats.
func NewCacheService(cache driven.Cache) *CacheService {
	return &CacheService{cache: cache}
}

// Stats reports cache occupancy.
func (s *CacheService) Stats(ctx context.Context) (domain.CacheStats, error) {
	if s.cache == nil {
		return domain.CacheStats{}, nil
	}
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return domain.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}

// Clear removes every cached entry.
func (s *CacheService) Clear(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// DocumentCacheKey identifies the chunks produced for one file under one
// pipeline configuration.
func DocumentCacheKey(path string, content []byte, config string) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(config))
	h.Write([]byte{0})
	h.Write(content)
	return CachePrefixDocument + ":" + hex.EncodeToString(h.Sum(nil))
}

// AnalysisCacheKey identifies a generation response for one chunk sequence.
func AnalysisCacheKey(chunks []domain.Chunk) string {
	h := sha256.New()
	for i := range chunks {
		h.Write([]byte(chunks[i].Type))
		h.Write([]byte{0})
		h.Write([]byte(chunks[i].Content))
		h.Write([]byte{0})
	}
	return CachePrefixAnalysis + ":" + hex.EncodeToString(h.Sum(nil))
}
