package driving

import (
	"context"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// CacheService exposes cache maintenance.
type CacheService interface {
	// Stats reports cache occupancy.
	Stats(ctx context.Context) (domain.CacheStats, error)

	// Clear removes every cached entry.
	Clear(ctx context.Context) error
}
