package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// Cache stores serialised pipeline artefacts by key.
// Implementations guarantee at most one writer at a time per key within the process.
type Cache interface {
	// Get returns the value for key. The boolean is false on miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. A zero ttl uses the implementation default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Stats reports occupancy.
	Stats(ctx context.Context) (domain.CacheStats, error)

	// Close releases resources.
	Close() error
}
