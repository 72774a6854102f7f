package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
)

var _ driven.Cache = (*Cache)(nil)

// Cache is an in-process LRU cache with per-entry expiry.
// It is used when the persistent cache is disabled and in tests.
type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewCache creates a cache holding at most maxEntries values.
// A non-positive maxEntries means unbounded; a non-positive ttl means 24h.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

// Get returns a copy of the stored value.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	entry := el.Value.(*cacheEntry)
	if !c.now().Before(entry.expiresAt) {
		c.remove(el)
		return nil, false, nil
	}
	c.order.MoveToFront(el)
	return append([]byte(nil), entry.value...), true, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{
		key:       key,
		value:     append([]byte{}, value...),
		expiresAt: c.now().Add(ttl),
	}
	if el, ok := c.entries[key]; ok {
		el.Value = entry
		c.order.MoveToFront(el)
	} else {
		c.entries[key] = c.order.PushFront(entry)
	}

	for c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		c.remove(c.order.Back())
	}
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
	return nil
}

func (c *Cache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	return nil
}

func (c *Cache) Stats(_ context.Context) (domain.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := domain.CacheStats{Entries: c.order.Len(), Path: ":memory:"}
	now := c.now()
	for el := c.order.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*cacheEntry)
		stats.SizeBytes += int64(len(entry.value))
		if !now.Before(entry.expiresAt) {
			stats.Expired++
		}
	}
	return stats, nil
}

func (c *Cache) Close() error { return nil }

// remove drops el (caller must hold lock).
func (c *Cache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}
