package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/archon-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

var _ driven.Cache = (*Cache)(nil)

const (
	// DefaultTTL applies when Set is called with a zero ttl.
	DefaultTTL = 24 * time.Hour

	// DefaultMaxEntries bounds the cache when no limit is configured.
	DefaultMaxEntries = 1000

	dbFileName = "cache.db"
)

// Cache is a persistent key/value cache stored in a single SQLite file.
type Cache struct {
	db         *sql.DB
	path       string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	locks      *keyLocks
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxEntries sets the entry count above which the least recently read entries are evicted.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithClock replaces the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache opens (or creates) the cache database in dataDir.
// If dataDir is empty, defaults to ~/.archon/cache/cache.db.
func NewCache(dataDir string, opts ...Option) (*Cache, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".archon", "cache")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// WAL lets concurrent readers proceed while a writer holds the lock
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	c := &Cache{
		db:         db,
		path:       dbPath,
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		locks:      newKeyLocks(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := migrate(db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// Get returns the value for key. Expired entries are deleted and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	unlock := c.locks.lock(key)
	defer unlock()

	var (
		value     []byte
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM cache_entries WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	now := c.now().UnixNano()
	if expiresAt <= now {
		if _, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key); err != nil {
			return nil, false, fmt.Errorf("deleting expired entry: %w", err)
		}
		logger.Debug("cache: expired %s", key)
		return nil, false, nil
	}

	if _, err := c.db.ExecContext(ctx,
		"UPDATE cache_entries SET accessed_at = ? WHERE key = ?", now, key,
	); err != nil {
		return nil, false, fmt.Errorf("touching cache entry: %w", err)
	}

	return value, true, nil
}

// Set stores value under key and evicts the least recently read entries
// when the cache grows past its limit.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if value == nil {
		value = []byte{}
	}

	unlock := c.locks.lock(key)
	defer unlock()

	now := c.now()
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, size_bytes, created_at, expires_at, accessed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			size_bytes = excluded.size_bytes,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			accessed_at = excluded.accessed_at
	`, key, value, len(value), now.UnixNano(), now.Add(ttl).UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	return c.evict(ctx)
}

// evict removes the oldest-read entries beyond maxEntries.
func (c *Cache) evict(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx, `
		DELETE FROM cache_entries WHERE key IN (
			SELECT key FROM cache_entries
			ORDER BY accessed_at DESC, created_at DESC
			LIMIT -1 OFFSET ?
		)
	`, c.maxEntries)
	if err != nil {
		return fmt.Errorf("evicting cache entries: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logger.Debug("cache: evicted %d entries", n)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	unlock := c.locks.lock(key)
	defer unlock()

	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// PurgeExpired deletes every expired entry and returns how many were removed.
func (c *Cache) PurgeExpired(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE expires_at <= ?", c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purging expired entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged entries: %w", err)
	}
	return int(n), nil
}

// Stats reports the number of entries, their total size and how many have expired.
func (c *Cache) Stats(ctx context.Context) (domain.CacheStats, error) {
	stats := domain.CacheStats{Path: c.path}
	err := c.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(size_bytes), 0),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0)
		FROM cache_entries
	`, c.now().UnixNano()).Scan(&stats.Entries, &stats.SizeBytes, &stats.Expired)
	if err != nil {
		return domain.CacheStats{}, fmt.Errorf("reading cache stats: %w", err)
	}
	return stats, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// migrate applies every embedded *.up.sql migration newer than the recorded version.
func migrate(db *sql.DB, fsys fs.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_cache.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
		logger.Debug("cache: applied migration %s", name)
	}

	return nil
}

// keyLocks hands out one mutex per key and forgets it once no caller holds it.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*refLock)}
}

// lock blocks until key is free and returns the matching unlock function.
func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// held reports how many keys currently have a lock entry.
func (k *keyLocks) held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
