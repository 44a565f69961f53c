// Package cache remembers the ownership map of a scanned root for a while,
// so repeated scans of an unchanged tree skip the walk.
//
// Every failure inside the cache is reported as a miss. Callers never see a
// cache error; they fall back to a fresh walk.
package cache

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/sdejongh/modclash/pkg/logging"
	"github.com/sdejongh/modclash/pkg/models"
)

// DefaultTTL is how long an entry stays valid
const DefaultTTL = time.Hour

// entryVersion is bumped whenever the persisted record layout changes
const entryVersion = 1

var (
	// ErrMiss is returned by stores that hold no entry for a root
	ErrMiss = errors.New("cache miss")

	// ErrSchema is returned when a persisted record has an unknown layout
	ErrSchema = errors.New("cache record schema mismatch")
)

// Entry is one cached scan result
type Entry struct {
	Version int              `json:"version"`
	Root    string           `json:"root"`
	Files   models.Ownership `json:"files"`
	Created time.Time        `json:"created"`
}

// Store persists entries keyed by root
type Store interface {
	// Load returns the entry for root or ErrMiss
	Load(ctx context.Context, root string) (*Entry, error)

	// Save stores entry, replacing any previous entry for the same root
	Save(ctx context.Context, entry *Entry) error

	// Delete removes the entry for root; deleting a missing entry is not an error
	Delete(ctx context.Context, root string) error

	// Clear removes every entry
	Clear(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}

// Option configures a Cache
type Option func(*Cache)

// WithTTL sets the staleness threshold. Non-positive values keep DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used to report swallowed failures
func WithLogger(logger logging.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Cache is the scan cache. It is safe for concurrent use when its store is.
type Cache struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger logging.Logger
}

// New creates a cache on top of store
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the staleness threshold
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Lookup returns the cached ownership for root when an entry exists, its
// root matches and it is younger than the TTL. Any store failure is a miss.
func (c *Cache) Lookup(ctx context.Context, root string) (models.Ownership, bool) {
	key := normalizeRoot(root)

	entry, err := c.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Warn(ctx, "scan cache unreadable, falling back to a full walk", logging.Fields{
				"root":  key,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	if entry == nil || entry.Root != key || entry.Files == nil {
		c.logger.Debug(ctx, "scan cache entry does not match root", logging.Fields{"root": key})
		return nil, false
	}

	age := c.now().Sub(entry.Created)
	if age >= c.ttl || age < 0 {
		c.logger.Debug(ctx, "scan cache entry expired", logging.Fields{
			"root": key,
			"age":  age.String(),
		})
		return nil, false
	}

	c.logger.Debug(ctx, "scan cache hit", logging.Fields{
		"root":  key,
		"paths": len(entry.Files),
	})
	return entry.Files.Clone(), true
}

// Put stores the ownership for root with a fresh timestamp.
// Failures are logged and otherwise ignored.
func (c *Cache) Put(ctx context.Context, root string, files models.Ownership) {
	key := normalizeRoot(root)

	entry := &Entry{
		Version: entryVersion,
		Root:    key,
		Files:   files.Clone(),
		Created: c.now(),
	}

	if err := c.store.Save(ctx, entry); err != nil {
		c.logger.Warn(ctx, "failed to write scan cache", logging.Fields{
			"root":  key,
			"error": err.Error(),
		})
	}
}

// Invalidate drops the entry for root
func (c *Cache) Invalidate(ctx context.Context, root string) {
	key := normalizeRoot(root)
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn(ctx, "failed to invalidate scan cache", logging.Fields{
			"root":  key,
			"error": err.Error(),
		})
	}
}

// Clear drops every entry
func (c *Cache) Clear(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn(ctx, "failed to clear scan cache", logging.Fields{"error": err.Error()})
	}
}

// Close closes the underlying store
func (c *Cache) Close() error {
	return c.store.Close()
}

func normalizeRoot(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return filepath.Clean(root)
}
