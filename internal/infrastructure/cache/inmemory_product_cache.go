package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/shared"
	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryProductCache implements catalog.ProductCache inside the process.
// It suits single-instance deployments and tests.
type InMemoryProductCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
	stopCh  chan struct{}
	stopped atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	page      shared.Paginated[catalog.Product]
	expiresAt time.Time
}

// InMemoryProductCacheOption is a functional option for configuring the cache
type InMemoryProductCacheOption func(*InMemoryProductCache)

// WithInMemoryTTL sets the default entry lifetime
func WithInMemoryTTL(ttl time.Duration) InMemoryProductCacheOption {
	return func(c *InMemoryProductCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryProductCacheOption {
	return func(c *InMemoryProductCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewInMemoryProductCache creates the cache and starts its cleanup loop
func NewInMemoryProductCache(opts ...InMemoryProductCacheOption) *InMemoryProductCache {
	c := &InMemoryProductCache{
		entries: make(map[string]cacheEntry),
		ttl:     DefaultTTL,
		logger:  zap.NewNop(),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired(defaultCleanupInterval)
	return c
}

// Get returns a copy of a cached page so callers cannot mutate the entry
func (c *InMemoryProductCache) Get(_ context.Context, filter shared.Filter) (*shared.Paginated[catalog.Product], error) {
	key := filterKey(filter)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		c.misses.Add(1)
		return nil, nil
	}
	c.hits.Add(1)

	page := entry.page
	page.Items = append([]catalog.Product(nil), entry.page.Items...)
	return &page, nil
}

// Set stores a copy of page
func (c *InMemoryProductCache) Set(_ context.Context, filter shared.Filter, page *shared.Paginated[catalog.Product], ttl time.Duration) error {
	if page == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	stored := *page
	stored.Items = append([]catalog.Product(nil), page.Items...)

	c.mu.Lock()
	c.entries[filterKey(filter)] = cacheEntry{page: stored, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// InvalidateAll drops every cached page
func (c *InMemoryProductCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	dropped := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()

	c.logger.Debug("product cache invalidated", zap.Int("dropped", dropped))
	return nil
}

// Stats returns hit and miss counters
func (c *InMemoryProductCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close stops the cleanup loop. It is safe to call more than once.
func (c *InMemoryProductCache) Close() error {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

func (c *InMemoryProductCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *InMemoryProductCache) removeExpired() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

var _ catalog.ProductCache = (*InMemoryProductCache)(nil)
