package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisProductCache implements catalog.ProductCache on Redis.
// Page keys embed a generation counter; InvalidateAll bumps the counter so
// every older page becomes unreachable at once and ages out with its TTL.
type RedisProductCache struct {
	client     *redis.Client
	ownsClient bool
	prefix     string
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisProductCacheOption is a functional option for configuring the cache
type RedisProductCacheOption func(*RedisProductCache)

// WithPrefix sets the key namespace
func WithPrefix(prefix string) RedisProductCacheOption {
	return func(c *RedisProductCache) {
		c.prefix = normalizePrefix(prefix)
	}
}

// WithTTL sets the default entry lifetime
func WithTTL(ttl time.Duration) RedisProductCacheOption {
	return func(c *RedisProductCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisProductCacheOption {
	return func(c *RedisProductCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRedisProductCache connects to Redis and verifies the connection
func NewRedisProductCache(opts *redis.Options, cacheOpts ...RedisProductCacheOption) (*RedisProductCache, error) {
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisProductCacheWithClient(client, cacheOpts...)
	c.ownsClient = true
	return c, nil
}

// NewRedisProductCacheWithClient creates a cache over an existing client.
// The caller keeps ownership of the client.
func NewRedisProductCacheWithClient(client *redis.Client, opts ...RedisProductCacheOption) *RedisProductCache {
	c := &RedisProductCache{
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisProductCache) generationKey() string {
	return c.prefix + ":products:generation"
}

func (c *RedisProductCache) pageKey(generation int64, filter shared.Filter) string {
	return fmt.Sprintf("%s:products:g%d:%s", c.prefix, generation, filterKey(filter))
}

func (c *RedisProductCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Get retrieves a cached page; a miss returns nil, nil
func (c *RedisProductCache) Get(ctx context.Context, filter shared.Filter) (*shared.Paginated[catalog.Product], error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, err
	}
	key := c.pageKey(gen, filter)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("product cache miss", zap.String("key", key))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page from cache: %w", err)
	}

	var page shared.Paginated[catalog.Product]
	if err := json.Unmarshal(data, &page); err != nil {
		_ = c.client.Del(ctx, key)
		return nil, fmt.Errorf("failed to unmarshal cached page: %w", err)
	}
	return &page, nil
}

// Set stores a page under the current generation
func (c *RedisProductCache) Set(ctx context.Context, filter shared.Filter, page *shared.Paginated[catalog.Product], ttl time.Duration) error {
	if page == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	gen, err := c.generation(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	if err := c.client.Set(ctx, c.pageKey(gen, filter), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set page in cache: %w", err)
	}
	return nil
}

// InvalidateAll moves the cache to a new generation
func (c *RedisProductCache) InvalidateAll(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, c.generationKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate product cache: %w", err)
	}
	c.logger.Debug("product cache invalidated", zap.Int64("generation", gen))
	return nil
}

// Close closes the client when the cache created it
func (c *RedisProductCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ catalog.ProductCache = (*RedisProductCache)(nil)
