package cache

import (
	"fmt"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProductCacheFactory builds the product cache selected by configuration
type ProductCacheFactory struct {
	redisConfig           config.RedisConfig
	cacheConfig           config.CacheConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ProductCacheFactoryOption is a functional option for configuring the factory
type ProductCacheFactoryOption func(*ProductCacheFactory)

// WithLogger sets the logger for the factory and the caches it builds
func WithLogger(logger *zap.Logger) ProductCacheFactoryOption {
	return func(f *ProductCacheFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) ProductCacheFactoryOption {
	return func(f *ProductCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewProductCacheFactory creates a new factory
func NewProductCacheFactory(redisCfg config.RedisConfig, cacheCfg config.CacheConfig, opts ...ProductCacheFactoryOption) *ProductCacheFactory {
	f := &ProductCacheFactory{
		redisConfig:           redisCfg,
		cacheConfig:           cacheCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache connects to the configured Redis server
func (f *ProductCacheFactory) CreateRedisCache() (*RedisProductCache, error) {
	return NewRedisProductCache(
		&redis.Options{
			Addr:     f.redisConfig.Addr(),
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		},
		WithPrefix(f.cacheConfig.Prefix),
		WithTTL(f.cacheConfig.TTL),
		WithCacheLogger(f.logger),
	)
}

// CreateInMemoryCache builds a process-local cache. Instances do not share
// invalidations, so pages may be stale on other replicas until their TTL passes.
func (f *ProductCacheFactory) CreateInMemoryCache() *InMemoryProductCache {
	return NewInMemoryProductCache(
		WithInMemoryTTL(f.cacheConfig.TTL),
		WithInMemoryLogger(f.logger),
	)
}

// Create returns the Redis cache when Redis is enabled and reachable, and the
// in-memory cache otherwise (unless fallback is disabled).
func (f *ProductCacheFactory) Create() (catalog.ProductCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("using in-memory product cache")
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis product cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis product cache unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory product cache. "+
		"Invalidations will not reach other instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
