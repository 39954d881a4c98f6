package catalog

import (
	"context"
	"time"

	"github.com/erp/catalogsync/internal/domain/shared"
)

// ProductCache caches product listing pages.
// Entries are keyed by the listing filter and dropped as a whole whenever the
// catalog changes, so a page is never served from before the last completed import.
type ProductCache interface {
	// Get retrieves a cached page.
	// Returns nil, nil on a cache miss.
	Get(ctx context.Context, filter shared.Filter) (*shared.Paginated[Product], error)

	// Set stores a page. If ttl is 0 the implementation default is used.
	Set(ctx context.Context, filter shared.Filter, page *shared.Paginated[Product], ttl time.Duration) error

	// InvalidateAll drops every cached page
	InvalidateAll(ctx context.Context) error

	// Close releases any resources held by the cache
	Close() error
}
