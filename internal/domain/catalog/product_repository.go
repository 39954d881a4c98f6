package catalog

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindBySKU finds a product by its SKU. Returns shared.ErrNotFound if absent.
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// List returns a page of products ordered by SKU
	List(ctx context.Context, filter shared.Filter) (shared.Paginated[Product], error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error
}

// BrandRepository resolves brands with find-or-create semantics
type BrandRepository interface {
	// FindOrCreateByName returns the brand with the exact name, creating it if absent.
	// Concurrent calls with the same name must resolve to the same brand.
	FindOrCreateByName(ctx context.Context, name string) (*Brand, error)
}

// CategoryRepository resolves categories with find-or-create semantics
type CategoryRepository interface {
	// FindOrCreateByName returns the category with the exact name, creating it if absent.
	// Concurrent calls with the same name must resolve to the same category.
	FindOrCreateByName(ctx context.Context, name string) (*Category, error)
}
