package catalog

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProductService serves read access to the catalog. Listings are read through
// the product cache when one is configured.
type ProductService struct {
	productRepo catalog.ProductRepository
	cache       catalog.ProductCache
	logger      *zap.Logger
}

// NewProductService creates a new ProductService. cache may be nil.
func NewProductService(productRepo catalog.ProductRepository, cache catalog.ProductCache, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		cache:       cache,
		logger:      logger,
	}
}

// List returns a page of products ordered by SKU
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (shared.Paginated[ProductResponse], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "sku",
		OrderDir: "asc",
		Search:   filter.Search,
	}
	if domainFilter.Page <= 0 {
		domainFilter.Page = 1
	}
	if domainFilter.PageSize <= 0 {
		domainFilter.PageSize = defaultPageSize
	}
	if domainFilter.PageSize > maxPageSize {
		domainFilter.PageSize = maxPageSize
	}

	page, err := s.loadPage(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	return shared.NewPaginated(ToProductResponses(page.Items), page.Total, page.Page, page.PageSize), nil
}

// GetBySKU returns a single product
func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) loadPage(ctx context.Context, filter shared.Filter) (*shared.Paginated[catalog.Product], error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, filter)
		if err != nil {
			s.logger.Warn("product cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	page, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, filter, &page, 0); err != nil {
			s.logger.Warn("product cache write failed", zap.Error(err))
		}
	}
	return &page, nil
}
