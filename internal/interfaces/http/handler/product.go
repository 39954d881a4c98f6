package handler

import (
	"context"

	catalogapp "github.com/erp/catalogsync/internal/application/catalog"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// ProductService is the catalog read model served by ProductHandler
type ProductService interface {
	List(ctx context.Context, filter catalogapp.ProductListFilter) (shared.Paginated[catalogapp.ProductResponse], error)
	GetBySKU(ctx context.Context, sku string) (*catalogapp.ProductResponse, error)
}

var _ ProductService = (*catalogapp.ProductService)(nil)

// ProductHandler serves the catalog listing
type ProductHandler struct {
	BaseHandler
	service ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(service ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// List returns a page of products
// GET /products?page=&page_size=&search=
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetBySKU returns one product
// GET /products/:sku
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	product, err := h.service.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
