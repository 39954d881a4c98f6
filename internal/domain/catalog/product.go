package catalog

import (
	"strings"
	"time"

	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxSKULength  = 100
	maxNameLength = 255
)

// ProductData holds the mutable fields of a product.
// An update always replaces every field; it is never merged with the stored values.
type ProductData struct {
	Name        string
	Price       decimal.Decimal
	Stock       int
	BrandID     *uuid.UUID
	CategoryID  *uuid.UUID
	OEMCode     string
	Description string
}

// Product is a catalog entry keyed by its globally unique SKU
type Product struct {
	shared.BaseAggregateRoot
	SKU         string
	Name        string
	Price       decimal.Decimal
	Stock       int
	BrandID     *uuid.UUID
	CategoryID  *uuid.UUID
	OEMCode     string
	Description string
	IsActive    bool
}

// NewProduct creates a new active product
func NewProduct(sku string, data ProductData) (*Product, error) {
	sku = strings.TrimSpace(sku)
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := data.validate(); err != nil {
		return nil, err
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
	}
	p.apply(data)
	return p, nil
}

// Replace overwrites all mutable fields with data and re-activates the product
func (p *Product) Replace(data ProductData) error {
	if err := data.validate(); err != nil {
		return err
	}
	p.apply(data)
	p.Touch(time.Now())
	return nil
}

func (p *Product) apply(data ProductData) {
	p.Name = strings.TrimSpace(data.Name)
	p.Price = data.Price
	p.Stock = data.Stock
	p.BrandID = data.BrandID
	p.CategoryID = data.CategoryID
	p.OEMCode = data.OEMCode
	p.Description = data.Description
	p.IsActive = true
}

func (d ProductData) validate() error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > maxNameLength {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 255 characters")
	}
	if d.Price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if d.Stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	return nil
}

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > maxSKULength {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 100 characters")
	}
	return nil
}
