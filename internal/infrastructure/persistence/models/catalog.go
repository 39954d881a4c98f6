package models

import (
	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	SKU         string          `gorm:"column:sku;type:varchar(100);not null;uniqueIndex:idx_products_sku"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Stock       int             `gorm:"not null;default:0"`
	BrandID     *uuid.UUID      `gorm:"type:uuid;index"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	OEMCode     string          `gorm:"column:oem_code;type:varchar(100)"`
	Description string          `gorm:"type:text"`
	IsActive    bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.aggregate(),
		SKU:               m.SKU,
		Name:              m.Name,
		Price:             m.Price,
		Stock:             m.Stock,
		BrandID:           m.BrandID,
		CategoryID:        m.CategoryID,
		OEMCode:           m.OEMCode,
		Description:       m.Description,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.AggregateModel = aggregateModelOf(p.BaseAggregateRoot)
	m.SKU = p.SKU
	m.Name = p.Name
	m.Price = p.Price
	m.Stock = p.Stock
	m.BrandID = p.BrandID
	m.CategoryID = p.CategoryID
	m.OEMCode = p.OEMCode
	m.Description = p.Description
	m.IsActive = p.IsActive
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// BrandModel is the persistence model for the Brand domain entity.
type BrandModel struct {
	BaseModel
	Name string `gorm:"type:varchar(255);not null;uniqueIndex:idx_brands_name"`
	Slug string `gorm:"type:varchar(255);not null;index"`
}

// TableName returns the table name for GORM
func (BrandModel) TableName() string {
	return "brands"
}

// ToDomain converts the persistence model to a domain Brand entity.
func (m *BrandModel) ToDomain() *catalog.Brand {
	return &catalog.Brand{
		BaseEntity: m.entity(),
		Name:       m.Name,
		Slug:       m.Slug,
	}
}

// BrandModelFromDomain creates a new persistence model from a domain Brand entity.
func BrandModelFromDomain(b *catalog.Brand) *BrandModel {
	m := &BrandModel{Name: b.Name, Slug: b.Slug}
	m.BaseModel = baseModelOf(b.BaseEntity)
	return m
}

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	BaseModel
	Name string `gorm:"type:varchar(255);not null;uniqueIndex:idx_categories_name"`
	Slug string `gorm:"type:varchar(255);not null;index"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity: m.entity(),
		Name:       m.Name,
		Slug:       m.Slug,
	}
}

// CategoryModelFromDomain creates a new persistence model from a domain Category entity.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{Name: c.Name, Slug: c.Slug}
	m.BaseModel = baseModelOf(c.BaseEntity)
	return m
}
