package persistence

import (
	"context"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBrandRepository implements BrandRepository using GORM
type GormBrandRepository struct {
	db *gorm.DB
}

// NewGormBrandRepository creates a new GormBrandRepository
func NewGormBrandRepository(db *gorm.DB) *GormBrandRepository {
	return &GormBrandRepository{db: db}
}

// FindOrCreateByName returns the brand named name, inserting it first when absent.
// The insert ignores a concurrent winner and the row is re-read by name.
func (r *GormBrandRepository) FindOrCreateByName(ctx context.Context, name string) (*catalog.Brand, error) {
	brand, err := catalog.NewBrand(name)
	if err != nil {
		return nil, err
	}
	stored, err := findOrCreateByName(ctx, r.db, models.BrandModelFromDomain(brand), brand.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create brand: %w", err)
	}
	return stored.ToDomain(), nil
}

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindOrCreateByName returns the category named name, inserting it first when absent
func (r *GormCategoryRepository) FindOrCreateByName(ctx context.Context, name string) (*catalog.Category, error) {
	category, err := catalog.NewCategory(name)
	if err != nil {
		return nil, err
	}
	stored, err := findOrCreateByName(ctx, r.db, models.CategoryModelFromDomain(category), category.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create category: %w", err)
	}
	return stored.ToDomain(), nil
}

// findOrCreateByName inserts candidate unless a row with the same unique name
// exists, then loads whichever row holds the name
func findOrCreateByName[M any](ctx context.Context, db *gorm.DB, candidate *M, name string) (*M, error) {
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(candidate).Error; err != nil {
		return nil, err
	}

	var stored M
	if err := db.WithContext(ctx).Where("name = ?", name).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

var (
	_ catalog.BrandRepository    = (*GormBrandRepository)(nil)
	_ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
)
