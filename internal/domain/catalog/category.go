package catalog

import (
	"strings"

	"github.com/erp/catalogsync/internal/domain/shared"
)

// Category is a dependent entity resolved by exact name during reconciliation
type Category struct {
	shared.BaseEntity
	Name string
	Slug string
}

// NewCategory creates a category with a slug derived from its name
func NewCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category name cannot be empty")
	}
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Slug:       Slugify(name),
	}, nil
}
