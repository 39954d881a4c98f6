package catalog

import (
	"strings"

	"github.com/erp/catalogsync/internal/domain/shared"
)

// Brand is a dependent entity resolved by exact name during reconciliation
type Brand struct {
	shared.BaseEntity
	Name string
	Slug string
}

// NewBrand creates a brand with a slug derived from its name
func NewBrand(name string) (*Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_BRAND", "Brand name cannot be empty")
	}
	return &Brand{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Slug:       Slugify(name),
	}, nil
}
