package persistence

import (
	"strings"

	"github.com/erp/catalogsync/internal/domain/shared"
)

// productSortColumns are the product columns a listing may be ordered by
var productSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"sku":        true,
	"name":       true,
	"price":      true,
	"stock":      true,
}

// productOrder builds the ORDER BY clause for a product listing. Unknown
// columns fall back to sku, and sku breaks ties so pages are stable.
func productOrder(filter shared.Filter) string {
	column := strings.ToLower(strings.TrimSpace(filter.OrderBy))
	if !productSortColumns[column] {
		column = "sku"
	}

	dir := "ASC"
	if strings.EqualFold(strings.TrimSpace(filter.OrderDir), "desc") {
		dir = "DESC"
	}

	if column == "sku" {
		return "sku " + dir
	}
	return column + " " + dir + ", sku ASC"
}
