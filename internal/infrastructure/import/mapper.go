package fileimport

import (
	"fmt"
	"strings"

	"github.com/erp/catalogsync/internal/domain/integration"
)

// SkipColumn is the mapping value meaning "no source column for this field"
const SkipColumn = "_skip_"

// Canonical field keys
const (
	FieldSKU         = "sku"
	FieldName        = "name"
	FieldPrice       = "price"
	FieldStock       = "stock"
	FieldBrand       = "brand"
	FieldCategory    = "category"
	FieldOEMCode     = "oem_code"
	FieldDescription = "description"
)

// FieldSpec describes one canonical catalog field an upload can be mapped onto
type FieldSpec struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

var canonicalFields = []FieldSpec{
	{Key: FieldSKU, Label: "SKU / Product Code", Required: true},
	{Key: FieldName, Label: "Product Name", Required: true},
	{Key: FieldPrice, Label: "Price", Required: true},
	{Key: FieldStock, Label: "Stock Quantity", Required: true},
	{Key: FieldBrand, Label: "Brand"},
	{Key: FieldCategory, Label: "Category"},
	{Key: FieldOEMCode, Label: "OEM Code"},
	{Key: FieldDescription, Label: "Description"},
}

// CanonicalFields returns the mappable fields in display order
func CanonicalFields() []FieldSpec {
	out := make([]FieldSpec, len(canonicalFields))
	copy(out, canonicalFields)
	return out
}

func isCanonical(key string) bool {
	for _, f := range canonicalFields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// FieldMapping maps a canonical field key to a source header
type FieldMapping map[string]string

// Column returns the header mapped to field, or false when the field is unmapped or skipped
func (m FieldMapping) Column(field string) (string, bool) {
	col := strings.TrimSpace(m[field])
	if col == "" || col == SkipColumn {
		return "", false
	}
	return col, true
}

// RequireFields checks the mapping alone: every key must be canonical and
// every required field must be mapped to a column. It needs no file data.
func RequireFields(mapping FieldMapping) error {
	for key := range mapping {
		if !isCanonical(key) {
			return fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
	}
	for _, f := range canonicalFields {
		if _, ok := mapping.Column(f.Key); f.Required && !ok {
			return &MissingRequiredFieldError{Field: f.Key}
		}
	}
	return nil
}

// Resolve validates mapping against the file headers and returns a normalized
// copy without skipped fields. Every required field must name an existing header.
func Resolve(headers []string, mapping FieldMapping) (FieldMapping, error) {
	if err := RequireFields(mapping); err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}

	resolved := make(FieldMapping, len(canonicalFields))
	for _, f := range canonicalFields {
		col, ok := mapping.Column(f.Key)
		if !ok {
			continue
		}
		if !known[col] {
			if f.Required {
				return nil, &MissingRequiredFieldError{Field: f.Key, Column: col}
			}
			return nil, &UnknownColumnError{Field: f.Key, Column: col}
		}
		resolved[f.Key] = col
	}
	return resolved, nil
}

// Project reads the mapped cells of row into a product record. It performs no
// type validation; a mapping can be valid while individual rows hold bad data.
func Project(row RawRow, mapping FieldMapping) integration.ProductRecord {
	text := func(field string) string {
		col, ok := mapping.Column(field)
		if !ok {
			return ""
		}
		v, _ := row.Get(col)
		return v
	}
	optional := func(field string) *string {
		col, ok := mapping.Column(field)
		if !ok {
			return nil
		}
		v, present := row.Get(col)
		if !present {
			return nil
		}
		return &v
	}

	return integration.ProductRecord{
		Row:         row.Row,
		Line:        row.Line,
		SKU:         text(FieldSKU),
		Name:        text(FieldName),
		Price:       text(FieldPrice),
		Stock:       text(FieldStock),
		Brand:       optional(FieldBrand),
		Category:    optional(FieldCategory),
		OEMCode:     optional(FieldOEMCode),
		Description: optional(FieldDescription),
	}
}

// ProjectAll projects every row of the table
func ProjectAll(rows []RawRow, mapping FieldMapping) []integration.ProductRecord {
	records := make([]integration.ProductRecord, len(rows))
	for i, row := range rows {
		records[i] = Project(row, mapping)
	}
	return records
}

// SuggestMapping proposes a mapping by case-insensitive substring match: a
// header matches when it contains the field key or the field label contains
// it. Unmatched fields map to SkipColumn. The result must be confirmed by the operator.
func SuggestMapping(headers []string) FieldMapping {
	suggestion := make(FieldMapping, len(canonicalFields))
	for _, f := range canonicalFields {
		key := strings.ToLower(f.Key)
		label := strings.ToLower(f.Label)
		suggestion[f.Key] = SkipColumn
		for _, h := range headers {
			lh := strings.ToLower(h)
			if lh == "" {
				continue
			}
			if strings.Contains(lh, key) || strings.Contains(label, lh) {
				suggestion[f.Key] = h
				break
			}
		}
	}
	return suggestion
}
