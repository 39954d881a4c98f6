package importapp

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationError is a row-local problem with a single record. It is recorded
// against the row and never aborts the batch.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func requiredText(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", &ValidationError{Field: field, Message: field + " is required"}
	}
	return v, nil
}

// parsePrice accepts plain decimals and a single comma as decimal separator ("12,50")
func parsePrice(value string) (decimal.Decimal, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return decimal.Zero, &ValidationError{Field: "price", Message: "price is required"}
	}
	if !strings.Contains(v, ".") && strings.Count(v, ",") == 1 {
		v = strings.Replace(v, ",", ".", 1)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "price", Value: value, Message: "price must be a number: " + value}
	}
	if d.IsNegative() {
		return decimal.Zero, &ValidationError{Field: "price", Value: value, Message: "price cannot be negative"}
	}
	return d, nil
}

// maxStock is the largest quantity the stock column holds
const maxStock = math.MaxInt32

var maxStockDecimal = decimal.NewFromInt(maxStock)

// parseStock accepts whole numbers, including integral decimals such as "5.0",
// between 0 and maxStock
func parseStock(value string) (int, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, &ValidationError{Field: "stock", Message: "stock is required"}
	}

	d, err := decimal.NewFromString(v)
	if err != nil || !d.IsInteger() {
		return 0, &ValidationError{Field: "stock", Value: value, Message: "stock must be a whole number: " + value}
	}
	if d.IsNegative() {
		return 0, &ValidationError{Field: "stock", Value: value, Message: "stock cannot be negative"}
	}
	if d.GreaterThan(maxStockDecimal) {
		return 0, &ValidationError{Field: "stock", Value: value, Message: fmt.Sprintf("stock exceeds %d: %s", maxStock, value)}
	}
	return int(d.IntPart()), nil
}

func optionalText(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
