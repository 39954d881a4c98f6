package erp

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/erp/catalogsync/internal/domain/integration"
)

// flexString accepts a JSON string or number and keeps its text form
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// restProduct is a product as returned by GET /products
type restProduct struct {
	SKU         flexString  `json:"sku"`
	Name        string      `json:"name"`
	Price       flexString  `json:"price"`
	Stock       flexString  `json:"stock"`
	Brand       *string     `json:"brand"`
	Category    *string     `json:"category"`
	OEMCode     *flexString `json:"oem_code"`
	Description *string     `json:"description"`
}

// restProductPage is one page of GET /products
type restProductPage struct {
	Data []restProduct `json:"data"`
}

// restStock is the body of GET /stock/{sku}
type restStock struct {
	SKU   string `json:"sku"`
	Stock int    `json:"stock"`
}

func (p restProduct) toRecord() integration.ProductRecord {
	rec := integration.ProductRecord{
		SKU:         strings.TrimSpace(string(p.SKU)),
		Name:        p.Name,
		Price:       string(p.Price),
		Stock:       string(p.Stock),
		Brand:       p.Brand,
		Category:    p.Category,
		Description: p.Description,
	}
	if p.OEMCode != nil {
		oem := string(*p.OEMCode)
		rec.OEMCode = &oem
	}
	return rec
}
