package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bosch", "bosch"},
		{"Şanzıman Yağı", "sanziman-yagi"},
		{"Aydınlatma", "aydinlatma"},
		{"  Fren  & Balata ", "fren-balata"},
		{"SKF-Gates", "skf-gates"},
		{"Crème Brûlée", "creme-brulee"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
