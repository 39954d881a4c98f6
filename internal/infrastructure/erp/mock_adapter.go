package erp

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
)

const (
	TypeMock        = "mock"
	MockAdapterName = "Demo ERP (Mock)"

	defaultMockProductCount = 50
	maxMockProductCount     = 10000
	mockUpdatedCount        = 10
)

var mockBrands = []string{"Bosch", "Mann", "Mahle", "SKF", "Gates", "Denso", "NGK", "Valeo", "Hella", "Brembo"}

// mockCategories pairs each category with the product names generated for it
var mockCategories = []struct {
	name     string
	products []string
}{
	{"Filtreler", []string{"Yağ Filtresi", "Hava Filtresi", "Yakıt Filtresi", "Polen Filtresi", "Hidrolik Filtre"}},
	{"Fren", []string{"Fren Balatası", "Fren Diski", "Fren Kaliperi", "Fren Hidroliği", "ABS Sensörü"}},
	{"Motor", []string{"Krank Mili", "Piston", "Supap", "Conta Takımı", "Alternatör"}},
	{"Elektrik", []string{"Buji", "Bobin", "Marş Motoru", "Akü", "Sensör"}},
	{"Şanzıman", []string{"Debriyaj Seti", "Şanzıman Yağı", "Diferansiyel", "Kardan Mili"}},
	{"Süspansiyon", []string{"Amortisör", "Helezon", "Salıncak", "Rotil", "Rot Başı"}},
	{"Aydınlatma", []string{"Far", "Stop Lambası", "Sinyal", "LED Ampul", "Xenon Kit"}},
}

// MockAdapter generates a synthetic automotive parts catalog.
// It never fails and is meant for demos and local development.
//
// Config keys:
//   - product_count: number of products to generate (default 50)
//   - seed: makes the generated catalog deterministic
type MockAdapter struct {
	mu           sync.Mutex
	productCount int
	seed         *uint64
	rng          *rand.Rand
}

var _ integration.ErpAdapter = (*MockAdapter)(nil)

// NewMockAdapter creates an unconfigured mock adapter
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		productCount: defaultMockProductCount,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Type returns the registry key
func (a *MockAdapter) Type() string { return TypeMock }

// Name returns the display name
func (a *MockAdapter) Name() string { return MockAdapterName }

// Configure reads product_count and seed
func (a *MockAdapter) Configure(config map[string]any) error {
	count, err := configInt(config, "product_count", defaultMockProductCount)
	if err != nil {
		return err
	}
	if count < 0 || count > maxMockProductCount {
		return invalidConfig("product_count", fmt.Sprintf("must be between 0 and %d", maxMockProductCount))
	}

	var seed *uint64
	if _, ok := config["seed"]; ok {
		n, err := configInt(config, "seed", 0)
		if err != nil {
			return err
		}
		s := uint64(n)
		seed = &s
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.productCount = count
	a.seed = seed
	if seed != nil {
		a.rng = rand.New(rand.NewPCG(*seed, *seed))
	} else {
		a.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return nil
}

// TestConnection always succeeds
func (a *MockAdapter) TestConnection(ctx context.Context) (bool, error) {
	return true, ctx.Err()
}

// GetProducts generates the configured number of products
func (a *MockAdapter) GetProducts(ctx context.Context) ([]integration.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.generate(a.productCount), nil
}

// GetUpdatedProducts returns the first ten generated products regardless of since
func (a *MockAdapter) GetUpdatedProducts(ctx context.Context, _ time.Time) ([]integration.ProductRecord, error) {
	products, err := a.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) > mockUpdatedCount {
		products = products[:mockUpdatedCount]
	}
	return products, nil
}

// GetStock returns a random level between 0 and 500
func (a *MockAdapter) GetStock(ctx context.Context, _ string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.IntN(501), nil
}

// SyncAll reconciles the full generated catalog
func (a *MockAdapter) SyncAll(ctx context.Context, reconciler integration.Reconciler) (integration.SyncResult, error) {
	products, err := a.GetProducts(ctx)
	if err != nil {
		return integration.SyncResult{}, err
	}
	return reconciler.Reconcile(ctx, products)
}

func (a *MockAdapter) generate(count int) []integration.ProductRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	// a seeded adapter yields the same catalog on every call
	rng := a.rng
	if a.seed != nil {
		rng = rand.New(rand.NewPCG(*a.seed, *a.seed))
	}

	products := make([]integration.ProductRecord, 0, count)
	for i := 1; i <= count; i++ {
		brand := mockBrands[rng.IntN(len(mockBrands))]
		category := mockCategories[rng.IntN(len(mockCategories))]
		name := fmt.Sprintf("%s %d", category.products[rng.IntN(len(category.products))], 100+rng.IntN(900))
		price := fmt.Sprintf("%d.%02d", 50+rng.IntN(4951), rng.IntN(100))
		stock := fmt.Sprintf("%d", rng.IntN(501))
		oem := fmt.Sprintf("%s-%d", randomLetters(rng, 3), 1000+rng.IntN(9000))
		description := "Demo product - " + category.name
		categoryName := category.name

		products = append(products, integration.ProductRecord{
			SKU:         fmt.Sprintf("MOCK-%05d", i),
			Name:        name,
			Price:       price,
			Stock:       stock,
			Brand:       &brand,
			Category:    &categoryName,
			OEMCode:     &oem,
			Description: &description,
		})
	}
	return products
}

func randomLetters(rng *rand.Rand, n int) string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rng.IntN(len(letters))]
	}
	return string(b)
}
