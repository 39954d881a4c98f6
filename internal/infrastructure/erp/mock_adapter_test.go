package erp

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReconciler captures the batch handed over by SyncAll
type recordingReconciler struct {
	records []integration.ProductRecord
}

func (r *recordingReconciler) Reconcile(_ context.Context, records []integration.ProductRecord) (integration.SyncResult, error) {
	r.records = records
	return integration.SyncResult{Imported: len(records)}, nil
}

func TestMockAdapter_GetProducts(t *testing.T) {
	a := NewMockAdapter()
	require.NoError(t, a.Configure(map[string]any{}))

	ok, err := a.TestConnection(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	products, err := a.GetProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, defaultMockProductCount)

	assert.Equal(t, "MOCK-00001", products[0].SKU)
	assert.Equal(t, "MOCK-00050", products[49].SKU)
	for _, p := range products {
		price := decimal.RequireFromString(p.Price)
		assert.True(t, price.GreaterThanOrEqual(decimal.NewFromInt(50)), p.Price)
		assert.True(t, price.LessThan(decimal.NewFromInt(5001)), p.Price)

		stock, err := strconv.Atoi(p.Stock)
		require.NoError(t, err)
		assert.True(t, stock >= 0 && stock <= 500)

		require.NotNil(t, p.Brand)
		assert.Contains(t, mockBrands, *p.Brand)
		require.NotNil(t, p.Category)
		require.NotNil(t, p.OEMCode)
		assert.Regexp(t, `^[A-Z]{3}-\d{4}$`, *p.OEMCode)
		assert.True(t, strings.HasSuffix(*p.Description, *p.Category))
	}
}

func TestMockAdapter_Seeded(t *testing.T) {
	cfg := map[string]any{"product_count": 5, "seed": 42}

	a := NewMockAdapter()
	require.NoError(t, a.Configure(cfg))
	b := NewMockAdapter()
	require.NoError(t, b.Configure(cfg))

	first, err := a.GetProducts(context.Background())
	require.NoError(t, err)
	again, err := a.GetProducts(context.Background())
	require.NoError(t, err)
	other, err := b.GetProducts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, first, other)
}

func TestMockAdapter_ReconfigureDropsSeed(t *testing.T) {
	a := NewMockAdapter()
	require.NoError(t, a.Configure(map[string]any{"product_count": 5, "seed": 7}))
	require.NotNil(t, a.seed)

	require.NoError(t, a.Configure(map[string]any{"product_count": 5}))
	assert.Nil(t, a.seed)

	assert.ErrorIs(t, a.Configure(map[string]any{"seed": "oops"}), integration.ErrInvalidConfig)
	assert.Nil(t, a.seed)
}

func TestMockAdapter_Configure(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{"defaults", map[string]any{}, false},
		{"json number", map[string]any{"product_count": float64(12)}, false},
		{"string number", map[string]any{"product_count": "12"}, false},
		{"fractional", map[string]any{"product_count": 1.5}, true},
		{"negative", map[string]any{"product_count": -1}, true},
		{"too many", map[string]any{"product_count": maxMockProductCount + 1}, true},
		{"not a number", map[string]any{"product_count": "lots"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewMockAdapter().Configure(tt.config)
			if tt.wantErr {
				assert.ErrorIs(t, err, integration.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMockAdapter_UpdatedAndStock(t *testing.T) {
	a := NewMockAdapter()
	require.NoError(t, a.Configure(map[string]any{"product_count": 25}))

	updated, err := a.GetUpdatedProducts(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, updated, mockUpdatedCount)

	stock, err := a.GetStock(context.Background(), "MOCK-00001")
	require.NoError(t, err)
	assert.True(t, stock >= 0 && stock <= 500)
}

func TestMockAdapter_SyncAllDelegates(t *testing.T) {
	a := NewMockAdapter()
	require.NoError(t, a.Configure(map[string]any{"product_count": 7}))

	rec := &recordingReconciler{}
	result, err := a.SyncAll(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Imported)
	assert.Len(t, rec.records, 7)
}

func TestEviraAdapter(t *testing.T) {
	valid := map[string]any{
		"host":         "evira.local",
		"database":     "EviraDB",
		"username":     "api_user",
		"password":     "secret",
		"company_code": "SIRKET01",
	}

	t.Run("configure validates", func(t *testing.T) {
		assert.NoError(t, NewEviraAdapter().Configure(valid))
		assert.ErrorIs(t, NewEviraAdapter().Configure(map[string]any{"host": "x"}), integration.ErrInvalidConfig)
		assert.ErrorIs(t, NewEviraAdapter().Configure(map[string]any{
			"host": "x", "database": "d", "username": "u", "port": 70000,
		}), integration.ErrInvalidConfig)
	})

	t.Run("operations are not implemented", func(t *testing.T) {
		a := NewEviraAdapter()
		require.NoError(t, a.Configure(valid))
		ctx := context.Background()

		ok, err := a.TestConnection(ctx)
		assert.False(t, ok)
		assert.ErrorIs(t, err, integration.ErrNotImplemented)

		_, err = a.GetProducts(ctx)
		assert.ErrorIs(t, err, integration.ErrNotImplemented)
		_, err = a.GetUpdatedProducts(ctx, time.Now())
		assert.ErrorIs(t, err, integration.ErrNotImplemented)
		_, err = a.GetStock(ctx, "X")
		assert.ErrorIs(t, err, integration.ErrNotImplemented)
	})

	t.Run("sync reports instead of aborting", func(t *testing.T) {
		a := NewEviraAdapter()
		require.NoError(t, a.Configure(valid))
		rec := &recordingReconciler{}

		result, err := a.SyncAll(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Total())
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0].Message, "not implemented")
		assert.Nil(t, rec.records)
	})

	t.Run("unconfigured", func(t *testing.T) {
		_, err := NewEviraAdapter().TestConnection(context.Background())
		assert.ErrorIs(t, err, integration.ErrNotConfigured)
	})
}
