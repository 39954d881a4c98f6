package importapp

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/erp/catalogsync/internal/domain/bulk"
	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memCatalog is an in-memory catalog used to check reconciliation outcomes end to end
type memCatalog struct {
	mu         sync.Mutex
	products   map[string]*catalog.Product
	brands     map[string]*catalog.Brand
	categories map[string]*catalog.Category
	brandCalls int
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		products:   make(map[string]*catalog.Product),
		brands:     make(map[string]*catalog.Brand),
		categories: make(map[string]*catalog.Category),
	}
}

func (m *memCatalog) FindBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[sku]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memCatalog) List(_ context.Context, filter shared.Filter) (shared.Paginated[catalog.Product], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		items = append(items, *p)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	total := int64(len(items))
	start := filter.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + filter.PageSize
	if end > len(items) {
		end = len(items)
	}
	return shared.NewPaginated(items[start:end], total, filter.Page, filter.PageSize), nil
}

func (m *memCatalog) Save(_ context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products[p.SKU] = &cp
	return nil
}

func (m *memCatalog) product(sku string) *catalog.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[sku]
}

type memBrands struct{ *memCatalog }

func (m memBrands) FindOrCreateByName(_ context.Context, name string) (*catalog.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brandCalls++
	if b, ok := m.brands[name]; ok {
		return b, nil
	}
	b, err := catalog.NewBrand(name)
	if err != nil {
		return nil, err
	}
	m.brands[name] = b
	return b, nil
}

type memCategories struct{ *memCatalog }

func (m memCategories) FindOrCreateByName(_ context.Context, name string) (*catalog.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.categories[name]; ok {
		return c, nil
	}
	c, err := catalog.NewCategory(name)
	if err != nil {
		return nil, err
	}
	m.categories[name] = c
	return c, nil
}

func newTestEngine(m *memCatalog, opts ...EngineOption) *ReconciliationEngine {
	return NewReconciliationEngine(m, memBrands{m}, memCategories{m}, opts...)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter shared.Filter) (shared.Paginated[catalog.Product], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[catalog.Product]), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockImportJobRepository is a mock implementation of bulk.ImportJobRepository
type MockImportJobRepository struct {
	mock.Mock
}

func (m *MockImportJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.ImportJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bulk.ImportJob), args.Error(1)
}

func (m *MockImportJobRepository) FindRecent(ctx context.Context, limit int) ([]*bulk.ImportJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bulk.ImportJob), args.Error(1)
}

func (m *MockImportJobRepository) Save(ctx context.Context, job *bulk.ImportJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockErpConnectionRepository is a mock implementation of integration.ErpConnectionRepository
type MockErpConnectionRepository struct {
	mock.Mock
}

func (m *MockErpConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.ErpConnection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ErpConnection), args.Error(1)
}

func (m *MockErpConnectionRepository) FindAll(ctx context.Context) ([]*integration.ErpConnection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.ErpConnection), args.Error(1)
}

func (m *MockErpConnectionRepository) Save(ctx context.Context, conn *integration.ErpConnection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockErpConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProductCache is a mock implementation of catalog.ProductCache
type MockProductCache struct {
	mock.Mock
}

func (m *MockProductCache) Get(ctx context.Context, filter shared.Filter) (*shared.Paginated[catalog.Product], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[catalog.Product]), args.Error(1)
}

func (m *MockProductCache) Set(ctx context.Context, filter shared.Filter, page *shared.Paginated[catalog.Product], ttl time.Duration) error {
	args := m.Called(ctx, filter, page, ttl)
	return args.Error(0)
}

func (m *MockProductCache) InvalidateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProductCache) Close() error {
	return m.Called().Error(0)
}

// memBlobs is an in-memory BlobStore
type memBlobs struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	getErr error
	gets   int
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string][]byte)}
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.blobs[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return data, nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

// memJobs is an in-memory ImportJobRepository
type memJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*bulk.ImportJob
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[uuid.UUID]*bulk.ImportJob)}
}

func (m *memJobs) FindByID(_ context.Context, id uuid.UUID) (*bulk.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *memJobs) FindRecent(_ context.Context, limit int) ([]*bulk.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*bulk.ImportJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memJobs) Save(_ context.Context, job *bulk.ImportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobs) get(id uuid.UUID) *bulk.ImportJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

// MockErpAdapter is a mock implementation of integration.ErpAdapter
type MockErpAdapter struct {
	mock.Mock
}

func (m *MockErpAdapter) Type() string { return m.Called().String(0) }
func (m *MockErpAdapter) Name() string { return m.Called().String(0) }

func (m *MockErpAdapter) Configure(config map[string]any) error {
	return m.Called(config).Error(0)
}

func (m *MockErpAdapter) TestConnection(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockErpAdapter) GetProducts(ctx context.Context) ([]integration.ProductRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ProductRecord), args.Error(1)
}

func (m *MockErpAdapter) GetUpdatedProducts(ctx context.Context, since time.Time) ([]integration.ProductRecord, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ProductRecord), args.Error(1)
}

func (m *MockErpAdapter) GetStock(ctx context.Context, sku string) (int, error) {
	args := m.Called(ctx, sku)
	return args.Int(0), args.Error(1)
}

func (m *MockErpAdapter) SyncAll(ctx context.Context, r integration.Reconciler) (integration.SyncResult, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(integration.SyncResult), args.Error(1)
}

// MockAdapterRegistry is a mock implementation of integration.AdapterRegistry
type MockAdapterRegistry struct {
	mock.Mock
}

func (m *MockAdapterRegistry) Make(adapterType string) (integration.ErpAdapter, error) {
	args := m.Called(adapterType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(integration.ErpAdapter), args.Error(1)
}

func (m *MockAdapterRegistry) FromConnection(conn *integration.ErpConnection) (integration.ErpAdapter, error) {
	args := m.Called(conn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(integration.ErpAdapter), args.Error(1)
}

func (m *MockAdapterRegistry) AvailableTypes() []integration.AdapterType {
	return m.Called().Get(0).([]integration.AdapterType)
}

func (m *MockAdapterRegistry) IsAvailable(adapterType string) bool {
	return m.Called(adapterType).Bool(0)
}
