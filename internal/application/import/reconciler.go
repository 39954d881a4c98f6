package importapp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/erp/catalogsync/internal/infrastructure/logger"
	"github.com/erp/catalogsync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrReconcileAborted is returned when a run is cut short by its context
var ErrReconcileAborted = errors.New("reconciliation aborted")

// ReconciliationEngine upserts product records into the catalog one row at a time.
// A failing row is recorded and skipped; it never affects its neighbours.
type ReconciliationEngine struct {
	products   catalog.ProductRepository
	brands     catalog.BrandRepository
	categories catalog.CategoryRepository
	logger     *zap.Logger
	workers    int
	locks      *keyedLock
}

// EngineOption configures a ReconciliationEngine
type EngineOption func(*ReconciliationEngine)

// WithWorkers sets the number of rows reconciled concurrently. Values below 2 keep the run sequential.
func WithWorkers(n int) EngineOption {
	return func(e *ReconciliationEngine) {
		e.workers = n
	}
}

// WithEngineLogger sets the logger used for row level diagnostics
func WithEngineLogger(logger *zap.Logger) EngineOption {
	return func(e *ReconciliationEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewReconciliationEngine creates a new ReconciliationEngine
func NewReconciliationEngine(
	products catalog.ProductRepository,
	brands catalog.BrandRepository,
	categories catalog.CategoryRepository,
	opts ...EngineOption,
) *ReconciliationEngine {
	e := &ReconciliationEngine{
		products:   products,
		brands:     brands,
		categories: categories,
		logger:     zap.NewNop(),
		workers:    1,
		locks:      newKeyedLock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ integration.Reconciler = (*ReconciliationEngine)(nil)

// rowOutcome is the per-row result before aggregation
type rowOutcome int

const (
	outcomeImported rowOutcome = iota
	outcomeUpdated
	outcomeFailed
)

// run holds the state shared by all rows of a single Reconcile call
type run struct {
	mu         sync.Mutex
	brandIDs   map[string]uuid.UUID
	categoryID map[string]uuid.UUID
	failures   []indexedFailure
}

type indexedFailure struct {
	index   int
	failure integration.RowFailure
}

// Reconcile processes every record and returns the aggregated counts.
// The returned error is non-nil only when ctx ends before all rows were processed.
func (e *ReconciliationEngine) Reconcile(ctx context.Context, records []integration.ProductRecord) (integration.SyncResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.reconcile",
		telemetry.WithAttribute(telemetry.SpanAttrRecordCount, len(records)),
	)
	defer span.End()

	r := &run{
		brandIDs:   make(map[string]uuid.UUID),
		categoryID: make(map[string]uuid.UUID),
	}
	var imported, updated, failed atomic.Int64

	tally := func(o rowOutcome) {
		switch o {
		case outcomeImported:
			imported.Add(1)
		case outcomeUpdated:
			updated.Add(1)
		case outcomeFailed:
			failed.Add(1)
		}
	}

	var err error
	if e.workers > 1 && len(records) > 1 {
		err = e.reconcileParallel(ctx, r, records, tally)
	} else {
		err = e.reconcileSequential(ctx, r, records, tally)
	}

	sort.SliceStable(r.failures, func(i, j int) bool {
		return r.failures[i].index < r.failures[j].index
	})
	result := integration.SyncResult{
		Imported: int(imported.Load()),
		Updated:  int(updated.Load()),
		Failed:   int(failed.Load()),
		Errors:   make([]integration.RowFailure, 0, len(r.failures)),
	}
	for _, f := range r.failures {
		result.Errors = append(result.Errors, f.failure)
	}

	telemetry.RecordSyncResult(span, result)
	if err != nil {
		telemetry.RecordError(span, err)
		return result, err
	}
	return result, nil
}

func (e *ReconciliationEngine) reconcileSequential(ctx context.Context, r *run, records []integration.ProductRecord, tally func(rowOutcome)) error {
	for i := range records {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrReconcileAborted, err)
		}
		tally(e.reconcileRow(ctx, r, i, records[i]))
	}
	return nil
}

func (e *ReconciliationEngine) reconcileParallel(ctx context.Context, r *run, records []integration.ProductRecord, tally func(rowOutcome)) error {
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := e.workers
	if workers > len(records) {
		workers = len(records)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tally(e.reconcileRow(ctx, r, i, records[i]))
			}
		}()
	}

	var aborted error
feed:
	for i := range records {
		select {
		case <-ctx.Done():
			aborted = fmt.Errorf("%w: %w", ErrReconcileAborted, ctx.Err())
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return aborted
}

func (e *ReconciliationEngine) reconcileRow(ctx context.Context, r *run, index int, rec integration.ProductRecord) rowOutcome {
	outcome, err := e.upsert(ctx, r, rec)
	if err == nil {
		return outcome
	}

	failure := integration.RowFailure{
		Row:     rec.Row,
		Line:    rec.Line,
		SKU:     strings.TrimSpace(rec.SKU),
		Message: rowMessage(err),
	}
	logger.WithLogger(ctx, e.logger).Debug("row reconciliation failed",
		zap.Int("row", rec.Row),
		zap.String("sku", failure.SKU),
		zap.Error(err),
	)

	r.mu.Lock()
	r.failures = append(r.failures, indexedFailure{index: index, failure: failure})
	r.mu.Unlock()
	return outcomeFailed
}

func (e *ReconciliationEngine) upsert(ctx context.Context, r *run, rec integration.ProductRecord) (rowOutcome, error) {
	sku, err := requiredText("sku", rec.SKU)
	if err != nil {
		return outcomeFailed, err
	}
	name, err := requiredText("name", rec.Name)
	if err != nil {
		return outcomeFailed, err
	}
	price, err := parsePrice(rec.Price)
	if err != nil {
		return outcomeFailed, err
	}
	stock, err := parseStock(rec.Stock)
	if err != nil {
		return outcomeFailed, err
	}

	data := catalog.ProductData{
		Name:        name,
		Price:       price,
		Stock:       stock,
		OEMCode:     optionalText(rec.OEMCode),
		Description: optionalText(rec.Description),
	}
	if brand := optionalText(rec.Brand); brand != "" {
		id, err := e.resolveBrand(ctx, r, brand)
		if err != nil {
			return outcomeFailed, err
		}
		data.BrandID = &id
	}
	if category := optionalText(rec.Category); category != "" {
		id, err := e.resolveCategory(ctx, r, category)
		if err != nil {
			return outcomeFailed, err
		}
		data.CategoryID = &id
	}

	unlock := e.locks.Lock("sku:" + sku)
	defer unlock()

	existing, err := e.products.FindBySKU(ctx, sku)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return outcomeFailed, fmt.Errorf("failed to look up product: %w", err)
	}

	if existing != nil {
		if err := existing.Replace(data); err != nil {
			return outcomeFailed, err
		}
		if err := e.products.Save(ctx, existing); err != nil {
			return outcomeFailed, fmt.Errorf("failed to update product: %w", err)
		}
		return outcomeUpdated, nil
	}

	product, err := catalog.NewProduct(sku, data)
	if err != nil {
		return outcomeFailed, err
	}
	if err := e.products.Save(ctx, product); err != nil {
		return outcomeFailed, fmt.Errorf("failed to create product: %w", err)
	}
	return outcomeImported, nil
}

func (e *ReconciliationEngine) resolveBrand(ctx context.Context, r *run, name string) (uuid.UUID, error) {
	return r.resolve(r.brandIDs, e.locks, "brand:"+name, func() (uuid.UUID, error) {
		b, err := e.brands.FindOrCreateByName(ctx, name)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to resolve brand %q: %w", name, err)
		}
		return b.ID, nil
	})
}

func (e *ReconciliationEngine) resolveCategory(ctx context.Context, r *run, name string) (uuid.UUID, error) {
	return r.resolve(r.categoryID, e.locks, "category:"+name, func() (uuid.UUID, error) {
		c, err := e.categories.FindOrCreateByName(ctx, name)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to resolve category %q: %w", name, err)
		}
		return c.ID, nil
	})
}

// resolve memoizes find-or-create lookups for the duration of a run
func (r *run) resolve(cache map[string]uuid.UUID, locks *keyedLock, key string, find func() (uuid.UUID, error)) (uuid.UUID, error) {
	unlock := locks.Lock(key)
	defer unlock()

	r.mu.Lock()
	id, ok := cache[key]
	r.mu.Unlock()
	if ok {
		return id, nil
	}

	id, err := find()
	if err != nil {
		return uuid.Nil, err
	}

	r.mu.Lock()
	cache[key] = id
	r.mu.Unlock()
	return id, nil
}

// rowMessage renders a row failure for operators. Domain errors carry their
// message without the code prefix.
func rowMessage(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
