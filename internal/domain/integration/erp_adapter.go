package integration

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownAdapterType = errors.New("integration: unknown ERP adapter type")
	ErrNotImplemented     = errors.New("integration: operation not implemented by adapter")
	ErrConnectivity       = errors.New("integration: ERP system unreachable")
	ErrInvalidConfig      = errors.New("integration: invalid adapter configuration")
	ErrNotConfigured      = errors.New("integration: adapter not configured")
)

// UnknownAdapterTypeError returns ErrUnknownAdapterType annotated with the offending type
func UnknownAdapterTypeError(adapterType string) error {
	return fmt.Errorf("%w: %s", ErrUnknownAdapterType, adapterType)
}

// IsConfigError reports whether err means the adapter rejected its configuration
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrNotConfigured)
}

// ProductRecord is the source-agnostic product shape produced by both file
// imports and ERP adapters. Values are kept as text; typing and validation
// happen during reconciliation. A nil pointer means the source had no value.
type ProductRecord struct {
	// Row is the 1-based data row for file sources, 0 for ERP sources
	Row int
	// Line is the physical line in the source file (header is line 1)
	Line        int
	SKU         string
	Name        string
	Price       string
	Stock       string
	Brand       *string
	Category    *string
	OEMCode     *string
	Description *string
}

// RowFailure describes why a single record could not be reconciled
type RowFailure struct {
	Row     int    `json:"row,omitempty"`
	Line    int    `json:"line,omitempty"`
	SKU     string `json:"sku,omitempty"`
	Message string `json:"message"`
}

// SyncResult aggregates the outcome of reconciling a batch of records
type SyncResult struct {
	Imported int          `json:"imported"`
	Updated  int          `json:"updated"`
	Failed   int          `json:"failed"`
	Errors   []RowFailure `json:"errors"`
}

// Total returns the number of records that were attempted
func (r SyncResult) Total() int {
	return r.Imported + r.Updated + r.Failed
}

// Succeeded returns the number of records that were created or updated
func (r SyncResult) Succeeded() int {
	return r.Imported + r.Updated
}

// Reconciler upserts product records into the catalog.
// Row-level problems are reported in SyncResult; a returned error means the
// batch as a whole was aborted.
type Reconciler interface {
	Reconcile(ctx context.Context, records []ProductRecord) (SyncResult, error)
}

// ErpAdapter is the capability every external ERP variant implements.
// Variants that cannot perform an operation return ErrNotImplemented, which
// callers must distinguish from ErrConnectivity.
type ErpAdapter interface {
	// Type returns the registry key of the variant
	Type() string

	// Name returns a human readable name
	Name() string

	// Configure applies the opaque connection config. Only the variant interprets it.
	Configure(config map[string]any) error

	// TestConnection reports whether the external system is reachable with the current config
	TestConnection(ctx context.Context) (bool, error)

	// GetProducts fetches the full product list
	GetProducts(ctx context.Context) ([]ProductRecord, error)

	// GetUpdatedProducts fetches products changed since the given time
	GetUpdatedProducts(ctx context.Context, since time.Time) ([]ProductRecord, error)

	// GetStock returns the current stock level of a single SKU
	GetStock(ctx context.Context, sku string) (int, error)

	// SyncAll fetches every product and hands the batch to the reconciler
	SyncAll(ctx context.Context, reconciler Reconciler) (SyncResult, error)
}

// AdapterType describes a registered adapter variant
type AdapterType struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// AdapterRegistry resolves adapter variants by type key
type AdapterRegistry interface {
	// Make returns a fresh, unconfigured adapter. Fails with ErrUnknownAdapterType.
	Make(adapterType string) (ErpAdapter, error)

	// FromConnection resolves the connection's adapter and applies its config
	FromConnection(conn *ErpConnection) (ErpAdapter, error)

	// AvailableTypes lists the registered variants in registration order
	AvailableTypes() []AdapterType

	// IsAvailable reports whether the type key is registered
	IsAvailable(adapterType string) bool
}
