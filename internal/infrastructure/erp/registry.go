// Package erp provides the ERP adapter variants and the registry that resolves them by type key.
package erp

import (
	"sync"

	"github.com/erp/catalogsync/internal/domain/integration"
)

// Factory builds a fresh, unconfigured adapter
type Factory func() integration.ErpAdapter

type registration struct {
	key     string
	name    string
	factory Factory
}

// Registry maps adapter type keys to factories.
// Variants are listed in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []registration
}

var _ integration.AdapterRegistry = (*Registry)(nil)

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry creates a registry with every built-in variant
func NewDefaultRegistry(opts ...RestOption) *Registry {
	r := NewRegistry()
	r.Register(TypeMock, MockAdapterName, func() integration.ErpAdapter { return NewMockAdapter() })
	r.Register(TypeEvira, EviraAdapterName, func() integration.ErpAdapter { return NewEviraAdapter() })
	r.Register(TypeRest, RestAdapterName, func() integration.ErpAdapter { return NewRestAdapter(opts...) })
	return r
}

// Register adds or replaces a variant
func (r *Registry) Register(key, name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].key == key {
			r.entries[i] = registration{key: key, name: name, factory: factory}
			return
		}
	}
	r.entries = append(r.entries, registration{key: key, name: name, factory: factory})
}

// Make returns a fresh adapter for the type key
func (r *Registry) Make(adapterType string) (integration.ErpAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.key == adapterType {
			return e.factory(), nil
		}
	}
	return nil, integration.UnknownAdapterTypeError(adapterType)
}

// FromConnection resolves the connection's variant and applies its stored config
func (r *Registry) FromConnection(conn *integration.ErpConnection) (integration.ErpAdapter, error) {
	adapter, err := r.Make(conn.Type)
	if err != nil {
		return nil, err
	}
	config := conn.Config
	if config == nil {
		config = map[string]any{}
	}
	if err := adapter.Configure(config); err != nil {
		return nil, err
	}
	return adapter, nil
}

// AvailableTypes lists the registered variants
func (r *Registry) AvailableTypes() []integration.AdapterType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]integration.AdapterType, len(r.entries))
	for i, e := range r.entries {
		types[i] = integration.AdapterType{Key: e.key, Name: e.name}
	}
	return types
}

// IsAvailable reports whether the type key is registered
func (r *Registry) IsAvailable(adapterType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.key == adapterType {
			return true
		}
	}
	return false
}
