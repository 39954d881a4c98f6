// Package integration contains the ERP integration bounded context.
// It defines how external ERP systems feed product records into the catalog.
//
// Key concepts:
//   - ErpAdapter: Port interface implemented once per external ERP system
//   - AdapterRegistry: Dispatches a type key to an adapter variant
//   - ErpConnection: Persisted, adapter-specific connection configuration
//   - ProductRecord: The source-agnostic product shape every source produces
//   - Reconciler: Port through which adapters hand records to the catalog
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
