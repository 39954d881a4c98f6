package erp

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
)

const (
	TypeEvira        = "evira"
	EviraAdapterName = "Evira ERP"

	defaultEviraPort = 1433
)

// EviraConfig holds the SQL Server connection settings of an Evira installation
type EviraConfig struct {
	Host        string
	Port        int
	Database    string
	Username    string
	Password    string
	CompanyCode string
}

// Validate checks the required connection settings
func (c *EviraConfig) Validate() error {
	if c.Host == "" {
		return invalidConfig("host", "is required")
	}
	if c.Database == "" {
		return invalidConfig("database", "is required")
	}
	if c.Username == "" {
		return invalidConfig("username", "is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return invalidConfig("port", "must be between 1 and 65535")
	}
	return nil
}

// EviraAdapter is a placeholder for Evira ERP. It accepts and validates a
// connection config, but every data operation fails with ErrNotImplemented.
type EviraAdapter struct {
	config *EviraConfig
}

var _ integration.ErpAdapter = (*EviraAdapter)(nil)

// NewEviraAdapter creates an unconfigured Evira adapter
func NewEviraAdapter() *EviraAdapter {
	return &EviraAdapter{}
}

// Type returns the registry key
func (a *EviraAdapter) Type() string { return TypeEvira }

// Name returns the display name
func (a *EviraAdapter) Name() string { return EviraAdapterName }

// Configure parses and validates host, port, database, username, password and company_code
func (a *EviraAdapter) Configure(config map[string]any) error {
	port, err := configInt(config, "port", defaultEviraPort)
	if err != nil {
		return err
	}
	cfg := &EviraConfig{
		Host:        configString(config, "host"),
		Port:        port,
		Database:    configString(config, "database"),
		Username:    configString(config, "username"),
		Password:    configString(config, "password"),
		CompanyCode: configString(config, "company_code"),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.config = cfg
	return nil
}

// TestConnection reports false with ErrNotImplemented
func (a *EviraAdapter) TestConnection(_ context.Context) (bool, error) {
	if err := a.ensureConfigured(); err != nil {
		return false, err
	}
	return false, notImplemented("connection test")
}

// GetProducts fails with ErrNotImplemented
func (a *EviraAdapter) GetProducts(_ context.Context) ([]integration.ProductRecord, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}
	return nil, notImplemented("product fetch")
}

// GetUpdatedProducts fails with ErrNotImplemented
func (a *EviraAdapter) GetUpdatedProducts(_ context.Context, _ time.Time) ([]integration.ProductRecord, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}
	return nil, notImplemented("incremental sync")
}

// GetStock fails with ErrNotImplemented
func (a *EviraAdapter) GetStock(_ context.Context, _ string) (int, error) {
	if err := a.ensureConfigured(); err != nil {
		return 0, err
	}
	return 0, notImplemented("stock query")
}

// SyncAll reports the fetch failure as a batch error instead of aborting, so
// the resulting job is recorded as failed with the reason attached.
func (a *EviraAdapter) SyncAll(ctx context.Context, reconciler integration.Reconciler) (integration.SyncResult, error) {
	products, err := a.GetProducts(ctx)
	if err != nil {
		return integration.SyncResult{
			Errors: []integration.RowFailure{{Message: err.Error()}},
		}, nil
	}
	return reconciler.Reconcile(ctx, products)
}

func (a *EviraAdapter) ensureConfigured() error {
	if a.config == nil {
		return integration.ErrNotConfigured
	}
	return nil
}

func notImplemented(operation string) error {
	return fmt.Errorf("%w: Evira %s", integration.ErrNotImplemented, operation)
}
