package integration

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erp/catalogsync/internal/domain/shared"
)

const maxConnectionNameLength = 100

// ErrConnectionInactive is returned when a sync is requested on a disabled connection
var ErrConnectionInactive = shared.NewDomainError("INVALID_STATE", "ERP connection is inactive")

// TypeChecker reports whether an adapter type key is registered
type TypeChecker func(adapterType string) bool

// ErpConnection stores how to reach one external ERP system.
// Config is opaque here and interpreted only by the adapter named by Type.
type ErpConnection struct {
	shared.BaseAggregateRoot
	Name       string
	Type       string
	Config     map[string]any
	IsActive   bool
	LastSyncAt *time.Time
}

// NewErpConnection creates a connection after validating its name and type
func NewErpConnection(name, adapterType string, config map[string]any, isActive bool, known TypeChecker) (*ErpConnection, error) {
	conn := &ErpConnection{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
	}
	if err := conn.set(name, adapterType, config, isActive, known); err != nil {
		return nil, err
	}
	return conn, nil
}

// Update replaces the connection settings
func (c *ErpConnection) Update(name, adapterType string, config map[string]any, isActive bool, known TypeChecker) error {
	if err := c.set(name, adapterType, config, isActive, known); err != nil {
		return err
	}
	c.Touch(time.Now())
	return nil
}

// EnsureSyncable fails with ErrConnectionInactive for disabled connections
func (c *ErpConnection) EnsureSyncable() error {
	if !c.IsActive {
		return ErrConnectionInactive
	}
	return nil
}

// MarkSynced records a completed sync
func (c *ErpConnection) MarkSynced(at time.Time) {
	c.LastSyncAt = &at
	c.Touch(time.Now())
}

func (c *ErpConnection) set(name, adapterType string, config map[string]any, isActive bool, known TypeChecker) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Connection name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxConnectionNameLength {
		return shared.NewDomainError("INVALID_NAME", "Connection name cannot exceed 100 characters")
	}
	if known == nil || !known(adapterType) {
		return shared.NewDomainError("INVALID_TYPE", fmt.Sprintf("Unknown ERP adapter type: %s", adapterType))
	}
	if config == nil {
		config = map[string]any{}
	}

	c.Name = name
	c.Type = adapterType
	c.Config = config
	c.IsActive = isActive
	return nil
}
