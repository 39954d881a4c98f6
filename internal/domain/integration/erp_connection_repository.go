package integration

import (
	"context"

	"github.com/google/uuid"
)

// ErpConnectionRepository defines the interface for ERP connection persistence
type ErpConnectionRepository interface {
	// FindByID finds a connection by ID. Returns shared.ErrNotFound if absent.
	FindByID(ctx context.Context, id uuid.UUID) (*ErpConnection, error)

	// FindAll returns every connection ordered by name
	FindAll(ctx context.Context) ([]*ErpConnection, error)

	// Save creates or updates a connection
	Save(ctx context.Context, conn *ErpConnection) error

	// Delete removes a connection. Returns shared.ErrNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}
