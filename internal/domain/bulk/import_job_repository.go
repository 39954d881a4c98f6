package bulk

import (
	"context"

	"github.com/google/uuid"
)

const (
	// DefaultHistoryLimit is the number of jobs returned when no limit is given
	DefaultHistoryLimit = 50
	// MaxHistoryLimit caps a single history read
	MaxHistoryLimit = 200
)

// ClampHistoryLimit maps a requested limit into [1, MaxHistoryLimit], using the default for non-positive values
func ClampHistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// ImportJobRepository defines the interface for import job persistence
type ImportJobRepository interface {
	// FindByID finds an import job by ID. Returns shared.ErrNotFound if absent.
	FindByID(ctx context.Context, id uuid.UUID) (*ImportJob, error)

	// FindRecent returns at most limit jobs, most recently created first
	FindRecent(ctx context.Context, limit int) ([]*ImportJob, error)

	// Save saves an import job (create or update)
	Save(ctx context.Context, job *ImportJob) error
}
