package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/bulk"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormImportJobRepository implements ImportJobRepository using GORM
type GormImportJobRepository struct {
	db *gorm.DB
}

// NewGormImportJobRepository creates a new GormImportJobRepository
func NewGormImportJobRepository(db *gorm.DB) *GormImportJobRepository {
	return &GormImportJobRepository{db: db}
}

// FindByID finds an import job by ID
func (r *GormImportJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.ImportJob, error) {
	var model models.ImportJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindRecent returns the most recently created jobs first
func (r *GormImportJobRepository) FindRecent(ctx context.Context, limit int) ([]*bulk.ImportJob, error) {
	var jobModels []models.ImportJobModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(bulk.ClampHistoryLimit(limit)).
		Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]*bulk.ImportJob, 0, len(jobModels))
	for i := range jobModels {
		job, err := jobModels[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("import job %s: %w", jobModels[i].ID, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Save saves an import job (create or update)
func (r *GormImportJobRepository) Save(ctx context.Context, job *bulk.ImportJob) error {
	model, err := models.ImportJobModelFromDomain(job)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(model).Error
}

// Compile-time interface compliance check
var _ bulk.ImportJobRepository = (*GormImportJobRepository)(nil)
