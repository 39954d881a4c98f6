package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/erp/catalogsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormErpConnectionRepository implements ErpConnectionRepository using GORM.
// Connection configs pass through the codec on every read and write.
type GormErpConnectionRepository struct {
	db    *gorm.DB
	codec *ConfigCodec
}

// NewGormErpConnectionRepository creates a new GormErpConnectionRepository.
// A nil codec stores configs as plain JSON.
func NewGormErpConnectionRepository(db *gorm.DB, codec *ConfigCodec) *GormErpConnectionRepository {
	if codec == nil {
		codec = &ConfigCodec{}
	}
	return &GormErpConnectionRepository{db: db, codec: codec}
}

// FindByID finds a connection by ID
func (r *GormErpConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.ErpConnection, error) {
	var model models.ErpConnectionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.toDomain(&model)
}

// FindAll returns every connection ordered by name
func (r *GormErpConnectionRepository) FindAll(ctx context.Context) ([]*integration.ErpConnection, error) {
	var connModels []models.ErpConnectionModel
	if err := r.db.WithContext(ctx).Order("name ASC, created_at ASC").Find(&connModels).Error; err != nil {
		return nil, err
	}

	conns := make([]*integration.ErpConnection, 0, len(connModels))
	for i := range connModels {
		conn, err := r.toDomain(&connModels[i])
		if err != nil {
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, nil
}

// Save creates or updates a connection
func (r *GormErpConnectionRepository) Save(ctx context.Context, conn *integration.ErpConnection) error {
	encoded, err := r.codec.Encode(conn.Config)
	if err != nil {
		return err
	}
	var model models.ErpConnectionModel
	model.FromDomain(conn, encoded)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Delete removes a connection
func (r *GormErpConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ErpConnectionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormErpConnectionRepository) toDomain(model *models.ErpConnectionModel) (*integration.ErpConnection, error) {
	config, err := r.codec.Decode(model.Config)
	if err != nil {
		return nil, fmt.Errorf("erp connection %s: %w", model.ID, err)
	}
	return model.ToDomain(config), nil
}

// Compile-time interface compliance check
var _ integration.ErpConnectionRepository = (*GormErpConnectionRepository)(nil)
