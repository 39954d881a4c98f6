package models

import (
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
)

// ErpConnectionModel is the persistence model for the ErpConnection domain entity.
// Config holds the encoded (and possibly encrypted) adapter configuration; the
// repository owns the encoding.
type ErpConnectionModel struct {
	AggregateModel
	Name       string `gorm:"type:varchar(100);not null"`
	Type       string `gorm:"type:varchar(50);not null;index"`
	Config     string `gorm:"type:text;not null"`
	IsActive   bool   `gorm:"not null;default:true"`
	LastSyncAt *time.Time
}

// TableName returns the table name for GORM
func (ErpConnectionModel) TableName() string {
	return "erp_connections"
}

// ToDomain converts the persistence model to a domain ErpConnection entity
// using the already decoded config.
func (m *ErpConnectionModel) ToDomain(config map[string]any) *integration.ErpConnection {
	if config == nil {
		config = map[string]any{}
	}
	return &integration.ErpConnection{
		BaseAggregateRoot: m.aggregate(),
		Name:              m.Name,
		Type:              m.Type,
		Config:            config,
		IsActive:          m.IsActive,
		LastSyncAt:        m.LastSyncAt,
	}
}

// FromDomain populates the persistence model from a domain ErpConnection entity
// and its encoded config.
func (m *ErpConnectionModel) FromDomain(c *integration.ErpConnection, encodedConfig string) {
	m.AggregateModel = aggregateModelOf(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Type = c.Type
	m.Config = encodedConfig
	m.IsActive = c.IsActive
	m.LastSyncAt = c.LastSyncAt
}
