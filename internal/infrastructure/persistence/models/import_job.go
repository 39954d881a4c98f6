package models

import (
	"time"

	"github.com/erp/catalogsync/internal/domain/bulk"
	"github.com/google/uuid"
)

// ImportJobModel is the persistence model for the ImportJob domain entity.
type ImportJobModel struct {
	AggregateModel
	Filename         string            `gorm:"type:varchar(255);not null"`
	OriginalFilename string            `gorm:"type:varchar(255)"`
	Source           bulk.ImportSource `gorm:"type:varchar(20);not null;default:'csv'"`
	ErpType          string            `gorm:"type:varchar(50)"`
	ErpConnectionID  *uuid.UUID        `gorm:"type:uuid;index"`
	Status           bulk.ImportStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalRows        int               `gorm:"not null;default:0"`
	ImportedRows     int               `gorm:"not null;default:0"`
	UpdatedRows      int               `gorm:"not null;default:0"`
	FailedRows       int               `gorm:"not null;default:0"`
	ColumnMapping    string            `gorm:"type:text"`
	Errors           string            `gorm:"type:text;not null;default:'[]'"`
	ImportedBy       *uuid.UUID        `gorm:"type:uuid;index"`
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// TableName returns the table name for GORM
func (ImportJobModel) TableName() string {
	return "import_jobs"
}

// ToDomain converts the persistence model to a domain ImportJob entity.
// Undecodable JSON columns surface as an error rather than an empty job.
func (m *ImportJobModel) ToDomain() (*bulk.ImportJob, error) {
	job := &bulk.ImportJob{
		BaseAggregateRoot: m.aggregate(),
		Filename:          m.Filename,
		OriginalFilename:  m.OriginalFilename,
		Source:            m.Source,
		ErpType:           m.ErpType,
		ErpConnectionID:   m.ErpConnectionID,
		Status:            m.Status,
		TotalRows:         m.TotalRows,
		ImportedRows:      m.ImportedRows,
		UpdatedRows:       m.UpdatedRows,
		FailedRows:        m.FailedRows,
		ImportedBy:        m.ImportedBy,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
	}
	if err := job.SetErrorsFromJSON(m.Errors); err != nil {
		return nil, err
	}
	if err := job.SetColumnMappingFromJSON(m.ColumnMapping); err != nil {
		return nil, err
	}
	return job, nil
}

// FromDomain populates the persistence model from a domain ImportJob entity.
func (m *ImportJobModel) FromDomain(j *bulk.ImportJob) error {
	m.AggregateModel = aggregateModelOf(j.BaseAggregateRoot)
	m.Filename = j.Filename
	m.OriginalFilename = j.OriginalFilename
	m.Source = j.Source
	m.ErpType = j.ErpType
	m.ErpConnectionID = j.ErpConnectionID
	m.Status = j.Status
	m.TotalRows = j.TotalRows
	m.ImportedRows = j.ImportedRows
	m.UpdatedRows = j.UpdatedRows
	m.FailedRows = j.FailedRows
	m.ImportedBy = j.ImportedBy
	m.StartedAt = j.StartedAt
	m.CompletedAt = j.CompletedAt

	errs, err := j.ErrorsJSON()
	if err != nil {
		return err
	}
	m.Errors = errs

	mapping, err := j.ColumnMappingJSON()
	if err != nil {
		return err
	}
	m.ColumnMapping = mapping
	return nil
}

// ImportJobModelFromDomain creates a new persistence model from a domain ImportJob entity.
func ImportJobModelFromDomain(j *bulk.ImportJob) (*ImportJobModel, error) {
	m := &ImportJobModel{}
	if err := m.FromDomain(j); err != nil {
		return nil, err
	}
	return m, nil
}
