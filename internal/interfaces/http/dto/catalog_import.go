package dto

import (
	"time"

	"github.com/erp/catalogsync/internal/domain/bulk"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
)

// ExecuteImportRequest carries the operator's column mapping (canonical field -> file header)
type ExecuteImportRequest struct {
	Mapping map[string]string `json:"mapping" binding:"required"`
}

// HistoryQuery bounds the import history listing
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// ErpConnectionRequest creates or replaces an ERP connection
type ErpConnectionRequest struct {
	Name     string         `json:"name" binding:"required,max=100"`
	Type     string         `json:"type" binding:"required,erp_type"`
	Config   map[string]any `json:"config"`
	IsActive *bool          `json:"is_active"`
}

// Active defaults to true when the flag was omitted
func (r ErpConnectionRequest) Active() bool {
	return r.IsActive == nil || *r.IsActive
}

// ErpTestRequest probes an unsaved ERP configuration
type ErpTestRequest struct {
	Type   string         `json:"type" binding:"required"`
	Config map[string]any `json:"config"`
}

// ErpSyncRequest starts a full sync of one stored connection
type ErpSyncRequest struct {
	ConnectionID string `json:"connection_id" binding:"required,uuid"`
}

// ImportJobResponse is an import job as shown in history
type ImportJobResponse struct {
	ID               uuid.UUID                `json:"id"`
	Filename         string                   `json:"filename"`
	OriginalFilename string                   `json:"original_filename,omitempty"`
	Source           bulk.ImportSource        `json:"source"`
	ErpType          string                   `json:"erp_type,omitempty"`
	ErpConnectionID  *uuid.UUID               `json:"erp_connection_id,omitempty"`
	Status           bulk.ImportStatus        `json:"status"`
	TotalRows        int                      `json:"total_rows"`
	ImportedRows     int                      `json:"imported_rows"`
	UpdatedRows      int                      `json:"updated_rows"`
	FailedRows       int                      `json:"failed_rows"`
	ColumnMapping    map[string]string        `json:"column_mapping,omitempty"`
	Errors           []integration.RowFailure `json:"errors"`
	ImportedBy       *uuid.UUID               `json:"imported_by,omitempty"`
	StartedAt        *time.Time               `json:"started_at,omitempty"`
	CompletedAt      *time.Time               `json:"completed_at,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
}

// ToImportJobResponse converts a domain job for the API
func ToImportJobResponse(j *bulk.ImportJob) ImportJobResponse {
	errs := j.Errors
	if errs == nil {
		errs = []integration.RowFailure{}
	}
	return ImportJobResponse{
		ID:               j.ID,
		Filename:         j.Filename,
		OriginalFilename: j.OriginalFilename,
		Source:           j.Source,
		ErpType:          j.ErpType,
		ErpConnectionID:  j.ErpConnectionID,
		Status:           j.Status,
		TotalRows:        j.TotalRows,
		ImportedRows:     j.ImportedRows,
		UpdatedRows:      j.UpdatedRows,
		FailedRows:       j.FailedRows,
		ColumnMapping:    j.ColumnMapping,
		Errors:           errs,
		ImportedBy:       j.ImportedBy,
		StartedAt:        j.StartedAt,
		CompletedAt:      j.CompletedAt,
		CreatedAt:        j.CreatedAt,
	}
}

// ToImportJobResponses converts a list of jobs
func ToImportJobResponses(jobs []*bulk.ImportJob) []ImportJobResponse {
	out := make([]ImportJobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = ToImportJobResponse(j)
	}
	return out
}

// ErpConnectionResponse is a stored connection. Config is returned as stored
// so the settings form can be edited in place.
type ErpConnectionResponse struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Config     map[string]any `json:"config"`
	IsActive   bool           `json:"is_active"`
	LastSyncAt *time.Time     `json:"last_sync_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ToErpConnectionResponse converts a domain connection for the API
func ToErpConnectionResponse(c *integration.ErpConnection) ErpConnectionResponse {
	return ErpConnectionResponse{
		ID:         c.ID,
		Name:       c.Name,
		Type:       c.Type,
		Config:     c.Config,
		IsActive:   c.IsActive,
		LastSyncAt: c.LastSyncAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ErpConnectionListResponse is the connection overview
type ErpConnectionListResponse struct {
	Connections    []ErpConnectionResponse   `json:"connections"`
	AvailableTypes []integration.AdapterType `json:"available_types"`
}

// ErpSyncResponse reports a finished sync
type ErpSyncResponse struct {
	ImportID uuid.UUID                `json:"import_id"`
	Status   bulk.ImportStatus        `json:"status"`
	Imported int                      `json:"imported"`
	Updated  int                      `json:"updated"`
	Failed   int                      `json:"failed"`
	Errors   []integration.RowFailure `json:"errors"`
}
