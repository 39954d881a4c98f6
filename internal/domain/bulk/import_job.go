package bulk

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
)

// ImportSource identifies where the records of an import came from
type ImportSource string

const (
	ImportSourceCSV   ImportSource = "csv"
	ImportSourceExcel ImportSource = "excel"
	ImportSourceERP   ImportSource = "erp"
)

// IsValid checks if the source is valid
func (s ImportSource) IsValid() bool {
	switch s {
	case ImportSourceCSV, ImportSourceExcel, ImportSourceERP:
		return true
	}
	return false
}

// ImportStatus represents the status of an import job
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// IsValid checks if the status is valid
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusPending, ImportStatusProcessing, ImportStatusCompleted, ImportStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// ErrJobAlreadyProcessed is returned when executing a job that has left pending
var ErrJobAlreadyProcessed = shared.NewDomainError("INVALID_STATE", "import already processed")

// ImportJob tracks one import or sync run from submission to its terminal state
type ImportJob struct {
	shared.BaseAggregateRoot
	Filename         string
	OriginalFilename string
	Source           ImportSource
	ErpType          string
	ErpConnectionID  *uuid.UUID
	Status           ImportStatus
	TotalRows        int
	ImportedRows     int
	UpdatedRows      int
	FailedRows       int
	ColumnMapping    map[string]string
	Errors           []integration.RowFailure
	ImportedBy       *uuid.UUID
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// NewFileImportJob creates a pending job for an uploaded file
func NewFileImportJob(filename, originalFilename string, source ImportSource, totalRows int, importedBy *uuid.UUID) (*ImportJob, error) {
	if filename == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if source != ImportSourceCSV && source != ImportSourceExcel {
		return nil, shared.NewDomainError("INVALID_SOURCE", fmt.Sprintf("Invalid file import source: %s", source))
	}
	if totalRows < 0 {
		return nil, shared.NewDomainError("INVALID_TOTAL_ROWS", "Total rows cannot be negative")
	}

	return &ImportJob{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Filename:          filename,
		OriginalFilename:  originalFilename,
		Source:            source,
		Status:            ImportStatusPending,
		TotalRows:         totalRows,
		Errors:            make([]integration.RowFailure, 0),
		ImportedBy:        importedBy,
	}, nil
}

// NewErpSyncJob creates a job for an ERP sync. ERP syncs skip pending and
// start processing immediately.
func NewErpSyncJob(erpType string, connectionID uuid.UUID, adapterName string, importedBy *uuid.UUID) (*ImportJob, error) {
	if erpType == "" {
		return nil, shared.NewDomainError("INVALID_ERP_TYPE", "ERP type cannot be empty")
	}

	now := time.Now()
	job := &ImportJob{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Filename:          "erp_sync_" + now.Format("2006-01-02_15-04-05"),
		OriginalFilename:  adapterName + " Sync",
		Source:            ImportSourceERP,
		ErpType:           erpType,
		ErpConnectionID:   &connectionID,
		Status:            ImportStatusProcessing,
		Errors:            make([]integration.RowFailure, 0),
		ImportedBy:        importedBy,
		StartedAt:         &now,
	}
	return job, nil
}

// Start moves a pending job to processing with the confirmed column mapping
func (j *ImportJob) Start(mapping map[string]string) error {
	if j.Status != ImportStatusPending {
		return ErrJobAlreadyProcessed
	}

	j.Status = ImportStatusProcessing
	j.ColumnMapping = mapping
	now := time.Now()
	j.StartedAt = &now
	j.Touch(now)

	return nil
}

// Complete records the reconciliation outcome and moves the job to a terminal state.
// The job fails when nothing succeeded but something went wrong: either rows
// failed, or errors were reported without any row being attempted.
func (j *ImportJob) Complete(result integration.SyncResult) error {
	if j.Status != ImportStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete from state: %s", j.Status))
	}

	status := ImportStatusCompleted
	switch {
	case result.Failed > 0 && result.Succeeded() == 0:
		status = ImportStatusFailed
	case len(result.Errors) > 0 && result.Total() == 0:
		status = ImportStatusFailed
	}

	j.Status = status
	j.ImportedRows = result.Imported
	j.UpdatedRows = result.Updated
	j.FailedRows = result.Failed
	if j.Source == ImportSourceERP {
		j.TotalRows = result.Total()
	}
	j.Errors = append(make([]integration.RowFailure, 0, len(result.Errors)), result.Errors...)
	now := time.Now()
	j.CompletedAt = &now
	j.Touch(now)

	return nil
}

// Fail moves a processing job to failed with a single error describing why
// the run could not proceed
func (j *ImportJob) Fail(message string) error {
	if j.Status != ImportStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail from state: %s", j.Status))
	}

	j.Status = ImportStatusFailed
	j.Errors = []integration.RowFailure{{Message: message}}
	now := time.Now()
	j.CompletedAt = &now
	j.Touch(now)

	return nil
}

// IsCompleted returns true if the import is completed
func (j *ImportJob) IsCompleted() bool {
	return j.Status == ImportStatusCompleted
}

// IsFailed returns true if the import failed
func (j *ImportJob) IsFailed() bool {
	return j.Status == ImportStatusFailed
}

// DisplayErrors returns at most n errors for display; the full list stays on the job
func (j *ImportJob) DisplayErrors(n int) []integration.RowFailure {
	if n < 0 || len(j.Errors) <= n {
		return j.Errors
	}
	return j.Errors[:n]
}

// ErrorsJSON returns the error list as a JSON string
func (j *ImportJob) ErrorsJSON() (string, error) {
	if len(j.Errors) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(j.Errors)
	if err != nil {
		return "", fmt.Errorf("failed to marshal import errors: %w", err)
	}
	return string(data), nil
}

// SetErrorsFromJSON parses the error list from a JSON string
func (j *ImportJob) SetErrorsFromJSON(jsonStr string) error {
	if jsonStr == "" || jsonStr == "[]" || jsonStr == "null" {
		j.Errors = make([]integration.RowFailure, 0)
		return nil
	}
	var errs []integration.RowFailure
	if err := json.Unmarshal([]byte(jsonStr), &errs); err != nil {
		return fmt.Errorf("failed to unmarshal import errors: %w", err)
	}
	j.Errors = errs
	return nil
}

// ColumnMappingJSON returns the column mapping as a JSON string, or "" when unset
func (j *ImportJob) ColumnMappingJSON() (string, error) {
	if j.ColumnMapping == nil {
		return "", nil
	}
	data, err := json.Marshal(j.ColumnMapping)
	if err != nil {
		return "", fmt.Errorf("failed to marshal column mapping: %w", err)
	}
	return string(data), nil
}

// SetColumnMappingFromJSON parses the column mapping from a JSON string
func (j *ImportJob) SetColumnMappingFromJSON(jsonStr string) error {
	if jsonStr == "" || jsonStr == "null" {
		j.ColumnMapping = nil
		return nil
	}
	var mapping map[string]string
	if err := json.Unmarshal([]byte(jsonStr), &mapping); err != nil {
		return fmt.Errorf("failed to unmarshal column mapping: %w", err)
	}
	j.ColumnMapping = mapping
	return nil
}

// SuccessRate returns the share of rows that were imported or updated (0-100)
func (j *ImportJob) SuccessRate() float64 {
	if j.TotalRows == 0 {
		return 0
	}
	return float64(j.ImportedRows+j.UpdatedRows) / float64(j.TotalRows) * 100
}

// Duration returns how long the job ran, or has been running
func (j *ImportJob) Duration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(*j.StartedAt)
}
