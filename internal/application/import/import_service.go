package importapp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/erp/catalogsync/internal/domain/bulk"
	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/integration"
	fileimport "github.com/erp/catalogsync/internal/infrastructure/import"
	"github.com/erp/catalogsync/internal/infrastructure/logger"
	"github.com/erp/catalogsync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultMaxFileSize is the upload limit when none is configured (10 MB)
	DefaultMaxFileSize int64 = 10 << 20
	// DefaultPreviewRows is the number of parsed rows returned by Upload
	DefaultPreviewRows = 10
	// DefaultDisplayErrors is the number of row errors returned by Execute
	DefaultDisplayErrors = 10
	// DefaultRunTimeout bounds a single execute or sync run
	DefaultRunTimeout = 5 * time.Minute

	blobPrefix = "imports/"
)

// ErrImportFailed wraps unrecoverable errors that moved a started job to failed
var ErrImportFailed = errors.New("import failed")

// BlobStore persists uploaded files between upload and execute
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// RunConfig bounds the work done by import and sync runs
type RunConfig struct {
	MaxFileSize   int64
	PreviewRows   int
	DisplayErrors int
	HistoryLimit  int
	RunTimeout    time.Duration
}

func (c RunConfig) withDefaults() RunConfig {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.PreviewRows <= 0 {
		c.PreviewRows = DefaultPreviewRows
	}
	if c.DisplayErrors <= 0 {
		c.DisplayErrors = DefaultDisplayErrors
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = bulk.DefaultHistoryLimit
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = DefaultRunTimeout
	}
	return c
}

// UploadInput is a file received from an operator
type UploadInput struct {
	Filename   string
	Data       []byte
	ImportedBy *uuid.UUID
}

// UploadResult describes a stored upload awaiting a column mapping
type UploadResult struct {
	ImportID         uuid.UUID               `json:"import_id"`
	Filename         string                  `json:"filename"`
	TotalRows        int                     `json:"total_rows"`
	Headers          []string                `json:"headers"`
	Preview          []fileimport.RawRow     `json:"preview"`
	AvailableColumns []fileimport.FieldSpec  `json:"available_columns"`
	SuggestedMapping fileimport.FieldMapping `json:"suggested_mapping"`
}

// ExecuteResult summarizes a finished file import
type ExecuteResult struct {
	ImportID uuid.UUID                `json:"import_id"`
	Status   bulk.ImportStatus        `json:"status"`
	Imported int                      `json:"imported"`
	Updated  int                      `json:"updated"`
	Failed   int                      `json:"failed"`
	Errors   []integration.RowFailure `json:"errors"`
}

// ImportService drives file imports from upload to completion
type ImportService struct {
	jobs   bulk.ImportJobRepository
	blobs  BlobStore
	parser *fileimport.Parser
	engine integration.Reconciler
	cache  catalog.ProductCache
	config RunConfig
	logger *zap.Logger
	locks  *keyedLock
}

// NewImportService creates a new ImportService. cache may be nil.
func NewImportService(
	jobs bulk.ImportJobRepository,
	blobs BlobStore,
	parser *fileimport.Parser,
	engine integration.Reconciler,
	cache catalog.ProductCache,
	config RunConfig,
	logger *zap.Logger,
) *ImportService {
	if parser == nil {
		parser = fileimport.NewParser()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		jobs:   jobs,
		blobs:  blobs,
		parser: parser,
		engine: engine,
		cache:  cache,
		config: config.withDefaults(),
		logger: logger,
		locks:  newKeyedLock(),
	}
}

// Upload stores and parses a file and records a pending import job.
// Nothing is kept when the file is rejected.
func (s *ImportService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	format, err := fileimport.FormatFromFilename(input.Filename)
	if err != nil {
		return nil, err
	}
	if int64(len(input.Data)) > s.config.MaxFileSize {
		return nil, fileimport.ErrFileTooLarge
	}
	if len(input.Data) == 0 {
		return nil, fileimport.ErrEmptyInput
	}

	table, err := s.parser.Parse(input.Data, format)
	if err != nil {
		return nil, err
	}

	key := blobPrefix + "import_" + uuid.New().String() + "." + string(format)
	if err := s.blobs.Put(ctx, key, input.Data, contentType(format)); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	source := bulk.ImportSourceCSV
	if format.IsSpreadsheet() {
		source = bulk.ImportSourceExcel
	}
	job, err := bulk.NewFileImportJob(key, filepath.Base(input.Filename), source, len(table.Rows), input.ImportedBy)
	if err != nil {
		s.discardBlob(ctx, key)
		return nil, err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		s.discardBlob(ctx, key)
		return nil, fmt.Errorf("failed to save import job: %w", err)
	}

	s.logger.Info("import uploaded",
		zap.String("import_id", job.ID.String()),
		zap.String("filename", job.OriginalFilename),
		zap.Int("total_rows", job.TotalRows),
	)

	return &UploadResult{
		ImportID:         job.ID,
		Filename:         job.OriginalFilename,
		TotalRows:        job.TotalRows,
		Headers:          table.Headers,
		Preview:          table.Preview(s.config.PreviewRows),
		AvailableColumns: fileimport.CanonicalFields(),
		SuggestedMapping: fileimport.SuggestMapping(table.Headers),
	}, nil
}

// Execute applies the operator's column mapping to a pending upload.
// Required fields are checked before the file is read and header membership
// after the parse; either failure leaves the job pending. Storage or parse
// failures move the job through processing to failed.
func (s *ImportService) Execute(ctx context.Context, id uuid.UUID, mapping map[string]string) (*ExecuteResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog_import", "execute",
		telemetry.WithAttribute(telemetry.SpanAttrImportID, id.String()),
	)
	defer span.End()
	ctx = logger.WithJobID(ctx, id.String())

	unlock := s.locks.Lock(id.String())
	defer unlock()

	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != bulk.ImportStatusPending {
		return nil, bulk.ErrJobAlreadyProcessed
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrImportSource, string(job.Source))

	if err := fileimport.RequireFields(fileimport.FieldMapping(mapping)); err != nil {
		return nil, err
	}

	table, err := s.loadTable(ctx, job)
	if err != nil {
		telemetry.RecordError(span, err)
		if serr := s.start(ctx, job, mapping); serr != nil {
			return nil, serr
		}
		return nil, s.abort(ctx, job, err)
	}

	resolved, err := fileimport.Resolve(table.Headers, fileimport.FieldMapping(mapping))
	if err != nil {
		return nil, err
	}
	if err := s.start(ctx, job, resolved); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	result, err := s.engine.Reconcile(runCtx, fileimport.ProjectAll(table.Rows, resolved))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.abort(ctx, job, err)
	}

	if err := s.finish(ctx, job, result); err != nil {
		return nil, err
	}
	telemetry.RecordSyncResult(span, result)

	return &ExecuteResult{
		ImportID: job.ID,
		Status:   job.Status,
		Imported: job.ImportedRows,
		Updated:  job.UpdatedRows,
		Failed:   job.FailedRows,
		Errors:   job.DisplayErrors(s.config.DisplayErrors),
	}, nil
}

// History returns recent import jobs, newest first. A non-positive limit
// uses the configured default.
func (s *ImportService) History(ctx context.Context, limit int) ([]*bulk.ImportJob, error) {
	if limit <= 0 {
		limit = s.config.HistoryLimit
	}
	return s.jobs.FindRecent(ctx, bulk.ClampHistoryLimit(limit))
}

// Get returns a single import job
func (s *ImportService) Get(ctx context.Context, id uuid.UUID) (*bulk.ImportJob, error) {
	return s.jobs.FindByID(ctx, id)
}

func (s *ImportService) loadTable(ctx context.Context, job *bulk.ImportJob) (*fileimport.Table, error) {
	data, err := s.blobs.Get(ctx, job.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	format, err := fileimport.FormatFromFilename(job.Filename)
	if err != nil {
		return nil, err
	}
	return s.parser.Parse(data, format)
}

// start moves the job to processing and persists it
func (s *ImportService) start(ctx context.Context, job *bulk.ImportJob, mapping map[string]string) error {
	if err := job.Start(mapping); err != nil {
		return err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to save import job: %w", err)
	}
	return nil
}

// finish completes the job, persists it and drops cached catalog pages when rows changed
func (s *ImportService) finish(ctx context.Context, job *bulk.ImportJob, result integration.SyncResult) error {
	if err := job.Complete(result); err != nil {
		return err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to save import job: %w", err)
	}

	s.logger.Info("import finished",
		zap.String("import_id", job.ID.String()),
		zap.String("status", string(job.Status)),
		zap.Int("imported", job.ImportedRows),
		zap.Int("updated", job.UpdatedRows),
		zap.Int("failed", job.FailedRows),
	)

	if job.IsCompleted() {
		invalidateCatalog(ctx, s.cache, s.logger)
	}
	return nil
}

// abort moves the job to failed and returns an ErrImportFailed carrying the cause
func (s *ImportService) abort(ctx context.Context, job *bulk.ImportJob, cause error) error {
	msg := failureMessage(cause)
	if err := job.Fail(msg); err != nil {
		return err
	}
	if err := s.jobs.Save(context.WithoutCancel(ctx), job); err != nil {
		s.logger.Error("failed to persist failed import", zap.String("import_id", job.ID.String()), zap.Error(err))
	}
	s.logger.Warn("import failed", zap.String("import_id", job.ID.String()), zap.Error(cause))
	return fmt.Errorf("%w: %s", ErrImportFailed, msg)
}

func (s *ImportService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("failed to delete upload", zap.String("key", key), zap.Error(err))
	}
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "import timed out before all rows were processed"
	case errors.Is(err, context.Canceled):
		return "import was cancelled before all rows were processed"
	}
	return err.Error()
}

func contentType(format fileimport.Format) string {
	switch format {
	case fileimport.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case fileimport.FormatXLS:
		return "application/vnd.ms-excel"
	}
	return "text/csv"
}

// invalidateCatalog drops cached catalog pages. Failures are logged; a stale
// page expires with its TTL.
func invalidateCatalog(ctx context.Context, cache catalog.ProductCache, log *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateAll(context.WithoutCancel(ctx)); err != nil {
		logger.WithLogger(ctx, log).Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}
