package importapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/catalogsync/internal/domain/bulk"
	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/infrastructure/logger"
	"github.com/erp/catalogsync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSyncFailed wraps adapter errors that aborted an ERP sync
var ErrSyncFailed = errors.New("ERP sync failed")

// ConnectionInput carries the editable fields of an ERP connection
type ConnectionInput struct {
	Name     string
	Type     string
	Config   map[string]any
	IsActive bool
}

// ConnectionList is the connection overview together with the registered variants
type ConnectionList struct {
	Connections    []*integration.ErpConnection
	AvailableTypes []integration.AdapterType
}

// TestResult is the outcome of a connectivity probe
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SyncOutcome is a finished ERP sync
type SyncOutcome struct {
	Job    *bulk.ImportJob
	Result integration.SyncResult
}

// ErpService manages ERP connections and runs full syncs through the reconciliation engine
type ErpService struct {
	connections integration.ErpConnectionRepository
	jobs        bulk.ImportJobRepository
	registry    integration.AdapterRegistry
	engine      integration.Reconciler
	cache       catalog.ProductCache
	runTimeout  time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// ErpServiceOption configures an ErpService
type ErpServiceOption func(*ErpService)

// WithRunTimeout bounds a single sync run
func WithRunTimeout(d time.Duration) ErpServiceOption {
	return func(s *ErpService) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// WithErpLogger sets the service logger
func WithErpLogger(logger *zap.Logger) ErpServiceOption {
	return func(s *ErpService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProductCache sets the cache invalidated after a completed sync
func WithProductCache(cache catalog.ProductCache) ErpServiceOption {
	return func(s *ErpService) {
		s.cache = cache
	}
}

// NewErpService creates a new ErpService
func NewErpService(
	connections integration.ErpConnectionRepository,
	jobs bulk.ImportJobRepository,
	registry integration.AdapterRegistry,
	engine integration.Reconciler,
	opts ...ErpServiceOption,
) *ErpService {
	s := &ErpService{
		connections: connections,
		jobs:        jobs,
		registry:    registry,
		engine:      engine,
		runTimeout:  DefaultRunTimeout,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AvailableTypes lists the registered adapter variants
func (s *ErpService) AvailableTypes() []integration.AdapterType {
	return s.registry.AvailableTypes()
}

// ListConnections returns every stored connection and the registered variants
func (s *ErpService) ListConnections(ctx context.Context) (*ConnectionList, error) {
	conns, err := s.connections.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return &ConnectionList{
		Connections:    conns,
		AvailableTypes: s.registry.AvailableTypes(),
	}, nil
}

// GetConnection returns a single connection
func (s *ErpService) GetConnection(ctx context.Context, id uuid.UUID) (*integration.ErpConnection, error) {
	return s.connections.FindByID(ctx, id)
}

// CreateConnection validates and stores a new connection
func (s *ErpService) CreateConnection(ctx context.Context, input ConnectionInput) (*integration.ErpConnection, error) {
	conn, err := integration.NewErpConnection(input.Name, input.Type, input.Config, input.IsActive, s.registry.IsAvailable)
	if err != nil {
		return nil, err
	}
	if err := s.checkConfig(conn.Type, conn.Config); err != nil {
		return nil, err
	}
	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to save ERP connection: %w", err)
	}

	s.logger.Info("ERP connection created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("type", conn.Type),
	)
	return conn, nil
}

// UpdateConnection replaces the settings of an existing connection
func (s *ErpService) UpdateConnection(ctx context.Context, id uuid.UUID, input ConnectionInput) (*integration.ErpConnection, error) {
	conn, err := s.connections.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := conn.Update(input.Name, input.Type, input.Config, input.IsActive, s.registry.IsAvailable); err != nil {
		return nil, err
	}
	if err := s.checkConfig(conn.Type, conn.Config); err != nil {
		return nil, err
	}
	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to save ERP connection: %w", err)
	}
	return conn, nil
}

// checkConfig applies config to a throwaway adapter of the given type so that
// settings the variant cannot run with are rejected before they are stored
func (s *ErpService) checkConfig(adapterType string, config map[string]any) error {
	adapter, err := s.registry.Make(adapterType)
	if err != nil {
		return err
	}
	if config == nil {
		config = map[string]any{}
	}
	return adapter.Configure(config)
}

// DeleteConnection removes a connection. Import history referencing it is kept.
func (s *ErpService) DeleteConnection(ctx context.Context, id uuid.UUID) error {
	return s.connections.Delete(ctx, id)
}

// TestConnection probes an unsaved configuration. Adapter failures are part of
// the result; only an unknown type is returned as an error.
func (s *ErpService) TestConnection(ctx context.Context, adapterType string, config map[string]any) (*TestResult, error) {
	adapter, err := s.registry.Make(adapterType)
	if err != nil {
		return nil, err
	}
	if err := adapter.Configure(config); err != nil {
		return &TestResult{Success: false, Message: "Connection error: " + err.Error()}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	ok, err := adapter.TestConnection(runCtx)
	if err != nil {
		s.logger.Info("ERP connection test failed", zap.String("type", adapterType), zap.Error(err))
		return &TestResult{Success: false, Message: "Connection error: " + err.Error()}, nil
	}
	if !ok {
		return &TestResult{Success: false, Message: "Connection failed"}, nil
	}
	return &TestResult{Success: true, Message: "Connection successful"}, nil
}

// Sync pulls every product from the connection's ERP and reconciles it.
// The job is recorded before the adapter runs, so aborted syncs stay visible in history.
func (s *ErpService) Sync(ctx context.Context, connectionID uuid.UUID, importedBy *uuid.UUID) (*SyncOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "erp_sync", "run",
		telemetry.WithAttribute(telemetry.SpanAttrConnectionID, connectionID.String()),
	)
	defer span.End()

	conn, err := s.connections.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if err := conn.EnsureSyncable(); err != nil {
		return nil, err
	}

	adapter, err := s.registry.FromConnection(conn)
	if err != nil {
		if !integration.IsConfigError(err) {
			return nil, err
		}
		telemetry.RecordError(span, err)
		return s.rejectStoredConfig(ctx, conn, importedBy, err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrErpType, adapter.Type())

	job, err := bulk.NewErpSyncJob(conn.Type, conn.ID, adapter.Name(), importedBy)
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save import job: %w", err)
	}
	ctx = logger.WithJobID(ctx, job.ID.String())
	telemetry.SetAttribute(span, telemetry.SpanAttrImportID, job.ID.String())

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	result, err := adapter.SyncAll(runCtx, s.engine)
	if err != nil {
		telemetry.RecordError(span, err)
		msg := failureMessage(err)
		if ferr := job.Fail(msg); ferr != nil {
			return nil, ferr
		}
		if serr := s.jobs.Save(context.WithoutCancel(ctx), job); serr != nil {
			s.logger.Error("failed to persist failed sync", zap.String("import_id", job.ID.String()), zap.Error(serr))
		}
		s.logger.Warn("ERP sync failed",
			zap.String("connection_id", conn.ID.String()),
			zap.String("import_id", job.ID.String()),
			zap.Error(err),
		)
		return &SyncOutcome{Job: job}, fmt.Errorf("%w: %s", ErrSyncFailed, msg)
	}

	if err := job.Complete(result); err != nil {
		return nil, err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save import job: %w", err)
	}

	if job.IsCompleted() {
		conn.MarkSynced(s.now())
		if err := s.connections.Save(ctx, conn); err != nil {
			s.logger.Error("failed to record sync time", zap.String("connection_id", conn.ID.String()), zap.Error(err))
		}
		invalidateCatalog(ctx, s.cache, s.logger)
	}

	s.logger.Info("ERP sync finished",
		zap.String("connection_id", conn.ID.String()),
		zap.String("import_id", job.ID.String()),
		zap.String("status", string(job.Status)),
		zap.Int("imported", result.Imported),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)
	telemetry.RecordSyncResult(span, result)

	return &SyncOutcome{Job: job, Result: result}, nil
}

// rejectStoredConfig records a failed sync job for a connection whose stored
// config the adapter refuses, so the attempt shows up in import history
func (s *ErpService) rejectStoredConfig(ctx context.Context, conn *integration.ErpConnection, importedBy *uuid.UUID, cause error) (*SyncOutcome, error) {
	job, err := bulk.NewErpSyncJob(conn.Type, conn.ID, s.typeName(conn.Type), importedBy)
	if err != nil {
		return nil, err
	}
	if err := job.Fail(cause.Error()); err != nil {
		return nil, err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save import job: %w", err)
	}
	s.logger.Warn("ERP sync rejected: invalid connection config",
		zap.String("connection_id", conn.ID.String()),
		zap.String("import_id", job.ID.String()),
		zap.Error(cause),
	)
	return &SyncOutcome{Job: job}, fmt.Errorf("%w: %w", ErrSyncFailed, cause)
}

func (s *ErpService) typeName(adapterType string) string {
	for _, t := range s.registry.AvailableTypes() {
		if t.Key == adapterType {
			return t.Name
		}
	}
	return adapterType
}
