package handler

import (
	"context"

	importapp "github.com/erp/catalogsync/internal/application/import"
	"github.com/erp/catalogsync/internal/domain/bulk"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErpService is the ERP connection use case served by ErpHandler
type ErpService interface {
	AvailableTypes() []integration.AdapterType
	ListConnections(ctx context.Context) (*importapp.ConnectionList, error)
	GetConnection(ctx context.Context, id uuid.UUID) (*integration.ErpConnection, error)
	CreateConnection(ctx context.Context, input importapp.ConnectionInput) (*integration.ErpConnection, error)
	UpdateConnection(ctx context.Context, id uuid.UUID, input importapp.ConnectionInput) (*integration.ErpConnection, error)
	DeleteConnection(ctx context.Context, id uuid.UUID) error
	TestConnection(ctx context.Context, adapterType string, config map[string]any) (*importapp.TestResult, error)
	Sync(ctx context.Context, connectionID uuid.UUID, importedBy *uuid.UUID) (*importapp.SyncOutcome, error)
}

var _ ErpService = (*importapp.ErpService)(nil)

// ErpHandler handles ERP connection management and sync endpoints
type ErpHandler struct {
	BaseHandler
	service ErpService
}

// NewErpHandler creates a new ErpHandler
func NewErpHandler(service ErpService) *ErpHandler {
	return &ErpHandler{service: service}
}

// Types lists the registered adapter variants
// GET /erp/types
func (h *ErpHandler) Types(c *gin.Context) {
	h.Success(c, h.service.AvailableTypes())
}

// ListConnections returns every stored connection with the available types
// GET /erp/connections
func (h *ErpHandler) ListConnections(c *gin.Context) {
	list, err := h.service.ListConnections(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := dto.ErpConnectionListResponse{
		Connections:    make([]dto.ErpConnectionResponse, len(list.Connections)),
		AvailableTypes: list.AvailableTypes,
	}
	for i, conn := range list.Connections {
		resp.Connections[i] = dto.ToErpConnectionResponse(conn)
	}
	h.Success(c, resp)
}

// GetConnection returns one connection
// GET /erp/connections/:id
func (h *ErpHandler) GetConnection(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	conn, err := h.service.GetConnection(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToErpConnectionResponse(conn))
}

// CreateConnection stores a new connection
// POST /erp/connections
func (h *ErpHandler) CreateConnection(c *gin.Context) {
	var req dto.ErpConnectionRequest
	if !h.bind(c, &req) {
		return
	}

	conn, err := h.service.CreateConnection(c.Request.Context(), connectionInput(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToErpConnectionResponse(conn))
}

// UpdateConnection replaces the settings of a connection
// PUT /erp/connections/:id
func (h *ErpHandler) UpdateConnection(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.ErpConnectionRequest
	if !h.bind(c, &req) {
		return
	}

	conn, err := h.service.UpdateConnection(c.Request.Context(), id, connectionInput(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToErpConnectionResponse(conn))
}

// DeleteConnection removes a connection
// DELETE /erp/connections/:id
func (h *ErpHandler) DeleteConnection(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteConnection(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// TestConnection probes an unsaved configuration. Adapter failures are
// reported as success=false with status 200.
// POST /erp/test
func (h *ErpHandler) TestConnection(c *gin.Context) {
	var req dto.ErpTestRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.TestConnection(c.Request.Context(), req.Type, req.Config)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Sync runs a full sync of a stored connection
// POST /erp/sync
func (h *ErpHandler) Sync(c *gin.Context) {
	var req dto.ErpSyncRequest
	if !h.bind(c, &req) {
		return
	}
	connectionID, err := uuid.Parse(req.ConnectionID)
	if err != nil {
		h.BadRequest(c, "Invalid connection ID")
		return
	}

	outcome, err := h.service.Sync(c.Request.Context(), connectionID, nil)
	if err != nil {
		if outcome == nil || outcome.Job == nil {
			h.HandleError(c, err)
			return
		}
		h.HandleErrorWithData(c, err, syncResponse(outcome))
		return
	}

	if outcome.Job.IsFailed() {
		h.ErrorWithData(c, dto.ErrCodeErpFailure, syncFailureMessage(outcome.Job), syncResponse(outcome))
		return
	}
	h.Success(c, syncResponse(outcome))
}

// syncResponse reports the counts of a sync run. Failed runs carry it too so
// that the client can reach the import record and its row errors.
func syncResponse(outcome *importapp.SyncOutcome) dto.ErpSyncResponse {
	job := outcome.Job
	return dto.ErpSyncResponse{
		ImportID: job.ID,
		Status:   job.Status,
		Imported: outcome.Result.Imported,
		Updated:  outcome.Result.Updated,
		Failed:   outcome.Result.Failed,
		Errors:   job.DisplayErrors(importapp.DefaultDisplayErrors),
	}
}

// syncFailureMessage describes a sync whose rows all failed or that returned
// errors without producing any rows
func syncFailureMessage(job *bulk.ImportJob) string {
	if len(job.Errors) > 0 && job.Errors[0].Message != "" {
		return "ERP sync failed: " + job.Errors[0].Message
	}
	return "ERP sync failed"
}

func connectionInput(req dto.ErpConnectionRequest) importapp.ConnectionInput {
	return importapp.ConnectionInput{
		Name:     req.Name,
		Type:     req.Type,
		Config:   req.Config,
		IsActive: req.Active(),
	}
}
