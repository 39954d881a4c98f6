package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	importapp "github.com/erp/catalogsync/internal/application/import"
	"github.com/erp/catalogsync/internal/domain/bulk"
	fileimport "github.com/erp/catalogsync/internal/infrastructure/import"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadFormField is the multipart field holding the uploaded file
const UploadFormField = "file"

// ImportService is the file import use case served by ImportHandler
type ImportService interface {
	Upload(ctx context.Context, input importapp.UploadInput) (*importapp.UploadResult, error)
	Execute(ctx context.Context, id uuid.UUID, mapping map[string]string) (*importapp.ExecuteResult, error)
	History(ctx context.Context, limit int) ([]*bulk.ImportJob, error)
	Get(ctx context.Context, id uuid.UUID) (*bulk.ImportJob, error)
}

var _ ImportService = (*importapp.ImportService)(nil)

// ImportHandler handles file upload, execution and history endpoints
type ImportHandler struct {
	BaseHandler
	service     ImportService
	maxFileSize int64
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(service ImportService, maxFileSize int64) *ImportHandler {
	if maxFileSize <= 0 {
		maxFileSize = importapp.DefaultMaxFileSize
	}
	return &ImportHandler{
		service:     service,
		maxFileSize: maxFileSize,
	}
}

// Upload stores and parses an uploaded file and answers with a preview and a
// suggested column mapping
// POST /uploads
func (h *ImportHandler) Upload(c *gin.Context) {
	header, err := c.FormFile(UploadFormField)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "No file uploaded")
		return
	}
	if _, err := fileimport.FormatFromFilename(header.Filename); err != nil {
		h.HandleError(c, err)
		return
	}
	if header.Size > h.maxFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge,
			fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)))
		return
	}

	f, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxFileSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return
	}

	result, err := h.service.Upload(c.Request.Context(), importapp.UploadInput{
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Execute applies a column mapping to a pending upload
// POST /imports/:id/execute
func (h *ImportHandler) Execute(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.ExecuteImportRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.Execute(c.Request.Context(), id, req.Mapping)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// History lists recent imports, newest first
// GET /imports?limit=N
func (h *ImportHandler) History(c *gin.Context) {
	var query dto.HistoryQuery
	if !h.bindQuery(c, &query) {
		return
	}

	jobs, err := h.service.History(c.Request.Context(), query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToImportJobResponses(jobs))
}

// Get returns one import job
// GET /imports/:id
func (h *ImportHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	job, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToImportJobResponse(job))
}
