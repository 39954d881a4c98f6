package handler

import (
	"errors"
	"fmt"
	"net/http"

	importapp "github.com/erp/catalogsync/internal/application/import"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	fileimport "github.com/erp/catalogsync/internal/infrastructure/import"
	"github.com/erp/catalogsync/internal/infrastructure/logger"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/erp/catalogsync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader is the header carrying the request ID
const RequestIDHeader = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDHeader)
}

// parseID reads the :id path parameter, answering 400 when it is not a UUID
func (h *BaseHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

// bind decodes the JSON body into req, answering 400 on failure
func (h *BaseHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

// bindQuery decodes query parameters into req, answering 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == middleware.ErpTypeTag {
				h.Error(c, http.StatusBadRequest, dto.ErrCodeUnknownAdapter,
					fmt.Sprintf("Unknown ERP adapter type: %v", fe.Value()))
				return
			}
		}
		h.ValidationError(c, middleware.ValidationDetails(verrs))
		return
	}
	h.BadRequest(c, "Invalid request body")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// ErrorWithData sends an error response that still carries a payload, such as
// the record of a run that failed
func (h *BaseHandler) ErrorWithData(c *gin.Context, code, message string, data any) {
	resp := dto.NewErrorResponseWithRequestID(code, message, getRequestID(c))
	resp.Data = data
	c.JSON(dto.GetHTTPStatus(code), resp)
}

// HandleError converts service errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.HandleErrorWithData(c, err, nil)
}

// HandleErrorWithData converts a service error like HandleError and attaches data to the response
func (h *BaseHandler) HandleErrorWithData(c *gin.Context, err error, data any) {
	if err == nil {
		return
	}

	code, message := classifyError(err)
	if dto.GetHTTPStatus(code) >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("request failed", zap.String("code", code), zap.Error(err))
	}
	h.ErrorWithData(c, code, message, data)
}

// classifyError picks the API error code and the client-facing message.
// Unrecognised errors are reported without their text.
func classifyError(err error) (string, string) {
	switch {
	case errors.Is(err, fileimport.ErrUnsupportedFormat):
		return dto.ErrCodeUnsupportedFormat, err.Error()
	case errors.Is(err, fileimport.ErrFileTooLarge):
		return dto.ErrCodeFileTooLarge, err.Error()
	case errors.Is(err, fileimport.ErrEmptyInput):
		return dto.ErrCodeEmptyFile, err.Error()
	case errors.Is(err, fileimport.ErrMissingRequiredField):
		return dto.ErrCodeMissingField, err.Error()
	case errors.Is(err, fileimport.ErrUnknownField), errors.Is(err, fileimport.ErrUnknownColumn):
		return dto.ErrCodeValidation, err.Error()
	case errors.Is(err, fileimport.ErrFormat):
		return dto.ErrCodeFormat, err.Error()
	case errors.Is(err, integration.ErrUnknownAdapterType):
		return dto.ErrCodeUnknownAdapter, err.Error()
	case integration.IsConfigError(err):
		return dto.ErrCodeInvalidConfig, err.Error()
	case errors.Is(err, importapp.ErrSyncFailed):
		return dto.ErrCodeErpFailure, err.Error()
	case errors.Is(err, importapp.ErrImportFailed):
		return dto.ErrCodeInternal, err.Error()
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return dto.NormalizeErrorCode(domainErr.Code), domainErr.Message
	}
	return dto.ErrCodeInternal, "An unexpected error occurred"
}
