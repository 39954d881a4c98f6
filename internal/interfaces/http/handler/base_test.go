package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	importapp "github.com/erp/catalogsync/internal/application/import"
	"github.com/erp/catalogsync/internal/domain/bulk"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	fileimport "github.com/erp/catalogsync/internal/infrastructure/import"
	"github.com/erp/catalogsync/internal/infrastructure/logger"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{"unsupported format", fileimport.ErrUnsupportedFormat, dto.ErrCodeUnsupportedFormat, ""},
		{"too large", fileimport.ErrFileTooLarge, dto.ErrCodeFileTooLarge, ""},
		{"empty", fileimport.ErrEmptyInput, dto.ErrCodeEmptyFile, ""},
		{"missing header is a format error", fileimport.ErrMissingHeader, dto.ErrCodeFormat, ""},
		{"too many rows is a format error", fileimport.ErrTooManyRows, dto.ErrCodeFormat, ""},
		{"missing required field", &fileimport.MissingRequiredFieldError{Field: "sku"}, dto.ErrCodeMissingField, "required field 'sku' is not mapped"},
		{"unknown canonical field", fmt.Errorf("%w: colour", fileimport.ErrUnknownField), dto.ErrCodeValidation, ""},
		{"unknown adapter", integration.UnknownAdapterTypeError("sap"), dto.ErrCodeUnknownAdapter, ""},
		{"invalid config", fmt.Errorf("%w: seed must be an integer", integration.ErrInvalidConfig), dto.ErrCodeInvalidConfig, "integration: invalid adapter configuration: seed must be an integer"},
		{"sync over invalid config", fmt.Errorf("%w: %w", importapp.ErrSyncFailed, integration.ErrNotConfigured), dto.ErrCodeInvalidConfig, "ERP sync failed: integration: adapter not configured"},
		{"sync failed", fmt.Errorf("%w: timeout", importapp.ErrSyncFailed), dto.ErrCodeErpFailure, "ERP sync failed: timeout"},
		{"import failed", fmt.Errorf("%w: blob missing", importapp.ErrImportFailed), dto.ErrCodeInternal, "import failed: blob missing"},
		{"already processed", bulk.ErrJobAlreadyProcessed, dto.ErrCodeInvalidState, "import already processed"},
		{"wrapped not found", fmt.Errorf("load job: %w", shared.ErrNotFound), dto.ErrCodeNotFound, "Resource not found"},
		{"domain validation", shared.NewDomainError("INVALID_NAME", "Connection name cannot be empty"), dto.ErrCodeValidation, "Connection name cannot be empty"},
		{"unknown error hides text", errors.New("pq: password authentication failed"), dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message := classifyError(tt.err)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, message)
			}
		})
	}
}

func TestHandleError_LogsServerErrors(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(logger.GinMiddleware(zap.New(core)))
	h := &BaseHandler{}
	router.GET("/conflict", func(c *gin.Context) { h.HandleError(c, bulk.ErrJobAlreadyProcessed) })
	router.GET("/boom", func(c *gin.Context) { h.HandleError(c, errors.New("disk full")) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, 0, recorded.FilterMessage("request failed").Len())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	logs := recorded.FilterMessage("request failed").All()
	require.Len(t, logs, 1)
	assert.Equal(t, "disk full", logs[0].ContextMap()["error"])
}

func TestBaseHandler_ErrorEchoesRequestID(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(logger.GinRequestIDKey, "req-77")
		c.Next()
	})
	h := &BaseHandler{}
	router.GET("/missing", func(c *gin.Context) { h.NotFound(c, "Import not found") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-77", resp.Error.RequestID)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestGetRequestID_FallsBackToHeader(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, getRequestID(c))

	c.Request.Header.Set(RequestIDHeader, "from-header")
	assert.Equal(t, "from-header", getRequestID(c))

	c.Set(logger.GinRequestIDKey, "from-context")
	assert.Equal(t, "from-context", getRequestID(c))
}
