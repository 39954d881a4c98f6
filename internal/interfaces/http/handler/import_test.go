package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	importapp "github.com/erp/catalogsync/internal/application/import"
	"github.com/erp/catalogsync/internal/domain/bulk"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	fileimport "github.com/erp/catalogsync/internal/infrastructure/import"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newImportRouter(svc ImportService, maxFileSize int64) *gin.Engine {
	h := NewImportHandler(svc, maxFileSize)
	router := gin.New()
	router.POST("/uploads", h.Upload)
	router.POST("/imports/:id/execute", h.Execute)
	router.GET("/imports", h.History)
	router.GET("/imports/:id", h.Get)
	return router
}

func newPendingJob(t *testing.T) *bulk.ImportJob {
	t.Helper()
	job, err := bulk.NewFileImportJob("imports/import_a.csv", "products.csv", bulk.ImportSourceCSV, 3, nil)
	require.NoError(t, err)
	return job
}

func TestImportHandler_Upload(t *testing.T) {
	csv := []byte("SKU,Name,Price\nBRK-001,Brake Pad,12.50\n")

	t.Run("returns preview and suggested mapping", func(t *testing.T) {
		svc := new(mockImportService)
		id := uuid.New()
		svc.On("Upload", mock.Anything, importapp.UploadInput{Filename: "products.csv", Data: csv}).
			Return(&importapp.UploadResult{
				ImportID:         id,
				Filename:         "products.csv",
				TotalRows:        1,
				Headers:          []string{"SKU", "Name", "Price"},
				SuggestedMapping: fileimport.FieldMapping{"sku": "SKU", "name": "Name", "price": "Price"},
			}, nil)

		w := httptest.NewRecorder()
		newImportRouter(svc, 0).ServeHTTP(w, multipartUpload(t, UploadFormField, "products.csv", csv))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got struct {
			ImportID         uuid.UUID         `json:"import_id"`
			TotalRows        int               `json:"total_rows"`
			Headers          []string          `json:"headers"`
			SuggestedMapping map[string]string `json:"suggested_mapping"`
		}
		decodeData(t, w, &got)
		assert.Equal(t, id, got.ImportID)
		assert.Equal(t, 1, got.TotalRows)
		assert.Equal(t, "SKU", got.SuggestedMapping["sku"])
		svc.AssertExpectations(t)
	})

	tests := []struct {
		name       string
		filename   string
		content    []byte
		maxSize    int64
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"missing file", "", nil, 0, nil, http.StatusBadRequest, dto.ErrCodeValidation},
		{"unsupported extension", "products.pdf", csv, 0, nil, http.StatusBadRequest, dto.ErrCodeUnsupportedFormat},
		{"file too large", "products.csv", []byte(strings.Repeat("x", 64)), 32, nil, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge},
		{"empty file", "products.csv", []byte("SKU\n"), 0, fileimport.ErrEmptyInput, http.StatusBadRequest, dto.ErrCodeEmptyFile},
		{"unreadable content", "products.xlsx", []byte("not a workbook"), 0, fmt.Errorf("%w: zip: not a valid zip file", fileimport.ErrFormat), http.StatusBadRequest, dto.ErrCodeFormat},
		{"missing header", "products.csv", []byte("\n\n"), 0, fileimport.ErrMissingHeader, http.StatusBadRequest, dto.ErrCodeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockImportService)
			if tt.serviceErr != nil {
				svc.On("Upload", mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}

			w := httptest.NewRecorder()
			newImportRouter(svc, tt.maxSize).ServeHTTP(w, multipartUpload(t, UploadFormField, tt.filename, tt.content))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.serviceErr == nil {
				svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestImportHandler_Execute(t *testing.T) {
	id := uuid.New()
	mapping := map[string]string{"sku": "SKU", "name": "Name", "price": "Price"}

	t.Run("returns the summary", func(t *testing.T) {
		svc := new(mockImportService)
		svc.On("Execute", mock.Anything, id, mapping).Return(&importapp.ExecuteResult{
			ImportID: id,
			Status:   bulk.ImportStatusCompleted,
			Imported: 2,
			Updated:  1,
			Failed:   1,
			Errors:   []integration.RowFailure{{Row: 4, Line: 5, SKU: "X-1", Message: "price is required"}},
		}, nil)

		w := serveJSON(newImportRouter(svc, 0), http.MethodPost, "/imports/"+id.String()+"/execute",
			dto.ExecuteImportRequest{Mapping: mapping})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got importapp.ExecuteResult
		decodeData(t, w, &got)
		assert.Equal(t, bulk.ImportStatusCompleted, got.Status)
		assert.Equal(t, 2, got.Imported)
		assert.Equal(t, 1, got.Updated)
		require.Len(t, got.Errors, 1)
		assert.Equal(t, 5, got.Errors[0].Line)
		svc.AssertExpectations(t)
	})

	tests := []struct {
		name       string
		id         string
		body       any
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"invalid id", "not-a-uuid", dto.ExecuteImportRequest{Mapping: mapping}, nil, http.StatusBadRequest, dto.ErrCodeValidation},
		{"missing mapping", id.String(), `{}`, nil, http.StatusBadRequest, dto.ErrCodeValidation},
		{"malformed body", id.String(), `{"mapping":`, nil, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"unknown job", id.String(), dto.ExecuteImportRequest{Mapping: mapping}, shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"already processed", id.String(), dto.ExecuteImportRequest{Mapping: mapping}, bulk.ErrJobAlreadyProcessed, http.StatusConflict, dto.ErrCodeInvalidState},
		{"required field unmapped", id.String(), dto.ExecuteImportRequest{Mapping: mapping}, &fileimport.MissingRequiredFieldError{Field: "price"}, http.StatusBadRequest, dto.ErrCodeMissingField},
		{"unknown column", id.String(), dto.ExecuteImportRequest{Mapping: mapping}, &fileimport.UnknownColumnError{Field: "brand", Column: "Marka"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"run failed after start", id.String(), dto.ExecuteImportRequest{Mapping: mapping}, fmt.Errorf("%w: import timed out before all rows were processed", importapp.ErrImportFailed), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockImportService)
			if tt.serviceErr != nil {
				svc.On("Execute", mock.Anything, id, mapping).Return(nil, tt.serviceErr)
			}

			w := serveJSON(newImportRouter(svc, 0), http.MethodPost, "/imports/"+tt.id+"/execute", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	t.Run("failed run keeps its human-readable message", func(t *testing.T) {
		svc := new(mockImportService)
		svc.On("Execute", mock.Anything, id, mapping).
			Return(nil, fmt.Errorf("%w: import timed out before all rows were processed", importapp.ErrImportFailed))

		w := serveJSON(newImportRouter(svc, 0), http.MethodPost, "/imports/"+id.String()+"/execute",
			dto.ExecuteImportRequest{Mapping: mapping})

		resp := decode(t, w)
		require.NotNil(t, resp.Error)
		assert.Contains(t, resp.Error.Message, "timed out")
	})
}

func TestImportHandler_History(t *testing.T) {
	t.Run("passes the limit through", func(t *testing.T) {
		svc := new(mockImportService)
		job := newPendingJob(t)
		svc.On("History", mock.Anything, 5).Return([]*bulk.ImportJob{job}, nil)

		w := serveJSON(newImportRouter(svc, 0), http.MethodGet, "/imports?limit=5", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var got []dto.ImportJobResponse
		decodeData(t, w, &got)
		require.Len(t, got, 1)
		assert.Equal(t, job.ID, got[0].ID)
		assert.Equal(t, bulk.ImportStatusPending, got[0].Status)
		assert.NotNil(t, got[0].Errors)
	})

	t.Run("omitted limit uses the service default", func(t *testing.T) {
		svc := new(mockImportService)
		svc.On("History", mock.Anything, 0).Return([]*bulk.ImportJob{}, nil)

		w := serveJSON(newImportRouter(svc, 0), http.MethodGet, "/imports", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		w := serveJSON(newImportRouter(new(mockImportService), 0), http.MethodGet, "/imports?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("repository failure is not leaked", func(t *testing.T) {
		svc := new(mockImportService)
		svc.On("History", mock.Anything, 0).Return(nil, errors.New("pq: connection refused"))

		w := serveJSON(newImportRouter(svc, 0), http.MethodGet, "/imports", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestImportHandler_Get(t *testing.T) {
	svc := new(mockImportService)
	job := newPendingJob(t)
	svc.On("Get", mock.Anything, job.ID).Return(job, nil)
	missing := uuid.New()
	svc.On("Get", mock.Anything, missing).Return(nil, shared.ErrNotFound)
	router := newImportRouter(svc, 0)

	w := serveJSON(router, http.MethodGet, "/imports/"+job.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got dto.ImportJobResponse
	decodeData(t, w, &got)
	assert.Equal(t, "products.csv", got.OriginalFilename)
	assert.Equal(t, 3, got.TotalRows)

	w = serveJSON(router, http.MethodGet, "/imports/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
