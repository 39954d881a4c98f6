package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	importapp "github.com/erp/catalogsync/internal/application/import"
	"github.com/erp/catalogsync/internal/domain/bulk"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testAdapterTypes = []integration.AdapterType{
	{Key: "evira", Name: "Evira"},
	{Key: "mock", Name: "Mock ERP"},
}

func knownType(t string) bool {
	return t == "mock" || t == "evira"
}

func newErpRouter(svc ErpService) *gin.Engine {
	h := NewErpHandler(svc)
	router := gin.New()
	router.GET("/erp/types", h.Types)
	router.GET("/erp/connections", h.ListConnections)
	router.POST("/erp/connections", h.CreateConnection)
	router.GET("/erp/connections/:id", h.GetConnection)
	router.PUT("/erp/connections/:id", h.UpdateConnection)
	router.DELETE("/erp/connections/:id", h.DeleteConnection)
	router.POST("/erp/test", h.TestConnection)
	router.POST("/erp/sync", h.Sync)
	return router
}

func newConnection(t *testing.T, name string, active bool) *integration.ErpConnection {
	t.Helper()
	conn, err := integration.NewErpConnection(name, "mock", map[string]any{"api_url": "http://erp.local"}, active, knownType)
	require.NoError(t, err)
	return conn
}

func TestErpHandler_Types(t *testing.T) {
	svc := new(mockErpService)
	svc.On("AvailableTypes").Return(testAdapterTypes)

	w := serveJSON(newErpRouter(svc), http.MethodGet, "/erp/types", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got []integration.AdapterType
	decodeData(t, w, &got)
	assert.Equal(t, testAdapterTypes, got)
}

func TestErpHandler_ListConnections(t *testing.T) {
	svc := new(mockErpService)
	conn := newConnection(t, "Warehouse ERP", true)
	svc.On("ListConnections", mock.Anything).Return(&importapp.ConnectionList{
		Connections:    []*integration.ErpConnection{conn},
		AvailableTypes: testAdapterTypes,
	}, nil)

	w := serveJSON(newErpRouter(svc), http.MethodGet, "/erp/connections", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got dto.ErpConnectionListResponse
	decodeData(t, w, &got)
	require.Len(t, got.Connections, 1)
	assert.Equal(t, "Warehouse ERP", got.Connections[0].Name)
	assert.Equal(t, "http://erp.local", got.Connections[0].Config["api_url"])
	assert.Len(t, got.AvailableTypes, 2)
}

func TestErpHandler_CreateConnection(t *testing.T) {
	t.Run("created with is_active defaulting to true", func(t *testing.T) {
		svc := new(mockErpService)
		conn := newConnection(t, "Evira prod", true)
		svc.On("CreateConnection", mock.Anything, importapp.ConnectionInput{
			Name:     "Evira prod",
			Type:     "evira",
			Config:   map[string]any{"api_key": "k"},
			IsActive: true,
		}).Return(conn, nil)

		w := serveJSON(newErpRouter(svc), http.MethodPost, "/erp/connections",
			`{"name":"Evira prod","type":"evira","config":{"api_key":"k"}}`)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var got dto.ErpConnectionResponse
		decodeData(t, w, &got)
		assert.Equal(t, conn.ID, got.ID)
		svc.AssertExpectations(t)
	})

	t.Run("explicitly inactive", func(t *testing.T) {
		svc := new(mockErpService)
		svc.On("CreateConnection", mock.Anything, mock.MatchedBy(func(in importapp.ConnectionInput) bool {
			return !in.IsActive
		})).Return(newConnection(t, "Paused", false), nil)

		w := serveJSON(newErpRouter(svc), http.MethodPost, "/erp/connections",
			`{"name":"Paused","type":"mock","is_active":false}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("config rejected by adapter", func(t *testing.T) {
		svc := new(mockErpService)
		svc.On("CreateConnection", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: host is required", integration.ErrInvalidConfig))

		w := serveJSON(newErpRouter(svc), http.MethodPost, "/erp/connections",
			`{"name":"Evira prod","type":"evira","config":{}}`)

		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeInvalidConfig, resp.Error.Code)
		assert.Equal(t, "integration: invalid adapter configuration: host is required", resp.Error.Message)
	})

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"unknown type", `{"name":"SAP","type":"sap"}`, dto.ErrCodeUnknownAdapter},
		{"missing name", `{"type":"mock"}`, dto.ErrCodeValidation},
		{"missing type", `{"name":"x"}`, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockErpService)
			w := serveJSON(newErpRouter(svc), http.MethodPost, "/erp/connections", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			svc.AssertNotCalled(t, "CreateConnection", mock.Anything, mock.Anything)
		})
	}

	t.Run("domain rejection of the type", func(t *testing.T) {
		svc := new(mockErpService)
		svc.On("CreateConnection", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError("INVALID_TYPE", "Unknown ERP adapter type: mock"))

		w := serveJSON(newErpRouter(svc), http.MethodPost, "/erp/connections", `{"name":"x","type":"mock"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeUnknownAdapter, decode(t, w).Error.Code)
	})
}

func TestErpHandler_UpdateAndDelete(t *testing.T) {
	conn := newConnection(t, "Renamed", true)
	missing := uuid.New()

	svc := new(mockErpService)
	svc.On("UpdateConnection", mock.Anything, conn.ID, mock.Anything).Return(conn, nil)
	svc.On("UpdateConnection", mock.Anything, missing, mock.Anything).Return(nil, shared.ErrNotFound)
	svc.On("DeleteConnection", mock.Anything, conn.ID).Return(nil)
	svc.On("DeleteConnection", mock.Anything, missing).Return(shared.ErrNotFound)
	svc.On("GetConnection", mock.Anything, conn.ID).Return(conn, nil)
	router := newErpRouter(svc)

	body := `{"name":"Renamed","type":"mock","config":{}}`
	assert.Equal(t, http.StatusOK, serveJSON(router, http.MethodPut, "/erp/connections/"+conn.ID.String(), body).Code)
	assert.Equal(t, http.StatusNotFound, serveJSON(router, http.MethodPut, "/erp/connections/"+missing.String(), body).Code)
	assert.Equal(t, http.StatusBadRequest, serveJSON(router, http.MethodPut, "/erp/connections/42", body).Code)
	assert.Equal(t, http.StatusOK, serveJSON(router, http.MethodGet, "/erp/connections/"+conn.ID.String(), nil).Code)
	assert.Equal(t, http.StatusNoContent, serveJSON(router, http.MethodDelete, "/erp/connections/"+conn.ID.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, serveJSON(router, http.MethodDelete, "/erp/connections/"+missing.String(), nil).Code)
}

func TestErpHandler_TestConnection(t *testing.T) {
	tests := []struct {
		name       string
		result     *importapp.TestResult
		err        error
		wantStatus int
		wantCode   string
	}{
		{"reachable", &importapp.TestResult{Success: true, Message: "Connection successful"}, nil, http.StatusOK, ""},
		{"adapter failure is still 200", &importapp.TestResult{Success: false, Message: "Connection error: integration: ERP system unreachable"}, nil, http.StatusOK, ""},
		{"unknown type", nil, integration.UnknownAdapterTypeError("sap"), http.StatusBadRequest, dto.ErrCodeUnknownAdapter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockErpService)
			svc.On("TestConnection", mock.Anything, "mock", map[string]any{"api_url": "http://erp.local"}).Return(tt.result, tt.err)

			w := serveJSON(newErpRouter(svc), http.MethodPost, "/erp/test",
				`{"type":"mock","config":{"api_url":"http://erp.local"}}`)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode(t, w).Error.Code)
				return
			}
			var got importapp.TestResult
			decodeData(t, w, &got)
			assert.Equal(t, *tt.result, got)
		})
	}
}

func TestErpHandler_Sync(t *testing.T) {
	connID := uuid.New()

	syncJob := func(t *testing.T, result integration.SyncResult) *bulk.ImportJob {
		t.Helper()
		job, err := bulk.NewErpSyncJob("mock", connID, "Mock ERP", nil)
		require.NoError(t, err)
		require.NoError(t, job.Complete(result))
		return job
	}

	t.Run("completed", func(t *testing.T) {
		result := integration.SyncResult{Imported: 3, Updated: 1}
		job := syncJob(t, result)
		svc := new(mockErpService)
		svc.On("Sync", mock.Anything, connID, (*uuid.UUID)(nil)).Return(&importapp.SyncOutcome{Job: job, Result: result}, nil)

		w := serveJSON(newErpRouter(svc), http.MethodPost, "/erp/sync", map[string]string{"connection_id": connID.String()})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got dto.ErpSyncResponse
		decodeData(t, w, &got)
		assert.Equal(t, job.ID, got.ImportID)
		assert.Equal(t, bulk.ImportStatusCompleted, got.Status)
		assert.Equal(t, 3, got.Imported)
		assert.Equal(t, 1, got.Updated)
	})

	t.Run("nothing usable returned", func(t *testing.T) {
		result := integration.SyncResult{Errors: []integration.RowFailure{{Message: "product feed is empty"}}}
		job := syncJob(t, result)
		svc := new(mockErpService)
		svc.On("Sync", mock.Anything, connID, (*uuid.UUID)(nil)).Return(&importapp.SyncOutcome{Job: job, Result: result}, nil)

		w := serveJSON(newErpRouter(svc), http.MethodPost, "/erp/sync", map[string]string{"connection_id": connID.String()})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeErpFailure, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "product feed is empty")
		var got dto.ErpSyncResponse
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, job.ID, got.ImportID)
	})

	t.Run("every row failed keeps the counts", func(t *testing.T) {
		result := integration.SyncResult{
			Failed: 2,
			Errors: []integration.RowFailure{
				{Row: 1, SKU: "A-1", Message: "price cannot be negative"},
				{Row: 2, SKU: "A-2", Message: "name is required"},
			},
		}
		job := syncJob(t, result)
		svc := new(mockErpService)
		svc.On("Sync", mock.Anything, connID, (*uuid.UUID)(nil)).Return(&importapp.SyncOutcome{Job: job, Result: result}, nil)

		w := serveJSON(newErpRouter(svc), http.MethodPost, "/erp/sync", map[string]string{"connection_id": connID.String()})

		require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
		resp := decode(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeErpFailure, resp.Error.Code)
		var got dto.ErpSyncResponse
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, job.ID, got.ImportID)
		assert.Equal(t, bulk.ImportStatusFailed, got.Status)
		assert.Equal(t, 2, got.Failed)
		assert.Zero(t, got.Imported)
		require.Len(t, got.Errors, 2)
		assert.Equal(t, "A-2", got.Errors[1].SKU)
	})

	t.Run("stored config rejected", func(t *testing.T) {
		job, err := bulk.NewErpSyncJob("mock", connID, "Mock ERP", nil)
		require.NoError(t, err)
		require.NoError(t, job.Fail("product_count must be a non-negative integer"))
		cause := fmt.Errorf("%w: product_count must be a non-negative integer", integration.ErrInvalidConfig)
		svc := new(mockErpService)
		svc.On("Sync", mock.Anything, connID, (*uuid.UUID)(nil)).
			Return(&importapp.SyncOutcome{Job: job}, fmt.Errorf("%w: %w", importapp.ErrSyncFailed, cause))

		w := serveJSON(newErpRouter(svc), http.MethodPost, "/erp/sync", map[string]string{"connection_id": connID.String()})

		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeInvalidConfig, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "product_count must be a non-negative integer")
		var got dto.ErpSyncResponse
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, job.ID, got.ImportID)
		assert.Equal(t, bulk.ImportStatusFailed, got.Status)
	})

	tests := []struct {
		name       string
		body       any
		err        error
		wantStatus int
		wantCode   string
	}{
		{"adapter error", map[string]string{"connection_id": connID.String()}, fmt.Errorf("%w: integration: ERP system unreachable", importapp.ErrSyncFailed), http.StatusBadGateway, dto.ErrCodeErpFailure},
		{"adapter not configured", map[string]string{"connection_id": connID.String()}, integration.ErrNotConfigured, http.StatusBadRequest, dto.ErrCodeInvalidConfig},
		{"inactive connection", map[string]string{"connection_id": connID.String()}, integration.ErrConnectionInactive, http.StatusConflict, dto.ErrCodeInvalidState},
		{"unknown connection", map[string]string{"connection_id": connID.String()}, shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"missing connection id", `{}`, nil, http.StatusBadRequest, dto.ErrCodeValidation},
		{"malformed connection id", map[string]string{"connection_id": "abc"}, nil, http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockErpService)
			if tt.err != nil {
				svc.On("Sync", mock.Anything, connID, (*uuid.UUID)(nil)).Return(nil, tt.err)
			}

			w := serveJSON(newErpRouter(svc), http.MethodPost, "/erp/sync", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decode(t, w).Error.Code)
		})
	}
}

func TestErpConnectionResponse_LastSync(t *testing.T) {
	conn := newConnection(t, "Evira", true)
	assert.Nil(t, dto.ToErpConnectionResponse(conn).LastSyncAt)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	conn.MarkSynced(at)
	got := dto.ToErpConnectionResponse(conn)
	require.NotNil(t, got.LastSyncAt)
	assert.True(t, at.Equal(*got.LastSyncAt))
}
