package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	catalogapp "github.com/erp/catalogsync/internal/application/catalog"
	importapp "github.com/erp/catalogsync/internal/application/import"
	"github.com/erp/catalogsync/internal/domain/bulk"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/erp/catalogsync/internal/infrastructure/persistence"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/erp/catalogsync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(func(t string) bool { return t == "mock" || t == "evira" }); err != nil {
		panic(err)
	}
}

type mockImportService struct {
	mock.Mock
}

func (m *mockImportService) Upload(ctx context.Context, input importapp.UploadInput) (*importapp.UploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importapp.UploadResult), args.Error(1)
}

func (m *mockImportService) Execute(ctx context.Context, id uuid.UUID, mapping map[string]string) (*importapp.ExecuteResult, error) {
	args := m.Called(ctx, id, mapping)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importapp.ExecuteResult), args.Error(1)
}

func (m *mockImportService) History(ctx context.Context, limit int) ([]*bulk.ImportJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bulk.ImportJob), args.Error(1)
}

func (m *mockImportService) Get(ctx context.Context, id uuid.UUID) (*bulk.ImportJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bulk.ImportJob), args.Error(1)
}

type mockErpService struct {
	mock.Mock
}

func (m *mockErpService) AvailableTypes() []integration.AdapterType {
	return m.Called().Get(0).([]integration.AdapterType)
}

func (m *mockErpService) ListConnections(ctx context.Context) (*importapp.ConnectionList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importapp.ConnectionList), args.Error(1)
}

func (m *mockErpService) GetConnection(ctx context.Context, id uuid.UUID) (*integration.ErpConnection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ErpConnection), args.Error(1)
}

func (m *mockErpService) CreateConnection(ctx context.Context, input importapp.ConnectionInput) (*integration.ErpConnection, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ErpConnection), args.Error(1)
}

func (m *mockErpService) UpdateConnection(ctx context.Context, id uuid.UUID, input importapp.ConnectionInput) (*integration.ErpConnection, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ErpConnection), args.Error(1)
}

func (m *mockErpService) DeleteConnection(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockErpService) TestConnection(ctx context.Context, adapterType string, config map[string]any) (*importapp.TestResult, error) {
	args := m.Called(ctx, adapterType, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importapp.TestResult), args.Error(1)
}

func (m *mockErpService) Sync(ctx context.Context, connectionID uuid.UUID, importedBy *uuid.UUID) (*importapp.SyncOutcome, error) {
	args := m.Called(ctx, connectionID, importedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importapp.SyncOutcome), args.Error(1)
}

type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) List(ctx context.Context, filter catalogapp.ProductListFilter) (shared.Paginated[catalogapp.ProductResponse], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[catalogapp.ProductResponse]), args.Error(1)
}

func (m *mockProductService) GetBySKU(ctx context.Context, sku string) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

type mockProbe struct {
	mock.Mock
}

func (m *mockProbe) Ping() error {
	return m.Called().Error(0)
}

func (m *mockProbe) Stats() (persistence.ConnectionStats, error) {
	args := m.Called()
	return args.Get(0).(persistence.ConnectionStats), args.Error(1)
}

// apiResponse mirrors dto.Response with a raw data payload
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	resp := decode(t, w)
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func serveJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			r = bytes.NewBufferString(s)
		} else {
			raw, _ := json.Marshal(body)
			r = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func multipartUpload(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
