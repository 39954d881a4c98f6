package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	TypeRest        = "rest"
	RestAdapterName = "Generic REST ERP"

	// maxResponseSize is the maximum allowed response size from the ERP API (10MB)
	maxResponseSize = 10 * 1024 * 1024

	defaultRestTimeoutSeconds = 30
	defaultRestPageSize       = 100
	maxRestPages              = 10000
)

// RestConfig holds the settings of an ERP exposing a JSON product API
type RestConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
	PageSize       int
}

// Validate validates the configuration and fills defaults
func (c *RestConfig) Validate() error {
	if c.BaseURL == "" {
		return invalidConfig("base_url", "is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalidConfig("base_url", "must be an absolute http or https URL")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultRestTimeoutSeconds
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultRestPageSize
	}
	return nil
}

// RestOption configures a RestAdapter
type RestOption func(*RestAdapter)

// WithHTTPClient replaces the HTTP client. The client timeout still follows the connection config.
func WithHTTPClient(client *http.Client) RestOption {
	return func(a *RestAdapter) {
		a.httpClient = client
	}
}

// RestAdapter reads products from an ERP over HTTP.
//
//	GET {base}/health                          connectivity probe
//	GET {base}/products?page=N&page_size=M     paged until an empty page
//	GET {base}/products?updated_since=RFC3339  incremental fetch, also paged
//	GET {base}/stock/{sku}                     {"sku": "...", "stock": N}
type RestAdapter struct {
	config     *RestConfig
	httpClient *http.Client
}

var _ integration.ErpAdapter = (*RestAdapter)(nil)

// NewRestAdapter creates an unconfigured REST adapter
func NewRestAdapter(opts ...RestOption) *RestAdapter {
	a := &RestAdapter{}
	for _, opt := range opts {
		opt(a)
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return a
}

// Type returns the registry key
func (a *RestAdapter) Type() string { return TypeRest }

// Name returns the display name
func (a *RestAdapter) Name() string { return RestAdapterName }

// Configure reads base_url, api_key, timeout_seconds and page_size
func (a *RestAdapter) Configure(config map[string]any) error {
	timeout, err := configInt(config, "timeout_seconds", 0)
	if err != nil {
		return err
	}
	pageSize, err := configInt(config, "page_size", 0)
	if err != nil {
		return err
	}
	cfg := &RestConfig{
		BaseURL:        configString(config, "base_url"),
		APIKey:         configString(config, "api_key"),
		TimeoutSeconds: timeout,
		PageSize:       pageSize,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.config = cfg

	client := *a.httpClient
	client.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	a.httpClient = &client
	return nil
}

// TestConnection probes the health endpoint
func (a *RestAdapter) TestConnection(ctx context.Context) (bool, error) {
	if a.config == nil {
		return false, integration.ErrNotConfigured
	}
	if _, err := a.get(ctx, "/health", nil); err != nil {
		return false, err
	}
	return true, nil
}

// GetProducts fetches every page of the product list
func (a *RestAdapter) GetProducts(ctx context.Context) ([]integration.ProductRecord, error) {
	return a.fetchProducts(ctx, url.Values{})
}

// GetUpdatedProducts fetches products changed since the given time
func (a *RestAdapter) GetUpdatedProducts(ctx context.Context, since time.Time) ([]integration.ProductRecord, error) {
	return a.fetchProducts(ctx, url.Values{"updated_since": {since.UTC().Format(time.RFC3339)}})
}

// GetStock returns the stock level of one SKU
func (a *RestAdapter) GetStock(ctx context.Context, sku string) (int, error) {
	if a.config == nil {
		return 0, integration.ErrNotConfigured
	}
	body, err := a.get(ctx, "/stock/"+url.PathEscape(sku), nil)
	if err != nil {
		return 0, err
	}
	var stock restStock
	if err := json.Unmarshal(body, &stock); err != nil {
		return 0, fmt.Errorf("%w: invalid stock response: %v", integration.ErrConnectivity, err)
	}
	return stock.Stock, nil
}

// SyncAll fetches the full product list and reconciles it
func (a *RestAdapter) SyncAll(ctx context.Context, reconciler integration.Reconciler) (integration.SyncResult, error) {
	products, err := a.GetProducts(ctx)
	if err != nil {
		return integration.SyncResult{}, err
	}
	return reconciler.Reconcile(ctx, products)
}

func (a *RestAdapter) fetchProducts(ctx context.Context, query url.Values) ([]integration.ProductRecord, error) {
	if a.config == nil {
		return nil, integration.ErrNotConfigured
	}

	var records []integration.ProductRecord
	for page := 1; page <= maxRestPages; page++ {
		query.Set("page", strconv.Itoa(page))
		query.Set("page_size", strconv.Itoa(a.config.PageSize))

		body, err := a.get(ctx, "/products", query)
		if err != nil {
			return nil, err
		}
		var resp restProductPage
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: invalid products response on page %d: %v", integration.ErrConnectivity, page, err)
		}
		if len(resp.Data) == 0 {
			return records, nil
		}
		for _, p := range resp.Data {
			records = append(records, p.toRecord())
		}
	}
	return nil, fmt.Errorf("%w: product listing exceeded %d pages", integration.ErrConnectivity, maxRestPages)
}

// get issues a GET against the configured base URL. Transport failures and
// non-2xx statuses are reported as ErrConnectivity.
func (a *RestAdapter) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := a.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("rest erp: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", integration.ErrConnectivity, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", integration.ErrConnectivity, resp.StatusCode, path)
	}
	return body, nil
}
