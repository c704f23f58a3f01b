package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"product-catalog/internal/config"
	"product-catalog/internal/database"
	"product-catalog/internal/handler"
	"product-catalog/internal/model"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"
	"product-catalog/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wires the full stack over an in-memory SQLite database.
func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	db, err := database.NewSQLite(config.DatabaseConfig{
		SQLitePath:  fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		AutoMigrate: true,
	}, zerolog.Nop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return serveProducts(t, repository.NewGormProductRepository(db, zerolog.Nop()))
}

// serveProducts starts a test server over repo with a temporary uploads
// directory, returning the server and that directory.
func serveProducts(t *testing.T, repo repository.ProductRepository) (*httptest.Server, string) {
	t.Helper()

	logger := zerolog.Nop()
	uploadsDir := filepath.Join(t.TempDir(), "uploads")

	photos := storage.NewLocalPhotoStore(uploadsDir, logger)
	svc := service.NewProductService(repo, photos, logger)
	h := handler.NewProductHandler(svc, 1<<20, logger)

	server := httptest.NewServer(New(h, prometheus.NewRegistry(), logger))
	t.Cleanup(server.Close)

	return server, uploadsDir
}

func createPen(t *testing.T, server *httptest.Server) model.Product {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Pen"))
	require.NoError(t, mw.WriteField("price", "1.50"))
	require.NoError(t, mw.WriteField("quantity", "10"))
	part, err := mw.CreateFormFile("photo", "pen.png")
	require.NoError(t, err)
	_, err = io.WriteString(part, "png-bytes")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(server.URL+"/products", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var product model.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&product))
	return product
}

func getProduct(t *testing.T, server *httptest.Server, id int64) (*http.Response, model.Product) {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/products/%d", server.URL, id))
	require.NoError(t, err)
	defer resp.Body.Close()

	var product model.Product
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&product))
	}
	return resp, product
}

// getProductJSON fetches a product as raw JSON fields.
func getProductJSON(t *testing.T, server *httptest.Server, id int64) map[string]interface{} {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/products/%d", server.URL, id))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fields map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fields))
	return fields
}

func deleteQuantity(t *testing.T, server *httptest.Server, id int64, quantity int) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/products/%d?quantityToRemove=%d", server.URL, id, quantity), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestRouter_ProductLifecycle(t *testing.T) {
	server, uploadsDir := newTestServer(t)
	runProductLifecycle(t, server, uploadsDir)
}

// runProductLifecycle creates a pen with ten units, removes four, then the
// remaining six, and expects the product and its photo to be gone.
func runProductLifecycle(t *testing.T, server *httptest.Server, uploadsDir string) {
	created := createPen(t, server)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Pen", created.Name)
	assert.Equal(t, "1.5", created.Price.String())
	assert.Regexp(t, `^\d+-pen\.png$`, created.Photo)

	content, err := os.ReadFile(filepath.Join(uploadsDir, created.Photo))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))

	resp, product := getProduct(t, server, created.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, product.Quantity)

	raw := getProductJSON(t, server, created.ID)
	assert.Equal(t, "1.50", raw["price"])

	resp = deleteQuantity(t, server, created.ID, 4)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, product = getProduct(t, server, created.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 6, product.Quantity)

	resp = deleteQuantity(t, server, created.ID, 6)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = getProduct(t, server, created.ID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, err = os.Stat(filepath.Join(uploadsDir, created.Photo))
	assert.True(t, os.IsNotExist(err))

	resp = deleteQuantity(t, server, created.ID, 1)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_RemoveRejectsOutOfRangeQuantity(t *testing.T) {
	server, _ := newTestServer(t)
	created := createPen(t, server)

	tests := []struct {
		name     string
		quantity string
	}{
		{name: "Not an INTEGER", quantity: "-9223372036854775800"},
		{name: "Resulting stock overflows", quantity: "-2147483647"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/products/%d?quantityToRemove=%s", server.URL, created.ID, tt.quantity), nil)
			require.NoError(t, err)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var errResp model.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			assert.Equal(t, model.ErrCodeInvalidQuantity, errResp.Error)

			_, product := getProduct(t, server, created.ID)
			assert.Equal(t, 10, product.Quantity)
		})
	}
}

func TestRouter_UpdateReturnsSnapshot(t *testing.T) {
	server, _ := newTestServer(t)
	created := createPen(t, server)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Marker"))
	require.NoError(t, mw.WriteField("price", "0"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/products/%d", server.URL, created.ID), &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snapshot model.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.Equal(t, "Pen", snapshot.Name)

	_, stored := getProduct(t, server, created.ID)
	assert.Equal(t, "Marker", stored.Name)
	assert.Equal(t, "1.5", stored.Price.String())
}

func TestRouter_ListAndErrors(t *testing.T) {
	server, _ := newTestServer(t)
	createPen(t, server)
	createPen(t, server)

	resp, err := http.Get(server.URL + "/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []model.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Len(t, products, 2)

	resp, _ = getProduct(t, server, 99)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(server.URL + "/products/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		bodyContains   string
	}{
		{
			name:           "Health check",
			method:         http.MethodGet,
			path:           "/health",
			expectedStatus: http.StatusOK,
			bodyContains:   "healthy",
		},
		{
			name:           "Metrics",
			method:         http.MethodGet,
			path:           "/metrics",
			expectedStatus: http.StatusOK,
			bodyContains:   "promhttp_metric_handler_errors_total",
		},
		{
			name:           "CORS preflight",
			method:         http.MethodOptions,
			path:           "/products",
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "Unknown route",
			method:         http.MethodGet,
			path:           "/orders",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Method not allowed",
			method:         http.MethodPut,
			path:           "/products/1",
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, nil)
			require.NoError(t, err)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.bodyContains != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), tt.bodyContains)
			}
		})
	}
}
