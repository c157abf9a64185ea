package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"checkout-service/controllers"
	"checkout-service/models"
	"checkout-service/routes"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopSvc struct{}

func (noopSvc) CreateOrder(context.Context, *models.CreateOrderRequest, string) (*services.ProcessorResult, *services.ServiceError) {
	return &services.ProcessorResult{StatusCode: http.StatusCreated}, nil
}
func (noopSvc) CaptureOrder(context.Context, string, string) (*services.ProcessorResult, *services.ServiceError) {
	return &services.ProcessorResult{StatusCode: http.StatusCreated}, nil
}
func (noopSvc) ListTransactions(context.Context, string) ([]models.TransactionRecord, *services.ServiceError) {
	return []models.TransactionRecord{}, nil
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>shop</h1>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('hi')"), 0o600))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	routes.RegisterHealthRoute(r, "checkout-service")
	routes.RegisterOrderRoutes(r, controllers.NewOrderController(noopSvc{}, nil))
	routes.RegisterStaticFiles(r, dir)
	return r
}

func get(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRoutes(t *testing.T) {
	r := setupRouter(t)

	assert.Equal(t, http.StatusCreated, get(r, http.MethodPost, "/api/orders/O-1/capture").Code)
	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "/api/orders/O-1/transactions").Code)

	w := get(r, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"checkout-service"}`, w.Body.String())
}

func TestStaticFiles(t *testing.T) {
	r := setupRouter(t)

	w := get(r, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>shop</h1>")

	w = get(r, http.MethodGet, "/app.js")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, get(r, http.MethodGet, "/missing.css").Code)
}

func TestUnknownAPIPathIsJSON404(t *testing.T) {
	r := setupRouter(t)

	w := get(r, http.MethodGet, "/api/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found."}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(r, http.MethodPost, "/index.html").Code)
}
