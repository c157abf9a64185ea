package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"checkout-service/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": c.GetString(middleware.RequestIDKey)})
	})
	r.POST("/api/fail", func(c *gin.Context) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "down"})
	})
	return r
}

func serve(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_PropagatesOrGenerates(t *testing.T) {
	r := newEngine(middleware.RequestID())

	w := serve(r, http.MethodGet, "/api/ping", map[string]string{"X-Request-ID": "abc"})
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"request_id":"abc"}`, w.Body.String())

	w = serve(r, http.MethodGet, "/api/ping", nil)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := newEngine(middleware.RequestID(), middleware.RequestLogger(zap.New(core)))

	serve(r, http.MethodGet, "/api/ping", map[string]string{"X-Request-ID": "rid-1"})
	serve(r, http.MethodPost, "/api/fail", nil)

	entries := logs.FilterMessage("http_request").All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zap.InfoLevel, entries[0].Level)
		assert.Equal(t, "rid-1", entries[0].ContextMap()["request_id"])
		assert.Equal(t, zap.ErrorLevel, entries[1].Level)
		assert.EqualValues(t, http.StatusBadGateway, entries[1].ContextMap()["status"])
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := newEngine(middleware.SecurityHeaders())

	w := serve(r, http.MethodGet, "/api/ping", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "https://*.paypal.com")
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := middleware.NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	r := newEngine(middleware.RateLimitMiddleware(rl))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/ping", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/ping", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/api/ping", nil).Code)
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := middleware.NewRateLimiter(rate.Every(time.Hour), 1, time.Minute)
	first := rl.GetLimiter("10.0.0.1")
	assert.Same(t, first, rl.GetLimiter("10.0.0.1"))

	rl.Sweep(time.Now().Add(2 * time.Minute))
	assert.NotSame(t, first, rl.GetLimiter("10.0.0.1"))
}

func TestCORSMiddleware(t *testing.T) {
	r := newEngine(middleware.CORSMiddleware([]string{"https://shop.example/"}))

	w := serve(r, http.MethodGet, "/api/ping", map[string]string{"Origin": "https://shop.example"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")

	w = serve(r, http.MethodGet, "/api/ping", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodOptions, "/api/ping", map[string]string{"Origin": "https://shop.example"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(r, http.MethodGet, "/api/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_SameOriginAlwaysPasses(t *testing.T) {
	r := newEngine(middleware.CORSMiddleware([]string{"https://shop.example"}))

	// httptest requests are served as Host example.com.
	w := serve(r, http.MethodPost, "/api/fail", map[string]string{"Origin": "https://example.com"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodPost, "/api/fail", map[string]string{"Origin": "https://example.com.evil.example"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodPost, "/api/fail", map[string]string{"Origin": "null"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSMiddleware_Disabled(t *testing.T) {
	r := newEngine(middleware.CORSMiddleware(nil))

	w := serve(r, http.MethodGet, "/api/ping", map[string]string{"Origin": "https://anywhere.example"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsMiddleware_DisabledPassesThrough(t *testing.T) {
	r := newEngine(middleware.MetricsMiddleware(nil, "checkout-service"))
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/ping", nil).Code)
}
