package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/storefront-backend/pkg/events"
	"github.com/yashrajoria/storefront-backend/services/common/config"
	"go.uber.org/zap"
)

func testApp(t *testing.T) *app {
	cfg := config.FromEnv()
	cfg.JWTSecret = "test-secret"
	cfg.EventBus = "none"
	cfg.S3Bucket = ""
	cfg.SMTPHost = ""
	cfg.StripeSecretKey = ""
	return &app{
		cfg:       cfg,
		logger:    zap.NewNop(),
		db:        migratedDB(t),
		publisher: events.NoopPublisher{},
	}
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := testApp(t)
	c, err := buildContainer(a, nil)
	require.NoError(t, err)
	router := newRouter(a, c)

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/products", http.StatusOK},
		{http.MethodGet, "/api/categories", http.StatusOK},
		{http.MethodGet, "/api/vouchers", http.StatusOK},
		{http.MethodGet, "/api/cart", http.StatusUnauthorized},
		{http.MethodGet, "/api/orders", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/dashboard", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/notifications", http.StatusUnauthorized},
		{http.MethodPost, "/api/payments/webhook", http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := testApp(t)
	c, err := buildContainer(a, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	newRouter(a, c).ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}
