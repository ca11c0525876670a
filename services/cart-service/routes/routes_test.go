package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yashrajoria/storefront-backend/services/cart-service/controllers"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
)

func TestCartRoutesRefuseAnonymousCallers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), middleware.NewAuthenticator("test-secret"), controllers.NewCartController(nil))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/cart"},
		{http.MethodGet, "/api/cart/count"},
		{http.MethodPost, "/api/cart/items"},
		{http.MethodPost, "/api/cart/items/batch"},
		{http.MethodDelete, "/api/cart"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}
