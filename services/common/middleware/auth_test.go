package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-secret"

func token(t *testing.T, userID uuid.UUID, role, typ string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": "shopper@example.com",
		"role":  role,
		"typ":   typ,
		"exp":   time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		id, err := GetUserID(c)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"user": "guest"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": id.String()})
	})
	r.GET("/", handlers...)
	return r
}

func TestOptionalAuth(t *testing.T) {
	a := NewAuthenticator(secret)
	r := newRouter(a.OptionalAuth())
	userID := uuid.New()

	cases := []struct {
		name   string
		setup  func(*http.Request)
		expect string
	}{
		{"no token", func(*http.Request) {}, "guest"},
		{"bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token(t, userID, RoleUser, "access"))
		}, userID.String()},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token(t, userID, RoleUser, "access")})
		}, userID.String()},
		{"invalid token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer nope")
		}, "guest"},
		{"refresh token is not accepted", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token(t, userID, RoleUser, "refresh"))
		}, "guest"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"user":"`+tc.expect+`"}`, w.Body.String())
		})
	}
}

func TestAuthRequired(t *testing.T) {
	a := NewAuthenticator(secret)
	r := newRouter(a.AuthRequired())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, uuid.New(), RoleUser, "access"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOnly(t *testing.T) {
	a := NewAuthenticator(secret)
	r := newRouter(a.AuthRequired(), AdminOnly())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, uuid.New(), RoleUser, "access"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, uuid.New(), RoleAdmin, "access"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
