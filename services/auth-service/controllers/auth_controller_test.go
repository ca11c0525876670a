package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"github.com/yashrajoria/storefront-backend/services/auth-service/services"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) result(args mock.Arguments) (*services.AuthResult, *apperrors.ServiceError) {
	var res *services.AuthResult
	if v := args.Get(0); v != nil {
		res = v.(*services.AuthResult)
	}
	var svcErr *apperrors.ServiceError
	if v := args.Get(1); v != nil {
		svcErr = v.(*apperrors.ServiceError)
	}
	return res, svcErr
}

func svcErrAt(args mock.Arguments, i int) *apperrors.ServiceError {
	if v := args.Get(i); v != nil {
		return v.(*apperrors.ServiceError)
	}
	return nil
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password string) (*services.AuthResult, *apperrors.ServiceError) {
	return m.result(m.Called(ctx, name, email, password))
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, *apperrors.ServiceError) {
	return m.result(m.Called(ctx, email, password))
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*services.AuthResult, *apperrors.ServiceError) {
	return m.result(m.Called(ctx, refreshToken))
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) *apperrors.ServiceError {
	return svcErrAt(m.Called(ctx, refreshToken), 0)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, email, code string) *apperrors.ServiceError {
	return svcErrAt(m.Called(ctx, email, code), 0)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, *apperrors.ServiceError) {
	args := m.Called(ctx, userID)
	var user *models.User
	if v := args.Get(0); v != nil {
		user = v.(*models.User)
	}
	return user, svcErrAt(args, 1)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in services.ProfileUpdate) (*models.User, *apperrors.ServiceError) {
	args := m.Called(ctx, userID, in)
	var user *models.User
	if v := args.Get(0); v != nil {
		user = v.(*models.User)
	}
	return user, svcErrAt(args, 1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) *apperrors.ServiceError {
	return svcErrAt(m.Called(ctx, userID, current, next), 0)
}

func setupRouter(svc AuthServiceInterface, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	ac := NewAuthController(svc, CookieConfig{})

	router.POST("/auth/register", ac.Register)
	router.POST("/auth/login", ac.Login)
	router.POST("/auth/refresh", ac.Refresh)
	router.POST("/auth/logout", ac.Logout)

	authed := router.Group("", func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.ContextUserID, userID)
		}
		c.Next()
	})
	authed.GET("/auth/me", ac.Me)
	return router
}

func testTokens() *services.TokenPair {
	return &services.TokenPair{
		AccessToken:      "access",
		RefreshToken:     "refresh",
		AccessExpiresAt:  time.Now().Add(15 * time.Minute),
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

func postJSON(router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginHandler_Success(t *testing.T) {
	mockService := new(MockAuthService)
	router := setupRouter(mockService, uuid.Nil)

	user := &models.User{ID: uuid.New(), Email: "test@example.com"}
	mockService.On("Login", mock.Anything, "test@example.com", "password").
		Return(&services.AuthResult{User: user, Tokens: testTokens()}, nil)

	w := postJSON(router, "/auth/login", LoginRequest{Email: "test@example.com", Password: "password"})

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Logged in successfully", response["message"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, middleware.AccessTokenCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, "/api/auth", cookies[1].Path)
	mockService.AssertExpectations(t)
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	mockService := new(MockAuthService)
	router := setupRouter(mockService, uuid.Nil)

	mockService.On("Login", mock.Anything, "test@example.com", "wrong").
		Return(nil, apperrors.Unauthorized("invalid email or password"))

	w := postJSON(router, "/auth/login", LoginRequest{Email: "test@example.com", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid email or password")
}

func TestLoginHandler_BadRequest(t *testing.T) {
	mockService := new(MockAuthService)
	router := setupRouter(mockService, uuid.Nil)

	w := postJSON(router, "/auth/login", map[string]string{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterHandler_Created(t *testing.T) {
	mockService := new(MockAuthService)
	router := setupRouter(mockService, uuid.Nil)

	mockService.On("Register", mock.Anything, "New", "new@example.com", "Str0ngPass").
		Return(&services.AuthResult{User: &models.User{ID: uuid.New()}, Tokens: testTokens()}, nil)

	w := postJSON(router, "/auth/register", RegisterRequest{Name: "New", Email: "new@example.com", Password: "Str0ngPass"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRefreshHandler_UsesCookie(t *testing.T) {
	mockService := new(MockAuthService)
	router := setupRouter(mockService, uuid.Nil)

	mockService.On("RefreshTokens", mock.Anything, "cookie-token").
		Return(&services.AuthResult{User: &models.User{}, Tokens: testTokens()}, nil)

	req, _ := http.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: "cookie-token"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestRefreshHandler_MissingToken(t *testing.T) {
	router := setupRouter(new(MockAuthService), uuid.Nil)

	w := postJSON(router, "/auth/refresh", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutHandler_ClearsCookies(t *testing.T) {
	mockService := new(MockAuthService)
	router := setupRouter(mockService, uuid.Nil)
	mockService.On("Logout", mock.Anything, "refresh").Return(nil)

	w := postJSON(router, "/auth/logout", RefreshRequest{RefreshToken: "refresh"})

	assert.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		assert.Empty(t, c.Value)
	}
}

func TestMeHandler(t *testing.T) {
	userID := uuid.New()
	mockService := new(MockAuthService)
	mockService.On("Me", mock.Anything, userID).Return(&models.User{ID: userID, Name: "Me"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	setupRouter(mockService, userID).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Me"`)

	w = httptest.NewRecorder()
	setupRouter(mockService, uuid.Nil).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
