package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"github.com/yashrajoria/storefront-backend/services/auth-service/services"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (*services.AuthResult, *apperrors.ServiceError)
	Login(ctx context.Context, email, password string) (*services.AuthResult, *apperrors.ServiceError)
	RefreshTokens(ctx context.Context, refreshToken string) (*services.AuthResult, *apperrors.ServiceError)
	Logout(ctx context.Context, refreshToken string) *apperrors.ServiceError
	VerifyEmail(ctx context.Context, email, code string) *apperrors.ServiceError
	Me(ctx context.Context, userID uuid.UUID) (*models.User, *apperrors.ServiceError)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in services.ProfileUpdate) (*models.User, *apperrors.ServiceError)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) *apperrors.ServiceError
}

// CookieConfig controls the auth cookies set alongside the JSON tokens.
type CookieConfig struct {
	Secure bool
	Domain string
}

type AuthController struct {
	authService AuthServiceInterface
	cookies     CookieConfig
}

func NewAuthController(authService AuthServiceInterface, cookies CookieConfig) *AuthController {
	return &AuthController{authService: authService, cookies: cookies}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type UpdateProfileRequest struct {
	Name   *string `json:"name" binding:"omitempty,max=120"`
	Mobile *string `json:"mobile" binding:"omitempty,max=20"`
	Avatar *string `json:"avatar" binding:"omitempty,url"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}

	result, svcErr := ac.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}

	ac.setAuthCookies(c, result.Tokens)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"user":    result.User,
		"tokens":  result.Tokens,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}

	result, svcErr := ac.authService.Login(c.Request.Context(), req.Email, req.Password)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}

	ac.setAuthCookies(c, result.Tokens)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in successfully",
		"user":    result.User,
		"tokens":  result.Tokens,
	})
}

// Refresh accepts the refresh token from the body or the refresh cookie.
func (ac *AuthController) Refresh(c *gin.Context) {
	var req RefreshRequest
	_ = c.ShouldBindJSON(&req)
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(middleware.RefreshTokenCookie)
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token required"})
		return
	}

	result, svcErr := ac.authService.RefreshTokens(c.Request.Context(), token)
	if svcErr != nil {
		ac.clearAuthCookies(c)
		apperrors.Respond(c, svcErr)
		return
	}

	ac.setAuthCookies(c, result.Tokens)
	c.JSON(http.StatusOK, gin.H{"tokens": result.Tokens})
}

func (ac *AuthController) Logout(c *gin.Context) {
	var req RefreshRequest
	_ = c.ShouldBindJSON(&req)
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(middleware.RefreshTokenCookie)
	}

	if svcErr := ac.authService.Logout(c.Request.Context(), token); svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	ac.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (ac *AuthController) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}
	if svcErr := ac.authService.VerifyEmail(c.Request.Context(), req.Email, req.Code); svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (ac *AuthController) Me(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	user, svcErr := ac.authService.Me(c.Request.Context(), userID)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (ac *AuthController) UpdateProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}

	user, svcErr := ac.authService.UpdateProfile(c.Request.Context(), userID, services.ProfileUpdate{
		Name: req.Name, Mobile: req.Mobile, Avatar: req.Avatar,
	})
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (ac *AuthController) ChangePassword(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}
	if svcErr := ac.authService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	ac.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Password updated, please sign in again"})
}

func (ac *AuthController) setAuthCookies(c *gin.Context, tokens *services.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokens.AccessToken, maxAge(tokens.AccessExpiresAt), "/", ac.cookies.Domain, ac.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, tokens.RefreshToken, maxAge(tokens.RefreshExpiresAt), "/api/auth", ac.cookies.Domain, ac.cookies.Secure, true)
}

func (ac *AuthController) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", ac.cookies.Domain, ac.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/api/auth", ac.cookies.Domain, ac.cookies.Secure, true)
}

func maxAge(expiresAt time.Time) int {
	secs := int(time.Until(expiresAt).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}
