package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/common/auth"
)

const (
	ContextUserID = "userID"
	ContextRole   = "role"
	ContextEmail  = "email"

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Authenticator verifies access tokens issued by the auth service.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// ExtractToken prefers the Authorization bearer header and falls back to the access cookie.
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if v, err := c.Cookie(AccessTokenCookie); err == nil {
		return v
	}
	return ""
}

func (a *Authenticator) identify(c *gin.Context) bool {
	token := ExtractToken(c)
	if token == "" {
		return false
	}
	claims, err := auth.ParseAndValidateToken(token, a.secret, auth.TokenTypeAccess)
	if err != nil {
		return false
	}
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextRole, claims.Role)
	c.Set(ContextEmail, claims.Email)
	return true
}

// AuthRequired rejects requests without a valid access token.
func (a *Authenticator) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.identify(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present and
// otherwise lets the request through as a guest.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.identify(c)
		c.Next()
	}
}

// AdminOnly restricts access to admin role. Must run after AuthRequired.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}
		c.Next()
	}
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	if val, ok := c.Get(ContextUserID); ok {
		if id, ok := val.(uuid.UUID); ok && id != uuid.Nil {
			return id, nil
		}
	}
	return uuid.Nil, errors.New("user ID not found in context")
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(ContextRole) == RoleAdmin
}
