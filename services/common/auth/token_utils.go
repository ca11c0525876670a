package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the identity carried by a verified token.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Role   string
	Type   string
	ID     string
}

// ParseAndValidateToken parses a JWT token string and returns its claims.
// If expectedType is non-empty, the claim "typ" must match it.
func ParseAndValidateToken(tokenStr string, secret []byte, expectedType string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, fmt.Errorf("empty token")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	claims := &Claims{}
	claims.Type, _ = mc["typ"].(string)
	if expectedType != "" && claims.Type != expectedType {
		return nil, fmt.Errorf("invalid token type")
	}

	sub, _ := mc["sub"].(string)
	claims.UserID, err = uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject")
	}
	claims.Email, _ = mc["email"].(string)
	claims.Role, _ = mc["role"].(string)
	claims.ID, _ = mc["jti"].(string)
	return claims, nil
}
