package services

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"github.com/yashrajoria/storefront-backend/services/common/auth"
)

// TokenPair holds the generated access and refresh tokens.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	refreshTokenID   string
}

// TokenService is responsible for creating and validating JWTs.
type TokenService struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secretKey:  []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// GenerateTokenPair creates a new access and refresh token pair. The refresh
// token carries a jti that is persisted for rotation.
func (s *TokenService) GenerateTokenPair(user *models.User) (*TokenPair, error) {
	now := s.now()
	pair := &TokenPair{
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshExpiresAt: now.Add(s.refreshTTL),
		refreshTokenID:   uuid.NewString(),
	}

	var err error
	pair.AccessToken, err = s.generateToken(user, auth.TokenTypeAccess, now, pair.AccessExpiresAt, "")
	if err != nil {
		return nil, err
	}
	pair.RefreshToken, err = s.generateToken(user, auth.TokenTypeRefresh, now, pair.RefreshExpiresAt, pair.refreshTokenID)
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// ValidateToken parses and validates any given token string.
func (s *TokenService) ValidateToken(tokenStr, expectedType string) (*auth.Claims, error) {
	return auth.ParseAndValidateToken(tokenStr, s.secretKey, expectedType)
}

func (s *TokenService) generateToken(user *models.User, tokenType string, issuedAt, expiresAt time.Time, tokenID string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"typ":   tokenType,
		"exp":   expiresAt.Unix(),
		"iat":   issuedAt.Unix(),
	}
	if tokenID != "" {
		claims["jti"] = tokenID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
}
