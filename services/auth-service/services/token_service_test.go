package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"github.com/yashrajoria/storefront-backend/services/common/auth"
)

func TestTokenService_GenerateAndValidate(t *testing.T) {
	ts := NewTokenService(testSecret, 15*time.Minute, 7*24*time.Hour)
	user := &models.User{ID: uuid.New(), Email: "a@b.com", Role: models.RoleAdmin}

	pair, err := ts.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.refreshTokenID)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := ts.ValidateToken(pair.AccessToken, auth.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	refresh, err := ts.ValidateToken(pair.RefreshToken, auth.TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, pair.refreshTokenID, refresh.ID)

	_, err = ts.ValidateToken(pair.AccessToken, auth.TokenTypeRefresh)
	assert.Error(t, err)
}

func TestTokenService_Expired(t *testing.T) {
	ts := NewTokenService(testSecret, time.Minute, time.Hour)
	ts.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	pair, err := ts.GenerateTokenPair(&models.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = ts.ValidateToken(pair.AccessToken, auth.TokenTypeAccess)
	assert.Error(t, err)
}
