package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/pkg/events"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"github.com/yashrajoria/storefront-backend/services/auth-service/repository"
	"github.com/yashrajoria/storefront-backend/services/common/auth"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const verificationCodeTTL = 24 * time.Hour

type ITokenService interface {
	GenerateTokenPair(user *models.User) (*TokenPair, error)
	ValidateToken(tokenStr, expectedType string) (*auth.Claims, error)
}

// AuthResult is returned by register, login and refresh.
type AuthResult struct {
	User   *models.User
	Tokens *TokenPair
}

type AuthService struct {
	userRepo     repository.IUserRepository
	tokenService ITokenService
	passwords    *PasswordValidator
	publisher    events.Publisher
	now          func() time.Time
}

func NewAuthService(ur repository.IUserRepository, ts ITokenService, publisher events.Publisher) *AuthService {
	return &AuthService{
		userRepo:     ur,
		tokenService: ts,
		passwords:    NewPasswordValidator(),
		publisher:    publisher,
		now:          time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, *apperrors.ServiceError) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.BadRequest("name is required")
	}
	if err := s.passwords.ValidatePassword(password); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	code, err := GenerateRandomCode(6)
	if err != nil {
		return nil, apperrors.Internal("failed to generate verification code", err)
	}
	expires := s.now().Add(verificationCodeTTL)

	var result *AuthResult
	err = s.userRepo.Transaction(ctx, func(txRepo repository.IUserRepository) error {
		_, err := txRepo.FindByEmail(ctx, email)
		if err == nil {
			return apperrors.Conflict("email already exists")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		newUser := &models.User{
			Email:                 email,
			Name:                  name,
			Password:              string(hashedPassword),
			Role:                  models.RoleUser,
			Status:                models.StatusActive,
			VerificationCode:      code,
			VerificationExpiresAt: &expires,
		}
		if err := txRepo.Create(ctx, newUser); err != nil {
			return err
		}

		tokens, err := s.issueTokens(ctx, txRepo, newUser)
		if err != nil {
			return err
		}
		result = &AuthResult{User: newUser, Tokens: tokens}
		return nil
	})
	if err != nil {
		return nil, apperrors.As(err)
	}

	events.PublishAsync(s.publisher, events.TypeUserRegistered, events.UserRegistered{
		UserID:           result.User.ID,
		Email:            result.User.Email,
		Name:             result.User.Name,
		VerificationCode: code,
	})
	zap.L().Info("user registered", zap.String("user_id", result.User.ID.String()))
	return result, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, *apperrors.ServiceError) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, apperrors.Internal("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if user.Status == models.StatusSuspended {
		return nil, apperrors.Forbidden("account suspended")
	}

	now := s.now()
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		zap.L().Warn("failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	user.LastLoginAt = &now

	tokens, err := s.issueTokens(ctx, s.userRepo, user)
	if err != nil {
		return nil, apperrors.Internal("failed to issue tokens", err)
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// RefreshTokens rotates a refresh token. A revoked or unknown token is refused,
// and presenting an already-rotated token revokes every session of the user.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthResult, *apperrors.ServiceError) {
	claims, err := s.tokenService.ValidateToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil || claims.ID == "" {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	stored, err := s.userRepo.GetRefreshTokenByTokenID(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}
	if stored.Revoked {
		if err := s.userRepo.RevokeAllUserRefreshTokens(ctx, stored.UserID); err != nil {
			zap.L().Error("failed to revoke sessions after refresh token reuse", zap.Error(err))
		}
		zap.L().Warn("refresh token reuse detected", zap.String("user_id", stored.UserID.String()))
		return nil, apperrors.Unauthorized("refresh token revoked")
	}
	if s.now().After(stored.ExpiresAt) {
		return nil, apperrors.Unauthorized("refresh token expired")
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("user not found")
	}
	if user.Status == models.StatusSuspended {
		return nil, apperrors.Forbidden("account suspended")
	}

	revoked, err := s.userRepo.RevokeRefreshTokenByTokenID(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to rotate refresh token", err)
	}
	if !revoked {
		return nil, apperrors.Unauthorized("refresh token revoked")
	}

	tokens, err := s.issueTokens(ctx, s.userRepo, user)
	if err != nil {
		return nil, apperrors.Internal("failed to issue tokens", err)
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Logout revokes the presented refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) *apperrors.ServiceError {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokenService.ValidateToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil || claims.ID == "" {
		return nil
	}
	if _, err := s.userRepo.RevokeRefreshTokenByTokenID(ctx, claims.ID); err != nil {
		return apperrors.Internal("failed to revoke refresh token", err)
	}
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) *apperrors.ServiceError {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// unknown emails get the wrong-code answer
		return apperrors.BadRequest("invalid verification code")
	}
	if err != nil {
		return apperrors.Internal("failed to load user", err)
	}
	if user.EmailVerified {
		return nil
	}

	if user.VerificationCode == "" || user.VerificationCode != strings.TrimSpace(code) {
		return apperrors.BadRequest("invalid verification code")
	}
	if user.VerificationExpiresAt != nil && s.now().After(*user.VerificationExpiresAt) {
		return apperrors.BadRequest("verification code expired")
	}

	user.EmailVerified = true
	user.VerificationCode = ""
	user.VerificationExpiresAt = nil

	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperrors.Internal("failed to update user", err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, *apperrors.ServiceError) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("failed to load user", err)
	}
	return user, nil
}

// ProfileUpdate holds optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name   *string
	Mobile *string
	Avatar *string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*models.User, *apperrors.ServiceError) {
	user, svcErr := s.Me(ctx, userID)
	if svcErr != nil {
		return nil, svcErr
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.BadRequest("name cannot be empty")
		}
		user.Name = name
	}
	if in.Mobile != nil {
		user.Mobile = strings.TrimSpace(*in.Mobile)
	}
	if in.Avatar != nil {
		user.Avatar = strings.TrimSpace(*in.Avatar)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperrors.Internal("failed to update profile", err)
	}
	return user, nil
}

// ChangePassword verifies the current password and signs out every other session.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) *apperrors.ServiceError {
	user, svcErr := s.Me(ctx, userID)
	if svcErr != nil {
		return svcErr
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return apperrors.BadRequest("current password is incorrect")
	}
	if err := s.passwords.ValidatePassword(next); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}

	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"password": string(hashed)}); err != nil {
		return apperrors.Internal("failed to update password", err)
	}
	if err := s.userRepo.RevokeAllUserRefreshTokens(ctx, user.ID); err != nil {
		return apperrors.Internal("failed to revoke sessions", err)
	}

	events.PublishAsync(s.publisher, events.TypePasswordChanged, events.PasswordChanged{
		UserID: user.ID, Email: user.Email, Name: user.Name,
	})
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, repo repository.IUserRepository, user *models.User) (*TokenPair, error) {
	tokens, err := s.tokenService.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}
	if err := repo.CreateRefreshToken(ctx, &models.RefreshToken{
		TokenID:   tokens.refreshTokenID,
		UserID:    user.ID,
		ExpiresAt: tokens.RefreshExpiresAt,
	}); err != nil {
		return nil, err
	}
	return tokens, nil
}

// GenerateRandomCode returns n decimal digits from crypto/rand.
func GenerateRandomCode(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
