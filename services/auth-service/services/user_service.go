package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"github.com/yashrajoria/storefront-backend/services/auth-service/repository"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"gorm.io/gorm"
)

// UserService holds the admin operations on accounts.
type UserService struct {
	userRepo repository.IUserRepository
}

func NewUserService(ur repository.IUserRepository) *UserService {
	return &UserService{userRepo: ur}
}

func (s *UserService) List(ctx context.Context, filter repository.UserFilter, page, limit int) ([]models.User, int64, *apperrors.ServiceError) {
	users, total, err := s.userRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to list users", err)
	}
	return users, total, nil
}

// UpdateRole changes a user's role. Admins cannot demote themselves.
func (s *UserService) UpdateRole(ctx context.Context, actorID, userID uuid.UUID, role string) *apperrors.ServiceError {
	if role != models.RoleUser && role != models.RoleAdmin {
		return apperrors.BadRequest("role must be user or admin")
	}
	if actorID == userID && role != models.RoleAdmin {
		return apperrors.BadRequest("cannot remove your own admin role")
	}
	return s.update(ctx, userID, map[string]interface{}{"role": role})
}

// UpdateStatus suspends or reactivates a user. Suspension revokes every refresh token.
func (s *UserService) UpdateStatus(ctx context.Context, actorID, userID uuid.UUID, status string) *apperrors.ServiceError {
	if status != models.StatusActive && status != models.StatusSuspended {
		return apperrors.BadRequest("status must be active or suspended")
	}
	if actorID == userID && status == models.StatusSuspended {
		return apperrors.BadRequest("cannot suspend yourself")
	}
	if svcErr := s.update(ctx, userID, map[string]interface{}{"status": status}); svcErr != nil {
		return svcErr
	}
	if status == models.StatusSuspended {
		if err := s.userRepo.RevokeAllUserRefreshTokens(ctx, userID); err != nil {
			return apperrors.Internal("failed to revoke sessions", err)
		}
	}
	return nil
}

func (s *UserService) update(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) *apperrors.ServiceError {
	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("user not found")
		}
		return apperrors.Internal("failed to update user", err)
	}
	return nil
}
