package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"gorm.io/gorm"
)

type IAddressRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Create(ctx context.Context, address *models.Address) error
	Update(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
}

// AddressInput is the writable part of an address.
type AddressInput struct {
	FullName   string `json:"full_name" binding:"required,max=120"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"required,max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,max=100"`
	Mobile     string `json:"mobile" binding:"required,max=20"`
	Type       string `json:"type" binding:"omitempty,oneof=shipping billing"`
	IsDefault  bool   `json:"is_default"`
}

type AddressService struct {
	repo IAddressRepository
}

func NewAddressService(repo IAddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

func (s *AddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, *apperrors.ServiceError) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list addresses", err)
	}
	return addresses, nil
}

// Get returns an address owned by userID; other users' addresses are reported as not found.
func (s *AddressService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, *apperrors.ServiceError) {
	address, err := s.repo.FindForUser(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("address not found")
		}
		return nil, apperrors.Internal("failed to load address", err)
	}
	return address, nil
}

// Create stores a new address. The user's first address always becomes the default.
func (s *AddressService) Create(ctx context.Context, userID uuid.UUID, in AddressInput) (*models.Address, *apperrors.ServiceError) {
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to create address", err)
	}

	address := &models.Address{UserID: userID}
	apply(address, in)
	if count == 0 {
		address.IsDefault = true
	}

	if err := s.repo.Create(ctx, address); err != nil {
		return nil, apperrors.Internal("failed to create address", err)
	}
	return address, nil
}

func (s *AddressService) Update(ctx context.Context, userID, id uuid.UUID, in AddressInput) (*models.Address, *apperrors.ServiceError) {
	address, svcErr := s.Get(ctx, userID, id)
	if svcErr != nil {
		return nil, svcErr
	}
	wasDefault := address.IsDefault
	apply(address, in)
	// the default can only be moved, not cleared, through an update
	if wasDefault {
		address.IsDefault = true
	}

	if err := s.repo.Update(ctx, address); err != nil {
		return nil, apperrors.Internal("failed to update address", err)
	}
	return address, nil
}

// Delete removes the address; if it was the default, the newest remaining address takes over.
func (s *AddressService) Delete(ctx context.Context, userID, id uuid.UUID) *apperrors.ServiceError {
	address, svcErr := s.Get(ctx, userID, id)
	if svcErr != nil {
		return svcErr
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("address not found")
		}
		return apperrors.Internal("failed to delete address", err)
	}

	if address.IsDefault {
		remaining, err := s.repo.ListByUser(ctx, userID)
		if err == nil && len(remaining) > 0 {
			_ = s.repo.SetDefault(ctx, userID, remaining[0].ID)
		}
	}
	return nil
}

func (s *AddressService) SetDefault(ctx context.Context, userID, id uuid.UUID) *apperrors.ServiceError {
	if err := s.repo.SetDefault(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("address not found")
		}
		return apperrors.Internal("failed to set default address", err)
	}
	return nil
}

func apply(a *models.Address, in AddressInput) {
	a.FullName = strings.TrimSpace(in.FullName)
	a.Line1 = strings.TrimSpace(in.Line1)
	a.Line2 = strings.TrimSpace(in.Line2)
	a.City = strings.TrimSpace(in.City)
	a.State = strings.TrimSpace(in.State)
	a.PostalCode = strings.TrimSpace(in.PostalCode)
	a.Country = strings.TrimSpace(in.Country)
	a.Mobile = strings.TrimSpace(in.Mobile)
	a.Type = in.Type
	if a.Type == "" {
		a.Type = models.AddressTypeShipping
	}
	a.IsDefault = in.IsDefault
}
