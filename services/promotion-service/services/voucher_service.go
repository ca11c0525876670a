package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/pkg/events"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/metrics"
	"github.com/yashrajoria/storefront-backend/services/promotion-service/models"
	"github.com/yashrajoria/storefront-backend/services/promotion-service/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VoucherService defines the interface for voucher business logic.
type VoucherService interface {
	CreateVoucher(ctx context.Context, in *models.VoucherInput) (*models.Voucher, *apperrors.ServiceError)
	UpdateVoucher(ctx context.Context, id uuid.UUID, in *models.VoucherInput) (*models.Voucher, *apperrors.ServiceError)
	GetVoucher(ctx context.Context, id uuid.UUID) (*models.Voucher, *apperrors.ServiceError)
	DeleteVoucher(ctx context.Context, id uuid.UUID) *apperrors.ServiceError
	ListVouchers(ctx context.Context, active *bool, page, limit int) ([]models.Voucher, int64, *apperrors.ServiceError)
	ListAvailable(ctx context.Context) ([]models.Voucher, *apperrors.ServiceError)
	ValidateVoucher(ctx context.Context, code string, subtotal int64, userID uuid.UUID) (*models.VoucherQuote, *apperrors.ServiceError)
	Redeem(ctx context.Context, tx *gorm.DB, code string, subtotal int64, userID, orderID uuid.UUID) (*models.VoucherQuote, *apperrors.ServiceError)
	NotifyRedeemed(quote *models.VoucherQuote, userID, orderID uuid.UUID)
	ExpireVouchers(ctx context.Context) (int64, error)
}

// voucherService implements VoucherService.
type voucherService struct {
	repo      repository.VoucherRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewVoucherService creates a new VoucherService.
func NewVoucherService(repo repository.VoucherRepository, publisher events.Publisher, logger *zap.Logger) VoucherService {
	return &voucherService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateVoucher creates a new voucher. Codes are stored upper-case.
func (s *voucherService) CreateVoucher(ctx context.Context, in *models.VoucherInput) (*models.Voucher, *apperrors.ServiceError) {
	voucher := &models.Voucher{Active: true}
	if svcErr := s.apply(ctx, voucher, in); svcErr != nil {
		return nil, svcErr
	}

	if err := s.repo.Create(ctx, voucher); err != nil {
		if isDuplicate(err) {
			return nil, apperrors.Conflict("voucher code already exists")
		}
		s.logger.Error("Failed to create voucher", zap.Error(err))
		return nil, apperrors.Internal("Failed to create voucher", err)
	}

	s.logger.Info("Voucher created", zap.String("code", voucher.Code), zap.String("type", string(voucher.Type)))
	return voucher, nil
}

// UpdateVoucher replaces a voucher's settings. Usage counters are kept.
func (s *voucherService) UpdateVoucher(ctx context.Context, id uuid.UUID, in *models.VoucherInput) (*models.Voucher, *apperrors.ServiceError) {
	voucher, svcErr := s.GetVoucher(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	if svcErr := s.apply(ctx, voucher, in); svcErr != nil {
		return nil, svcErr
	}
	if voucher.UsageLimit > 0 && voucher.UsageLimit < voucher.UsedCount {
		return nil, apperrors.BadRequest("usage_limit is below the number of redemptions")
	}

	if err := s.repo.Update(ctx, voucher); err != nil {
		if isDuplicate(err) {
			return nil, apperrors.Conflict("voucher code already exists")
		}
		s.logger.Error("Failed to update voucher", zap.String("id", id.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to update voucher", err)
	}
	return voucher, nil
}

// GetVoucher retrieves a voucher by id.
func (s *voucherService) GetVoucher(ctx context.Context, id uuid.UUID) (*models.Voucher, *apperrors.ServiceError) {
	voucher, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("voucher not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load voucher", err)
	}
	return voucher, nil
}

// DeleteVoucher soft-deletes a voucher.
func (s *voucherService) DeleteVoucher(ctx context.Context, id uuid.UUID) *apperrors.ServiceError {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("voucher not found")
		}
		s.logger.Error("Failed to delete voucher", zap.String("id", id.String()), zap.Error(err))
		return apperrors.Internal("Failed to delete voucher", err)
	}

	s.logger.Info("Voucher deleted", zap.String("id", id.String()))
	return nil
}

// ListVouchers returns paginated vouchers for the admin dashboard.
func (s *voucherService) ListVouchers(ctx context.Context, active *bool, page, limit int) ([]models.Voucher, int64, *apperrors.ServiceError) {
	vouchers, total, err := s.repo.FindAll(ctx, active, page, limit)
	if err != nil {
		s.logger.Error("Failed to list vouchers", zap.Error(err))
		return nil, 0, apperrors.Internal("Failed to list vouchers", err)
	}
	return vouchers, total, nil
}

// ListAvailable returns vouchers a shopper could redeem right now.
func (s *voucherService) ListAvailable(ctx context.Context) ([]models.Voucher, *apperrors.ServiceError) {
	vouchers, err := s.repo.FindRedeemable(ctx, s.now())
	if err != nil {
		s.logger.Error("Failed to list available vouchers", zap.Error(err))
		return nil, apperrors.Internal("Failed to list vouchers", err)
	}
	return vouchers, nil
}

// ValidateVoucher prices code against subtotal without consuming it.
// A nil userID skips the per-user limit.
func (s *voucherService) ValidateVoucher(ctx context.Context, code string, subtotal int64, userID uuid.UUID) (*models.VoucherQuote, *apperrors.ServiceError) {
	_, quote, svcErr := s.check(ctx, s.repo, code, subtotal, userID)
	return quote, svcErr
}

// Redeem re-validates code inside tx, consumes one use and records the usage.
func (s *voucherService) Redeem(ctx context.Context, tx *gorm.DB, code string, subtotal int64, userID, orderID uuid.UUID) (*models.VoucherQuote, *apperrors.ServiceError) {
	repo := s.repo.WithTx(tx)
	voucher, quote, svcErr := s.check(ctx, repo, code, subtotal, userID)
	if svcErr != nil {
		return nil, svcErr
	}

	if err := repo.IncrementUsage(ctx, voucher.ID); err != nil {
		if errors.Is(err, repository.ErrUsageLimitReached) {
			return nil, apperrors.BadRequest("voucher usage limit reached")
		}
		return nil, apperrors.Internal("Failed to redeem voucher", err)
	}
	usage := &models.VoucherUsage{VoucherID: voucher.ID, UserID: userID, OrderID: orderID, Discount: quote.Discount}
	if err := repo.CreateUsage(ctx, usage); err != nil {
		return nil, apperrors.Internal("Failed to redeem voucher", err)
	}
	return quote, nil
}

// NotifyRedeemed records the redemption once the surrounding transaction committed.
func (s *voucherService) NotifyRedeemed(quote *models.VoucherQuote, userID, orderID uuid.UUID) {
	metrics.VouchersRedeemed.WithLabelValues(string(quote.Type)).Inc()
	events.PublishAsync(s.publisher, events.TypeVoucherApplied, events.VoucherApplied{
		VoucherID: quote.VoucherID,
		Code:      quote.Code,
		UserID:    userID,
		OrderID:   orderID,
		Discount:  quote.Discount,
	})
	s.logger.Info("Voucher redeemed",
		zap.String("code", quote.Code),
		zap.Int64("discount", quote.Discount),
		zap.String("order_id", orderID.String()),
	)
}

// ExpireVouchers deactivates vouchers past their validity window.
func (s *voucherService) ExpireVouchers(ctx context.Context) (int64, error) {
	n, err := s.repo.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Expired vouchers deactivated", zap.Int64("count", n))
	}
	return n, nil
}

func (s *voucherService) check(ctx context.Context, repo repository.VoucherRepository, code string, subtotal int64, userID uuid.UUID) (*models.Voucher, *models.VoucherQuote, *apperrors.ServiceError) {
	voucher, err := repo.FindByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperrors.NotFound("voucher not found")
	}
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to load voucher", err)
	}

	now := s.now()
	switch {
	case !voucher.Active:
		return nil, nil, apperrors.BadRequest("voucher is not active")
	case now.Before(voucher.ValidFrom):
		return nil, nil, apperrors.BadRequest("voucher not yet valid")
	case now.After(voucher.ValidTo):
		return nil, nil, apperrors.BadRequest("voucher expired")
	case voucher.UsageExhausted():
		return nil, nil, apperrors.BadRequest("voucher usage limit reached")
	}

	if voucher.PerUserLimit > 0 && userID != uuid.Nil {
		used, err := repo.CountUserUsage(ctx, voucher.ID, userID)
		if err != nil {
			return nil, nil, apperrors.Internal("Failed to load voucher usage", err)
		}
		if used >= int64(voucher.PerUserLimit) {
			return nil, nil, apperrors.BadRequest("voucher already used")
		}
	}

	if subtotal < voucher.MinOrderValue {
		return nil, nil, apperrors.BadRequest("order subtotal below voucher minimum")
	}

	discount := voucher.CalculateDiscount(subtotal)
	return voucher, &models.VoucherQuote{
		VoucherID: voucher.ID,
		Code:      voucher.Code,
		Type:      voucher.Type,
		Value:     voucher.Value,
		Discount:  discount,
		Subtotal:  subtotal,
		Total:     subtotal - discount,
	}, nil
}

func (s *voucherService) apply(ctx context.Context, voucher *models.Voucher, in *models.VoucherInput) *apperrors.ServiceError {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return apperrors.BadRequest("code is required")
	}
	if in.Type == models.VoucherTypePercentage && (in.Value <= 0 || in.Value > 100) {
		return apperrors.BadRequest("percentage value must be between 0 and 100")
	}
	if in.Type == models.VoucherTypeFixed && in.Value <= 0 {
		return apperrors.BadRequest("fixed value must be positive")
	}
	if !in.ValidTo.After(in.ValidFrom) {
		return apperrors.BadRequest("valid_to must be after valid_from")
	}

	taken, err := s.repo.CodeTaken(ctx, code, voucher.ID)
	if err != nil {
		return apperrors.Internal("Failed to check voucher code", err)
	}
	if taken {
		return apperrors.Conflict("voucher code already exists")
	}

	voucher.Code = code
	voucher.Description = strings.TrimSpace(in.Description)
	voucher.Type = in.Type
	voucher.Value = in.Value
	voucher.MaxDiscount = in.MaxDiscount
	voucher.MinOrderValue = in.MinOrderValue
	voucher.UsageLimit = in.UsageLimit
	voucher.PerUserLimit = in.PerUserLimit
	voucher.ValidFrom = in.ValidFrom.UTC()
	voucher.ValidTo = in.ValidTo.UTC()
	if in.Active != nil {
		voucher.Active = *in.Active
	}
	return nil
}

func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
