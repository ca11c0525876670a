package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	aws_pkg "github.com/yashrajoria/storefront-backend/pkg/aws"
	"github.com/yashrajoria/storefront-backend/pkg/events"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/payment-service/models"
	"github.com/yashrajoria/storefront-backend/services/payment-service/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderPaymentSink applies payment outcomes to orders.
type OrderPaymentSink interface {
	PaymentSucceeded(ctx context.Context, orderID uuid.UUID) error
	PaymentFailed(ctx context.Context, orderID uuid.UUID) error
}

type PaymentService struct {
	repo      repository.PaymentRepository
	gateway   Gateway
	orders    OrderPaymentSink
	publisher events.Publisher
	metrics   *aws_pkg.MetricsClient
	logger    *zap.Logger
	now       func() time.Time
}

func NewPaymentService(repo repository.PaymentRepository, gateway Gateway, publisher events.Publisher, metrics *aws_pkg.MetricsClient, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// SetOrderSink wires the order side of webhook handling.
func (s *PaymentService) SetOrderSink(orders OrderPaymentSink) {
	s.orders = orders
}

// StartPayment records a pending payment and opens a provider intent for it.
func (s *PaymentService) StartPayment(ctx context.Context, orderID, userID uuid.UUID, amount int64, currency string) (*Intent, error) {
	payment := &models.Payment{
		OrderID:  orderID,
		UserID:   userID,
		Amount:   amount,
		Currency: currency,
		Status:   models.StatusPending,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, amount, currency, map[string]string{
		"order_id":   orderID.String(),
		"user_id":    userID.String(),
		"payment_id": payment.ID.String(),
	})
	if err != nil {
		now := s.now()
		if uerr := s.repo.UpdatePayment(ctx, payment.ID, map[string]interface{}{
			"status":         models.StatusFailed,
			"failure_reason": truncate(err.Error(), 500),
			"failed_at":      &now,
		}); uerr != nil {
			s.logger.Error("Failed to mark payment failed", zap.String("payment_id", payment.ID.String()), zap.Error(uerr))
		}
		return nil, err
	}

	if err := s.repo.UpdatePayment(ctx, payment.ID, map[string]interface{}{"provider_intent_id": intent.ID}); err != nil {
		return nil, err
	}

	s.logger.Info("Payment intent created",
		zap.String("order_id", orderID.String()),
		zap.String("payment_intent_id", intent.ID),
		zap.Int64("amount", amount),
	)
	return intent, nil
}

// HandleWebhook verifies and applies a provider callback. Unknown or already
// settled payments are acknowledged without changes.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) *apperrors.ServiceError {
	evt, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
		return apperrors.BadRequest("invalid webhook")
	}

	var status string
	switch evt.Type {
	case EventIntentSucceeded:
		status = models.StatusSucceeded
	case EventIntentFailed:
		status = models.StatusFailed
	default:
		s.logger.Info("Unhandled webhook event type", zap.String("event_type", evt.Type))
		return nil
	}

	payment, err := s.repo.GetPaymentByIntentID(ctx, evt.IntentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("Payment not found for PaymentIntent", zap.String("payment_intent_id", evt.IntentID))
		return nil
	}
	if err != nil {
		return apperrors.Internal("Failed to load payment", err)
	}

	if !payment.Accepts(status) {
		s.logger.Info("Skipping duplicate payment webhook",
			zap.String("payment_id", payment.ID.String()),
			zap.String("status", payment.Status),
		)
		return nil
	}

	now := s.now()
	updates := map[string]interface{}{"status": status}
	switch status {
	case models.StatusSucceeded:
		updates["succeeded_at"] = &now
		updates["failure_reason"] = ""
	case models.StatusFailed:
		updates["failed_at"] = &now
		updates["failure_reason"] = truncate(evt.FailureReason, 500)
	}
	if err := s.repo.UpdatePayment(ctx, payment.ID, updates); err != nil {
		return apperrors.Internal("Failed to update payment", err)
	}

	if s.orders != nil {
		var oerr error
		if status == models.StatusSucceeded {
			oerr = s.orders.PaymentSucceeded(ctx, payment.OrderID)
		} else {
			oerr = s.orders.PaymentFailed(ctx, payment.OrderID)
		}
		if oerr != nil {
			return apperrors.Internal("Failed to update order payment", oerr)
		}
	}

	events.PublishAsync(s.publisher, events.TypePaymentStatusChanged, events.PaymentStatusChanged{
		OrderID:         payment.OrderID,
		PaymentIntentID: evt.IntentID,
		Status:          status,
		Amount:          payment.Amount,
	})
	s.recordMetric(status)

	s.logger.Info("Payment status updated",
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_id", payment.OrderID.String()),
		zap.String("status", status),
	)
	return nil
}

func (s *PaymentService) recordMetric(status string) {
	if !s.metrics.IsEnabled() {
		return
	}
	name := aws_pkg.MetricPaymentSucceeded
	if status == models.StatusFailed {
		name = aws_pkg.MetricPaymentFailed
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.RecordCount(ctx, name, map[string]string{"Service": "payments"})
	}()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
