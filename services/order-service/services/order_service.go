package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	aws_pkg "github.com/yashrajoria/storefront-backend/pkg/aws"
	"github.com/yashrajoria/storefront-backend/pkg/events"
	cartservices "github.com/yashrajoria/storefront-backend/services/cart-service/services"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/order-service/models"
	"github.com/yashrajoria/storefront-backend/services/order-service/repository"
	productrepo "github.com/yashrajoria/storefront-backend/services/product-service/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dateLayout     = "2006-01-02"
	staleBatchSize = 100
)

var cancellable = []string{models.StatusPending, models.StatusConfirmed}

// AdminOrderQuery holds the raw admin list filters. Dates use 2006-01-02 and To is inclusive.
type AdminOrderQuery struct {
	Status string
	From   string
	To     string
	Query  string
}

type OrderService struct {
	db        *gorm.DB
	orders    repository.OrderRepository
	products  *productrepo.ProductRepository
	users     UserLookup
	publisher events.Publisher
	metrics   *aws_pkg.MetricsClient
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	orders repository.OrderRepository,
	products *productrepo.ProductRepository,
	users UserLookup,
	publisher events.Publisher,
	metricsClient *aws_pkg.MetricsClient,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		db:        db,
		orders:    orders,
		products:  products,
		users:     users,
		publisher: publisher,
		metrics:   metricsClient,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, status string, page, limit int) ([]models.Order, int64, *apperrors.ServiceError) {
	if status != "" && !models.IsValidStatus(status) {
		return nil, 0, apperrors.BadRequest("invalid status")
	}
	orders, total, err := s.orders.List(ctx, repository.OrderFilter{UserID: &userID, Status: status}, page, limit)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to fetch orders", err)
	}
	return orders, total, nil
}

func (s *OrderService) GetMine(ctx context.Context, userID, id uuid.UUID) (*models.Order, *apperrors.ServiceError) {
	order, err := s.orders.FindByIDAndUserID(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("order not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch order", err)
	}
	return order, nil
}

// Cancel lets a customer cancel an order that has not started processing.
func (s *OrderService) Cancel(ctx context.Context, userID, id uuid.UUID) (*models.Order, *apperrors.ServiceError) {
	order, svcErr := s.GetMine(ctx, userID, id)
	if svcErr != nil {
		return nil, svcErr
	}
	if order.Status != models.StatusPending && order.Status != models.StatusConfirmed {
		return nil, apperrors.Conflict("order can no longer be cancelled")
	}

	err := cancelAndRestock(ctx, s.db, s.orders, s.products, s.logger, order, cancellable, nil)
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, apperrors.Conflict("order can no longer be cancelled")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to cancel order", err)
	}

	s.logger.Info("Order cancelled by customer", zap.String("order_id", order.ID.String()))
	s.statusChanged(ctx, order, order.Status, models.StatusCancelled)
	return s.reload(ctx, order.ID)
}

// AdminList lists all orders with optional status, date and order number filters.
func (s *OrderService) AdminList(ctx context.Context, q AdminOrderQuery, page, limit int) ([]models.Order, int64, *apperrors.ServiceError) {
	filter := repository.OrderFilter{Status: q.Status, Query: q.Query}
	if q.Status != "" && !models.IsValidStatus(q.Status) {
		return nil, 0, apperrors.BadRequest("invalid status")
	}
	if q.From != "" {
		from, err := time.ParseInLocation(dateLayout, q.From, time.UTC)
		if err != nil {
			return nil, 0, apperrors.BadRequest("from must be a date in YYYY-MM-DD format")
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := time.ParseInLocation(dateLayout, q.To, time.UTC)
		if err != nil {
			return nil, 0, apperrors.BadRequest("to must be a date in YYYY-MM-DD format")
		}
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, 0, apperrors.BadRequest("from must not be after to")
	}

	orders, total, err := s.orders.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to fetch orders", err)
	}
	return orders, total, nil
}

func (s *OrderService) AdminGet(ctx context.Context, id uuid.UUID) (*models.Order, *apperrors.ServiceError) {
	return s.reload(ctx, id)
}

// UpdateStatus moves an order along its lifecycle. Cancelling restocks the items;
// delivering a cash on delivery order marks it paid.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, *apperrors.ServiceError) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.IsValidStatus(status) {
		return nil, apperrors.BadRequest("invalid status")
	}
	order, svcErr := s.reload(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	if !models.CanTransition(order.Status, status) {
		return nil, apperrors.BadRequest(fmt.Sprintf("cannot change status from %s to %s", order.Status, status))
	}

	var err error
	if status == models.StatusCancelled {
		err = cancelAndRestock(ctx, s.db, s.orders, s.products, s.logger, order, []string{order.Status}, nil)
	} else {
		fields := map[string]interface{}{"status": status}
		if status == models.StatusDelivered {
			now := s.now()
			fields["delivered_at"] = &now
			if order.PaymentMethod == models.PaymentMethodCOD {
				fields["payment_status"] = models.PaymentPaid
			}
		}
		err = s.orders.UpdateStatus(ctx, order.ID, []string{order.Status}, fields)
	}
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, apperrors.Conflict("order status changed, reload and retry")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to update order status", err)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("from", order.Status),
		zap.String("to", status),
	)
	s.statusChanged(ctx, order, order.Status, status)
	return s.reload(ctx, order.ID)
}

// PaymentSucceeded confirms a pending online order once the provider reports success.
func (s *OrderService) PaymentSucceeded(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	err = s.orders.UpdateStatus(ctx, orderID, []string{models.StatusPending}, map[string]interface{}{
		"status":         models.StatusConfirmed,
		"payment_status": models.PaymentPaid,
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		// Already confirmed or cancelled by the stale sweep; the money still arrived.
		s.logger.Warn("Payment succeeded for order that is no longer pending",
			zap.String("order_id", orderID.String()),
			zap.String("status", order.Status),
		)
		return s.orders.UpdateFields(ctx, orderID, map[string]interface{}{"payment_status": models.PaymentPaid})
	}
	if err != nil {
		return err
	}
	s.statusChanged(ctx, order, models.StatusPending, models.StatusConfirmed)
	return nil
}

// PaymentFailed records a failed attempt. The order stays pending so the customer
// can retry until the stale order sweep cancels it.
func (s *OrderService) PaymentFailed(ctx context.Context, orderID uuid.UUID) error {
	err := s.orders.UpdateStatus(ctx, orderID, []string{models.StatusPending}, map[string]interface{}{
		"payment_status": models.PaymentFailed,
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		s.logger.Warn("Payment failed for order that is no longer pending", zap.String("order_id", orderID.String()))
		return nil
	}
	return err
}

// CancelStaleOrders cancels online orders left unpaid for longer than ttl and
// returns how many were cancelled.
func (s *OrderService) CancelStaleOrders(ctx context.Context, ttl time.Duration) (int, error) {
	stale, err := s.orders.FindStaleOnline(ctx, s.now().Add(-ttl), staleBatchSize)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for i := range stale {
		order := &stale[i]
		err := cancelAndRestock(ctx, s.db, s.orders, s.products, s.logger, order,
			[]string{models.StatusPending},
			map[string]interface{}{"payment_status": models.PaymentFailed},
		)
		if errors.Is(err, repository.ErrStatusChanged) {
			continue
		}
		if err != nil {
			s.logger.Error("Failed to cancel stale order", zap.String("order_id", order.ID.String()), zap.Error(err))
			continue
		}
		cancelled++
		s.statusChanged(ctx, order, models.StatusPending, models.StatusCancelled)
	}

	if cancelled > 0 {
		s.logger.Info("Cancelled stale unpaid orders", zap.Int("count", cancelled))
		if s.metrics.IsEnabled() {
			_ = s.metrics.PutMetric(ctx, aws_pkg.MetricOrdersCancelled, float64(cancelled), "Count",
				map[string]string{"Service": "orders", "Reason": "stale"})
		}
	}
	return cancelled, nil
}

// OrderLines returns the product lines of one of the caller's orders for re-adding to the cart.
func (s *OrderService) OrderLines(ctx context.Context, userID, orderID uuid.UUID) ([]cartservices.BatchItem, error) {
	order, err := s.orders.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	lines := make([]cartservices.BatchItem, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, cartservices.BatchItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines, nil
}

func (s *OrderService) reload(ctx context.Context, id uuid.UUID) (*models.Order, *apperrors.ServiceError) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("order not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch order", err)
	}
	return order, nil
}

func (s *OrderService) statusChanged(ctx context.Context, order *models.Order, from, to string) {
	payload := events.OrderStatusChanged{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		From:        from,
		To:          to,
	}
	if user, err := s.users.FindByID(ctx, order.UserID); err == nil {
		payload.Email = user.Email
		payload.Name = user.Name
	}
	events.PublishAsync(s.publisher, events.TypeOrderStatusChanged, payload)
}
