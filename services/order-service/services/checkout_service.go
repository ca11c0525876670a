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
	authmodels "github.com/yashrajoria/storefront-backend/services/auth-service/models"
	cartmodels "github.com/yashrajoria/storefront-backend/services/cart-service/models"
	cartrepo "github.com/yashrajoria/storefront-backend/services/cart-service/repository"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/metrics"
	"github.com/yashrajoria/storefront-backend/services/order-service/models"
	"github.com/yashrajoria/storefront-backend/services/order-service/repository"
	paymentservices "github.com/yashrajoria/storefront-backend/services/payment-service/services"
	productmodels "github.com/yashrajoria/storefront-backend/services/product-service/models"
	productrepo "github.com/yashrajoria/storefront-backend/services/product-service/repository"
	promomodels "github.com/yashrajoria/storefront-backend/services/promotion-service/models"
	promoservices "github.com/yashrajoria/storefront-backend/services/promotion-service/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AddressLookup interface {
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*authmodels.Address, error)
}

type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*authmodels.User, error)
}

// PaymentStarter opens a provider payment for a freshly placed order.
type PaymentStarter interface {
	StartPayment(ctx context.Context, orderID, userID uuid.UUID, amount int64, currency string) (*paymentservices.Intent, error)
}

type QuoteLine struct {
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	Image         string    `json:"image,omitempty"`
	UnitPrice     int64     `json:"unit_price"`
	OriginalPrice int64     `json:"original_price"`
	Quantity      int       `json:"quantity"`
	LineTotal     int64     `json:"line_total"`
	Stock         int       `json:"stock"`
}

// Quote is the priced cart shown before an order is placed.
type Quote struct {
	Items         []QuoteLine `json:"items"`
	ItemCount     int         `json:"item_count"`
	Subtotal      int64       `json:"subtotal"`
	OriginalTotal int64       `json:"original_total"`
	Savings       int64       `json:"savings"`
	Discount      int64       `json:"discount"`
	Total         int64       `json:"total"`
	Currency      string      `json:"currency"`
	VoucherCode   string      `json:"voucher_code,omitempty"`
	VoucherError  string      `json:"voucher_error,omitempty"`
}

type PlaceOrderRequest struct {
	AddressID     uuid.UUID `json:"address_id" binding:"required"`
	PaymentMethod string    `json:"payment_method" binding:"required"`
	VoucherCode   string    `json:"voucher_code"`
	Notes         string    `json:"notes" binding:"max=500"`
}

type PlaceOrderResult struct {
	Order        *models.Order `json:"order"`
	ClientSecret string        `json:"client_secret,omitempty"`
}

type CheckoutService struct {
	db        *gorm.DB
	orders    repository.OrderRepository
	carts     *cartrepo.CartRepository
	products  *productrepo.ProductRepository
	vouchers  promoservices.VoucherService
	addresses AddressLookup
	users     UserLookup
	payments  PaymentStarter
	publisher events.Publisher
	metrics   *aws_pkg.MetricsClient
	logger    *zap.Logger
	currency  string
}

func NewCheckoutService(
	db *gorm.DB,
	orders repository.OrderRepository,
	carts *cartrepo.CartRepository,
	products *productrepo.ProductRepository,
	vouchers promoservices.VoucherService,
	addresses AddressLookup,
	users UserLookup,
	publisher events.Publisher,
	metricsClient *aws_pkg.MetricsClient,
	logger *zap.Logger,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		db:        db,
		orders:    orders,
		carts:     carts,
		products:  products,
		vouchers:  vouchers,
		addresses: addresses,
		users:     users,
		publisher: publisher,
		metrics:   metricsClient,
		logger:    logger,
		currency:  currency,
	}
}

// SetPayments enables the online payment method. Without it only cod is accepted.
func (s *CheckoutService) SetPayments(payments PaymentStarter) {
	s.payments = payments
}

// Quote prices the caller's cart. A voucher that does not apply is reported in
// VoucherError and leaves the discount at zero.
func (s *CheckoutService) Quote(ctx context.Context, userID uuid.UUID, voucherCode string) (*Quote, *apperrors.ServiceError) {
	lines, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	lines = purchasable(lines)
	if len(lines) == 0 {
		return nil, apperrors.BadRequest("cart is empty")
	}

	summary := cartmodels.Summarize(lines)
	quote := &Quote{
		Items:         make([]QuoteLine, 0, len(lines)),
		ItemCount:     summary.ItemCount,
		Subtotal:      summary.Subtotal,
		OriginalTotal: summary.OriginalTotal,
		Savings:       summary.Savings,
		Total:         summary.Subtotal,
		Currency:      s.currency,
	}
	for _, line := range lines {
		quote.Items = append(quote.Items, QuoteLine{
			ProductID:     line.ProductID,
			Name:          line.Product.Name,
			Image:         firstImage(line.Product),
			UnitPrice:     line.UnitPrice,
			OriginalPrice: line.Product.Price,
			Quantity:      line.Quantity,
			LineTotal:     line.LineTotal,
			Stock:         line.Product.Stock,
		})
	}

	if code := strings.TrimSpace(voucherCode); code != "" {
		quote.VoucherCode = strings.ToUpper(code)
		voucher, svcErr := s.vouchers.ValidateVoucher(ctx, code, quote.Subtotal, userID)
		if svcErr != nil {
			if svcErr.StatusCode >= 500 {
				return nil, svcErr
			}
			quote.VoucherError = svcErr.Message
		} else {
			quote.Discount = voucher.Discount
			quote.Total = voucher.Total
		}
	}
	return quote, nil
}

// PlaceOrder turns the caller's cart into an order. Stock, voucher usage and the
// cart are all updated in one transaction; the payment provider is only called
// after it commits.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*PlaceOrderResult, *apperrors.ServiceError) {
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method != models.PaymentMethodCOD && method != models.PaymentMethodOnline {
		return nil, apperrors.BadRequest("payment_method must be cod or online")
	}
	if method == models.PaymentMethodOnline && s.payments == nil {
		return nil, apperrors.BadRequest("online payments are not available")
	}

	address, err := s.addresses.FindForUser(ctx, userID, req.AddressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("address not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load address", err)
	}

	orderID := uuid.New()
	var order *models.Order
	var voucher *promomodels.VoucherQuote

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines, err := s.carts.WithTx(tx).ListByUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		lines = purchasable(lines)
		if len(lines) == 0 {
			return apperrors.BadRequest("cart is empty")
		}

		ids := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ProductID)
		}
		locked, err := s.products.WithTx(tx).LockByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]productmodels.Product, len(locked))
		for _, p := range locked {
			byID[p.ID] = p
		}

		items := make([]models.OrderItem, 0, len(lines))
		var subtotal int64
		for _, line := range lines {
			p, ok := byID[line.ProductID]
			if !ok || !p.Published {
				return apperrors.Conflict(fmt.Sprintf("%s is no longer available", line.Product.Name))
			}
			if p.Stock < line.Quantity {
				return apperrors.Conflict("insufficient stock for " + p.Name)
			}
			unit := productmodels.EffectivePrice(p.Price, p.DiscountPercent)
			items = append(items, models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Image:     firstImage(&p),
				UnitPrice: unit,
				Quantity:  line.Quantity,
				LineTotal: unit * int64(line.Quantity),
			})
			subtotal += unit * int64(line.Quantity)
		}

		var discount int64
		var voucherCode string
		if code := strings.TrimSpace(req.VoucherCode); code != "" {
			quote, svcErr := s.vouchers.Redeem(ctx, tx, code, subtotal, userID, orderID)
			if svcErr != nil {
				return svcErr
			}
			voucher = quote
			discount = quote.Discount
			voucherCode = quote.Code
		}

		order = &models.Order{
			ID:              orderID,
			UserID:          userID,
			AddressID:       address.ID,
			ShippingAddress: snapshotAddress(address),
			Subtotal:        subtotal,
			Discount:        discount,
			Total:           subtotal - discount,
			Currency:        s.currency,
			VoucherCode:     voucherCode,
			PaymentMethod:   method,
			PaymentStatus:   models.PaymentPending,
			Status:          models.StatusPending,
			Notes:           strings.TrimSpace(req.Notes),
			Items:           items,
		}
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		stock := s.products.WithTx(tx)
		for _, item := range items {
			if err := stock.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
				if errors.Is(err, productrepo.ErrInsufficientStock) {
					return apperrors.Conflict("insufficient stock for " + item.Name)
				}
				return err
			}
		}
		return s.carts.WithTx(tx).Clear(ctx, userID)
	})
	if err != nil {
		svcErr := apperrors.As(err)
		if svcErr.StatusCode >= 500 {
			s.logger.Error("Failed to place order", zap.String("user_id", userID.String()), zap.Error(err))
		}
		return nil, svcErr
	}

	result := &PlaceOrderResult{Order: order}
	switch {
	case method == models.PaymentMethodCOD:
		if err := s.orders.UpdateFields(ctx, order.ID, map[string]interface{}{"status": models.StatusConfirmed}); err != nil {
			return nil, apperrors.Internal("Failed to confirm order", err)
		}
		order.Status = models.StatusConfirmed

	case order.Total == 0:
		// Fully discounted: nothing to collect.
		if err := s.orders.UpdateFields(ctx, order.ID, map[string]interface{}{
			"status":         models.StatusConfirmed,
			"payment_status": models.PaymentPaid,
		}); err != nil {
			return nil, apperrors.Internal("Failed to confirm order", err)
		}
		order.Status = models.StatusConfirmed
		order.PaymentStatus = models.PaymentPaid

	default:
		intent, err := s.payments.StartPayment(ctx, order.ID, userID, order.Total, order.Currency)
		if err != nil {
			s.logger.Error("Payment intent creation failed, cancelling order",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
			if cerr := cancelAndRestock(ctx, s.db, s.orders, s.products, s.logger, order,
				[]string{models.StatusPending},
				map[string]interface{}{"payment_status": models.PaymentFailed},
			); cerr != nil {
				s.logger.Error("Failed to cancel order after payment failure",
					zap.String("order_id", order.ID.String()),
					zap.Error(cerr),
				)
			}
			return nil, apperrors.BadGateway("payment provider unavailable", err)
		}
		if err := s.orders.UpdateFields(ctx, order.ID, map[string]interface{}{"payment_intent_id": intent.ID}); err != nil {
			return nil, apperrors.Internal("Failed to save payment intent", err)
		}
		order.PaymentIntentID = &intent.ID
		result.ClientSecret = intent.ClientSecret
	}

	s.afterPlaced(ctx, order, voucher)
	return result, nil
}

func (s *CheckoutService) afterPlaced(ctx context.Context, order *models.Order, voucher *promomodels.VoucherQuote) {
	payload := events.OrderPlaced{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Subtotal:      order.Subtotal,
		Discount:      order.Discount,
		Total:         order.Total,
		Currency:      order.Currency,
		PaymentMethod: order.PaymentMethod,
		VoucherCode:   order.VoucherCode,
	}
	for _, item := range order.Items {
		payload.ItemCount += item.Quantity
	}
	if user, err := s.users.FindByID(ctx, order.UserID); err == nil {
		payload.Email = user.Email
		payload.Name = user.Name
	} else {
		s.logger.Warn("Order placed for unknown user", zap.String("user_id", order.UserID.String()), zap.Error(err))
	}
	events.PublishAsync(s.publisher, events.TypeOrderPlaced, payload)

	if voucher != nil {
		s.vouchers.NotifyRedeemed(voucher, order.UserID, order.ID)
	}

	metrics.OrdersPlaced.WithLabelValues(order.PaymentMethod).Inc()
	metrics.OrderRevenue.Add(float64(order.Total))
	if s.metrics.IsEnabled() {
		go func(total int64, method string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			dims := map[string]string{"Service": "orders", "PaymentMethod": method}
			_ = s.metrics.RecordCount(ctx, aws_pkg.MetricOrdersPlaced, dims)
			_ = s.metrics.RecordValue(ctx, aws_pkg.MetricOrderRevenue, float64(total), dims)
		}(order.Total, order.PaymentMethod)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_method", order.PaymentMethod),
		zap.Int64("total", order.Total),
	)
}

// purchasable drops lines whose product was deleted or unpublished.
func purchasable(lines []cartmodels.CartItem) []cartmodels.CartItem {
	out := lines[:0]
	for _, line := range lines {
		if line.Product != nil && line.Product.Published {
			out = append(out, line)
		}
	}
	return out
}

func firstImage(p *productmodels.Product) string {
	if p == nil || len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func snapshotAddress(a *authmodels.Address) models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Mobile:     a.Mobile,
	}
}
