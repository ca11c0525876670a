package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/cart-service/models"
	"github.com/yashrajoria/storefront-backend/services/cart-service/repository"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/metrics"
	productmodels "github.com/yashrajoria/storefront-backend/services/product-service/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxBatchItems bounds a single batch add.
const MaxBatchItems = 100

type ProductFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*productmodels.Product, error)
}

// OrderLinesFunc returns the product lines of one of the user's orders.
// It returns gorm.ErrRecordNotFound when the order does not belong to the user.
type OrderLinesFunc func(ctx context.Context, userID, orderID uuid.UUID) ([]BatchItem, error)

type BatchItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity"`
}

type BatchFailure struct {
	ProductID uuid.UUID `json:"product_id"`
	Error     string    `json:"error"`
}

type BatchResult struct {
	Added     int            `json:"added"`
	Failed    []BatchFailure `json:"failed"`
	Requested int            `json:"requested"`
}

type CartService struct {
	carts       *repository.CartRepository
	products    ProductFinder
	idempotency *repository.IdempotencyStore
	orderLines  OrderLinesFunc
}

func NewCartService(carts *repository.CartRepository, products ProductFinder, idempotency *repository.IdempotencyStore) *CartService {
	return &CartService{carts: carts, products: products, idempotency: idempotency}
}

// SetOrderLines enables RepeatOrder.
func (s *CartService) SetOrderLines(fn OrderLinesFunc) {
	s.orderLines = fn
}

// GetCart returns the user's cart priced at current product prices.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, *apperrors.ServiceError) {
	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load cart", err)
	}

	// Lines of deleted products are pruned; unpublished ones are only hidden
	// so they come back when the product is republished.
	kept := make([]models.CartItem, 0, len(items))
	var stale []uuid.UUID
	for _, item := range items {
		switch {
		case item.Product == nil:
			stale = append(stale, item.ID)
		case item.Product.Published:
			kept = append(kept, item)
		}
	}
	if len(stale) > 0 {
		if err := s.carts.DeleteMany(ctx, stale); err != nil {
			zap.L().Warn("failed to prune cart lines", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	cart := &models.Cart{Items: kept}
	cart.Summary = models.Summarize(cart.Items)
	return cart, nil
}

func (s *CartService) Count(ctx context.Context, userID uuid.UUID) (int64, *apperrors.ServiceError) {
	n, err := s.carts.CountQuantity(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal("Failed to count cart", err)
	}
	return n, nil
}

// AddItem adds quantity of a product, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, *apperrors.ServiceError) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, apperrors.BadRequest("quantity must be at least 1")
	}

	product, svcErr := s.findProduct(ctx, productID)
	if svcErr != nil {
		return nil, svcErr
	}

	existing, err := s.carts.FindByProduct(ctx, userID, productID)
	switch {
	case err == nil:
		total := existing.Quantity + quantity
		if total > product.Stock {
			return nil, apperrors.Conflict("insufficient stock")
		}
		if err := s.carts.SetQuantity(ctx, existing.ID, total); err != nil {
			return nil, apperrors.Internal("Failed to update cart", err)
		}
		existing.Quantity = total
		existing.Product = product
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.Internal("Failed to load cart", err)
	}

	if quantity > product.Stock {
		return nil, apperrors.Conflict("insufficient stock")
	}
	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.carts.Create(ctx, item); err != nil {
		return nil, apperrors.Internal("Failed to update cart", err)
	}
	item.Product = product
	return item, nil
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Cart, *apperrors.ServiceError) {
	item, err := s.carts.FindItem(ctx, userID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("cart item not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load cart", err)
	}

	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, itemID)
	}

	product, svcErr := s.findProduct(ctx, item.ProductID)
	if svcErr != nil {
		return nil, svcErr
	}
	if quantity > product.Stock {
		return nil, apperrors.Conflict("insufficient stock")
	}
	if err := s.carts.SetQuantity(ctx, item.ID, quantity); err != nil {
		return nil, apperrors.Internal("Failed to update cart", err)
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, *apperrors.ServiceError) {
	err := s.carts.Delete(ctx, userID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("cart item not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to update cart", err)
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) *apperrors.ServiceError {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return apperrors.Internal("Failed to clear cart", err)
	}
	return nil
}

// AddMany applies every item on its own. One failing item never stops the rest.
// A non-empty idempotencyKey replays the stored result of an earlier identical call.
func (s *CartService) AddMany(ctx context.Context, userID uuid.UUID, items []BatchItem, idempotencyKey string) (*BatchResult, *apperrors.ServiceError) {
	if len(items) == 0 {
		return nil, apperrors.BadRequest("items must not be empty")
	}
	if len(items) > MaxBatchItems {
		return nil, apperrors.BadRequest(fmt.Sprintf("at most %d items per batch", MaxBatchItems))
	}

	if idempotencyKey != "" {
		if cached, err := s.idempotency.Get(ctx, userID.String(), idempotencyKey); err != nil {
			zap.L().Warn("idempotency lookup failed", zap.Error(err))
		} else if cached != "" {
			var replay BatchResult
			if err := json.Unmarshal([]byte(cached), &replay); err == nil {
				return &replay, nil
			}
		}
	}

	result := &BatchResult{Failed: []BatchFailure{}, Requested: len(items)}
	for _, it := range items {
		if _, svcErr := s.AddItem(ctx, userID, it.ProductID, it.Quantity); svcErr != nil {
			result.Failed = append(result.Failed, BatchFailure{ProductID: it.ProductID, Error: svcErr.Message})
			continue
		}
		result.Added++
	}
	metrics.CartBatchItems.WithLabelValues("added").Add(float64(result.Added))
	metrics.CartBatchItems.WithLabelValues("failed").Add(float64(len(result.Failed)))

	if idempotencyKey != "" {
		if raw, err := json.Marshal(result); err == nil {
			if err := s.idempotency.Set(ctx, userID.String(), idempotencyKey, string(raw)); err != nil {
				zap.L().Warn("idempotency store failed", zap.Error(err))
			}
		}
	}
	return result, nil
}

// RepeatOrder puts the lines of a previous order back into the cart.
func (s *CartService) RepeatOrder(ctx context.Context, userID, orderID uuid.UUID) (*BatchResult, *apperrors.ServiceError) {
	if s.orderLines == nil {
		return nil, apperrors.New(http.StatusServiceUnavailable, "Repeat order unavailable")
	}
	lines, err := s.orderLines(ctx, userID, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("order not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load order", err)
	}
	if len(lines) == 0 {
		return &BatchResult{Failed: []BatchFailure{}}, nil
	}
	return s.AddMany(ctx, userID, lines, "")
}

func (s *CartService) findProduct(ctx context.Context, id uuid.UUID) (*productmodels.Product, *apperrors.ServiceError) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("product not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load product", err)
	}
	if !product.Published {
		return nil, apperrors.NotFound("product not found")
	}
	return product, nil
}
