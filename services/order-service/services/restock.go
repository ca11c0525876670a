package services

import (
	"context"
	"errors"
	"time"

	"github.com/yashrajoria/storefront-backend/services/order-service/models"
	"github.com/yashrajoria/storefront-backend/services/order-service/repository"
	productrepo "github.com/yashrajoria/storefront-backend/services/product-service/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cancelAndRestock moves order to cancelled while it is still in one of the from
// statuses and returns its quantities to stock, all in one transaction.
// Products deleted since the order was placed are skipped.
func cancelAndRestock(
	ctx context.Context,
	db *gorm.DB,
	orders repository.OrderRepository,
	products *productrepo.ProductRepository,
	logger *zap.Logger,
	order *models.Order,
	from []string,
	extra map[string]interface{},
) error {
	now := time.Now().UTC()
	fields := map[string]interface{}{
		"status":       models.StatusCancelled,
		"cancelled_at": &now,
	}
	for k, v := range extra {
		fields[k] = v
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := orders.WithTx(tx).UpdateStatus(ctx, order.ID, from, fields); err != nil {
			return err
		}
		stock := products.WithTx(tx)
		for _, item := range order.Items {
			err := stock.AdjustStock(ctx, item.ProductID, item.Quantity)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Skipping restock for missing product",
					zap.String("order_id", order.ID.String()),
					zap.String("product_id", item.ProductID.String()),
				)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
