package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	authmodels "github.com/yashrajoria/storefront-backend/services/auth-service/models"
	cartmodels "github.com/yashrajoria/storefront-backend/services/cart-service/models"
	notifymodels "github.com/yashrajoria/storefront-backend/services/notification-service/models"
	ordermodels "github.com/yashrajoria/storefront-backend/services/order-service/models"
	paymentmodels "github.com/yashrajoria/storefront-backend/services/payment-service/models"
	productmodels "github.com/yashrajoria/storefront-backend/services/product-service/models"
	promomodels "github.com/yashrajoria/storefront-backend/services/promotion-service/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// storefront migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update all database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(context.Background(), "migrate")
		if err != nil {
			return err
		}
		defer a.close()

		if err := runMigrations(a.db); err != nil {
			return err
		}
		a.logger.Info("Migrations complete")
		return nil
	},
}

// migrations run in dependency order: carts and orders reference products and users.
var migrations = []struct {
	name string
	fn   func(*gorm.DB) error
}{
	{"auth", authmodels.Migrate},
	{"catalog", productmodels.Migrate},
	{"cart", cartmodels.Migrate},
	{"promotions", promomodels.Migrate},
	{"orders", ordermodels.Migrate},
	{"payments", paymentmodels.Migrate},
	{"notifications", notifymodels.Migrate},
}

func runMigrations(db *gorm.DB) error {
	for _, m := range migrations {
		if err := m.fn(db); err != nil {
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
		zap.L().Info("migrated", zap.String("module", m.name))
	}
	return nil
}
