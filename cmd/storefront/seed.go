package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	authmodels "github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"github.com/yashrajoria/storefront-backend/services/common/config"
	productmodels "github.com/yashrajoria/storefront-backend/services/product-service/models"
	promomodels "github.com/yashrajoria/storefront-backend/services/promotion-service/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// storefront seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin account and sample catalog data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := bootstrap(ctx, "seed")
		if err != nil {
			return err
		}
		defer a.close()

		if err := runMigrations(a.db); err != nil {
			return err
		}
		if err := seed(ctx, a.db, a.cfg, time.Now().UTC()); err != nil {
			return err
		}
		a.logger.Info("Seed complete")
		return nil
	},
}

type seedProduct struct {
	name     string
	price    int64
	discount int
	stock    int
	featured bool
}

type seedCategory struct {
	name     string
	products []seedProduct
}

var seedCatalog = []seedCategory{
	{name: "Fruits & Vegetables", products: []seedProduct{
		{name: "Bananas 1kg", price: 6000, stock: 120, featured: true},
		{name: "Red Apples 1kg", price: 18000, discount: 10, stock: 80},
		{name: "Tomatoes 500g", price: 3500, stock: 4},
	}},
	{name: "Dairy & Bakery", products: []seedProduct{
		{name: "Whole Milk 1L", price: 6800, stock: 200, featured: true},
		{name: "Brown Bread", price: 5500, discount: 5, stock: 60},
	}},
	{name: "Snacks", products: []seedProduct{
		{name: "Salted Cashews 200g", price: 32000, discount: 15, stock: 40, featured: true},
		{name: "Dark Chocolate 100g", price: 19900, stock: 75},
	}},
}

// seed is idempotent: rows are matched by email, slug or code and left
// untouched when they already exist.
func seed(ctx context.Context, db *gorm.DB, cfg *config.Config, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := seedAdmin(tx, cfg); err != nil {
			return err
		}
		if err := seedProducts(tx); err != nil {
			return err
		}
		return seedVouchers(tx, now)
	})
}

func seedAdmin(tx *gorm.DB, cfg *config.Config) error {
	if cfg.SeedAdminPassword == "" {
		return errors.New("SEED_ADMIN_PASSWORD is required to seed the admin account")
	}

	var admin authmodels.User
	err := tx.Where("email = ?", cfg.SeedAdminEmail).First(&admin).Error
	if err == nil {
		if admin.Role != authmodels.RoleAdmin {
			return tx.Model(&admin).Update("role", authmodels.RoleAdmin).Error
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin = authmodels.User{
		Email:         cfg.SeedAdminEmail,
		Password:      string(hashed),
		Name:          "Administrator",
		Role:          authmodels.RoleAdmin,
		EmailVerified: true,
	}
	if err := tx.Create(&admin).Error; err != nil {
		return err
	}
	zap.L().Info("seeded admin", zap.String("email", admin.Email))
	return nil
}

func seedProducts(tx *gorm.DB) error {
	for _, sc := range seedCatalog {
		category := productmodels.Category{Name: sc.name, Slug: productmodels.Slugify(sc.name)}
		if err := tx.Where("slug = ?", category.Slug).FirstOrCreate(&category).Error; err != nil {
			return fmt.Errorf("seed category %s: %w", sc.name, err)
		}
		for _, sp := range sc.products {
			product := productmodels.Product{
				Name:            sp.name,
				Slug:            productmodels.Slugify(sp.name),
				Price:           sp.price,
				DiscountPercent: sp.discount,
				Stock:           sp.stock,
				Images:          []string{},
				CategoryID:      category.ID,
				IsFeatured:      sp.featured,
				Published:       true,
			}
			if err := tx.Where("slug = ?", product.Slug).FirstOrCreate(&product).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", sp.name, err)
			}
		}
	}
	return nil
}

func seedVouchers(tx *gorm.DB, now time.Time) error {
	vouchers := []promomodels.Voucher{
		{
			Code: "WELCOME10", Description: "10% off your first order, up to 500",
			Type: promomodels.VoucherTypePercentage, Value: 10, MaxDiscount: 50000, PerUserLimit: 1,
		},
		{
			Code: "FLAT100", Description: "100 off orders above 999",
			Type: promomodels.VoucherTypeFixed, Value: 10000, MinOrderValue: 99900,
		},
	}
	for _, v := range vouchers {
		v.ValidFrom = now
		v.ValidTo = now.AddDate(1, 0, 0)
		v.Active = true
		if err := tx.Where("code = ?", v.Code).FirstOrCreate(&v).Error; err != nil {
			return fmt.Errorf("seed voucher %s: %w", v.Code, err)
		}
	}
	return nil
}
