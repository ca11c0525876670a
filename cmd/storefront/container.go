package main

import (
	"time"

	aws_pkg "github.com/yashrajoria/storefront-backend/pkg/aws"
	authrepo "github.com/yashrajoria/storefront-backend/services/auth-service/repository"
	authservices "github.com/yashrajoria/storefront-backend/services/auth-service/services"
	cartrepo "github.com/yashrajoria/storefront-backend/services/cart-service/repository"
	cartservices "github.com/yashrajoria/storefront-backend/services/cart-service/services"
	notifyrepo "github.com/yashrajoria/storefront-backend/services/notification-service/repository"
	"github.com/yashrajoria/storefront-backend/services/notification-service/sender"
	notifyservices "github.com/yashrajoria/storefront-backend/services/notification-service/services"
	orderrepo "github.com/yashrajoria/storefront-backend/services/order-service/repository"
	orderservices "github.com/yashrajoria/storefront-backend/services/order-service/services"
	paymentrepo "github.com/yashrajoria/storefront-backend/services/payment-service/repository"
	paymentservices "github.com/yashrajoria/storefront-backend/services/payment-service/services"
	productrepo "github.com/yashrajoria/storefront-backend/services/product-service/repository"
	productservices "github.com/yashrajoria/storefront-backend/services/product-service/services"
	promorepo "github.com/yashrajoria/storefront-backend/services/promotion-service/repository"
	promoservices "github.com/yashrajoria/storefront-backend/services/promotion-service/services"
	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

// container wires repositories and services across the service packages.
type container struct {
	users     *authrepo.UserRepository
	addresses *authrepo.AddressRepository
	products  *productrepo.ProductRepository
	carts     *cartrepo.CartRepository

	auth          *authservices.AuthService
	userSvc       *authservices.UserService
	addressSvc    *authservices.AddressService
	productSvc    *productservices.ProductService
	categorySvc   *productservices.CategoryService
	uploadSvc     *productservices.UploadService
	cartSvc       *cartservices.CartService
	vouchers      promoservices.VoucherService
	payments      *paymentservices.PaymentService
	checkout      *orderservices.CheckoutService
	orders        *orderservices.OrderService
	dashboard     *orderservices.DashboardService
	notifications notifyservices.NotificationService
}

// buildContainer wires every service. archive may be nil.
func buildContainer(a *app, archive notifyrepo.Archive) (*container, error) {
	cfg, db, log := a.cfg, a.db, a.logger

	c := &container{
		users:     authrepo.NewUserRepository(db),
		addresses: authrepo.NewAddressRepository(db),
		products:  productrepo.NewProductRepository(db),
		carts:     cartrepo.NewCartRepository(db),
	}
	categories := productrepo.NewCategoryRepository(db)
	subCategories := productrepo.NewSubCategoryRepository(db)
	orders := orderrepo.NewGormOrderRepository(db)

	tokens := authservices.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	c.auth = authservices.NewAuthService(c.users, tokens, a.publisher)
	c.userSvc = authservices.NewUserService(c.users)
	c.addressSvc = authservices.NewAddressService(c.addresses)

	c.productSvc = productservices.NewProductService(c.products, categories, subCategories)
	c.categorySvc = productservices.NewCategoryService(categories, subCategories, c.products)
	if cfg.S3Bucket != "" {
		c.uploadSvc = productservices.NewUploadService(aws_pkg.NewS3Storage(a.awsCfg, cfg.S3Bucket, cfg.S3PublicBaseURL, cfg.S3PathStyle))
	} else {
		log.Warn("S3_BUCKET not set, image uploads disabled")
		c.uploadSvc = productservices.NewUploadService(nil)
	}

	c.cartSvc = cartservices.NewCartService(c.carts, c.products, cartrepo.NewIdempotencyStore(a.redis, idempotencyTTL))
	c.vouchers = promoservices.NewVoucherService(promorepo.NewGormVoucherRepository(db), a.publisher, log.Named("vouchers"))

	c.checkout = orderservices.NewCheckoutService(db, orders, c.carts, c.products, c.vouchers, c.addresses, c.users,
		a.publisher, a.metrics, log.Named("checkout"), cfg.Currency)
	c.orders = orderservices.NewOrderService(db, orders, c.products, c.users, a.publisher, a.metrics, log.Named("orders"))
	c.dashboard = orderservices.NewDashboardService(orderrepo.NewStatsRepository(db), c.users, c.products,
		cfg.LowStockThreshold, log.Named("dashboard"))

	gateway := paymentservices.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	c.payments = paymentservices.NewPaymentService(paymentrepo.NewGormPaymentRepo(db), gateway, a.publisher, a.metrics, log.Named("payments"))
	c.payments.SetOrderSink(c.orders)
	if cfg.StripeSecretKey != "" {
		c.checkout.SetPayments(c.payments)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, online payments disabled")
	}
	c.cartSvc.SetOrderLines(c.orders.OrderLines)

	notifications, err := notifyservices.NewNotificationService(notifyrepo.NewNotificationRepository(db), archive,
		newEmailSender(a), log.Named("notifications"))
	if err != nil {
		return nil, err
	}
	c.notifications = notifications
	return c, nil
}

func newEmailSender(a *app) sender.EmailSender {
	cfg := a.cfg
	smtpSender, err := sender.NewSMTPSender(sender.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		a.logger.Warn("SMTP not configured, emails will only be logged", zap.Error(err))
		return sender.LogSender{Logf: func(to, subject string) {
			a.logger.Info("email", zap.String("to", to), zap.String("subject", subject))
		}}
	}
	return smtpSender
}
