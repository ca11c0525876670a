package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	authcontrollers "github.com/yashrajoria/storefront-backend/services/auth-service/controllers"
	authroutes "github.com/yashrajoria/storefront-backend/services/auth-service/routes"
	cartcontrollers "github.com/yashrajoria/storefront-backend/services/cart-service/controllers"
	cartroutes "github.com/yashrajoria/storefront-backend/services/cart-service/routes"
	"github.com/yashrajoria/storefront-backend/services/common/logger"
	"github.com/yashrajoria/storefront-backend/services/common/metrics"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
	notifycontrollers "github.com/yashrajoria/storefront-backend/services/notification-service/controllers"
	notifyroutes "github.com/yashrajoria/storefront-backend/services/notification-service/routes"
	ordercontrollers "github.com/yashrajoria/storefront-backend/services/order-service/controllers"
	orderroutes "github.com/yashrajoria/storefront-backend/services/order-service/routes"
	paymentcontrollers "github.com/yashrajoria/storefront-backend/services/payment-service/controllers"
	paymentroutes "github.com/yashrajoria/storefront-backend/services/payment-service/routes"
	productcontrollers "github.com/yashrajoria/storefront-backend/services/product-service/controllers"
	productroutes "github.com/yashrajoria/storefront-backend/services/product-service/routes"
	promocontrollers "github.com/yashrajoria/storefront-backend/services/promotion-service/controllers"
	promoroutes "github.com/yashrajoria/storefront-backend/services/promotion-service/routes"
	"go.uber.org/zap"
)

const (
	requestTimeout = 30 * time.Second
	shutdownDrain  = 10 * time.Second
)

// storefront serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, "api")
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.connectRedis(ctx); err != nil {
			a.logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
		}
		c, err := buildContainer(a, nil)
		if err != nil {
			return err
		}

		if a.cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := &http.Server{
			Addr:              ":" + a.cfg.Port,
			Handler:           newRouter(a, c),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		a.logger.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDrain)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.logger.Info("Server shutdown complete")
		return nil
	},
}

func newRouter(a *app, c *container) *gin.Engine {
	cfg := a.cfg
	r := gin.New()
	r.Use(
		gin.Recovery(),
		logger.RequestID(),
		middleware.RequestLogger(a.logger, "/health", "/metrics"),
		middleware.SecurityHeaders(cfg.IsProduction()),
		middleware.CORSMiddleware(cfg.CORSOrigins),
		middleware.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateBurst),
		middleware.PrometheusMiddleware(),
		middleware.MetricsMiddleware(a.metrics, "storefront"),
		middleware.Timeout(requestTimeout),
	)

	r.GET("/health", func(ctx *gin.Context) {
		sqlDB, err := a.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx.Request.Context())
		}
		if err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	authn := middleware.NewAuthenticator(cfg.JWTSecret)
	cache := productcontrollers.NewCacheManager(a.redis, cfg.ProductCacheTTL)
	api := r.Group("/api")

	authroutes.RegisterRoutes(api, authn,
		authcontrollers.NewAuthController(c.auth, authcontrollers.CookieConfig{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain}),
		authcontrollers.NewAddressController(c.addressSvc),
		authcontrollers.NewUserController(c.userSvc),
	)
	productroutes.RegisterRoutes(api, authn,
		productcontrollers.NewProductController(c.productSvc, cache, c.carts),
		productcontrollers.NewCategoryController(c.categorySvc, cache),
		productcontrollers.NewUploadController(c.uploadSvc),
	)
	cartroutes.RegisterRoutes(api, authn, cartcontrollers.NewCartController(c.cartSvc))
	promoroutes.RegisterRoutes(api, authn, promocontrollers.NewVoucherController(c.vouchers))
	orderroutes.RegisterRoutes(api, authn,
		ordercontrollers.NewCheckoutController(c.checkout),
		ordercontrollers.NewOrderController(c.orders),
		ordercontrollers.NewDashboardController(c.dashboard),
	)
	paymentroutes.RegisterPaymentRoutes(api, paymentcontrollers.NewPaymentController(c.payments))
	notifyroutes.RegisterRoutes(api, authn, notifycontrollers.NewNotificationController(c.notifications))
	return r
}
