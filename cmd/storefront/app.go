package main

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/v9"
	aws_pkg "github.com/yashrajoria/storefront-backend/pkg/aws"
	"github.com/yashrajoria/storefront-backend/pkg/events"
	"github.com/yashrajoria/storefront-backend/services/common/cache"
	"github.com/yashrajoria/storefront-backend/services/common/config"
	"github.com/yashrajoria/storefront-backend/services/common/database"
	"github.com/yashrajoria/storefront-backend/services/common/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *gorm.DB
	awsCfg    sdkaws.Config
	metrics   *aws_pkg.MetricsClient
	publisher events.Publisher
	redis     *redis.Client
	logShip   *aws_pkg.LogShipper
}

// bootstrap loads config, sets up logging and opens the database. process
// names the CloudWatch log stream.
func bootstrap(ctx context.Context, process string) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	awsCfg, err := aws_pkg.LoadAWSConfig(ctx, cfg.AWSOptions())
	if err != nil {
		return nil, err
	}

	log := logger.Initialize(cfg.Env)
	var shipper *aws_pkg.LogShipper
	if cfg.CloudWatchLogs {
		shipper, err = aws_pkg.NewLogShipper(ctx, awsCfg, cfg.CloudWatchLogGroup, process)
		if err != nil {
			log.Warn("cloudwatch logs unavailable, logging to stdout only", zap.Error(err))
		} else {
			log = logger.InitializeWithWriter(cfg.Env, shipper)
		}
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    log,
		db:        db,
		awsCfg:    awsCfg,
		metrics:   aws_pkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchMetrics),
		publisher: newPublisher(cfg, awsCfg),
		logShip:   shipper,
	}
	log.Info("storefront starting",
		zap.String("process", process),
		zap.String("env", cfg.Env),
		zap.String("event_bus", cfg.EventBus),
	)
	return a, nil
}

// connectRedis is optional; a nil client disables caching and idempotency keys.
func (a *app) connectRedis(ctx context.Context) error {
	client, err := cache.NewRedisClient(ctx, a.cfg.RedisURL)
	if err != nil {
		return err
	}
	a.redis = client
	return nil
}

func (a *app) close() {
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("closing event publisher", zap.Error(err))
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	database.Close(a.db)
	logger.Sync()
	if a.logShip != nil {
		_ = a.logShip.Close()
	}
}
