package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/yashrajoria/storefront-backend/services/common/config"
	"github.com/yashrajoria/storefront-backend/services/common/database"
	notifyrepo "github.com/yashrajoria/storefront-backend/services/notification-service/repository"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

var workerSkipConsumer bool

// storefront worker
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume events for notifications and run scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, "worker")
		if err != nil {
			return err
		}
		defer a.close()

		var archive notifyrepo.Archive
		if a.cfg.MongoURI != "" {
			mdb, err := database.ConnectMongo(ctx, a.cfg.MongoURI, a.cfg.MongoDB)
			if err != nil {
				return err
			}
			defer database.DisconnectMongo(mdb)
			archive = notifyrepo.NewMongoArchive(mdb)
		}

		c, err := buildContainer(a, archive)
		if err != nil {
			return err
		}

		scheduler := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
		if err := registerJobs(ctx, scheduler, a.cfg, c, a.logger); err != nil {
			return err
		}
		scheduler.Start()
		a.logger.Info("Scheduler started", zap.Int("jobs", len(scheduler.Entries())))

		consumerDone := make(chan error, 1)
		consumer, err := newConsumer(a.cfg, a.awsCfg)
		switch {
		case err != nil:
			return err
		case consumer == nil || workerSkipConsumer:
			a.logger.Warn("event consumer disabled", zap.String("event_bus", a.cfg.EventBus))
			close(consumerDone)
		default:
			defer consumer.Close()
			go func() {
				a.logger.Info("Event consumer started", zap.String("event_bus", a.cfg.EventBus))
				consumerDone <- consumer.Run(ctx, c.notifications.HandleEvent)
			}()
		}

		select {
		case <-ctx.Done():
		case err := <-consumerDone:
			if err != nil && ctx.Err() == nil {
				a.logger.Error("event consumer stopped", zap.Error(err))
			}
			<-ctx.Done()
		}

		a.logger.Info("Worker stopping, waiting for running jobs")
		<-scheduler.Stop().Done()
		a.logger.Info("Worker stopped")
		return nil
	},
}

func init() {
	workerCmd.Flags().BoolVar(&workerSkipConsumer, "skip-consumer", false, "Run scheduled jobs only")
}

// scheduledJobs is the subset of the container the cron jobs need.
type scheduledJobs interface {
	ExpireVouchers(ctx context.Context) (int64, error)
	CancelStaleOrders(ctx context.Context, ttl time.Duration) (int, error)
}

type jobRunner struct {
	ctx    context.Context
	jobs   scheduledJobs
	ttl    time.Duration
	logger *zap.Logger
}

func (j *jobRunner) expireVouchers() {
	ctx, cancel := context.WithTimeout(j.ctx, jobTimeout)
	defer cancel()
	if _, err := j.jobs.ExpireVouchers(ctx); err != nil {
		j.logger.Error("voucher expiry sweep failed", zap.Error(err))
	}
}

func (j *jobRunner) cancelStaleOrders() {
	ctx, cancel := context.WithTimeout(j.ctx, jobTimeout)
	defer cancel()
	if _, err := j.jobs.CancelStaleOrders(ctx, j.ttl); err != nil {
		j.logger.Error("stale order sweep failed", zap.Error(err))
	}
}

// containerJobs adapts the voucher and order services to scheduledJobs.
type containerJobs struct{ c *container }

func (cj containerJobs) ExpireVouchers(ctx context.Context) (int64, error) {
	return cj.c.vouchers.ExpireVouchers(ctx)
}

func (cj containerJobs) CancelStaleOrders(ctx context.Context, ttl time.Duration) (int, error) {
	return cj.c.orders.CancelStaleOrders(ctx, ttl)
}

func registerJobs(ctx context.Context, scheduler *cron.Cron, cfg *config.Config, c *container, logger *zap.Logger) error {
	return addJobs(scheduler, cfg, &jobRunner{ctx: ctx, jobs: containerJobs{c}, ttl: cfg.StaleOrderTTL, logger: logger})
}

func addJobs(scheduler *cron.Cron, cfg *config.Config, runner *jobRunner) error {
	if _, err := scheduler.AddFunc(cfg.VoucherSweepSpec, runner.expireVouchers); err != nil {
		return err
	}
	_, err := scheduler.AddFunc(cfg.StaleOrderSweepSpec, runner.cancelStaleOrders)
	return err
}
