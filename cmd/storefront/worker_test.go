package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/storefront-backend/services/common/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockJobs struct {
	mock.Mock
}

func (m *MockJobs) ExpireVouchers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobs) CancelStaleOrders(ctx context.Context, ttl time.Duration) (int, error) {
	args := m.Called(ctx, ttl)
	return args.Int(0), args.Error(1)
}

func TestAddJobs(t *testing.T) {
	scheduler := cron.New()
	cfg := &config.Config{VoucherSweepSpec: "@every 15m", StaleOrderSweepSpec: "*/10 * * * *"}
	runner := &jobRunner{ctx: context.Background(), jobs: &MockJobs{}, logger: zap.NewNop()}

	require.NoError(t, addJobs(scheduler, cfg, runner))
	assert.Len(t, scheduler.Entries(), 2)
}

func TestAddJobsRejectsBadSpec(t *testing.T) {
	cfg := &config.Config{VoucherSweepSpec: "@every 15m", StaleOrderSweepSpec: "every ten minutes"}
	runner := &jobRunner{ctx: context.Background(), jobs: &MockJobs{}, logger: zap.NewNop()}

	assert.Error(t, addJobs(cron.New(), cfg, runner))
}

func TestJobRunner(t *testing.T) {
	jobs := new(MockJobs)
	jobs.On("ExpireVouchers", mock.Anything).Return(int64(2), nil).Once()
	jobs.On("CancelStaleOrders", mock.Anything, time.Hour).Return(0, errors.New("db down")).Once()

	core, logs := observer.New(zapcore.InfoLevel)
	runner := &jobRunner{ctx: context.Background(), jobs: jobs, ttl: time.Hour, logger: zap.New(core)}
	runner.expireVouchers()
	runner.cancelStaleOrders()

	jobs.AssertExpectations(t)
	// sweep counts are logged by the services; the runner only reports failures
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "stale order sweep failed", logs.All()[0].Message)
}
