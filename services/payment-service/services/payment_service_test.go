package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/yashrajoria/storefront-backend/pkg/events"
	"github.com/yashrajoria/storefront-backend/services/common/testutil"
	"github.com/yashrajoria/storefront-backend/services/payment-service/models"
	"github.com/yashrajoria/storefront-backend/services/payment-service/repository"
	"go.uber.org/zap"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	args := m.Called(ctx, amount, currency, metadata)
	if v := args.Get(0); v != nil {
		return v.(*Intent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	args := m.Called(payload, signature)
	if v := args.Get(0); v != nil {
		return v.(*WebhookEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockOrderSink struct {
	mock.Mock
}

func (m *MockOrderSink) PaymentSucceeded(ctx context.Context, orderID uuid.UUID) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockOrderSink) PaymentFailed(ctx context.Context, orderID uuid.UUID) error {
	return m.Called(ctx, orderID).Error(0)
}

type PaymentServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	repo      repository.PaymentRepository
	gateway   *MockGateway
	orders    *MockOrderSink
	publisher *events.RecordingPublisher
	svc       *PaymentService
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}

func (s *PaymentServiceTestSuite) SetupTest() {
	db := testutil.NewSQLiteDB(s.T(), &models.Payment{})
	s.ctx = context.Background()
	s.repo = repository.NewGormPaymentRepo(db)
	s.gateway = new(MockGateway)
	s.orders = new(MockOrderSink)
	s.publisher = &events.RecordingPublisher{}
	s.svc = NewPaymentService(s.repo, s.gateway, s.publisher, nil, zap.NewNop())
	s.svc.SetOrderSink(s.orders)
}

func (s *PaymentServiceTestSuite) startPayment(orderID uuid.UUID, intentID string) {
	s.gateway.On("CreatePaymentIntent", mock.Anything, int64(4200), "usd", mock.Anything).
		Return(&Intent{ID: intentID, ClientSecret: intentID + "_secret"}, nil).Once()
	intent, err := s.svc.StartPayment(s.ctx, orderID, uuid.New(), 4200, "usd")
	s.Require().NoError(err)
	s.Equal(intentID+"_secret", intent.ClientSecret)
}

func (s *PaymentServiceTestSuite) TestStartPaymentStoresIntent() {
	orderID := uuid.New()
	s.startPayment(orderID, "pi_1")

	payment, err := s.repo.GetPaymentByOrderID(s.ctx, orderID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, payment.Status)
	s.Require().NotNil(payment.ProviderIntentID)
	s.Equal("pi_1", *payment.ProviderIntentID)
	s.gateway.AssertExpectations(s.T())
}

func (s *PaymentServiceTestSuite) TestStartPaymentGatewayFailure() {
	orderID := uuid.New()
	s.gateway.On("CreatePaymentIntent", mock.Anything, int64(100), "usd", mock.Anything).
		Return(nil, errors.New("stripe unavailable"))

	_, err := s.svc.StartPayment(s.ctx, orderID, uuid.New(), 100, "usd")
	s.Require().Error(err)

	payment, err := s.repo.GetPaymentByOrderID(s.ctx, orderID)
	s.Require().NoError(err)
	s.Equal(models.StatusFailed, payment.Status)
	s.Equal("stripe unavailable", payment.FailureReason)
}

func (s *PaymentServiceTestSuite) TestWebhookSucceededIsAppliedOnce() {
	orderID := uuid.New()
	s.startPayment(orderID, "pi_ok")
	evt := &WebhookEvent{ID: "evt_1", Type: EventIntentSucceeded, IntentID: "pi_ok"}
	s.gateway.On("ParseWebhook", []byte("body"), "sig").Return(evt, nil)
	s.orders.On("PaymentSucceeded", mock.Anything, orderID).Return(nil).Once()

	s.Nil(s.svc.HandleWebhook(s.ctx, []byte("body"), "sig"))
	s.Nil(s.svc.HandleWebhook(s.ctx, []byte("body"), "sig"))

	payment, _ := s.repo.GetPaymentByOrderID(s.ctx, orderID)
	s.Equal(models.StatusSucceeded, payment.Status)
	s.NotNil(payment.SucceededAt)
	s.orders.AssertExpectations(s.T())
	s.Eventually(func() bool {
		return len(s.publisher.Types()) == 1
	}, time.Second, 10*time.Millisecond)
}

func (s *PaymentServiceTestSuite) TestWebhookFailed() {
	orderID := uuid.New()
	s.startPayment(orderID, "pi_bad")
	s.gateway.On("ParseWebhook", mock.Anything, mock.Anything).
		Return(&WebhookEvent{Type: EventIntentFailed, IntentID: "pi_bad", FailureReason: "card declined"}, nil)
	s.orders.On("PaymentFailed", mock.Anything, orderID).Return(nil).Once()

	s.Nil(s.svc.HandleWebhook(s.ctx, []byte("x"), "sig"))

	payment, _ := s.repo.GetPaymentByOrderID(s.ctx, orderID)
	s.Equal(models.StatusFailed, payment.Status)
	s.Equal("card declined", payment.FailureReason)
	s.orders.AssertExpectations(s.T())
}

func (s *PaymentServiceTestSuite) TestWebhookRetryAfterFailureConfirms() {
	orderID := uuid.New()
	s.startPayment(orderID, "pi_retry")
	s.gateway.On("ParseWebhook", []byte("failed"), "sig").
		Return(&WebhookEvent{Type: EventIntentFailed, IntentID: "pi_retry", FailureReason: "insufficient funds"}, nil)
	s.gateway.On("ParseWebhook", []byte("succeeded"), "sig").
		Return(&WebhookEvent{Type: EventIntentSucceeded, IntentID: "pi_retry"}, nil)
	s.orders.On("PaymentFailed", mock.Anything, orderID).Return(nil).Once()
	s.orders.On("PaymentSucceeded", mock.Anything, orderID).Return(nil).Once()

	s.Nil(s.svc.HandleWebhook(s.ctx, []byte("failed"), "sig"))
	s.Nil(s.svc.HandleWebhook(s.ctx, []byte("failed"), "sig"))
	s.Nil(s.svc.HandleWebhook(s.ctx, []byte("succeeded"), "sig"))
	s.Nil(s.svc.HandleWebhook(s.ctx, []byte("failed"), "sig"))

	payment, err := s.repo.GetPaymentByOrderID(s.ctx, orderID)
	s.Require().NoError(err)
	s.Equal(models.StatusSucceeded, payment.Status)
	s.NotNil(payment.SucceededAt)
	s.Empty(payment.FailureReason)
	s.orders.AssertExpectations(s.T())
}

func (s *PaymentServiceTestSuite) TestWebhookInvalidSignature() {
	s.gateway.On("ParseWebhook", mock.Anything, mock.Anything).Return(nil, errors.New("bad signature"))

	svcErr := s.svc.HandleWebhook(s.ctx, []byte("x"), "sig")
	s.Require().NotNil(svcErr)
	s.Equal(400, svcErr.StatusCode)
}

func (s *PaymentServiceTestSuite) TestWebhookUnknownIntentAndType() {
	s.gateway.On("ParseWebhook", []byte("a"), "sig").
		Return(&WebhookEvent{Type: EventIntentSucceeded, IntentID: "pi_unknown"}, nil)
	s.gateway.On("ParseWebhook", []byte("b"), "sig").
		Return(&WebhookEvent{Type: "customer.created"}, nil)

	s.Nil(s.svc.HandleWebhook(s.ctx, []byte("a"), "sig"))
	s.Nil(s.svc.HandleWebhook(s.ctx, []byte("b"), "sig"))
	s.orders.AssertNotCalled(s.T(), "PaymentSucceeded", mock.Anything, mock.Anything)
}
