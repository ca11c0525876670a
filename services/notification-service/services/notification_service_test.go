package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yashrajoria/storefront-backend/pkg/events"
	"github.com/yashrajoria/storefront-backend/services/common/testutil"
	"github.com/yashrajoria/storefront-backend/services/notification-service/models"
	"github.com/yashrajoria/storefront-backend/services/notification-service/repository"
	"github.com/yashrajoria/storefront-backend/services/notification-service/sender"
	"go.uber.org/zap"
)

type sentMail struct {
	to, subject, body string
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sentMail
	calls  int
	failFn func(call int) error
}

func (f *fakeSender) SendEmail(ctx context.Context, to, subject, body string) (sender.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failFn != nil {
		if err := f.failFn(f.calls); err != nil {
			return sender.SendResult{}, err
		}
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return sender.SendResult{MessageID: "msg-1"}, nil
}

type fakeArchive struct {
	stored []models.NotificationLog
	err    error
}

func (a *fakeArchive) Store(ctx context.Context, log *models.NotificationLog) error {
	a.stored = append(a.stored, *log)
	return a.err
}

type NotificationServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	repo    repository.NotificationRepository
	archive *fakeArchive
	sender  *fakeSender
	svc     *notificationService
}

func TestNotificationService(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}

func (s *NotificationServiceTestSuite) SetupTest() {
	db := testutil.NewSQLiteDB(s.T(), &models.NotificationLog{})
	s.ctx = context.Background()
	s.repo = repository.NewNotificationRepository(db)
	s.archive = &fakeArchive{}
	s.sender = &fakeSender{}

	svc, err := NewNotificationService(s.repo, s.archive, s.sender, zap.NewNop())
	s.Require().NoError(err)
	s.svc = svc.(*notificationService)
	s.svc.retryDelay = 0
}

func (s *NotificationServiceTestSuite) event(eventType string, payload any) events.Event {
	evt, err := events.NewEvent(eventType, payload)
	s.Require().NoError(err)
	return evt
}

func (s *NotificationServiceTestSuite) logs() []models.NotificationLog {
	logs, _, svcErr := s.svc.GetLogs(s.ctx, models.NotificationFilter{}, 1, 50)
	s.Require().Nil(svcErr)
	return logs
}

func (s *NotificationServiceTestSuite) TestVerificationEmail() {
	userID := uuid.New()
	evt := s.event(events.TypeUserRegistered, events.UserRegistered{
		UserID: userID, Email: "asha@example.com", Name: "Asha", VerificationCode: "482913",
	})

	s.Require().NoError(s.svc.HandleEvent(s.ctx, evt))

	s.Require().Len(s.sender.sent, 1)
	mail := s.sender.sent[0]
	s.Equal("asha@example.com", mail.to)
	s.Equal("Verify your email address", mail.subject)
	s.Contains(mail.body, "482913")
	s.Contains(mail.body, "Welcome, Asha!")

	logs := s.logs()
	s.Require().Len(logs, 1)
	s.Equal(models.StatusSent, logs[0].Status)
	s.Equal(userID, logs[0].UserID)
	s.Equal(evt.ID, logs[0].EventID)
	s.Equal(1, logs[0].Attempt)
	s.Len(s.archive.stored, 1)
}

func (s *NotificationServiceTestSuite) TestOrderPlacedEmail() {
	evt := s.event(events.TypeOrderPlaced, events.OrderPlaced{
		OrderID: uuid.New(), OrderNumber: "ORD-20260310-101500-ABCD1234", UserID: uuid.New(),
		Email: "ravi@example.com", Name: "Ravi", Subtotal: 250000, Discount: 25000, Total: 225000,
		Currency: "inr", PaymentMethod: "cod", ItemCount: 3, VoucherCode: "SAVE10",
	})

	s.Require().NoError(s.svc.HandleEvent(s.ctx, evt))

	s.Require().Len(s.sender.sent, 1)
	mail := s.sender.sent[0]
	s.Equal("Order ORD-20260310-101500-ABCD1234 confirmed", mail.subject)
	s.Contains(mail.body, "2,500.00 INR")
	s.Contains(mail.body, "-250.00 INR")
	s.Contains(mail.body, "SAVE10")
	s.Contains(mail.body, "Cash on delivery")
}

func (s *NotificationServiceTestSuite) TestStatusChangedEmail() {
	evt := s.event(events.TypeOrderStatusChanged, events.OrderStatusChanged{
		OrderID: uuid.New(), OrderNumber: "ORD-1", UserID: uuid.New(),
		Email: "ravi@example.com", Name: "Ravi", From: "shipped", To: "delivered",
	})

	s.Require().NoError(s.svc.HandleEvent(s.ctx, evt))

	s.Require().Len(s.sender.sent, 1)
	s.Equal("Order ORD-1 is now delivered", s.sender.sent[0].subject)
	s.Contains(s.sender.sent[0].body, "enjoy your purchase")
}

func (s *NotificationServiceTestSuite) TestRetriesThenSucceeds() {
	s.sender.failFn = func(call int) error {
		if call < 3 {
			return errors.New("connection refused")
		}
		return nil
	}
	evt := s.event(events.TypeOrderStatusChanged, events.OrderStatusChanged{
		OrderNumber: "ORD-2", UserID: uuid.New(), Email: "ravi@example.com", To: "shipped",
	})

	s.Require().NoError(s.svc.HandleEvent(s.ctx, evt))

	s.Equal(3, s.sender.calls)
	logs := s.logs()
	s.Require().Len(logs, 3)
	statuses := map[int]string{}
	for _, l := range logs {
		statuses[l.Attempt] = l.Status
	}
	s.Equal(map[int]string{1: models.StatusFailed, 2: models.StatusFailed, 3: models.StatusSent}, statuses)
}

func (s *NotificationServiceTestSuite) TestGivesUpAfterThreeAttempts() {
	s.sender.failFn = func(int) error { return errors.New("mailbox unavailable") }
	evt := s.event(events.TypeUserRegistered, events.UserRegistered{
		UserID: uuid.New(), Email: "asha@example.com", VerificationCode: "111111",
	})

	s.Require().NoError(s.svc.HandleEvent(s.ctx, evt))

	s.Equal(maxAttempts, s.sender.calls)
	failed, total, svcErr := s.svc.GetLogs(s.ctx, models.NotificationFilter{Status: models.StatusFailed}, 1, 10)
	s.Require().Nil(svcErr)
	s.Equal(int64(3), total)
	s.Equal("mailbox unavailable", failed[0].Error)
}

func (s *NotificationServiceTestSuite) TestArchiveFailureDoesNotStopDelivery() {
	s.archive.err = errors.New("mongo down")
	evt := s.event(events.TypePasswordChanged, events.PasswordChanged{UserID: uuid.New(), Email: "asha@example.com"})

	s.Require().NoError(s.svc.HandleEvent(s.ctx, evt))
	s.Len(s.sender.sent, 1)
	s.Len(s.logs(), 1)
}

func (s *NotificationServiceTestSuite) TestIgnoredEvents() {
	s.Require().NoError(s.svc.HandleEvent(s.ctx, s.event(events.TypeVoucherApplied, events.VoucherApplied{Code: "SAVE10"})))
	s.Require().NoError(s.svc.HandleEvent(s.ctx, s.event(events.TypeOrderPlaced, events.OrderPlaced{OrderNumber: "ORD-3"})))

	s.Zero(s.sender.calls)
	s.Empty(s.logs())
}

func (s *NotificationServiceTestSuite) TestMalformedPayload() {
	evt := events.Event{ID: "evt-1", Type: events.TypeOrderPlaced, Payload: []byte(`{"total":"lots"}`)}

	err := s.svc.HandleEvent(s.ctx, evt)
	s.Require().Error(err)
	s.True(strings.Contains(err.Error(), "order_placed"))
	s.Zero(s.sender.calls)
}

func (s *NotificationServiceTestSuite) TestGetLogsRejectsUnknownStatus() {
	_, _, svcErr := s.svc.GetLogs(s.ctx, models.NotificationFilter{Status: "bounced"}, 1, 10)
	s.Require().NotNil(svcErr)
	s.Equal(400, svcErr.StatusCode)
}

func TestFormatMoney(t *testing.T) {
	cases := map[int64]string{
		0:         "0.00 INR",
		5:         "0.05 INR",
		99900:     "999.00 INR",
		123456789: "1,234,567.89 INR",
		-2550:     "-25.50 INR",
	}
	for minor, want := range cases {
		assert.Equal(t, want, formatMoney(minor, "inr"))
	}
}

func TestCanceledContextStopsRetries(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &models.NotificationLog{})
	fake := &fakeSender{}
	svc, err := NewNotificationService(repository.NewNotificationRepository(db), nil, fake, zap.NewNop())
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	evt, _ := events.NewEvent(events.TypeUserRegistered, events.UserRegistered{Email: "a@example.com"})
	fake.failFn = func(int) error {
		cancel()
		return errors.New("timeout")
	}

	assert.NoError(t, svc.HandleEvent(ctx, evt))
	assert.Equal(t, 1, fake.calls)
}
