package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/pkg/events"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/metrics"
	"github.com/yashrajoria/storefront-backend/services/notification-service/models"
	"github.com/yashrajoria/storefront-backend/services/notification-service/repository"
	"github.com/yashrajoria/storefront-backend/services/notification-service/sender"
	"go.uber.org/zap"
)

const maxAttempts = 3

//go:embed templates/*.html
var templateFS embed.FS

type NotificationService interface {
	HandleEvent(ctx context.Context, evt events.Event) error
	GetLogs(ctx context.Context, filter models.NotificationFilter, page, limit int) ([]models.NotificationLog, int64, *apperrors.ServiceError)
}

// message is a rendered-ready email derived from an event.
type message struct {
	userID    uuid.UUID
	recipient string
	subject   string
	data      any
}

type eventConfig struct {
	tmplFile string
	build    func(evt events.Event) (message, error)
}

var eventConfigs = map[string]eventConfig{
	events.TypeUserRegistered: {
		tmplFile: "templates/user_registered.html",
		build: func(evt events.Event) (message, error) {
			var p events.UserRegistered
			if err := evt.DecodePayload(&p); err != nil {
				return message{}, err
			}
			return message{userID: p.UserID, recipient: p.Email, subject: "Verify your email address", data: p}, nil
		},
	},
	events.TypePasswordChanged: {
		tmplFile: "templates/password_changed.html",
		build: func(evt events.Event) (message, error) {
			var p events.PasswordChanged
			if err := evt.DecodePayload(&p); err != nil {
				return message{}, err
			}
			return message{userID: p.UserID, recipient: p.Email, subject: "Your password was changed", data: p}, nil
		},
	},
	events.TypeOrderPlaced: {
		tmplFile: "templates/order_placed.html",
		build: func(evt events.Event) (message, error) {
			var p events.OrderPlaced
			if err := evt.DecodePayload(&p); err != nil {
				return message{}, err
			}
			return message{
				userID:    p.UserID,
				recipient: p.Email,
				subject:   fmt.Sprintf("Order %s confirmed", p.OrderNumber),
				data:      p,
			}, nil
		},
	},
	events.TypeOrderStatusChanged: {
		tmplFile: "templates/order_status_changed.html",
		build: func(evt events.Event) (message, error) {
			var p events.OrderStatusChanged
			if err := evt.DecodePayload(&p); err != nil {
				return message{}, err
			}
			return message{
				userID:    p.UserID,
				recipient: p.Email,
				subject:   fmt.Sprintf("Order %s is now %s", p.OrderNumber, p.To),
				data:      p,
			}, nil
		},
	},
}

var templateFuncs = template.FuncMap{
	"money":         formatMoney,
	"paymentMethod": paymentMethodLabel,
}

// formatMoney renders minor units as "1,234.50 INR".
func formatMoney(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	whole := fmt.Sprintf("%d", minor/100)
	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%s%s.%02d %s", sign, grouped.String(), minor%100, strings.ToUpper(currency))
}

func paymentMethodLabel(method string) string {
	switch method {
	case "cod":
		return "Cash on delivery"
	case "online":
		return "Paid online"
	}
	return method
}

type notificationService struct {
	repo        repository.NotificationRepository
	archive     repository.Archive
	emailSender sender.EmailSender
	templates   map[string]*template.Template
	logger      *zap.Logger
	retryDelay  time.Duration
}

// NewNotificationService parses the embedded templates. archive may be nil.
func NewNotificationService(
	repo repository.NotificationRepository,
	archive repository.Archive,
	emailSender sender.EmailSender,
	logger *zap.Logger,
) (NotificationService, error) {
	tmpls := make(map[string]*template.Template, len(eventConfigs))
	for eventType, cfg := range eventConfigs {
		tmpl, err := template.New(strings.TrimPrefix(cfg.tmplFile, "templates/")).
			Funcs(templateFuncs).
			ParseFS(templateFS, cfg.tmplFile)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template for %s: %w", eventType, err)
		}
		tmpls[eventType] = tmpl
	}
	return &notificationService{
		repo:        repo,
		archive:     archive,
		emailSender: emailSender,
		templates:   tmpls,
		logger:      logger,
		retryDelay:  time.Second,
	}, nil
}

// HandleEvent emails the customer affected by evt. Event types without a
// template are acknowledged and ignored. Delivery failures are recorded and do
// not cause redelivery; a malformed payload does.
func (s *notificationService) HandleEvent(ctx context.Context, evt events.Event) error {
	cfg, ok := eventConfigs[evt.Type]
	if !ok {
		s.logger.Debug("no notification for event", zap.String("event", evt.Type))
		return nil
	}

	msg, err := cfg.build(evt)
	if err != nil {
		return err
	}
	if msg.recipient == "" {
		s.logger.Warn("missing recipient, skipping notification",
			zap.String("event", evt.Type),
			zap.String("event_id", evt.ID),
		)
		return nil
	}

	var buf bytes.Buffer
	if err := s.templates[evt.Type].Execute(&buf, msg.data); err != nil {
		return fmt.Errorf("template render failed: %w", err)
	}

	s.sendWithRetry(ctx, evt, msg, buf.String())
	return nil
}

func (s *notificationService) sendWithRetry(ctx context.Context, evt events.Event, msg message, body string) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt-1) * s.retryDelay):
			}
		}

		result, err := s.emailSender.SendEmail(ctx, msg.recipient, msg.subject, body)
		entry := &models.NotificationLog{
			EventID:   evt.ID,
			UserID:    msg.userID,
			Recipient: msg.recipient,
			EventType: evt.Type,
			Channel:   models.ChannelEmail,
			Subject:   msg.subject,
			Status:    models.StatusSent,
			Attempt:   attempt,
			MessageID: result.MessageID,
		}
		if err != nil {
			entry.Status = models.StatusFailed
			entry.Error = err.Error()
			s.logger.Warn("send attempt failed",
				zap.String("event", evt.Type),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		s.record(ctx, entry)

		if err == nil {
			s.logger.Info("notification sent",
				zap.String("event", evt.Type),
				zap.String("recipient", msg.recipient),
				zap.String("message_id", result.MessageID),
			)
			return
		}
	}
	s.logger.Error("notification undeliverable",
		zap.String("event", evt.Type),
		zap.String("event_id", evt.ID),
		zap.Int("attempts", maxAttempts),
	)
}

func (s *notificationService) record(ctx context.Context, entry *models.NotificationLog) {
	metrics.NotificationsSent.WithLabelValues(entry.EventType, entry.Status).Inc()

	if err := s.repo.SaveLog(ctx, entry); err != nil {
		s.logger.Error("failed to save notification log", zap.Error(err))
	}
	if s.archive == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.archive.Store(ctx, entry); err != nil {
		s.logger.Warn("failed to archive notification log", zap.Error(err))
	}
}

func (s *notificationService) GetLogs(ctx context.Context, filter models.NotificationFilter, page, limit int) ([]models.NotificationLog, int64, *apperrors.ServiceError) {
	if filter.Status != "" && filter.Status != models.StatusSent && filter.Status != models.StatusFailed {
		return nil, 0, apperrors.BadRequest("status must be sent or failed")
	}
	logs, total, err := s.repo.GetLogs(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to fetch notification logs", err)
	}
	return logs, total, nil
}
