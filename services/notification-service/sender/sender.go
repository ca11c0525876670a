package sender

import (
	"context"
	"time"
)

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (SendResult, error)
}

// LogSender writes messages to the log instead of delivering them. It is used
// when no SMTP host is configured.
type LogSender struct {
	Logf func(to, subject string)
}

func (s LogSender) SendEmail(ctx context.Context, to, subject, body string) (SendResult, error) {
	if s.Logf != nil {
		s.Logf(to, subject)
	}
	now := time.Now().UTC()
	return SendResult{MessageID: "log-" + now.Format("20060102150405.000000000"), SentAt: now}, nil
}
