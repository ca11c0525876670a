package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypeUserRegistered       = "user_registered"
	TypePasswordChanged      = "password_changed"
	TypeOrderPlaced          = "order_placed"
	TypeOrderStatusChanged   = "order_status_changed"
	TypePaymentStatusChanged = "payment_status_changed"
	TypeVoucherApplied       = "voucher_applied"
)

// Event is the envelope written to every bus.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher delivers domain events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

// Handler processes a decoded event.
type Handler func(ctx context.Context, evt Event) error

// Consumer drives a Handler until ctx is cancelled.
type Consumer interface {
	Run(ctx context.Context, handler Handler) error
	Close() error
}

type UserRegistered struct {
	UserID           uuid.UUID `json:"user_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	VerificationCode string    `json:"verification_code"`
}

type PasswordChanged struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
}

type OrderPlaced struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	UserID        uuid.UUID `json:"user_id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Subtotal      int64     `json:"subtotal"`
	Discount      int64     `json:"discount"`
	Total         int64     `json:"total"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	ItemCount     int       `json:"item_count"`
	VoucherCode   string    `json:"voucher_code,omitempty"`
}

type OrderStatusChanged struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	From        string    `json:"from"`
	To          string    `json:"to"`
}

type PaymentStatusChanged struct {
	OrderID         uuid.UUID `json:"order_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Status          string    `json:"status"`
	Amount          int64     `json:"amount"`
}

type VoucherApplied struct {
	VoucherID uuid.UUID `json:"voucher_id"`
	Code      string    `json:"code"`
	UserID    uuid.UUID `json:"user_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Discount  int64     `json:"discount"`
}

// NewEvent wraps payload in an envelope.
func NewEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// snsEnvelope is what SQS receives from an SNS subscription without raw delivery.
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// Decode parses an event body, unwrapping an SNS notification envelope if present.
func Decode(body []byte) (Event, error) {
	var env snsEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Type == "Notification" && env.Message != "" {
		body = []byte(env.Message)
	}

	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if evt.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing type")
	}
	return evt, nil
}

// DecodePayload unmarshals the event payload into dst.
func (e Event) DecodePayload(dst any) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
