package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

// Intent is a provider payment intent the client confirms with ClientSecret.
type Intent struct {
	ID           string
	ClientSecret string
}

// WebhookEvent is the part of a provider callback the payment flow acts on.
type WebhookEvent struct {
	ID            string
	Type          string
	IntentID      string
	FailureReason string
}

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// Gateway talks to the payment provider.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type StripeService struct {
	api        *client.API
	webhookKey string
}

func NewStripeService(secretKey, webhookKey string) *StripeService {
	return &StripeService{api: client.New(secretKey, nil), webhookKey: webhookKey}
}

func (s *StripeService) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes payment intent events.
func (s *StripeService) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookKey, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	out.IntentID = pi.ID
	if pi.LastPaymentError != nil {
		out.FailureReason = pi.LastPaymentError.Msg
	}
	return out, nil
}
