package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	aws_pkg "github.com/yashrajoria/storefront-backend/pkg/aws"
	"go.uber.org/zap"
)

// NoopPublisher drops events. Used when no bus is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	zap.L().Debug("event bus disabled, dropping event", zap.String("event_type", eventType))
	return nil
}

func (NoopPublisher) Close() error { return nil }

// SNSPublisher fans events out through an SNS topic.
type SNSPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

func NewSNSPublisher(client aws_pkg.SNSPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := marshalEvent(eventType, payload)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.topicArn, eventType, body)
}

func (p *SNSPublisher) Close() error { return nil }

// QueueSender is satisfied by aws_pkg.SQSQueue.
type QueueSender interface {
	SendMessage(ctx context.Context, body string) error
}

// SQSPublisher writes events straight to the notification queue.
type SQSPublisher struct {
	queue QueueSender
}

func NewSQSPublisher(queue QueueSender) *SQSPublisher {
	return &SQSPublisher{queue: queue}
}

func (p *SQSPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := marshalEvent(eventType, payload)
	if err != nil {
		return err
	}
	return p.queue.SendMessage(ctx, string(body))
}

func (p *SQSPublisher) Close() error { return nil }

// RecordingPublisher keeps events in memory. Tests use it to assert on emitted events.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []Event
}

func (p *RecordingPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.Events = append(p.Events, evt)
	p.mu.Unlock()
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

// Types returns the recorded event types in order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Type)
	}
	return out
}

func marshalEvent(eventType string, payload any) ([]byte, error) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return body, nil
}

// PublishAsync publishes in the background and only logs failures. Request
// handlers use it after their transaction has committed.
func PublishAsync(p Publisher, eventType string, payload any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.Publish(ctx, eventType, payload); err != nil {
			zap.L().Warn("failed to publish event", zap.String("event_type", eventType), zap.Error(err))
		}
	}()
}
