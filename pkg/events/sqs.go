package events

import (
	"context"

	aws_pkg "github.com/yashrajoria/storefront-backend/pkg/aws"
)

// SQSConsumer adapts an SQS queue (optionally subscribed to the SNS topic) to a Consumer.
type SQSConsumer struct {
	queue *aws_pkg.SQSQueue
}

func NewSQSConsumer(queue *aws_pkg.SQSQueue) *SQSConsumer {
	return &SQSConsumer{queue: queue}
}

func (c *SQSConsumer) Run(ctx context.Context, handler Handler) error {
	return c.queue.StartPolling(ctx, BodyHandler(handler))
}

func (c *SQSConsumer) Close() error { return nil }

// BodyHandler decodes raw message bodies before calling handler.
func BodyHandler(handler Handler) aws_pkg.MessageHandler {
	return func(ctx context.Context, body string) error {
		evt, err := Decode([]byte(body))
		if err != nil {
			return err
		}
		return handler(ctx, evt)
	}
}
