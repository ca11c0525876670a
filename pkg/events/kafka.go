package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// KafkaPublisher writes events to a single topic keyed by event type.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := marshalEvent(eventType, payload)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(eventType),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", eventType, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaConsumer reads events with a consumer group and commits only handled messages.
type KafkaConsumer struct {
	reader *kafka.Reader
}

func NewKafkaConsumer(brokers []string, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1e3,
		MaxBytes: 1e6,
	})}
}

func (c *KafkaConsumer) Run(ctx context.Context, handler Handler) error {
	zap.L().Info("kafka consumer started", zap.String("topic", c.reader.Config().Topic))

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("kafka fetch: %w", err)
		}

		evt, err := Decode(m.Value)
		if err != nil {
			// poison message; commit so it is not redelivered forever
			zap.L().Warn("dropping undecodable kafka message", zap.Int64("offset", m.Offset), zap.Error(err))
		} else if err := handler(ctx, evt); err != nil {
			zap.L().Warn("kafka message handler failed", zap.String("event_type", evt.Type), zap.Error(err))
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			zap.L().Warn("kafka commit failed", zap.Error(err))
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
