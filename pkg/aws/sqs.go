package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

// sqsAPI is the subset of the SQS client used here.
type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSQueue sends to and long-polls a single queue.
type SQSQueue struct {
	client   sqsAPI
	queueURL string
}

func NewSQSQueue(cfg aws.Config, queueURL string) *SQSQueue {
	return &SQSQueue{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}
}

// MessageHandler processes one message body. A non-nil error leaves the message
// on the queue so it becomes visible again after the visibility timeout.
type MessageHandler func(ctx context.Context, body string) error

// StartPolling runs until ctx is cancelled.
func (q *SQSQueue) StartPolling(ctx context.Context, handler MessageHandler) error {
	zap.L().Info("starting sqs polling", zap.String("queue_url", q.queueURL))

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("sqs polling stopped")
			return ctx.Err()
		default:
			if _, err := q.PollOnce(ctx, handler); err != nil && ctx.Err() == nil {
				zap.L().Error("error polling sqs", zap.Error(err))
			}
		}
	}
}

// PollOnce receives one batch and returns the number of messages handled successfully.
func (q *SQSQueue) PollOnce(ctx context.Context, handler MessageHandler) (int, error) {
	result, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
		VisibilityTimeout:   30,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to receive messages: %w", err)
	}

	handled := 0
	for _, msg := range result.Messages {
		if msg.Body == nil {
			continue
		}

		if err := handler(ctx, *msg.Body); err != nil {
			zap.L().Warn("failed to process sqs message", zap.Error(err))
			continue
		}
		handled++

		if _, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(q.queueURL),
			ReceiptHandle: msg.ReceiptHandle,
		}); err != nil {
			zap.L().Warn("failed to delete sqs message", zap.Error(err))
		}
	}

	return handled, nil
}

// SendMessage sends a single message to the queue.
func (q *SQSQueue) SendMessage(ctx context.Context, body string) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
