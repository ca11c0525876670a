package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	messages []types.Message
	deleted  []string
	sent     []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, aws.ToString(params.MessageBody))
	return &sqs.SendMessageOutput{}, nil
}

func TestPollOnce_DeletesOnlyHandledMessages(t *testing.T) {
	fake := &fakeSQS{messages: []types.Message{
		{Body: aws.String("ok"), ReceiptHandle: aws.String("r1")},
		{Body: aws.String("bad"), ReceiptHandle: aws.String("r2")},
		{ReceiptHandle: aws.String("r3")},
	}}
	q := &SQSQueue{client: fake, queueURL: "http://localhost/queue"}

	handled, err := q.PollOnce(context.Background(), func(ctx context.Context, body string) error {
		if body == "bad" {
			return errors.New("boom")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, handled)
	assert.Equal(t, []string{"r1"}, fake.deleted)
}

func TestSendMessage(t *testing.T) {
	fake := &fakeSQS{}
	q := &SQSQueue{client: fake, queueURL: "http://localhost/queue"}

	require.NoError(t, q.SendMessage(context.Background(), `{"type":"order_placed"}`))
	assert.Equal(t, []string{`{"type":"order_placed"}`}, fake.sent)
}

func TestObjectURL(t *testing.T) {
	s := NewS3Storage(aws.Config{Region: "eu-west-1"}, "images", "", false)
	assert.Equal(t, "https://images.s3.eu-west-1.amazonaws.com/products/a.png", s.ObjectURL("/products/a.png"))

	local := NewS3Storage(aws.Config{Region: "us-east-1"}, "images", "http://localhost:4566/images/", true)
	assert.Equal(t, "http://localhost:4566/images/products/a.png", local.ObjectURL("products/a.png"))
}
