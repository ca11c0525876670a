package aws

import (
	"context"
	"errors"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// EventTypeAttribute is set on every published message so subscriptions can
// filter without decoding the body.
const EventTypeAttribute = "event_type"

// SNSPublisher publishes one message to a topic.
type SNSPublisher interface {
	Publish(ctx context.Context, topicArn, eventType string, message []byte) error
}

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	api SNSAPI
}

func NewSNSClient(cfg sdkaws.Config) *SNSClient {
	return &SNSClient{api: sns.NewFromConfig(cfg)}
}

func NewSNSClientWithAPI(api SNSAPI) *SNSClient {
	return &SNSClient{api: api}
}

func (s *SNSClient) Publish(ctx context.Context, topicArn, eventType string, message []byte) error {
	if topicArn == "" {
		return errors.New("sns: topic ARN not set")
	}
	_, err := s.api.Publish(ctx, &sns.PublishInput{
		TopicArn: sdkaws.String(topicArn),
		Message:  sdkaws.String(string(message)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			EventTypeAttribute: {DataType: sdkaws.String("String"), StringValue: sdkaws.String(eventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns: publish %s: %w", eventType, err)
	}
	return nil
}
