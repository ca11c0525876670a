package main

import (
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	aws_pkg "github.com/yashrajoria/storefront-backend/pkg/aws"
	"github.com/yashrajoria/storefront-backend/pkg/events"
	"github.com/yashrajoria/storefront-backend/services/common/config"
)

// newPublisher picks the event bus named by EVENT_BUS.
func newPublisher(cfg *config.Config, awsCfg sdkaws.Config) events.Publisher {
	switch cfg.EventBus {
	case "sns":
		return events.NewSNSPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.SNSTopicARN)
	case "sqs":
		return events.NewSQSPublisher(aws_pkg.NewSQSQueue(awsCfg, cfg.SQSQueueURL))
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	return events.NoopPublisher{}
}

// newConsumer returns the reader side of the bus. SNS topics are read
// through the SQS queue subscribed to them.
func newConsumer(cfg *config.Config, awsCfg sdkaws.Config) (events.Consumer, error) {
	switch cfg.EventBus {
	case "sns", "sqs":
		if cfg.SQSQueueURL == "" {
			return nil, fmt.Errorf("SQS_QUEUE_URL is required to consume EVENT_BUS=%s", cfg.EventBus)
		}
		return events.NewSQSConsumer(aws_pkg.NewSQSQueue(awsCfg, cfg.SQSQueueURL)), nil
	case "kafka":
		return events.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID), nil
	}
	return nil, nil
}
