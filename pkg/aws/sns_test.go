package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNSAPI struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSAPI) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	return &sns.PublishOutput{}, f.err
}

func TestSNSClientPublish(t *testing.T) {
	api := &fakeSNSAPI{}
	client := NewSNSClientWithAPI(api)

	err := client.Publish(context.Background(), "arn:aws:sns:ap-south-1:1:storefront", "order_placed", []byte(`{"id":"1"}`))
	require.NoError(t, err)

	assert.Equal(t, `{"id":"1"}`, *api.input.Message)
	assert.Equal(t, "order_placed", *api.input.MessageAttributes[EventTypeAttribute].StringValue)
}

func TestSNSClientPublishErrors(t *testing.T) {
	client := NewSNSClientWithAPI(&fakeSNSAPI{err: errors.New("throttled")})

	assert.ErrorContains(t, client.Publish(context.Background(), "", "order_placed", nil), "topic ARN not set")
	assert.ErrorContains(t, client.Publish(context.Background(), "arn", "order_placed", nil), "throttled")
}
