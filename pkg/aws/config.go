package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"go.uber.org/zap"
)

// Options controls how the shared SDK config is built.
// Endpoint is set when running against LocalStack.
type Options struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// LoadAWSConfig loads the default SDK config and applies region, static
// credentials and a custom endpoint when provided.
func LoadAWSConfig(ctx context.Context, opts Options) (sdkaws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}

	if opts.Endpoint != "" {
		// every client targets the same edge port on LocalStack
		cfg.BaseEndpoint = sdkaws.String(opts.Endpoint)
		zap.L().Info("aws custom endpoint configured",
			zap.String("endpoint", opts.Endpoint),
			zap.String("region", cfg.Region),
		)
	}

	return cfg, nil
}
