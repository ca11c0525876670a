package aws

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage uploads product images and hands out presigned upload URLs.
type S3Storage struct {
	presigner     *s3.PresignClient
	uploader      *manager.Uploader
	bucket        string
	publicBaseURL string
}

// NewS3Storage builds the storage. pathStyle is required by LocalStack.
// publicBaseURL overrides the default virtual-hosted object URL (CDN, LocalStack).
func NewS3Storage(cfg sdkaws.Config, bucket, publicBaseURL string, pathStyle bool) *S3Storage {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
	})
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
	}
	return &S3Storage{
		presigner:     s3.NewPresignClient(client),
		uploader:      manager.NewUploader(client),
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// PresignedUpload is what the admin UI needs to PUT a file directly.
type PresignedUpload struct {
	UploadURL string            `json:"upload_url"`
	Headers   map[string]string `json:"headers"`
	Key       string            `json:"key"`
	PublicURL string            `json:"public_url"`
	ExpiresIn int64             `json:"expires_in"`
}

// PresignPut generates a presigned PUT URL for key.
func (s *S3Storage) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*PresignedUpload, error) {
	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(s.bucket),
		Key:    sdkaws.String(key),
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}

	presigned, err := s.presigner.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string)
	for k, v := range presigned.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &PresignedUpload{
		UploadURL: presigned.URL,
		Headers:   headers,
		Key:       key,
		PublicURL: s.ObjectURL(key),
		ExpiresIn: int64(expiry.Seconds()),
	}, nil
}

// Upload streams body to key and returns the public object URL.
func (s *S3Storage) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(s.bucket),
		Key:    sdkaws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.ObjectURL(key), nil
}

func (s *S3Storage) ObjectURL(key string) string {
	return s.publicBaseURL + "/" + strings.TrimPrefix(key, "/")
}
