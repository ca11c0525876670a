package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	aws_pkg "github.com/yashrajoria/storefront-backend/pkg/aws"
)

type fakeStore struct {
	presignFn func(ctx context.Context, key, contentType string, expiry time.Duration) (*aws_pkg.PresignedUpload, error)
	uploadFn  func(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

func (f *fakeStore) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*aws_pkg.PresignedUpload, error) {
	return f.presignFn(ctx, key, contentType, expiry)
}

func (f *fakeStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	return f.uploadFn(ctx, key, contentType, body)
}

func TestUploadService_PresignBuildsKeyAndCapsExpiry(t *testing.T) {
	var gotKey string
	var gotExpiry time.Duration
	store := &fakeStore{presignFn: func(ctx context.Context, key, contentType string, expiry time.Duration) (*aws_pkg.PresignedUpload, error) {
		gotKey, gotExpiry = key, expiry
		return &aws_pkg.PresignedUpload{Key: key, UploadURL: "https://s3/" + key}, nil
	}}
	svc := NewUploadService(store)
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

	upload, svcErr := svc.Presign(context.Background(), "../../etc/photo.PNG", "image/png", 5*time.Hour)
	require.Nil(t, svcErr)
	assert.Equal(t, gotKey, upload.Key)
	assert.True(t, strings.HasPrefix(gotKey, "products/2024/03/"))
	assert.True(t, strings.HasSuffix(gotKey, ".png"))
	assert.NotContains(t, gotKey, "etc")
	assert.Equal(t, MaxPresignExpiry, gotExpiry)
}

func TestUploadService_RejectsNonImages(t *testing.T) {
	svc := NewUploadService(&fakeStore{})
	_, svcErr := svc.Presign(context.Background(), "a.exe", "application/octet-stream", 0)
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestUploadService_Disabled(t *testing.T) {
	svc := NewUploadService(nil)
	_, svcErr := svc.Upload(context.Background(), "a.png", "image/png", 10, strings.NewReader("x"))
	require.NotNil(t, svcErr)
	assert.Equal(t, 503, svcErr.StatusCode)
}

func TestUploadService_UploadFailureIsBadGateway(t *testing.T) {
	store := &fakeStore{uploadFn: func(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
		return "", errors.New("s3 down")
	}}
	svc := NewUploadService(store)

	_, svcErr := svc.Upload(context.Background(), "a.png", "image/png", 10, strings.NewReader("x"))
	require.NotNil(t, svcErr)
	assert.Equal(t, 502, svcErr.StatusCode)

	_, svcErr = svc.Upload(context.Background(), "a.png", "image/png", MaxUploadSize+1, strings.NewReader("x"))
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}
