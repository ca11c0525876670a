package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	aws_pkg "github.com/yashrajoria/storefront-backend/pkg/aws"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"go.uber.org/zap"
)

const (
	MaxUploadSize        = 10 * 1024 * 1024
	DefaultPresignExpiry = 15 * time.Minute
	MaxPresignExpiry     = time.Hour
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ObjectStore is satisfied by aws_pkg.S3Storage.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*aws_pkg.PresignedUpload, error)
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// UploadService stores product images. A nil store disables uploads.
type UploadService struct {
	store  ObjectStore
	prefix string
	now    func() time.Time
}

func NewUploadService(store ObjectStore) *UploadService {
	return &UploadService{store: store, prefix: "products", now: time.Now}
}

func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[strings.ToLower(contentType)]
	return ok
}

func (s *UploadService) Presign(ctx context.Context, filename, contentType string, expiry time.Duration) (*aws_pkg.PresignedUpload, *apperrors.ServiceError) {
	if s.store == nil {
		return nil, apperrors.New(503, "file uploads are not configured")
	}
	if !IsAllowedImageType(contentType) {
		return nil, apperrors.BadRequest("invalid content type, allowed: image/jpeg, image/png, image/webp, image/gif")
	}
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	if expiry > MaxPresignExpiry {
		expiry = MaxPresignExpiry
	}

	upload, err := s.store.PresignPut(ctx, s.objectKey(filename, contentType), contentType, expiry)
	if err != nil {
		return nil, apperrors.Internal("failed to generate presigned upload", err)
	}
	return upload, nil
}

func (s *UploadService) Upload(ctx context.Context, filename, contentType string, size int64, body io.Reader) (string, *apperrors.ServiceError) {
	if s.store == nil {
		return "", apperrors.New(503, "file uploads are not configured")
	}
	if !IsAllowedImageType(contentType) {
		return "", apperrors.BadRequest("invalid content type, allowed: image/jpeg, image/png, image/webp, image/gif")
	}
	if size > MaxUploadSize {
		return "", apperrors.BadRequest(fmt.Sprintf("file too large (max %dMB)", MaxUploadSize/(1024*1024)))
	}

	key := s.objectKey(filename, contentType)
	url, err := s.store.Upload(ctx, key, contentType, body)
	if err != nil {
		return "", apperrors.BadGateway("failed to upload file", err)
	}
	zap.L().Info("product image uploaded", zap.String("key", key), zap.Int64("size", size))
	return url, nil
}

// objectKey builds products/YYYY/MM/<uuid><ext>; the client filename only contributes its extension.
func (s *UploadService) objectKey(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 5 {
		ext = allowedImageTypes[strings.ToLower(contentType)]
	}
	return fmt.Sprintf("%s/%s/%s%s", s.prefix, s.now().UTC().Format("2006/01"), uuid.NewString(), ext)
}
