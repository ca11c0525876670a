package controllers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	aws_pkg "github.com/yashrajoria/storefront-backend/pkg/aws"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/product-service/services"
)

type UploadServiceAPI interface {
	Presign(ctx context.Context, filename, contentType string, expiry time.Duration) (*aws_pkg.PresignedUpload, *apperrors.ServiceError)
	Upload(ctx context.Context, filename, contentType string, size int64, body io.Reader) (string, *apperrors.ServiceError)
}

// UploadController hands out presigned S3 URLs and accepts direct multipart uploads.
type UploadController struct {
	service UploadServiceAPI
}

func NewUploadController(service UploadServiceAPI) *UploadController {
	return &UploadController{service: service}
}

type PresignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (ctrl *UploadController) Presign(c *gin.Context) {
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BindError(c, err)
		return
	}

	upload, svcErr := ctrl.service.Presign(c.Request.Context(), req.Filename, req.ContentType, time.Duration(req.ExpiresIn)*time.Second)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"upload_url": upload.UploadURL,
		"method":     http.MethodPut,
		"headers":    upload.Headers,
		"key":        upload.Key,
		"public_url": upload.PublicURL,
		"expires_in": upload.ExpiresIn,
	})
}

func (ctrl *UploadController) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadSize+1<<20)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > services.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max " + strconv.Itoa(services.MaxUploadSize/(1024*1024)) + "MB)"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer src.Close()

	url, svcErr := ctrl.service.Upload(c.Request.Context(), file.Filename, file.Header.Get("Content-Type"), file.Size, src)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "File uploaded successfully", "url": url})
}
