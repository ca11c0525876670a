package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/storefront-backend/pkg/events"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/notification-service/models"
)

type fakeNotificationService struct {
	filter      models.NotificationFilter
	page, limit int
}

func (f *fakeNotificationService) HandleEvent(ctx context.Context, evt events.Event) error {
	return nil
}

func (f *fakeNotificationService) GetLogs(ctx context.Context, filter models.NotificationFilter, page, limit int) ([]models.NotificationLog, int64, *apperrors.ServiceError) {
	f.filter, f.page, f.limit = filter, page, limit
	return []models.NotificationLog{{ID: uuid.New(), Status: models.StatusSent}}, 21, nil
}

func newRouter(svc *fakeNotificationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/notifications", NewNotificationController(svc).GetNotificationLogs)
	return r
}

func TestGetNotificationLogs(t *testing.T) {
	svc := &fakeNotificationService{}
	userID := uuid.New()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/notifications?status=failed&event_type=order_placed&user_id="+userID.String()+"&page=2&limit=10", nil)
	newRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "failed", svc.filter.Status)
	assert.Equal(t, "order_placed", svc.filter.EventType)
	require.NotNil(t, svc.filter.UserID)
	assert.Equal(t, userID, *svc.filter.UserID)
	assert.Equal(t, 2, svc.page)
	assert.Equal(t, 10, svc.limit)

	var body struct {
		Data []models.NotificationLog `json:"data"`
		Meta struct {
			TotalPages int  `json:"total_pages"`
			HasMore    bool `json:"has_more"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, 3, body.Meta.TotalPages)
	assert.True(t, body.Meta.HasMore)
}

func TestGetNotificationLogsBadUserID(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&fakeNotificationService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/notifications?user_id=42", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid user_id"}`, w.Body.String())
}
