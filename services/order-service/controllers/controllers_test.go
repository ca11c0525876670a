package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
	"github.com/yashrajoria/storefront-backend/services/order-service/models"
	"github.com/yashrajoria/storefront-backend/services/order-service/services"
)

type fakeCheckoutService struct {
	lastCode  string
	lastPlace services.PlaceOrderRequest
	placeFn   func(req services.PlaceOrderRequest) (*services.PlaceOrderResult, *apperrors.ServiceError)
}

func (f *fakeCheckoutService) Quote(ctx context.Context, userID uuid.UUID, voucherCode string) (*services.Quote, *apperrors.ServiceError) {
	f.lastCode = voucherCode
	return &services.Quote{Subtotal: 1000, Total: 900, Discount: 100, Items: []services.QuoteLine{}}, nil
}

func (f *fakeCheckoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, req services.PlaceOrderRequest) (*services.PlaceOrderResult, *apperrors.ServiceError) {
	f.lastPlace = req
	if f.placeFn != nil {
		return f.placeFn(req)
	}
	return &services.PlaceOrderResult{Order: &models.Order{ID: uuid.New(), Status: models.StatusPending}, ClientSecret: "pi_secret"}, nil
}

type fakeOrderService struct {
	lastStatus string
	lastQuery  services.AdminOrderQuery
	cancelFn   func(userID, id uuid.UUID) (*models.Order, *apperrors.ServiceError)
	updateFn   func(id uuid.UUID, status string) (*models.Order, *apperrors.ServiceError)
}

func (f *fakeOrderService) ListMine(ctx context.Context, userID uuid.UUID, status string, page, limit int) ([]models.Order, int64, *apperrors.ServiceError) {
	f.lastStatus = status
	return []models.Order{{ID: uuid.New(), UserID: userID}}, 1, nil
}

func (f *fakeOrderService) GetMine(ctx context.Context, userID, id uuid.UUID) (*models.Order, *apperrors.ServiceError) {
	return nil, apperrors.NotFound("order not found")
}

func (f *fakeOrderService) Cancel(ctx context.Context, userID, id uuid.UUID) (*models.Order, *apperrors.ServiceError) {
	return f.cancelFn(userID, id)
}

func (f *fakeOrderService) AdminList(ctx context.Context, q services.AdminOrderQuery, page, limit int) ([]models.Order, int64, *apperrors.ServiceError) {
	f.lastQuery = q
	return []models.Order{}, 0, nil
}

func (f *fakeOrderService) AdminGet(ctx context.Context, id uuid.UUID) (*models.Order, *apperrors.ServiceError) {
	return &models.Order{ID: id}, nil
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, *apperrors.ServiceError) {
	return f.updateFn(id, status)
}

type fakeDashboardService struct {
	preset, from, to string
}

func (f *fakeDashboardService) Stats(ctx context.Context, preset, from, to string) (*services.DashboardStats, *apperrors.ServiceError) {
	f.preset, f.from, f.to = preset, from, to
	if preset == "bogus" {
		return nil, apperrors.BadRequest(services.ErrUnknownRange.Error())
	}
	return &services.DashboardStats{TotalOrders: 4, OrdersByStatus: map[string]int64{}}, nil
}

func newRouter(cc *CheckoutController, oc *OrderController, dc *DashboardController, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.ContextUserID, userID)
		}
		c.Next()
	})
	r.POST("/checkout/quote", cc.Quote)
	r.POST("/checkout/place", cc.PlaceOrder)
	r.GET("/orders", oc.ListMine)
	r.GET("/orders/:id", oc.GetMine)
	r.POST("/orders/:id/cancel", oc.Cancel)
	r.GET("/admin/orders", oc.AdminList)
	r.GET("/admin/orders/:id", oc.AdminGet)
	r.PUT("/admin/orders/:id/status", oc.UpdateStatus)
	r.GET("/admin/dashboard", dc.Stats)
	return r
}

type fixture struct {
	checkout  *fakeCheckoutService
	orders    *fakeOrderService
	dashboard *fakeDashboardService
	router    *gin.Engine
}

func newFixture(userID uuid.UUID) *fixture {
	f := &fixture{
		checkout:  &fakeCheckoutService{},
		orders:    &fakeOrderService{},
		dashboard: &fakeDashboardService{},
	}
	f.router = newRouter(NewCheckoutController(f.checkout), NewOrderController(f.orders), NewDashboardController(f.dashboard), userID)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestQuoteWithAndWithoutBody(t *testing.T) {
	f := newFixture(uuid.New())

	w := f.do(http.MethodPost, "/checkout/quote", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.checkout.lastCode)

	w = f.do(http.MethodPost, "/checkout/quote", `{"voucher_code":"SAVE10"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SAVE10", f.checkout.lastCode)

	var resp struct {
		Data services.Quote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(900), resp.Data.Total)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(uuid.New())
	addressID := uuid.New()

	w := f.do(http.MethodPost, "/checkout/place", `{"address_id":"`+addressID.String()+`","payment_method":"online","voucher_code":"X"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, addressID, f.checkout.lastPlace.AddressID)
	assert.Equal(t, "online", f.checkout.lastPlace.PaymentMethod)
	assert.Contains(t, w.Body.String(), `"client_secret":"pi_secret"`)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(uuid.New())

	w := f.do(http.MethodPost, "/checkout/place", `{"payment_method":"cod"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.checkout.placeFn = func(req services.PlaceOrderRequest) (*services.PlaceOrderResult, *apperrors.ServiceError) {
		return nil, apperrors.Conflict("insufficient stock for Tea")
	}
	w = f.do(http.MethodPost, "/checkout/place", `{"address_id":"`+uuid.NewString()+`","payment_method":"cod"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"insufficient stock for Tea"}`, w.Body.String())
}

func TestCheckoutRequiresUser(t *testing.T) {
	f := newFixture(uuid.Nil)

	w := f.do(http.MethodPost, "/checkout/quote", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = f.do(http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListMine(t *testing.T) {
	f := newFixture(uuid.New())

	w := f.do(http.MethodGet, "/orders?status=shipped&page=2&limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shipped", f.orders.lastStatus)

	var resp struct {
		Data []models.Order `json:"data"`
		Meta struct {
			Page  int   `json:"page"`
			Limit int   `json:"limit"`
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 5, resp.Meta.Limit)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestGetAndCancelMine(t *testing.T) {
	userID := uuid.New()
	f := newFixture(userID)
	orderID := uuid.New()

	w := f.do(http.MethodGet, "/orders/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodGet, "/orders/"+orderID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.orders.cancelFn = func(uid, id uuid.UUID) (*models.Order, *apperrors.ServiceError) {
		assert.Equal(t, userID, uid)
		assert.Equal(t, orderID, id)
		return &models.Order{ID: id, Status: models.StatusCancelled}, nil
	}
	w = f.do(http.MethodPost, "/orders/"+orderID.String()+"/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)
}

func TestAdminOrders(t *testing.T) {
	f := newFixture(uuid.New())
	orderID := uuid.New()

	w := f.do(http.MethodGet, "/admin/orders?status=pending&from=2026-01-01&to=2026-01-31&q=ORD-2026", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.AdminOrderQuery{Status: "pending", From: "2026-01-01", To: "2026-01-31", Query: "ORD-2026"}, f.orders.lastQuery)

	w = f.do(http.MethodGet, "/admin/orders/"+orderID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)

	f.orders.updateFn = func(id uuid.UUID, status string) (*models.Order, *apperrors.ServiceError) {
		if status == models.StatusDelivered {
			return nil, apperrors.BadRequest("cannot change status from pending to delivered")
		}
		return &models.Order{ID: id, Status: status}, nil
	}
	w = f.do(http.MethodPut, "/admin/orders/"+orderID.String()+"/status", `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodPut, "/admin/orders/"+orderID.String()+"/status", `{"status":"delivered"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodPut, "/admin/orders/"+orderID.String()+"/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(uuid.New())

	w := f.do(http.MethodGet, "/admin/dashboard?range=custom&from=2026-01-01&to=2026-01-31", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "custom", f.dashboard.preset)
	assert.Equal(t, "2026-01-01", f.dashboard.from)
	assert.Equal(t, "2026-01-31", f.dashboard.to)
	assert.Contains(t, w.Body.String(), `"total_orders":4`)

	w = f.do(http.MethodGet, "/admin/dashboard?range=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
