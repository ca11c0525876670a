package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHandlerExposesBusinessCounters(t *testing.T) {
	OrdersPlaced.WithLabelValues("cod").Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `storefront_orders_placed_total{payment_method="cod"}`)
	assert.GreaterOrEqual(t, testutil.ToFloat64(OrdersPlaced.WithLabelValues("cod")), 1.0)
}
