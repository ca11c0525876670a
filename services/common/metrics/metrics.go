// Package metrics exposes Prometheus instrumentation for the storefront.
//
//	r.Use(middleware.PrometheusMiddleware())
//	r.GET("/metrics", gin.WrapH(metrics.Handler()))
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	// RequestDuration is labelled by the gin route template, not the raw path.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Orders placed, by payment method.",
		},
		[]string{"payment_method"},
	)

	OrderRevenue = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "revenue_minor_units_total",
		Help:      "Sum of placed order totals in minor currency units.",
	})

	VouchersRedeemed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vouchers",
			Name:      "redeemed_total",
			Help:      "Voucher redemptions, by voucher type.",
		},
		[]string{"type"},
	)

	CartBatchItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "batch_items_total",
			Help:      "Items processed by batch add-to-cart, by result.",
		},
		[]string{"result"}, // "added" | "failed"
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Product cache lookups, by result.",
		},
		[]string{"result"}, // "hit" | "miss"
	)

	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Notification delivery attempts, by event type and status.",
		},
		[]string{"event_type", "status"},
	)
)

// DefaultRegistry holds every storefront collector plus Go runtime metrics.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		OrdersPlaced,
		OrderRevenue,
		VouchersRedeemed,
		CartBatchItems,
		CacheLookups,
		NotificationsSent,
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
