// Package telemetry holds Prometheus metrics for business-level
// observability of the checkout funnel.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the checkout funnel and
// resulting orders.
type BusinessMetrics struct {
	// Checkout funnel
	CheckoutStarted   prometheus.Counter
	CheckoutConfirmed prometheus.Counter
	CheckoutRejected  *prometheus.CounterVec

	// Orders
	OrdersCreated  prometheus.Counter
	OrderValue     prometheus.Histogram
	OrderItemCount prometheus.Histogram
}

// NewBusinessMetrics creates and registers the metrics with reg. Pass a
// dedicated registry in tests to avoid duplicate registration.
func NewBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	factory := promauto.With(reg)

	return &BusinessMetrics{
		CheckoutStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "marquez",
			Name:      "checkouts_started_total",
			Help:      "Checkout attempts that produced a payment preference.",
		}),
		CheckoutConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "marquez",
			Name:      "checkouts_confirmed_total",
			Help:      "Payment callbacks that resulted in an order.",
		}),
		CheckoutRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marquez",
			Name:      "checkouts_rejected_total",
			Help:      "Payment callbacks that did not result in an order.",
		}, []string{"reason"}),
		OrdersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "marquez",
			Name:      "orders_created_total",
			Help:      "Orders persisted at checkout confirmation.",
		}),
		OrderValue: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marquez",
			Name:      "order_value",
			Help:      "Distribution of order totals.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		OrderItemCount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marquez",
			Name:      "order_item_count",
			Help:      "Distribution of line counts per order.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}
}
