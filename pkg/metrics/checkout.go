package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout outcomes and shipping estimator behavior.
type CheckoutMetrics struct {
	duration          prometheus.Histogram
	placed            prometheus.Counter
	failed            *prometheus.CounterVec
	shippingFallbacks prometheus.Counter
	couponRejections  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout executions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_placed_total",
		Help: "Orders successfully placed.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Failed checkouts by reason code.",
	}, []string{"reason"})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shipping_fallback_quotes_total",
		Help: "Shipping quotes that fell back to the minimum fee.",
	})
	couponRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_rejections_total",
		Help: "Coupon validations rejected by reason.",
	}, []string{"reason"})
	reg.MustRegister(duration, placed, failed, fallbacks, couponRejections)
	return &CheckoutMetrics{
		duration:          duration,
		placed:            placed,
		failed:            failed,
		shippingFallbacks: fallbacks,
		couponRejections:  couponRejections,
	}
}

// ObserveDuration records how long a checkout execution took.
func (m *CheckoutMetrics) ObserveDuration(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

// IncPlaced increments the successful-order counter.
func (m *CheckoutMetrics) IncPlaced() {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
}

// IncFailed increments the failure counter for the given reason code.
func (m *CheckoutMetrics) IncFailed(reason string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncShippingFallback increments the fallback-quote counter.
func (m *CheckoutMetrics) IncShippingFallback() {
	if m == nil || m.shippingFallbacks == nil {
		return
	}
	m.shippingFallbacks.Inc()
}

// IncCouponRejection increments the coupon rejection counter.
func (m *CheckoutMetrics) IncCouponRejection(reason string) {
	if m == nil || m.couponRejections == nil {
		return
	}
	m.couponRejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
