// Package metrics defines the Prometheus collectors exported by the API and
// the background workers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stylebazaar"

// Checkout outcomes used as the "outcome" label.
const (
	OutcomePlaced = "placed"
	OutcomeFailed = "failed"
)

// CheckoutMetrics tracks order placement.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	placed   prometheus.Counter
	failed   *prometheus.CounterVec
	coupons  prometheus.Counter
}

// NewCheckoutMetrics registers the checkout collectors on reg. A nil
// registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Time spent placing an order.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"outcome"})
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders committed by checkout.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_failed_total",
		Help:      "Checkouts that did not produce an order, by reason.",
	}, []string{"reason"})
	coupons := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupon_redemptions_total",
		Help:      "Coupons redeemed by committed orders.",
	})
	reg.MustRegister(duration, placed, failed, coupons)
	return &CheckoutMetrics{
		duration: duration,
		placed:   placed,
		failed:   failed,
		coupons:  coupons,
	}
}

// ObservePlaced records a committed order.
func (m *CheckoutMetrics) ObservePlaced(duration time.Duration, couponRedeemed bool) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(OutcomePlaced).Observe(duration.Seconds())
	m.placed.Inc()
	if couponRedeemed {
		m.coupons.Inc()
	}
}

// ObserveFailed records a checkout that was rejected or rolled back.
func (m *CheckoutMetrics) ObserveFailed(duration time.Duration, reason string) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(OutcomeFailed).Observe(duration.Seconds())
	m.failed.WithLabelValues(labelOrUnknown(reason)).Inc()
}
