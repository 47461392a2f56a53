package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics records counters for the billing counter workflow.
type BillingMetrics struct {
	sessionsStarted   prometheus.Counter
	sessionsAbandoned prometheus.Counter
	invoicesFinalized *prometheus.CounterVec
	checkoutDuration  prometheus.Histogram
}

// NewBillingMetrics registers the billing metrics on the provided registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	sessionsStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_sessions_started_total",
		Help: "Billing sessions opened at the counter.",
	})
	sessionsAbandoned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_sessions_abandoned_total",
		Help: "Billing sessions cleared without checkout.",
	})
	invoicesFinalized := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_invoices_finalized_total",
		Help: "Invoices committed through checkout.",
	}, []string{"status"})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "billing_checkout_duration_seconds",
		Help:    "Duration of checkout persistence in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(sessionsStarted, sessionsAbandoned, invoicesFinalized, checkoutDuration)
	return &BillingMetrics{
		sessionsStarted:   sessionsStarted,
		sessionsAbandoned: sessionsAbandoned,
		invoicesFinalized: invoicesFinalized,
		checkoutDuration:  checkoutDuration,
	}
}

// IncSessionStarted increments the sessions-started counter.
func (b *BillingMetrics) IncSessionStarted() {
	if b == nil || b.sessionsStarted == nil {
		return
	}
	b.sessionsStarted.Inc()
}

// IncSessionAbandoned increments the abandoned-session counter.
func (b *BillingMetrics) IncSessionAbandoned() {
	if b == nil || b.sessionsAbandoned == nil {
		return
	}
	b.sessionsAbandoned.Inc()
}

// IncInvoiceFinalized increments the finalized counter for the given settlement status.
func (b *BillingMetrics) IncInvoiceFinalized(status string) {
	if b == nil || b.invoicesFinalized == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	b.invoicesFinalized.WithLabelValues(status).Inc()
}

// ObserveCheckout records the duration of a checkout persistence call.
func (b *BillingMetrics) ObserveCheckout(duration time.Duration) {
	if b == nil || b.checkoutDuration == nil {
		return
	}
	b.checkoutDuration.Observe(duration.Seconds())
}
