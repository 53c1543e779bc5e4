package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records checkout and courier claim outcomes.
type OrderMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	checkouts        *prometheus.CounterVec
	claims           *prometheus.CounterVec
	stockMovements   *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	claims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_claims_total",
		Help: "Courier claim attempts by outcome.",
	}, []string{"outcome"})
	stockMovements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Stock ledger movements by kind.",
	}, []string{"kind"})
	reg.MustRegister(checkoutDuration, checkouts, claims, stockMovements)
	return &OrderMetrics{
		checkoutDuration: checkoutDuration,
		checkouts:        checkouts,
		claims:           claims,
		stockMovements:   stockMovements,
	}
}

// ObserveCheckout records one checkout attempt with its duration.
func (o *OrderMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if o == nil || o.checkouts == nil {
		return
	}
	label := normalizeLabel(outcome)
	o.checkouts.WithLabelValues(label).Inc()
	o.checkoutDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncClaim increments the courier claim counter for the outcome.
func (o *OrderMetrics) IncClaim(outcome string) {
	if o == nil || o.claims == nil {
		return
	}
	o.claims.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncStockMovement increments the ledger movement counter for the kind.
func (o *OrderMetrics) IncStockMovement(kind string) {
	if o == nil || o.stockMovements == nil {
		return
	}
	o.stockMovements.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
