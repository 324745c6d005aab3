package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics tracks gateway callback and order-creation activity.
type PaymentMetrics struct {
	callbacks       *prometheus.CounterVec
	ordersCreated   *prometheus.CounterVec
	initiateLatency *prometheus.HistogramVec
}

// Callback outcomes recorded against the callbacks counter.
const (
	CallbackOutcomeVerified = "verified"
	CallbackOutcomeRejected = "rejected"
	CallbackOutcomeReplayed = "replayed"
	CallbackOutcomePending  = "pending"
)

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Inbound gateway callbacks by gateway and outcome.",
	}, []string{"gateway", "outcome"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created by payment method.",
	}, []string{"method"})
	initiateLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_initiate_duration_seconds",
		Help:    "Latency of outbound gateway initiation calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway"})
	reg.MustRegister(callbacks, ordersCreated, initiateLatency)
	return &PaymentMetrics{
		callbacks:       callbacks,
		ordersCreated:   ordersCreated,
		initiateLatency: initiateLatency,
	}
}

// IncCallback counts one inbound callback for the gateway with the outcome.
func (p *PaymentMetrics) IncCallback(gateway, outcome string) {
	if p == nil || p.callbacks == nil {
		return
	}
	p.callbacks.WithLabelValues(normalizeLabel(gateway), normalizeLabel(outcome)).Inc()
}

// IncOrderCreated counts one created order for the payment method.
func (p *PaymentMetrics) IncOrderCreated(method string) {
	if p == nil || p.ordersCreated == nil {
		return
	}
	p.ordersCreated.WithLabelValues(normalizeLabel(method)).Inc()
}

// ObserveInitiate records the latency of one outbound initiation call.
func (p *PaymentMetrics) ObserveInitiate(gateway string, duration time.Duration) {
	if p == nil || p.initiateLatency == nil {
		return
	}
	p.initiateLatency.WithLabelValues(normalizeLabel(gateway)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
