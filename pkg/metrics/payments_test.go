package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPaymentMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPaymentMetrics(reg)

	m.IncCallback("phonepe", CallbackOutcomeVerified)
	m.IncCallback("phonepe", CallbackOutcomeVerified)
	m.IncCallback("paytm", CallbackOutcomeRejected)
	m.IncOrderCreated("cod")
	m.ObserveInitiate("razorpay", 120*time.Millisecond)

	if got := testutil.ToFloat64(m.callbacks.WithLabelValues("phonepe", CallbackOutcomeVerified)); got != 2 {
		t.Fatalf("expected 2 verified phonepe callbacks, got %v", got)
	}
	if got := testutil.ToFloat64(m.callbacks.WithLabelValues("paytm", CallbackOutcomeRejected)); got != 1 {
		t.Fatalf("expected 1 rejected paytm callback, got %v", got)
	}
	if got := testutil.ToFloat64(m.ordersCreated.WithLabelValues("cod")); got != 1 {
		t.Fatalf("expected 1 cod order, got %v", got)
	}
}

func TestPaymentMetricsNilSafe(t *testing.T) {
	var m *PaymentMetrics
	m.IncCallback("phonepe", CallbackOutcomeVerified)
	m.IncOrderCreated("cod")
	m.ObserveInitiate("razorpay", time.Second)

	empty := NewPaymentMetrics(nil)
	empty.IncCallback("", "")
}
