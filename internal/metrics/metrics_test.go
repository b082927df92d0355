package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveTransfer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveTransfer(EntryBatch, true, 40)
	m.ObserveTransfer(EntryBatch, true, 10.5)
	m.ObserveTransfer(EntryPayment, false, 99)

	if got := testutil.ToFloat64(m.transfers.WithLabelValues(EntryBatch, ResultApplied)); got != 2 {
		t.Errorf("applied batch transfers: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.transfers.WithLabelValues(EntryPayment, ResultFailed)); got != 1 {
		t.Errorf("failed payment transfers: got %v, want 1", got)
	}
	// Failed transfers do not count toward the amount.
	if got := testutil.ToFloat64(m.amount); got != 50.5 {
		t.Errorf("settled amount: got %v, want 50.5", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveTransfer(EntryBatch, true, 1)
	if m.Interceptor() == nil {
		t.Error("nil Metrics should still return an interceptor")
	}
}
