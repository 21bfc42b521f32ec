package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRunOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMatchMetrics(reg)

	m.ObserveRun(3, 0)
	m.ObserveRun(2, 1)
	m.ObserveRun(0, 3)

	if got := testutil.ToFloat64(m.matches.WithLabelValues("full")); got != 1 {
		t.Fatalf("expected 1 full run, got %v", got)
	}
	if got := testutil.ToFloat64(m.matches.WithLabelValues("partial")); got != 1 {
		t.Fatalf("expected 1 partial run, got %v", got)
	}
	if got := testutil.ToFloat64(m.matches.WithLabelValues("empty")); got != 1 {
		t.Fatalf("expected 1 empty run, got %v", got)
	}
	if got := testutil.ToFloat64(m.bookings); got != 5 {
		t.Fatalf("expected 5 bookings counted, got %v", got)
	}
	if got := testutil.ToFloat64(m.failures); got != 4 {
		t.Fatalf("expected 4 failures counted, got %v", got)
	}
}

func TestObserveRunNilSafe(t *testing.T) {
	var m *MatchMetrics
	m.ObserveRun(1, 0)

	empty := NewMatchMetrics(nil)
	empty.ObserveRun(1, 0)
}
