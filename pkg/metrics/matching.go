package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MatchMetrics records outcomes of group booking match runs.
type MatchMetrics struct {
	matches  *prometheus.CounterVec
	bookings prometheus.Counter
	failures prometheus.Counter
}

// NewMatchMetrics registers the matching metrics on the provided registerer.
func NewMatchMetrics(reg prometheus.Registerer) *MatchMetrics {
	if reg == nil {
		return &MatchMetrics{}
	}
	matches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "group_match_runs",
		Help: "Group booking match runs by outcome (full, partial, empty).",
	}, []string{"outcome"})
	bookings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "group_match_bookings_created",
		Help: "Individual bookings created by the group matching engine.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "group_match_draft_failures",
		Help: "Booking drafts that failed during group matching.",
	})
	reg.MustRegister(matches, bookings, failures)
	return &MatchMetrics{
		matches:  matches,
		bookings: bookings,
		failures: failures,
	}
}

// ObserveRun records one match run with its created/failed draft counts.
func (m *MatchMetrics) ObserveRun(created, failed int) {
	if m == nil {
		return
	}
	if m.bookings != nil {
		m.bookings.Add(float64(created))
	}
	if m.failures != nil {
		m.failures.Add(float64(failed))
	}
	if m.matches == nil {
		return
	}
	switch {
	case created == 0:
		m.matches.WithLabelValues("empty").Inc()
	case failed > 0:
		m.matches.WithLabelValues("partial").Inc()
	default:
		m.matches.WithLabelValues("full").Inc()
	}
}
