package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for subscription attempts.
const (
	OutcomeStored        = "stored"
	OutcomeDevelopment   = "development"
	OutcomeInvalid       = "invalid"
	OutcomeDuplicate     = "duplicate"
	OutcomeMisconfigured = "misconfigured"
	OutcomeFailed        = "failed"
)

// Metrics tracks waitlist subscription outcomes and insert latency.
type Metrics struct {
	Subscriptions  *prometheus.CounterVec
	InsertDuration prometheus.Histogram
}

// New registers the waitlist metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Subscriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pocketly_waitlist_subscriptions_total",
			Help: "Subscription attempts by outcome",
		}, []string{"outcome"}),
		InsertDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pocketly_waitlist_insert_duration_seconds",
			Help:    "Duration of subscriber store inserts",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementOutcome counts one subscription attempt.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Subscriptions.WithLabelValues(outcome).Inc()
}

// ObserveInsert records an insert that started at start.
func (m *Metrics) ObserveInsert(start time.Time) {
	if m == nil {
		return
	}
	m.InsertDuration.Observe(time.Since(start).Seconds())
}
