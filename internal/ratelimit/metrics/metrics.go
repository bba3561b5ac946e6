package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DecisionAllowed  = "allowed"
	DecisionRejected = "rejected"
	DecisionError    = "error"
)

type Metrics struct {
	Decisions *prometheus.CounterVec
	Degraded  prometheus.Gauge
	Swept     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pocketly_ratelimit_decisions_total",
			Help: "Rate limit checks by decision",
		}, []string{"decision"}),
		Degraded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pocketly_ratelimit_degraded",
			Help: "1 while the shared bucket store is bypassed for the in-memory fallback",
		}),
		Swept: factory.NewCounter(prometheus.CounterOpts{
			Name: "pocketly_ratelimit_buckets_swept_total",
			Help: "Expired in-memory buckets removed by the cleanup loop",
		}),
	}
}

func (m *Metrics) IncrementDecision(decision string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) SetDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}

func (m *Metrics) AddSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Swept.Add(float64(n))
}
