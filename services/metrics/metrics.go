package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "suara"

// Assignment outcomes.
const (
	OutcomeItem      = "item"
	OutcomeCompleted = "completed"
)

// Submission statuses.
const (
	StatusCreated   = "created"
	StatusDuplicate = "duplicate"
	StatusRejected  = "rejected"
	StatusRemoved   = "removed"
)

// Metrics is safe to use as a nil pointer: every recorder is then a no-op.
type Metrics struct {
	assignments    *prometheus.CounterVec
	unknownRegions prometheus.Counter
	storeFallbacks prometheus.Counter

	submissions    *prometheus.CounterVec
	rewardCredited prometheus.Counter
	rewardDebited  prometheus.Counter
}

// New creates a new Metrics instance and registers all metrics with the provided registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "training",
			Name:      "assignments_total",
			Help:      "Training assignments served, by outcome",
		}, []string{"outcome"}),
		unknownRegions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "training",
			Name:      "unknown_regions_total",
			Help:      "Assignments whose region had no start batch and defaulted to batch 1",
		}),
		storeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "training",
			Name:      "store_fallbacks_total",
			Help:      "Assignments served with an empty completed set because the store failed",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "submission",
			Name:      "submissions_total",
			Help:      "Submissions handled, by status",
		}, []string{"status"}),
		rewardCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reward",
			Name:      "credited_sen_total",
			Help:      "Reward credited to learners, in sen",
		}),
		rewardDebited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reward",
			Name:      "debited_sen_total",
			Help:      "Reward debited from learners on removed submissions, in sen",
		}),
	}

	err := errors.Join(
		reg.Register(m.assignments),
		reg.Register(m.unknownRegions),
		reg.Register(m.storeFallbacks),
		reg.Register(m.submissions),
		reg.Register(m.rewardCredited),
		reg.Register(m.rewardDebited),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) Assignment(outcome string, regionKnown bool) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(outcome).Inc()
	if !regionKnown {
		m.unknownRegions.Inc()
	}
}

func (m *Metrics) StoreFallback() {
	if m == nil {
		return
	}
	m.storeFallbacks.Inc()
}

func (m *Metrics) Submission(status string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(status).Inc()
}

func (m *Metrics) RewardCredited(sen int64) {
	if m == nil || sen <= 0 {
		return
	}
	m.rewardCredited.Add(float64(sen))
}

func (m *Metrics) RewardDebited(sen int64) {
	if m == nil || sen <= 0 {
		return
	}
	m.rewardDebited.Add(float64(sen))
}

// Handler serves the gathered metrics, for mounting on the debug mux.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
