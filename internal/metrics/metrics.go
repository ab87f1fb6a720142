package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for matching, request lifecycle and
// notification dispatch. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Lifecycle transitions by name: created, responded, accepted, cancelled, expired, updated
	Transitions *prometheus.CounterVec

	// Rejected operations by transition and error
	TransitionErrors *prometheus.CounterVec

	// Ranked candidate list sizes by urgency
	MatchCandidates *prometheus.HistogramVec

	// Dispatch outcomes by event kind: delivered, failed, dropped
	Dispatches *prometheus.CounterVec

	// Events waiting in the dispatcher buffer
	DispatchQueueDepth prometheus.Gauge
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_request_transitions_total",
			Help: "Blood request lifecycle transitions by name",
		}, []string{"transition"}),

		TransitionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_request_transition_errors_total",
			Help: "Rejected lifecycle operations by transition and reason",
		}, []string{"transition", "reason"}),

		MatchCandidates: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloodlink_match_candidates",
			Help:    "Number of ranked eligible donors returned per match",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"urgency"}),

		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_notification_dispatches_total",
			Help: "Notification dispatch outcomes by event kind",
		}, []string{"kind", "outcome"}),

		DispatchQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bloodlink_notification_queue_depth",
			Help: "Events buffered for asynchronous delivery",
		}),
	}
}

func (m *Metrics) IncTransition(transition string) {
	if m != nil {
		m.Transitions.WithLabelValues(transition).Inc()
	}
}

func (m *Metrics) IncTransitionError(transition, reason string) {
	if m != nil {
		m.TransitionErrors.WithLabelValues(transition, reason).Inc()
	}
}

func (m *Metrics) ObserveCandidates(urgency string, n int) {
	if m != nil {
		m.MatchCandidates.WithLabelValues(urgency).Observe(float64(n))
	}
}

func (m *Metrics) IncDispatch(kind, outcome string) {
	if m != nil {
		m.Dispatches.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.DispatchQueueDepth.Set(float64(n))
	}
}
