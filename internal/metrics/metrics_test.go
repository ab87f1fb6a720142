package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncTransition("created")
		m.IncTransitionError("accepted", "request_closed")
		m.ObserveCandidates("critical", 3)
		m.IncDispatch("request_created", "delivered")
		m.SetQueueDepth(4)
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncTransition("created")
	m.IncTransition("created")
	m.IncTransitionError("accepted", "request_closed")
	m.ObserveCandidates("critical", 3)
	m.IncDispatch("request_created", "dropped")
	m.SetQueueDepth(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransitionErrors.WithLabelValues("accepted", "request_closed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("request_created", "dropped")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.DispatchQueueDepth))

	count, err := testutil.GatherAndCount(reg, "bloodlink_match_candidates")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
