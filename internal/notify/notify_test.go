package notify

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"bloodlink/internal/metrics"
	"bloodlink/internal/utils"
	"bloodlink/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	events  []types.Event
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Deliver(_ context.Context, event types.Event) error {
	if s.started != nil {
		select {
		case s.started <- struct{}{}:
		default:
		}
	}
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) delivered() []types.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Event(nil), s.events...)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func event(kind types.EventKind, recipients ...string) types.Event {
	return types.Event{
		Kind:         kind,
		RecipientIDs: recipients,
		Payload: types.Payload{
			RequestID:   "req-1",
			HospitalID:  "hosp-1",
			BloodType:   types.BloodTypeONeg,
			Urgency:     types.UrgencyNormal,
			UnitsNeeded: 2,
		},
	}
}

func TestAsyncDispatcher_DeliversAndDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewAsync(sink, quietLogger(), WithBuffer(100), WithWorkers(2))

	for range 10 {
		d.Dispatch(context.Background(), event(types.EventRequestCreated, "donor-1"))
	}
	require.NoError(t, d.Close(context.Background()))

	got := sink.delivered()
	require.Len(t, got, 10)
	for _, e := range got {
		assert.NotEmpty(t, e.ID, "event id is assigned")
		assert.False(t, e.OccurredAt.IsZero())
	}
}

func TestAsyncDispatcher_SkipsEventsWithoutRecipients(t *testing.T) {
	sink := &recordingSink{}
	d := NewAsync(sink, quietLogger())
	d.Dispatch(context.Background(), event(types.EventRequestCreated))
	require.NoError(t, d.Close(context.Background()))
	assert.Empty(t, sink.delivered())
}

func TestAsyncDispatcher_FailureIsLoggedNotReturned(t *testing.T) {
	logger, hook := test.NewNullLogger()
	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	sink := &recordingSink{err: errors.New("broker unavailable")}
	d := NewAsync(sink, logger, WithMetrics(m))

	d.Dispatch(context.Background(), event(types.EventResponseAccepted, "donor-1"))
	require.NoError(t, d.Close(context.Background()))

	require.Len(t, sink.delivered(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("response_accepted", "failed")))

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Message == "failed to deliver notification" {
			found = true
		}
	}
	assert.True(t, found, "delivery failure is logged")
}

func TestAsyncDispatcher_DropsWhenBufferFull(t *testing.T) {
	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	sink := &recordingSink{started: make(chan struct{}, 1), release: make(chan struct{})}
	d := NewAsync(sink, quietLogger(), WithBuffer(1), WithWorkers(1), WithMetrics(m))

	d.Dispatch(context.Background(), event(types.EventRequestCreated, "a"))
	select {
	case <-sink.started:
	case <-time.After(time.Second):
		t.Fatal("worker never picked up the first event")
	}

	d.Dispatch(context.Background(), event(types.EventRequestCreated, "b")) // buffered

	returned := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), event(types.EventRequestCreated, "c")) // dropped
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full buffer")
	}

	close(sink.release)
	require.NoError(t, d.Close(context.Background()))

	assert.Len(t, sink.delivered(), 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("request_created", "dropped")))
}

func TestAsyncDispatcher_DispatchAfterCloseIsDropped(t *testing.T) {
	sink := &recordingSink{}
	d := NewAsync(sink, quietLogger())
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), event(types.EventRequestCreated, "a"))
	})
	assert.Empty(t, sink.delivered())
}

func TestInbox(t *testing.T) {
	inbox := NewInbox(3)
	ctx := context.Background()

	for i, kind := range []types.EventKind{
		types.EventRequestCreated,
		types.EventResponseRejected,
		types.EventResponseAccepted,
		types.EventRequestFulfilled,
	} {
		e := event(kind, "donor-1")
		e.ID = string(rune('a' + i))
		require.NoError(t, inbox.Deliver(ctx, e))
	}
	require.NoError(t, inbox.Deliver(ctx, event(types.EventResponseReceived, "hosp-1")))

	got := inbox.List("donor-1", 0)
	require.Len(t, got, 3, "bounded per recipient")
	assert.Equal(t, types.EventRequestFulfilled, got[0].Kind, "newest first")
	assert.Equal(t, types.EventResponseRejected, got[2].Kind)

	assert.Len(t, inbox.List("donor-1", 1), 1)
	assert.Len(t, inbox.List("hosp-1", 10), 1)
	assert.Empty(t, inbox.List("nobody", 10))
}

func TestInbox_MarkReadAndDelete(t *testing.T) {
	inbox := NewInbox(10)
	ctx := context.Background()

	first := event(types.EventRequestCreated, "donor-1", "donor-2")
	first.ID = "evt-1"
	second := event(types.EventResponseAccepted, "donor-1")
	second.ID = "evt-2"
	require.NoError(t, inbox.Deliver(ctx, first))
	require.NoError(t, inbox.Deliver(ctx, second))

	require.NoError(t, inbox.MarkRead("donor-1", "evt-1"))
	got := inbox.List("donor-1", 0)
	require.Len(t, got, 2)
	assert.False(t, got[0].Read)
	assert.True(t, got[1].Read)
	assert.False(t, inbox.List("donor-2", 0)[0].Read, "read state is per recipient")

	assert.ErrorIs(t, inbox.MarkRead("donor-2", "evt-2"), types.ErrNotificationNotFound)
	assert.ErrorIs(t, inbox.MarkRead("nobody", "evt-1"), types.ErrNotificationNotFound)

	require.NoError(t, inbox.Delete("donor-1", "evt-2"))
	got = inbox.List("donor-1", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "evt-1", got[0].EventID)
	assert.Len(t, inbox.List("donor-2", 0), 1)

	assert.ErrorIs(t, inbox.Delete("donor-1", "evt-2"), types.ErrNotificationNotFound)
}

func TestRender(t *testing.T) {
	normal := event(types.EventRequestCreated, "d1")
	n := Render(normal, "d1")
	assert.Equal(t, "New Blood Request", n.Title)
	assert.Contains(t, n.Message, "2 units of O- blood")
	assert.Equal(t, "req-1", n.RequestID)

	critical := event(types.EventRequestCreated, "d1")
	critical.Payload.Urgency = types.UrgencyCritical
	assert.Equal(t, "Emergency Blood Request", Render(critical, "d1").Title)

	received := event(types.EventResponseReceived, "hosp-1")
	received.Payload.DistanceKm = utils.Float64Ptr(3.2)
	assert.Contains(t, Render(received, "hosp-1").Message, "3.2 km")

	accepted := Render(event(types.EventResponseAccepted, "d1"), "d1")
	rejected := Render(event(types.EventResponseRejected, "d2"), "d2")
	assert.NotEqual(t, accepted.Title, rejected.Title)
	assert.NotEqual(t, accepted.Message, rejected.Message)
}

func TestRecords(t *testing.T) {
	e := event(types.EventResponseRejected, "d1", "d2")
	e.ID = "evt-1"

	records, err := Records("notifications", e)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "d1", string(records[0].Key))
	assert.Equal(t, "d2", string(records[1].Key))
	assert.Equal(t, "notifications", records[0].Topic)
	assert.Contains(t, string(records[0].Value), `"recipientId":"d1"`)
	assert.Equal(t, "event_kind", records[0].Headers[1].Key)
	assert.Equal(t, "response_rejected", string(records[0].Headers[1].Value))
}

func TestMultiSink(t *testing.T) {
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("boom")}
	multi := MultiSink{ok, failing}

	err := multi.Deliver(context.Background(), event(types.EventRequestExpired, "h1"))
	require.Error(t, err)
	assert.Len(t, ok.delivered(), 1)
	assert.Len(t, failing.delivered(), 1)
	assert.Equal(t, "recording,recording", multi.Name())
	assert.Contains(t, err.Error(), "recording: boom")
}

func TestMultiSink_SlowSinkDoesNotHoldBackOthers(t *testing.T) {
	slow := &recordingSink{started: make(chan struct{}, 1), release: make(chan struct{})}
	inbox := NewInbox(10)
	multi := MultiSink{slow, inbox}

	done := make(chan error, 1)
	go func() {
		done <- multi.Deliver(context.Background(), event(types.EventRequestCreated, "d1"))
	}()

	<-slow.started
	assert.Eventually(t, func() bool {
		return len(inbox.List("d1", 0)) == 1
	}, time.Second, 5*time.Millisecond, "inbox is written while the slow sink is blocked")

	close(slow.release)
	require.NoError(t, <-done)
	assert.Len(t, slow.delivered(), 1)
}
