// Package notify turns lifecycle events into delivery requests. Delivery itself
// (push, polling, email) belongs to the sinks and the collaborators behind them.
package notify

import (
	"context"
	"sync"
	"time"

	"bloodlink/internal/metrics"
	"bloodlink/internal/utils"
	"bloodlink/pkg/types"

	"github.com/sirupsen/logrus"
)

// Dispatcher accepts lifecycle events. Dispatch is fire-and-forget: it never
// blocks on delivery and never reports delivery failure to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, event types.Event)
}

// Sink delivers a single event to an external delivery layer.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event types.Event) error
}

const (
	defaultBuffer         = 1024
	defaultWorkers        = 4
	defaultDeliverTimeout = 5 * time.Second
)

// AsyncDispatcher buffers events and hands them to a Sink from a fixed pool of
// workers. When the buffer is full the event is dropped and logged; failed
// deliveries are logged and left to the delivery layer to retry.
type AsyncDispatcher struct {
	sink    Sink
	logger  *logrus.Logger
	metrics *metrics.Metrics

	buffer         int
	workers        int
	deliverTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan types.Event
	wg     sync.WaitGroup
}

type Option func(*AsyncDispatcher)

func WithBuffer(n int) Option {
	return func(d *AsyncDispatcher) {
		if n > 0 {
			d.buffer = n
		}
	}
}

func WithWorkers(n int) Option {
	return func(d *AsyncDispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithDeliverTimeout(timeout time.Duration) Option {
	return func(d *AsyncDispatcher) {
		if timeout > 0 {
			d.deliverTimeout = timeout
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *AsyncDispatcher) {
		d.metrics = m
	}
}

// NewAsync starts the worker pool immediately. Call Close to drain it.
func NewAsync(sink Sink, logger *logrus.Logger, opts ...Option) *AsyncDispatcher {
	d := &AsyncDispatcher{
		sink:           sink,
		logger:         logger,
		buffer:         defaultBuffer,
		workers:        defaultWorkers,
		deliverTimeout: defaultDeliverTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.queue = make(chan types.Event, d.buffer)
	d.wg.Add(d.workers)
	for range d.workers {
		go d.work()
	}

	return d
}

func (d *AsyncDispatcher) Dispatch(_ context.Context, event types.Event) {
	if len(event.RecipientIDs) == 0 {
		return
	}
	if event.ID == "" {
		event.ID = utils.NanoID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	entry := d.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_kind": event.Kind,
		"request_id": event.Payload.RequestID,
		"recipients": len(event.RecipientIDs),
	})

	if d.closed {
		d.metrics.IncDispatch(string(event.Kind), "dropped")
		entry.Warn("dispatcher closed, dropping event")
		return
	}

	select {
	case d.queue <- event:
		d.metrics.SetQueueDepth(len(d.queue))
	default:
		d.metrics.IncDispatch(string(event.Kind), "dropped")
		entry.Error("dispatch buffer full, dropping event")
	}
}

func (d *AsyncDispatcher) work() {
	defer d.wg.Done()
	for event := range d.queue {
		d.deliver(event)
		d.metrics.SetQueueDepth(len(d.queue))
	}
}

func (d *AsyncDispatcher) deliver(event types.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.deliverTimeout)
	defer cancel()

	if err := d.sink.Deliver(ctx, event); err != nil {
		d.metrics.IncDispatch(string(event.Kind), "failed")
		d.logger.WithError(err).WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_kind": event.Kind,
			"request_id": event.Payload.RequestID,
			"sink":       d.sink.Name(),
		}).Error("failed to deliver notification")
		return
	}

	d.metrics.IncDispatch(string(event.Kind), "delivered")
}

// Close stops accepting events and waits for buffered ones to be delivered,
// or for ctx to end.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
