package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"bloodlink/pkg/types"

	"github.com/sirupsen/logrus"
)

// MultiSink delivers to every sink concurrently and joins their errors, so a
// slow sink never holds back the others.
type MultiSink []Sink

func (m MultiSink) Name() string {
	names := make([]string, len(m))
	for i, s := range m {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}

func (m MultiSink) Deliver(ctx context.Context, event types.Event) error {
	errs := make([]error, len(m))

	var wg sync.WaitGroup
	for i, s := range m {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Deliver(ctx, event); err != nil {
				errs[i] = fmt.Errorf("%s: %w", s.Name(), err)
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

// LogSink writes every event to the structured log.
type LogSink struct {
	logger *logrus.Logger
}

func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, event types.Event) error {
	s.logger.WithFields(logrus.Fields{
		"event_id":    event.ID,
		"event_kind":  event.Kind,
		"request_id":  event.Payload.RequestID,
		"response_id": event.Payload.ResponseID,
		"recipients":  event.RecipientIDs,
	}).Info("notification dispatched")
	return nil
}
