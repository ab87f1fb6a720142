package lifecycle

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper periodically expires idle open requests.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	logger   *logrus.Logger
}

func NewSweeper(manager *Manager, interval time.Duration, logger *logrus.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{manager: manager, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled. A failed sweep is logged and retried on
// the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.interval.String()).Info("expiry sweeper started")

	for {
		select {
		case <-ticker.C:
			expired, err := s.manager.ExpireIdle(ctx)
			if err != nil {
				s.logger.WithError(err).Error("expiry sweep failed")
				continue
			}
			if expired > 0 {
				s.logger.WithField("expired", expired).Info("expired idle requests")
			}
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return nil
		}
	}
}
