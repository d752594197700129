package sweeper

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/reservation"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/zap"
)

// Sweeper runs the expiry sweep on a fixed interval. Losing a race against
// Commit/Release for an individual reservation is expected and not an error.
type Sweeper struct {
	uc       reservation.UseCase
	interval time.Duration
	logger   logger.ZapLogger
}

func New(uc reservation.UseCase, interval time.Duration, log logger.ZapLogger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{uc: uc, interval: interval, logger: log}
}

// Start blocks until ctx is canceled. Run it in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("starting reservation expiry sweeper", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping reservation expiry sweeper")
			return
		case <-ticker.C:
			expired, err := s.uc.ExpireSweep(ctx, time.Now())
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Error("expiry sweep failed", zap.Error(err))
				continue
			}
			if expired > 0 {
				s.logger.Info("expired reservations", zap.Int("count", expired))
			}
		}
	}
}
