package auction

import (
	"context"
	"time"
)

// DefaultSweepInterval is how often the settlement and payment timeout
// sweeps run.
const DefaultSweepInterval = 60 * time.Second

// RunSweeps runs both sweeps once immediately and then on every tick until
// ctx is cancelled.  The two sweeps share one loop so a slow pass delays
// the next one instead of overlapping with it.  It always returns nil once
// ctx is done, which lets it sit in an errgroup next to the HTTP server.
func (e *Engine) RunSweeps(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	log := e.log.WithField("interval", interval.String())
	log.Info("sweeps started")

	e.sweepOnce(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("sweeps stopped")
			return nil
		case <-ticker.C:
			e.sweepOnce(ctx)
		}
	}
}

func (e *Engine) sweepOnce(ctx context.Context) {
	if _, err := e.SweepExpiredListings(ctx); err != nil {
		e.log.WithError(err).Error("settlement sweep failed")
	}
	if _, err := e.SweepOverduePayments(ctx); err != nil {
		e.log.WithError(err).Error("payment timeout sweep failed")
	}
}
