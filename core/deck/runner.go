package deck

import (
	"context"
	"time"

	"github.com/openaid/respond/core/logger"
)

// Runner periodically sweeps every roster through the rotation check.
// It goes through the same serialized write path as interactive saves,
// so rotation never races an in-flight save for the same roster.
type Runner struct {
	store    *Store
	interval time.Duration
	log      logger.Logger
}

// NewRunner creates a rotation runner. A non-positive interval falls
// back to one minute.
func NewRunner(store *Store, interval time.Duration, log logger.Logger) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{store: store, interval: interval, log: log}
}

// Run sweeps immediately, then on every tick until the context is
// canceled.
func (r *Runner) Run(ctx context.Context) {
	r.store.RotateAll(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.store.RotateAll(ctx)
		case <-ctx.Done():
			r.log.Debugf("rotation runner stopped")
			return
		}
	}
}
