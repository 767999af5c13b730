package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/vanish/internal/logging"
	"github.com/dmitrijs2005/vanish/internal/observability/metrics"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/media"
	"github.com/dmitrijs2005/vanish/internal/server/visibility"
)

const reaperRunTimeout = 30 * time.Second

// limiterIdle is how long an unused claim bucket is kept.
const limiterIdle = 30 * time.Minute

type expiredMediaStore interface {
	Media() media.Repository
}

// Reaper soft-deletes media with no live grant left. Reads never depend on
// it: expiry is always evaluated from timestamps, so the reaper may lag.
type Reaper struct {
	store       expiredMediaStore
	limiter     *ClaimLimiter
	interval    time.Duration
	unopenedTTL time.Duration
	logger      logging.Logger
	now         func() time.Time
}

func NewReaper(store expiredMediaStore, limiter *ClaimLimiter, interval, unopenedTTL time.Duration, logger logging.Logger) *Reaper {
	return &Reaper{
		store:       store,
		limiter:     limiter,
		interval:    interval,
		unopenedTTL: unopenedTTL,
		logger:      logger.With("module", "reaper"),
		now:         time.Now,
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Error(ctx, "expiry reaper disabled: interval must be positive", "interval", r.interval)
		return
	}

	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs one sweep and returns the number of items removed.
func (r *Reaper) RunOnce(ctx context.Context) int64 {
	if ctx.Err() != nil {
		return 0
	}

	cctx, cancel := context.WithTimeout(ctx, reaperRunTimeout)
	defer cancel()

	deleted, err := r.store.Media().SoftDeleteExpired(cctx, r.now().UTC(), visibility.PlaceholderGrace, r.unopenedTTL)
	if err != nil {
		// Shutdown/timeout cancellation is expected.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0
		}
		r.logger.Error(ctx, "expiry reaper sweep failed", "error", err)
		return 0
	}
	if deleted > 0 {
		metrics.ReaperDeletedTotal.Add(float64(deleted))
		r.logger.Info(ctx, "expired media soft-deleted", "count", deleted)
	}
	if n := r.limiter.Prune(limiterIdle); n > 0 {
		r.logger.Debug(ctx, "idle claim buckets pruned", "count", n)
	}
	return deleted
}
