package viewer

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vanish/internal/client/repositories/pending"
	"github.com/dmitrijs2005/vanish/internal/logging"
)

const (
	retryBatch    = 50
	maxRetryDelay = 10 * time.Minute
)

type Finalizer interface {
	FinalizeView(ctx context.Context, mediaID string) error
}

// Retrier delivers parked finalize calls.
type Retrier struct {
	api      Finalizer
	repo     pending.Repository
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func NewRetrier(api Finalizer, repo pending.Repository, interval time.Duration, l logging.Logger) *Retrier {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Retrier{api: api, repo: repo, interval: interval, logger: l, now: time.Now}
}

// backoff doubles the interval per failed attempt up to maxRetryDelay.
func (r *Retrier) backoff(attempts int) time.Duration {
	d := r.interval
	for i := 1; i < attempts && d < maxRetryDelay; i++ {
		d *= 2
	}
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	return d
}

// RunOnce makes one pass over the due entries and returns how many were
// delivered. Entries refused by the server for good are dropped.
func (r *Retrier) RunOnce(ctx context.Context) (int, error) {
	now := r.now()
	due, err := r.repo.ListDue(ctx, now, retryBatch)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, f := range due {
		err := r.api.FinalizeView(ctx, f.MediaID)
		switch {
		case err == nil:
			delivered++
			if err := r.repo.Delete(ctx, f.MediaID); err != nil {
				return delivered, err
			}
		case parkable(err):
			next := now.Add(r.backoff(f.Attempts + 1))
			if err := r.repo.RecordFailure(ctx, f.MediaID, err.Error(), next); err != nil {
				return delivered, err
			}
		default:
			r.logger.Warn(ctx, "dropping parked finalize", "media_id", f.MediaID, "error", err)
			if err := r.repo.Delete(ctx, f.MediaID); err != nil {
				return delivered, err
			}
		}
	}
	return delivered, nil
}

// Run drains the outbox every interval until ctx is done.
func (r *Retrier) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		if n, err := r.RunOnce(ctx); err != nil {
			if ctx.Err() == nil {
				r.logger.Error(ctx, "finalize retry pass failed", "error", err)
			}
		} else if n > 0 {
			r.logger.Info(ctx, "parked finalizes delivered", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
