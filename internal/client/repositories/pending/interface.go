package pending

import (
	"context"
	"time"
)

// Finalize is one parked finalize call.
type Finalize struct {
	MediaID       string
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	NextAttemptAt time.Time
}

type Repository interface {
	// Enqueue parks mediaID, due immediately. Enqueuing a parked id is a no-op.
	Enqueue(ctx context.Context, mediaID string, at time.Time) error
	// ListDue returns up to limit entries whose next attempt is not after now,
	// oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Finalize, error)
	// RecordFailure bumps the attempt counter and reschedules the entry.
	RecordFailure(ctx context.Context, mediaID string, cause string, next time.Time) error
	Delete(ctx context.Context, mediaID string) error
	Count(ctx context.Context) (int, error)
}
