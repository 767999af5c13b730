package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClaimLimiter is a token bucket per viewer. A zero rate disables it.
type ClaimLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	viewers map[string]*viewerBucket
	now     func() time.Time
}

type viewerBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewClaimLimiter allows perMinute claims per viewer on average with bursts
// of up to burst.
func NewClaimLimiter(perMinute, burst int) *ClaimLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClaimLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		viewers: make(map[string]*viewerBucket),
		now:     time.Now,
	}
}

// Allow consumes one token of viewerID's bucket.
func (l *ClaimLimiter) Allow(viewerID string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.viewers[viewerID]
	if !ok {
		b = &viewerBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.viewers[viewerID] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Prune drops buckets idle for longer than idle and returns how many were
// dropped. A dropped bucket restarts full, so idle should exceed the time a
// bucket needs to refill.
func (l *ClaimLimiter) Prune(idle time.Duration) int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	n := 0
	for id, b := range l.viewers {
		if b.lastSeen.Before(cutoff) {
			delete(l.viewers, id)
			n++
		}
	}
	return n
}
