package viewer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/vanish/internal/client/repositories/pending"
	"github.com/dmitrijs2005/vanish/internal/rpc"
)

type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	claim       *rpc.ClaimViewResponse
	claimErr    error
	url         string
	urlErrs     []error
	finalizeErr []error
	finalizeFor map[string]error

	// When gate is set, ClaimView signals entered and waits for gate.
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeAPI) record(c string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeAPI) count(c string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, x := range f.calls {
		if x == c {
			n++
		}
	}
	return n
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	if len(*errs) > 1 {
		*errs = (*errs)[1:]
	}
	return err
}

func (f *fakeAPI) ClaimView(ctx context.Context, mediaID string) (*rpc.ClaimViewResponse, error) {
	f.record("claim")
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	c := *f.claim
	return &c, nil
}

func (f *fakeAPI) FinalizeView(ctx context.Context, mediaID string) error {
	f.record("finalize")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.finalizeFor[mediaID]; ok {
		return err
	}
	return pop(&f.finalizeErr)
}

func (f *fakeAPI) GetMediaURL(ctx context.Context, mediaID string) (string, error) {
	f.record("url")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := pop(&f.urlErrs); err != nil {
		return "", err
	}
	return f.url, nil
}

type memOutbox struct {
	mu      sync.Mutex
	entries map[string]*pending.Finalize
}

func newMemOutbox() *memOutbox {
	return &memOutbox{entries: map[string]*pending.Finalize{}}
}

func (m *memOutbox) Enqueue(ctx context.Context, mediaID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[mediaID]; !ok {
		m.entries[mediaID] = &pending.Finalize{MediaID: mediaID, CreatedAt: at, NextAttemptAt: at}
	}
	return nil
}

func (m *memOutbox) ListDue(ctx context.Context, now time.Time, limit int) ([]*pending.Finalize, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*pending.Finalize
	for _, e := range m.entries {
		if !e.NextAttemptAt.After(now) {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MediaID < out[j].MediaID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOutbox) RecordFailure(ctx context.Context, mediaID string, cause string, next time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[mediaID]; ok {
		e.Attempts++
		e.LastError = cause
		e.NextAttemptAt = next
	}
	return nil
}

func (m *memOutbox) Delete(ctx context.Context, mediaID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, mediaID)
	return nil
}

func (m *memOutbox) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

func (m *memOutbox) get(id string) *pending.Finalize {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[id]
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var fastRetry = []time.Duration{time.Millisecond, time.Millisecond}
