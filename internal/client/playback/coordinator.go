// Package playback owns the one "currently playing" slot of the client
// process. Starting a session takes the slot from whoever held it.
package playback

import "sync"

// Lease is the right to play until Done is closed.
type Lease struct {
	owner string
	c     *Coordinator
	once  sync.Once
	done  chan struct{}
}

func (l *Lease) Owner() string { return l.owner }

// Done is closed when the lease is released or taken over.
func (l *Lease) Done() <-chan struct{} { return l.done }

// Release gives the slot back. Releasing twice, or releasing a lease that
// was already taken over, is a no-op.
func (l *Lease) Release() {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	if l.c.current == l {
		l.c.current = nil
	}
	l.end()
}

func (l *Lease) end() {
	l.once.Do(func() { close(l.done) })
}

// Coordinator hands out at most one live Lease at a time.
type Coordinator struct {
	mu      sync.Mutex
	current *Lease
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Acquire ends the current lease, if any, and returns a new one for owner.
func (c *Coordinator) Acquire(owner string) *Lease {
	l := &Lease{owner: owner, c: c, done: make(chan struct{})}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.end()
	}
	c.current = l
	return l
}

// Current returns the owner of the live lease.
func (c *Coordinator) Current() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return "", false
	}
	return c.current.owner, true
}
