// Package flow carries results between independent client flows. A flow
// that needs an answer from another one (the capture screen handing a
// storage reference back to the send screen) waits on a Future instead of
// polling shared storage.
package flow

import (
	"context"
	"errors"
	"sync"
)

// ErrAbandoned is the rejection used when the producing flow goes away
// without an answer.
var ErrAbandoned = errors.New("flow abandoned")

// Future is a write-once result.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
		settled = true
	})
	return settled
}

// Resolve completes the future with v. It reports false if the future was
// already settled.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject completes the future with err.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	if err == nil {
		err = ErrAbandoned
	}
	return f.settle(zero, err)
}

// Done is closed once the future is settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
