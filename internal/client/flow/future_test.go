package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_ResolveOnce(t *testing.T) {
	f := NewFuture[string]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Resolve("media/alice/k1")
	}()

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "media/alice/k1", v)

	assert.False(t, f.Resolve("other"))
	assert.False(t, f.Reject(errors.New("late")))

	v, err = f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "media/alice/k1", v)
}

func TestFuture_Reject(t *testing.T) {
	f := NewFuture[int]()
	boom := errors.New("camera closed")
	require.True(t, f.Reject(boom))

	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, boom)

	g := NewFuture[int]()
	g.Reject(nil)
	_, err = g.Await(context.Background())
	assert.ErrorIs(t, err, ErrAbandoned)
}

func TestFuture_AwaitHonorsContext(t *testing.T) {
	f := NewFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-f.Done():
		t.Fatal("future must stay pending")
	default:
	}
}
