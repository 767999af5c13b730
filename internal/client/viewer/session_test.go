package viewer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/vanish/internal/client/playback"
	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timedClaim(expiresAt time.Time) *rpc.ClaimViewResponse {
	return &rpc.ClaimViewResponse{ExpiresAt: &expiresAt, TimerSeconds: 10, ViewOnce: false, ViewCount: 1}
}

func TestSession_TapClaimsBeforeRevealAndFinalizesOnce(t *testing.T) {
	api := &fakeAPI{claim: &rpc.ClaimViewResponse{ViewOnce: true, ViewCount: 1}, url: "https://blobs/x"}
	s := NewSession(api, "m1", Options{RetryDelays: fastRetry})

	claim, err := s.Open(context.Background())
	require.NoError(t, err)
	assert.True(t, claim.ViewOnce)
	assert.Equal(t, "https://blobs/x", s.URL())
	assert.Equal(t, []string{"claim", "url"}, api.Calls())

	_, err = s.Open(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyOpened)

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, api.count("finalize"))

	select {
	case <-s.Done():
	default:
		t.Fatal("closed session must report Done")
	}
}

func TestSession_RefusedClaimRevealsNothing(t *testing.T) {
	api := &fakeAPI{claimErr: common.ErrAlreadyViewed}
	s := NewSession(api, "m1", Options{RetryDelays: fastRetry})

	_, err := s.Open(context.Background())
	require.ErrorIs(t, err, common.ErrAlreadyViewed)
	assert.Equal(t, UILockedPill, StateFor(err))
	assert.Empty(t, s.URL())

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, []string{"claim"}, api.Calls())
}

func TestSession_URLRetriesTransient(t *testing.T) {
	api := &fakeAPI{
		claim:   &rpc.ClaimViewResponse{},
		url:     "https://blobs/y",
		urlErrs: []error{common.ErrTransientStorage, nil},
	}
	s := NewSession(api, "m1", Options{RetryDelays: fastRetry})

	_, err := s.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("url"))
	assert.Equal(t, "https://blobs/y", s.URL())
}

func TestSession_URLFailureStillFinalizes(t *testing.T) {
	api := &fakeAPI{claim: &rpc.ClaimViewResponse{}, urlErrs: []error{common.ErrTransientStorage}}
	s := NewSession(api, "m1", Options{RetryDelays: fastRetry})

	_, err := s.Open(context.Background())
	require.ErrorIs(t, err, common.ErrTransientStorage)
	assert.Equal(t, UIRetry, StateFor(err))
	assert.Equal(t, 3, api.count("url"))
	assert.Equal(t, 1, api.count("finalize"))
}

func TestSession_HoldTooShortClaimsNothing(t *testing.T) {
	api := &fakeAPI{claim: &rpc.ClaimViewResponse{ViewOnce: true}}
	s := NewSession(api, "m1", Options{Mode: ModeHold, HoldThreshold: 200 * time.Millisecond})

	released := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(released)
	}()

	_, err := s.Hold(context.Background(), released)
	assert.ErrorIs(t, err, ErrHoldTooShort)
	assert.Empty(t, api.Calls())
}

func TestSession_HoldPastThresholdFinalizesOnRelease(t *testing.T) {
	api := &fakeAPI{claim: &rpc.ClaimViewResponse{ViewOnce: true}, url: "u"}
	s := NewSession(api, "m1", Options{Mode: ModeHold, HoldThreshold: 10 * time.Millisecond})

	released := make(chan struct{})
	go func() {
		time.Sleep(60 * time.Millisecond)
		close(released)
	}()

	claim, err := s.Hold(context.Background(), released)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, []string{"claim", "url", "finalize"}, api.Calls())
}

func TestSession_HoldEndsAtExpiry(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{claim: timedClaim(now.Add(-time.Millisecond)), url: "u"}
	s := NewSession(api, "m1", Options{Mode: ModeHold, HoldThreshold: time.Millisecond})

	never := make(chan struct{})
	_, err := s.Hold(context.Background(), never)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("finalize"))
}

func TestSession_FinalizeRetriesTransient(t *testing.T) {
	api := &fakeAPI{
		claim:       &rpc.ClaimViewResponse{},
		finalizeErr: []error{common.ErrTransientStorage, common.ErrTransientStorage, nil},
	}
	out := newMemOutbox()
	s := NewSession(api, "m1", Options{RetryDelays: fastRetry, Outbox: out})

	_, err := s.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	assert.Equal(t, 3, api.count("finalize"))
	n, _ := out.Count(context.Background())
	assert.Zero(t, n)
}

func TestSession_FinalizeParksUndeliverable(t *testing.T) {
	api := &fakeAPI{claim: &rpc.ClaimViewResponse{}, finalizeErr: []error{common.ErrorInternal}}
	out := newMemOutbox()
	s := NewSession(api, "m1", Options{RetryDelays: fastRetry, Outbox: out})

	_, err := s.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	assert.Equal(t, 1, api.count("finalize"))
	assert.NotNil(t, out.get("m1"))
}

func TestSession_FinalizeRefusalIsNotParked(t *testing.T) {
	api := &fakeAPI{claim: &rpc.ClaimViewResponse{}, finalizeErr: []error{common.ErrPermissionDenied}}
	out := newMemOutbox()
	s := NewSession(api, "m1", Options{RetryDelays: fastRetry, Outbox: out})

	_, err := s.Open(context.Background())
	require.NoError(t, err)

	err = s.Close(context.Background())
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
	assert.Nil(t, out.get("m1"))
}

func TestSession_CountdownFollowsServerExpiry(t *testing.T) {
	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	api := &fakeAPI{claim: timedClaim(clk.Now().Add(2500 * time.Millisecond))}
	s := NewSession(api, "m1", Options{Tick: time.Millisecond, Now: clk.Now})

	_, err := s.Open(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []int
	for left := range s.Countdown(ctx) {
		got = append(got, left)
		clk.Advance(500 * time.Millisecond)
	}
	require.NotEmpty(t, got)
	assert.Equal(t, 3, got[0])
	assert.Equal(t, 0, got[len(got)-1])
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i], got[i-1])
	}
	// the countdown never writes
	assert.Equal(t, []string{"claim", "url"}, api.Calls())
}

func TestSession_CountdownWithoutTimerClosesWithSession(t *testing.T) {
	api := &fakeAPI{claim: &rpc.ClaimViewResponse{ViewOnce: true}}
	s := NewSession(api, "m1", Options{Tick: time.Millisecond})
	_, err := s.Open(context.Background())
	require.NoError(t, err)

	ch := s.Countdown(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = s.Close(context.Background())
	}()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not close")
	}
}

func TestSession_PreemptedByNextSession(t *testing.T) {
	pb := playback.NewCoordinator()
	api := &fakeAPI{claim: &rpc.ClaimViewResponse{}}

	first := NewSession(api, "m1", Options{Playback: pb})
	_, err := first.Open(context.Background())
	require.NoError(t, err)

	second := NewSession(api, "m2", Options{Playback: pb})
	_, err = second.Open(context.Background())
	require.NoError(t, err)

	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("first session was not preempted")
	}
	owner, _ := pb.Current()
	assert.Equal(t, "m2", owner)

	require.NoError(t, first.Close(context.Background()))
	owner, ok := pb.Current()
	assert.True(t, ok)
	assert.Equal(t, "m2", owner)
}

func TestSession_OpenAfterCloseFails(t *testing.T) {
	s := NewSession(&fakeAPI{claim: &rpc.ClaimViewResponse{}}, "m1", Options{})
	require.NoError(t, s.Close(context.Background()))

	_, err := s.Open(context.Background())
	assert.True(t, errors.Is(err, ErrSessionClosed))
}

func TestSession_CloseDuringClaimStillFinalizes(t *testing.T) {
	api := &fakeAPI{
		claim:   &rpc.ClaimViewResponse{ViewOnce: true, ViewCount: 1},
		url:     "u",
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	pb := playback.NewCoordinator()
	s := NewSession(api, "m1", Options{RetryDelays: fastRetry, Playback: pb})
	ctx := context.Background()

	type result struct {
		claim *rpc.ClaimViewResponse
		err   error
	}
	res := make(chan result, 1)
	go func() {
		c, err := s.Open(ctx)
		res <- result{c, err}
	}()

	<-api.entered
	require.NoError(t, s.Close(ctx))
	assert.Zero(t, api.count("finalize"), "nothing was claimed yet")

	_, err := s.Open(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)

	close(api.gate)
	var r result
	select {
	case r = <-res:
	case <-time.After(time.Second):
		t.Fatal("open did not return")
	}

	assert.ErrorIs(t, r.err, ErrSessionClosed)
	assert.Nil(t, r.claim)
	assert.Empty(t, s.URL())
	assert.Equal(t, []string{"claim", "finalize"}, api.Calls())
	_, held := pb.Current()
	assert.False(t, held, "a closed session takes no playback slot")

	require.NoError(t, s.Close(ctx))
	assert.Equal(t, 1, api.count("finalize"))
}

func TestSession_ConcurrentOpenClaimsOnce(t *testing.T) {
	api := &fakeAPI{
		claim:   &rpc.ClaimViewResponse{},
		url:     "u",
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	s := NewSession(api, "m1", Options{RetryDelays: fastRetry})
	ctx := context.Background()

	errs := make(chan error, 1)
	go func() {
		_, err := s.Open(ctx)
		errs <- err
	}()
	<-api.entered

	_, err := s.Open(ctx)
	assert.ErrorIs(t, err, ErrAlreadyOpened)

	close(api.gate)
	require.NoError(t, <-errs)
	assert.Equal(t, 1, api.count("claim"))
}

func TestSession_IDsAreDistinct(t *testing.T) {
	a := NewSession(&fakeAPI{}, "m1", Options{})
	b := NewSession(&fakeAPI{}, "m1", Options{})

	assert.Len(t, a.ID(), 16)
	assert.NotEqual(t, a.ID(), b.ID())
}
