package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/vanish/internal/client/playback"
	"github.com/dmitrijs2005/vanish/internal/client/repositories/pending"
	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/logging"
	"github.com/dmitrijs2005/vanish/internal/rpc"
	"github.com/dmitrijs2005/vanish/internal/shared"
)

// MinHold is how long a press must last before it counts as a view.
const MinHold = 300 * time.Millisecond

// DefaultTick is the countdown refresh period.
const DefaultTick = 250 * time.Millisecond

var (
	ErrHoldTooShort   = errors.New("released before the view counted")
	ErrSessionClosed  = errors.New("session closed")
	ErrAlreadyOpened  = errors.New("session already opened")
	defaultRetryDelay = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, time.Second}
)

type Mode int

const (
	// ModeTap keeps the media open until Close.
	ModeTap Mode = iota
	// ModeHold keeps the media open while the press lasts.
	ModeHold
)

func (m Mode) String() string {
	if m == ModeHold {
		return "hold"
	}
	return "tap"
}

// API is the part of the service a session talks to.
type API interface {
	ClaimView(ctx context.Context, mediaID string) (*rpc.ClaimViewResponse, error)
	FinalizeView(ctx context.Context, mediaID string) error
	GetMediaURL(ctx context.Context, mediaID string) (string, error)
}

type Options struct {
	Mode Mode
	// Tick is the countdown refresh period, DefaultTick when zero.
	Tick time.Duration
	// HoldThreshold overrides MinHold.
	HoldThreshold time.Duration
	// RetryDelays are the waits between finalize and URL attempts that
	// failed with a retryable error.
	RetryDelays []time.Duration
	Playback    *playback.Coordinator
	Outbox      pending.Repository
	Logger      logging.Logger
	Now         func() time.Time
}

// Session is one attempt to look at one media item.
type Session struct {
	id      string
	api     API
	mediaID string
	opts    Options

	mu     sync.Mutex
	claim  *rpc.ClaimViewResponse
	url    string
	lease  *playback.Lease
	closed bool
	done   chan struct{}

	// opening is set while the claim is in flight.
	opening bool

	finalizeOnce sync.Once
	finalizeErr  error
}

func NewSession(api API, mediaID string, opts Options) *Session {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.HoldThreshold <= 0 {
		opts.HoldThreshold = MinHold
	}
	if opts.RetryDelays == nil {
		opts.RetryDelays = defaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	id, err := shared.MakeRandHexString(8)
	if err != nil {
		id = fmt.Sprintf("%x", opts.Now().UnixNano())
	}
	opts.Logger = opts.Logger.With("session_id", id)
	return &Session{
		id:      id,
		api:     api,
		mediaID: mediaID,
		opts:    opts,
		done:    make(chan struct{}),
	}
}

func (s *Session) ID() string      { return s.id }
func (s *Session) MediaID() string { return s.mediaID }

// Done is closed when the session ends, either by Close or because another
// session took the playback slot.
func (s *Session) Done() <-chan struct{} { return s.done }

// Open claims the view and only then fetches the media reference. Nothing
// may be rendered before Open returns without error. A Close that lands
// while the claim is in flight still finalizes it, and Open then returns
// ErrSessionClosed.
func (s *Session) Open(ctx context.Context) (*rpc.ClaimViewResponse, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.claim != nil || s.opening {
		s.mu.Unlock()
		return nil, ErrAlreadyOpened
	}
	s.opening = true
	s.mu.Unlock()

	claim, err := s.api.ClaimView(ctx, s.mediaID)
	if err != nil {
		s.mu.Lock()
		s.opening = false
		s.mu.Unlock()
		s.opts.Logger.Warn(ctx, "claim refused", "media_id", s.mediaID, "reason", common.Code(err))
		return nil, err
	}

	s.mu.Lock()
	s.claim = claim
	closed := s.closed
	s.mu.Unlock()
	if closed {
		s.finalizeClosed(ctx)
		return nil, ErrSessionClosed
	}

	var url string
	err = s.retry(ctx, func() error {
		var err error
		url, err = s.api.GetMediaURL(ctx, s.mediaID)
		return err
	})
	if err != nil {
		// The claim already counts; finalize so the grant does not sit in
		// the viewing state.
		_ = s.Close(ctx)
		return nil, fmt.Errorf("media reference: %w", err)
	}

	s.mu.Lock()
	closed = s.closed
	if !closed {
		s.url = url
		if s.opts.Playback != nil {
			s.lease = s.opts.Playback.Acquire(s.mediaID)
			go s.watchLease(s.lease)
		}
	}
	s.mu.Unlock()
	if closed {
		s.finalizeClosed(ctx)
		return nil, ErrSessionClosed
	}
	return claim, nil
}

// finalizeClosed finalizes a claim that completed after Close.
func (s *Session) finalizeClosed(ctx context.Context) {
	if err := s.finalize(ctx); err != nil {
		s.opts.Logger.Warn(ctx, "finalize after close failed", "media_id", s.mediaID, "error", err)
	}
}

func (s *Session) watchLease(l *playback.Lease) {
	select {
	case <-l.Done():
		s.mu.Lock()
		mine := s.lease == l
		s.mu.Unlock()
		if mine {
			s.end()
		}
	case <-s.done:
	}
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

// URL is the media reference obtained after a successful claim.
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *Session) Claim() *rpc.ClaimViewResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claim
}

// Remaining returns the seconds left on the server clock and whether the
// item has a timer at all.
func (s *Session) Remaining() (int, bool) {
	s.mu.Lock()
	claim := s.claim
	s.mu.Unlock()
	if claim == nil || claim.ExpiresAt == nil {
		return 0, false
	}
	return Remaining(*claim.ExpiresAt, s.opts.Now()), true
}

// Countdown emits the remaining seconds every tick until it reaches zero,
// the session ends or ctx is done. Items without a timer emit nothing and
// the channel closes with the session.
func (s *Session) Countdown(ctx context.Context) <-chan int {
	out := make(chan int)
	go func() {
		defer close(out)

		t := time.NewTicker(s.opts.Tick)
		defer t.Stop()

		for {
			if left, ok := s.Remaining(); ok {
				select {
				case out <- left:
				case <-ctx.Done():
					return
				case <-s.done:
					return
				}
				if left == 0 {
					return
				}
			}

			select {
			case <-t.C:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}()
	return out
}

// Hold runs a hold-to-view gesture. The view is claimed only once the press
// has lasted the hold threshold; an earlier release returns ErrHoldTooShort
// and leaves the grant untouched. After that the media stays open until
// release, expiry or preemption, and is then finalized.
func (s *Session) Hold(ctx context.Context, released <-chan struct{}) (*rpc.ClaimViewResponse, error) {
	gate := time.NewTimer(s.opts.HoldThreshold)
	defer gate.Stop()

	select {
	case <-released:
		return nil, ErrHoldTooShort
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-gate.C:
	}

	claim, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}

	var expired <-chan time.Time
	if left, ok := s.Remaining(); ok {
		timer := time.NewTimer(time.Duration(left) * time.Second)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-released:
	case <-expired:
	case <-s.done:
	case <-ctx.Done():
	}

	return claim, s.Close(context.WithoutCancel(ctx))
}

// Close finalizes the view if it was opened and releases the playback slot.
// Closing twice is safe and returns the first finalize result.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	opened := s.claim != nil
	lease := s.lease
	s.mu.Unlock()

	s.end()
	if lease != nil {
		lease.Release()
	}
	if !opened {
		return nil
	}
	return s.finalize(ctx)
}

func (s *Session) finalize(ctx context.Context) error {
	s.finalizeOnce.Do(func() {
		err := s.retry(ctx, func() error {
			return s.api.FinalizeView(ctx, s.mediaID)
		})
		if err == nil {
			return
		}
		if parkable(err) && s.opts.Outbox != nil {
			if perr := s.opts.Outbox.Enqueue(ctx, s.mediaID, s.opts.Now()); perr != nil {
				s.opts.Logger.Error(ctx, "cannot park finalize", "media_id", s.mediaID, "error", perr)
				s.finalizeErr = err
				return
			}
			s.opts.Logger.Info(ctx, "finalize parked", "media_id", s.mediaID, "error", err)
			return
		}
		s.finalizeErr = err
	})
	return s.finalizeErr
}

func (s *Session) retry(ctx context.Context, call func() error) error {
	err := call()
	for _, d := range s.opts.RetryDelays {
		if err == nil || !common.IsRetryable(err) {
			return err
		}
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return err
		}
		err = call()
	}
	return err
}

// parkable reports whether a finalize failure is worth delivering later.
// Domain refusals are final; transport and server failures are not.
func parkable(err error) bool {
	if common.IsRetryable(err) {
		return true
	}
	switch common.Code(err) {
	case "internal":
		return true
	default:
		return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	}
}
