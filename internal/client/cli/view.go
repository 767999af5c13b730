package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/vanish/internal/client/viewer"
	"github.com/dmitrijs2005/vanish/internal/rpc"
)

const defaultHold = 1500 * time.Millisecond

func describeClaim(c *rpc.ClaimViewResponse) string {
	var parts []string
	if c.Owner {
		parts = append(parts, "your own item")
	}
	if c.ViewOnce {
		parts = append(parts, "view once")
	}
	if c.ExpiresAt != nil {
		parts = append(parts, fmt.Sprintf("%ds on the clock", c.RemainingSeconds))
	}
	if c.Watermark != "" {
		parts = append(parts, "watermark "+c.Watermark)
	}
	if !c.CanScreenshot {
		parts = append(parts, "no screenshots")
	}
	parts = append(parts, fmt.Sprintf("view #%d", c.ViewCount))
	return strings.Join(parts, ", ")
}

func (a *App) Claim(ctx context.Context, args []string) error {
	id, err := oneArg(args, "claim <media-id>")
	if err != nil {
		return err
	}
	c, err := a.api.ClaimView(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Claimed %s: %s\n", id, describeClaim(c))
	return nil
}

func (a *App) Finalize(ctx context.Context, args []string) error {
	id, err := oneArg(args, "finalize <media-id>")
	if err != nil {
		return err
	}
	if err := a.api.FinalizeView(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Finalized %s\n", id)
	return nil
}

// renderCountdown prints the session countdown until it ends. When the
// clock runs out the session is closed, which finalizes the view.
func (a *App) renderCountdown(ctx context.Context, s *viewer.Session) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		last := -1
		for left := range s.Countdown(ctx) {
			if left == last {
				continue
			}
			last = left
			if a.isTTY {
				fmt.Fprintf(a.out, "\r  %3ds left ", left)
			} else {
				fmt.Fprintf(a.out, "  %ds left\n", left)
			}
			if left == 0 {
				if a.isTTY {
					fmt.Fprintln(a.out)
				}
				fmt.Fprintln(a.out, "Time is up.")
				_ = s.Close(context.WithoutCancel(ctx))
			}
		}
	}()
	return done
}

// View opens an item in tap or hold mode. Tap mode stays open until Enter
// or the end of the timer. Hold mode simulates a press lasting hold-ms.
func (a *App) View(ctx context.Context, args []string) error {
	const usage = "view <media-id> [tap|hold] [hold-ms]"
	id, err := oneArg(args, usage)
	if err != nil {
		return err
	}

	mode := viewer.ModeTap
	hold := defaultHold
	if len(args) > 1 {
		switch args[1] {
		case "tap":
		case "hold":
			mode = viewer.ModeHold
		default:
			return usageError{usage}
		}
	}
	if len(args) > 2 {
		ms, err := strconv.Atoi(args[2])
		if err != nil || ms < 0 {
			return usageError{usage}
		}
		hold = time.Duration(ms) * time.Millisecond
	}

	s := viewer.NewSession(a.api, id, viewer.Options{
		Mode:     mode,
		Tick:     a.config.TickInterval,
		Playback: a.player,
		Outbox:   a.outbox,
		Logger:   a.logger,
	})
	defer s.Close(context.WithoutCancel(ctx))

	if mode == viewer.ModeHold {
		return a.viewHold(ctx, s, hold)
	}
	return a.viewTap(ctx, s)
}

func (a *App) viewTap(ctx context.Context, s *viewer.Session) error {
	claim, err := s.Open(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Showing %s (%s)\n  %s\n", s.MediaID(), describeClaim(claim), s.URL())

	rendered := a.renderCountdown(ctx, s)
	if _, err := GetSimpleText(a.reader, "Press Enter to close", a.out); err != nil {
		a.logger.Debug(ctx, "input closed while viewing", "error", err)
	}

	err = s.Close(context.WithoutCancel(ctx))
	<-rendered
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Closed.")
	return nil
}

func (a *App) viewHold(ctx context.Context, s *viewer.Session, hold time.Duration) error {
	fmt.Fprintf(a.out, "Holding %s for %s\n", s.MediaID(), hold)

	released := make(chan struct{})
	t := time.AfterFunc(hold, func() { close(released) })
	defer t.Stop()

	rendered := a.renderCountdown(ctx, s)
	claim, err := s.Hold(ctx, released)
	_ = s.Close(context.WithoutCancel(ctx))
	<-rendered
	if errors.Is(err, viewer.ErrHoldTooShort) {
		fmt.Fprintln(a.out, "Released too early, nothing was opened.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Released %s (%s)\n", s.MediaID(), describeClaim(claim))
	return nil
}

// Retry delivers parked finalizes now instead of waiting for the next pass.
func (a *App) Retry(ctx context.Context, _ []string) error {
	n, err := a.retrier.RunOnce(ctx)
	if err != nil {
		return err
	}
	left, err := a.outbox.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Delivered %d parked finalize(s), %d still pending\n", n, left)
	return nil
}
