package viewer

import (
	"errors"
	"math"
	"time"

	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/rpc"
)

// UIState is what the chat surface renders for one media item.
type UIState string

const (
	UIReady       UIState = "ready"
	UIVisible     UIState = "visible"
	UIHidden      UIState = "hidden"
	UILockedPill  UIState = "locked_pill"
	UIExpiredPill UIState = "expired_pill"
	UIDenialToast UIState = "denial_toast"
	UIRetry       UIState = "retry"
	UIGone        UIState = "gone"
	UISignIn      UIState = "sign_in"
	UIFailed      UIState = "failed"
)

// StateFor projects the outcome of a claim onto a UI state. Every view
// error kind gets its own state.
func StateFor(err error) UIState {
	switch {
	case err == nil:
		return UIVisible
	case errors.Is(err, common.ErrAlreadyViewed):
		return UILockedPill
	case errors.Is(err, common.ErrExpired):
		return UIExpiredPill
	case errors.Is(err, common.ErrPermissionDenied), errors.Is(err, common.ErrRateLimited):
		return UIDenialToast
	case common.IsRetryable(err):
		return UIRetry
	case errors.Is(err, common.ErrorNotFound):
		return UIGone
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return UISignIn
	default:
		return UIFailed
	}
}

// PillFor is the list rendering of an item before any claim.
func PillFor(info *rpc.MediaInfo) UIState {
	switch {
	case info == nil:
		return UIGone
	case info.Hidden:
		return UIHidden
	case info.Placeholder, info.IsExpired:
		if info.State == "consumed" {
			return UILockedPill
		}
		return UIExpiredPill
	default:
		return UIReady
	}
}

// Remaining is the whole number of seconds left before expiresAt, rounded
// up and never negative.
func Remaining(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
